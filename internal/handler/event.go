package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"unimate-server/internal/middleware"
	"unimate-server/internal/model"
	"unimate-server/internal/store"
)

type EventHandler struct {
	Store *store.Store
}

type createEventBody struct {
	Title     string `json:"title"`
	EventType string `json:"event_type"`
	CourseID  string `json:"course_id"`
	RoomID    string `json:"room_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Lecturer  string `json:"lecturer"`
	IsUrgent  bool   `json:"is_urgent"`
}

// List returns the authenticated user's events, scoped to their enrollments.
func (h *EventHandler) List(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}
	c.JSON(http.StatusOK, eventsJSON(h.Store.ListEventsForUser(userID)))
}

func (h *EventHandler) Get(c *gin.Context) {
	detail, ok := h.Store.GetEvent(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}
	c.JSON(http.StatusOK, eventJSON(detail))
}

func (h *EventHandler) Create(c *gin.Context) {
	var body createEventBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	start, err := time.Parse(time.RFC3339, body.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_time"})
		return
	}
	end, err := time.Parse(time.RFC3339, body.EndTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end_time"})
		return
	}

	event, err := h.Store.CreateEvent(model.Event{
		Title:     body.Title,
		EventType: body.EventType,
		CourseID:  body.CourseID,
		RoomID:    body.RoomID,
		StartTime: start,
		EndTime:   end,
		Lecturer:  body.Lecturer,
		IsUrgent:  body.IsUrgent,
	})
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	detail, _ := h.Store.GetEvent(event.ID)
	c.JSON(http.StatusCreated, eventJSON(detail))
}
