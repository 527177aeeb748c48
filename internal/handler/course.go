package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"unimate-server/internal/model"
	"unimate-server/internal/store"
)

type CourseHandler struct {
	Store *store.Store
}

type createCourseBody struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *CourseHandler) List(c *gin.Context) {
	courses := h.Store.ListCourses()
	resp := make([]gin.H, 0, len(courses))
	for _, course := range courses {
		resp = append(resp, courseJSON(course))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CourseHandler) Get(c *gin.Context) {
	course, ok := h.Store.GetCourse(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}
	c.JSON(http.StatusOK, courseJSON(course))
}

func (h *CourseHandler) Create(c *gin.Context) {
	var body createCourseBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	course, err := h.Store.CreateCourse(model.Course{Code: body.Code, Name: body.Name, Description: body.Description})
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, store.ErrDuplicate) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, courseJSON(course))
}
