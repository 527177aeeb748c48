package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"unimate-server/internal/model"
)

func courseJSON(c model.Course) gin.H {
	return gin.H{
		"id":          c.ID,
		"code":        c.Code,
		"name":        c.Name,
		"description": c.Description,
	}
}

func roomJSON(r model.Room) gin.H {
	return gin.H{
		"id":          r.ID,
		"building":    r.Building,
		"number":      r.Number,
		"floor":       r.Floor,
		"coordinates": r.Coordinates,
	}
}

func eventJSON(d model.EventDetail) gin.H {
	return gin.H{
		"id":         d.Event.ID,
		"title":      d.Event.Title,
		"event_type": d.Event.EventType,
		"course":     courseJSON(d.Course),
		"room":       roomJSON(d.Room),
		"start_time": d.Event.StartTime.Format(time.RFC3339),
		"end_time":   d.Event.EndTime.Format(time.RFC3339),
		"lecturer":   d.Event.Lecturer,
		"is_urgent":  d.Event.IsUrgent,
	}
}

func eventsJSON(details []model.EventDetail) []gin.H {
	out := make([]gin.H, 0, len(details))
	for _, d := range details {
		out = append(out, eventJSON(d))
	}
	return out
}

func userJSON(u model.User, events []model.EventDetail) gin.H {
	return gin.H{
		"id":       u.ID,
		"username": u.Username,
		"events":   eventsJSON(events),
	}
}
