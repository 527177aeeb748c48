package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"unimate-server/internal/store"
)

type RouteHandler struct {
	Store *store.Store
}

// Route returns a mock GeoJSON walking route between two points on campus.
// Real pathfinding over the building graph never shipped; the kiosk map only
// needs a plausible LineString plus the resolved destination room.
func (h *RouteHandler) Route(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": `Both "from" and "to" parameters are required`})
		return
	}

	var destination gin.H
	if room, ok := h.Store.FindRoom(to); ok {
		destination = gin.H{
			"building": room.Building,
			"number":   room.Number,
			"floor":    room.Floor,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"type": "FeatureCollection",
		"features": []gin.H{
			{
				"type": "Feature",
				"geometry": gin.H{
					"type": "LineString",
					"coordinates": [][]float64{
						{174.7693, -36.8485},
						{174.7695, -36.8487},
						{174.7697, -36.8489},
					},
				},
				"properties": gin.H{
					"from":             from,
					"to":               to,
					"distance":         "150m",
					"estimated_time":   "2 minutes",
					"destination_room": destination,
				},
			},
		},
	})
}
