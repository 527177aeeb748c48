package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"unimate-server/internal/model"
	"unimate-server/internal/store"
)

type RoomHandler struct {
	Store *store.Store
}

type createRoomBody struct {
	Building    string             `json:"building"`
	Number      string             `json:"number"`
	Floor       int                `json:"floor"`
	Coordinates map[string]float64 `json:"coordinates"`
}

func (h *RoomHandler) List(c *gin.Context) {
	rooms := h.Store.ListRooms()
	resp := make([]gin.H, 0, len(rooms))
	for _, r := range rooms {
		resp = append(resp, roomJSON(r))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RoomHandler) Create(c *gin.Context) {
	var body createRoomBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	room, err := h.Store.CreateRoom(model.Room{
		Building:    body.Building,
		Number:      body.Number,
		Floor:       body.Floor,
		Coordinates: body.Coordinates,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, roomJSON(room))
}
