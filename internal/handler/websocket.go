package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"unimate-server/internal/relay"
)

type WebSocketHandler struct {
	Hub *relay.Hub
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeGeneric handles /ws/unimate: the connection joins the global group.
func (h *WebSocketHandler) ServeGeneric(c *gin.Context) {
	h.serve(c, "")
}

// ServeKiosk handles /ws/kiosk/:kioskID: the connection joins both its kiosk
// group and the global group.
func (h *WebSocketHandler) ServeKiosk(c *gin.Context) {
	kioskID := c.Param("kioskID")
	if kioskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kiosk id is required"})
		return
	}
	h.serve(c, kioskID)
}

func (h *WebSocketHandler) serve(c *gin.Context, kioskID string) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("ws: upgrade failed")
		return
	}
	h.Hub.Serve(ws, kioskID)
}
