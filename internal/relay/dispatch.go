package relay

import (
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
)

// handleFrame routes one decoded inbound frame. Failures here are answered
// on the same connection and never close it or touch any other connection.
func (c *Client) handleFrame(data []byte) {
	in := DecodeInbound(data)

	switch in.Kind {
	case InboundMalformed:
		logrus.WithField("conn", c.id).Warn("relay: invalid JSON frame")
		c.sendEvent(errorEvent{Type: TypeError, Message: "Invalid JSON format"})

	case InboundTest:
		msg := in.Message
		if msg == "" {
			msg = "No message"
		}
		c.sendEvent(testResponseEvent{
			Type:      TypeTestResponse,
			Message:   "Server received: " + msg,
			Timestamp: in.Timestamp,
		})

	case InboundKioskStatus:
		if c.kioskID == "" {
			c.sendEvent(errorEvent{Type: TypeError, Message: "kiosk_status is only accepted on kiosk connections"})
			return
		}
		update, err := json.Marshal(kioskStatusUpdateEvent{
			Type:      TypeKioskStatusUpdate,
			KioskID:   c.kioskID,
			Status:    in.Status,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			logrus.WithField("conn", c.id).WithError(err).Error("relay: marshal status update")
			return
		}
		logrus.WithFields(logrus.Fields{"kiosk_id": c.kioskID, "status": in.Status}).Info("relay: kiosk status updated")
		c.hub.broadcastGroup(KioskGroup(c.kioskID), update)

	case InboundUnknown:
		c.sendEvent(echoEvent{
			Type:     TypeEcho,
			Message:  "Received unknown message type: " + in.Type,
			Original: in.Raw,
		})
	}
}
