package relay

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Capacity of a connection's outbound queue. A client that falls this
	// far behind is treated as stalled and disconnected.
	sendQueueSize = 32
)

type connState int32

const (
	stateConnecting connState = iota
	stateOpen
	stateClosing
	stateClosed
)

// Client is one live websocket connection. The hub references it through
// group membership but the lifecycle here owns it: all teardown funnels
// through cleanup, which runs exactly once per connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	id      string
	kioskID string // empty for generic connections

	send chan []byte
	done chan struct{}

	state       atomic.Int32
	cleanupOnce sync.Once
}

func newClient(h *Hub, conn *websocket.Conn, kioskID string) *Client {
	return &Client{
		hub:     h,
		conn:    conn,
		id:      uuid.NewString(),
		kioskID: kioskID,
		send:    make(chan []byte, sendQueueSize),
		done:    make(chan struct{}),
	}
}

// Serve drives the lifecycle of one accepted websocket connection: register,
// join groups, greet, then pump inbound frames until the transport closes.
// It blocks until the connection is gone and its memberships are removed.
func (h *Hub) Serve(conn *websocket.Conn, kioskID string) {
	c := newClient(h, conn, kioskID)
	h.register(c)
	c.state.Store(int32(stateOpen))

	h.Join(GlobalGroup, c)
	greeting := connectionEstablishedEvent{
		Type:    TypeConnectionEstablished,
		Message: "Connected to UNIMATE WebSocket",
	}
	if kioskID != "" {
		h.Join(KioskGroup(kioskID), c)
		greeting.Message = "Connected to kiosk " + kioskID
		greeting.KioskID = kioskID
	}
	c.sendEvent(greeting)

	logrus.WithFields(logrus.Fields{"conn": c.id, "kiosk_id": kioskID}).Info("relay: client connected")

	go c.writePump()
	c.readPump()
}

// cleanup is the single finalization point for every exit path: transport
// error, client close, or a forced close on queue overflow.
func (c *Client) cleanup() {
	c.cleanupOnce.Do(func() {
		c.state.Store(int32(stateClosing))
		c.hub.unregister(c)
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.state.Store(int32(stateClosed))
		logrus.WithField("conn", c.id).Info("relay: client disconnected")
	})
}

func (c *Client) readPump() {
	defer c.cleanup()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logrus.WithField("conn", c.id).WithError(err).Warn("relay: read failed")
			}
			return
		}
		c.handleFrame(data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue adds an outbound frame without blocking the caller. Frames for one
// connection drain in enqueue order. A full queue means the reader stalled:
// the connection is torn down rather than the publisher held up.
func (c *Client) enqueue(data []byte) {
	if connState(c.state.Load()) >= stateClosing {
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	default:
		logrus.WithField("conn", c.id).Warn("relay: send queue full, dropping connection")
		c.cleanup()
	}
}

func (c *Client) sendEvent(e any) {
	data, err := json.Marshal(e)
	if err != nil {
		logrus.WithField("conn", c.id).WithError(err).Error("relay: marshal event")
		return
	}
	c.enqueue(data)
}
