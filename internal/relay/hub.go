package relay

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Hub owns the connection registry and the group membership table. It is
// constructed once per process and handed by reference to the websocket
// handler and to the login flow; there is no package-level state.
type Hub struct {
	mu     sync.RWMutex
	conns  map[*Client]struct{}
	groups map[string]map[*Client]struct{}

	dedupLogin bool
}

type Options struct {
	// DedupLogin collapses the kiosk-targeted and global deliveries of one
	// login event into a single frame per connection. Off by default: kiosk
	// clients historically receive the event once per group they sit in.
	DedupLogin bool
}

func New() *Hub {
	return NewWithOptions(Options{})
}

func NewWithOptions(opts Options) *Hub {
	return &Hub{
		conns:      make(map[*Client]struct{}),
		groups:     make(map[string]map[*Client]struct{}),
		dedupLogin: opts.DedupLogin,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
}

// unregister removes the connection from the registry and from every group
// it joined. Groups left empty are dropped.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.conns, c)
	for key, set := range h.groups {
		delete(set, c)
		if len(set) == 0 {
			delete(h.groups, key)
		}
	}
}

// Join is idempotent. Joining after the connection has been unregistered is
// a no-op, so a disconnect racing a join can never leave a dangling member.
func (h *Hub) Join(group string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; !ok {
		return
	}
	if h.groups[group] == nil {
		h.groups[group] = make(map[*Client]struct{})
	}
	h.groups[group][c] = struct{}{}
}

// Leave is idempotent; removing an absent member is a no-op.
func (h *Hub) Leave(group string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.groups[group]
	if set == nil {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.groups, group)
	}
}

// members returns a snapshot of current group membership. Fan-out happens
// against the snapshot, outside the lock; a connection joining mid-publish
// may or may not see that event.
func (h *Hub) members(group string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.groups[group]
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

func (h *Hub) allConns() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*Client, 0, len(h.conns))
	for c := range h.conns {
		out = append(out, c)
	}
	return out
}

// Size reports the number of live connections, for diagnostics only.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// KioskCount reports the number of kiosk groups with at least one member.
func (h *Hub) KioskCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for key := range h.groups {
		if key != GlobalGroup {
			n++
		}
	}
	return n
}

func (h *Hub) broadcastGroup(group string, data []byte) {
	for _, c := range h.members(group) {
		c.enqueue(data)
	}
}

// PublishLogin fans a user.login event out to the global group and, when the
// scanning device identified itself, to that kiosk's group as well. It only
// enqueues; it never waits on any recipient's socket, so a stalled kiosk
// cannot delay the authentication flow that called it.
func (h *Hub) PublishLogin(kioskID string, payload any) {
	data, err := json.Marshal(userLoginEvent{Type: TypeUserLogin, Message: payload})
	if err != nil {
		logrus.WithError(err).Error("relay: marshal login event")
		return
	}

	globalMembers := h.members(GlobalGroup)
	targets := globalMembers
	kioskMembers := 0
	if kioskID != "" && kioskID != "unknown" {
		km := h.members(KioskGroup(kioskID))
		kioskMembers = len(km)
		if h.dedupLogin {
			seen := make(map[*Client]struct{}, len(targets))
			for _, c := range targets {
				seen[c] = struct{}{}
			}
			for _, c := range km {
				if _, ok := seen[c]; !ok {
					targets = append(targets, c)
				}
			}
		} else {
			targets = append(targets, km...)
		}
	}

	for _, c := range targets {
		c.enqueue(data)
	}

	logrus.WithFields(logrus.Fields{
		"kiosk_id":       kioskID,
		"global_members": len(globalMembers),
		"kiosk_members":  kioskMembers,
	}).Info("relay: published login event")
}

// RunHeartbeat sends an application-level heartbeat to every live connection
// on a fixed interval so half-open connections eventually fail at the
// transport and get reclaimed. It returns when stop is closed.
func (h *Hub) RunHeartbeat(interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			h.sendHeartbeat()
		}
	}
}

func (h *Hub) sendHeartbeat() {
	conns := h.allConns()
	if len(conns) == 0 {
		return
	}

	data, err := json.Marshal(heartbeatEvent{
		Type:      TypeHeartbeat,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Clients:   len(conns),
		Kiosks:    h.KioskCount(),
	})
	if err != nil {
		logrus.WithError(err).Error("relay: marshal heartbeat")
		return
	}
	for _, c := range conns {
		c.enqueue(data)
	}
}
