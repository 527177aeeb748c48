package relay

import "encoding/json"

// Group keys. Every connection joins the global group; kiosk connections
// additionally join their own kiosk group.
const GlobalGroup = "unimate"

func KioskGroup(kioskID string) string { return "kiosk_" + kioskID }

// Outbound event types.
const (
	TypeConnectionEstablished = "connection_established"
	TypeTestResponse          = "test_response"
	TypeError                 = "error"
	TypeEcho                  = "echo"
	TypeKioskStatusUpdate     = "kiosk.status.update"
	TypeUserLogin             = "user.login"
	TypeHeartbeat             = "heartbeat"
)

type InboundKind int

// Closed set of inbound frame variants. Frames are decoded once at the
// connection boundary; nothing downstream re-inspects the raw JSON.
const (
	InboundMalformed InboundKind = iota
	InboundTest
	InboundKioskStatus
	InboundUnknown
)

type Inbound struct {
	Kind InboundKind

	// Type is the raw type tag, set for InboundUnknown.
	Type string

	// Message and Timestamp are set for InboundTest and echoed verbatim.
	Message   string
	Timestamp any

	// Status is set for InboundKioskStatus.
	Status string

	// Raw carries the original payload for the echo reply.
	Raw map[string]any
}

// DecodeInbound parses one client frame into its variant. It never fails:
// malformed input is itself a variant, answered with an error event while the
// connection stays open.
func DecodeInbound(data []byte) Inbound {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Inbound{Kind: InboundMalformed}
	}
	typ, _ := raw["type"].(string)

	switch typ {
	case "test":
		msg, _ := raw["message"].(string)
		return Inbound{Kind: InboundTest, Type: typ, Message: msg, Timestamp: raw["timestamp"]}
	case "kiosk_status":
		status, _ := raw["status"].(string)
		return Inbound{Kind: InboundKioskStatus, Type: typ, Status: status}
	default:
		return Inbound{Kind: InboundUnknown, Type: typ, Raw: raw}
	}
}

type connectionEstablishedEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	KioskID string `json:"kiosk_id,omitempty"`
}

type testResponseEvent struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp any    `json:"timestamp"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type echoEvent struct {
	Type     string         `json:"type"`
	Message  string         `json:"message"`
	Original map[string]any `json:"original"`
}

type kioskStatusUpdateEvent struct {
	Type      string `json:"type"`
	KioskID   string `json:"kiosk_id"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type userLoginEvent struct {
	Type    string `json:"type"`
	Message any    `json:"message"`
}

type heartbeatEvent struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Clients   int    `json:"clients"`
	Kiosks    int    `json:"kiosks"`
}
