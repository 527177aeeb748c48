package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial %s: %v", path, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame map[string]any
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return frame
}

func expectNoFrame(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var frame map[string]any
	if err := conn.ReadJSON(&frame); err == nil {
		t.Fatalf("expected no frame, got %v", frame)
	}
}

// connect dials and consumes the greeting, so the connection is known to
// have joined its groups when this returns.
func connect(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()

	conn := dialWS(t, srv, path)
	greeting := readFrame(t, conn)
	if greeting["type"] != "connection_established" {
		t.Fatalf("expected connection_established, got %v", greeting)
	}
	return conn
}

func TestWebSocket_ConnectionEstablished(t *testing.T) {
	deps, _ := newTestDeps(t)
	srv := httptest.NewServer(NewRouter(deps))
	defer srv.Close()

	generic := dialWS(t, srv, "/ws/unimate")
	frame := readFrame(t, generic)
	if frame["type"] != "connection_established" {
		t.Fatalf("expected greeting, got %v", frame)
	}
	if _, hasKiosk := frame["kiosk_id"]; hasKiosk {
		t.Fatalf("generic greeting should not carry kiosk_id: %v", frame)
	}

	kiosk := dialWS(t, srv, "/ws/kiosk/k1")
	frame = readFrame(t, kiosk)
	if frame["type"] != "connection_established" || frame["kiosk_id"] != "k1" {
		t.Fatalf("expected kiosk greeting for k1, got %v", frame)
	}
}

func TestWebSocket_TestEcho(t *testing.T) {
	deps, _ := newTestDeps(t)
	srv := httptest.NewServer(NewRouter(deps))
	defer srv.Close()

	conn := connect(t, srv, "/ws/unimate")
	if err := conn.WriteJSON(map[string]any{"type": "test", "message": "hello", "timestamp": 1234}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	frame := readFrame(t, conn)
	if frame["type"] != "test_response" {
		t.Fatalf("expected test_response, got %v", frame)
	}
	if frame["message"] != "Server received: hello" || frame["timestamp"] != float64(1234) {
		t.Fatalf("echo mismatch: %v", frame)
	}
}

func TestWebSocket_MalformedJSON(t *testing.T) {
	deps, _ := newTestDeps(t)
	srv := httptest.NewServer(NewRouter(deps))
	defer srv.Close()

	conn := connect(t, srv, "/ws/unimate")
	bystander := connect(t, srv, "/ws/unimate")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	frame := readFrame(t, conn)
	if frame["type"] != "error" || frame["message"] != "Invalid JSON format" {
		t.Fatalf("expected error event, got %v", frame)
	}

	// The connection survives and other clients saw nothing.
	if err := conn.WriteJSON(map[string]any{"type": "test", "message": "still alive"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if frame := readFrame(t, conn); frame["type"] != "test_response" {
		t.Fatalf("expected test_response after error, got %v", frame)
	}
	expectNoFrame(t, bystander)
}

func TestWebSocket_GenericKioskStatusRejected(t *testing.T) {
	deps, _ := newTestDeps(t)
	srv := httptest.NewServer(NewRouter(deps))
	defer srv.Close()

	conn := connect(t, srv, "/ws/unimate")
	if err := conn.WriteJSON(map[string]any{"type": "kiosk_status", "status": "active"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	if frame := readFrame(t, conn); frame["type"] != "error" {
		t.Fatalf("expected error event, got %v", frame)
	}

	if err := conn.WriteJSON(map[string]any{"type": "test", "message": "ok"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if frame := readFrame(t, conn); frame["type"] != "test_response" {
		t.Fatalf("expected connection still usable, got %v", frame)
	}
}

func TestWebSocket_KioskStatusFanout(t *testing.T) {
	deps, _ := newTestDeps(t)
	srv := httptest.NewServer(NewRouter(deps))
	defer srv.Close()

	sender := connect(t, srv, "/ws/kiosk/k1")
	peer := connect(t, srv, "/ws/kiosk/k1")
	outsider := connect(t, srv, "/ws/kiosk/k2")

	if err := sender.WriteJSON(map[string]any{"type": "kiosk_status", "status": "active"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	for _, conn := range []*websocket.Conn{sender, peer} {
		frame := readFrame(t, conn)
		if frame["type"] != "kiosk.status.update" || frame["kiosk_id"] != "k1" || frame["status"] != "active" {
			t.Fatalf("expected status update, got %v", frame)
		}
	}
	expectNoFrame(t, outsider)
}

func TestWebSocket_UnknownTypeEchoed(t *testing.T) {
	deps, _ := newTestDeps(t)
	srv := httptest.NewServer(NewRouter(deps))
	defer srv.Close()

	conn := connect(t, srv, "/ws/unimate")
	if err := conn.WriteJSON(map[string]any{"type": "user_auth", "user": "alice"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	frame := readFrame(t, conn)
	if frame["type"] != "echo" {
		t.Fatalf("expected echo, got %v", frame)
	}
	original, ok := frame["original"].(map[string]any)
	if !ok || original["user"] != "alice" {
		t.Fatalf("original payload missing: %v", frame)
	}
}

// The dual-delivery scenario: scanning at kiosk k1 reaches both k1
// connections twice (kiosk group + global group) while a k2 connection sees
// the event once, via global only.
func TestWebSocket_ScanFanout(t *testing.T) {
	deps, _ := newTestDeps(t)
	r := NewRouter(deps)
	srv := httptest.NewServer(r)
	defer srv.Close()

	k1a := connect(t, srv, "/ws/kiosk/k1")
	k1b := connect(t, srv, "/ws/kiosk/k1")
	k2 := connect(t, srv, "/ws/kiosk/k2")

	w, _ := doJSON(t, r, http.MethodPost, "/api/scan", map[string]any{"rfid_uid": "04A1B2C3D4", "kiosk": "k1"})
	if w.Code != http.StatusOK {
		t.Fatalf("scan failed: %d %s", w.Code, w.Body.String())
	}

	for _, conn := range []*websocket.Conn{k1a, k1b} {
		for i := 0; i < 2; i++ {
			frame := readFrame(t, conn)
			if frame["type"] != "user.login" {
				t.Fatalf("expected user.login, got %v", frame)
			}
			message, ok := frame["message"].(map[string]any)
			if !ok {
				t.Fatalf("missing login payload: %v", frame)
			}
			user, ok := message["user"].(map[string]any)
			if !ok || user["username"] != "alice" {
				t.Fatalf("unexpected login payload: %v", message)
			}
		}
		expectNoFrame(t, conn)
	}

	if frame := readFrame(t, k2); frame["type"] != "user.login" {
		t.Fatalf("expected global delivery to k2, got %v", frame)
	}
	expectNoFrame(t, k2)
}

// A closed connection is fully forgotten: a later publish neither fails nor
// reaches it.
func TestWebSocket_DisconnectCleansUp(t *testing.T) {
	deps, _ := newTestDeps(t)
	r := NewRouter(deps)
	srv := httptest.NewServer(r)
	defer srv.Close()

	gone := connect(t, srv, "/ws/kiosk/k1")
	stay := connect(t, srv, "/ws/kiosk/k1")
	_ = gone.Close()

	// Give the server a moment to run the lifecycle teardown.
	deadline := time.Now().Add(2 * time.Second)
	for deps.Relay.Size() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("expected registry to shrink to 1, still %d", deps.Relay.Size())
		}
		time.Sleep(10 * time.Millisecond)
	}

	deps.Relay.PublishLogin("k1", map[string]any{"username": "alice"})
	for i := 0; i < 2; i++ {
		if frame := readFrame(t, stay); frame["type"] != "user.login" {
			t.Fatalf("expected user.login, got %v", frame)
		}
	}
	expectNoFrame(t, stay)
}
