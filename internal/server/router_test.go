package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"unimate-server/internal/auth"
	"unimate-server/internal/model"
	"unimate-server/internal/relay"
	"unimate-server/internal/store"
)

func testTokenConfig() auth.TokenConfig {
	return auth.TokenConfig{Secret: "secret", AccessExpiry: time.Hour, RefreshExpiry: 24 * time.Hour, Issuer: "test"}
}

// newTestDeps seeds one user (RFID 04A1B2C3D4, password Pass123!) enrolled
// in one course with one event.
func newTestDeps(t *testing.T) (Deps, model.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.New()
	hash, err := auth.HashPassword("Pass123!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user, err := st.CreateUser(model.User{Username: "alice", PasswordHash: hash, RFIDUID: "04A1B2C3D4"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	course, err := st.CreateCourse(model.Course{Code: "ENGGEN205", Name: "Engineering Mechanics"})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	room, err := st.CreateRoom(model.Room{Building: "ENG", Number: "340", Floor: 3})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if _, err := st.CreateEvent(model.Event{Title: "Mechanics Lecture", EventType: model.EventTypeClass, CourseID: course.ID, RoomID: room.ID, StartTime: start, EndTime: start.Add(time.Hour), Lecturer: "Dr. Smith"}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if _, err := st.Enroll(user.ID, course.ID, "2026-S1"); err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	return Deps{Store: st, TokenConfig: testTokenConfig(), Relay: relay.New()}, user
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 && w.Body.Bytes()[0] == '{' {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
	}
	return w, resp
}

func TestHealth(t *testing.T) {
	deps, _ := newTestDeps(t)
	r := NewRouter(deps)

	w, resp := doJSON(t, r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK || resp["ok"] != true {
		t.Fatalf("expected healthy, got %d %v", w.Code, resp)
	}
}

func TestScan_ReturnsTokensAndEvents(t *testing.T) {
	deps, _ := newTestDeps(t)
	r := NewRouter(deps)

	w, resp := doJSON(t, r, http.MethodPost, "/api/scan", gin.H{"rfid_uid": "04A1B2C3D4", "kiosk": "kiosk-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if access, _ := resp["access"].(string); access == "" {
		t.Fatalf("expected access token, got %v", resp)
	}
	if refresh, _ := resp["refresh"].(string); refresh == "" {
		t.Fatalf("expected refresh token, got %v", resp)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["username"] != "alice" {
		t.Fatalf("unexpected user payload: %v", resp["user"])
	}
	events, ok := user["events"].([]any)
	if !ok || len(events) != 1 {
		t.Fatalf("expected 1 enrolled event, got %v", user["events"])
	}
}

func TestScan_InvalidCard(t *testing.T) {
	deps, _ := newTestDeps(t)
	r := NewRouter(deps)

	w, resp := doJSON(t, r, http.MethodPost, "/api/scan", gin.H{"rfid_uid": "FFFFFFFF"})
	if w.Code != http.StatusNotFound || resp["error"] != "Invalid RFID card" {
		t.Fatalf("expected 404 invalid card, got %d %v", w.Code, resp)
	}
}

func TestScan_MissingUID(t *testing.T) {
	deps, _ := newTestDeps(t)
	r := NewRouter(deps)

	w, _ := doJSON(t, r, http.MethodPost, "/api/scan", gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestScan_NilRelayStillSucceeds(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.Relay = nil
	r := NewRouter(deps)

	w, _ := doJSON(t, r, http.MethodPost, "/api/scan", gin.H{"rfid_uid": "04A1B2C3D4", "kiosk": "kiosk-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected login to succeed without relay, got %d", w.Code)
	}
}

func TestLogin(t *testing.T) {
	deps, _ := newTestDeps(t)
	r := NewRouter(deps)

	w, resp := doJSON(t, r, http.MethodPost, "/api/login", gin.H{"username": "alice", "password": "Pass123!"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %v", w.Code, resp)
	}
	if access, _ := resp["access"].(string); access == "" {
		t.Fatalf("expected access token, got %v", resp)
	}

	w, _ = doJSON(t, r, http.MethodPost, "/api/login", gin.H{"username": "alice", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestUserEvents_ByUsername(t *testing.T) {
	deps, _ := newTestDeps(t)
	r := NewRouter(deps)

	w, resp := doJSON(t, r, http.MethodGet, "/api/users/events?username=alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["username"] != "alice" {
		t.Fatalf("unexpected payload: %v", resp)
	}

	w, _ = doJSON(t, r, http.MethodGet, "/api/users/events", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without parameters, got %d", w.Code)
	}
}

func TestEvents_RequireAuth(t *testing.T) {
	deps, user := newTestDeps(t)
	r := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	pair, err := auth.CreateTokenPair(user.ID, deps.TokenConfig)
	if err != nil {
		t.Fatalf("CreateTokenPair: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Access)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}

	var events []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &events); err != nil {
		t.Fatalf("unmarshal events: %v", err)
	}
	if len(events) != 1 || events[0]["title"] != "Mechanics Lecture" {
		t.Fatalf("unexpected events: %v", events)
	}
}

func TestRoute_MockGeoJSON(t *testing.T) {
	deps, _ := newTestDeps(t)
	r := NewRouter(deps)

	w, resp := doJSON(t, r, http.MethodGet, "/api/route?from=kiosk-1&to=340", nil)
	if w.Code != http.StatusOK || resp["type"] != "FeatureCollection" {
		t.Fatalf("expected FeatureCollection, got %d %v", w.Code, resp)
	}
	features := resp["features"].([]any)
	props := features[0].(map[string]any)["properties"].(map[string]any)
	dest, ok := props["destination_room"].(map[string]any)
	if !ok || dest["building"] != "ENG" {
		t.Fatalf("destination room not resolved: %v", props)
	}

	w, _ = doJSON(t, r, http.MethodGet, "/api/route?from=kiosk-1", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without to, got %d", w.Code)
	}
}
