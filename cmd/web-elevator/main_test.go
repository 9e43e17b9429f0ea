package main

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialSession(t *testing.T) *websocket.Conn {
	t.Helper()
	defaults := ElevatorConfig{FloorCount: 6, TickInterval: 0.01, IdleGrace: 60}
	srv := httptest.NewServer(newWebSocketHandler(defaults))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads server messages until match returns true.
func readUntil(t *testing.T, conn *websocket.Conn, match func(ServerMessage) bool) ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg ServerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("Read failed before expected message: %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

func TestSession_ServesSelection(t *testing.T) {
	conn := dialSession(t)

	if err := conn.WriteJSON(ClientMessage{Action: "init"}); err != nil {
		t.Fatal(err)
	}
	first := readUntil(t, conn, func(m ServerMessage) bool { return m.Type == "state" })
	if first.Snapshot == nil || first.FloorCount != 6 || first.CurrentFloor != 0 {
		t.Fatalf("Unexpected initial state %+v", first.Snapshot)
	}
	if first.Session == "" {
		t.Error("Expected session id on state message")
	}

	conn.WriteJSON(ClientMessage{Action: "selectFloor", Floor: 3})
	readUntil(t, conn, func(m ServerMessage) bool {
		return m.Type == "event" && m.EventType == "Arrived"
	})
	final := readUntil(t, conn, func(m ServerMessage) bool {
		return m.Type == "state" && m.CurrentFloor == 3 && len(m.PendingSelections) == 0
	})
	if final.Direction != "Up" {
		t.Errorf("Expected direction Up after arriving, got %s", final.Direction)
	}
}

func TestSession_RejectsInvalidCall(t *testing.T) {
	conn := dialSession(t)
	conn.WriteJSON(ClientMessage{Action: "init", Config: &ElevatorConfig{FloorCount: 4}})
	readUntil(t, conn, func(m ServerMessage) bool { return m.Type == "state" })

	conn.WriteJSON(ClientMessage{Action: "call", Floor: 2, Direction: "Stationary"})
	msg := readUntil(t, conn, func(m ServerMessage) bool { return m.Type == "error" })
	if !strings.Contains(msg.Error, "invalid direction") {
		t.Errorf("Expected invalid direction error, got %q", msg.Error)
	}

	conn.WriteJSON(ClientMessage{Action: "selectFloor", Floor: 4})
	msg = readUntil(t, conn, func(m ServerMessage) bool { return m.Type == "error" })
	if !strings.Contains(msg.Error, "invalid floor") {
		t.Errorf("Expected invalid floor error, got %q", msg.Error)
	}
}

func TestSession_InitRejectsBadConfig(t *testing.T) {
	conn := dialSession(t)
	conn.WriteJSON(ClientMessage{Action: "init", Config: &ElevatorConfig{FloorCount: 3, InitialFloor: 5}})

	msg := readUntil(t, conn, func(m ServerMessage) bool { return m.Type == "error" || m.Type == "state" })
	if msg.Type != "error" {
		t.Errorf("Expected error for initial floor out of range, got %+v", msg)
	}
}
