package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"sync"

	"go-elevator-dispatch/pkg/elevator"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

//go:embed static/*
var staticFiles embed.FS

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Message types
// 메시지 타입 정의
type ClientMessage struct {
	Action    string          `json:"action"`
	Config    *ElevatorConfig `json:"config,omitempty"`
	Floor     int             `json:"floor,omitempty"`
	Direction string          `json:"direction,omitempty"`
}

type ServerMessage struct {
	Type      string      `json:"type"`
	Session   string      `json:"session,omitempty"`
	EventType string      `json:"eventType,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
	Error     string      `json:"error,omitempty"`

	*elevator.Snapshot
}

// ElevatorSession manages a WebSocket connection with an elevator instance
// ElevatorSession은 엘리베이터 인스턴스와의 WebSocket 연결을 관리합니다.
type ElevatorSession struct {
	id       string
	conn     *websocket.Conn
	defaults ElevatorConfig
	logger   *slog.Logger

	mu       sync.Mutex
	elevator *elevator.Elevator
	config   ElevatorConfig // last init config, reused by reset
	cancel   context.CancelFunc

	writeMu sync.Mutex // gorilla/websocket supports one concurrent writer
}

func NewElevatorSession(conn *websocket.Conn, defaults ElevatorConfig) *ElevatorSession {
	id := uuid.NewString()
	return &ElevatorSession{
		id:       id,
		conn:     conn,
		defaults: defaults,
		config:   defaults,
		logger:   slog.Default().With("session", id),
	}
}

func (s *ElevatorSession) HandleMessages() {
	s.logger.Info("Session started", "remote_addr", s.conn.RemoteAddr())
	defer func() {
		s.mu.Lock()
		s.stopElevator()
		s.mu.Unlock()
		_ = s.conn.Close()
		s.logger.Info("Session ended", "remote_addr", s.conn.RemoteAddr())
	}()

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Error("WebSocket read error", "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			s.logger.Warn("Failed to parse message", "error", err)
			continue
		}

		s.handleAction(msg)
	}
}

func (s *ElevatorSession) handleAction(msg ClientMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("Action received", "action", msg.Action, "payload", msg)

	switch msg.Action {
	case "init":
		cfg := s.defaults
		if msg.Config != nil {
			cfg = msg.Config.merge(s.defaults)
		}
		s.initElevator(cfg)
	case "reset":
		s.initElevator(s.config)
	case "selectFloor":
		if s.elevator != nil {
			if err := s.elevator.SubmitFloorSelection(msg.Floor); err != nil {
				s.sendError(err)
			}
			s.sendState(s.elevator)
		}
	case "call":
		if s.elevator != nil {
			if err := s.elevator.SubmitCall(msg.Floor, elevator.Direction(msg.Direction)); err != nil {
				s.sendError(err)
			}
			s.sendState(s.elevator)
		}
	case "getState":
		if s.elevator != nil {
			s.sendState(s.elevator)
		}
	case "stop":
		s.stopElevator()
	default:
		s.logger.Warn("Unknown action", "action", msg.Action)
	}
}

// stopElevator halts the running elevator, if any. Caller holds s.mu.
func (s *ElevatorSession) stopElevator() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.elevator != nil {
		s.elevator.Close()
		s.elevator = nil
	}
}

func (s *ElevatorSession) initElevator(cfg ElevatorConfig) {
	// Stop existing elevator if any
	s.stopElevator()

	config := cfg.toElevator()
	s.logger.Info("Elevator config", "config", config)

	e, err := elevator.New(config)
	if err != nil {
		s.logger.Error("Failed to initialize elevator", "error", err)
		s.sendError(err)
		return
	}
	s.elevator = e
	s.config = cfg

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	// Subscribe to events
	// 이벤트 구독
	go s.eventListener(ctx, e)

	// Start elevator
	go func() {
		if err := e.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("Elevator run error", "error", err)
		}
	}()

	s.logger.Info("Elevator initialized", "id", config.ID, "floors", config.FloorCount)

	// Send initial state
	s.sendState(e)
}

func (s *ElevatorSession) eventListener(ctx context.Context, e *elevator.Elevator) {
	eventCh := e.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-eventCh:
			s.sendEvent(event)
			s.sendState(e)
		}
	}
}

func (s *ElevatorSession) sendState(e *elevator.Elevator) {
	snap := e.Snapshot()
	s.writeJSON(ServerMessage{
		Type:     "state",
		Session:  s.id,
		Snapshot: &snap,
	})
}

func (s *ElevatorSession) sendEvent(event elevator.Event) {
	s.writeJSON(ServerMessage{
		Type:      "event",
		EventType: string(event.Type),
		Payload:   event.Payload,
		Timestamp: event.Timestamp.Format("15:04:05"),
	})
}

func (s *ElevatorSession) sendError(err error) {
	s.writeJSON(ServerMessage{
		Type:  "error",
		Error: err.Error(),
	})
}

func (s *ElevatorSession) writeJSON(msg ServerMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(msg); err != nil {
		s.logger.Error("Failed to write JSON message", "error", err)
	}
}

func newWebSocketHandler(defaults ElevatorConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("WebSocket upgrade failed", "error", err)
			return
		}

		session := NewElevatorSession(conn, defaults)
		session.HandleMessages()
	}
}

func main() {
	cfg, err := loadConfig(".env")
	if err != nil {
		log.Fatal(err)
	}

	// Serve static files from embedded filesystem
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatal(err)
	}

	http.Handle("/", http.FileServer(http.FS(staticFS)))
	http.HandleFunc("/ws", newWebSocketHandler(cfg.Elevator))

	addr := ":" + cfg.Port
	slog.Info("Starting elevator web server", "addr", addr, "floors", cfg.Elevator.FloorCount)
	slog.Info("Open http://localhost:" + cfg.Port + " in your browser")

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal(err)
	}
}
