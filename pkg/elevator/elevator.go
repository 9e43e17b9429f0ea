// Package elevator implements the dispatch core of a single simulated elevator car.
// 이 패키지는 스레드 안전(Thread-safe)한 단일 엘리베이터 배차(Dispatch) 코어를 구현합니다.
// LOOK(SCAN 계열) 알고리즘으로 다음 정차 층을 결정합니다.
package elevator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tiendc/go-deepcopy"
)

// EventType represents the category of an elevator event.
// EventType는 엘리베이터 이벤트의 카테고리를 나타냅니다.
type EventType string

const (
	EventFloorChange     EventType = "FloorChange"
	EventDirectionChange EventType = "DirectionChange"
	EventArrived         EventType = "Arrived"
	EventSelectionAdded  EventType = "SelectionAdded"
	EventCallAdded       EventType = "CallAdded"
	EventIdle            EventType = "Idle"
)

// Event carries the state change information.
// Event는 시스템 내에서 발생한 상태 변화 정보를 담고 있습니다.
type Event struct {
	Type      EventType
	Payload   interface{}
	Timestamp time.Time
}

// ArrivedPayload carries detail for arrival events.
// ArrivedPayload는 도착 이벤트의 세부 정보를 담고 있습니다.
type ArrivedPayload struct {
	Floor     int    `json:"floor"`
	Selection bool   `json:"selection"`
	Call      *Call  `json:"call,omitempty"`
	Combined  bool   `json:"combined"`
	Rule      string `json:"rule"`
}

const (
	DefaultFloorCount   = 6
	DefaultTickInterval = time.Second
	DefaultIdleGrace    = 3 * time.Second
	DefaultEventBuffer  = 1000
)

// Config holds immutable configuration parameters.
// Config는 시스템 시작 시 설정되며, 런타임 중에 변경되지 않습니다.
// Zero values are replaced by the defaults above.
type Config struct {
	ID           string
	FloorCount   int           // 층 수 - 층 번호는 0부터
	InitialFloor int           // 초기 층
	TickInterval time.Duration // 한 층 이동 시간 (Run 주기)
	IdleGrace    time.Duration // 작업이 없을 때 정지 상태로 전환하기까지의 대기 시간
	EventBuffer  int           // 이벤트 채널 버퍼 크기
}

func (c Config) withDefaults() Config {
	if c.FloorCount == 0 {
		c.FloorCount = DefaultFloorCount
	}
	if c.TickInterval == 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.IdleGrace == 0 {
		c.IdleGrace = DefaultIdleGrace
	}
	if c.EventBuffer == 0 {
		c.EventBuffer = DefaultEventBuffer
	}
	return c
}

// Snapshot is a read-only copy of the car state for display.
// Snapshot은 화면 표시를 위한 읽기 전용 상태 복사본입니다.
type Snapshot struct {
	FloorCount        int       `json:"floorCount"`
	CurrentFloor      int       `json:"currentFloor"`
	Direction         Direction `json:"direction"`
	PendingSelections []int     `json:"pendingSelections"`
	PendingCalls      []Call    `json:"pendingCalls"`
}

// Elevator owns a Car and serializes submissions, ticks and the idle timer.
// Elevator는 모든 상태 변경은 Mutex로 보호되며, 변경 사항은 Event 채널로 전파됩니다.
type Elevator struct {
	mu     sync.RWMutex
	Config Config

	car *Car

	// --- Idle Grace (정지 전환 타이머) ---
	idleTimer *time.Timer
	idleGen   uint64 // bumped on every cancel; a firing timer with a stale generation is ignored
	closed    bool

	// --- Observability ---
	logger            *slog.Logger
	eventCh           chan Event // 외부 통신용 이벤트 채널
	droppedEventCount uint64     // 버퍼 오버플로우로 버려진 이벤트 수
}

// New initializes a new Elevator instance with strict validation.
// 잘못된 설정(예: 범위를 벗어난 초기 층)이 감지되면 즉시 에러를 반환합니다 (Fail Fast).
func New(config Config) (*Elevator, error) {
	if config.TickInterval < 0 || config.IdleGrace < 0 || config.EventBuffer < 0 {
		return nil, fmt.Errorf("invalid config: negative duration or buffer size")
	}
	config = config.withDefaults()

	car, err := NewCar(config.FloorCount, config.InitialFloor)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Elevator{
		Config:  config,
		car:     car,
		eventCh: make(chan Event, config.EventBuffer),
		logger:  slog.Default().With("id", config.ID),
	}

	e.logger.Info("Elevator initialized",
		"floors", config.FloorCount,
		"init_floor", config.InitialFloor,
		"tick", config.TickInterval,
		"idle_grace", config.IdleGrace,
	)

	return e, nil
}

// Floor returns the current floor safely.
// Floor은 현재 층을 안전하게 반환합니다.
func (e *Elevator) Floor() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.car.CurrentFloor
}

// Direction returns the current direction safely.
// Direction은 현재 방향을 안전하게 반환합니다.
func (e *Elevator) Direction() Direction {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.car.Direction
}

// DroppedEventCount returns diagnostic metric for channel health.
// DroppedEventCount는 버퍼 오버플로우로 버려진 이벤트 수를 안전하게 반환합니다.
func (e *Elevator) DroppedEventCount() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.droppedEventCount
}

// Snapshot returns a deep copy of the car state.
// Snapshot은 상태의 깊은 복사본을 반환합니다.
func (e *Elevator) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	src := Snapshot{
		FloorCount:        e.car.FloorCount,
		CurrentFloor:      e.car.CurrentFloor,
		Direction:         e.car.Direction,
		PendingSelections: e.car.Selections,
		PendingCalls:      e.car.Calls,
	}
	var snap Snapshot
	if err := deepcopy.Copy(&snap, &src); err != nil {
		panic(err)
	}
	if snap.PendingSelections == nil {
		snap.PendingSelections = []int{}
	}
	if snap.PendingCalls == nil {
		snap.PendingCalls = []Call{}
	}
	return snap
}

// Events returns the read-only channel for state change notifications.
// Events는 상태 변경 알림을 위한 읽기 전용 채널을 반환합니다.
func (e *Elevator) Events() <-chan Event {
	return e.eventCh
}

// publishEvent sends an event to the channel without blocking logic.
// 채널이 가득 차면 이벤트를 버리고 메트릭을 증가시킵니다 (System Stability).
func (e *Elevator) publishEvent(eventType EventType, payload interface{}) {
	event := Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	select {
	case e.eventCh <- event:
	default:
		e.droppedEventCount++
		// Log rarely to avoid disk I/O flooding
		if e.droppedEventCount%100 == 1 {
			e.logger.Error("Event Channel Saturated", "dropped", e.droppedEventCount, "type", eventType)
		}
	}
}

// setDirection updates the direction and publishes an event.
// setDirection는 방향을 업데이트하고 이벤트를 게시합니다.
func (e *Elevator) setDirection(d Direction) {
	if e.car.Direction != d {
		e.car.Direction = d
		e.publishEvent(EventDirectionChange, d)
	}
}

// SubmitFloorSelection registers an in-car destination floor.
// 범위를 벗어난 층은 ErrInvalidFloor로 거부됩니다.
func (e *Elevator) SubmitFloorSelection(floor int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	added, err := e.car.SubmitFloorSelection(floor)
	if err != nil {
		e.logger.Warn("Floor selection rejected", "floor", floor, "error", err)
		return err
	}
	e.cancelIdle()

	if !added {
		e.logger.Debug("Floor selection ignored", "floor", floor, "current", e.car.CurrentFloor)
		return nil
	}
	e.logger.Info("Floor selection registered", "floor", floor)
	e.publishEvent(EventSelectionAdded, floor)
	return nil
}

// SubmitCall registers a hall call.
// An idle car called to its own floor only turns to face dir.
// 정지한 엘리베이터의 현재 층 호출은 큐에 쌓이지 않고 방향만 바꿉니다.
func (e *Elevator) SubmitCall(floor int, dir Direction) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	prevDir := e.car.Direction
	queued := len(e.car.Calls)

	changed, err := e.car.SubmitCall(floor, dir)
	if err != nil {
		e.logger.Warn("Call rejected", "floor", floor, "dir", dir, "error", err)
		return err
	}
	e.cancelIdle()

	switch {
	case !changed:
		e.logger.Debug("Call already registered", "floor", floor, "dir", dir)
	case len(e.car.Calls) > queued:
		e.logger.Info("Hall Call registered", "floor", floor, "dir", dir)
		e.publishEvent(EventCallAdded, Call{Floor: floor, Direction: dir})
	case e.car.Direction != prevDir:
		e.logger.Info("🧭 Woken at current floor", "floor", floor, "new_dir", dir)
		e.publishEvent(EventDirectionChange, e.car.Direction)
	}
	return nil
}

// Tick advances the car by one stop.
// It resolves the next floor, moves there, clears what the stop fulfils and
// updates the direction. It reports false when the car had nowhere to go.
// Tick은 다음 정차 층으로 한 번 이동합니다.
func (e *Elevator) Tick() (Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, ok := Resolve(e.car)
	if !ok && e.car.HasWork() {
		// Work left but nothing reachable this way: turn around once, same tick.
		e.logger.Warn("No target with pending work, reversing",
			"floor", e.car.CurrentFloor, "dir", e.car.Direction)
		e.setDirection(Reverse(e.car.Direction))
		res, ok = Resolve(e.car)
	}
	if !ok {
		e.scheduleIdle()
		return Result{}, false
	}

	e.cancelIdle()

	prevDir, from := e.car.Direction, e.car.CurrentFloor
	e.car.Apply(res)
	if from != res.Floor {
		e.publishEvent(EventFloorChange, res.Floor)
	}

	nextDir := NextDirection(prevDir, from, res, e.car)
	if nextDir != prevDir {
		e.logger.Info("🧭 Direction Changed", "new_dir", nextDir, "floor", res.Floor)
	}
	e.setDirection(nextDir)

	e.logger.Info("Arrived at floor",
		"floor", res.Floor,
		"from", from,
		"rule", res.Rule,
		"selection", res.MatchedSelection,
		"call", res.MatchedCall,
		"combined", res.IsCombinedMatch,
	)
	e.publishEvent(EventArrived, ArrivedPayload{
		Floor:     res.Floor,
		Selection: res.MatchedSelection,
		Call:      res.MatchedCall,
		Combined:  res.IsCombinedMatch,
		Rule:      res.Rule,
	})
	return res, true
}

// scheduleIdle arms the idle grace timer unless it is already armed or the
// car is already stationary. Caller holds e.mu.
func (e *Elevator) scheduleIdle() {
	if e.closed || e.idleTimer != nil || e.car.Direction == DirStationary {
		return
	}
	gen := e.idleGen
	e.idleTimer = time.AfterFunc(e.Config.IdleGrace, func() {
		e.handleIdleTimeout(gen)
	})
	e.logger.Debug("Idle grace started", "dir", e.car.Direction, "grace", e.Config.IdleGrace)
}

// cancelIdle invalidates any armed idle timer. Caller holds e.mu.
func (e *Elevator) cancelIdle() {
	e.idleGen++
	if e.idleTimer != nil {
		e.idleTimer.Stop()
		e.idleTimer = nil
		e.logger.Debug("Idle grace cancelled")
	}
}

// handleIdleTimeout parks the car once the grace period has passed.
// A timer that fired after being cancelled carries a stale generation and does nothing.
func (e *Elevator) handleIdleTimeout(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || gen != e.idleGen {
		return
	}
	e.idleTimer = nil
	if e.car.HasWork() {
		return
	}

	e.logger.Info("💤 Idle State (No calls)", "floor", e.car.CurrentFloor)
	e.setDirection(DirStationary)
	e.publishEvent(EventIdle, e.car.CurrentFloor)
}

// Close stops the idle timer. The car keeps its state and can still be read.
func (e *Elevator) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelIdle()
	e.closed = true
}

// Run calls Tick every TickInterval until ctx is cancelled.
// Hosts that own their own cadence call Tick directly instead.
// Run은 엘리베이터의 메인 루프를 실행합니다.
func (e *Elevator) Run(ctx context.Context) error {
	e.logger.Info("Elevator Engine Started", "tick", e.Config.TickInterval)

	ticker := time.NewTicker(e.Config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Engine Stopping (Context Cancelled)")
			return ctx.Err()
		case <-ticker.C:
			e.Tick()
		}
	}
}
