package elevator

import (
	"errors"
	"fmt"
	"slices"
)

// --- Domain Entities & Value Objects ---

// Direction indicates the vertical movement vector.
// Direction은 수직 이동 벡터를 나타냅니다.
type Direction string

const (
	DirUp         Direction = "Up"
	DirDown       Direction = "Down"
	DirStationary Direction = "Stationary"
)

// IsMoving reports whether d is a travel direction.
func (d Direction) IsMoving() bool {
	return d == DirUp || d == DirDown
}

// Validation errors returned by the submission entry points.
// 요청 검증 실패 시 반환되는 에러입니다.
var (
	ErrInvalidFloor     = errors.New("invalid floor")
	ErrInvalidDirection = errors.New("invalid direction")
)

// Call is a directional hail request made from a floor.
// Call은 층에서 누른 방향 호출(Hall Call)입니다.
type Call struct {
	Floor     int       `json:"floor"`
	Direction Direction `json:"direction"`
}

func (c Call) String() string {
	return fmt.Sprintf("%d%s", c.Floor, c.Direction)
}

// Car holds the pure dispatch state of a single car.
// Car는 단일 엘리베이터의 순수 상태를 저장합니다.
// No mutex, No channel, No time.
type Car struct {
	FloorCount   int
	CurrentFloor int
	Direction    Direction

	// Insertion ordered; ties in the resolver go to the earliest entry.
	Selections []int  // 카 내부 목적층 요청
	Calls      []Call // 층 방향 호출
}

// NewCar creates a stationary car at startFloor.
func NewCar(floorCount, startFloor int) (*Car, error) {
	if floorCount < 1 {
		return nil, fmt.Errorf("invalid floor count %d", floorCount)
	}
	if startFloor < 0 || startFloor >= floorCount {
		return nil, fmt.Errorf("%w: start floor %d out of range [0, %d)", ErrInvalidFloor, startFloor, floorCount)
	}
	return &Car{
		FloorCount:   floorCount,
		CurrentFloor: startFloor,
		Direction:    DirStationary,
	}, nil
}

func (c *Car) checkFloor(floor int) error {
	if floor < 0 || floor >= c.FloorCount {
		return fmt.Errorf("%w: floor %d out of range [0, %d)", ErrInvalidFloor, floor, c.FloorCount)
	}
	return nil
}

// HasWork reports whether any selection or call is pending.
func (c *Car) HasWork() bool {
	return len(c.Selections) > 0 || len(c.Calls) > 0
}

// HasSelection reports whether floor is a pending selection.
func (c *Car) HasSelection(floor int) bool {
	return slices.Contains(c.Selections, floor)
}

// HasCall reports whether call is pending.
func (c *Car) HasCall(call Call) bool {
	return slices.Contains(c.Calls, call)
}

// SubmitFloorSelection registers an in-car destination.
// It reports whether the pending selections changed.
// 현재 층이거나 이미 등록된 층이면 변경이 없습니다.
func (c *Car) SubmitFloorSelection(floor int) (bool, error) {
	if err := c.checkFloor(floor); err != nil {
		return false, err
	}
	if floor == c.CurrentFloor || c.HasSelection(floor) {
		return false, nil
	}
	c.Selections = append(c.Selections, floor)
	return true, nil
}

// SubmitCall registers a hall call.
// It reports whether the car state changed (queue or direction).
//
// A call for the current floor of an idle car does not queue anything; it
// only points the car in the requested direction. When the car still has
// work, the same call is queued so the direction can be retargeted later.
func (c *Car) SubmitCall(floor int, dir Direction) (bool, error) {
	if err := c.checkFloor(floor); err != nil {
		return false, err
	}
	if !dir.IsMoving() {
		return false, fmt.Errorf("%w: call direction must be %s or %s, got %q", ErrInvalidDirection, DirUp, DirDown, dir)
	}

	if floor == c.CurrentFloor && !c.HasWork() {
		if c.Direction == dir {
			return false, nil
		}
		c.Direction = dir
		return true, nil
	}

	call := Call{Floor: floor, Direction: dir}
	if c.HasCall(call) {
		return false, nil
	}
	c.Calls = append(c.Calls, call)
	return true, nil
}

// Apply moves the car to the resolved floor and clears what the stop fulfils.
// Direction is left untouched; see NextDirection.
//
// A result naming an entry that is not pending means the resolver and the
// queues disagree, which is unrecoverable.
func (c *Car) Apply(r Result) {
	if err := c.checkFloor(r.Floor); err != nil {
		panic(fmt.Sprintf("elevator: resolver produced %v", err))
	}

	if r.MatchedCall != nil {
		idx := slices.Index(c.Calls, *r.MatchedCall)
		if idx < 0 {
			panic(fmt.Sprintf("elevator: resolved call %v is not pending", *r.MatchedCall))
		}
		c.Calls = slices.Delete(c.Calls, idx, idx+1)
	}

	idx := slices.Index(c.Selections, r.Floor)
	if (r.MatchedSelection || r.IsCombinedMatch) && idx < 0 {
		panic(fmt.Sprintf("elevator: resolved selection %d is not pending", r.Floor))
	}
	// Arriving at a floor always satisfies its selection.
	if idx >= 0 {
		c.Selections = slices.Delete(c.Selections, idx, idx+1)
	}

	c.CurrentFloor = r.Floor
}
