package elevator

// Reverse returns the opposite travel direction.
// Stationary has no opposite and is returned unchanged.
func Reverse(d Direction) Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	}
	return d
}

// movementDirection is the direction implied by travelling from -> to.
func movementDirection(from, to int) Direction {
	switch {
	case to > from:
		return DirUp
	case to < from:
		return DirDown
	}
	return DirStationary
}

// NextDirection decides the direction of the car once it has stopped for r.
// prev and from are the direction and floor before the move; after is the
// car with r already applied.
//
// A selection stop adopts the direction of the physical movement. A call stop
// adopts the call's own direction when the car was idle or has nothing left
// beyond it in its direction of travel; otherwise the sweep continues.
// 진행 방향에 남은 요청이 있으면 반대 방향 호출 하나 때문에 방향을 바꾸지 않습니다 (LOOK).
func NextDirection(prev Direction, from int, r Result, after *Car) Direction {
	travel := movementDirection(from, r.Floor)
	if travel == DirStationary {
		travel = prev
	}

	if r.MatchedCall == nil {
		return travel
	}
	if prev == DirStationary || !travel.IsMoving() || !hasWorkAhead(after, travel) {
		return r.MatchedCall.Direction
	}
	return travel
}

// hasWorkAhead reports whether any selection or call lies strictly beyond
// the car in dir.
func hasWorkAhead(c *Car, dir Direction) bool {
	for _, f := range c.Selections {
		if beyond(c.CurrentFloor, f, dir) {
			return true
		}
	}
	for _, k := range c.Calls {
		if beyond(c.CurrentFloor, k.Floor, dir) {
			return true
		}
	}
	return false
}
