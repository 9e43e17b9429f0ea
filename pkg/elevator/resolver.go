package elevator

// Result describes the next stop chosen by Resolve.
// Result는 Resolve가 선택한 다음 정차 층을 나타냅니다.
//
// When IsCombinedMatch is set both the selection and the call for Floor are
// fulfilled. Otherwise MatchedCall alone, or the selection alone, is.
type Result struct {
	Floor            int
	MatchedSelection bool
	MatchedCall      *Call
	IsCombinedMatch  bool

	// Rule names the dispatch rule that produced the stop.
	Rule string
}

// rule is one step of the dispatch policy. Rules are tried in order and the
// first one that yields a stop wins.
type rule struct {
	name    string
	resolve func(c *Car) (Result, bool)
}

const (
	RuleAhead       = "ahead"
	RuleBehind      = "behind"
	RuleNearestCall = "nearest-call"
	RuleNearest     = "nearest"
)

// Dispatch policy while travelling (LOOK).
// 1. 진행 방향 앞쪽의 가장 가까운 요청
// 2. 앞쪽에 아무것도 없으면 뒤쪽 (방향 전환)
// 3. 현재 층에 남은 호출
var movingRules = []rule{
	{RuleAhead, resolveAhead},
	{RuleBehind, resolveBehind},
	{RuleNearestCall, resolveNearestCall},
}

// Dispatch policy while stationary: proximity alone.
var stationaryRules = []rule{
	{RuleNearest, resolveNearest},
}

// Resolve picks the next floor to visit. It reports false when nothing is
// pending or no rule yields a stop. Resolve does not modify c.
func Resolve(c *Car) (Result, bool) {
	if !c.HasWork() {
		return Result{}, false
	}

	rules := stationaryRules
	if c.Direction.IsMoving() {
		rules = movingRules
	}

	for _, r := range rules {
		if res, ok := r.resolve(c); ok {
			res.Rule = r.name
			return res, true
		}
	}
	return Result{}, false
}

// resolveAhead serves the closest work strictly beyond the car in its
// direction of travel. Calls going the same way as the car are preferred to
// calls going the other way; a selection and a call compete on distance.
func resolveAhead(c *Car) (Result, bool) {
	dir := c.Direction
	closer := closerOp(dir)
	ahead := func(floor int) bool { return beyond(c.CurrentFloor, floor, dir) }

	sel, hasSel := pickSelection(c, ahead, closer)
	call, hasCall := pickCall(c, func(k Call) bool {
		return ahead(k.Floor) && k.Direction == dir
	}, closer)
	if !hasCall {
		call, hasCall = pickCall(c, func(k Call) bool { return ahead(k.Floor) }, closer)
	}

	return compete(sel, hasSel, call, hasCall, closer)
}

// resolveBehind runs when nothing is ahead. Calls beat selections here,
// and a call going the car's current way beats any other call.
func resolveBehind(c *Car) (Result, bool) {
	back := Reverse(c.Direction)
	closer := closerOp(back)
	behind := func(floor int) bool { return beyond(c.CurrentFloor, floor, back) }

	call, ok := pickCall(c, func(k Call) bool {
		return behind(k.Floor) && k.Direction == c.Direction
	}, closer)
	if !ok {
		call, ok = pickCall(c, func(k Call) bool { return behind(k.Floor) }, closer)
	}
	if ok {
		return callStop(c, call), true
	}

	if sel, ok := pickSelection(c, behind, closer); ok {
		return selectionStop(sel), true
	}
	return Result{}, false
}

// resolveNearestCall is the last resort: the call nearest the car regardless
// of either direction. In practice only calls left at the current floor get
// here.
func resolveNearestCall(c *Car) (Result, bool) {
	call, ok := pickCall(c, func(Call) bool { return true }, nearerTo(c.CurrentFloor))
	if !ok {
		return Result{}, false
	}
	return callStop(c, call), true
}

// resolveNearest serves whichever of the nearest selection and the nearest
// call is closer. Equal distance to two different floors goes to the
// selection.
func resolveNearest(c *Car) (Result, bool) {
	closer := nearerTo(c.CurrentFloor)
	all := func(int) bool { return true }

	sel, hasSel := pickSelection(c, all, closer)
	call, hasCall := pickCall(c, func(Call) bool { return true }, closer)

	return compete(sel, hasSel, call, hasCall, closer)
}

// compete settles a selection candidate against a call candidate.
// 같은 층이면 두 요청을 한 번의 정차로 처리합니다 (Combined Match).
func compete(sel int, hasSel bool, call Call, hasCall bool, closer func(a, b int) bool) (Result, bool) {
	switch {
	case hasSel && hasCall:
		if sel == call.Floor {
			return combinedStop(call), true
		}
		if closer(call.Floor, sel) {
			return Result{Floor: call.Floor, MatchedCall: &call}, true
		}
		return selectionStop(sel), true
	case hasCall:
		return Result{Floor: call.Floor, MatchedCall: &call}, true
	case hasSel:
		return selectionStop(sel), true
	}
	return Result{}, false
}

func selectionStop(floor int) Result {
	return Result{Floor: floor, MatchedSelection: true}
}

func combinedStop(call Call) Result {
	return Result{
		Floor:            call.Floor,
		MatchedSelection: true,
		MatchedCall:      &call,
		IsCombinedMatch:  true,
	}
}

// callStop serves call, picking up a selection for the same floor if any.
func callStop(c *Car, call Call) Result {
	if c.HasSelection(call.Floor) {
		return combinedStop(call)
	}
	return Result{Floor: call.Floor, MatchedCall: &call}
}

// pickSelection returns the kept selection for which closer holds against
// every other kept selection. Ties go to the earliest entry.
func pickSelection(c *Car, keep func(int) bool, closer func(a, b int) bool) (int, bool) {
	best, found := 0, false
	for _, f := range c.Selections {
		if !keep(f) {
			continue
		}
		if !found || closer(f, best) {
			best, found = f, true
		}
	}
	return best, found
}

// pickCall is pickSelection for calls, compared by floor.
func pickCall(c *Car, keep func(Call) bool, closer func(a, b int) bool) (Call, bool) {
	var best Call
	found := false
	for _, k := range c.Calls {
		if !keep(k) {
			continue
		}
		if !found || closer(k.Floor, best.Floor) {
			best, found = k, true
		}
	}
	return best, found
}

// closerOp orders floors on one side of the car so that the first argument
// is nearer in the direction of travel: < going up, > going down.
func closerOp(dir Direction) func(a, b int) bool {
	if dir == DirDown {
		return func(a, b int) bool { return a > b }
	}
	return func(a, b int) bool { return a < b }
}

// nearerTo orders floors by absolute distance from origin.
func nearerTo(origin int) func(a, b int) bool {
	return func(a, b int) bool { return distance(origin, a) < distance(origin, b) }
}

// beyond reports whether floor lies strictly past origin in dir.
func beyond(origin, floor int, dir Direction) bool {
	switch dir {
	case DirUp:
		return floor > origin
	case DirDown:
		return floor < origin
	}
	return false
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
