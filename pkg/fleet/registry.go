package fleet

// Unclaimed marks a hall call no elevator currently owns.
const Unclaimed = -1

// floorState holds one floor's waiting queues (FIFO) and the exclusive
// claim per direction. A claim is only meaningful while its queue is
// non-empty and the owning car still targets the floor; reconcile clears
// everything else.
type floorState struct {
	up        []*Passenger
	down      []*Passenger
	upClaim   int
	downClaim int
}

// callRegistry guarantees at most one elevator serves a given
// (floor, direction) hall call at a time.
type callRegistry struct {
	floors []floorState
}

func newCallRegistry(floors int) *callRegistry {
	r := &callRegistry{floors: make([]floorState, floors)}
	for i := range r.floors {
		r.floors[i].upClaim = Unclaimed
		r.floors[i].downClaim = Unclaimed
	}
	return r
}

func (r *callRegistry) floor(n int) *floorState {
	return &r.floors[n]
}

// enqueue places a waiting passenger into the origin floor's directional
// queue, which opens (or extends) the hall call there.
func (r *callRegistry) enqueue(p *Passenger) {
	f := &r.floors[p.Origin]
	if p.Direction() == DirUp {
		f.up = append(f.up, p)
	} else {
		f.down = append(f.down, p)
	}
}

// reconcile drops claims that no longer correspond to a live assignment:
// the queue emptied, or the claimed car abandoned the floor as a target.
func (r *callRegistry) reconcile(cars []*Elevator) {
	for i := range r.floors {
		f := &r.floors[i]
		f.upClaim = liveClaim(f.upClaim, len(f.up), i, cars)
		f.downClaim = liveClaim(f.downClaim, len(f.down), i, cars)
	}
}

func liveClaim(owner, waiting, floor int, cars []*Elevator) int {
	if owner == Unclaimed {
		return Unclaimed
	}
	if waiting == 0 || owner >= len(cars) || !cars[owner].Targets[floor] {
		return Unclaimed
	}
	return owner
}

// calls lists the open hall calls in ascending floor order, carrying the
// current claim owner so strategies can skip calls owned by other cars.
func (r *callRegistry) calls() (up, down []HallCall) {
	for i := range r.floors {
		f := &r.floors[i]
		if len(f.up) > 0 {
			up = append(up, HallCall{Floor: i, ClaimedBy: f.upClaim})
		}
		if len(f.down) > 0 {
			down = append(down, HallCall{Floor: i, ClaimedBy: f.downClaim})
		}
	}
	return up, down
}

// grant decides whether the requesting car may add the floor to its
// target set. A floor with no open hall call is granted unconditionally
// (in-cab destination or repositioning). Otherwise the car must already
// own a claim there, or take an unclaimed one; first claim wins. When
// both directions are open and free, the direction consistent with the
// car's approach is claimed, falling back to its current direction, then
// to the up call.
func (r *callRegistry) grant(e *Elevator, floor int) bool {
	f := &r.floors[floor]
	upOpen := len(f.up) > 0
	downOpen := len(f.down) > 0

	if !upOpen && !downOpen {
		return true
	}
	if (upOpen && f.upClaim == e.ID) || (downOpen && f.downClaim == e.ID) {
		return true
	}

	upFree := upOpen && f.upClaim == Unclaimed
	downFree := downOpen && f.downClaim == Unclaimed
	switch {
	case upFree && downFree:
		if approachDirection(e, floor) == DirDown {
			f.downClaim = e.ID
		} else {
			f.upClaim = e.ID
		}
		return true
	case upFree:
		f.upClaim = e.ID
		return true
	case downFree:
		f.downClaim = e.ID
		return true
	}
	return false
}

// approachDirection is the direction the car would be traveling when it
// reaches the floor, falling back to its committed direction.
func approachDirection(e *Elevator, floor int) Direction {
	if d := directionBetween(e.Pos, float64(floor)); d != DirNone {
		return d
	}
	return e.Dir
}

// release drops any claim the car holds at the floor. Called when the car
// actually services the floor; an unserved remainder of the queue becomes
// claimable again next tick.
func (r *callRegistry) release(floor, elevID int) {
	f := &r.floors[floor]
	if f.upClaim == elevID {
		f.upClaim = Unclaimed
	}
	if f.downClaim == elevID {
		f.downClaim = Unclaimed
	}
}

func (r *callRegistry) views() []FloorView {
	views := make([]FloorView, len(r.floors))
	for i := range r.floors {
		f := &r.floors[i]
		views[i] = FloorView{
			Floor:       i,
			UpWaiting:   len(f.up),
			DownWaiting: len(f.down),
			UpClaim:     f.upClaim,
			DownClaim:   f.downClaim,
		}
	}
	return views
}
