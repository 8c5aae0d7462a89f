package fleet

import (
	"math"
	"sort"
)

// HallCall is an open passenger request at a floor, tagged with the car
// that currently owns it (Unclaimed if none).
type HallCall struct {
	Floor     int
	ClaimedBy int
}

// AlgorithmState is the read-only snapshot handed to a dispatch strategy.
// Elevator states are deep copies, so a strategy can never reach live
// engine state. UpCalls and DownCalls are ascending by floor.
//
// The call lists carry every open call, annotated with its owner. A
// strategy should only act on calls that are unclaimed or owned by the
// car it is deciding for — use UnclaimedCalls or ClaimableCalls —
// because the engine rejects proposals for calls another car owns at
// grant time.
type AlgorithmState struct {
	Time      float64
	Floors    int
	Elevators []ElevatorView
	UpCalls   []HallCall
	DownCalls []HallCall
}

// UnclaimedCalls merges both directions into a single ascending-floor
// list of calls no car owns yet.
func (s *AlgorithmState) UnclaimedCalls() []HallCall {
	merged := make([]HallCall, 0, len(s.UpCalls)+len(s.DownCalls))
	for _, c := range s.UpCalls {
		if c.ClaimedBy == Unclaimed {
			merged = append(merged, c)
		}
	}
	for _, c := range s.DownCalls {
		if c.ClaimedBy == Unclaimed {
			merged = append(merged, c)
		}
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Floor < merged[j].Floor })
	return merged
}

// ClaimableCalls returns the calls a given car may act on: unclaimed
// calls plus calls that car already owns.
func (s *AlgorithmState) ClaimableCalls(elevator int) (up, down []HallCall) {
	for _, c := range s.UpCalls {
		if c.ClaimedBy == Unclaimed || c.ClaimedBy == elevator {
			up = append(up, c)
		}
	}
	for _, c := range s.DownCalls {
		if c.ClaimedBy == Unclaimed || c.ClaimedBy == elevator {
			down = append(down, c)
		}
	}
	return up, down
}

// Decision proposes target floors for one car. Decisions are advisory;
// the engine grants or rejects each floor against the claim table.
type Decision struct {
	Elevator int
	Floors   []int
}

// Algorithm is the pluggable dispatch strategy. Decide must treat the
// snapshot as read-only and tolerate an empty call list.
type Algorithm interface {
	Name() string
	Decide(s *AlgorithmState) []Decision
}

// approachCost scores how well a car suits a call: distance, a penalty of
// 3 for a car moving away from the floor, and a bonus of 0.3 for an idle
// car.
func approachCost(e *ElevatorView, floor int) float64 {
	cost := math.Abs(e.Pos - float64(floor))
	switch e.Dir {
	case DirUp:
		if float64(floor) < e.Pos {
			cost += 3
		}
	case DirDown:
		if float64(floor) > e.Pos {
			cost += 3
		}
	case DirNone:
		cost -= 0.3
	}
	return cost
}

// decisionBuilder accumulates per-car floor lists, keeping ascending
// floor order within each decision and car-index order across decisions.
type decisionBuilder struct {
	floors map[int][]int
	seen   map[int]map[int]bool
}

func newDecisionBuilder() *decisionBuilder {
	return &decisionBuilder{floors: make(map[int][]int), seen: make(map[int]map[int]bool)}
}

func (b *decisionBuilder) add(elevator, floor int) {
	if b.seen[elevator] == nil {
		b.seen[elevator] = make(map[int]bool)
	}
	if b.seen[elevator][floor] {
		return
	}
	b.seen[elevator][floor] = true
	b.floors[elevator] = append(b.floors[elevator], floor)
}

func (b *decisionBuilder) assignedCount(elevator int) int {
	return len(b.floors[elevator])
}

func (b *decisionBuilder) decisions() []Decision {
	ids := make([]int, 0, len(b.floors))
	for id := range b.floors {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]Decision, 0, len(ids))
	for _, id := range ids {
		floors := b.floors[id]
		sort.Ints(floors)
		out = append(out, Decision{Elevator: id, Floors: floors})
	}
	return out
}

// --- Built-in strategies ---

// nearestCar assigns every unclaimed call to the globally cheapest car,
// with no limit on how many calls one car accumulates.
type nearestCar struct{}

func (nearestCar) Name() string { return "nearest" }

func (nearestCar) Decide(s *AlgorithmState) []Decision {
	return assignCheapest(s, 0)
}

// exclusiveNearest is nearestCar plus a 0.5 cost penalty per call already
// assigned to a car this tick, spreading load across the fleet.
type exclusiveNearest struct{}

func (exclusiveNearest) Name() string { return "exclusive" }

func (exclusiveNearest) Decide(s *AlgorithmState) []Decision {
	return assignCheapest(s, 0.5)
}

func assignCheapest(s *AlgorithmState, loadPenalty float64) []Decision {
	b := newDecisionBuilder()
	for _, call := range s.UnclaimedCalls() {
		best, bestCost := -1, math.Inf(1)
		for i := range s.Elevators {
			cost := approachCost(&s.Elevators[i], call.Floor)
			cost += loadPenalty * float64(b.assignedCount(i))
			if cost < bestCost {
				best, bestCost = i, cost
			}
		}
		if best >= 0 {
			b.add(best, call.Floor)
		}
	}
	return b.decisions()
}

// collectiveSimple works per car: an idle car claims its nearest call; a
// moving car greedily collects every unclaimed same-direction call that
// lies ahead of it.
type collectiveSimple struct{}

func (collectiveSimple) Name() string { return "collective" }

func (collectiveSimple) Decide(s *AlgorithmState) []Decision {
	b := newDecisionBuilder()
	for i := range s.Elevators {
		e := &s.Elevators[i]
		up, down := s.ClaimableCalls(i)

		if e.Dir == DirNone {
			best, bestDist := -1, math.Inf(1)
			for _, c := range append(append([]HallCall(nil), up...), down...) {
				if d := math.Abs(e.Pos - float64(c.Floor)); d < bestDist {
					best, bestDist = c.Floor, d
				}
			}
			if best >= 0 {
				b.add(i, best)
			}
			continue
		}

		ahead := up
		if e.Dir == DirDown {
			ahead = down
		}
		for _, c := range ahead {
			if c.ClaimedBy != Unclaimed {
				continue
			}
			if directionBetween(e.Pos, float64(c.Floor)) == e.Dir {
				b.add(i, c.Floor)
			}
		}
	}
	return b.decisions()
}

// zoned partitions the building into contiguous ceil(floors/elevators)
// bands, one per car index, and routes every call to its band owner
// regardless of proximity.
type zoned struct{}

func (zoned) Name() string { return "zoned" }

func (zoned) Decide(s *AlgorithmState) []Decision {
	if len(s.Elevators) == 0 {
		return nil
	}
	zoneSize := (s.Floors + len(s.Elevators) - 1) / len(s.Elevators)
	b := newDecisionBuilder()
	for _, c := range append(append([]HallCall(nil), s.UpCalls...), s.DownCalls...) {
		if c.ClaimedBy != Unclaimed {
			continue
		}
		owner := c.Floor / zoneSize
		if owner >= len(s.Elevators) {
			owner = len(s.Elevators) - 1
		}
		b.add(owner, c.Floor)
	}
	return b.decisions()
}

// idleToLobby parks idle cars at floor 0 whenever no hall call is pending
// anywhere, and otherwise behaves exactly like nearestCar.
type idleToLobby struct{}

func (idleToLobby) Name() string { return "idle-to-lobby" }

func (idleToLobby) Decide(s *AlgorithmState) []Decision {
	if len(s.UpCalls)+len(s.DownCalls) > 0 {
		return assignCheapest(s, 0)
	}
	b := newDecisionBuilder()
	for i := range s.Elevators {
		e := &s.Elevators[i]
		if e.Dir == DirNone && !e.DoorOpen && len(e.Targets) == 0 && e.Pos > arriveEps {
			b.add(i, 0)
		}
	}
	return b.decisions()
}

// customAlgorithm wraps an externally supplied decision function. The
// engine recovers panics at the call boundary, so a broken callable
// degrades to zero decisions rather than halting the simulation.
type customAlgorithm struct {
	name string
	fn   func(*AlgorithmState) []Decision
}

// NewCustomAlgorithm adapts an opaque decision function to the Algorithm
// contract. Compilation or sandboxing of the callable is the embedding
// application's responsibility.
func NewCustomAlgorithm(name string, fn func(*AlgorithmState) []Decision) Algorithm {
	if name == "" {
		name = "custom"
	}
	return &customAlgorithm{name: name, fn: fn}
}

func (c *customAlgorithm) Name() string { return c.name }

func (c *customAlgorithm) Decide(s *AlgorithmState) []Decision {
	if c.fn == nil {
		return nil
	}
	return c.fn(s)
}

// AlgorithmByName resolves one of the built-in strategies.
func AlgorithmByName(name string) (Algorithm, bool) {
	switch name {
	case "nearest":
		return nearestCar{}, true
	case "exclusive":
		return exclusiveNearest{}, true
	case "collective":
		return collectiveSimple{}, true
	case "zoned":
		return zoned{}, true
	case "idle-to-lobby":
		return idleToLobby{}, true
	}
	return nil, false
}

// AlgorithmNames lists the built-in strategies in presentation order.
func AlgorithmNames() []string {
	return []string{"nearest", "exclusive", "collective", "zoned", "idle-to-lobby"}
}
