package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idleView(id int, pos float64) ElevatorView {
	return ElevatorView{
		ID: id, Pos: pos, Dir: DirNone, Capacity: 8,
		Targets: make(map[int]bool),
	}
}

func stateWith(floors int, cars ...ElevatorView) *AlgorithmState {
	return &AlgorithmState{Floors: floors, Elevators: cars}
}

func targetsOf(decisions []Decision, elevator int) []int {
	for _, d := range decisions {
		if d.Elevator == elevator {
			return d.Floors
		}
	}
	return nil
}

func TestApproachCost(t *testing.T) {
	idle := idleView(0, 2)
	assert.InDelta(t, 2.7, approachCost(&idle, 5), 1e-9, "distance minus idle bonus")

	away := idleView(0, 5)
	away.Dir = DirUp
	assert.InDelta(t, 6.0, approachCost(&away, 2), 1e-9, "distance plus reversal penalty")

	toward := idleView(0, 5)
	toward.Dir = DirDown
	assert.InDelta(t, 3.0, approachCost(&toward, 2), 1e-9)
}

func TestNearestCar_SplitsSimultaneousCalls(t *testing.T) {
	// Two hall calls far apart with cars spread across the shaft: the
	// cheapest car differs per call, so the assignment splits.
	s := stateWith(10, idleView(0, 0), idleView(1, 5), idleView(2, 9))
	s.UpCalls = []HallCall{
		{Floor: 2, ClaimedBy: Unclaimed},
		{Floor: 8, ClaimedBy: Unclaimed},
	}

	ds := nearestCar{}.Decide(s)
	require.Len(t, ds, 2)
	assert.Equal(t, []int{2}, targetsOf(ds, 0))
	assert.Equal(t, []int{8}, targetsOf(ds, 2))
}

func TestNearestCar_SkipsOwnedCalls(t *testing.T) {
	s := stateWith(10, idleView(0, 0), idleView(1, 9))
	s.UpCalls = []HallCall{{Floor: 2, ClaimedBy: 1}}

	assert.Empty(t, nearestCar{}.Decide(s))
}

func TestNearestCar_UnlimitedAccumulation(t *testing.T) {
	s := stateWith(10, idleView(0, 0), idleView(1, 9))
	s.UpCalls = []HallCall{
		{Floor: 1, ClaimedBy: Unclaimed},
		{Floor: 2, ClaimedBy: Unclaimed},
		{Floor: 3, ClaimedBy: Unclaimed},
	}

	ds := nearestCar{}.Decide(s)
	assert.Equal(t, []int{1, 2, 3}, targetsOf(ds, 0), "nearest car takes every call")
}

func TestExclusiveNearest_SpreadsLoad(t *testing.T) {
	s := stateWith(10, idleView(0, 0), idleView(1, 0))
	s.UpCalls = []HallCall{
		{Floor: 1, ClaimedBy: Unclaimed},
		{Floor: 2, ClaimedBy: Unclaimed},
	}

	ds := exclusiveNearest{}.Decide(s)
	assert.Equal(t, []int{1}, targetsOf(ds, 0))
	assert.Equal(t, []int{2}, targetsOf(ds, 1), "assignment penalty pushes the second call away")
}

func TestCollective_IdleClaimsNearest(t *testing.T) {
	s := stateWith(10, idleView(0, 5))
	s.UpCalls = []HallCall{{Floor: 2, ClaimedBy: Unclaimed}}
	s.DownCalls = []HallCall{{Floor: 6, ClaimedBy: Unclaimed}}

	ds := collectiveSimple{}.Decide(s)
	assert.Equal(t, []int{6}, targetsOf(ds, 0))
}

func TestCollective_MovingCollectsAhead(t *testing.T) {
	moving := idleView(0, 2)
	moving.Dir = DirUp
	s := stateWith(10, moving)
	s.UpCalls = []HallCall{
		{Floor: 1, ClaimedBy: Unclaimed}, // behind
		{Floor: 4, ClaimedBy: Unclaimed},
		{Floor: 6, ClaimedBy: 1}, // owned elsewhere
		{Floor: 8, ClaimedBy: Unclaimed},
	}
	s.DownCalls = []HallCall{{Floor: 5, ClaimedBy: Unclaimed}} // wrong direction

	ds := collectiveSimple{}.Decide(s)
	assert.Equal(t, []int{4, 8}, targetsOf(ds, 0))
}

func TestZoned_BandAssignment(t *testing.T) {
	// 10 floors across 2 cars: bands [0,4] and [5,9]. A call at 7 always
	// lands on car 1, even with car 0 adjacent.
	s := stateWith(10, idleView(0, 7), idleView(1, 0))
	s.UpCalls = []HallCall{{Floor: 7, ClaimedBy: Unclaimed}}

	ds := zoned{}.Decide(s)
	assert.Nil(t, targetsOf(ds, 0))
	assert.Equal(t, []int{7}, targetsOf(ds, 1))
}

func TestZoned_LastBandOwnsTopFloors(t *testing.T) {
	// 10 floors across 4 cars: band size 3, so floor 9 lands in band 3.
	s := stateWith(10, idleView(0, 0), idleView(1, 0), idleView(2, 0), idleView(3, 0))
	s.DownCalls = []HallCall{{Floor: 9, ClaimedBy: Unclaimed}}

	ds := zoned{}.Decide(s)
	assert.Equal(t, []int{9}, targetsOf(ds, 3))
}

func TestIdleToLobby_ParksWhenQuiet(t *testing.T) {
	busy := idleView(1, 6)
	busy.Targets[8] = true
	s := stateWith(10, idleView(0, 4), busy, idleView(2, 0))

	ds := idleToLobby{}.Decide(s)
	assert.Equal(t, []int{0}, targetsOf(ds, 0))
	assert.Nil(t, targetsOf(ds, 1), "car with targets is not parked")
	assert.Nil(t, targetsOf(ds, 2), "car already at the lobby stays put")
}

func TestIdleToLobby_DefersToNearestUnderLoad(t *testing.T) {
	s := stateWith(10, idleView(0, 4), idleView(1, 9))
	s.UpCalls = []HallCall{{Floor: 5, ClaimedBy: Unclaimed}}

	ds := idleToLobby{}.Decide(s)
	assert.Equal(t, []int{5}, targetsOf(ds, 0))
	assert.Nil(t, targetsOf(ds, 1), "no parking while calls are pending")
}

func TestCustomAlgorithm_NilCallable(t *testing.T) {
	algo := NewCustomAlgorithm("", nil)
	assert.Equal(t, "custom", algo.Name())
	assert.Nil(t, algo.Decide(stateWith(10, idleView(0, 0))))
}

func TestAlgorithmByName(t *testing.T) {
	for _, name := range AlgorithmNames() {
		algo, ok := AlgorithmByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, algo.Name())
	}
	_, ok := AlgorithmByName("bogus")
	assert.False(t, ok)
}

func TestAlgorithmState_ClaimableCalls(t *testing.T) {
	s := stateWith(10, idleView(0, 0), idleView(1, 0))
	s.UpCalls = []HallCall{
		{Floor: 2, ClaimedBy: Unclaimed},
		{Floor: 4, ClaimedBy: 1},
	}
	s.DownCalls = []HallCall{{Floor: 7, ClaimedBy: 0}}

	up, down := s.ClaimableCalls(0)
	assert.Equal(t, []HallCall{{Floor: 2, ClaimedBy: Unclaimed}}, up)
	assert.Equal(t, []HallCall{{Floor: 7, ClaimedBy: 0}}, down)

	up, _ = s.ClaimableCalls(1)
	require.Len(t, up, 2, "owner keeps seeing its own claim")

	unclaimed := s.UnclaimedCalls()
	require.Len(t, unclaimed, 1)
	assert.Equal(t, 2, unclaimed[0].Floor)
}
