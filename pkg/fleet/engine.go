// Package fleet implements a tick-driven multi-elevator simulation: a
// stochastic passenger arrival process, a per-floor hall-call registry
// with exclusive claim arbitration, pluggable dispatch strategies, and a
// physically grounded motion and door state machine per car.
//
// The engine is single-threaded and cooperative: one Tick advances every
// sub-step synchronously, and no partial-tick state is observable from
// outside. External readers consume point-in-time snapshots between
// ticks.
package fleet

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// Simulation owns the world state and drives the per-tick pipeline:
// spawn, reconcile claims, run the dispatch strategy, grant decisions,
// advance the cars, collect statistics.
type Simulation struct {
	cfg      Config
	algo     Algorithm
	cars     []*Elevator
	registry *callRegistry
	gen      *generator
	stats    stats
	now      float64
	logger   *slog.Logger
}

// New validates the configuration and builds a simulation with every car
// idle at floor 0. A nil algorithm falls back to the nearest-car
// strategy.
func New(cfg Config, algo Algorithm) (*Simulation, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if algo == nil {
		algo, _ = AlgorithmByName("nearest")
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	s := &Simulation{
		cfg:      cfg,
		algo:     algo,
		registry: newCallRegistry(cfg.Floors),
		gen:      newGenerator(cfg, rng),
		logger:   slog.Default().With("component", "fleet"),
	}
	for i := 0; i < cfg.Elevators; i++ {
		s.cars = append(s.cars, newElevator(i, cfg.Capacity))
	}

	s.logger.Info("Simulation initialized",
		"floors", cfg.Floors,
		"elevators", cfg.Elevators,
		"capacity", cfg.Capacity,
		"algorithm", algo.Name(),
	)
	return s, nil
}

// Tick advances the world by dt seconds. All sub-steps run synchronously;
// nothing in here is fatal, anomalies degrade to "do nothing this tick".
func (s *Simulation) Tick(dt float64) {
	if dt <= 0 {
		return
	}
	s.now += dt
	s.stats.elapse(dt)

	for _, p := range s.gen.emit(dt, s.now) {
		s.registry.enqueue(p)
		s.stats.recordSpawn()
	}

	s.registry.reconcile(s.cars)
	s.applyDecisions(s.decide(s.snapshot()))

	for _, e := range s.cars {
		if floor, arrived := e.advance(dt, s.cfg); arrived {
			s.serviceFloor(e, floor)
		}
	}
}

// RequestCall enqueues a manually directed passenger at a floor. A
// request with no valid floor in the given direction (up from the top
// floor, down from the lobby) is a silent no-op.
func (s *Simulation) RequestCall(floor int, dir Direction) error {
	if floor < 0 || floor >= s.cfg.Floors {
		return fmt.Errorf("floor %d out of range", floor)
	}
	p := s.gen.directed(floor, dir, s.now)
	if p == nil {
		return nil
	}
	s.registry.enqueue(p)
	s.stats.recordSpawn()
	return nil
}

// SetAlgorithm swaps the active dispatch strategy. Stale assignments are
// reconciled away on the next tick.
func (s *Simulation) SetAlgorithm(algo Algorithm) {
	if algo == nil {
		return
	}
	s.algo = algo
	s.logger.Info("Dispatch algorithm changed", "algorithm", algo.Name())
}

// Reset rebuilds the world from the existing configuration, keeping the
// active algorithm.
func (s *Simulation) Reset() {
	s.registry = newCallRegistry(s.cfg.Floors)
	s.cars = nil
	for i := 0; i < s.cfg.Elevators; i++ {
		s.cars = append(s.cars, newElevator(i, s.cfg.Capacity))
	}
	s.gen = newGenerator(s.cfg, s.gen.rng)
	s.stats = stats{}
	s.now = 0
	s.logger.Info("Simulation reset")
}

// Now returns the elapsed simulated time in seconds.
func (s *Simulation) Now() float64 {
	return s.now
}

// Algorithm returns the active dispatch strategy.
func (s *Simulation) Algorithm() Algorithm {
	return s.algo
}

// Config returns the normalized configuration.
func (s *Simulation) Config() Config {
	return s.cfg
}

// ElevatorViews returns detached copies of every car's state.
func (s *Simulation) ElevatorViews() []ElevatorView {
	views := make([]ElevatorView, 0, len(s.cars))
	for _, e := range s.cars {
		views = append(views, e.view())
	}
	return views
}

// FloorViews returns per-floor queue lengths and claim owners.
func (s *Simulation) FloorViews() []FloorView {
	return s.registry.views()
}

// Stats returns the derived statistics snapshot.
func (s *Simulation) Stats() StatsSnapshot {
	return s.stats.snapshot()
}

// snapshot builds the read-only state handed to the dispatch strategy.
func (s *Simulation) snapshot() *AlgorithmState {
	st := &AlgorithmState{Time: s.now, Floors: s.cfg.Floors}
	for _, e := range s.cars {
		st.Elevators = append(st.Elevators, e.view())
	}
	st.UpCalls, st.DownCalls = s.registry.calls()
	return st
}

// decide invokes the strategy behind a recover barrier: a panicking
// callable yields zero decisions for the tick, never a crash.
func (s *Simulation) decide(st *AlgorithmState) (ds []Decision) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("Dispatch algorithm panicked, skipping tick",
				"algorithm", s.algo.Name(), "panic", r)
			ds = nil
		}
	}()
	return s.algo.Decide(st)
}

// applyDecisions grants or rejects each proposed target against the claim
// table. Out-of-range floors and unknown car indexes are discarded. The
// grant runs even when the car already targets the floor as an in-cab
// destination, so a hall call there still gets a recorded owner.
func (s *Simulation) applyDecisions(decisions []Decision) {
	for _, d := range decisions {
		if d.Elevator < 0 || d.Elevator >= len(s.cars) {
			continue
		}
		e := s.cars[d.Elevator]
		for _, f := range d.Floors {
			if f < 0 || f >= s.cfg.Floors {
				continue
			}
			if s.registry.grant(e, f) {
				e.Targets[f] = true
			}
		}
	}
}

// serviceFloor executes the door-open side effects at an arrival floor:
// unload finished trips, board waiting passengers up to capacity with the
// arrival direction first, commit the follow-up direction, and release
// any claim held here.
func (s *Simulation) serviceFloor(e *Elevator, floor int) {
	arrivalDir := e.Dir
	e.openDoors(s.cfg.StopDuration)
	delete(e.Targets, floor)

	kept := e.Passengers[:0]
	for _, p := range e.Passengers {
		if p.Dest == floor {
			p.AlightedAt = s.now
			s.stats.recordTrip(p.BoardedAt - p.SpawnedAt)
			continue
		}
		kept = append(kept, p)
	}
	e.Passengers = kept

	f := s.registry.floor(floor)
	primary, secondary := &f.up, &f.down
	if arrivalDir == DirDown || (arrivalDir == DirNone && len(f.up) == 0) {
		primary, secondary = &f.down, &f.up
	}
	boardedPrimary := s.board(e, primary)
	s.board(e, secondary)

	switch {
	case arrivalDir == DirNone:
		e.Dir = e.majorityDirection(floor)
	case boardedPrimary > 0:
		e.Dir = arrivalDir
	}

	s.registry.release(floor, e.ID)

	s.logger.Debug("Floor serviced",
		"elevator", e.ID,
		"floor", floor,
		"onboard", len(e.Passengers),
		"waiting", len(f.up)+len(f.down),
	)
}

// board moves passengers from a queue into the car until it is full,
// adding their destinations to the target set.
func (s *Simulation) board(e *Elevator, queue *[]*Passenger) int {
	boarded := 0
	for len(*queue) > 0 && len(e.Passengers) < e.Capacity {
		p := (*queue)[0]
		*queue = (*queue)[1:]
		p.BoardedAt = s.now
		e.Passengers = append(e.Passengers, p)
		e.Targets[p.Dest] = true
		boarded++
	}
	return boarded
}
