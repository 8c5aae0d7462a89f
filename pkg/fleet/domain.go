package fleet

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/tiendc/go-deepcopy"
)

// --- Domain Entities & Value Objects ---

// Direction indicates the vertical movement vector.
type Direction string

const (
	DirUp   Direction = "Up"
	DirDown Direction = "Down"
	DirNone Direction = "None"
)

func (d Direction) opposite() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	}
	return DirNone
}

// sign maps the direction onto the position axis: +1 up, -1 down, 0 idle.
func (d Direction) sign() float64 {
	switch d {
	case DirUp:
		return 1
	case DirDown:
		return -1
	}
	return 0
}

// directionBetween returns the travel direction from one position to
// another, DirNone if they coincide within the arrival tolerance.
func directionBetween(from, to float64) Direction {
	if to > from+arriveEps {
		return DirUp
	}
	if to < from-arriveEps {
		return DirDown
	}
	return DirNone
}

// Passenger is a single trip request. A passenger waits in exactly one
// floor queue until boarded, rides in exactly one elevator manifest, and
// is dropped from both once alighted and counted into the statistics.
type Passenger struct {
	ID         uuid.UUID
	Origin     int
	Dest       int
	SpawnedAt  float64 // simulation seconds
	BoardedAt  float64 // negative until boarded
	AlightedAt float64 // negative until alighted
}

func newPassenger(origin, dest int, now float64) *Passenger {
	return &Passenger{
		ID:         uuid.New(),
		Origin:     origin,
		Dest:       dest,
		SpawnedAt:  now,
		BoardedAt:  -1,
		AlightedAt: -1,
	}
}

// Direction of travel this passenger needs from its origin.
func (p *Passenger) Direction() Direction {
	if p.Dest > p.Origin {
		return DirUp
	}
	return DirDown
}

// Config holds the immutable simulation parameters. Zero values are
// normalized to defaults at construction; impossible values are rejected.
type Config struct {
	Floors       int     // number of floors, >= 2
	Elevators    int     // number of cars, >= 1
	Capacity     int     // passengers per car, >= 1
	TopSpeed     float64 // floors per second
	Accel        float64 // floors per second^2, defaults to TopSpeed
	StopDuration float64 // door dwell in seconds
	SpawnRate    float64 // passengers per minute, 0 disables
	GroundBias   float64 // origin weight multiplier for floor 0, >= 1
	ToLobbyPct   float64 // chance (0-100) an upper-floor passenger heads to the lobby
	Seed         int64   // RNG seed, 0 picks a wall-clock seed
}

func (c *Config) normalize() error {
	if c.Floors < 2 {
		return fmt.Errorf("invalid config: need at least 2 floors, got %d", c.Floors)
	}
	if c.Elevators < 1 {
		return fmt.Errorf("invalid config: need at least 1 elevator, got %d", c.Elevators)
	}
	if c.Capacity < 1 {
		return fmt.Errorf("invalid config: capacity must be positive, got %d", c.Capacity)
	}
	if c.TopSpeed <= 0 {
		return fmt.Errorf("invalid config: top speed must be positive, got %g", c.TopSpeed)
	}
	if c.Accel <= 0 {
		c.Accel = c.TopSpeed
	}
	if c.StopDuration <= 0 {
		c.StopDuration = 2
	}
	if c.SpawnRate < 0 {
		c.SpawnRate = 0
	}
	if c.GroundBias < 1 {
		c.GroundBias = 1
	}
	c.ToLobbyPct = math.Min(100, math.Max(0, c.ToLobbyPct))
	return nil
}

// Elevator is the physical state of one car, advanced once per tick by
// the motion state machine. Targets is an unordered set; consumers derive
// stop order from position and direction.
type Elevator struct {
	ID         int
	Pos        float64 // fractional while moving
	Dir        Direction
	Vel        float64 // signed, floors per second
	Capacity   int
	Passengers []*Passenger // insertion order
	DoorOpen   bool
	Targets    map[int]bool

	dwellLeft float64 // door-open countdown
}

func newElevator(id, capacity int) *Elevator {
	return &Elevator{
		ID:       id,
		Dir:      DirNone,
		Capacity: capacity,
		Targets:  make(map[int]bool),
	}
}

// ElevatorView is the read-only copy of a car handed to dispatch
// strategies and external readers. Its collections are detached from the
// live car so a strategy cannot corrupt engine state.
type ElevatorView struct {
	ID             int
	Pos            float64
	Dir            Direction
	Vel            float64
	Capacity       int
	PassengerCount int
	DoorOpen       bool
	Targets        map[int]bool
	Destinations   []int // boarded passengers' destinations, insertion order
}

func (e *Elevator) view() ElevatorView {
	v := ElevatorView{
		ID:             e.ID,
		Pos:            e.Pos,
		Dir:            e.Dir,
		Vel:            e.Vel,
		Capacity:       e.Capacity,
		PassengerCount: len(e.Passengers),
		DoorOpen:       e.DoorOpen,
	}
	if err := deepcopy.Copy(&v.Targets, e.Targets); err != nil {
		panic(err)
	}
	for _, p := range e.Passengers {
		v.Destinations = append(v.Destinations, p.Dest)
	}
	return v
}

// TargetFloors returns the target set as a sorted list.
func (v ElevatorView) TargetFloors() []int {
	floors := make([]int, 0, len(v.Targets))
	for f := range v.Targets {
		floors = append(floors, f)
	}
	sort.Ints(floors)
	return floors
}

// FloorView is the per-floor state exposed to external readers: queue
// lengths and the current claim owners (Unclaimed if none).
type FloorView struct {
	Floor       int
	UpWaiting   int
	DownWaiting int
	UpClaim     int
	DownClaim   int
}
