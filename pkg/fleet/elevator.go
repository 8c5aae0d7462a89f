package fleet

import (
	"math"
)

// arriveEps is the position tolerance for treating a car as at a floor.
const arriveEps = 0.005

// advance steps the motion and door state machine by dt seconds. It
// returns the floor the car arrived at this tick, if any; the engine
// performs the floor service (unload, board, claim release).
func (e *Elevator) advance(dt float64, cfg Config) (int, bool) {
	if e.DoorOpen {
		e.Vel = 0
		e.dwellLeft -= dt
		if e.dwellLeft <= 0 {
			e.dwellLeft = 0
			e.DoorOpen = false
			e.Dir = e.nextCommitment()
		}
		return 0, false
	}

	// A truly idle car with a target at its current floor services it in
	// place (a call granted where the car already stands). A car with a
	// committed direction keeps that work for the return leg instead of
	// reopening its doors on the spot.
	if e.Dir == DirNone && math.Abs(e.Vel) < 1e-9 {
		for f := range e.Targets {
			if math.Abs(e.Pos-float64(f)) <= arriveEps {
				e.Pos = float64(f)
				e.Vel = 0
				return f, true
			}
		}
	}

	if len(e.Targets) == 0 {
		if e.Vel != 0 {
			e.Vel = bleed(e.Vel, cfg.Accel*dt)
			e.Pos += e.Vel * dt
			e.clamp(cfg.Floors)
		}
		if e.Vel == 0 {
			e.Dir = DirNone
		}
		return 0, false
	}

	// Idle -> Moving: head toward the nearest target.
	if e.Dir == DirNone {
		if t, ok := e.nearestTarget(); ok {
			e.Dir = directionBetween(e.Pos, float64(t))
		}
		if e.Dir == DirNone {
			return 0, false
		}
	}

	target, ok := e.nextTargetInDir(e.Dir)
	if !ok {
		// Nothing ahead on the committed direction: bleed off speed
		// rather than sailing past, then recommit once stopped.
		if math.Abs(e.Vel) > 1e-9 {
			e.Vel = bleed(e.Vel, cfg.Accel*dt)
			e.Pos += e.Vel * dt
			e.clamp(cfg.Floors)
			return 0, false
		}
		e.Dir = e.nextCommitment()
		return 0, false
	}

	dirS := e.Dir.sign()

	// Still rolling opposite the committed direction: decelerate to a
	// stop before reversing, no instantaneous flips.
	if e.Vel*dirS < 0 {
		e.Vel = bleed(e.Vel, cfg.Accel*dt)
		e.Pos += e.Vel * dt
		e.clamp(cfg.Floors)
		return 0, false
	}

	// Trapezoidal profile: ramp toward top speed, bounded so the next
	// target is reached with zero overshoot.
	rem := math.Abs(float64(target) - e.Pos)
	limit := math.Min(cfg.TopSpeed, math.Sqrt(2*cfg.Accel*rem))
	speed := math.Abs(e.Vel)
	if speed < limit {
		speed = math.Min(limit, speed+cfg.Accel*dt)
	} else {
		speed = math.Max(limit, speed-cfg.Accel*dt)
	}
	e.Vel = dirS * speed
	e.Pos += e.Vel * dt
	e.clamp(cfg.Floors)

	ft := float64(target)
	if (dirS > 0 && e.Pos >= ft-arriveEps) || (dirS < 0 && e.Pos <= ft+arriveEps) {
		e.Pos = ft
		e.Vel = 0
		return target, true
	}
	return 0, false
}

// openDoors puts the car into the doors-open state for the configured
// dwell.
func (e *Elevator) openDoors(dwell float64) {
	e.DoorOpen = true
	e.dwellLeft = dwell
	e.Vel = 0
}

// nextCommitment picks the direction after the doors close: keep the
// current direction while any target lies that way, else reverse, else
// go idle.
func (e *Elevator) nextCommitment() Direction {
	if e.Dir != DirNone {
		if e.hasTargetBeyond(e.Dir) {
			return e.Dir
		}
		if e.hasTargetBeyond(e.Dir.opposite()) {
			return e.Dir.opposite()
		}
		return DirNone
	}
	if e.hasTargetBeyond(DirUp) {
		return DirUp
	}
	if e.hasTargetBeyond(DirDown) {
		return DirDown
	}
	return DirNone
}

func (e *Elevator) hasTargetBeyond(d Direction) bool {
	for f := range e.Targets {
		if directionBetween(e.Pos, float64(f)) == d {
			return true
		}
	}
	return false
}

// nextTargetInDir returns the nearest target strictly ahead of the car in
// the given direction.
func (e *Elevator) nextTargetInDir(d Direction) (int, bool) {
	best, bestDist, found := 0, math.Inf(1), false
	for f := range e.Targets {
		if directionBetween(e.Pos, float64(f)) != d {
			continue
		}
		if dist := math.Abs(float64(f) - e.Pos); dist < bestDist {
			best, bestDist, found = f, dist, true
		}
	}
	return best, found
}

func (e *Elevator) nearestTarget() (int, bool) {
	best, bestDist, found := 0, math.Inf(1), false
	for f := range e.Targets {
		if dist := math.Abs(float64(f) - e.Pos); dist < bestDist {
			best, bestDist, found = f, dist, true
		}
	}
	return best, found
}

// majorityDirection is the post-boarding commitment for a car that
// arrived idle: the direction most onboard destinations lie in, keeping
// the prior direction on a tie.
func (e *Elevator) majorityDirection(floor int) Direction {
	upCount, downCount := 0, 0
	for _, p := range e.Passengers {
		switch {
		case p.Dest > floor:
			upCount++
		case p.Dest < floor:
			downCount++
		}
	}
	if upCount > downCount {
		return DirUp
	}
	if downCount > upCount {
		return DirDown
	}
	return e.Dir
}

// clamp keeps the car inside the shaft; hitting a bound kills velocity.
func (e *Elevator) clamp(floors int) {
	if e.Pos < 0 {
		e.Pos, e.Vel = 0, 0
	}
	if top := float64(floors - 1); e.Pos > top {
		e.Pos, e.Vel = top, 0
	}
}

// bleed moves a signed velocity toward zero by at most dv.
func bleed(v, dv float64) float64 {
	if v > dv {
		return v - dv
	}
	if v < -dv {
		return v + dv
	}
	return 0
}
