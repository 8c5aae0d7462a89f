package fleet

import (
	"math/rand"
)

// generator is the stochastic arrival process. It carries its own seeded
// RNG so runs are reproducible when the configuration pins a seed.
type generator struct {
	cfg Config
	rng *rand.Rand
	acc float64 // seconds accumulated toward the next spawn
}

func newGenerator(cfg Config, rng *rand.Rand) *generator {
	return &generator{cfg: cfg, rng: rng}
}

// emit advances the arrival accumulator by dt seconds and returns the
// passengers spawned in that window. A spawn rate of 0 disables the
// process entirely.
func (g *generator) emit(dt, now float64) []*Passenger {
	if g.cfg.SpawnRate <= 0 {
		return nil
	}
	interval := 60.0 / g.cfg.SpawnRate
	g.acc += dt

	var spawned []*Passenger
	for g.acc >= interval {
		g.acc -= interval
		spawned = append(spawned, g.spawn(now))
	}
	return spawned
}

// spawn draws one random trip: origin weighted toward the ground floor,
// destination biased toward the lobby for upper-floor origins.
func (g *generator) spawn(now float64) *Passenger {
	origin := g.drawOrigin()
	dest := g.drawDest(origin)
	return newPassenger(origin, dest, now)
}

// drawOrigin picks a floor where floor 0 carries weight max(1, GroundBias)
// and every other floor weight 1.
func (g *generator) drawOrigin() int {
	groundWeight := g.cfg.GroundBias
	if groundWeight < 1 {
		groundWeight = 1
	}
	total := groundWeight + float64(g.cfg.Floors-1)
	if g.rng.Float64()*total < groundWeight {
		return 0
	}
	return 1 + g.rng.Intn(g.cfg.Floors-1)
}

func (g *generator) drawDest(origin int) int {
	upper := g.cfg.Floors - 1 // count of non-lobby floors

	if origin == 0 {
		return 1 + g.rng.Intn(upper)
	}
	if g.rng.Float64()*100 < g.cfg.ToLobbyPct {
		return 0
	}
	if upper < 2 {
		// origin is the only upper floor, lobby is the only trip left
		return 0
	}
	for {
		dest := 1 + g.rng.Intn(upper)
		if dest != origin {
			return dest
		}
	}
}

// directed synthesizes a passenger for a manual hall call: an explicit
// origin and a forced direction, with a random destination consistent
// with that direction. Returns nil when no floor exists in the requested
// direction.
func (g *generator) directed(origin int, dir Direction, now float64) *Passenger {
	switch dir {
	case DirUp:
		if origin >= g.cfg.Floors-1 {
			return nil
		}
		dest := origin + 1 + g.rng.Intn(g.cfg.Floors-1-origin)
		return newPassenger(origin, dest, now)
	case DirDown:
		if origin <= 0 {
			return nil
		}
		dest := g.rng.Intn(origin)
		return newPassenger(origin, dest, now)
	}
	return nil
}
