package fleet

// stats holds the running counters derived from completed trips. Purely
// additive; trips are immutable once counted.
type stats struct {
	elapsed   float64
	spawned   int
	completed int
	totalWait float64
	maxWait   float64
}

func (s *stats) elapse(dt float64) {
	s.elapsed += dt
}

func (s *stats) recordSpawn() {
	s.spawned++
}

// recordTrip accumulates one completed trip's waiting time (board minus
// spawn).
func (s *stats) recordTrip(wait float64) {
	s.completed++
	s.totalWait += wait
	if wait > s.maxWait {
		s.maxWait = wait
	}
}

// StatsSnapshot is the derived statistics view exposed to callers.
type StatsSnapshot struct {
	ElapsedSec  float64
	Spawned     int
	Completed   int
	AvgWaitSec  float64
	MaxWaitSec  float64
	TripsPerMin float64
}

func (s *stats) snapshot() StatsSnapshot {
	out := StatsSnapshot{
		ElapsedSec: s.elapsed,
		Spawned:    s.spawned,
		Completed:  s.completed,
		MaxWaitSec: s.maxWait,
	}
	if s.completed > 0 {
		out.AvgWaitSec = s.totalWait / float64(s.completed)
	}
	if s.elapsed > 0 {
		out.TripsPerMin = float64(s.completed) / (s.elapsed / 60)
	}
	return out
}
