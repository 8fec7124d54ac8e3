// Package source implements burst sources for the simulator: an in-process
// seeded generator and a client for the remote job server. Both normalize
// their data into sim.Burst sequences before handing it to the engine.
package source

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/markphelps/optional"
	"github.com/sirupsen/logrus"

	"github.com/cpusched/cpusched/sim"
)

// Session describes an initialized job stream.
type Session struct {
	ID         string
	StartClock int64
	TimeSlice  int64 // suggested round robin quantum
}

type plannedJob struct {
	arrival  int64
	id       string
	priority int
}

// Synthetic generates the whole job stream up front from a GeneratorConfig and
// a seed, then serves it through the sim.BurstSource interface one burst per call.
type Synthetic struct {
	session Session
	jobs    []plannedJob // sorted by arrival
	next    int          // index of the first job not yet delivered
	bursts  map[string][]sim.Burst
}

// NewSynthetic builds a deterministic job stream. Without a seed the current
// time is used, so runs differ.
func NewSynthetic(cfg GeneratorConfig, seed optional.Int64) (*Synthetic, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generator config: %w", err)
	}
	key := seed.OrElse(time.Now().UnixNano())
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(key))
	arrivalRNG := rng.ForSubsystem(sim.SubsystemArrivals)
	burstRNG := rng.ForSubsystem(sim.SubsystemBursts)
	sessionRNG := rng.ForSubsystem(sim.SubsystemSession)

	s := &Synthetic{
		session: Session{
			ID:         fmt.Sprintf("synthetic-%d", key),
			StartClock: cfg.StartClock,
			TimeSlice:  uniform(sessionRNG, cfg.MinTSInterval, cfg.MaxTSInterval),
		},
		bursts: make(map[string][]sim.Burst),
	}

	numJobs := int(uniform(arrivalRNG, int64(cfg.MinJobs), int64(cfg.MaxJobs)))
	clock := cfg.StartClock
	for i := 0; i < numJobs; i++ {
		if i > 0 {
			clock += uniform(arrivalRNG, cfg.MinJobInterval, cfg.MaxJobInterval)
		}
		id := strconv.Itoa(i)
		s.jobs = append(s.jobs, plannedJob{
			arrival:  clock,
			id:       id,
			priority: int(uniform(arrivalRNG, 0, int64(cfg.Levels()-1))),
		})
		s.bursts[id] = generateBursts(burstRNG, cfg)
	}
	logrus.Debugf("synthetic source: %d jobs, time slice %d, seed %d", numJobs, s.session.TimeSlice, key)
	return s, nil
}

// generateBursts draws one job's burst sequence. The first and last bursts are
// CPU, two IO bursts are never adjacent, and the sequence ends with EXIT.
func generateBursts(rng *rand.Rand, cfg GeneratorConfig) []sim.Burst {
	n := int(uniform(rng, int64(cfg.MinBursts), int64(cfg.MaxBursts)))
	bursts := make([]sim.Burst, 0, n+1)
	for i := 0; i < n; i++ {
		kind := sim.BurstCPU
		prevIO := i > 0 && bursts[i-1].Kind == sim.BurstIO
		if i > 0 && i < n-1 && !prevIO && rng.Float64() >= cfg.BurstTypeRatio {
			kind = sim.BurstIO
		}
		var d int64
		if kind == sim.BurstCPU {
			d = uniform(rng, cfg.MinCPUBurstInterval, cfg.MaxCPUBurstInterval)
		} else {
			d = uniform(rng, cfg.MinIOBurstInterval, cfg.MaxIOBurstInterval)
		}
		bursts = append(bursts, sim.Burst{Kind: kind, Remaining: d})
	}
	return append(bursts, sim.Burst{Kind: sim.BurstExit})
}

// uniform draws an integer in [lo, hi].
func uniform(rng *rand.Rand, lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Int63n(hi-lo+1)
}

// Session returns the generated session parameters.
func (s *Synthetic) Session() Session {
	return s.session
}

// Arrivals delivers every not-yet-delivered job whose arrival is at or before clock.
func (s *Synthetic) Arrivals(_ context.Context, clock int64) ([]sim.Arrival, error) {
	var out []sim.Arrival
	for s.next < len(s.jobs) && s.jobs[s.next].arrival <= clock {
		j := s.jobs[s.next]
		out = append(out, sim.Arrival{JobID: j.id, Priority: j.priority})
		s.next++
	}
	return out, nil
}

// NextBursts hands out the job's next burst. An exhausted job yields an empty slice.
func (s *Synthetic) NextBursts(_ context.Context, jobID string) ([]sim.Burst, error) {
	queue, ok := s.bursts[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown job %s", sim.ErrSourceUnavailable, jobID)
	}
	if len(queue) == 0 {
		return []sim.Burst{}, nil
	}
	s.bursts[jobID] = queue[1:]
	return []sim.Burst{queue[0]}, nil
}

// BurstsRemaining reports whether jobID has undelivered bursts.
func (s *Synthetic) BurstsRemaining(_ context.Context, jobID string) (bool, error) {
	return len(s.bursts[jobID]) > 0, nil
}

// JobsRemaining reports whether any job has not arrived yet.
func (s *Synthetic) JobsRemaining(_ context.Context) (bool, error) {
	return s.next < len(s.jobs), nil
}
