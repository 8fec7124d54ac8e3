package sim

import (
	"context"
	"fmt"
	"sort"
	"testing"
)

// scriptedJob is one job a scriptedSource will report.
type scriptedJob struct {
	id       string
	arrival  int64
	priority int
	bursts   []Burst
}

// scriptedSource serves a fixed set of jobs one burst per NextBursts call,
// the way the job server does. Failures can be injected per clock and per job.
type scriptedSource struct {
	jobs      []scriptedJob
	delivered map[int]bool // index into jobs
	pending   map[string][]Burst

	failArrivals  map[int64]int    // clock -> remaining failures
	failNext      map[string]int   // job -> remaining NextBursts failures
	failRemaining int              // remaining JobsRemaining failures
	malformed     map[string]Burst // job -> burst returned instead of its next one
	arrivalCalls  []int64
}

func newScriptedSource(jobs ...scriptedJob) *scriptedSource {
	s := &scriptedSource{
		delivered:    make(map[int]bool),
		pending:      make(map[string][]Burst),
		failArrivals: make(map[int64]int),
		failNext:     make(map[string]int),
		malformed:    make(map[string]Burst),
	}
	for _, j := range jobs {
		s.jobs = append(s.jobs, j)
		s.pending[j.id] = append([]Burst(nil), j.bursts...)
	}
	sort.SliceStable(s.jobs, func(a, b int) bool { return s.jobs[a].arrival < s.jobs[b].arrival })
	return s
}

func (s *scriptedSource) Arrivals(_ context.Context, clock int64) ([]Arrival, error) {
	s.arrivalCalls = append(s.arrivalCalls, clock)
	if s.failArrivals[clock] > 0 {
		s.failArrivals[clock]--
		return nil, fmt.Errorf("%w: injected", ErrSourceUnavailable)
	}
	var out []Arrival
	for i, j := range s.jobs {
		if j.arrival == clock && !s.delivered[i] {
			s.delivered[i] = true
			out = append(out, Arrival{JobID: j.id, Priority: j.priority})
		}
	}
	return out, nil
}

func (s *scriptedSource) NextBursts(_ context.Context, jobID string) ([]Burst, error) {
	if s.failNext[jobID] > 0 {
		s.failNext[jobID]--
		return nil, fmt.Errorf("%w: injected", ErrSourceUnavailable)
	}
	if b, ok := s.malformed[jobID]; ok {
		delete(s.malformed, jobID)
		return []Burst{b}, nil
	}
	q := s.pending[jobID]
	if len(q) == 0 {
		return []Burst{}, nil
	}
	s.pending[jobID] = q[1:]
	return []Burst{q[0]}, nil
}

func (s *scriptedSource) BurstsRemaining(_ context.Context, jobID string) (bool, error) {
	return len(s.pending[jobID]) > 0, nil
}

func (s *scriptedSource) JobsRemaining(_ context.Context) (bool, error) {
	if s.failRemaining > 0 {
		s.failRemaining--
		return false, fmt.Errorf("%w: injected", ErrSourceUnavailable)
	}
	for i := range s.jobs {
		if !s.delivered[i] {
			return true, nil
		}
	}
	return false, nil
}

func cpuBurst(n int64) Burst { return Burst{Kind: BurstCPU, Remaining: n} }
func ioBurst(n int64) Burst  { return Burst{Kind: BurstIO, Remaining: n} }
func exitBurst() Burst       { return Burst{Kind: BurstExit} }

// newTestSimulator builds a simulator starting at clock 0 and fails the test on error.
func newTestSimulator(t *testing.T, cfg SchedulerConfig, src BurstSource) *Simulator {
	t.Helper()
	cfg.ApplyDefaults()
	s, err := NewSimulator(cfg, src, 0)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return s
}

// runChecked steps s to termination (or maxSteps), checking the queue partition
// after every tick, and returns every published snapshot.
func runChecked(t *testing.T, s *Simulator, maxSteps int) []*Snapshot {
	t.Helper()
	var snaps []*Snapshot
	for i := 0; i < maxSteps && !s.Done(); i++ {
		snaps = append(snaps, s.Step(context.Background()))
		if err := s.Queues.CheckPartition(); err != nil {
			t.Fatalf("tick %d: %v", s.Clock, err)
		}
	}
	if !s.Done() {
		t.Fatalf("simulation did not terminate within %d steps", maxSteps)
	}
	return snaps
}
