// Tracks simulation-wide and per-job performance counters such as:
// completed jobs, CPU-active ticks, per-job wait and CPU time, turnaround times.

package sim

import (
	"fmt"
	"io"
	"sort"
)

// Metrics accumulates raw counters written once per tick by the Simulator.
// Derived values are computed on demand by Summary.
type Metrics struct {
	StartClock int64 // Clock value the session started at
	NumCPUs    int   // Used to normalize CPU utilization

	CompletedJobs  int   // Jobs that reached Exit through an EXIT burst or an exhausted sequence
	FailedJobs     int   // Jobs terminated because of malformed burst data
	CPUActiveTicks int64 // Sum over ticks of busy CPUs

	// JobWaitTimes maps job ID -> ticks spent in a ready queue. Ticks in New or
	// Waiting are not charged, so AvgWait is ready-queue wait only.
	JobWaitTimes map[string]int64

	JobCPUTimes     map[string]int64 // job ID -> ticks spent executing
	TurnaroundTimes []int64          // completion - arrival, in completion order

	completed map[string]bool
}

// NewMetrics creates an empty accumulator.
func NewMetrics(startClock int64, numCPUs int) *Metrics {
	return &Metrics{
		StartClock:   startClock,
		NumCPUs:      numCPUs,
		JobWaitTimes: make(map[string]int64),
		JobCPUTimes:  make(map[string]int64),
		completed:    make(map[string]bool),
	}
}

// TrackJob registers a newly arrived job with zeroed counters.
func (m *Metrics) TrackJob(id string) {
	if _, ok := m.JobWaitTimes[id]; !ok {
		m.JobWaitTimes[id] = 0
	}
	if _, ok := m.JobCPUTimes[id]; !ok {
		m.JobCPUTimes[id] = 0
	}
}

// RecordCompletion counts a finished job exactly once.
// Returns false, leaving every counter untouched, if id was already recorded.
func (m *Metrics) RecordCompletion(id string, turnaround int64) bool {
	if m.completed[id] {
		return false
	}
	m.completed[id] = true
	m.CompletedJobs++
	m.TurnaroundTimes = append(m.TurnaroundTimes, turnaround)
	return true
}

// MetricsSummary is the derived metrics tuple published with every snapshot.
type MetricsSummary struct {
	Clock             int64
	Elapsed           int64
	CompletedJobs     int
	FailedJobs        int
	Throughput        float64 // completed jobs per tick
	AvgWait           float64 // mean ready-queue ticks per job
	AvgTurnaround     float64 // mean turnaround of completed jobs
	CPUUtilizationPct float64 // busy CPU ticks / (CPUs * elapsed) * 100
	Fairness          float64 // mean CPU ticks consumed per job
	CPUTimeStdDev     float64 // dispersion of CPU ticks across jobs
	TurnaroundP50     float64
	TurnaroundP90     float64
	TurnaroundP99     float64
}

// Summary derives the metrics tuple at clock. Rates are zero until time has elapsed.
func (m *Metrics) Summary(clock int64) MetricsSummary {
	s := MetricsSummary{
		Clock:         clock,
		Elapsed:       clock - m.StartClock,
		CompletedJobs: m.CompletedJobs,
		FailedJobs:    m.FailedJobs,
	}
	waits := mapValues(m.JobWaitTimes)
	cpuTimes := mapValues(m.JobCPUTimes)
	s.AvgWait = CalculateMean(waits)
	s.AvgTurnaround = CalculateMean(m.TurnaroundTimes)
	s.Fairness = CalculateMean(cpuTimes)
	s.CPUTimeStdDev = CalculateStdDev(cpuTimes)
	if len(m.TurnaroundTimes) > 0 {
		sorted := make([]int64, len(m.TurnaroundTimes))
		copy(sorted, m.TurnaroundTimes)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		s.TurnaroundP50 = CalculatePercentile(sorted, 50)
		s.TurnaroundP90 = CalculatePercentile(sorted, 90)
		s.TurnaroundP99 = CalculatePercentile(sorted, 99)
	}
	if s.Elapsed > 0 {
		s.Throughput = float64(m.CompletedJobs) / float64(s.Elapsed)
		if m.NumCPUs > 0 {
			s.CPUUtilizationPct = (float64(m.CPUActiveTicks) / float64(m.NumCPUs)) / float64(s.Elapsed) * 100
		}
	}
	return s
}

// Print displays aggregated metrics at the end of the simulation.
func (s MetricsSummary) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Elapsed Ticks        : %d\n", s.Elapsed)
	fmt.Fprintf(w, "Completed Jobs       : %d\n", s.CompletedJobs)
	if s.FailedJobs > 0 {
		fmt.Fprintf(w, "Failed Jobs          : %d\n", s.FailedJobs)
	}
	fmt.Fprintf(w, "Throughput           : %.4f jobs/tick\n", s.Throughput)
	fmt.Fprintf(w, "Average Wait         : %.2f ticks\n", s.AvgWait)
	fmt.Fprintf(w, "Average Turnaround   : %.2f ticks\n", s.AvgTurnaround)
	fmt.Fprintf(w, "CPU Utilization      : %.2f%%\n", s.CPUUtilizationPct)
	fmt.Fprintf(w, "Fairness             : %.2f CPU ticks/job (stddev %.2f)\n", s.Fairness, s.CPUTimeStdDev)
	if s.CompletedJobs > 0 {
		fmt.Fprintf(w, "Turnaround p50/p90/p99: %.1f / %.1f / %.1f ticks\n", s.TurnaroundP50, s.TurnaroundP90, s.TurnaroundP99)
	}
}

// mapValues returns the values of m in ascending order so derived floats do
// not depend on map iteration order.
func mapValues(m map[string]int64) []int64 {
	out := make([]int64, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
