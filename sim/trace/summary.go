package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalTransitions int
	Dispatches       int
	Preemptions      int // round-robin requeues and MLFQ demotions
	Promotions       int
	Completions      int
	Failures         int
	UniqueJobs       int
	ReasonCounts     map[string]int // reason -> count
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		ReasonCounts: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	jobs := make(map[string]bool)
	summary.TotalTransitions = len(st.Transitions)
	for _, r := range st.Transitions {
		jobs[r.JobID] = true
		summary.ReasonCounts[r.Reason]++
		switch r.Reason {
		case ReasonDispatch:
			summary.Dispatches++
		case ReasonPreempt, ReasonDemote:
			summary.Preemptions++
		case ReasonPromote:
			summary.Promotions++
		case ReasonComplete:
			summary.Completions++
		case ReasonFailed:
			summary.Failures++
		}
	}
	summary.UniqueJobs = len(jobs)

	return summary
}
