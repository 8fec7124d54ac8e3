// Package trace provides queue-transition recording for scheduler analysis.
// This package has no dependencies on sim/. It stores pure data types.
package trace

// Transition reasons recorded by the simulator.
const (
	ReasonArrival   = "arrival"
	ReasonAdmit     = "admit"
	ReasonPromote   = "promote"
	ReasonDispatch  = "dispatch"
	ReasonPreempt   = "preempt"
	ReasonDemote    = "demote"
	ReasonBurstDone = "burst-done"
	ReasonIOStart   = "io-start"
	ReasonComplete  = "complete"
	ReasonFailed    = "failed"
)

// TransitionRecord captures a single job moving between queues.
type TransitionRecord struct {
	JobID  string
	Clock  int64
	From   string // queue name, "" for arrivals
	To     string
	Level  int    // ready level for moves into a ready queue, 0 otherwise
	Reason string
}

// Reasons lists every transition reason in lifecycle order.
var Reasons = []string{
	ReasonArrival, ReasonAdmit, ReasonPromote, ReasonDispatch, ReasonPreempt,
	ReasonDemote, ReasonBurstDone, ReasonIOStart, ReasonComplete, ReasonFailed,
}
