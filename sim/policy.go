package sim

import (
	"fmt"
)

// Policy supplies the policy-specific parts of the tick transition function:
// how many ready levels exist, where jobs enter, whether they age, and when a
// running job's slice expires.
type Policy interface {
	Name() string
	// Levels is the number of ready queues.
	Levels() int
	// EntryLevel is the ready level for a job admitted from New or returning
	// from a completed burst.
	EntryLevel(j *Job) int
	// Aging reports whether jobs below level 0 are promoted after waiting.
	Aging() bool
	// OnDispatch initializes slice bookkeeping when the job obtains a CPU.
	OnDispatch(j *Job)
	// Tick accounts one executed CPU tick and reports whether the slice is used up.
	Tick(j *Job) bool
	// Preempt resets slice bookkeeping after expiry and returns the ready level to requeue at.
	Preempt(j *Job) int
}

// RoundRobin uses one ready queue and a fixed quantum for every job.
// The remaining quantum is decremented per executed tick.
type RoundRobin struct {
	Quantum int64
}

func (p *RoundRobin) Name() string          { return PolicyRR }
func (p *RoundRobin) Levels() int           { return 1 }
func (p *RoundRobin) EntryLevel(_ *Job) int { return 0 }
func (p *RoundRobin) Aging() bool           { return false }

func (p *RoundRobin) OnDispatch(j *Job) {
	j.RemainingQuantum = p.Quantum
	j.SliceTicks = 0
}

func (p *RoundRobin) Tick(j *Job) bool {
	j.RemainingQuantum--
	j.SliceTicks++
	return j.RemainingQuantum <= 0
}

func (p *RoundRobin) Preempt(j *Job) int {
	j.RemainingQuantum = p.Quantum
	j.SliceTicks = 0
	return 0
}

// MLFQ keeps one ready queue per level, each with its own quantum.
// Execution at the current level accumulates in SliceTicks and is compared
// against the level's quantum. Expiry demotes by one level.
type MLFQ struct {
	Quantums []int64 // indexed by level
}

func (p *MLFQ) Name() string          { return PolicyMLFQ }
func (p *MLFQ) Levels() int           { return len(p.Quantums) }
func (p *MLFQ) EntryLevel(_ *Job) int { return 0 }
func (p *MLFQ) Aging() bool           { return true }

func (p *MLFQ) OnDispatch(j *Job) {
	j.SliceTicks = 0
}

func (p *MLFQ) Tick(j *Job) bool {
	j.SliceTicks++
	return j.SliceTicks >= p.Quantums[j.Priority]
}

// Preempt demotes the job. Demoted jobs start with one tick of wait credit
// toward re-aging, unlike promoted jobs which restart from zero.
func (p *MLFQ) Preempt(j *Job) int {
	j.SliceTicks = 0
	j.WaitTime = 1
	return min(len(p.Quantums)-1, j.Priority+1)
}

// FCFS runs every CPU burst to completion from a single ready queue.
type FCFS struct{}

func (p *FCFS) Name() string          { return PolicyFCFS }
func (p *FCFS) Levels() int           { return 1 }
func (p *FCFS) EntryLevel(_ *Job) int { return 0 }
func (p *FCFS) Aging() bool           { return false }
func (p *FCFS) OnDispatch(j *Job)     { j.SliceTicks = 0 }
func (p *FCFS) Tick(j *Job) bool {
	j.SliceTicks++
	return false
}
func (p *FCFS) Preempt(j *Job) int { return 0 }

// PriorityBased admits jobs at the level requested on arrival and runs bursts
// to completion. Waiting jobs age toward level 0 so low levels cannot starve.
type PriorityBased struct {
	NumLevels int
}

func (p *PriorityBased) Name() string { return PolicyPB }
func (p *PriorityBased) Levels() int  { return p.NumLevels }

func (p *PriorityBased) EntryLevel(j *Job) int {
	return max(0, min(p.NumLevels-1, j.BasePriority))
}

func (p *PriorityBased) Aging() bool       { return true }
func (p *PriorityBased) OnDispatch(j *Job) { j.SliceTicks = 0 }
func (p *PriorityBased) Tick(j *Job) bool {
	j.SliceTicks++
	return false
}
func (p *PriorityBased) Preempt(j *Job) int { return j.Priority }

// NewPolicy creates a Policy from a validated config.
// Panics on unrecognized policy names; call SchedulerConfig.Validate first.
func NewPolicy(cfg SchedulerConfig) Policy {
	name := NormalizePolicyName(cfg.Policy)
	if !IsValidPolicy(name) {
		panic(fmt.Sprintf("unknown policy %q", cfg.Policy))
	}
	switch name {
	case PolicyRR:
		return &RoundRobin{Quantum: cfg.TimeQuantums[0]}
	case PolicyMLFQ:
		q := make([]int64, len(cfg.TimeQuantums))
		copy(q, cfg.TimeQuantums)
		return &MLFQ{Quantums: q}
	case PolicyFCFS:
		return &FCFS{}
	case PolicyPB:
		return &PriorityBased{NumLevels: cfg.NumPriorityLevels}
	default:
		panic(fmt.Sprintf("unhandled policy %q", name))
	}
}
