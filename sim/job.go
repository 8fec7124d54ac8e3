// Defines the Job struct that models a synthetic process in the simulation.
// Tracks the burst sequence, priority level, aging counter and dispatch timestamps.

package sim

import (
	"fmt"
)

// JobState names the queue a job currently occupies.
type JobState string

const (
	StateNew     JobState = "new"
	StateReady   JobState = "ready"
	StateRunning JobState = "running"
	StateWaiting JobState = "waiting"
	StateIO      JobState = "io"
	StateExit    JobState = "exit"
)

type Job struct {
	ID string // Unique for the simulation lifetime

	Bursts []Burst // Head is the current burst

	State        JobState // Queue the job occupies
	Priority     int      // Ready level, 0 = highest
	BasePriority int      // Level requested at arrival (priority-based policy only)

	ArrivalTime    int64 // Tick the source reported the job
	WaitTime       int64 // Aging counter, reset on dispatch and promotion
	QueueEntryTime int64 // Tick of the most recent queue admission
	CPUStartTime   int64 // Tick the job was last dispatched to a CPU

	RemainingQuantum int64 // Round robin: ticks left in the current slice
	SliceTicks       int64 // MLFQ: ticks executed at the current level since dispatch

	PendingFetch bool // Next-burst fetch failed; retried on the next tick
	Failed       bool // Terminated because of malformed burst data
}

// NewJob creates a job in the New state.
func NewJob(id string, arrival int64, basePriority int) *Job {
	return &Job{
		ID:             id,
		State:          StateNew,
		BasePriority:   basePriority,
		ArrivalTime:    arrival,
		QueueEntryTime: arrival,
	}
}

// Head returns the current burst, or nil when the sequence is empty.
func (j *Job) Head() *Burst {
	if len(j.Bursts) == 0 {
		return nil
	}
	return &j.Bursts[0]
}

// PopBurst discards the current burst.
func (j *Job) PopBurst() {
	if len(j.Bursts) > 0 {
		j.Bursts = j.Bursts[1:]
	}
}

// dwelled reports whether the job has spent at least one full tick in its current queue.
func (j *Job) dwelled(clock int64) bool {
	return clock-j.QueueEntryTime >= 1
}

func (j Job) String() string {
	return fmt.Sprintf("Job: (ID: %s, State: %s, Priority: %d, Bursts: %v, ArrivalTime: %d)", j.ID, j.State, j.Priority, j.Bursts, j.ArrivalTime)
}
