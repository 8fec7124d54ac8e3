package sim

import (
	"fmt"
)

// QueueSet owns every live job and the queues that reference them.
// Queues hold IDs into the jobs arena; Move is the only way a job changes queue,
// so a job can never be resident in two queues at once.
type QueueSet struct {
	jobs map[string]*Job

	New     *JobQueue
	Ready   []*JobQueue // one queue per priority level, index 0 = highest
	Running *JobQueue
	Waiting *JobQueue
	IO      *JobQueue
	Exit    *JobQueue

	MaxRunning int // number of CPUs
	MaxIO      int // number of IO devices
}

// NewQueueSet creates an empty QueueSet with the given number of ready levels.
func NewQueueSet(levels, cpus, ioDevices int) *QueueSet {
	if levels < 1 {
		panic(fmt.Sprintf("NewQueueSet: levels must be >= 1, got %d", levels))
	}
	qs := &QueueSet{
		jobs:       make(map[string]*Job),
		New:        &JobQueue{},
		Ready:      make([]*JobQueue, levels),
		Running:    &JobQueue{},
		Waiting:    &JobQueue{},
		IO:         &JobQueue{},
		Exit:       &JobQueue{},
		MaxRunning: cpus,
		MaxIO:      ioDevices,
	}
	for i := range qs.Ready {
		qs.Ready[i] = &JobQueue{}
	}
	return qs
}

// Admit registers a freshly arrived job in the arena and appends it to New.
// Returns an error if the ID is already in use.
func (qs *QueueSet) Admit(j *Job) error {
	if _, ok := qs.jobs[j.ID]; ok {
		return fmt.Errorf("job %s already tracked", j.ID)
	}
	j.State = StateNew
	qs.jobs[j.ID] = j
	qs.New.Enqueue(j.ID)
	return nil
}

// Job looks up a live job by ID.
func (qs *QueueSet) Job(id string) (*Job, bool) {
	j, ok := qs.jobs[id]
	return j, ok
}

// Levels returns the number of ready levels.
func (qs *QueueSet) Levels() int {
	return len(qs.Ready)
}

func (qs *QueueSet) queueFor(state JobState, level int) *JobQueue {
	switch state {
	case StateNew:
		return qs.New
	case StateReady:
		return qs.Ready[level]
	case StateRunning:
		return qs.Running
	case StateWaiting:
		return qs.Waiting
	case StateIO:
		return qs.IO
	case StateExit:
		return qs.Exit
	default:
		panic(fmt.Sprintf("queueFor: unknown state %q", state))
	}
}

// Move detaches j from its current queue and appends it to the tail of the target.
// level selects the ready queue and is ignored for other states.
// Moving to Exit drops the job from the arena; the Exit queue keeps its ID.
// Capacity of Running and IO is checked here and a violation panics: callers
// gate admission on HasCPU/HasIODevice first.
func (qs *QueueSet) Move(j *Job, to JobState, level int) {
	if to == StateReady && (level < 0 || level >= len(qs.Ready)) {
		panic(fmt.Sprintf("Move: ready level %d out of range [0,%d)", level, len(qs.Ready)))
	}
	if to == StateRunning && j.State != StateRunning && !qs.HasCPU() {
		panic(fmt.Sprintf("Move: running queue full (%d CPUs)", qs.MaxRunning))
	}
	if to == StateIO && j.State != StateIO && !qs.HasIODevice() {
		panic(fmt.Sprintf("Move: io queue full (%d devices)", qs.MaxIO))
	}
	if !qs.queueFor(j.State, j.Priority).Remove(j.ID) {
		panic(fmt.Sprintf("Move: job %s not found in %s queue", j.ID, j.State))
	}
	j.State = to
	if to == StateReady {
		j.Priority = level
	}
	qs.queueFor(to, level).Enqueue(j.ID)
	if to == StateExit {
		delete(qs.jobs, j.ID)
	}
}

// HasCPU reports whether a CPU is free.
func (qs *QueueSet) HasCPU() bool {
	return qs.Running.Len() < qs.MaxRunning
}

// HasIODevice reports whether an IO device is free.
func (qs *QueueSet) HasIODevice() bool {
	return qs.IO.Len() < qs.MaxIO
}

// ReadyLen returns the number of jobs across all ready levels.
func (qs *QueueSet) ReadyLen() int {
	n := 0
	for _, q := range qs.Ready {
		n += q.Len()
	}
	return n
}

// Active reports whether any job is outside Exit.
func (qs *QueueSet) Active() bool {
	return qs.New.Len() > 0 || qs.ReadyLen() > 0 || qs.Running.Len() > 0 ||
		qs.Waiting.Len() > 0 || qs.IO.Len() > 0
}

// CheckPartition verifies that every live job is in exactly one queue, the one
// its State names, and that Running and IO respect their capacities.
func (qs *QueueSet) CheckPartition() error {
	if qs.Running.Len() > qs.MaxRunning {
		return fmt.Errorf("running holds %d jobs, capacity %d", qs.Running.Len(), qs.MaxRunning)
	}
	if qs.IO.Len() > qs.MaxIO {
		return fmt.Errorf("io holds %d jobs, capacity %d", qs.IO.Len(), qs.MaxIO)
	}
	seen := make(map[string]string)
	record := func(name string, q *JobQueue) error {
		for _, id := range q.ids {
			if prev, ok := seen[id]; ok {
				return fmt.Errorf("job %s resident in both %s and %s", id, prev, name)
			}
			seen[id] = name
		}
		return nil
	}
	queues := []struct {
		name string
		q    *JobQueue
	}{
		{"new", qs.New}, {"running", qs.Running}, {"waiting", qs.Waiting}, {"io", qs.IO}, {"exit", qs.Exit},
	}
	for i, q := range qs.Ready {
		queues = append(queues, struct {
			name string
			q    *JobQueue
		}{fmt.Sprintf("ready[%d]", i), q})
	}
	for _, e := range queues {
		if err := record(e.name, e.q); err != nil {
			return err
		}
	}
	for id, j := range qs.jobs {
		if !qs.queueFor(j.State, j.Priority).Contains(id) {
			return fmt.Errorf("job %s has state %s but is not in that queue", id, j.State)
		}
	}
	return nil
}
