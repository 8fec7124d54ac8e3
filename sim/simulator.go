// sim/simulator.go
package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cpusched/cpusched/sim/trace"
)

// Simulator owns the clock, the queue set and the metrics, and applies the
// scheduling policy one tick at a time. It is the only writer of that state.
type Simulator struct {
	Clock      int64
	StartClock int64
	Config     SchedulerConfig
	Policy     Policy
	Queues     *QueueSet
	Metrics    *Metrics
	Source     BurstSource
	// Trace records every queue transition; nil disables tracing.
	Trace     *trace.SimulationTrace
	StepCount int

	// clocks whose arrivals call failed; retried before the current clock
	missedArrivals []int64
	done           bool
}

// NewSimulator validates cfg and builds a Simulator starting at startClock.
func NewSimulator(cfg SchedulerConfig, source BurstSource, startClock int64) (*Simulator, error) {
	if source == nil {
		return nil, errors.New("burst source must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scheduler config: %w", err)
	}
	policy := NewPolicy(cfg)
	return &Simulator{
		Clock:      startClock,
		StartClock: startClock,
		Config:     cfg,
		Policy:     policy,
		Queues:     NewQueueSet(policy.Levels(), cfg.NumCPUs, cfg.NumIODevices),
		Metrics:    NewMetrics(startClock, cfg.NumCPUs),
		Source:     source,
	}, nil
}

// Done reports whether the termination predicate has held.
func (sim *Simulator) Done() bool {
	return sim.done
}

// Run steps the simulation until it terminates, publishing one snapshot per tick.
// Cancellation is observed between ticks.
func (sim *Simulator) Run(ctx context.Context, sink SnapshotSink) error {
	for !sim.done {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap := sim.Step(ctx)
		if sink != nil {
			sink.Publish(snap)
		}
	}
	logrus.Infof("[tick %07d] Simulation ended", sim.Clock)
	return nil
}

// Step executes one full tick and returns the resulting snapshot.
// Order within the tick: arrivals, New -> Ready, aging, dispatch, CPU execution,
// Waiting -> IO, IO execution, metrics, termination check, clock advance.
// Calling Step after termination returns the final snapshot without changes.
func (sim *Simulator) Step(ctx context.Context) *Snapshot {
	if sim.done {
		return sim.snapshot()
	}
	now := sim.Clock
	sim.StepCount++
	logrus.Debugf("[tick %07d] step %d", now, sim.StepCount)

	sim.pullArrivals(ctx, now)
	sim.admitNew(ctx, now)
	sim.ageReady(now)
	sim.dispatch(now)
	sim.executeCPU(ctx, now)
	sim.startIO(now)
	sim.executeIO(ctx, now)

	sim.done = sim.terminated(ctx, now)
	snap := sim.snapshot()
	if !sim.done {
		sim.Clock++
	}
	return snap
}

func (sim *Simulator) snapshot() *Snapshot {
	snap := sim.Queues.snapshot()
	snap.Clock = sim.Clock
	snap.Policy = sim.Policy.Name()
	snap.Metrics = sim.Metrics.Summary(sim.Clock)
	snap.Done = sim.done
	return snap
}

func (sim *Simulator) pullArrivals(ctx context.Context, now int64) {
	clocks := append(sim.missedArrivals, now)
	sim.missedArrivals = nil
	for _, c := range clocks {
		arrivals, err := sim.Source.Arrivals(ctx, c)
		if err != nil {
			logrus.Warnf("[tick %07d] arrivals for clock %d unavailable, retrying next tick: %v", now, c, err)
			sim.missedArrivals = append(sim.missedArrivals, c)
			continue
		}
		for _, a := range arrivals {
			sim.arrive(ctx, a, now)
		}
	}
}

func (sim *Simulator) arrive(ctx context.Context, a Arrival, now int64) {
	if _, seen := sim.Metrics.JobWaitTimes[a.JobID]; seen {
		logrus.Warnf("[tick %07d] ignoring repeated arrival of job %s", now, a.JobID)
		return
	}
	j := NewJob(a.JobID, now, a.Priority)
	if err := sim.Queues.Admit(j); err != nil {
		logrus.Warnf("[tick %07d] ignoring arrival: %v", now, err)
		return
	}
	sim.Metrics.TrackJob(j.ID)
	sim.record(j, "", now, trace.ReasonArrival)
	logrus.Infof("[tick %07d] job %s entered the new queue", now, j.ID)
	sim.refill(ctx, j, now)
}

// admitNew moves jobs that have dwelled a full tick in New to the queue their first burst needs.
func (sim *Simulator) admitNew(ctx context.Context, now int64) {
	for _, id := range sim.Queues.New.Items() {
		j, _ := sim.Queues.Job(id)
		if !j.dwelled(now) {
			continue
		}
		sim.route(ctx, j, now, trace.ReasonAdmit)
	}
}

// ageReady charges one tick of waiting to every ready job and, for aging
// policies, promotes jobs below level 0 whose wait reached the threshold.
// Levels are visited top-down so a promoted job is never aged twice in a tick.
func (sim *Simulator) ageReady(now int64) {
	for level, q := range sim.Queues.Ready {
		for _, id := range q.Items() {
			j, _ := sim.Queues.Job(id)
			sim.Metrics.JobWaitTimes[id]++
			if !sim.Policy.Aging() || level == 0 {
				continue
			}
			j.WaitTime++
			if j.WaitTime >= sim.Config.AgingThreshold {
				j.WaitTime = 0
				sim.moveTo(j, StateReady, level-1, now, trace.ReasonPromote)
			}
		}
	}
}

// dispatch fills free CPUs from the ready levels, highest first and FIFO within
// a level. Jobs that have not dwelled a full tick are skipped; dispatch stops
// as soon as every CPU is busy.
func (sim *Simulator) dispatch(now int64) {
	for _, q := range sim.Queues.Ready {
		for _, id := range q.Items() {
			if !sim.Queues.HasCPU() {
				return
			}
			j, _ := sim.Queues.Job(id)
			if !j.dwelled(now) {
				continue
			}
			j.CPUStartTime = now
			j.WaitTime = 0
			sim.Policy.OnDispatch(j)
			sim.moveTo(j, StateRunning, 0, now, trace.ReasonDispatch)
		}
	}
}

// executeCPU runs one tick of every running job. Quantum expiry is checked
// before burst completion and only applies to unfinished bursts.
func (sim *Simulator) executeCPU(ctx context.Context, now int64) {
	for _, id := range sim.Queues.Running.Items() {
		j, _ := sim.Queues.Job(id)
		if j.PendingFetch {
			sim.route(ctx, j, now, trace.ReasonBurstDone)
			continue
		}
		head := j.Head()
		if head == nil || head.Kind != BurstCPU {
			sim.fail(j, now, fmt.Errorf("%w: running job has no CPU burst", ErrMalformedBurst))
			continue
		}
		head.Remaining--
		sim.Metrics.CPUActiveTicks++
		sim.Metrics.JobCPUTimes[id]++
		expired := sim.Policy.Tick(j)
		logrus.Debugf("[tick %07d] job %s using CPU, remaining burst %d", now, id, head.Remaining)

		if head.Remaining > 0 {
			if expired {
				from := j.Priority
				level := sim.Policy.Preempt(j)
				reason := trace.ReasonPreempt
				if level > from {
					reason = trace.ReasonDemote
				}
				sim.moveTo(j, StateReady, level, now, reason)
			}
			continue
		}
		j.PopBurst()
		j.SliceTicks = 0
		sim.route(ctx, j, now, trace.ReasonBurstDone)
	}
}

// startIO hands free IO devices to waiting jobs in FIFO order.
func (sim *Simulator) startIO(now int64) {
	for _, id := range sim.Queues.Waiting.Items() {
		if !sim.Queues.HasIODevice() {
			return
		}
		j, _ := sim.Queues.Job(id)
		if !j.dwelled(now) {
			continue
		}
		sim.moveTo(j, StateIO, 0, now, trace.ReasonIOStart)
	}
}

// executeIO runs one tick of every job holding an IO device. There is no quantum:
// the device is held for the whole burst.
func (sim *Simulator) executeIO(ctx context.Context, now int64) {
	for _, id := range sim.Queues.IO.Items() {
		j, _ := sim.Queues.Job(id)
		if j.PendingFetch {
			sim.route(ctx, j, now, trace.ReasonBurstDone)
			continue
		}
		head := j.Head()
		if head == nil || head.Kind != BurstIO {
			sim.fail(j, now, fmt.Errorf("%w: io job has no IO burst", ErrMalformedBurst))
			continue
		}
		head.Remaining--
		logrus.Debugf("[tick %07d] job %s processing IO, remaining burst %d", now, id, head.Remaining)
		if head.Remaining > 0 {
			continue
		}
		j.PopBurst()
		sim.route(ctx, j, now, trace.ReasonBurstDone)
	}
}

// route sends j to the queue its head burst needs: CPU to the policy's entry
// ready level, IO to Waiting, EXIT to Exit. An empty sequence is refilled from
// the source first; if that fetch fails transiently the job stays where it is
// with PendingFetch set and is routed again on the next tick.
func (sim *Simulator) route(ctx context.Context, j *Job, now int64, reason string) {
	if len(j.Bursts) == 0 {
		remaining, err := sim.Source.BurstsRemaining(ctx, j.ID)
		if err != nil {
			logrus.Warnf("[tick %07d] bursts-remaining for job %s unavailable, retrying next tick: %v", now, j.ID, err)
			j.PendingFetch = true
			return
		}
		if !remaining {
			sim.complete(j, now)
			return
		}
		if !sim.refill(ctx, j, now) {
			return
		}
		if len(j.Bursts) == 0 {
			sim.complete(j, now)
			return
		}
	}
	j.PendingFetch = false

	switch j.Head().Kind {
	case BurstCPU:
		j.WaitTime = 0
		sim.moveTo(j, StateReady, sim.Policy.EntryLevel(j), now, reason)
	case BurstIO:
		sim.moveTo(j, StateWaiting, 0, now, reason)
	case BurstExit:
		sim.complete(j, now)
	}
}

// refill appends the source's next bursts to j. Returns false when nothing was
// appended because the call failed (PendingFetch is set) or the data was
// malformed (the job is terminated).
func (sim *Simulator) refill(ctx context.Context, j *Job, now int64) bool {
	bursts, err := sim.Source.NextBursts(ctx, j.ID)
	if err != nil {
		if errors.Is(err, ErrMalformedBurst) {
			sim.fail(j, now, err)
			return false
		}
		logrus.Warnf("[tick %07d] could not fetch next burst for job %s, retrying next tick: %v", now, j.ID, err)
		j.PendingFetch = true
		return false
	}
	for _, b := range bursts {
		if err := b.Validate(); err != nil {
			sim.fail(j, now, err)
			return false
		}
	}
	j.PendingFetch = false
	j.Bursts = append(j.Bursts, bursts...)
	return true
}

// complete routes j to Exit and records its turnaround exactly once.
// Returns false if the job had already been routed to Exit.
func (sim *Simulator) complete(j *Job, now int64) bool {
	if j.State == StateExit || !sim.Metrics.RecordCompletion(j.ID, now-j.ArrivalTime) {
		logrus.Warnf("[tick %07d] job %s already terminated, ignoring duplicate exit", now, j.ID)
		return false
	}
	sim.moveTo(j, StateExit, 0, now, trace.ReasonComplete)
	logrus.Infof("[tick %07d] job %s has completed all bursts and terminated", now, j.ID)
	return true
}

// fail terminates j because of unusable burst data without touching other jobs.
func (sim *Simulator) fail(j *Job, now int64, cause error) {
	if j.State == StateExit {
		return
	}
	logrus.Warnf("[tick %07d] job %s terminated: %v", now, j.ID, cause)
	j.Failed = true
	j.PendingFetch = false
	sim.Metrics.FailedJobs++
	sim.moveTo(j, StateExit, 0, now, trace.ReasonFailed)
}

func (sim *Simulator) moveTo(j *Job, to JobState, level int, now int64, reason string) {
	from := j.State
	sim.Queues.Move(j, to, level)
	j.QueueEntryTime = now
	sim.record(j, string(from), now, reason)
	logrus.Infof("[tick %07d] job %s %s -> %s (level %d, %s)", now, j.ID, from, to, j.Priority, reason)
}

func (sim *Simulator) record(j *Job, from string, now int64, reason string) {
	if sim.Trace == nil || !sim.Trace.Config.Enabled() {
		return
	}
	level := 0
	if j.State == StateReady {
		level = j.Priority
	}
	sim.Trace.RecordTransition(trace.TransitionRecord{
		JobID:  j.ID,
		Clock:  now,
		From:   from,
		To:     string(j.State),
		Level:  level,
		Reason: reason,
	})
}

// terminated evaluates the termination predicate at the end of a tick:
// every non-exit queue is empty and the source reports no jobs remaining.
// A failed JobsRemaining call counts as "jobs remain".
func (sim *Simulator) terminated(ctx context.Context, now int64) bool {
	if sim.Config.MaxTicks > 0 && now-sim.StartClock+1 >= sim.Config.MaxTicks {
		logrus.Warnf("[tick %07d] max ticks (%d) reached, stopping simulation", now, sim.Config.MaxTicks)
		return true
	}
	if sim.Queues.Active() || len(sim.missedArrivals) > 0 {
		return false
	}
	remaining, err := sim.Source.JobsRemaining(ctx)
	if err != nil {
		logrus.Warnf("[tick %07d] jobs-remaining unavailable: %v", now, err)
		return false
	}
	return !remaining
}
