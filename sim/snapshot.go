package sim

// Snapshot is the externally observable state after a full tick.
// It is built only once every queue transition of the tick has been applied.
type Snapshot struct {
	Clock   int64
	Policy  string
	New     []string
	Ready   [][]string // per level, index 0 = highest
	Running []string
	Waiting []string
	IO      []string
	Exit    []string
	Metrics MetricsSummary
	Done    bool // termination predicate held at the end of this tick
}

// SnapshotSink receives one snapshot per tick.
type SnapshotSink interface {
	Publish(snap *Snapshot)
}

// SinkFunc adapts a function to SnapshotSink.
type SinkFunc func(snap *Snapshot)

func (f SinkFunc) Publish(snap *Snapshot) { f(snap) }

func (qs *QueueSet) snapshot() *Snapshot {
	snap := &Snapshot{
		New:     qs.New.Items(),
		Ready:   make([][]string, len(qs.Ready)),
		Running: qs.Running.Items(),
		Waiting: qs.Waiting.Items(),
		IO:      qs.IO.Items(),
		Exit:    qs.Exit.Items(),
	}
	for i, q := range qs.Ready {
		snap.Ready[i] = q.Items()
	}
	return snap
}
