package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cpusched/cpusched/sim"
	"github.com/cpusched/cpusched/sim/trace"
)

func sampleSnapshot() *sim.Snapshot {
	return &sim.Snapshot{
		Clock:   12,
		Policy:  sim.PolicyMLFQ,
		New:     []string{"7"},
		Ready:   [][]string{{"3", "5"}, {}, {"1"}},
		Running: []string{"2", "4"},
		Waiting: nil,
		IO:      []string{"6"},
		Exit:    []string{"0"},
		Metrics: sim.MetricsSummary{CompletedJobs: 1, Throughput: 0.0833, CPUUtilizationPct: 91.5},
	}
}

func TestQueueRows_ListsEveryQueueInFIFOOrder(t *testing.T) {
	rows := QueueRows(sampleSnapshot())

	want := [][]string{
		{"New", "7"},
		{"Ready 0", "3 5"},
		{"Ready 1", "-"},
		{"Ready 2", "1"},
		{"Running", "2 4"},
		{"Waiting", "-"},
		{"IO", "6"},
		{"Exit", "0"},
	}
	assert.Equal(t, want, rows)
}

func TestQueueRows_SingleLevelIsUnnumbered(t *testing.T) {
	snap := &sim.Snapshot{Ready: [][]string{{"a"}}}
	rows := QueueRows(snap)
	assert.Equal(t, []string{"Ready", "a"}, rows[1])
}

func TestTableSink_WritesQueuesAndMetrics(t *testing.T) {
	// GIVEN a table sink
	var buf bytes.Buffer
	sink := NewTableSink(&buf)

	// WHEN a snapshot is published
	sink.Publish(sampleSnapshot())

	// THEN both tables are rendered and the snapshot is retained
	out := buf.String()
	assert.Contains(t, out, "Clock 12 (MLFQ)")
	assert.Contains(t, out, "Running")
	assert.Contains(t, out, "QUEUE")
	assert.Contains(t, out, "2 4")
	assert.Contains(t, out, "91.50%")
	assert.Equal(t, int64(12), sink.Last.Clock)
}

func TestTableSink_Quiet_KeepsLastOnly(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTableSink(&buf)
	sink.Quiet = true
	sink.Publish(sampleSnapshot())
	assert.Empty(t, buf.String())
	assert.NotNil(t, sink.Last)
}

func TestWriteTraceSummary_CountsByReason(t *testing.T) {
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelTransitions})
	st.RecordTransition(trace.TransitionRecord{JobID: "a", Reason: trace.ReasonDispatch})
	st.RecordTransition(trace.TransitionRecord{JobID: "a", Reason: trace.ReasonDispatch})
	st.RecordTransition(trace.TransitionRecord{JobID: "b", Reason: trace.ReasonComplete})
	var buf bytes.Buffer

	WriteTraceSummary(&buf, trace.Summarize(st))

	out := buf.String()
	assert.Contains(t, out, "Trace Summary")
	assert.True(t, strings.Contains(out, "dispatch") && strings.Contains(out, "complete"))
	assert.NotContains(t, out, "promote")

	buf.Reset()
	WriteTraceSummary(&buf, nil)
	assert.Empty(t, buf.String())
}
