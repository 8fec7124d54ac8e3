// Package report renders per-tick snapshots and end-of-run summaries as tables.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/cpusched/cpusched/sim"
	"github.com/cpusched/cpusched/sim/trace"
)

// TableSink writes every published snapshot as a queue table followed by a
// metrics table. It implements sim.SnapshotSink.
type TableSink struct {
	w io.Writer
	// Quiet suppresses the per-tick tables; only Last is kept.
	Quiet bool
	// Last is the most recent snapshot received.
	Last *sim.Snapshot
}

// NewTableSink creates a sink writing to w.
func NewTableSink(w io.Writer) *TableSink {
	return &TableSink{w: w}
}

// Publish implements sim.SnapshotSink.
func (t *TableSink) Publish(snap *sim.Snapshot) {
	t.Last = snap
	if t.Quiet {
		return
	}
	WriteSnapshot(t.w, snap)
}

// WriteSnapshot renders one tick.
func WriteSnapshot(w io.Writer, snap *sim.Snapshot) {
	_, _ = fmt.Fprintf(w, "Clock %d (%s)\n", snap.Clock, snap.Policy)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Queue", "Jobs"})
	table.SetAutoWrapText(false)
	table.AppendBulk(QueueRows(snap))
	table.Render()
	writeMetrics(w, snap.Metrics)
}

// QueueRows lists every queue with its members in FIFO order.
func QueueRows(snap *sim.Snapshot) [][]string {
	rows := [][]string{{"New", joinIDs(snap.New)}}
	for level, ids := range snap.Ready {
		name := "Ready"
		if len(snap.Ready) > 1 {
			name = "Ready " + strconv.Itoa(level)
		}
		rows = append(rows, []string{name, joinIDs(ids)})
	}
	return append(rows,
		[]string{"Running", joinIDs(snap.Running)},
		[]string{"Waiting", joinIDs(snap.Waiting)},
		[]string{"IO", joinIDs(snap.IO)},
		[]string{"Exit", joinIDs(snap.Exit)},
	)
}

func joinIDs(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, " ")
}

func writeMetrics(w io.Writer, m sim.MetricsSummary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Completed", "Throughput", "Avg Wait", "Avg Turnaround", "CPU Util", "Fairness"})
	table.Append([]string{
		strconv.Itoa(m.CompletedJobs),
		fmt.Sprintf("%.4f", m.Throughput),
		fmt.Sprintf("%.2f", m.AvgWait),
		fmt.Sprintf("%.2f", m.AvgTurnaround),
		fmt.Sprintf("%.2f%%", m.CPUUtilizationPct),
		fmt.Sprintf("%.2f", m.Fairness),
	})
	table.Render()
}

// WriteTraceSummary renders transition counts grouped by reason.
func WriteTraceSummary(w io.Writer, s *trace.TraceSummary) {
	if s == nil {
		return
	}
	_, _ = fmt.Fprintln(w, "=== Trace Summary ===")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Reason", "Count"})
	for _, reason := range trace.Reasons {
		if n := s.ReasonCounts[reason]; n > 0 {
			table.Append([]string{reason, strconv.Itoa(n)})
		}
	}
	table.SetFooter([]string{"Jobs", strconv.Itoa(s.UniqueJobs)})
	table.Render()
}
