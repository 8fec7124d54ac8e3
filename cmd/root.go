package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/markphelps/optional"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cpusched/cpusched/sim"
	"github.com/cpusched/cpusched/sim/report"
	"github.com/cpusched/cpusched/sim/source"
	"github.com/cpusched/cpusched/sim/trace"
)

const (
	sourceSynthetic = "synthetic"
	sourceHTTP      = "http"
)

var (
	// Scheduler flags
	policyName     string  // FCFS, RR, MLFQ or PB
	numCPUs        int     // Number of CPUs
	numIODevices   int     // Number of IO devices
	numLevels      int     // Number of ready levels (MLFQ, PB)
	timeQuantums   []int64 // RR: one value, MLFQ: one per level
	agingThreshold int64   // Ticks of waiting before promotion
	maxTicks       int64   // Horizon, 0 = until drained
	schedConfig    string  // Path to scheduler YAML

	// Job source flags
	seed           int64  // Seed for the synthetic generator and the job server
	clientID       string // Client identifier sent to the job server
	sourceKind     string // synthetic or http
	serverURL      string // Job server base URL
	workloadConfig string // Path to generator YAML

	// Output flags
	logLevel   string // Log verbosity level
	traceLevel string // Transition trace verbosity
	stepMode   bool   // Wait for Enter after every tick
	quiet      bool   // Only print the final summary
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "cpusched",
	Short: "Tick-driven CPU scheduling simulator",
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduling simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s (valid: none, transitions)", traceLevel)
		}

		cfg, err := buildSchedulerConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		src, session, err := buildSource(ctx, cmd)
		if err != nil {
			logrus.Fatalf("Unable to initialize job source: %v", err)
		}
		if cfg.Policy == sim.PolicyRR && len(cfg.TimeQuantums) == 0 && session.TimeSlice > 0 {
			cfg.TimeQuantums = []int64{session.TimeSlice}
		}
		cfg.ApplyDefaults()

		s, err := sim.NewSimulator(cfg, src, session.StartClock)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if trace.TraceLevel(traceLevel) == trace.TraceLevelTransitions {
			s.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelTransitions})
		}

		logrus.Infof("Starting %s simulation: session=%s, cpus=%d, ios=%d, levels=%d, quantums=%v, aging=%d",
			cfg.Policy, session.ID, cfg.NumCPUs, cfg.NumIODevices, s.Policy.Levels(), cfg.TimeQuantums, cfg.AgingThreshold)

		sink := report.NewTableSink(os.Stdout)
		sink.Quiet = quiet
		var out sim.SnapshotSink = sink
		if stepMode {
			out = newStepSink(sink, os.Stdin, os.Stdout)
		}

		startTime := time.Now()
		if err := s.Run(ctx, out); err != nil {
			logrus.Warnf("Simulation interrupted at clock %d: %v", s.Clock, err)
		}
		summary := s.Metrics.Summary(s.Clock)
		summary.Print(os.Stdout)
		if s.Trace != nil {
			report.WriteTraceSummary(os.Stdout, trace.Summarize(s.Trace))
		}
		logrus.Infof("Simulation complete in %s (%d ticks).", time.Since(startTime), s.StepCount)
	},
}

// buildSchedulerConfig layers the scheduler YAML (if any) under the CLI flags.
// With a YAML file, a flag only wins when it was set explicitly.
// Quantum defaults are left to the caller.
func buildSchedulerConfig(cmd *cobra.Command) (sim.SchedulerConfig, error) {
	cfg := sim.SchedulerConfig{
		NumCPUs:           sim.DefaultCPUs,
		NumIODevices:      sim.DefaultIODevices,
		NumPriorityLevels: sim.DefaultPriorityLevels,
		AgingThreshold:    sim.DefaultAgingThreshold,
	}
	fromFile := schedConfig != ""
	if fromFile {
		loaded, err := sim.LoadSchedulerConfig(schedConfig)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}
	override := func(name string) bool {
		return !fromFile || cmd.Flags().Changed(name)
	}
	if override("sched") || cfg.Policy == "" {
		cfg.Policy = sim.NormalizePolicyName(policyName)
	}
	if override("cpus") {
		cfg.NumCPUs = numCPUs
	}
	if override("ios") {
		cfg.NumIODevices = numIODevices
	}
	if override("queues") {
		cfg.NumPriorityLevels = numLevels
	}
	if override("aging") {
		cfg.AgingThreshold = agingThreshold
	}
	if override("max-ticks") {
		cfg.MaxTicks = maxTicks
	}
	if cmd.Flags().Changed("quantums") {
		cfg.TimeQuantums = timeQuantums
	}
	if !sim.IsValidPolicy(cfg.Policy) {
		return cfg, fmt.Errorf("unknown scheduler %q (valid: FCFS, RR, MLFQ, PB)", cfg.Policy)
	}
	return cfg, nil
}

// seedOption returns the seed only when --seed was given, so an unseeded run
// lets the generator or the job server pick one.
func seedOption(cmd *cobra.Command) optional.Int64 {
	if cmd.Flags().Changed("seed") {
		return optional.NewInt64(seed)
	}
	return optional.Int64{}
}

// buildSource creates the job source selected by --source and opens its session.
func buildSource(ctx context.Context, cmd *cobra.Command) (sim.BurstSource, source.Session, error) {
	gen := source.DefaultGeneratorConfig(clientID)
	if workloadConfig != "" {
		loaded, err := source.LoadGeneratorConfig(workloadConfig, clientID)
		if err != nil {
			return nil, source.Session{}, err
		}
		gen = *loaded
	}
	if cmd.Flags().Changed("client-id") || gen.ClientID == "" {
		gen.ClientID = clientID
	}

	switch sourceKind {
	case sourceSynthetic:
		syn, err := source.NewSynthetic(gen, seedOption(cmd))
		if err != nil {
			return nil, source.Session{}, err
		}
		return syn, syn.Session(), nil
	case sourceHTTP:
		if serverURL == "" {
			return nil, source.Session{}, fmt.Errorf("--server is required with --source=http")
		}
		client := source.NewHTTPClient(serverURL, gen.ClientID)
		session, err := client.Init(ctx, gen, seedOption(cmd))
		if err != nil {
			return nil, source.Session{}, err
		}
		return client, session, nil
	default:
		return nil, source.Session{}, fmt.Errorf("unknown source %q (valid: %s, %s)", sourceKind, sourceSynthetic, sourceHTTP)
	}
}

// stepSink pauses after every published tick until a line is read from in.
// End of input switches back to continuous mode.
type stepSink struct {
	next   sim.SnapshotSink
	in     *bufio.Reader
	prompt io.Writer
	eof    bool
}

func newStepSink(next sim.SnapshotSink, in io.Reader, prompt io.Writer) *stepSink {
	return &stepSink{next: next, in: bufio.NewReader(in), prompt: prompt}
}

func (s *stepSink) Publish(snap *sim.Snapshot) {
	s.next.Publish(snap)
	if s.eof || snap.Done {
		return
	}
	_, _ = fmt.Fprint(s.prompt, "Press Enter for the next tick...")
	if _, err := s.in.ReadString('\n'); err != nil {
		s.eof = true
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerRunFlags binds the run flags to c.
func registerRunFlags(c *cobra.Command) {
	c.Flags().StringVar(&policyName, "sched", sim.PolicyRR, "Scheduling policy (FCFS, RR, MLFQ, PB)")
	c.Flags().IntVar(&numCPUs, "cpus", sim.DefaultCPUs, "Number of CPUs (1-4)")
	c.Flags().IntVar(&numIODevices, "ios", sim.DefaultIODevices, "Number of IO devices (1-4)")
	c.Flags().IntVar(&numLevels, "queues", sim.DefaultPriorityLevels, "Number of priority queues for MLFQ and PB (1-5)")
	c.Flags().Int64SliceVar(&timeQuantums, "quantums", nil, "Time quantum(s): one for RR (defaults to the session time slice), one per queue for MLFQ")
	c.Flags().Int64Var(&agingThreshold, "aging", sim.DefaultAgingThreshold, "Ticks a job waits in a lower ready queue before promotion")
	c.Flags().Int64Var(&maxTicks, "max-ticks", 0, "Stop after this many ticks (0 = until all jobs finish)")
	c.Flags().StringVar(&schedConfig, "config", "", "Path to scheduler YAML config (flags override its values)")

	c.Flags().Int64Var(&seed, "seed", 0, "Seed for job generation (unset = random)")
	c.Flags().StringVar(&clientID, "client-id", "cpusched", "Client identifier for the job server")
	c.Flags().StringVar(&sourceKind, "source", sourceSynthetic, "Job source (synthetic, http)")
	c.Flags().StringVar(&serverURL, "server", "", "Job server base URL for --source=http")
	c.Flags().StringVar(&workloadConfig, "workload", "", "Path to job generator YAML config")

	c.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	c.Flags().StringVar(&traceLevel, "trace-level", "none", "Transition trace level (none, transitions)")
	c.Flags().BoolVar(&stepMode, "step", false, "Wait for Enter after every tick")
	c.Flags().BoolVar(&quiet, "quiet", false, "Only print the final summary")
}

// init sets up CLI flags and subcommands
func init() {
	registerRunFlags(runCmd)

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
