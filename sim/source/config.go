package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// GeneratorConfig describes the synthetic job stream. The same document is
// posted to the job server's /init endpoint, so the JSON keys follow its API.
type GeneratorConfig struct {
	ClientID            string  `json:"client_id" yaml:"client_id"`
	MinJobs             int     `json:"min_jobs" yaml:"min_jobs"`
	MaxJobs             int     `json:"max_jobs" yaml:"max_jobs"`
	MinBursts           int     `json:"min_bursts" yaml:"min_bursts"`
	MaxBursts           int     `json:"max_bursts" yaml:"max_bursts"`
	MinJobInterval      int64   `json:"min_job_interval" yaml:"min_job_interval"`
	MaxJobInterval      int64   `json:"max_job_interval" yaml:"max_job_interval"`
	BurstTypeRatio      float64 `json:"burst_type_ratio" yaml:"burst_type_ratio"` // probability a middle burst is CPU
	MinCPUBurstInterval int64   `json:"min_cpu_burst_interval" yaml:"min_cpu_burst_interval"`
	MaxCPUBurstInterval int64   `json:"max_cpu_burst_interval" yaml:"max_cpu_burst_interval"`
	MinIOBurstInterval  int64   `json:"min_io_burst_interval" yaml:"min_io_burst_interval"`
	MaxIOBurstInterval  int64   `json:"max_io_burst_interval" yaml:"max_io_burst_interval"`
	MinTSInterval       int64   `json:"min_ts_interval" yaml:"min_ts_interval"`
	MaxTSInterval       int64   `json:"max_ts_interval" yaml:"max_ts_interval"`
	PriorityLevels      []int   `json:"priority_levels" yaml:"priority_levels"`
	StartClock          int64   `json:"-" yaml:"start_clock"` // synthetic source only
}

// DefaultGeneratorConfig returns the stock workload: ten jobs of five bursts,
// long CPU bursts, short IO bursts, three priority levels.
func DefaultGeneratorConfig(clientID string) GeneratorConfig {
	return GeneratorConfig{
		ClientID:            clientID,
		MinJobs:             10,
		MaxJobs:             10,
		MinBursts:           5,
		MaxBursts:           5,
		MinJobInterval:      10,
		MaxJobInterval:      12,
		BurstTypeRatio:      0.8,
		MinCPUBurstInterval: 40,
		MaxCPUBurstInterval: 45,
		MinIOBurstInterval:  2,
		MaxIOBurstInterval:  4,
		MinTSInterval:       5,
		MaxTSInterval:       10,
		PriorityLevels:      []int{3},
	}
}

// Levels returns the number of priority levels jobs are drawn from.
func (c GeneratorConfig) Levels() int {
	if len(c.PriorityLevels) == 0 || c.PriorityLevels[0] < 1 {
		return 1
	}
	return c.PriorityLevels[0]
}

// Validate checks ranges before any job is generated.
func (c GeneratorConfig) Validate() error {
	type span struct {
		name   string
		lo, hi int64
		minLo  int64
	}
	spans := []span{
		{"jobs", int64(c.MinJobs), int64(c.MaxJobs), 0},
		{"bursts", int64(c.MinBursts), int64(c.MaxBursts), 1},
		{"job_interval", c.MinJobInterval, c.MaxJobInterval, 0},
		{"cpu_burst_interval", c.MinCPUBurstInterval, c.MaxCPUBurstInterval, 1},
		{"io_burst_interval", c.MinIOBurstInterval, c.MaxIOBurstInterval, 1},
		{"ts_interval", c.MinTSInterval, c.MaxTSInterval, 1},
	}
	for _, s := range spans {
		if s.lo < s.minLo {
			return fmt.Errorf("min_%s must be >= %d, got %d", s.name, s.minLo, s.lo)
		}
		if s.hi < s.lo {
			return fmt.Errorf("max_%s (%d) must be >= min_%s (%d)", s.name, s.hi, s.name, s.lo)
		}
	}
	if c.BurstTypeRatio < 0 || c.BurstTypeRatio > 1 {
		return fmt.Errorf("burst_type_ratio must be in [0,1], got %v", c.BurstTypeRatio)
	}
	return nil
}

// LoadGeneratorConfig reads a YAML generator configuration, starting from the
// defaults so a file only needs the keys it changes. Unknown keys are rejected.
func LoadGeneratorConfig(path, clientID string) (*GeneratorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading generator config: %w", err)
	}
	cfg := DefaultGeneratorConfig(clientID)
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing generator config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generator config: %w", err)
	}
	return &cfg, nil
}
