package sim

import (
	"fmt"
)

const (
	DefaultAgingThreshold = 10
	DefaultTimeQuantum    = 5
	DefaultCPUs           = 2
	DefaultIODevices      = 2
	DefaultPriorityLevels = 3

	MaxCPUs           = 4
	MaxIODevices      = 4
	MaxPriorityLevels = 5
)

// SchedulerConfig groups everything the engine needs to pick and size a policy.
type SchedulerConfig struct {
	Policy            string  `yaml:"policy"`          // FCFS, RR, MLFQ or PB
	NumCPUs           int     `yaml:"cpus"`            // 1-4
	NumIODevices      int     `yaml:"ios"`             // 1-4
	NumPriorityLevels int     `yaml:"priority_levels"` // 1-5, MLFQ and PB only
	AgingThreshold    int64   `yaml:"aging"`           // ticks of waiting before promotion
	TimeQuantums      []int64 `yaml:"time_quantums"`   // one per level for MLFQ, one global for RR
	MaxTicks          int64   `yaml:"max_ticks"`       // 0 = run until the source is drained
}

// NewSchedulerConfig returns a config with the documented defaults for the named policy.
func NewSchedulerConfig(policy string) SchedulerConfig {
	cfg := SchedulerConfig{
		Policy:            NormalizePolicyName(policy),
		NumCPUs:           DefaultCPUs,
		NumIODevices:      DefaultIODevices,
		NumPriorityLevels: DefaultPriorityLevels,
		AgingThreshold:    DefaultAgingThreshold,
	}
	cfg.ApplyDefaults()
	return cfg
}

// Levels returns the number of ready queues the policy uses.
func (c SchedulerConfig) Levels() int {
	switch NormalizePolicyName(c.Policy) {
	case PolicyMLFQ, PolicyPB:
		return c.NumPriorityLevels
	default:
		return 1
	}
}

// ApplyDefaults fills unset quantums (5 ticks per level). The aging threshold
// is seeded by the constructors and loaders, so an explicit 0 is left for
// Validate to reject.
func (c *SchedulerConfig) ApplyDefaults() {
	c.Policy = NormalizePolicyName(c.Policy)
	if len(c.TimeQuantums) == 0 {
		n := 1
		if c.Policy == PolicyMLFQ {
			n = c.NumPriorityLevels
		}
		c.TimeQuantums = make([]int64, max(n, 0))
		for i := range c.TimeQuantums {
			c.TimeQuantums[i] = DefaultTimeQuantum
		}
	}
}

// Validate checks the configuration before the simulation loop starts.
func (c SchedulerConfig) Validate() error {
	name := NormalizePolicyName(c.Policy)
	if !IsValidPolicy(name) {
		return fmt.Errorf("unknown policy %q", c.Policy)
	}
	if c.NumCPUs < 1 || c.NumCPUs > MaxCPUs {
		return fmt.Errorf("cpus must be between 1 and %d, got %d", MaxCPUs, c.NumCPUs)
	}
	if c.NumIODevices < 1 || c.NumIODevices > MaxIODevices {
		return fmt.Errorf("ios must be between 1 and %d, got %d", MaxIODevices, c.NumIODevices)
	}
	if c.AgingThreshold <= 0 {
		return fmt.Errorf("aging threshold must be a positive integer, got %d", c.AgingThreshold)
	}
	if c.MaxTicks < 0 {
		return fmt.Errorf("max_ticks must be non-negative, got %d", c.MaxTicks)
	}
	switch name {
	case PolicyMLFQ, PolicyPB:
		if c.NumPriorityLevels < 1 || c.NumPriorityLevels > MaxPriorityLevels {
			return fmt.Errorf("priority levels must be between 1 and %d, got %d", MaxPriorityLevels, c.NumPriorityLevels)
		}
	}
	switch name {
	case PolicyMLFQ:
		if len(c.TimeQuantums) != c.NumPriorityLevels {
			return fmt.Errorf("time quantums must have exactly %d values to match the number of priority queues, got %d",
				c.NumPriorityLevels, len(c.TimeQuantums))
		}
	case PolicyRR:
		if len(c.TimeQuantums) != 1 {
			return fmt.Errorf("round robin takes exactly one time quantum, got %d", len(c.TimeQuantums))
		}
	}
	for i, q := range c.TimeQuantums {
		if q <= 0 {
			return fmt.Errorf("time quantum %d must be a positive integer, got %d", i, q)
		}
	}
	return nil
}
