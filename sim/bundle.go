package sim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	PolicyFCFS = "FCFS"
	PolicyRR   = "RR"
	PolicyMLFQ = "MLFQ"
	PolicyPB   = "PB"
)

// ValidPolicies is the set of recognized scheduling policy names.
// Shared by Validate() and NewPolicy() to avoid duplication.
var ValidPolicies = map[string]bool{PolicyFCFS: true, PolicyRR: true, PolicyMLFQ: true, PolicyPB: true}

// NormalizePolicyName upper-cases a policy name so "rr" and "RR" select the same policy.
func NormalizePolicyName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// IsValidPolicy returns true if name (after normalization) is a recognized policy.
func IsValidPolicy(name string) bool {
	return ValidPolicies[NormalizePolicyName(name)]
}

// LoadSchedulerConfig reads a YAML scheduler configuration file.
// Unknown keys are rejected so typos cannot silently fall back to defaults.
// Defaults and validation are left to the caller so flags can still override,
// and an RR config without time_quantums can take the session's time slice.
func LoadSchedulerConfig(path string) (*SchedulerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scheduler config: %w", err)
	}
	cfg := SchedulerConfig{
		NumCPUs:           DefaultCPUs,
		NumIODevices:      DefaultIODevices,
		NumPriorityLevels: DefaultPriorityLevels,
		AgingThreshold:    DefaultAgingThreshold,
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing scheduler config: %w", err)
	}
	cfg.Policy = NormalizePolicyName(cfg.Policy)
	return &cfg, nil
}
