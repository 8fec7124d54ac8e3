package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchedulerConfig_Defaults(t *testing.T) {
	tests := []struct {
		policy    string
		quantums  []int64
		wantLevel int
	}{
		{"rr", []int64{DefaultTimeQuantum}, 1},
		{"mlfq", []int64{5, 5, 5}, DefaultPriorityLevels},
		{"fcfs", []int64{DefaultTimeQuantum}, 1},
		{"pb", []int64{DefaultTimeQuantum}, DefaultPriorityLevels},
	}
	for _, tc := range tests {
		t.Run(tc.policy, func(t *testing.T) {
			cfg := NewSchedulerConfig(tc.policy)
			require.NoError(t, cfg.Validate())
			assert.Equal(t, NormalizePolicyName(tc.policy), cfg.Policy)
			assert.Equal(t, tc.quantums, cfg.TimeQuantums)
			assert.Equal(t, tc.wantLevel, cfg.Levels())
			assert.Equal(t, int64(DefaultAgingThreshold), cfg.AgingThreshold)
		})
	}
}

func TestSchedulerConfig_Validate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SchedulerConfig)
	}{
		{"unknown policy", func(c *SchedulerConfig) { c.Policy = "SJF" }},
		{"zero cpus", func(c *SchedulerConfig) { c.NumCPUs = 0 }},
		{"too many cpus", func(c *SchedulerConfig) { c.NumCPUs = 5 }},
		{"zero io devices", func(c *SchedulerConfig) { c.NumIODevices = 0 }},
		{"too many io devices", func(c *SchedulerConfig) { c.NumIODevices = 5 }},
		{"zero aging", func(c *SchedulerConfig) { c.AgingThreshold = 0 }},
		{"negative max ticks", func(c *SchedulerConfig) { c.MaxTicks = -1 }},
		{"too many levels", func(c *SchedulerConfig) { c.NumPriorityLevels = 6; c.TimeQuantums = make([]int64, 6) }},
		{"quantum count mismatch", func(c *SchedulerConfig) { c.TimeQuantums = []int64{2, 4} }},
		{"non-positive quantum", func(c *SchedulerConfig) { c.TimeQuantums = []int64{5, 0, 5} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewSchedulerConfig(PolicyMLFQ)
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSchedulerConfig_Validate_RRTakesOneQuantum(t *testing.T) {
	cfg := NewSchedulerConfig(PolicyRR)
	cfg.TimeQuantums = []int64{3, 4}
	assert.Error(t, cfg.Validate())
}

func TestIsValidPolicy_CaseInsensitive(t *testing.T) {
	for _, name := range []string{"rr", "RR", " mlfq ", "Fcfs", "pb"} {
		assert.True(t, IsValidPolicy(name), name)
	}
	assert.False(t, IsValidPolicy("sjf"))
	assert.False(t, IsValidPolicy(""))
}

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sched.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSchedulerConfig_ParsesFields(t *testing.T) {
	path := writeTempYAML(t, `
policy: mlfq
cpus: 1
ios: 3
priority_levels: 2
aging: 5
time_quantums: [2, 4]
max_ticks: 100
`)
	cfg, err := LoadSchedulerConfig(path)
	require.NoError(t, err)
	assert.Equal(t, PolicyMLFQ, cfg.Policy)
	assert.Equal(t, 1, cfg.NumCPUs)
	assert.Equal(t, 3, cfg.NumIODevices)
	assert.Equal(t, 2, cfg.NumPriorityLevels)
	assert.Equal(t, int64(5), cfg.AgingThreshold)
	assert.Equal(t, []int64{2, 4}, cfg.TimeQuantums)
	assert.Equal(t, int64(100), cfg.MaxTicks)
	assert.NoError(t, cfg.Validate())
}

func TestLoadSchedulerConfig_UnknownKey_ReturnsError(t *testing.T) {
	path := writeTempYAML(t, "policy: RR\ncpu: 2\n")
	_, err := LoadSchedulerConfig(path)
	assert.Error(t, err, "typo'd key must be rejected")
}

func TestLoadSchedulerConfig_EmptyFile_KeepsDefaults(t *testing.T) {
	cfg, err := LoadSchedulerConfig(writeTempYAML(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultCPUs, cfg.NumCPUs)
	assert.Equal(t, int64(DefaultAgingThreshold), cfg.AgingThreshold)
	assert.Empty(t, cfg.TimeQuantums, "quantum defaults are applied by the caller")
}

func TestLoadSchedulerConfig_ExplicitZeroAging_FailsValidation(t *testing.T) {
	// GIVEN a scheduler file that sets aging to 0
	cfg, err := LoadSchedulerConfig(writeTempYAML(t, "policy: mlfq\naging: 0\n"))
	require.NoError(t, err)

	// WHEN defaults are applied
	cfg.ApplyDefaults()

	// THEN the zero survives and validation rejects it
	assert.Equal(t, int64(0), cfg.AgingThreshold)
	assert.Error(t, cfg.Validate())
}

func TestLoadSchedulerConfig_MissingFile_ReturnsError(t *testing.T) {
	_, err := LoadSchedulerConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
