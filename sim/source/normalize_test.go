package source

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpusched/cpusched/sim"
)

func TestNormalizeBursts_AcceptedShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []sim.Burst
	}{
		{"single object", `{"burst_type":"CPU","duration":12}`, []sim.Burst{{Kind: sim.BurstCPU, Remaining: 12}}},
		{"list", `[{"burst_type":"io","duration":3},{"burst_type":"EXIT"}]`,
			[]sim.Burst{{Kind: sim.BurstIO, Remaining: 3}, {Kind: sim.BurstExit}}},
		{"integral float", `{"burst_type":"CPU","duration":4.0}`, []sim.Burst{{Kind: sim.BurstCPU, Remaining: 4}}},
		{"exit with null duration", `{"burst_type":"EXIT","duration":null}`, []sim.Burst{{Kind: sim.BurstExit}}},
		{"null", `null`, []sim.Burst{}},
		{"empty list", `[]`, []sim.Burst{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeBursts(json.RawMessage(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeBursts_MalformedRejected(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing type", `{"duration":3}`},
		{"missing duration", `{"burst_type":"CPU"}`},
		{"zero duration", `{"burst_type":"IO","duration":0}`},
		{"negative duration", `{"burst_type":"CPU","duration":-1}`},
		{"fractional duration", `{"burst_type":"CPU","duration":2.5}`},
		{"unknown type", `{"burst_type":"GPU","duration":2}`},
		{"one bad entry in list", `[{"burst_type":"CPU","duration":2},{"burst_type":"IO"}]`},
		{"scalar payload", `42`},
		{"wrong duration type", `{"burst_type":"CPU","duration":"5"}`},
		{"duration overflows int64", `{"burst_type":"CPU","duration":1e30}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NormalizeBursts(json.RawMessage(tc.raw))
			assert.ErrorIs(t, err, sim.ErrMalformedBurst)
		})
	}
}

func TestNormalizeBursts_HugeDuration_ReportsValue(t *testing.T) {
	_, err := NormalizeBursts(json.RawMessage(`{"burst_type":"IO","duration":1e30}`))
	require.ErrorIs(t, err, sim.ErrMalformedBurst)
	assert.Contains(t, err.Error(), "1e+30")
	assert.NotContains(t, err.Error(), "-9223372036854775808")
}
