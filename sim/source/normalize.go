package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/cpusched/cpusched/sim"
)

// wireBurst is one burst as the job server encodes it.
type wireBurst struct {
	BurstType *string  `json:"burst_type"`
	Duration  *float64 `json:"duration"`
}

func (w wireBurst) toBurst() (sim.Burst, error) {
	if w.BurstType == nil {
		return sim.Burst{}, fmt.Errorf("%w: missing burst_type", sim.ErrMalformedBurst)
	}
	kind, err := sim.ParseBurstKind(*w.BurstType)
	if err != nil {
		return sim.Burst{}, err
	}
	if kind == sim.BurstExit {
		return sim.Burst{Kind: kind}, nil
	}
	if w.Duration == nil {
		return sim.Burst{}, fmt.Errorf("%w: missing duration for %s burst", sim.ErrMalformedBurst, kind)
	}
	if math.IsNaN(*w.Duration) || *w.Duration != math.Trunc(*w.Duration) {
		return sim.Burst{}, fmt.Errorf("%w: non-integer duration %v", sim.ErrMalformedBurst, *w.Duration)
	}
	if *w.Duration > math.MaxInt64 || *w.Duration < math.MinInt64 {
		return sim.Burst{}, fmt.Errorf("%w: duration %v out of range", sim.ErrMalformedBurst, *w.Duration)
	}
	b := sim.Burst{Kind: kind, Remaining: int64(*w.Duration)}
	if err := b.Validate(); err != nil {
		return sim.Burst{}, err
	}
	return b, nil
}

// NormalizeBursts decodes a burst payload that may be a single object, a list
// of objects, or null, into one []sim.Burst. Any malformed entry rejects the
// whole payload with sim.ErrMalformedBurst.
func NormalizeBursts(raw json.RawMessage) ([]sim.Burst, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []sim.Burst{}, nil
	}
	var wires []wireBurst
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &wires); err != nil {
			return nil, fmt.Errorf("%w: %v", sim.ErrMalformedBurst, err)
		}
	case '{':
		var w wireBurst
		if err := json.Unmarshal(trimmed, &w); err != nil {
			return nil, fmt.Errorf("%w: %v", sim.ErrMalformedBurst, err)
		}
		wires = []wireBurst{w}
	default:
		return nil, fmt.Errorf("%w: unexpected burst payload %s", sim.ErrMalformedBurst, string(trimmed))
	}
	bursts := make([]sim.Burst, 0, len(wires))
	for _, w := range wires {
		b, err := w.toBurst()
		if err != nil {
			return nil, err
		}
		bursts = append(bursts, b)
	}
	return bursts, nil
}
