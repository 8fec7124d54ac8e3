package sim

import (
	"fmt"
	"strings"
)

// BurstKind identifies what resource a burst needs.
type BurstKind string

const (
	BurstCPU  BurstKind = "CPU"
	BurstIO   BurstKind = "IO"
	BurstExit BurstKind = "EXIT"
)

// ParseBurstKind maps a wire burst type onto a BurstKind.
// Matching is case-insensitive; unknown kinds wrap ErrMalformedBurst.
func ParseBurstKind(s string) (BurstKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CPU":
		return BurstCPU, nil
	case "IO":
		return BurstIO, nil
	case "EXIT":
		return BurstExit, nil
	default:
		return "", fmt.Errorf("%w: unknown burst type %q", ErrMalformedBurst, s)
	}
}

// Burst is a contiguous span of CPU or I/O demand.
// Remaining is decremented by the engine while the owning job is Running or in IO.
type Burst struct {
	Kind      BurstKind
	Remaining int64
}

// Validate rejects bursts the engine cannot execute.
// EXIT bursts carry no duration; CPU and IO bursts need a positive one.
func (b Burst) Validate() error {
	switch b.Kind {
	case BurstExit:
		return nil
	case BurstCPU, BurstIO:
		if b.Remaining <= 0 {
			return fmt.Errorf("%w: %s burst with duration %d", ErrMalformedBurst, b.Kind, b.Remaining)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown burst kind %q", ErrMalformedBurst, b.Kind)
	}
}

func (b Burst) String() string {
	if b.Kind == BurstExit {
		return string(BurstExit)
	}
	return fmt.Sprintf("%s:%d", b.Kind, b.Remaining)
}
