package sim

import (
	"context"
	"errors"
)

var (
	// ErrSourceUnavailable marks a failed or unsuccessful call to the burst source.
	// The engine treats it as "no data this tick" and retries on the next tick.
	ErrSourceUnavailable = errors.New("burst source unavailable")

	// ErrMalformedBurst marks burst data missing a kind or duration.
	// The affected job is terminated; the simulation continues.
	ErrMalformedBurst = errors.New("malformed burst")
)

// Arrival is a job reported by the source at a given clock.
type Arrival struct {
	JobID    string
	Priority int // requested level, used by the priority-based policy
}

// BurstSource is the pull-based generator of jobs and bursts.
// Implementations normalize their wire format into []Burst before returning.
type BurstSource interface {
	// Arrivals returns the jobs arriving at clock.
	Arrivals(ctx context.Context, clock int64) ([]Arrival, error)
	// NextBursts returns the next burst(s) for a job. An empty slice means
	// the job's sequence is exhausted.
	NextBursts(ctx context.Context, jobID string) ([]Burst, error)
	// BurstsRemaining reports whether the source still holds bursts for jobID.
	BurstsRemaining(ctx context.Context, jobID string) (bool, error)
	// JobsRemaining reports whether more arrivals are still to come.
	JobsRemaining(ctx context.Context) (bool, error)
}
