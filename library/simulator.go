package library

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/fwojciec/papershelf"
)

// Progress simulation defaults. The backend reports no upload progress, so
// progress is advanced on a timer towards MaxUploadProgress.
const (
	DefaultProgressInterval = 500 * time.Millisecond
	DefaultProgressDuration = 60 * time.Second
	DefaultProgressJitter   = 0.15
)

// ProgressFunc receives simulated progress for path.
// It returns false when the upload is no longer tracked, which stops the simulation.
type ProgressFunc func(path string, progress float64) bool

// Simulator advances synthetic upload progress on a fixed cadence.
type Simulator struct {
	// Interval between ticks.
	Interval time.Duration

	// Duration a fresh upload takes to reach MaxUploadProgress.
	Duration time.Duration

	// Jitter bounds the random adjustment added to each tick, in percent.
	Jitter float64

	// Rand returns a value in [0, 1). Defaults to math/rand/v2.
	Rand func() float64
}

// NewSimulator returns a Simulator with the default cadence.
func NewSimulator() *Simulator {
	return &Simulator{
		Interval: DefaultProgressInterval,
		Duration: DefaultProgressDuration,
		Jitter:   DefaultProgressJitter,
		Rand:     rand.Float64,
	}
}

// BaseIncrement returns the per-tick increment needed to go from progress
// from to MaxUploadProgress in the time left after elapsed.
func (s *Simulator) BaseIncrement(from float64, elapsed time.Duration) float64 {
	remaining := max(s.Duration-elapsed, s.Interval)
	ticks := float64(remaining) / float64(s.Interval)
	return max(papershelf.MaxUploadProgress-from, 0) / ticks
}

// Next returns the progress after one tick. The result never decreases and
// never exceeds MaxUploadProgress.
func (s *Simulator) Next(current, base float64) float64 {
	r := rand.Float64
	if s.Rand != nil {
		r = s.Rand
	}
	jitter := (r()*2 - 1) * s.Jitter
	return min(current+max(base+jitter, 0), papershelf.MaxUploadProgress)
}

// Start runs Run in a new goroutine.
func (s *Simulator) Start(ctx context.Context, path string, from float64, elapsed time.Duration, update ProgressFunc) {
	go s.Run(ctx, path, from, elapsed, update)
}

// Run reports progress for path every Interval until it reaches
// MaxUploadProgress, ctx is canceled, or update returns false.
func (s *Simulator) Run(ctx context.Context, path string, from float64, elapsed time.Duration, update ProgressFunc) {
	base := s.BaseIncrement(from, elapsed)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	progress := from
	for progress < papershelf.MaxUploadProgress {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// The entry may have been removed while waiting for the tick.
		if ctx.Err() != nil {
			return
		}

		progress = s.Next(progress, base)
		if !update(path, progress) {
			return
		}
	}
}
