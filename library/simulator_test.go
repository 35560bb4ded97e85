package library_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/papershelf"
	"github.com/fwojciec/papershelf/library"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastSimulator(r func() float64) *library.Simulator {
	return &library.Simulator{
		Interval: time.Millisecond,
		Duration: 20 * time.Millisecond,
		Jitter:   library.DefaultProgressJitter,
		Rand:     r,
	}
}

func TestSimulator_BaseIncrement(t *testing.T) {
	t.Parallel()

	s := library.NewSimulator()

	t.Run("fresh upload reaches the ceiling over the full duration", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 0.7917, s.BaseIncrement(0, 0), 0.001)
	})

	t.Run("resumed upload is pro-rated over the time left", func(t *testing.T) {
		t.Parallel()
		// 30s left is 60 ticks to cover the remaining 45 points.
		assert.InDelta(t, 0.75, s.BaseIncrement(50, 30*time.Second), 0.001)
	})

	t.Run("overdue upload finishes within one tick", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 15, s.BaseIncrement(80, 2*time.Minute), 0.001)
	})

	t.Run("no increment past the ceiling", func(t *testing.T) {
		t.Parallel()
		assert.Zero(t, s.BaseIncrement(papershelf.MaxUploadProgress, 0))
	})
}

func TestSimulator_Next(t *testing.T) {
	t.Parallel()

	t.Run("applies bounded jitter", func(t *testing.T) {
		t.Parallel()

		low := &library.Simulator{Jitter: 0.15, Rand: func() float64 { return 0 }}
		high := &library.Simulator{Jitter: 0.15, Rand: func() float64 { return 0.999999 }}

		assert.InDelta(t, 10.64, low.Next(10, 0.79), 0.001)
		assert.InDelta(t, 10.94, high.Next(10, 0.79), 0.001)
	})

	t.Run("never decreases", func(t *testing.T) {
		t.Parallel()

		s := &library.Simulator{Jitter: 0.15, Rand: func() float64 { return 0 }}

		assert.InDelta(t, 10, s.Next(10, 0.05), 0.0001)
	})

	t.Run("never exceeds the ceiling", func(t *testing.T) {
		t.Parallel()

		s := &library.Simulator{Jitter: 0.15, Rand: func() float64 { return 0.9 }}

		assert.InDelta(t, papershelf.MaxUploadProgress, s.Next(94.9, 0.79), 0.0001)
	})
}

func TestSimulator_Run(t *testing.T) {
	t.Parallel()

	t.Run("reports monotonic progress up to the ceiling and stops", func(t *testing.T) {
		t.Parallel()

		var values []float64
		s := fastSimulator(func() float64 { return 0.5 })

		s.Run(context.Background(), "/p/a.pdf", 0, 0, func(path string, progress float64) bool {
			assert.Equal(t, "/p/a.pdf", path)
			values = append(values, progress)
			return true
		})

		require.NotEmpty(t, values)
		for i := 1; i < len(values); i++ {
			assert.GreaterOrEqual(t, values[i], values[i-1])
		}
		assert.InDelta(t, papershelf.MaxUploadProgress, values[len(values)-1], 0.0001)
	})

	t.Run("stops when the entry is gone", func(t *testing.T) {
		t.Parallel()

		calls := 0
		s := fastSimulator(func() float64 { return 0.5 })

		s.Run(context.Background(), "/p/a.pdf", 0, 0, func(string, float64) bool {
			calls++
			return calls < 3
		})

		assert.Equal(t, 3, calls)
	})

	t.Run("stops when canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		s := &library.Simulator{Interval: time.Millisecond, Duration: time.Hour, Rand: func() float64 { return 0.5 }}

		var mu sync.Mutex
		calls := 0
		done := make(chan struct{})
		go func() {
			s.Run(ctx, "/p/a.pdf", 0, 0, func(string, float64) bool {
				mu.Lock()
				defer mu.Unlock()
				calls++
				if calls == 2 {
					cancel()
				}
				return true
			})
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("simulator did not stop after cancel")
		}
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 2, calls)
	})
}
