package provider

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// FaultSource injects the latency and failure behavior of a simulated
// provider backend. Production wiring uses a seeded random source; tests
// inject a deterministic one so failure paths are reproducible.
type FaultSource interface {
	// Sleep blocks for a latency between min and max, honoring ctx.
	Sleep(ctx context.Context, min, max time.Duration) error
	// Fail reports whether this call should fail, given the provider's
	// failure probability in [0,1].
	Fail(probability float64) bool
}

// RandomFaults is the default FaultSource backed by math/rand.
type RandomFaults struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomFaults(seed int64) *RandomFaults {
	return &RandomFaults{rng: rand.New(rand.NewSource(seed))}
}

func (f *RandomFaults) Sleep(ctx context.Context, min, max time.Duration) error {
	if max < min {
		max = min
	}

	delay := min
	if span := max - min; span > 0 {
		f.mu.Lock()
		delay += time.Duration(f.rng.Int63n(int64(span)))
		f.mu.Unlock()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (f *RandomFaults) Fail(probability float64) bool {
	if probability <= 0 {
		return false
	}
	if probability >= 1 {
		return true
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rng.Float64() < probability
}

// NoFaults never fails and never sleeps beyond the context check. Useful for
// wiring providers against a real backend later and in tests.
type NoFaults struct{}

func (NoFaults) Sleep(ctx context.Context, _, _ time.Duration) error { return ctx.Err() }

func (NoFaults) Fail(float64) bool { return false }
