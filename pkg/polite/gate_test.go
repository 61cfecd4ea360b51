package polite

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"chintai-crawler/pkg/config"
	"chintai-crawler/pkg/utils"
)

func fastGateConfig(concurrency int) config.RateLimitConfig {
	return config.RateLimitConfig{
		MinDelay:         time.Millisecond,
		MaxDelay:         2 * time.Millisecond,
		PageDelay:        time.Millisecond,
		StationDelay:     time.Millisecond,
		MaxRetries:       2,
		RetryBaseDelay:   time.Millisecond,
		ConcurrencyLimit: concurrency,
	}
}

func TestGatePerform_Success(t *testing.T) {
	g := NewGate(fastGateConfig(1), nil, newFakeClock(), testLogger())

	calls := 0
	err := g.Perform(context.Background(), ClassPage, func(ctx context.Context) error {
		calls++
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}

	s := g.Stats()
	if s.TotalRequests != 1 || s.SuccessCount != 1 {
		t.Errorf("stats = %+v, want one success recorded", s)
	}
}

func TestGatePerform_RecordsFailureAndPropagates(t *testing.T) {
	g := NewGate(fastGateConfig(1), nil, newFakeClock(), testLogger())

	opErr := errors.New("navigation failed")
	err := g.Perform(context.Background(), ClassStation, func(ctx context.Context) error {
		return opErr
	})

	if !errors.Is(err, utils.ErrRetriesExhausted) {
		t.Errorf("expected ErrRetriesExhausted, got: %v", err)
	}
	if !errors.Is(err, opErr) {
		t.Errorf("expected underlying error wrapped, got: %v", err)
	}

	s := g.Stats()
	if s.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1 (failures are recorded too)", s.ErrorCount)
	}
}

func TestGatePerform_RetriesThroughGate(t *testing.T) {
	g := NewGate(fastGateConfig(1), nil, newFakeClock(), testLogger())

	attempts := 0
	err := g.Perform(context.Background(), ClassPage, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retries, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	// One gated request, not three: retries live inside a single admission.
	if s := g.Stats(); s.TotalRequests != 1 {
		t.Errorf("TotalRequests = %d, want 1", s.TotalRequests)
	}
}

func TestGatePerform_SerializesAtConcurrencyOne(t *testing.T) {
	// Real clock with tiny delays: the admission bound, not the pacing, is
	// under test here.
	g := NewGate(fastGateConfig(1), nil, SystemClock, testLogger())

	var inFlight, maxInFlight atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Perform(context.Background(), ClassDefault, func(ctx context.Context) error {
				cur := inFlight.Add(1)
				for {
					prev := maxInFlight.Load()
					if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				inFlight.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	if maxInFlight.Load() != 1 {
		t.Errorf("max in-flight = %d, want 1 with concurrency_limit 1", maxInFlight.Load())
	}
	if s := g.Stats(); s.TotalRequests != 8 {
		t.Errorf("TotalRequests = %d, want 8", s.TotalRequests)
	}
}

func TestGatePerform_CancelledBeforeAdmission(t *testing.T) {
	g := NewGate(fastGateConfig(1), nil, newFakeClock(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := g.Perform(ctx, ClassPage, func(ctx context.Context) error {
		called = true
		return nil
	})

	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if called {
		t.Error("operation ran despite cancelled context")
	}
	// Nothing was admitted, so nothing is recorded.
	if s := g.Stats(); s.TotalRequests != 0 {
		t.Errorf("TotalRequests = %d, want 0", s.TotalRequests)
	}
}

func TestGateUserAgent_FromPool(t *testing.T) {
	pool := []string{"agent-a", "agent-b"}
	g := NewGate(fastGateConfig(1), pool, newFakeClock(), testLogger())

	for i := 0; i < 20; i++ {
		ua := g.UserAgent()
		if ua != "agent-a" && ua != "agent-b" {
			t.Fatalf("unexpected identity %q", ua)
		}
	}
}

func TestAgentRotator_DefaultPool(t *testing.T) {
	r := NewAgentRotator(nil)
	if r.PoolSize() == 0 {
		t.Fatal("default identity pool is empty")
	}
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		seen[r.Next()] = true
	}
	// Random-with-replacement over 8 identities: 200 draws should hit more
	// than one.
	if len(seen) < 2 {
		t.Errorf("rotation produced %d distinct identities, want several", len(seen))
	}
}
