package polite

import (
	"context"
	"testing"
	"time"

	"chintai-crawler/pkg/config"
)

func testRateConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		MinDelay:         3 * time.Second,
		MaxDelay:         8 * time.Second,
		PageDelay:        5 * time.Second,
		StationDelay:     10 * time.Second,
		MaxRetries:       3,
		RetryBaseDelay:   time.Second,
		ConcurrencyLimit: 1,
	}
}

func TestPacerWait_NoDelayOnFirstRequest(t *testing.T) {
	clock := newFakeClock()
	p := NewPacer(testRateConfig(), clock, testLogger())

	slept, err := p.Wait(context.Background(), ClassStation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slept != 0 {
		t.Errorf("first request slept %v, expected no delay", slept)
	}
	if len(clock.Sleeps()) != 0 {
		t.Errorf("expected no sleep calls, got %v", clock.Sleeps())
	}
}

func TestPacerWait_FixedClassDelays(t *testing.T) {
	tests := []struct {
		name  string
		class RequestClass
		want  time.Duration
	}{
		{"page transition", ClassPage, 5 * time.Second},
		{"station transition", ClassStation, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			p := NewPacer(testRateConfig(), clock, testLogger())

			if _, err := p.Wait(context.Background(), tt.class); err != nil {
				t.Fatalf("first wait: %v", err)
			}
			slept, err := p.Wait(context.Background(), tt.class)
			if err != nil {
				t.Fatalf("second wait: %v", err)
			}
			if slept != tt.want {
				t.Errorf("second request slept %v, want %v", slept, tt.want)
			}
		})
	}
}

func TestPacerWait_DefaultClassWithinJitterBounds(t *testing.T) {
	cfg := testRateConfig()
	clock := newFakeClock()
	p := NewPacer(cfg, clock, testLogger())

	if _, err := p.Wait(context.Background(), ClassDefault); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	for i := 0; i < 50; i++ {
		slept, err := p.Wait(context.Background(), ClassDefault)
		if err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
		if slept < cfg.MinDelay || slept > cfg.MaxDelay {
			t.Fatalf("slept %v, want within [%v, %v]", slept, cfg.MinDelay, cfg.MaxDelay)
		}
	}
}

func TestPacerWait_SleepsOnlyTheRemainder(t *testing.T) {
	clock := newFakeClock()
	p := NewPacer(testRateConfig(), clock, testLogger())

	if _, err := p.Wait(context.Background(), ClassPage); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	// 3s of the required 5s have already passed.
	clock.Advance(3 * time.Second)

	slept, err := p.Wait(context.Background(), ClassPage)
	if err != nil {
		t.Fatalf("second wait: %v", err)
	}
	if slept != 2*time.Second {
		t.Errorf("slept %v, want the 2s remainder", slept)
	}
}

func TestPacerWait_NoSleepWhenDelayAlreadyElapsed(t *testing.T) {
	clock := newFakeClock()
	p := NewPacer(testRateConfig(), clock, testLogger())

	if _, err := p.Wait(context.Background(), ClassStation); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	clock.Advance(time.Minute)

	slept, err := p.Wait(context.Background(), ClassStation)
	if err != nil {
		t.Fatalf("second wait: %v", err)
	}
	if slept != 0 {
		t.Errorf("slept %v after the delay had fully elapsed, want 0", slept)
	}
}

func TestPacerWait_RespectsContextCancellation(t *testing.T) {
	clock := newFakeClock()
	p := NewPacer(testRateConfig(), clock, testLogger())

	if _, err := p.Wait(context.Background(), ClassPage); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Wait(ctx, ClassPage); err == nil {
		t.Error("expected context error from cancelled wait")
	}
}

// Property from the design: across any call sequence, Wait never returns
// before the configured class minimum has elapsed since the previous call.
func TestPacerWait_MinimumIntervalProperty(t *testing.T) {
	clock := newFakeClock()
	p := NewPacer(testRateConfig(), clock, testLogger())

	var last time.Time
	classes := []RequestClass{ClassStation, ClassPage, ClassPage, ClassDefault, ClassPage, ClassStation}
	for i, class := range classes {
		if _, err := p.Wait(context.Background(), class); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
		now := clock.Now()
		if i > 0 {
			var min time.Duration
			switch class {
			case ClassPage:
				min = 5 * time.Second
			case ClassStation:
				min = 10 * time.Second
			default:
				min = 3 * time.Second
			}
			if got := now.Sub(last); got < min {
				t.Fatalf("call %d (%s): only %v since previous request, want >= %v", i, class, got, min)
			}
		}
		last = now
	}
}
