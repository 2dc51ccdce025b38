package fetch

import (
	"context"
	"testing"
	"time"
)

func TestPolitenessWait_RespectsContextCancellation(t *testing.T) {
	p := NewPoliteness(5*time.Second, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // pre-cancel

	start := time.Now()
	p.Wait(ctx)
	elapsed := time.Since(start)

	if elapsed > 100*time.Millisecond {
		t.Errorf("Wait with cancelled context took %v, expected <100ms", elapsed)
	}
}

func TestPolitenessWait_SleepsBetweenBaseAndDoubleBase(t *testing.T) {
	p := NewPoliteness(50*time.Millisecond, testLogger())

	start := time.Now()
	requested := p.Wait(context.Background())
	elapsed := time.Since(start)

	if requested < 50*time.Millisecond || requested >= 100*time.Millisecond {
		t.Errorf("requested sleep %v outside [50ms, 100ms)", requested)
	}
	if elapsed < 45*time.Millisecond {
		t.Errorf("Wait returned too quickly: %v", elapsed)
	}
	if elapsed > 400*time.Millisecond {
		t.Errorf("Wait took too long: %v", elapsed)
	}
}

func TestPoliteness_ZeroBase(t *testing.T) {
	p := NewPoliteness(0, testLogger())
	if d := p.Next(); d != 0 {
		t.Errorf("expected no delay, got %v", d)
	}
	if d := p.Wait(context.Background()); d != 0 {
		t.Errorf("expected no delay, got %v", d)
	}
}

func TestRequestLimiter_Unlimited(t *testing.T) {
	var nilLimiter *RequestLimiter
	if err := nilLimiter.Wait(context.Background()); err != nil {
		t.Errorf("nil limiter should not block: %v", err)
	}

	l := NewRequestLimiter(0)
	if l.Enabled() {
		t.Error("zero rate should disable the limiter")
	}
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("unlimited limiter should not delay")
	}
}

func TestRequestLimiter_EnforcesRate(t *testing.T) {
	l := NewRequestLimiter(20) // one token every 50ms
	if !l.Enabled() {
		t.Fatal("expected limiter to be enabled")
	}

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// First token is immediate, the next two wait ~50ms each
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected rate limiting delay, got %v", elapsed)
	}
}

func TestRequestLimiter_CancelledContext(t *testing.T) {
	l := NewRequestLimiter(0.001)
	_ = l.Wait(context.Background()) // consume the burst token

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("expected error from cancelled context")
	}
}
