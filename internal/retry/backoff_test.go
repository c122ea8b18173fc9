package retry

import (
	"testing"
	"time"

	"github.com/vvka-141/oews/pkg/oews"
)

func TestExponentialBackoff_NextDelay_WithoutJitter(t *testing.T) {
	b := NewExponentialBackoff(5,
		WithInitialDelay(100*time.Millisecond),
		WithMaxDelay(time.Second),
		WithJitter(0),
	)

	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}
	for attempt, w := range want {
		if got := b.NextDelay(attempt); got != w {
			t.Errorf("NextDelay(%d) = %v, want %v", attempt, got, w)
		}
	}
}

func TestExponentialBackoff_CapAtHighAttempts(t *testing.T) {
	b := NewExponentialBackoff(-1, WithMaxDelay(time.Minute), WithJitter(0))
	for _, attempt := range []int{30, 100, 5000} {
		if got := b.NextDelay(attempt); got != time.Minute {
			t.Errorf("NextDelay(%d) = %v, want cap %v", attempt, got, time.Minute)
		}
	}
}

func TestExponentialBackoff_Jitter(t *testing.T) {
	tests := []struct {
		random float64
		want   time.Duration
	}{
		{0.5, time.Second},
		{0.0, 900 * time.Millisecond},
		{0.75, 1050 * time.Millisecond},
	}
	for _, tt := range tests {
		b := NewExponentialBackoff(1,
			WithInitialDelay(time.Second),
			WithJitter(0.1),
			WithJitterFunc(func() float64 { return tt.random }),
		)
		if got := b.NextDelay(0); got != tt.want {
			t.Errorf("random=%v: NextDelay(0) = %v, want %v", tt.random, got, tt.want)
		}
	}
}

func TestExponentialBackoff_Multiplier(t *testing.T) {
	b := NewExponentialBackoff(3, WithInitialDelay(10*time.Millisecond), WithMultiplier(3), WithJitter(0))
	if got := b.NextDelay(2); got != 90*time.Millisecond {
		t.Errorf("NextDelay(2) = %v, want 90ms", got)
	}
}

func TestDefaultBackoff(t *testing.T) {
	b := DefaultBackoff()
	if b.MaxAttempts() != oews.DefaultRetryMaxAttempts {
		t.Errorf("MaxAttempts() = %d, want %d", b.MaxAttempts(), oews.DefaultRetryMaxAttempts)
	}
	if b.MaxDelay() != oews.DefaultRetryMaxDelay {
		t.Errorf("MaxDelay() = %v, want %v", b.MaxDelay(), oews.DefaultRetryMaxDelay)
	}
	for attempt := 0; attempt < 10; attempt++ {
		if d := b.NextDelay(attempt); d > oews.DefaultRetryMaxDelay+oews.DefaultRetryMaxDelay/10 {
			t.Errorf("NextDelay(%d) = %v exceeds cap plus jitter", attempt, d)
		}
	}
}
