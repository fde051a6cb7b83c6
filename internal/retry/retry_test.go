package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/halcyonvc/memoforge/internal/model"
)

func testPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := testPolicy(3).Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("rate limited")
		}
		return nil
	}, func(error) bool { return true })
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	transient := errors.New("server overloaded")
	calls := 0
	err := testPolicy(3).Do(context.Background(), func() error {
		calls++
		return transient
	}, func(error) bool { return true })
	if !errors.Is(err, transient) {
		t.Fatalf("err = %v, want wrapped transient error", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	fatal := errors.New("invalid api key")
	calls := 0
	err := testPolicy(5).Do(context.Background(), func() error {
		calls++
		return fatal
	}, func(err error) bool { return !errors.Is(err, fatal) })
	if !errors.Is(err, fatal) {
		t.Fatalf("err = %v, want auth error", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := testPolicy(10).Do(ctx, func() error {
		calls++
		cancel()
		return errors.New("transient")
	}, func(error) bool { return true })
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if calls > 2 {
		t.Errorf("calls = %d, want early stop after cancellation", calls)
	}
}

func TestFromConfig_Defaults(t *testing.T) {
	p := FromConfig(model.RetryConfig{})
	if p.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", p.MaxAttempts)
	}
	if p.Multiplier != 2.0 {
		t.Errorf("Multiplier = %v, want 2.0", p.Multiplier)
	}
}
