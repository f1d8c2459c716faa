package database

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakePinger struct {
	err      error
	deadline time.Time
}

func (f *fakePinger) Ping(ctx context.Context) error {
	f.deadline, _ = ctx.Deadline()
	return f.err
}

func TestCheckHealth(t *testing.T) {
	t.Run("returns nil when ping succeeds", func(t *testing.T) {
		pinger := &fakePinger{}
		if err := CheckHealth(context.Background(), pinger); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if pinger.deadline.IsZero() {
			t.Error("expected ping to run with a deadline")
		}
	})

	t.Run("wraps ping failures", func(t *testing.T) {
		pingErr := errors.New("connection refused")
		err := CheckHealth(context.Background(), &fakePinger{err: pingErr})
		if !errors.Is(err, pingErr) {
			t.Errorf("expected wrapped ping error, got %v", err)
		}
	})
}
