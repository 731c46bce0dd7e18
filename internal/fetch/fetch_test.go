package fetch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestTracker_StaleTicket(t *testing.T) {
	var tr Tracker

	jan := tr.Begin("dashboard", Key(2024, 1))
	feb := tr.Begin("dashboard", Key(2024, 2))

	if tr.Current(jan) {
		t.Fatal("superseded ticket reported current")
	}
	if !tr.Current(feb) {
		t.Fatal("latest ticket not current")
	}
	if tr.Done(jan) {
		t.Fatal("Done accepted a stale ticket")
	}
	if !tr.Done(feb) {
		t.Fatal("Done rejected the latest ticket")
	}
	if tr.Pending("dashboard") {
		t.Fatal("slot still pending after Done")
	}
}

func TestTracker_SlotsIndependent(t *testing.T) {
	var tr Tracker
	a := tr.Begin("analytics", "all")
	g := tr.Begin("game", "")
	if !tr.Current(a) || !tr.Current(g) {
		t.Fatal("tickets in different slots interfered")
	}
}

func TestTracker_SameKeyStillSupersedes(t *testing.T) {
	var tr Tracker
	first := tr.Begin("receipts", "")
	second := tr.Begin("receipts", "")
	if tr.Current(first) {
		t.Fatal("refetch with the same key left the first ticket current")
	}
	if !tr.Current(second) {
		t.Fatal("second ticket not current")
	}
}

func TestTracker_Reset(t *testing.T) {
	var tr Tracker
	tk := tr.Begin("profile", "")
	tr.Reset()
	if tr.Current(tk) {
		t.Fatal("ticket current after Reset")
	}
}

func TestKey(t *testing.T) {
	if got := Key("summary", 2024, 3); got != "summary|2024|3" {
		t.Fatalf("Key = %q", got)
	}
	if got := Key(); got != "" {
		t.Fatalf("Key() = %q", got)
	}
}

func TestAll_Success(t *testing.T) {
	var n atomic.Int32
	fns := make([]func(context.Context) error, 5)
	for i := range fns {
		fns[i] = func(context.Context) error { n.Add(1); return nil }
	}
	if err := All(context.Background(), fns...); err != nil {
		t.Fatalf("All: %v", err)
	}
	if n.Load() != 5 {
		t.Fatalf("ran %d fns, want 5", n.Load())
	}
}

func TestAll_FirstErrorCancelsRest(t *testing.T) {
	boom := errors.New("boom")
	cancelled := make(chan struct{})

	err := All(context.Background(),
		func(context.Context) error { return boom },
		func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				close(cancelled)
				return ctx.Err()
			case <-time.After(5 * time.Second):
				return nil
			}
		},
	)
	if !errors.Is(err, boom) {
		t.Fatalf("All err = %v, want boom", err)
	}
	select {
	case <-cancelled:
	default:
		t.Fatal("sibling was not cancelled")
	}
}
