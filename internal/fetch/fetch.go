// Package fetch coordinates the reads a view issues so that a response for
// parameters the view has since moved away from is dropped instead of
// overwriting newer data.
package fetch

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Ticket identifies one issued fetch.
type Ticket struct {
	Slot string
	Key  string
	seq  uint64
}

// Tracker records the latest ticket per slot. A slot is usually one view.
// The zero value is ready to use.
type Tracker struct {
	mu      sync.Mutex
	seq     uint64
	current map[string]Ticket
}

// Begin issues a ticket for slot, superseding any earlier one.
func (t *Tracker) Begin(slot, key string) Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		t.current = make(map[string]Ticket)
	}
	t.seq++
	tk := Ticket{Slot: slot, Key: key, seq: t.seq}
	t.current[slot] = tk
	return tk
}

// Current reports whether tk is still the latest ticket for its slot.
func (t *Tracker) Current(tk Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur, ok := t.current[tk.Slot]
	return ok && cur.seq == tk.seq
}

// Pending reports whether slot has an outstanding ticket.
func (t *Tracker) Pending(slot string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.current[slot]
	return ok
}

// Done retires tk if it is still current. It returns false for a stale
// ticket, in which case the caller must discard the result.
func (t *Tracker) Done(tk Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur, ok := t.current[tk.Slot]
	if !ok || cur.seq != tk.seq {
		return false
	}
	delete(t.current, tk.Slot)
	return true
}

// Reset invalidates every outstanding ticket.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.current = nil
	t.mu.Unlock()
}

// Key joins fetch parameters into a stable key, e.g. Key("summary", 2024, 3).
func Key(parts ...any) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprint(p)
	}
	return strings.Join(s, "|")
}

// All runs fns concurrently and waits for them. The first error cancels the
// context passed to the rest and is returned, so the batch either succeeds
// as a whole or fails as a whole.
func All(ctx context.Context, fns ...func(context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		g.Go(func() error { return fn(ctx) })
	}
	return g.Wait()
}
