package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/apitest"
	"github.com/theirongolddev/tally/internal/model"
)

type stubSource struct {
	user    model.User
	budgets []model.Budget
	summary []model.CategoryTotal
	err     error
	gotQ    api.SummaryQuery
}

func (s *stubSource) Me(context.Context) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u := s.user
	return &u, nil
}

func (s *stubSource) BudgetStatus(context.Context) ([]model.Budget, error) {
	return s.budgets, nil
}

func (s *stubSource) Summary(_ context.Context, q api.SummaryQuery) ([]model.CategoryTotal, error) {
	s.gotQ = q
	return s.summary, nil
}

var fixedNow = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

func newTestService(src Source, buffer int) *Service {
	return New(Config{
		Interval:     time.Minute,
		EventsBuffer: buffer,
		Now:          func() time.Time { return fixedNow },
	}, src)
}

func eventTypes(s *Service) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Type
	}
	return out
}

func TestPollOnce_Transitions(t *testing.T) {
	src := &stubSource{
		user:    model.User{MonthlyBudget: decimal.NewFromInt(1000), Currency: "EUR"},
		summary: []model.CategoryTotal{{Category: "Food", Total: decimal.NewFromInt(750)}},
	}
	s := newTestService(src, 50)

	s.pollOnce(context.Background())
	if src.gotQ.Period != api.PeriodMonth || src.gotQ.Year != 2024 || src.gotQ.Month != 3 {
		t.Fatalf("summary query = %+v, want month 2024-03", src.gotQ)
	}
	st := s.snapshotStatus()
	if !st.Summary.Remaining.Equal(decimal.NewFromInt(250)) || st.Summary.Utilization != 75 {
		t.Fatalf("snapshot = %+v", st.Summary)
	}
	if st.Summary.Currency != "EUR" {
		t.Fatalf("currency = %q", st.Summary.Currency)
	}

	// Unchanged poll emits nothing.
	s.pollOnce(context.Background())
	if got := eventTypes(s); len(got) != 1 || got[0] != EventSnapshot {
		t.Fatalf("events after idle poll = %v", got)
	}

	src.summary = []model.CategoryTotal{{Category: "Food", Total: decimal.NewFromInt(1200)}}
	src.budgets = []model.Budget{{Category: "Food", Limit: decimal.NewFromInt(500), Alert: true}}
	s.pollOnce(context.Background())

	want := []string{EventSnapshot, EventSpendChanged, EventBudgetAlert, EventOverspent}
	got := eventTypes(s)
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}

	s.mu.RLock()
	delta := s.events[1].Delta
	s.mu.RUnlock()
	if !delta.Equal(decimal.NewFromInt(450)) {
		t.Fatalf("spend delta = %s, want 450", delta)
	}
}

func TestPollOnce_Error(t *testing.T) {
	src := &stubSource{err: api.ErrUnauthorized}
	s := newTestService(src, 10)

	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	if st.LastError == "" || st.PollCount != 1 {
		t.Fatalf("status = %+v, want recorded error", st)
	}
	if got := eventTypes(s); len(got) != 1 || got[0] != EventPollError {
		t.Fatalf("events = %v", got)
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := newTestService(&stubSource{}, 2)

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestHandlers(t *testing.T) {
	src := &stubSource{user: model.User{MonthlyBudget: decimal.NewFromInt(100)}}
	s := newTestService(src, 10)
	s.pollOnce(context.Background())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/v1/status")
	if err != nil {
		t.Fatal(err)
	}
	var st Status
	err = json.NewDecoder(resp.Body).Decode(&st)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if st.PollCount != 1 || !st.Summary.Budget.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("status = %+v", st)
	}

	resp, err = http.Get(srv.URL + "/v1/events")
	if err != nil {
		t.Fatal(err)
	}
	var events []Event
	err = json.NewDecoder(resp.Body).Decode(&events)
	_ = resp.Body.Close()
	if err != nil || len(events) != 1 {
		t.Fatalf("events = %v, %v", events, err)
	}

	resp, err = http.Get(srv.URL + "/v1/nope")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown route status = %d, want 404", resp.StatusCode)
	}
}

func TestPollAgainstBackend(t *testing.T) {
	backend := apitest.New(t)
	backend.AddUser(t, "ana", "s3cret!", model.User{MonthlyBudget: decimal.NewFromInt(500)})
	now := time.Now().UTC()
	backend.AddExpense("ana", "Groceries", "Food", 120, now)
	backend.AddExpense("ana", "Bus pass", "Transport", 80, now)

	client := api.NewClient(backend.BaseURL())
	client.SetToken(backend.Token(t, "ana", time.Hour))

	s := New(Config{Interval: time.Minute}, client)
	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	if st.LastError != "" {
		t.Fatalf("poll error: %s", st.LastError)
	}
	if !st.Summary.Spent.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("spent = %s, want 200", st.Summary.Spent)
	}
	if !st.Summary.Remaining.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("remaining = %s, want 300", st.Summary.Remaining)
	}

	backend.Fail("/api/budgets/status", http.StatusUnauthorized)
	s.pollOnce(context.Background())
	if st := s.snapshotStatus(); st.LastError == "" {
		t.Fatal("expected poll error after 401")
	}
}
