// Package daemon provides the long-running background budget watcher.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/fetch"
	"github.com/theirongolddev/tally/internal/finance"
	"github.com/theirongolddev/tally/internal/model"
)

// Event types.
const (
	EventSnapshot     = "snapshot"
	EventSpendChanged = "spend_changed"
	EventBudgetAlert  = "budget_alert"
	EventOverspent    = "overspent"
	EventPollError    = "poll_error"
)

// Source is the subset of the API client the watcher polls.
type Source interface {
	Me(ctx context.Context) (*model.User, error)
	BudgetStatus(ctx context.Context) ([]model.Budget, error)
	Summary(ctx context.Context, q api.SummaryQuery) ([]model.CategoryTotal, error)
}

// Config controls the daemon runtime behavior.
type Config struct {
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Logger       *slog.Logger
	Now          func() time.Time
}

// Snapshot is the current month's budget position.
type Snapshot struct {
	At          time.Time       `json:"at"`
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	Currency    string          `json:"currency"`
	Spent       decimal.Decimal `json:"spent"`
	Budget      decimal.Decimal `json:"budget"`
	Remaining   decimal.Decimal `json:"remaining"`
	Utilization float64         `json:"utilization"`
	Overspent   bool            `json:"overspent"`
	Alerts      []string        `json:"alerts,omitempty"` // categories past their limit
}

// Event is emitted whenever the snapshot changes or a poll fails.
type Event struct {
	ID        int64           `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Snapshot  Snapshot        `json:"snapshot"`
	Delta     decimal.Decimal `json:"delta"`
	Category  string          `json:"category,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config
	src Source
	log *slog.Logger

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service polling src.
func New(cfg Config, src Source) *Service {
	if cfg.Interval < 10*time.Second {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8797"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Service{
		cfg:       cfg,
		src:       src,
		log:       cfg.Logger.With("component", "daemon"),
		startedAt: cfg.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)
	})
	return r
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("daemon started", "addr", s.cfg.Addr, "interval", s.cfg.Interval)

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	now := s.cfg.Now()
	month := finance.MonthOf(now)

	var (
		user    *model.User
		budgets []model.Budget
		summary []model.CategoryTotal
	)
	err := fetch.All(ctx,
		func(ctx context.Context) (err error) { user, err = s.src.Me(ctx); return err },
		func(ctx context.Context) (err error) { budgets, err = s.src.BudgetStatus(ctx); return err },
		func(ctx context.Context) (err error) {
			summary, err = s.src.Summary(ctx, api.SummaryQuery{
				Period: api.PeriodMonth,
				Year:   month.Year,
				Month:  int(month.Month),
			})
			return err
		},
	)
	if err != nil {
		s.recordError(now, err)
		return
	}

	snap := buildSnapshot(*user, budgets, summary, now)
	events := s.recordSnapshot(snap, now)
	for _, ev := range events {
		s.publishEvent(ev)
	}
}

func (s *Service) recordError(now time.Time, err error) {
	s.log.Warn("poll failed", "err", err)

	s.mu.Lock()
	s.lastError = err.Error()
	s.lastPollAt = now
	s.pollCount++
	s.nextEventID++
	ev := Event{
		ID:        s.nextEventID,
		Type:      EventPollError,
		Timestamp: now,
		Snapshot:  s.snapshot,
		Error:     err.Error(),
	}
	s.mu.Unlock()

	s.publishEvent(ev)
}

// recordSnapshot stores snap and returns the events it gives rise to.
func (s *Service) recordSnapshot(snap Snapshot, now time.Time) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	next := func(typ string) Event {
		s.nextEventID++
		return Event{ID: s.nextEventID, Type: typ, Timestamp: now, Snapshot: snap}
	}

	if !prevExists {
		return []Event{next(EventSnapshot)}
	}

	var out []Event
	if delta := snap.Spent.Sub(prev.Spent); !delta.IsZero() {
		ev := next(EventSpendChanged)
		ev.Delta = delta
		out = append(out, ev)
	}
	had := make(map[string]bool, len(prev.Alerts))
	for _, c := range prev.Alerts {
		had[c] = true
	}
	for _, c := range snap.Alerts {
		if !had[c] {
			ev := next(EventBudgetAlert)
			ev.Category = c
			out = append(out, ev)
		}
	}
	if snap.Overspent && !prev.Overspent {
		out = append(out, next(EventOverspent))
	}
	return out
}

func buildSnapshot(u model.User, budgets []model.Budget, summary []model.CategoryTotal, at time.Time) Snapshot {
	o := finance.ComputeOverview(u, budgets, summary)

	var alerts []string
	for _, b := range budgets {
		if b.Alert {
			alerts = append(alerts, b.Category)
		}
	}
	sort.Strings(alerts)

	return Snapshot{
		At:          at,
		Year:        at.Year(),
		Month:       int(at.Month()),
		Currency:    u.CurrencyCode(),
		Spent:       o.Spent,
		Budget:      o.Budget,
		Remaining:   o.Remaining,
		Utilization: o.Utilization,
		Overspent:   o.HasBudget() && o.Overspent(),
		Alerts:      alerts,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	writeSSE(w, Event{
		Type:      EventSnapshot,
		Timestamp: s.cfg.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
