// Package session holds the authenticated user and the persisted token.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/theirongolddev/tally/internal/api"
	"github.com/theirongolddev/tally/internal/model"
)

// ErrNotLoggedIn is returned by Require when no user is resolved.
var ErrNotLoggedIn = errors.New("session: not logged in")

// State is the resolution state of the session.
type State int

const (
	// Pending means a saved token is being checked.
	Pending State = iota
	// Absent means nobody is logged in.
	Absent
	// Resolved means a user profile is loaded.
	Resolved
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Absent:
		return "absent"
	case Resolved:
		return "resolved"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// TokenStore persists bearer tokens per server.
type TokenStore interface {
	LoadToken(ctx context.Context, server string) (string, error)
	SaveToken(ctx context.Context, server, username, token string) error
	DeleteToken(ctx context.Context, server string) error
}

// Store is the process-wide session. It is safe for concurrent use.
type Store struct {
	client *api.Client
	tokens TokenStore
	log    *slog.Logger
	now    func() time.Time

	mu    sync.RWMutex
	state State
	user  model.User
	subs  map[chan State]struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock overrides time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Pending session bound to client and registers itself as the
// client's unauthorized handler, so a 401 from any call logs out.
func New(client *api.Client, tokens TokenStore, opts ...Option) *Store {
	s := &Store{
		client: client,
		tokens: tokens,
		log:    slog.Default(),
		now:    time.Now,
		state:  Pending,
		subs:   make(map[chan State]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	client.OnUnauthorized(s.expire)
	return s
}

// Snapshot returns the state and, when Resolved, the user.
func (s *Store) Snapshot() (State, model.User) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.user
}

// State returns the current state.
func (s *Store) State() State {
	st, _ := s.Snapshot()
	return st
}

// Require returns the user or ErrNotLoggedIn.
func (s *Store) Require() (model.User, error) {
	st, u := s.Snapshot()
	if st != Resolved {
		return model.User{}, ErrNotLoggedIn
	}
	return u, nil
}

// Resolve restores a saved session. Tokens whose exp has passed are dropped
// without a network call. Otherwise the profile is fetched; any failure
// discards the token and leaves the session Absent. Failures other than an
// auth rejection are also returned.
func (s *Store) Resolve(ctx context.Context) (State, error) {
	s.set(Pending, model.User{})
	server := s.client.BaseURL()

	token, err := s.tokens.LoadToken(ctx, server)
	if err != nil {
		s.set(Absent, model.User{})
		return Absent, fmt.Errorf("session: loading token: %w", err)
	}
	if token == "" {
		s.set(Absent, model.User{})
		return Absent, nil
	}

	if exp, ok := TokenExpiry(token); ok && !exp.After(s.now()) {
		s.log.Info("discarding expired token", "expired_at", exp)
		s.discard(ctx)
		s.set(Absent, model.User{})
		return Absent, nil
	}

	s.client.SetToken(token)
	u, err := s.client.Me(ctx)
	if err != nil {
		s.discard(ctx)
		s.set(Absent, model.User{})
		if errors.Is(err, api.ErrUnauthorized) || errors.Is(err, api.ErrNotFound) {
			return Absent, nil
		}
		return Absent, fmt.Errorf("session: restoring profile: %w", err)
	}

	s.set(Resolved, *u)
	return Resolved, nil
}

// Login exchanges credentials for a token, persists it and loads the
// profile. Errors from the backend are returned unchanged and leave the
// session as it was.
func (s *Store) Login(ctx context.Context, username, password string) (model.User, error) {
	tr, err := s.client.Login(ctx, api.Credentials{Username: username, Password: password})
	if err != nil {
		return model.User{}, err
	}

	server := s.client.BaseURL()
	if err := s.tokens.SaveToken(ctx, server, tr.Username, tr.AccessToken); err != nil {
		return model.User{}, fmt.Errorf("session: saving token: %w", err)
	}
	s.client.SetToken(tr.AccessToken)

	u, err := s.client.Me(ctx)
	if err != nil {
		s.discard(ctx)
		s.set(Absent, model.User{})
		return model.User{}, err
	}

	s.set(Resolved, *u)
	s.log.Info("logged in", "username", u.Username)
	return *u, nil
}

// Register creates an account without logging in.
func (s *Store) Register(ctx context.Context, username, email, password string) error {
	_, err := s.client.Register(ctx, api.RegisterRequest{Username: username, Email: email, Password: password})
	return err
}

// Logout clears the user and the saved token. It makes no network call and
// is a no-op when already logged out.
func (s *Store) Logout() {
	s.discard(context.Background())
	s.set(Absent, model.User{})
}

// UpdateUser merges patch into the in-memory user without a round trip.
func (s *Store) UpdateUser(patch model.ProfilePatch) {
	s.mu.Lock()
	if s.state != Resolved {
		s.mu.Unlock()
		return
	}
	s.user = patch.Apply(s.user)
	s.mu.Unlock()
	s.notify(Resolved)
}

// Subscribe returns a channel that receives the state after every change.
// Only the latest state is buffered. Call cancel to stop receiving.
func (s *Store) Subscribe() (updates <-chan State, cancel func()) {
	ch := make(chan State, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch, func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}
}

// expire is the client's unauthorized handler. Rejections of a token that is
// no longer current are ignored.
func (s *Store) expire(token string) {
	if token != s.client.Token() {
		return
	}
	s.log.Warn("token rejected by backend, logging out")
	s.Logout()
}

func (s *Store) discard(ctx context.Context) {
	s.client.SetToken("")
	if err := s.tokens.DeleteToken(ctx, s.client.BaseURL()); err != nil {
		s.log.Warn("deleting saved token", "err", err)
	}
}

func (s *Store) set(st State, u model.User) {
	s.mu.Lock()
	changed := s.state != st || s.user != u
	s.state = st
	s.user = u
	s.mu.Unlock()
	if changed {
		s.notify(st)
	}
}

func (s *Store) notify(st State) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}

// TokenExpiry reads the exp claim without verifying the signature. ok is
// false for tokens that are not JWTs or carry no exp.
func TokenExpiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
