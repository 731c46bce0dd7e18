// Package apitest provides an in-memory finance backend for tests.
package apitest

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/theirongolddev/tally/internal/model"
)

const ctxUsername = "username"

// Server is a fake of the finance REST backend rooted at /api.
type Server struct {
	*httptest.Server

	secret []byte

	mu       sync.Mutex
	users    map[string]*account
	expenses map[string][]model.Transaction
	receipts map[string][]model.Receipt
	budgets  map[string][]model.Budget
	game     map[string]model.GameProgress
	failures map[string]int
	hits     map[string]int
}

type account struct {
	id           string
	passwordHash []byte
	profile      model.User
}

// New starts a fake backend and closes it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		secret:   []byte("apitest-secret"),
		users:    make(map[string]*account),
		expenses: make(map[string][]model.Transaction),
		receipts: make(map[string][]model.Receipt),
		budgets:  make(map[string][]model.Budget),
		game:     make(map[string]model.GameProgress),
		failures: make(map[string]int),
		hits:     make(map[string]int),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root to hand to api.NewClient.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		status := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			msg = fmt.Sprint(he.Message)
		}
		_ = c.JSON(status, map[string]string{"detail": msg})
	}
	e.Use(s.countAndInject)

	g := e.Group("/api")
	g.POST("/auth/register", s.register)
	g.POST("/auth/login", s.login)

	p := g.Group("", s.requireAuth)
	p.GET("/users/me", s.me)
	p.PUT("/users/me", s.updateMe)
	p.GET("/expenses/", s.listExpenses)
	p.POST("/expenses/", s.createExpense)
	p.GET("/expenses/recent-transactions", s.recentTransactions)
	p.GET("/expenses/summary", s.summary)
	p.GET("/expenses/forecast", s.forecast)
	p.GET("/expenses/export", s.export)
	p.DELETE("/expenses/:id", s.deleteExpense)
	p.GET("/receipts/", s.listReceipts)
	p.POST("/receipts/upload", s.upload)
	p.DELETE("/receipts/:id", s.deleteReceipt)
	p.GET("/budgets/status", s.budgetStatus)
	p.GET("/game/progress", s.gameProgress)
	p.GET("/ai/advice", s.advice)
	return e
}

// Fail makes the next requests to path (e.g. "/api/budgets/status") answer
// with status until Recover is called.
func (s *Server) Fail(path string, status int) {
	s.mu.Lock()
	s.failures[path] = status
	s.mu.Unlock()
}

// Recover clears an injected failure.
func (s *Server) Recover(path string) {
	s.mu.Lock()
	delete(s.failures, path)
	s.mu.Unlock()
}

// Hits reports how many requests reached path, including failed ones.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *Server) countAndInject(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		s.mu.Lock()
		s.hits[path]++
		status, fail := s.failures[path]
		s.mu.Unlock()
		if fail {
			return echo.NewHTTPError(status, "injected failure")
		}
		return next(c)
	}
}

// AddUser creates an account directly, bypassing registration.
func (s *Server) AddUser(t testing.TB, username, password string, profile model.User) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	profile.Username = username
	if profile.Currency == "" {
		profile.Currency = model.DefaultCurrency
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = &account{id: uuid.NewString(), passwordHash: hash, profile: profile}
}

// Token mints a token for username that expires after ttl. A negative ttl
// yields an already expired token.
func (s *Server) Token(t testing.TB, username string, ttl time.Duration) string {
	t.Helper()
	tok, err := s.sign(username, ttl)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return tok
}

// User returns the stored profile for username.
func (s *Server) User(username string) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.users[username]
	if !ok {
		return model.User{}, false
	}
	return a.profile, true
}

// AddExpense seeds a manual expense and returns its id.
func (s *Server) AddExpense(username, description, category string, amount float64, at time.Time) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[username] = append(s.expenses[username], model.Transaction{
		ID:          id,
		Type:        model.TypeExpense,
		Description: description,
		Amount:      decimal.NewFromFloat(amount),
		Date:        model.Time{Time: at.UTC()},
		Category:    category,
	})
	return id
}

// AddReceipt seeds a receipt and returns its id.
func (s *Server) AddReceipt(username string, r model.Receipt) string {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.UploadedAt.IsZero() {
		r.UploadedAt = model.Time{Time: time.Now().UTC()}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[username] = append(s.receipts[username], r)
	return r.ID
}

// SetBudgets replaces the per-category budget status for username.
func (s *Server) SetBudgets(username string, budgets []model.Budget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[username] = budgets
}

// SetGame replaces the game progress for username.
func (s *Server) SetGame(username string, g model.GameProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game[username] = g
}

// Expenses returns the stored manual expenses for username.
func (s *Server) Expenses(username string) []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Transaction(nil), s.expenses[username]...)
}

// Receipts returns the stored receipts for username.
func (s *Server) Receipts(username string) []model.Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Receipt(nil), s.receipts[username]...)
}

func (s *Server) sign(username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
		}

		claims := &jwt.RegisteredClaims{}
		parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
		tok, err := parser.ParseWithClaims(strings.TrimSpace(parts[1]), claims, func(*jwt.Token) (interface{}, error) {
			return s.secret, nil
		})
		if err != nil || !tok.Valid {
			return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
		}

		s.mu.Lock()
		_, ok := s.users[claims.Subject]
		s.mu.Unlock()
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
		}

		c.Set(ctxUsername, claims.Subject)
		return next(c)
	}
}

func username(c echo.Context) string {
	u, _ := c.Get(ctxUsername).(string)
	return u
}
