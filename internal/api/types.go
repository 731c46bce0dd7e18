package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Summary periods accepted by /expenses/summary.
const (
	PeriodAll   = "all"
	PeriodYear  = "year"
	PeriodMonth = "month"
)

// DefaultCategory lets the backend auto-categorize a manual expense.
const DefaultCategory = "Uncategorized"

// Currencies the profile may be set to.
var Currencies = []string{"USD", "EUR", "GBP", "JPY", "NPR"}

// Credentials is the login body.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by POST /auth/login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
}

// RegisterRequest is the account creation body.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// RegisterResponse is returned by POST /auth/register.
type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// ProfileUpdate is the body of PUT /users/me.
type ProfileUpdate struct {
	FullName      string          `json:"full_name" validate:"max=100"`
	MonthlyBudget decimal.Decimal `json:"monthly_budget" validate:"gte=0"`
	Currency      string          `json:"currency" validate:"required,oneof=USD EUR GBP JPY NPR"`
}

// MarshalJSON sends the budget as a JSON number.
func (p ProfileUpdate) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		FullName      string  `json:"full_name"`
		MonthlyBudget float64 `json:"monthly_budget"`
		Currency      string  `json:"currency"`
	}{p.FullName, p.MonthlyBudget.InexactFloat64(), p.Currency})
}

// ExpenseInput is a manual expense. An empty Category becomes
// DefaultCategory; a zero Date becomes now.
type ExpenseInput struct {
	Description string          `json:"description" validate:"required,max=200"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Category    string          `json:"category" validate:"max=50"`
	Date        time.Time       `json:"date"`
}

// MarshalJSON sends the amount as a JSON number.
func (e ExpenseInput) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Description string    `json:"description"`
		Amount      float64   `json:"amount"`
		Category    string    `json:"category"`
		Date        time.Time `json:"date"`
	}{e.Description, e.Amount.InexactFloat64(), e.Category, e.Date})
}

// UploadRequest names a local receipt image and its manual category.
type UploadRequest struct {
	Path     string `json:"file" validate:"required,file"`
	Category string `json:"manual_category" validate:"required"`
}

// Period filters list endpoints by month. Zero fields are omitted.
type Period struct {
	Year  int
	Month int
}

// SummaryQuery selects the aggregation window for /expenses/summary.
type SummaryQuery struct {
	Period string
	Year   int
	Month  int
}

type messageResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}
