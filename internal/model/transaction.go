package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Transaction types returned by GET /expenses/.
const (
	TypeReceipt = "receipt"
	TypeExpense = "expense"
)

// Transaction is one row of the merged expense feed: a manual expense or a
// receipt summarized as a single line.
type Transaction struct {
	ID          string          `json:"_id"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        Time            `json:"date"`
	Category    string          `json:"category"`
	ReceiptID   string          `json:"receipt_id,omitempty"`
}

// IsReceipt reports whether deleting this row must go through the receipt
// endpoint, which also removes every expense derived from it.
func (t Transaction) IsReceipt() bool {
	return t.Type == TypeReceipt || t.ReceiptID != ""
}

// DeleteTargetID is the id to pass to the delete endpoint.
func (t Transaction) DeleteTargetID() string {
	if t.ReceiptID != "" {
		return t.ReceiptID
	}
	return t.ID
}

// Matches reports whether q is a case-insensitive substring of the
// description or category. An empty query matches everything.
func (t Transaction) Matches(q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(t.Description), q) ||
		strings.Contains(strings.ToLower(t.Category), q)
}

// CategoryTotal is one bucket from /expenses/summary.
type CategoryTotal struct {
	Category string          `json:"_id"`
	Total    decimal.Decimal `json:"total"`
}

// Forecast is the next-month spending prediction.
type Forecast struct {
	PredictedAmount decimal.Decimal `json:"predicted_amount"`
	Advice          string          `json:"advice"`
}

// Advice is the AI spending advice for a month.
type Advice struct {
	RawAdvice         string                     `json:"raw_advice"`
	TotalSpent30Days  decimal.Decimal            `json:"total_spent_30days"`
	TransactionCount  int                        `json:"transaction_count"`
	CategoryBreakdown map[string]decimal.Decimal `json:"category_breakdown"`
	Mock              bool                       `json:"mock"`
}
