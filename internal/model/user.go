// Package model defines domain types for the finance backend.
package model

import "github.com/shopspring/decimal"

// DefaultCurrency is used when the profile carries no currency.
const DefaultCurrency = "USD"

// User is the authenticated profile returned by /users/me.
type User struct {
	Username      string          `json:"username"`
	Email         string          `json:"email"`
	FullName      string          `json:"full_name"`
	MonthlyBudget decimal.Decimal `json:"monthly_budget"`
	Currency      string          `json:"currency"`
	Points        int             `json:"points"`
	StreakCount   int             `json:"streak_count"`
}

// CurrencyCode returns the profile currency or USD when unset.
func (u User) CurrencyCode() string {
	if u.Currency == "" {
		return DefaultCurrency
	}
	return u.Currency
}

// ProfilePatch holds locally merged profile edits. Nil fields are left alone.
type ProfilePatch struct {
	FullName      *string
	MonthlyBudget *decimal.Decimal
	Currency      *string
}

// Apply merges the patch into u.
func (p ProfilePatch) Apply(u User) User {
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.MonthlyBudget != nil {
		u.MonthlyBudget = *p.MonthlyBudget
	}
	if p.Currency != nil {
		u.Currency = *p.Currency
	}
	return u
}
