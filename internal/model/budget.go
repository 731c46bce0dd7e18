package model

import "github.com/shopspring/decimal"

// Budget is the server-computed status of one per-category limit.
// The client never writes these; only the global monthly budget is editable.
type Budget struct {
	Category  string          `json:"category"`
	Limit     decimal.Decimal `json:"limit"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
	Alert     bool            `json:"alert"`
}

// Quest is one gamification objective.
type Quest struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Points      int    `json:"points"`
	Completed   bool   `json:"completed"`
}

// GameProgress is the read-only engagement state.
type GameProgress struct {
	Points          int     `json:"points"`
	StreakCount     int     `json:"streak_count"`
	Level           int     `json:"level"`
	NextLevelPoints int     `json:"next_level_points"`
	ActiveQuests    []Quest `json:"active_quests"`
}
