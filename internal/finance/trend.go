package finance

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tally/internal/model"
)

// TrendPoint is one day of spending.
type TrendPoint struct {
	Day    time.Time // local midnight
	Label  string    // "Jan 2"
	Amount decimal.Decimal
}

// DailyTrend groups transactions by calendar day in loc, oldest first.
// Rows are sorted by timestamp before grouping, so the result does not
// depend on the order the backend returned them in. Undated rows are skipped.
func DailyTrend(txs []model.Transaction, loc *time.Location) []TrendPoint {
	if loc == nil {
		loc = time.Local
	}

	dated := make([]model.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !tx.Date.IsZero() {
			dated = append(dated, tx)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].Date.Before(dated[j].Date.Time)
	})

	var out []TrendPoint
	for _, tx := range dated {
		t := tx.Date.In(loc)
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		if n := len(out); n > 0 && out[n-1].Day.Equal(day) {
			out[n-1].Amount = out[n-1].Amount.Add(tx.Amount)
			continue
		}
		out = append(out, TrendPoint{Day: day, Label: day.Format("Jan 2"), Amount: tx.Amount})
	}
	return out
}
