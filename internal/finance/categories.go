package finance

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tally/internal/model"
)

// Slice is one category's share of total spend.
type Slice struct {
	Name  string
	Total decimal.Decimal
	Share float64 // 0-1
}

// Shares converts a category summary into chart slices, largest first.
// Categories with a non-positive total are dropped.
func Shares(summary []model.CategoryTotal) ([]Slice, decimal.Decimal) {
	total := decimal.Zero
	var out []Slice
	for _, c := range summary {
		if !c.Total.IsPositive() {
			continue
		}
		total = total.Add(c.Total)
		out = append(out, Slice{Name: c.Category, Total: c.Total})
	}
	for i := range out {
		out[i].Share = out[i].Total.Div(total).InexactFloat64()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total.GreaterThan(out[j].Total) })
	return out, total
}

// TopCategory returns the category with the largest total.
func TopCategory(summary []model.CategoryTotal) (model.CategoryTotal, bool) {
	var best model.CategoryTotal
	found := false
	for _, c := range summary {
		if !found || c.Total.GreaterThan(best.Total) {
			best = c
			found = true
		}
	}
	return best, found
}
