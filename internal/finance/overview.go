package finance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/tally/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Overview is the month's budget position as shown on the dashboard.
type Overview struct {
	Spent     decimal.Decimal
	Budget    decimal.Decimal
	Remaining decimal.Decimal // signed; negative when overspent

	// Utilization is spent/budget in percent, clamped to [0,100] for the bar.
	Utilization float64
}

// ComputeOverview derives the budget position. The profile's monthly budget
// wins when positive; otherwise the per-category limits are summed.
func ComputeOverview(u model.User, budgets []model.Budget, summary []model.CategoryTotal) Overview {
	spent := Sum(summary, func(c model.CategoryTotal) decimal.Decimal { return c.Total })

	budget := u.MonthlyBudget
	if !budget.IsPositive() {
		budget = Sum(budgets, func(b model.Budget) decimal.Decimal { return b.Limit })
	}

	return Overview{
		Spent:       spent,
		Budget:      budget,
		Remaining:   budget.Sub(spent),
		Utilization: Utilization(spent, budget),
	}
}

// Utilization returns spent/budget as a percentage clamped to [0,100].
// A zero budget divides by one.
func Utilization(spent, budget decimal.Decimal) float64 {
	denom := budget
	if denom.IsZero() {
		denom = decimal.NewFromInt(1)
	}
	pct := spent.Div(denom).Mul(hundred)
	switch {
	case pct.LessThan(decimal.Zero):
		return 0
	case pct.GreaterThan(hundred):
		return 100
	}
	return pct.InexactFloat64()
}

// HasBudget reports whether any budget is configured.
func (o Overview) HasBudget() bool {
	return o.Budget.IsPositive()
}

// Overspent reports whether spend exceeds the budget.
func (o Overview) Overspent() bool {
	return o.Remaining.IsNegative()
}

// UtilizedLabel renders "75% Utilized".
func (o Overview) UtilizedLabel() string {
	return fmt.Sprintf("%s%% Utilized", decimal.NewFromFloat(o.Utilization).Round(0).String())
}

// RemainingLabel renders "$250 Remaining" or "$200 Overspent".
func (o Overview) RemainingLabel(currency string) string {
	if o.Overspent() {
		return FormatMoney(currency, o.Remaining.Abs()) + " Overspent"
	}
	return FormatMoney(currency, o.Remaining) + " Remaining"
}
