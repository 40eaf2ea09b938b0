package aggregate

import (
	"github.com/shopspring/decimal"

	"expensedash/internal/core"
)

// TopCategory returns the category with the largest total among the
// records f matches, skipping categories in exclude. ok is false when no
// category qualifies.
func TopCategory(recs []core.ExpenseRecord, f Filter, exclude map[core.Category]bool) (row Row, ok bool) {
	for _, r := range SumByCategory(recs, f).Rows {
		if exclude[core.Category(r.Key)] {
			continue
		}
		return r, true
	}
	return Row{}, false
}

// AverageDailySpend divides the total by the number of calendar days from
// the earliest to the latest matching record, inclusive.
func AverageDailySpend(recs []core.ExpenseRecord, f Filter) core.Money {
	var (
		total       core.Money
		first, last core.Date
		seen        bool
	)
	for _, r := range recs {
		if !f.Match(r.Date) {
			continue
		}
		total = total.Add(r.Amount)
		if !seen || r.Date.Before(first.Time) {
			first = r.Date
		}
		if !seen || r.Date.After(last.Time) {
			last = r.Date
		}
		seen = true
	}
	if !seen {
		return core.Money{}
	}
	days := int64(first.DaysUntil(last)) + 1
	avg := decimal.NewFromInt(total.Cents).Div(decimal.NewFromInt(days)).Round(0)
	return core.Money{Cents: avg.IntPart()}
}
