package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"expensedash/internal/core"
)

var hundred = decimal.NewFromInt(100)

// Row is one group of a summary.
type Row struct {
	Key        string     `json:"key"`
	Amount     core.Money `json:"amount"`
	Count      int        `json:"count"`
	Percentage float64    `json:"percentage"`
}

// Summary is a set of rows sorted by amount descending, ties in first-seen
// order.
type Summary struct {
	Rows  []Row      `json:"rows"`
	Total core.Money `json:"total"`
	Count int        `json:"count"`
}

// Themer maps categories to themes.
type Themer interface {
	Theme(core.Category) core.Theme
}

func SumByCategory(recs []core.ExpenseRecord, f Filter) Summary {
	return sumBy(f.Apply(recs), func(r core.ExpenseRecord) string { return string(r.Category) })
}

func SumByPaymentMethod(recs []core.ExpenseRecord, f Filter) Summary {
	return sumBy(f.Apply(recs), func(r core.ExpenseRecord) string { return string(r.PaymentMethod) })
}

func SumByTheme(recs []core.ExpenseRecord, f Filter, th Themer) Summary {
	return sumBy(f.Apply(recs), func(r core.ExpenseRecord) string { return string(th.Theme(r.Category)) })
}

// Total returns the sum and count of the records f matches.
func Total(recs []core.ExpenseRecord, f Filter) (core.Money, int) {
	var total core.Money
	n := 0
	for _, r := range recs {
		if f.Match(r.Date) {
			total = total.Add(r.Amount)
			n++
		}
	}
	return total, n
}

func sumBy(recs []core.ExpenseRecord, key func(core.ExpenseRecord) string) Summary {
	if len(recs) == 0 {
		return Summary{Rows: []Row{}}
	}

	index := make(map[string]int)
	var rows []Row
	var total core.Money
	for _, r := range recs {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(rows)
			index[k] = i
			rows = append(rows, Row{Key: k})
		}
		rows[i].Amount = rows[i].Amount.Add(r.Amount)
		rows[i].Count++
		total = total.Add(r.Amount)
	}

	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].Amount.Cents > rows[b].Amount.Cents
	})
	for i := range rows {
		rows[i].Percentage = percentage(rows[i].Amount, total)
	}
	return Summary{Rows: rows, Total: total, Count: len(recs)}
}

func percentage(part, total core.Money) float64 {
	if total.Cents == 0 {
		return 0
	}
	return decimal.NewFromInt(part.Cents).Mul(hundred).Div(decimal.NewFromInt(total.Cents)).InexactFloat64()
}
