package aggregate

import (
	"expensedash/internal/core"
)

// Engine bundles the presentation policy that individual aggregations take
// as arguments.
type Engine struct {
	themes  Themer
	exclude map[core.Category]bool
}

func NewEngine(themes Themer, topExclude ...core.Category) *Engine {
	ex := make(map[core.Category]bool, len(topExclude))
	for _, c := range topExclude {
		ex[c] = true
	}
	return &Engine{themes: themes, exclude: ex}
}

// Dashboard is the combined view rendered by the presentation layers.
type Dashboard struct {
	Filter         Filter       `json:"filter"`
	Total          core.Money   `json:"total"`
	Count          int          `json:"count"`
	AverageDaily   core.Money   `json:"averageDaily"`
	TopCategory    *Row         `json:"topCategory,omitempty"`
	Categories     Summary      `json:"categories"`
	PaymentMethods Summary      `json:"paymentMethods"`
	Themes         Summary      `json:"themes"`
	Weekly         []WeeklyRow  `json:"weekly"`
	Monthly        []MonthlyRow `json:"monthly"`
	Pivot          Pivot        `json:"pivot"`
}

func (e *Engine) Summary(recs []core.ExpenseRecord, f Filter, dim Dimension) Summary {
	switch dim {
	case ByPaymentMethod:
		return SumByPaymentMethod(recs, f)
	case ByTheme:
		return SumByTheme(recs, f, e.themes)
	default:
		return SumByCategory(recs, f)
	}
}

func (e *Engine) TopCategory(recs []core.ExpenseRecord, f Filter) (Row, bool) {
	return TopCategory(recs, f, e.exclude)
}

// Dashboard narrows recs once and computes every view from the result.
func (e *Engine) Dashboard(recs []core.ExpenseRecord, f Filter) Dashboard {
	recs = f.Apply(recs)

	d := Dashboard{
		Filter:         f,
		AverageDaily:   AverageDailySpend(recs, All),
		Categories:     SumByCategory(recs, All),
		PaymentMethods: SumByPaymentMethod(recs, All),
		Themes:         SumByTheme(recs, All, e.themes),
		Weekly:         WeeklyWithinMonth(recs, All),
		Monthly:        MonthlyWithinYear(recs, All),
		Pivot:          PivotMonthly(recs, All),
	}
	d.Total, d.Count = d.Categories.Total, d.Categories.Count
	if top, ok := TopCategory(recs, All, e.exclude); ok {
		d.TopCategory = &top
	}
	return d
}
