package aggregate

import (
	"sort"
	"time"

	"expensedash/internal/calendar"
	"expensedash/internal/core"
)

// WeeklyRow is the total of one category within one day-range bucket.
type WeeklyRow struct {
	Year     int           `json:"year"`
	Month    time.Month    `json:"month"`
	Week     string        `json:"week"`
	Category core.Category `json:"category"`
	Amount   core.Money    `json:"amount"`
	Count    int           `json:"count"`

	bucket calendar.WeekBucket
}

// SortKey orders rows chronologically regardless of label formatting.
func (r WeeklyRow) SortKey() int {
	return r.Year*10000 + int(r.Month)*100 + r.bucket.StartDay
}

// MonthlyRow is the total of one category within one month.
type MonthlyRow struct {
	Year     int           `json:"year"`
	Month    time.Month    `json:"month"`
	Label    string        `json:"label"`
	Category core.Category `json:"category"`
	Amount   core.Money    `json:"amount"`
	Count    int           `json:"count"`
}

func (r MonthlyRow) SortKey() int {
	return r.Year*100 + int(r.Month)
}

// WeeklyWithinMonth groups by (year, month, week bucket, category).
func WeeklyWithinMonth(recs []core.ExpenseRecord, f Filter) []WeeklyRow {
	type key struct {
		year  int
		month time.Month
		start int
		cat   core.Category
	}
	index := make(map[key]int)
	rows := []WeeklyRow{}
	for _, r := range f.Apply(recs) {
		b := calendar.WeekBucketFor(r.Date.Time)
		k := key{r.Date.Year(), r.Date.Month(), b.StartDay, r.Category}
		i, ok := index[k]
		if !ok {
			i = len(rows)
			index[k] = i
			rows = append(rows, WeeklyRow{
				Year: k.year, Month: k.month, Week: b.Label(), Category: r.Category, bucket: b,
			})
		}
		rows[i].Amount = rows[i].Amount.Add(r.Amount)
		rows[i].Count++
	}
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].SortKey() < rows[b].SortKey() })
	return rows
}

// MonthlyWithinYear groups by (year, month, category).
func MonthlyWithinYear(recs []core.ExpenseRecord, f Filter) []MonthlyRow {
	type key struct {
		year  int
		month time.Month
		cat   core.Category
	}
	index := make(map[key]int)
	rows := []MonthlyRow{}
	for _, r := range f.Apply(recs) {
		k := key{r.Date.Year(), r.Date.Month(), r.Category}
		i, ok := index[k]
		if !ok {
			i = len(rows)
			index[k] = i
			rows = append(rows, MonthlyRow{
				Year: k.year, Month: k.month, Label: calendar.PeriodLabel(k.year, k.month), Category: r.Category,
			})
		}
		rows[i].Amount = rows[i].Amount.Add(r.Amount)
		rows[i].Count++
	}
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].SortKey() < rows[b].SortKey() })
	return rows
}

// Pivot is a periods by categories matrix. Missing cells are zero.
type Pivot struct {
	Periods    []string        `json:"periods"`
	Categories []core.Category `json:"categories"`
	Cells      [][]core.Money  `json:"cells"`
}

// PivotMonthly spreads MonthlyWithinYear into a matrix with chronological
// periods and categories in first-seen order.
func PivotMonthly(recs []core.ExpenseRecord, f Filter) Pivot {
	rows := MonthlyWithinYear(recs, f)
	p := Pivot{Periods: []string{}, Categories: []core.Category{}, Cells: [][]core.Money{}}

	periodIdx := make(map[int]int)
	catIdx := make(map[core.Category]int)
	for _, r := range f.Apply(recs) {
		if _, ok := catIdx[r.Category]; !ok {
			catIdx[r.Category] = len(p.Categories)
			p.Categories = append(p.Categories, r.Category)
		}
	}
	for _, r := range rows {
		if _, ok := periodIdx[r.SortKey()]; !ok {
			periodIdx[r.SortKey()] = len(p.Periods)
			p.Periods = append(p.Periods, r.Label)
			p.Cells = append(p.Cells, make([]core.Money, len(p.Categories)))
		}
	}
	for _, r := range rows {
		p.Cells[periodIdx[r.SortKey()]][catIdx[r.Category]] = r.Amount
	}
	return p
}
