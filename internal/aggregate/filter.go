// Package aggregate computes summary views over canonical expense records.
// Every function is pure and returns a zero-valued result for empty input.
package aggregate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"expensedash/internal/core"
)

// Filter selects records by month and year. A zero field means "all".
type Filter struct {
	Month time.Month `json:"month,omitempty"`
	Year  int        `json:"year,omitempty"`
}

// All matches every record.
var All = Filter{}

// ParseFilter reads user-facing selectors. Each argument may be empty or
// "all"; month also accepts a number or an English month name.
func ParseFilter(month, year string) (Filter, error) {
	var f Filter

	month = strings.TrimSpace(month)
	if month != "" && !strings.EqualFold(month, "all") {
		m, err := parseMonth(month)
		if err != nil {
			return Filter{}, err
		}
		f.Month = m
	}

	year = strings.TrimSpace(year)
	if year != "" && !strings.EqualFold(year, "all") {
		y, err := strconv.Atoi(year)
		if err != nil || y < 1 || y > 9999 {
			return Filter{}, fmt.Errorf("invalid year %q", year)
		}
		f.Year = y
	}
	return f, nil
}

func parseMonth(s string) (time.Month, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("invalid month %q", s)
		}
		return time.Month(n), nil
	}
	for m := time.January; m <= time.December; m++ {
		name := m.String()
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("invalid month %q", s)
}

func (f Filter) Match(d core.Date) bool {
	if f.Year != 0 && d.Year() != f.Year {
		return false
	}
	if f.Month != 0 && d.Month() != f.Month {
		return false
	}
	return true
}

// Apply returns the records f matches, in input order.
func (f Filter) Apply(recs []core.ExpenseRecord) []core.ExpenseRecord {
	if f == All {
		return recs
	}
	out := make([]core.ExpenseRecord, 0, len(recs))
	for _, r := range recs {
		if f.Match(r.Date) {
			out = append(out, r)
		}
	}
	return out
}

func (f Filter) String() string {
	month, year := "all", "all"
	if f.Month != 0 {
		month = f.Month.String()
	}
	if f.Year != 0 {
		year = strconv.Itoa(f.Year)
	}
	return month + "/" + year
}
