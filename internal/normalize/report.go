package normalize

import (
	"fmt"
	"sort"
	"strings"
)

const (
	ReasonInvalidDate   = "invalid date"
	ReasonInvalidAmount = "invalid amount"
	ReasonInvalidShared = "invalid shared amount"

	missingFieldPrefix = "missing field: "
)

// MissingField is the rejection reason for an absent required field.
func MissingField(field string) string {
	return missingFieldPrefix + field
}

// Rejection describes one dropped row. Index is the row's position in the
// input batch.
type Rejection struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Report summarizes one Normalize call.
type Report struct {
	Total             int         `json:"total"`
	Accepted          int         `json:"accepted"`
	Rejections        []Rejection `json:"rejections"`
	CoercedCategories int         `json:"coercedCategories"`
	CoercedMethods    int         `json:"coercedPaymentMethods"`
}

// ByReason counts rejections per reason.
func (r Report) ByReason() map[string]int {
	counts := make(map[string]int, len(r.Rejections))
	for _, rej := range r.Rejections {
		counts[rej.Reason]++
	}
	return counts
}

// Summary renders field-level totals such as "3 records had invalid dates",
// sorted for stable output.
func (r Report) Summary() []string {
	var lines []string
	for reason, n := range r.ByReason() {
		lines = append(lines, describe(reason, n))
	}
	sort.Strings(lines)
	if r.CoercedCategories > 0 {
		lines = append(lines, fmt.Sprintf("%d %s coerced to Miscellaneous", r.CoercedCategories, plural(r.CoercedCategories, "category", "categories")))
	}
	if r.CoercedMethods > 0 {
		lines = append(lines, fmt.Sprintf("%d %s coerced to the fallback", r.CoercedMethods, plural(r.CoercedMethods, "payment method", "payment methods")))
	}
	return lines
}

func describe(reason string, n int) string {
	records := plural(n, "record", "records")
	switch {
	case reason == ReasonInvalidDate:
		return fmt.Sprintf("%d %s had invalid dates", n, records)
	case reason == ReasonInvalidAmount:
		return fmt.Sprintf("%d %s had invalid amounts", n, records)
	case reason == ReasonInvalidShared:
		return fmt.Sprintf("%d %s had invalid shared amounts", n, records)
	case strings.HasPrefix(reason, missingFieldPrefix):
		return fmt.Sprintf("%d %s %s missing %s", n, records, plural(n, "was", "were"), strings.TrimPrefix(reason, missingFieldPrefix))
	default:
		return fmt.Sprintf("%d %s: %s", n, records, reason)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
