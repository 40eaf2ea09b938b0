package http

import (
	"net/http"
	"strings"
	"time"

	"expensedash/internal/aggregate"
)

const isoDateLayout = "2006-01-02"

// parseFilter reads month and year from the query string.
func parseFilter(r *http.Request) (aggregate.Filter, error) {
	q := r.URL.Query()
	return aggregate.ParseFilter(q.Get("month"), q.Get("year"))
}

// parseDate parses a date string in YYYY-MM-DD format in loc.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(isoDateLayout, strings.TrimSpace(s), loc)
}

// sanitizeInput removes control characters other than tab, newline and
// carriage return, then trims whitespace.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
