// Package calendar derives credit-card billing cycles and fixed
// day-of-month week buckets from transaction dates.
package calendar

import (
	"fmt"
	"time"
)

const (
	// BillingAnchorDay is the day of month every billing cycle starts and ends on.
	BillingAnchorDay = 25
	// BillingCutoffDay is the first day of month attributed to the cycle that
	// starts in the same month. Days before it belong to the cycle that
	// started the previous month.
	BillingCutoffDay = 16
)

// BillingCycle is a 25th-to-25th statement window.
type BillingCycle struct {
	Start time.Time
	End   time.Time
}

// BillingCycleFor returns the billing cycle a transaction dated d falls into.
func BillingCycleFor(d time.Time) BillingCycle {
	year, month, day := d.Date()
	startMonth := month
	if day < BillingCutoffDay {
		startMonth = month - 1
	}
	// time.Date normalizes month 0 and 13 across year boundaries.
	start := time.Date(year, startMonth, BillingAnchorDay, 0, 0, 0, 0, time.UTC)
	end := time.Date(start.Year(), start.Month()+1, BillingAnchorDay, 0, 0, 0, 0, time.UTC)
	return BillingCycle{Start: start, End: end}
}

// Label formats the cycle as "Nov 25 - Dec 25".
func (c BillingCycle) Label() string {
	return fmt.Sprintf("%s - %s", c.Start.Format("Jan 2"), c.End.Format("Jan 2"))
}

func (c BillingCycle) String() string {
	return c.Label()
}

// DaysInMonth returns the number of days in the given month, leap years included.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// PeriodLabel formats a year and month as "Jan 2024".
func PeriodLabel(year int, month time.Month) string {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
}
