package calendar

import (
	"fmt"
	"time"
)

// weekSpan is the width of the fixed buckets before the month tail.
const weekSpan = 7

// WeekBucket is a fixed day-of-month range: 01-07, 08-14, 15-21, 22-28 and
// 29 to the end of the month. Buckets ignore weekday alignment.
type WeekBucket struct {
	StartDay int
	EndDay   int
}

// WeekBucketFor returns the bucket of d's month that d falls into.
func WeekBucketFor(d time.Time) WeekBucket {
	year, month, day := d.Date()
	return bucketOf(day, DaysInMonth(year, month))
}

func bucketOf(day, last int) WeekBucket {
	idx := (day - 1) / weekSpan
	if idx > 3 {
		idx = 4
	}
	start := idx*weekSpan + 1
	end := start + weekSpan - 1
	if idx == 4 || end > last {
		end = last
	}
	return WeekBucket{StartDay: start, EndDay: end}
}

// WeekBuckets returns every bucket of the month in chronological order.
// February of a non-leap year has no tail bucket.
func WeekBuckets(year int, month time.Month) []WeekBucket {
	last := DaysInMonth(year, month)
	var out []WeekBucket
	for start := 1; start <= last; start += weekSpan {
		b := bucketOf(start, last)
		out = append(out, b)
		if b.EndDay == last {
			break
		}
	}
	return out
}

// Label formats the bucket with zero-padded days, e.g. "08-14" or "29-31".
func (b WeekBucket) Label() string {
	return fmt.Sprintf("%02d-%02d", b.StartDay, b.EndDay)
}

func (b WeekBucket) String() string {
	return b.Label()
}

// Contains reports whether day of month falls inside the bucket.
func (b WeekBucket) Contains(day int) bool {
	return day >= b.StartDay && day <= b.EndDay
}
