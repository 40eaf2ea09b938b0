package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"expensedash/internal/calendar"
	"expensedash/internal/core"
	"expensedash/internal/taxonomy"
)

// DefaultDateLayouts are tried in order. Layouts carrying a zone are
// converted to the normalizer's location before the day is taken.
var DefaultDateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	core.TimeStampLayout,
	"2006/01/02",
}

// chunkSize is the number of rows one worker handles per task.
const chunkSize = 256

// Result is the canonical output of a batch.
type Result struct {
	Records []core.ExpenseRecord
	Report  Report
}

type Normalizer struct {
	tax     *taxonomy.Taxonomy
	schema  Schema
	layouts []string
	loc     *time.Location
	workers int
}

type Option func(*Normalizer)

func WithSchema(s Schema) Option {
	return func(n *Normalizer) { n.schema = s.withDefaults() }
}

func WithDateLayouts(layouts ...string) Option {
	return func(n *Normalizer) {
		if len(layouts) > 0 {
			n.layouts = layouts
		}
	}
}

// WithLocation sets the zone zoned timestamps are converted to. Remote
// stores often serialize a local midnight as the previous day in UTC.
func WithLocation(loc *time.Location) Option {
	return func(n *Normalizer) {
		if loc != nil {
			n.loc = loc
		}
	}
}

func WithWorkers(w int) Option {
	return func(n *Normalizer) {
		if w > 0 {
			n.workers = w
		}
	}
}

func New(tax *taxonomy.Taxonomy, opts ...Option) *Normalizer {
	n := &Normalizer{
		tax:     tax,
		schema:  DefaultSchema(),
		layouts: DefaultDateLayouts,
		loc:     time.UTC,
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type outcome struct {
	rec           core.ExpenseRecord
	rejection     *Rejection
	coercedCat    bool
	coercedMethod bool
}

// Normalize converts raws into canonical records. Output order follows
// input order; rows are processed in parallel chunks.
func (n *Normalizer) Normalize(raws []core.RawRecord) Result {
	outcomes := make([]outcome, len(raws))

	var g errgroup.Group
	g.SetLimit(n.workers)
	for start := 0; start < len(raws); start += chunkSize {
		end := min(start+chunkSize, len(raws))
		g.Go(func() error {
			for i := start; i < end; i++ {
				outcomes[i] = n.one(i, raws[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Report: Report{Total: len(raws)}}
	for _, o := range outcomes {
		if o.rejection != nil {
			res.Report.Rejections = append(res.Report.Rejections, *o.rejection)
			continue
		}
		if o.coercedCat {
			res.Report.CoercedCategories++
		}
		if o.coercedMethod {
			res.Report.CoercedMethods++
		}
		res.Records = append(res.Records, o.rec)
	}
	res.Report.Accepted = len(res.Records)
	return res
}

// One normalizes a single row, for callers that validate records one at a
// time.
func (n *Normalizer) One(raw core.RawRecord) (core.ExpenseRecord, *Rejection) {
	o := n.one(0, raw)
	return o.rec, o.rejection
}

func (n *Normalizer) one(idx int, raw core.RawRecord) outcome {
	s := n.schema
	reject := func(field, reason string) outcome {
		return outcome{rejection: &Rejection{Index: idx, Field: field, Reason: reason}}
	}

	for _, f := range s.required() {
		if _, ok := lookup(raw, f); !ok {
			return reject(f, MissingField(f))
		}
	}

	dateVal, _ := lookup(raw, s.Date)
	date, err := n.parseDate(dateVal)
	if err != nil {
		return reject(s.Date, ReasonInvalidDate)
	}

	amountVal, _ := lookup(raw, s.Amount)
	amount, err := core.ParseAmount(amountVal)
	if err != nil {
		return reject(s.Amount, ReasonInvalidAmount)
	}

	var o outcome
	rec := core.ExpenseRecord{Amount: amount, Date: date}

	catVal, _ := lookup(raw, s.Category)
	if cat, ok := n.tax.Category(text(catVal)); ok {
		rec.Category = cat
	} else {
		rec.Category = core.Miscellaneous
		o.coercedCat = true
	}

	pmVal, _ := lookup(raw, s.PaymentMethod)
	if pm, ok := n.tax.PaymentMethod(text(pmVal)); ok {
		rec.PaymentMethod = pm
	} else {
		rec.PaymentMethod = n.tax.FallbackPaymentMethod()
		o.coercedMethod = true
	}

	if v, ok := lookup(raw, s.Name); ok {
		rec.Name = text(v)
	}
	if rec.Name == "" {
		rec.Name = string(rec.Category)
	}

	if v, ok := lookup(raw, s.Shared); ok && truthy(v) {
		rec.Shared = true
		rec.OriginalAmount = amount
		if ov, ok := lookup(raw, s.OriginalAmount); ok {
			orig, err := core.ParseAmount(ov)
			if err != nil || orig.Cents < amount.Cents {
				return reject(s.OriginalAmount, ReasonInvalidShared)
			}
			rec.OriginalAmount = orig
		}
		if v, ok := lookup(raw, s.SplitBetween); ok {
			if count, err := strconv.Atoi(text(v)); err == nil && count > 0 {
				rec.SplitCount = count
			}
		}
		rec.SplitPercentage = core.SharePercentage(rec.Amount, rec.OriginalAmount)
		if v, ok := lookup(raw, s.SharedPercentage); ok {
			if pct, err := strconv.ParseFloat(text(v), 64); err == nil && pct > 0 && pct <= 100 {
				rec.SplitPercentage = pct
			}
		}
	}

	if n.tax.IsCreditCard(rec.PaymentMethod) {
		rec.BillingCycle = calendar.BillingCycleFor(rec.Date.Time).Label()
		if v, ok := lookup(raw, s.BillingCycle); ok {
			rec.BillingCycle = text(v)
		}
	}

	if v, ok := lookup(raw, s.TimeStamp); ok {
		rec.TimeStamp = n.parseTimeStamp(v)
	}

	o.rec = rec
	return o
}

func (n *Normalizer) parseDate(v any) (core.Date, error) {
	switch x := v.(type) {
	case time.Time:
		return core.DateOf(x.In(n.loc)), nil
	case core.Date:
		return x, x.Validate()
	}
	s := text(v)
	for _, layout := range n.layouts {
		t, err := time.ParseInLocation(layout, s, n.loc)
		if err != nil {
			continue
		}
		return core.DateOf(t.In(n.loc)), nil
	}
	return core.Date{}, core.ErrInvalidDate
}

func (n *Normalizer) parseTimeStamp(v any) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x
	case float64:
		return n.serialTime(x)
	case int:
		return n.serialTime(float64(x))
	case int64:
		return n.serialTime(float64(x))
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return n.serialTime(f)
		}
	}
	s := text(v)
	for _, layout := range []string{core.TimeStampLayout, time.RFC3339Nano, time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, n.loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

// serialTime reads a spreadsheet serial number (days since 1899-12-30,
// fraction is the time of day) as wall-clock time in the normalizer's zone.
func (n *Normalizer) serialTime(serial float64) time.Time {
	if serial <= 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}
	}
	days := math.Floor(serial)
	secs := int(math.Round((serial - days) * 24 * 60 * 60))
	return time.Date(1899, time.December, 30+int(days), 0, 0, secs, 0, n.loc)
}

// lookup returns raw[key], falling back to a case-insensitive match so
// spreadsheet headers like "PaymentMethod" still resolve. Nil values and
// blank strings count as missing.
func lookup(raw core.RawRecord, key string) (any, bool) {
	v, ok := raw[key]
	if !ok {
		for k, val := range raw {
			if strings.EqualFold(k, key) {
				v, ok = val, true
				break
			}
		}
	}
	if !ok || v == nil {
		return nil, false
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

func text(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	}
	switch strings.ToLower(text(v)) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}
