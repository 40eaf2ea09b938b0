package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"expensedash/internal/core"
	"expensedash/internal/taxonomy"
)

func personal(t *testing.T) *taxonomy.Taxonomy {
	t.Helper()
	tax, err := taxonomy.Preset(taxonomy.PresetPersonal)
	if err != nil {
		t.Fatalf("Preset: %v", err)
	}
	return tax
}

func valid() core.RawRecord {
	return core.RawRecord{
		"expenseName":   "Veggies",
		"category":      "Groceries",
		"amount":        "250.50",
		"date":          "2024-01-15",
		"paymentMethod": "UPI",
	}
}

func TestNormalizeOneValidOneBadAmount(t *testing.T) {
	bad := valid()
	bad["amount"] = "twelve"

	res := New(personal(t)).Normalize([]core.RawRecord{valid(), bad})

	if len(res.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(res.Records))
	}
	if len(res.Report.Rejections) != 1 {
		t.Fatalf("rejections = %d, want 1", len(res.Report.Rejections))
	}
	rej := res.Report.Rejections[0]
	if rej.Reason != ReasonInvalidAmount || rej.Index != 1 || rej.Field != "amount" {
		t.Fatalf("rejection = %+v", rej)
	}
	rec := res.Records[0]
	if rec.Amount.Cents != 25050 || rec.Category != "Groceries" || rec.PaymentMethod != "UPI" {
		t.Fatalf("record = %+v", rec)
	}
	if res.Report.Total != 2 || res.Report.Accepted != 1 {
		t.Fatalf("report = %+v", res.Report)
	}
}

func TestNormalizeRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(core.RawRecord)
		reason string
	}{
		{"missing date", func(r core.RawRecord) { delete(r, "date") }, "missing field: date"},
		{"blank category", func(r core.RawRecord) { r["category"] = "  " }, "missing field: category"},
		{"nil payment method", func(r core.RawRecord) { r["paymentMethod"] = nil }, "missing field: paymentMethod"},
		{"missing amount", func(r core.RawRecord) { delete(r, "amount") }, "missing field: amount"},
		{"bad date", func(r core.RawRecord) { r["date"] = "15th of Jan" }, ReasonInvalidDate},
		{"impossible date", func(r core.RawRecord) { r["date"] = "2023-02-29" }, ReasonInvalidDate},
		{"zero amount", func(r core.RawRecord) { r["amount"] = 0.0 }, ReasonInvalidAmount},
		{"negative amount", func(r core.RawRecord) { r["amount"] = "-20" }, ReasonInvalidAmount},
		{"shared above original", func(r core.RawRecord) {
			r["shared"] = "Yes"
			r["originalAmount"] = 100.0
		}, ReasonInvalidShared},
		{"shared with bad original", func(r core.RawRecord) {
			r["shared"] = true
			r["originalAmount"] = "n/a"
		}, ReasonInvalidShared},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := valid()
			tt.mutate(raw)
			res := New(personal(t)).Normalize([]core.RawRecord{raw})
			if len(res.Records) != 0 {
				t.Fatalf("expected rejection, got %+v", res.Records)
			}
			if got := res.Report.Rejections[0].Reason; got != tt.reason {
				t.Fatalf("reason = %q want %q", got, tt.reason)
			}
		})
	}
}

func TestNormalizeCoercions(t *testing.T) {
	raw := valid()
	raw["category"] = "Spaceship parts"
	raw["paymentMethod"] = "Barter"
	delete(raw, "expenseName")

	res := New(personal(t)).Normalize([]core.RawRecord{raw})
	if len(res.Records) != 1 {
		t.Fatalf("expected record, got report %+v", res.Report)
	}
	rec := res.Records[0]
	if rec.Category != core.Miscellaneous {
		t.Fatalf("category = %q", rec.Category)
	}
	if rec.PaymentMethod != "Other" {
		t.Fatalf("payment method = %q", rec.PaymentMethod)
	}
	if rec.Name != "Miscellaneous" {
		t.Fatalf("name = %q, want category fallback", rec.Name)
	}
	if res.Report.CoercedCategories != 1 || res.Report.CoercedMethods != 1 {
		t.Fatalf("report = %+v", res.Report)
	}
}

func TestNormalizeSharedAndCreditCard(t *testing.T) {
	raw := valid()
	raw["amount"] = 300.0
	raw["shared"] = "Yes"
	raw["originalAmount"] = "900"
	raw["splitBetween"] = "3"
	raw["paymentMethod"] = "credit card"
	raw["date"] = "2024-12-20"
	raw["timeStamp"] = "2024-12-20 21:15:00"

	res := New(personal(t)).Normalize([]core.RawRecord{raw})
	if len(res.Records) != 1 {
		t.Fatalf("report = %+v", res.Report)
	}
	rec := res.Records[0]
	if !rec.Shared || rec.OriginalAmount.Cents != 90000 || rec.SplitCount != 3 {
		t.Fatalf("shared fields = %+v", rec)
	}
	if rec.SplitPercentage != 33.33 {
		t.Fatalf("split percentage = %v", rec.SplitPercentage)
	}
	if rec.PaymentMethod != "Credit Card" || rec.BillingCycle != "Dec 25 - Jan 25" {
		t.Fatalf("billing = %q %q", rec.PaymentMethod, rec.BillingCycle)
	}
	if rec.TimeStamp.Hour() != 21 {
		t.Fatalf("timestamp = %v", rec.TimeStamp)
	}

	// Shared without an original amount is treated as a full share.
	raw = valid()
	raw["shared"] = "yes"
	res = New(personal(t)).Normalize([]core.RawRecord{raw})
	rec = res.Records[0]
	if rec.OriginalAmount != rec.Amount || rec.SplitPercentage != 100 {
		t.Fatalf("record = %+v", rec)
	}

	// Non credit-card rows carry no billing cycle even when the raw row does.
	raw = valid()
	raw["billingCycle"] = "Jan 25 - Feb 25"
	if got := New(personal(t)).Normalize([]core.RawRecord{raw}).Records[0].BillingCycle; got != "" {
		t.Fatalf("billing cycle = %q", got)
	}
}

func TestNormalizeZonedDates(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	raw := valid()
	raw["date"] = "2024-01-14T18:30:00.000Z"

	utc := New(personal(t)).Normalize([]core.RawRecord{raw}).Records[0]
	if got := utc.Date.ISO(); got != "2024-01-14" {
		t.Fatalf("UTC date = %s", got)
	}
	local := New(personal(t), WithLocation(ist)).Normalize([]core.RawRecord{raw}).Records[0]
	if got := local.Date.ISO(); got != "2024-01-15" {
		t.Fatalf("IST date = %s", got)
	}
}

func TestNormalizeSerialTimeStamps(t *testing.T) {
	want := time.Date(2024, time.January, 15, 18, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   any
		want time.Time
	}{
		{name: "float serial", in: 45306.75, want: want},
		{name: "json number serial", in: json.Number("45306.75"), want: want},
		{name: "whole day", in: 45306, want: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)},
		{name: "formatted text", in: "2024-01-15 18:00:00", want: want},
		{name: "zero serial", in: 0.0, want: time.Time{}},
		{name: "garbage", in: "soon", want: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := valid()
			raw["timeStamp"] = tt.in
			res := New(personal(t)).Normalize([]core.RawRecord{raw})
			if len(res.Records) != 1 {
				t.Fatalf("expected record, got report %+v", res.Report)
			}
			if got := res.Records[0].TimeStamp; !got.Equal(tt.want) {
				t.Errorf("TimeStamp = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeSerialTimeStampUsesLocation(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	raw := valid()
	raw["timeStamp"] = 45306.75

	got := New(personal(t), WithLocation(ist)).Normalize([]core.RawRecord{raw}).Records[0].TimeStamp
	want := time.Date(2024, time.January, 15, 18, 0, 0, 0, ist)
	if !got.Equal(want) {
		t.Errorf("TimeStamp = %v, want %v", got, want)
	}
}

func TestNormalizeCustomSchema(t *testing.T) {
	raw := core.RawRecord{
		"Item":    "Cab home",
		"Type":    "Auto/Cab",
		"Cost":    float64(180),
		"When":    "2024-03-02",
		"PaidVia": "Cash",
	}
	n := New(personal(t), WithSchema(Schema{
		Name: "Item", Category: "Type", Amount: "Cost", Date: "When", PaymentMethod: "PaidVia",
	}))
	res := n.Normalize([]core.RawRecord{raw})
	if len(res.Records) != 1 || res.Records[0].Name != "Cab home" {
		t.Fatalf("result = %+v", res)
	}
}

func TestNormalizeCaseInsensitiveKeys(t *testing.T) {
	raw := core.RawRecord{
		"Category":      "Gas",
		"Amount":        "1,200",
		"Date":          "2024-03-02",
		"PaymentMethod": "Cash",
	}
	res := New(personal(t)).Normalize([]core.RawRecord{raw})
	if len(res.Records) != 1 || res.Records[0].Amount.Cents != 120000 {
		t.Fatalf("result = %+v", res)
	}
}

func TestNormalizePreservesOrderAcrossChunks(t *testing.T) {
	raws := make([]core.RawRecord, 3*chunkSize+7)
	for i := range raws {
		r := valid()
		r["expenseName"] = fmt.Sprintf("row-%d", i)
		if i%10 == 0 {
			r["date"] = "bogus"
		}
		raws[i] = r
	}
	res := New(personal(t), WithWorkers(4)).Normalize(raws)

	prev := -1
	for _, rec := range res.Records {
		var idx int
		if _, err := fmt.Sscanf(rec.Name, "row-%d", &idx); err != nil {
			t.Fatalf("name %q: %v", rec.Name, err)
		}
		if idx <= prev {
			t.Fatalf("order broken: %d after %d", idx, prev)
		}
		prev = idx
	}
	if want := len(raws) / 10; len(res.Report.Rejections) != want+1 {
		t.Fatalf("rejections = %d want %d", len(res.Report.Rejections), want+1)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	res := New(personal(t)).Normalize(nil)
	if len(res.Records) != 0 || res.Report.Total != 0 || len(res.Report.Summary()) != 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestReportSummary(t *testing.T) {
	r := Report{
		Rejections: []Rejection{
			{Reason: ReasonInvalidDate}, {Reason: ReasonInvalidDate}, {Reason: ReasonInvalidDate},
			{Reason: ReasonInvalidAmount},
			{Reason: MissingField("category")},
		},
		CoercedCategories: 2,
	}
	got := strings.Join(r.Summary(), "\n")
	for _, want := range []string{
		"3 records had invalid dates",
		"1 record had invalid amounts",
		"1 record was missing category",
		"2 categories coerced to Miscellaneous",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}
