package core

import "time"

// TimeStampLayout is the wire layout of OutboundRecord.TimeStamp.
const TimeStampLayout = "2006-01-02 15:04:05"

// OutboundRecord is the flat shape submitted to the remote store. Key
// casing matches the existing spreadsheet columns.
type OutboundRecord struct {
	ExpenseName      string  `json:"expenseName" csv:"expenseName"`
	Category         string  `json:"category" csv:"category"`
	Amount           float64 `json:"amount" csv:"amount"`
	OriginalAmount   float64 `json:"originalAmount" csv:"originalAmount"`
	Date             string  `json:"date" csv:"date"`
	Month            string  `json:"month" csv:"month"`
	Year             int     `json:"year" csv:"year"`
	PaymentMethod    string  `json:"paymentMethod" csv:"paymentMethod"`
	Shared           string  `json:"shared" csv:"shared"`
	SharedPercentage float64 `json:"sharedPercentage" csv:"sharedPercentage"`
	BillingCycle     string  `json:"billingCycle" csv:"billingCycle"`
	TimeStamp        string  `json:"timeStamp" csv:"timeStamp"`
}

// OutboundColumns lists the spreadsheet columns in write order.
var OutboundColumns = []string{
	"expenseName", "category", "amount", "originalAmount", "date", "month", "year",
	"paymentMethod", "shared", "sharedPercentage", "billingCycle", "timeStamp",
}

// ToOutbound converts a canonical record into the wire shape. now is used
// when the record carries no time stamp of its own.
func ToOutbound(r ExpenseRecord, now time.Time) OutboundRecord {
	ts := r.TimeStamp
	if ts.IsZero() {
		ts = now
	}
	out := OutboundRecord{
		ExpenseName:      r.Name,
		Category:         string(r.Category),
		Amount:           r.Amount.Major(),
		OriginalAmount:   r.Amount.Major(),
		Date:             r.Date.ISO(),
		Month:            r.Date.Month().String(),
		Year:             r.Date.Year(),
		PaymentMethod:    string(r.PaymentMethod),
		Shared:           "No",
		SharedPercentage: 100,
		BillingCycle:     r.BillingCycle,
		TimeStamp:        ts.Format(TimeStampLayout),
	}
	if r.Shared {
		out.Shared = "Yes"
		out.OriginalAmount = r.OriginalAmount.Major()
		out.SharedPercentage = SharePercentage(r.Amount, r.OriginalAmount)
		if r.SplitPercentage > 0 {
			out.SharedPercentage = r.SplitPercentage
		}
	}
	return out
}

// Row returns the record's values in OutboundColumns order.
func (o OutboundRecord) Row() []any {
	return []any{
		o.ExpenseName, o.Category, o.Amount, o.OriginalAmount, o.Date, o.Month, o.Year,
		o.PaymentMethod, o.Shared, o.SharedPercentage, o.BillingCycle, o.TimeStamp,
	}
}

// Raw returns the record as a RawRecord keyed by the wire column names, so
// locally stored rows flow through the same normalization as remote ones.
func (o OutboundRecord) Raw() RawRecord {
	row := o.Row()
	raw := make(RawRecord, len(OutboundColumns))
	for i, col := range OutboundColumns {
		raw[col] = row[i]
	}
	return raw
}
