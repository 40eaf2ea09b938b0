// Package normalize turns loosely-typed remote rows into canonical expense
// records. Bad rows are rejected one by one and reported; they never fail
// the batch.
package normalize

// Schema names the raw keys each canonical field is read from.
type Schema struct {
	Name          string
	Category      string
	Amount        string
	Date          string
	PaymentMethod string

	Shared           string
	OriginalAmount   string
	SplitBetween     string
	SharedPercentage string
	BillingCycle     string
	TimeStamp        string
}

// DefaultSchema matches the column names of the expense spreadsheet.
func DefaultSchema() Schema {
	return Schema{
		Name:             "expenseName",
		Category:         "category",
		Amount:           "amount",
		Date:             "date",
		PaymentMethod:    "paymentMethod",
		Shared:           "shared",
		OriginalAmount:   "originalAmount",
		SplitBetween:     "splitBetween",
		SharedPercentage: "sharedPercentage",
		BillingCycle:     "billingCycle",
		TimeStamp:        "timeStamp",
	}
}

// required lists the mandatory fields in the order they are checked.
func (s Schema) required() []string {
	return []string{s.Date, s.Amount, s.Category, s.PaymentMethod}
}

// withDefaults fills blank names from DefaultSchema.
func (s Schema) withDefaults() Schema {
	d := DefaultSchema()
	pick := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	return Schema{
		Name:             pick(s.Name, d.Name),
		Category:         pick(s.Category, d.Category),
		Amount:           pick(s.Amount, d.Amount),
		Date:             pick(s.Date, d.Date),
		PaymentMethod:    pick(s.PaymentMethod, d.PaymentMethod),
		Shared:           pick(s.Shared, d.Shared),
		OriginalAmount:   pick(s.OriginalAmount, d.OriginalAmount),
		SplitBetween:     pick(s.SplitBetween, d.SplitBetween),
		SharedPercentage: pick(s.SharedPercentage, d.SharedPercentage),
		BillingCycle:     pick(s.BillingCycle, d.BillingCycle),
		TimeStamp:        pick(s.TimeStamp, d.TimeStamp),
	}
}
