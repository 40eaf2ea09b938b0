package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// Miscellaneous is the fallback category every taxonomy must contain.
	Miscellaneous Category = "Miscellaneous"

	CostOfLiving Theme = "Cost of living"
	GoingOut     Theme = "Going out"
	Incidentals  Theme = "Incidentals"
	OtherTheme   Theme = "Other"
)

type (
	Category      string
	PaymentMethod string
	Theme         string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// RawRecord is one loosely-typed row as it arrives from the remote store.
	RawRecord map[string]any

	// ExpenseRecord is a canonical record: validated, type-coerced and safe
	// for aggregation.
	ExpenseRecord struct {
		Name          string
		Category      Category
		Amount        Money // payer's own share when Shared
		Date          Date
		PaymentMethod PaymentMethod

		Shared          bool
		OriginalAmount  Money   // pre-split total, zero unless Shared
		SplitCount      int     // number of parties, zero when unknown
		SplitPercentage float64 // payer's share in percent, zero when unknown

		// BillingCycle is set only for credit-card records.
		BillingCycle string
		TimeStamp    time.Time
	}
)

var (
	ErrInvalidDate           = errors.New("invalid date")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrEmptyName             = errors.New("empty expense name")
	ErrEmptyCategory         = errors.New("empty category")
	ErrEmptyPaymentMethod    = errors.New("empty payment method")
	ErrSharedExceedsOriginal = errors.New("shared amount exceeds original amount")
	ErrInvalidSplit          = errors.New("invalid split")
)

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// ISO returns the date as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

// DaysUntil returns the number of calendar days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Sub(d.Time).Hours() / 24)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e ExpenseRecord) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return errors.New("expense name too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(string(e.Category)) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(string(e.PaymentMethod)) == "" {
		return ErrEmptyPaymentMethod
	}
	if e.Shared {
		if err := e.OriginalAmount.Validate(); err != nil {
			return ErrInvalidSplit
		}
		if e.Amount.Cents > e.OriginalAmount.Cents {
			return ErrSharedExceedsOriginal
		}
	}
	return nil
}
