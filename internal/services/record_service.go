package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"expensedash/internal/calendar"
	"expensedash/internal/core"
	applog "expensedash/internal/log"
	"expensedash/internal/sheets"
	"expensedash/internal/taxonomy"
)

const submissionDateLayout = "2006-01-02"

// Submission is the raw form input for a new expense.
type Submission struct {
	Name          string
	Category      string // empty asks the classifier
	Amount        string // payer's share; optional when a split is given
	Date          string // YYYY-MM-DD, empty means today
	PaymentMethod string

	Shared          bool
	OriginalAmount  string
	SplitBetween    int
	SplitPercentage float64
}

// SubmitResult describes a persisted submission.
type SubmitResult struct {
	Ref        string              `json:"ref"`
	Record     core.OutboundRecord `json:"record"`
	Classified bool                `json:"classified"`
}

// ValidationError reports the submission field that could not be accepted.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

var (
	ErrUnknownCategory      = errors.New("unknown category")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
)

// RecordService turns form submissions into outbound records.
type RecordService struct {
	tax        *taxonomy.Taxonomy
	classifier *taxonomy.Classifier
	writer     sheets.RecordWriter
	loc        *time.Location
	now        func() time.Time
	logger     *slog.Logger
}

type RecordOption func(*RecordService)

// WithClock overrides the time source used for default dates and time stamps.
func WithClock(now func() time.Time) RecordOption {
	return func(s *RecordService) { s.now = now }
}

// WithRecordLocation sets the zone dates and time stamps are expressed in.
func WithRecordLocation(loc *time.Location) RecordOption {
	return func(s *RecordService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithRecordLogger(l *slog.Logger) RecordOption {
	return func(s *RecordService) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewRecordService(tax *taxonomy.Taxonomy, classifier *taxonomy.Classifier, writer sheets.RecordWriter, opts ...RecordOption) *RecordService {
	s := &RecordService{
		tax:        tax,
		classifier: classifier,
		writer:     writer,
		loc:        time.UTC,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build validates sub and returns the canonical record it describes
// without persisting it. classified reports whether the classifier chose
// the category.
func (s *RecordService) Build(ctx context.Context, sub Submission) (rec core.ExpenseRecord, classified bool, err error) {
	now := s.now().In(s.loc)

	rec.Name = strings.TrimSpace(sub.Name)
	if rec.Name == "" {
		return rec, false, &ValidationError{Field: "expenseName", Err: core.ErrEmptyName}
	}

	rec.Date = core.DateOf(now)
	if d := strings.TrimSpace(sub.Date); d != "" {
		t, err := time.ParseInLocation(submissionDateLayout, d, s.loc)
		if err != nil {
			return rec, false, &ValidationError{Field: "date", Err: core.ErrInvalidDate}
		}
		rec.Date = core.DateOf(t)
	}

	method, ok := s.tax.PaymentMethod(sub.PaymentMethod)
	if !ok {
		return rec, false, &ValidationError{Field: "paymentMethod", Err: ErrUnknownPaymentMethod}
	}
	rec.PaymentMethod = method

	if c := strings.TrimSpace(sub.Category); c != "" {
		cat, ok := s.tax.Category(c)
		if !ok {
			return rec, false, &ValidationError{Field: "category", Err: ErrUnknownCategory}
		}
		rec.Category = cat
	} else {
		rec.Category = core.Miscellaneous
		if s.classifier != nil {
			rec.Category = s.classifier.Classify(ctx, rec.Name)
			classified = true
		}
	}

	if err := s.applyAmounts(&rec, sub); err != nil {
		return rec, classified, err
	}

	if s.tax.IsCreditCard(rec.PaymentMethod) {
		rec.BillingCycle = calendar.BillingCycleFor(rec.Date.Time).Label()
	}
	rec.TimeStamp = now

	if err := rec.Validate(); err != nil {
		return rec, classified, &ValidationError{Field: "record", Err: err}
	}
	return rec, classified, nil
}

// Submit builds the record and appends it to the configured writer.
func (s *RecordService) Submit(ctx context.Context, sub Submission) (SubmitResult, error) {
	rec, classified, err := s.Build(ctx, sub)
	if err != nil {
		return SubmitResult{}, err
	}

	out := core.ToOutbound(rec, s.now().In(s.loc))
	ref, err := s.writer.Append(ctx, out)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("append record: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense submitted",
		applog.FieldRef, ref,
		applog.FieldCategory, out.Category,
		applog.FieldPaymentMethod, out.PaymentMethod,
		applog.FieldAmount, out.Amount,
		"shared", rec.Shared,
		"classified", classified)

	return SubmitResult{Ref: ref, Record: out, Classified: classified}, nil
}

// applyAmounts resolves the payer's share. A shared submission with an
// original amount and a split derives the share; otherwise Amount is taken
// as given and the original defaults to it.
func (s *RecordService) applyAmounts(rec *core.ExpenseRecord, sub Submission) error {
	var amount core.Money
	if strings.TrimSpace(sub.Amount) != "" {
		m, err := core.ParseAmount(sub.Amount)
		if err != nil {
			return &ValidationError{Field: "amount", Err: err}
		}
		amount = m
	}

	if !sub.Shared {
		if amount.Cents == 0 {
			return &ValidationError{Field: "amount", Err: core.ErrInvalidAmount}
		}
		rec.Amount = amount
		return nil
	}

	rec.Shared = true
	original := amount
	if strings.TrimSpace(sub.OriginalAmount) != "" {
		m, err := core.ParseAmount(sub.OriginalAmount)
		if err != nil {
			return &ValidationError{Field: "originalAmount", Err: err}
		}
		original = m
	}
	if original.Cents == 0 {
		return &ValidationError{Field: "originalAmount", Err: core.ErrInvalidAmount}
	}
	rec.OriginalAmount = original

	switch {
	case sub.SplitBetween > 0:
		share, err := core.ShareByCount(original, sub.SplitBetween)
		if err != nil {
			return &ValidationError{Field: "splitBetween", Err: err}
		}
		rec.Amount = share
		rec.SplitCount = sub.SplitBetween
	case sub.SplitPercentage > 0:
		share, err := core.ShareByPercent(original, sub.SplitPercentage)
		if err != nil {
			return &ValidationError{Field: "sharedPercentage", Err: err}
		}
		rec.Amount = share
		rec.SplitPercentage = sub.SplitPercentage
	case amount.Cents > 0:
		rec.Amount = amount
	default:
		return &ValidationError{Field: "amount", Err: core.ErrInvalidAmount}
	}

	if rec.Amount.Cents > rec.OriginalAmount.Cents {
		return &ValidationError{Field: "amount", Err: core.ErrSharedExceedsOriginal}
	}
	return nil
}
