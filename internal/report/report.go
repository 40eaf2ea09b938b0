// Package report renders canonical records and summaries as CSV and as
// plain-text tables.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/gocarina/gocsv"

	"expensedash/internal/aggregate"
	"expensedash/internal/core"
)

// RecordRow is the CSV shape of one canonical record.
type RecordRow struct {
	Date            string `csv:"date"`
	Name            string `csv:"expenseName"`
	Category        string `csv:"category"`
	Theme           string `csv:"theme"`
	Amount          string `csv:"amount"`
	PaymentMethod   string `csv:"paymentMethod"`
	Shared          string `csv:"shared"`
	OriginalAmount  string `csv:"originalAmount"`
	SharePercentage string `csv:"sharedPercentage"`
	BillingCycle    string `csv:"billingCycle"`
}

// SummaryRow is the CSV shape of one aggregate.Row.
type SummaryRow struct {
	Key        string `csv:"key"`
	Amount     string `csv:"amount"`
	Count      int    `csv:"count"`
	Percentage string `csv:"percentage"`
}

// RecordRows converts records for export. th may be nil, leaving Theme blank.
func RecordRows(recs []core.ExpenseRecord, th aggregate.Themer) []RecordRow {
	rows := make([]RecordRow, 0, len(recs))
	for _, r := range recs {
		row := RecordRow{
			Date:            r.Date.ISO(),
			Name:            r.Name,
			Category:        string(r.Category),
			Amount:          r.Amount.String(),
			PaymentMethod:   string(r.PaymentMethod),
			Shared:          "No",
			OriginalAmount:  r.Amount.String(),
			SharePercentage: "100",
			BillingCycle:    r.BillingCycle,
		}
		if th != nil {
			row.Theme = string(th.Theme(r.Category))
		}
		if r.Shared {
			row.Shared = "Yes"
			row.OriginalAmount = r.OriginalAmount.String()
			pct := r.SplitPercentage
			if pct == 0 {
				pct = core.SharePercentage(r.Amount, r.OriginalAmount)
			}
			row.SharePercentage = strconv.FormatFloat(pct, 'f', -1, 64)
		}
		rows = append(rows, row)
	}
	return rows
}

// SummaryRows converts a summary for export.
func SummaryRows(s aggregate.Summary) []SummaryRow {
	rows := make([]SummaryRow, 0, len(s.Rows))
	for _, r := range s.Rows {
		rows = append(rows, SummaryRow{
			Key:        r.Key,
			Amount:     r.Amount.String(),
			Count:      r.Count,
			Percentage: formatPercent(r.Percentage),
		})
	}
	return rows
}

// WriteRecordsCSV writes recs as CSV with a header row.
func WriteRecordsCSV(w io.Writer, recs []core.ExpenseRecord, th aggregate.Themer) error {
	return writeCSV(w, RecordRows(recs, th))
}

// WriteSummaryCSV writes the summary rows as CSV with a header row.
func WriteSummaryCSV(w io.Writer, s aggregate.Summary) error {
	return writeCSV(w, SummaryRows(s))
}

func writeCSV[T any](w io.Writer, rows []T) error {
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csv.NewWriter(w))); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}
