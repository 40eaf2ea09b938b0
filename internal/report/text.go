package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"text/tabwriter"

	"expensedash/internal/aggregate"
	"expensedash/internal/normalize"
)

// WriteSummaryTable renders s as an aligned text table under title.
func WriteSummaryTable(w io.Writer, title string, s aggregate.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\t\t\t\t\n", title)
	fmt.Fprintln(tw, "KEY\tAMOUNT\tCOUNT\tSHARE\t")
	for _, r := range s.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s%%\t\n", r.Key, r.Amount, r.Count, formatPercent(r.Percentage))
	}
	fmt.Fprintf(tw, "Total\t%s\t%d\t\t\n", s.Total, s.Count)
	return tw.Flush()
}

// WriteWeeklyTable renders the weekly breakdown in chronological order.
func WriteWeeklyTable(w io.Writer, rows []aggregate.WeeklyRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PERIOD\tWEEK\tCATEGORY\tAMOUNT")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s %d\t%s\t%s\t%s\n", r.Month.String()[:3], r.Year, r.Week, r.Category, r.Amount)
	}
	return tw.Flush()
}

// WritePivotTable renders periods as rows and categories as columns.
func WritePivotTable(w io.Writer, p aggregate.Pivot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprint(tw, "PERIOD")
	for _, c := range p.Categories {
		fmt.Fprintf(tw, "\t%s", c)
	}
	fmt.Fprintln(tw)
	for i, period := range p.Periods {
		fmt.Fprint(tw, period)
		for _, cell := range p.Cells[i] {
			fmt.Fprintf(tw, "\t%s", cell)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// WritePivotCSV writes the pivot with one column per category. The column
// set depends on the data, so it is written row by row rather than
// through struct tags.
func WritePivotCSV(w io.Writer, p aggregate.Pivot) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(p.Categories)+1)
	header = append(header, "period")
	for _, c := range p.Categories {
		header = append(header, string(c))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	for i, period := range p.Periods {
		row := make([]string, 0, len(header))
		row = append(row, period)
		for _, cell := range p.Cells[i] {
			row = append(row, cell.String())
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDashboard renders the headline figures and the three summaries.
// failure is the boundary failure kind, empty when the fetch succeeded.
func WriteDashboard(w io.Writer, d aggregate.Dashboard, rep normalize.Report, failure string) error {
	if failure != "" {
		fmt.Fprintf(w, "No data to display (%s error fetching records)\n", failure)
		return nil
	}
	if d.Count == 0 {
		fmt.Fprintf(w, "No data to display for %s\n", d.Filter)
		return nil
	}

	fmt.Fprintf(w, "Period:          %s\n", d.Filter)
	fmt.Fprintf(w, "Total:           %s (%d records)\n", d.Total, d.Count)
	fmt.Fprintf(w, "Average per day: %s\n", d.AverageDaily)
	if d.TopCategory != nil {
		fmt.Fprintf(w, "Top category:    %s (%s)\n", d.TopCategory.Key, d.TopCategory.Amount)
	}
	for _, line := range rep.Summary() {
		fmt.Fprintf(w, "Note: %s\n", line)
	}
	fmt.Fprintln(w)

	sections := []struct {
		title string
		s     aggregate.Summary
	}{
		{"By category", d.Categories},
		{"By payment method", d.PaymentMethods},
		{"By theme", d.Themes},
	}
	for _, sec := range sections {
		if err := WriteSummaryTable(w, sec.title, sec.s); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return nil
}
