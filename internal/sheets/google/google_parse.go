package google

import (
	"fmt"
	"math"
	"strings"
	"time"

	"expensedash/internal/core"
)

// sheetsEpoch is day zero of the spreadsheet serial date system.
var sheetsEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// rowsToRecords maps data rows onto the header in values[0]. Trailing
// empty cells are omitted by the API, so short rows are common. Fully
// blank rows stay as empty records so record i is always sheet row i+2.
func rowsToRecords(values [][]any, dateColumn string) []core.RawRecord {
	if len(values) < 2 {
		return []core.RawRecord{}
	}
	header := toStrings(values[0])
	out := make([]core.RawRecord, 0, len(values)-1)
	for _, row := range values[1:] {
		rec := core.RawRecord{}
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if s, ok := cell.(string); ok && strings.TrimSpace(s) == "" {
				continue
			}
			if f, ok := cell.(float64); ok && strings.EqualFold(header[i], dateColumn) {
				cell = serialToISO(f)
			}
			rec[header[i]] = cell
		}
		out = append(out, rec)
	}
	return out
}

// serialToISO converts a serial day number to YYYY-MM-DD.
func serialToISO(serial float64) string {
	days := int(math.Floor(serial))
	return sheetsEpoch.AddDate(0, 0, days).Format("2006-01-02")
}

// rowFor lays out raw in header order. Columns the header lacks are
// dropped; header columns the record lacks are left blank.
func rowFor(header []string, raw core.RawRecord) []any {
	row := make([]any, len(header))
	for i, h := range header {
		v, ok := raw[h]
		if !ok {
			for k, val := range raw {
				if strings.EqualFold(k, h) {
					v, ok = val, true
					break
				}
			}
		}
		if !ok {
			row[i] = ""
			continue
		}
		row[i] = v
	}
	return row
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
