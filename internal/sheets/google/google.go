// Package google stores expense records in a Google Sheets tab whose first
// row holds the column names.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"expensedash/internal/core"
	ports "expensedash/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const DefaultSheetName = "Expenses"

// Options configures Client. Credentials come from CredentialsJSON,
// CredentialsFile, or GOOGLE_APPLICATION_CREDENTIALS, in that order.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	// DateColumn names the header whose serial-number cells are converted
	// back to ISO dates. Defaults to "date".
	DateColumn string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	dateColumn    string

	mu     sync.Mutex
	header []string
}

var _ ports.Store = (*Client)(nil)

func New(ctx context.Context, opts Options) (*Client, error) {
	id := strings.TrimSpace(opts.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := loadCredentials(opts.CredentialsJSON, opts.CredentialsFile)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", id)
	return newClient(svc, id, opts), nil
}

func newClient(svc *gsheet.Service, id string, opts Options) *Client {
	sheet := strings.TrimSpace(opts.SheetName)
	if sheet == "" {
		sheet = DefaultSheetName
	}
	dateCol := strings.TrimSpace(opts.DateColumn)
	if dateCol == "" {
		dateCol = "date"
	}
	return &Client{svc: svc, spreadsheetID: id, sheet: sheet, dateColumn: dateCol}
}

func loadCredentials(inline, file string) ([]byte, error) {
	inline = strings.TrimSpace(inline)
	file = strings.TrimSpace(file)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (c *Client) dataRange() string {
	return fmt.Sprintf("'%s'!A:Z", strings.ReplaceAll(c.sheet, "'", "''"))
}

// FetchRecords reads every row below the header.
func (c *Client) FetchRecords(ctx context.Context) ([]core.RawRecord, error) {
	const op = "fetch records"
	if c.svc == nil {
		return nil, ports.TransportError(op, errors.New("sheets service not initialized"))
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.dataRange()).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).Do()
	if err != nil {
		return nil, ports.TransportError(op, fmt.Errorf("read %s: %w", c.dataRange(), err))
	}
	if len(resp.Values) > 0 {
		c.setHeader(toStrings(resp.Values[0]))
	}
	return rowsToRecords(resp.Values, c.dateColumn), nil
}

// Append adds r as a new row, writing the header first on an empty sheet.
// Values are sent RAW so dates stay ISO strings.
func (c *Client) Append(ctx context.Context, r core.OutboundRecord) (string, error) {
	const op = "append record"
	if c.svc == nil {
		return "", ports.TransportError(op, errors.New("sheets service not initialized"))
	}

	header, err := c.ensureHeader(ctx)
	if err != nil {
		return "", ports.TransportError(op, err)
	}

	vr := &gsheet.ValueRange{Values: [][]any{rowFor(header, r.Raw())}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.dataRange(), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", ports.TransportError(op, fmt.Errorf("append to %s: %w", c.sheet, err))
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return c.sheet, nil
}

func (c *Client) setHeader(h []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.header = h
}

func (c *Client) ensureHeader(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	h := c.header
	c.mu.Unlock()
	if len(h) > 0 {
		return h, nil
	}

	rng := fmt.Sprintf("'%s'!1:1", strings.ReplaceAll(c.sheet, "'", "''"))
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", rng, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		h = toStrings(resp.Values[0])
		c.setHeader(h)
		return h, nil
	}

	h = append([]string(nil), core.OutboundColumns...)
	row := make([]any, len(h))
	for i, v := range h {
		row[i] = v
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{row}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("write header %s: %w", rng, err)
	}
	slog.InfoContext(ctx, "Wrote header row to empty sheet", "sheet", c.sheet)
	c.setHeader(h)
	return h, nil
}
