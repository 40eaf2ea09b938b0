package adapters

import (
	"context"

	"expensedash/internal/core"
	"expensedash/internal/services"
	"expensedash/internal/sheets"
	"expensedash/internal/storage"
)

// SQLiteAdapter presents the SQLite log plus AMQP publishing as a
// sheets.Store, so handlers work unchanged on the sqlite backend.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
	service *services.ExpenseService
}

var _ sheets.Store = (*SQLiteAdapter)(nil)

func NewSQLiteAdapter(storage *storage.SQLiteRepository, service *services.ExpenseService) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage: storage,
		service: service,
	}
}

// Append implements sheets.RecordWriter
func (a *SQLiteAdapter) Append(ctx context.Context, r core.OutboundRecord) (string, error) {
	return a.service.CreateRecord(ctx, r)
}

// FetchRecords implements sheets.RecordFetcher. Reads come from the local
// log, so records are visible before they reach the spreadsheet.
func (a *SQLiteAdapter) FetchRecords(ctx context.Context) ([]core.RawRecord, error) {
	return a.storage.FetchRecords(ctx)
}

// Ping reports whether the database is reachable.
func (a *SQLiteAdapter) Ping(ctx context.Context) error {
	return a.storage.Ping(ctx)
}
