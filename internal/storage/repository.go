// Package storage keeps submitted records in a local SQLite log so the
// remote spreadsheet can be updated asynchronously.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"expensedash/internal/core"
	applog "expensedash/internal/log"

	_ "modernc.org/sqlite"
)

// MaxSyncAttempts is the number of failed mirrors after which a record is
// no longer offered for sync.
const MaxSyncAttempts = 5

// SyncClaimLease is how long a ClaimSync holds a record before another
// worker may take it over. It bounds the stall when a holder crashes.
const SyncClaimLease = 5 * time.Minute

var ErrNotFound = errors.New("record not found")

type SyncStatus string

const (
	StatusPending SyncStatus = "pending"
	StatusSynced  SyncStatus = "synced"
	StatusError   SyncStatus = "error"
)

// StoredRecord is a record row together with its sync bookkeeping.
type StoredRecord struct {
	ID            int64
	Ref           string
	Record        core.OutboundRecord
	Version       int64
	SyncStatus    SyncStatus
	SyncAttempts  int
	LastSyncError string
	CreatedAt     time.Time
}

// PendingSync is the minimal data needed to enqueue a sync message.
type PendingSync struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Insert stores rec as pending and returns its id and ref.
func (r *SQLiteRepository) Insert(ctx context.Context, rec core.OutboundRecord) (int64, string, error) {
	amount, err := toCents(rec.Amount)
	if err != nil {
		return 0, "", fmt.Errorf("amount: %w", err)
	}
	original, err := toCents(rec.OriginalAmount)
	if err != nil {
		return 0, "", fmt.Errorf("original amount: %w", err)
	}

	ref := uuid.NewString()
	res, err := r.db.ExecContext(ctx, insertRecord,
		ref, rec.ExpenseName, rec.Category, amount, original, rec.Date, rec.Month, rec.Year,
		rec.PaymentMethod, rec.Shared, rec.SharedPercentage, rec.BillingCycle, rec.TimeStamp)
	if err != nil {
		return 0, "", fmt.Errorf("insert record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, "", fmt.Errorf("insert record id: %w", err)
	}

	slog.InfoContext(ctx, "Record saved to SQLite",
		applog.FieldRecordID, id,
		applog.FieldRef, ref,
		applog.FieldCategory, rec.Category,
		applog.FieldAmount, rec.Amount,
		"date", rec.Date)
	return id, ref, nil
}

// Append implements sheets.RecordWriter.
func (r *SQLiteRepository) Append(ctx context.Context, rec core.OutboundRecord) (string, error) {
	_, ref, err := r.Insert(ctx, rec)
	return ref, err
}

// FetchRecords implements sheets.RecordFetcher over every stored row.
func (r *SQLiteRepository) FetchRecords(ctx context.Context) ([]core.RawRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectAllRecords)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out := []core.RawRecord{}
	for rows.Next() {
		sr, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sr.Record.Raw())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetRecord(ctx context.Context, id int64) (*StoredRecord, error) {
	sr, err := scanRecord(r.db.QueryRowContext(ctx, selectRecord, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get record %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	return sr, nil
}

// PendingSync returns up to limit records still waiting to be mirrored.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]PendingSync, error) {
	rows, err := r.db.QueryContext(ctx, selectPendingSync, MaxSyncAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync records: %w", err)
	}
	defer rows.Close()

	var out []PendingSync
	for rows.Next() {
		var p PendingSync
		if err := rows.Scan(&p.ID, &p.Version, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending sync record: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ClaimSync reserves record id for one mirroring attempt. It reports false
// when the record is already synced or another claim is still within its
// lease, and fails with ErrNotFound for an unknown id. MarkSynced and MarkSyncError release the claim.
func (r *SQLiteRepository) ClaimSync(ctx context.Context, id int64) (bool, error) {
	lease := fmt.Sprintf("-%d seconds", int(SyncClaimLease/time.Second))
	res, err := r.db.ExecContext(ctx, claimSync, id, lease)
	if err != nil {
		return false, fmt.Errorf("claim record %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim record %d: %w", id, err)
	}
	if n == 1 {
		return true, nil
	}
	var exists int
	err = r.db.QueryRowContext(ctx, recordExists, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("claim record %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("claim record %d: %w", id, err)
	}
	return false, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, markSynced, id); err != nil {
		return fmt.Errorf("mark record synced: %w", err)
	}
	slog.InfoContext(ctx, "Record marked as synced", applog.FieldRecordID, id)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if _, err := r.db.ExecContext(ctx, markSyncError, msg, id); err != nil {
		return fmt.Errorf("mark record sync error: %w", err)
	}
	slog.WarnContext(ctx, "Record marked with sync error", applog.FieldRecordID, id, applog.FieldError, msg)
	return nil
}

// SyncCounts returns the number of records per sync status.
func (r *SQLiteRepository) SyncCounts(ctx context.Context) (map[SyncStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, countByStatus)
	if err != nil {
		return nil, fmt.Errorf("count records by status: %w", err)
	}
	defer rows.Close()

	counts := map[SyncStatus]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[SyncStatus(status)] = n
	}
	return counts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*StoredRecord, error) {
	var (
		sr               StoredRecord
		amount, original int64
		status           string
	)
	err := s.Scan(
		&sr.ID, &sr.Ref, &sr.Record.ExpenseName, &sr.Record.Category, &amount, &original,
		&sr.Record.Date, &sr.Record.Month, &sr.Record.Year, &sr.Record.PaymentMethod,
		&sr.Record.Shared, &sr.Record.SharedPercentage, &sr.Record.BillingCycle, &sr.Record.TimeStamp,
		&sr.Version, &status, &sr.SyncAttempts, &sr.LastSyncError, &sr.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	sr.Record.Amount = core.Money{Cents: amount}.Major()
	sr.Record.OriginalAmount = core.Money{Cents: original}.Major()
	sr.SyncStatus = SyncStatus(status)
	return &sr, nil
}

func toCents(major float64) (int64, error) {
	m, err := core.FromDecimal(decimal.NewFromFloat(major))
	if err != nil {
		return 0, err
	}
	return m.Cents, nil
}
