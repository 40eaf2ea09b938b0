// Package worker mirrors locally stored records into the remote spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"expensedash/internal/amqp"
	applog "expensedash/internal/log"
	"expensedash/internal/sheets"
	"expensedash/internal/storage"
)

const (
	DefaultBatchSize = 10
	DefaultInterval  = 30 * time.Second
)

// RecordStore is the part of the SQLite repository the worker needs.
type RecordStore interface {
	ClaimSync(ctx context.Context, id int64) (bool, error)
	GetRecord(ctx context.Context, id int64) (*storage.StoredRecord, error)
	PendingSync(ctx context.Context, limit int) ([]storage.PendingSync, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64, cause error) error
}

// SyncWorker copies pending SQLite records to a remote RecordWriter.
type SyncWorker struct {
	store     RecordStore
	remote    sheets.RecordWriter
	batchSize int
	interval  time.Duration
	logger    *slog.Logger
}

func NewSyncWorker(store RecordStore, remote sheets.RecordWriter, batchSize int, interval time.Duration, logger *slog.Logger) *SyncWorker {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncWorker{
		store:     store,
		remote:    remote,
		batchSize: batchSize,
		interval:  interval,
		logger:    logger,
	}
}

// HandleSyncMessage processes a single record sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.RecordSyncMessage) error {
	w.logger.InfoContext(ctx, "Processing sync message",
		applog.FieldOperation, applog.OpSync,
		applog.FieldRecordID, msg.ID,
		"version", msg.Version)

	return w.syncRecord(ctx, msg.ID)
}

// ProcessPending mirrors up to limit pending records and reports how many
// were synced. It is the backup path for lost AMQP messages.
func (w *SyncWorker) ProcessPending(ctx context.Context, limit int) (synced, failed int, err error) {
	pending, err := w.store.PendingSync(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending records: %w", err)
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	w.logger.InfoContext(ctx, "Processing pending records",
		applog.FieldOperation, applog.OpSync,
		applog.FieldRecords, len(pending))

	for _, p := range pending {
		if ctx.Err() != nil {
			return synced, failed, ctx.Err()
		}
		if err := w.syncRecord(ctx, p.ID); err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync record", applog.FieldRecordID, p.ID, applog.FieldError, err)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

// StartupSyncCheck drains a larger batch once, to recover from downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, failed, err := w.ProcessPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	if synced+failed == 0 {
		w.logger.InfoContext(ctx, "No pending records found on startup", applog.FieldOperation, applog.OpStartup)
		return nil
	}
	w.logger.InfoContext(ctx, "Startup sync completed",
		applog.FieldOperation, applog.OpStartup,
		"total", synced+failed,
		"synced", synced,
		"errors", failed)
	return nil
}

// Run sweeps pending records every interval until ctx is done.
func (w *SyncWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, _, err := w.ProcessPending(ctx, w.batchSize); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "Pending sweep failed", applog.FieldError, err)
			}
		}
	}
}

func (w *SyncWorker) syncRecord(ctx context.Context, id int64) error {
	// A message and the sweep can race for the same record; only the
	// claim holder appends.
	claimed, err := w.store.ClaimSync(ctx, id)
	if err != nil {
		return fmt.Errorf("claim record: %w", err)
	}
	if !claimed {
		w.logger.DebugContext(ctx, "Record already synced or being synced", applog.FieldRecordID, id)
		return nil
	}

	rec, err := w.store.GetRecord(ctx, id)
	if err != nil {
		return fmt.Errorf("get record from storage: %w", err)
	}

	ref, err := w.remote.Append(ctx, rec.Record)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, id, err); markErr != nil {
			w.logger.ErrorContext(ctx, "Failed to mark sync error", applog.FieldRecordID, id, applog.FieldError, markErr)
		}
		return fmt.Errorf("append to remote: %w", err)
	}

	if err := w.store.MarkSynced(ctx, id); err != nil {
		// The remote row exists; a later sweep would duplicate it, so log loudly.
		w.logger.ErrorContext(ctx, "Failed to mark as synced", applog.FieldRecordID, id, applog.FieldError, err)
	}

	w.logger.InfoContext(ctx, "Successfully synced record",
		applog.FieldOperation, applog.OpSync,
		applog.FieldRecordID, id,
		"remote_ref", ref,
		applog.FieldCategory, rec.Record.Category,
		applog.FieldAmount, rec.Record.Amount)
	return nil
}
