package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"expensedash/internal/core"
	applog "expensedash/internal/log"
)

// RecordInserter is the local log the ExpenseService writes to first.
type RecordInserter interface {
	Insert(ctx context.Context, rec core.OutboundRecord) (int64, string, error)
	Close() error
}

// SyncPublisher announces a stored record to the sync worker.
type SyncPublisher interface {
	PublishRecordSync(ctx context.Context, id, version int64) error
	Close() error
}

// ExpenseService orchestrates record writes across SQLite and AMQP
type ExpenseService struct {
	storage   RecordInserter
	publisher SyncPublisher
	logger    *slog.Logger
}

// NewExpenseService wires storage and an optional publisher. A nil
// publisher leaves records to the worker's pending sweep.
func NewExpenseService(storage RecordInserter, publisher SyncPublisher, logger *slog.Logger) *ExpenseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpenseService{
		storage:   storage,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateRecord saves a record locally and publishes a sync message.
func (s *ExpenseService) CreateRecord(ctx context.Context, rec core.OutboundRecord) (string, error) {
	// Save to SQLite first (fast, reliable)
	id, ref, err := s.storage.Insert(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("save record: %w", err)
	}

	// Version 1 for a new record
	if err := s.publishSyncMessage(ctx, id, 1); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish sync message",
			applog.FieldRecordID, id, applog.FieldError, err)
		// Don't fail the request - record is saved locally
	}

	return ref, nil
}

func (s *ExpenseService) publishSyncMessage(ctx context.Context, id, version int64) error {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}

	return s.publisher.PublishRecordSync(ctx, id, version)
}

// Close closes both storage and AMQP connections
func (s *ExpenseService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}

	return nil
}
