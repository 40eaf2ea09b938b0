package backend

import (
	"context"
	"fmt"
	"log/slog"

	"expensedash/internal/adapters"
	"expensedash/internal/amqp"
	applog "expensedash/internal/log"
	"expensedash/internal/services"
	"expensedash/internal/sheets"
	gsheet "expensedash/internal/sheets/google"
	"expensedash/internal/sheets/memory"
	"expensedash/internal/sheets/script"
	"expensedash/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case SheetsBackend:
		res, err = f.createSheetsBackend(ctx, config)
	case ScriptBackend:
		res, err = f.createScriptBackend(config)
	case MemoryBackend:
		res, err = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if p, ok := res.Backend.(Pinger); ok {
		res.Pinger = p
	}
	if config.SnapshotTTL > 0 {
		res.Cached = sheets.NewCachedStore(res.Backend, config.SnapshotTTL)
		res.Backend = res.Cached
		f.logger.Info("Snapshot cache enabled", "ttl", config.SnapshotTTL)
	}
	return res, nil
}

// CreateRemote implements Factory.CreateRemote
func (f *DefaultFactory) CreateRemote(ctx context.Context, config Config) (sheets.Store, error) {
	if err := config.ValidateRemote(); err != nil {
		return nil, err
	}
	if config.SyncRemote == ScriptBackend {
		cli, err := script.New(config.ScriptURL, config.RemoteTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize script client: %w", err)
		}
		return cli, nil
	}
	cli, err := f.newSheetsClient(ctx, config)
	if err != nil {
		return nil, err
	}
	return cli, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	// Initialize SQLite repository
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// AMQP is optional; without it the worker's sweep picks records up.
	var publisher services.SyncPublisher
	if config.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync", applog.FieldError, err)
		} else {
			publisher = amqpClient
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	// Create expense service and adapter
	expenseService := services.NewExpenseService(sqliteRepo, publisher, f.logger)
	adapter := adapters.NewSQLiteAdapter(sqliteRepo, expenseService)

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", publisher != nil)

	return &BackendResult{
		Backend: adapter,
		Cleanup: expenseService.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := f.newSheetsClient(ctx, config)
	if err != nil {
		return nil, err
	}

	f.logger.Info("Initialized Google Sheets backend", "sheet", config.GoogleSheetName)

	return &BackendResult{Backend: cli}, nil
}

func (f *DefaultFactory) newSheetsClient(ctx context.Context, config Config) (*gsheet.Client, error) {
	cli, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	return cli, nil
}

func (f *DefaultFactory) createScriptBackend(config Config) (*BackendResult, error) {
	cli, err := script.New(config.ScriptURL, config.RemoteTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize script client: %w", err)
	}

	f.logger.Info("Initialized script backend", "timeout", config.RemoteTimeout)

	return &BackendResult{Backend: cli}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	if config.SeedFile == "" {
		f.logger.Info("Initialized memory backend")
		return &BackendResult{Backend: memory.New()}, nil
	}

	store, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile, applog.FieldRecords, store.Len())

	return &BackendResult{Backend: store}, nil
}
