package backend

import (
	"context"
	"time"

	"expensedash/internal/sheets"
)

// Backend is the record store the server reads snapshots from and appends
// submissions to.
type Backend = sheets.Store

// Pinger is implemented by backends with a cheap reachability check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	// Cached is the snapshot cache wrapper, nil when caching is off.
	Cached *sheets.CachedStore
	// Pinger checks the underlying store, nil when it has no cheap check.
	Pinger  Pinger
	Cleanup CleanupFunc
}

// Close runs Cleanup when set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateRemote creates the spreadsheet store the sync worker mirrors into.
	CreateRemote(ctx context.Context, config Config) (sheets.Store, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// Snapshot cache, zero disables it
	SnapshotTTL time.Duration

	// Memory specific
	SeedFile string

	// Script endpoint specific
	ScriptURL     string
	RemoteTimeout time.Duration

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	// SyncRemote is the store the sqlite backend mirrors into.
	SyncRemote BackendType

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	ScriptBackend BackendType = "script"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, ScriptBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// IsRemote reports whether bt can serve as a sync target.
func (bt BackendType) IsRemote() bool {
	return bt == SheetsBackend || bt == ScriptBackend
}
