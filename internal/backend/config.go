package backend

import (
	"errors"
	"fmt"

	"expensedash/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:        backendType,
		SnapshotTTL: appConfig.SnapshotCacheTTL,

		SeedFile: appConfig.SeedFile,

		ScriptURL:     appConfig.ScriptURL,
		RemoteTimeout: appConfig.RemoteTimeout,

		// SQLite configuration
		SQLiteDBPath: appConfig.SQLiteDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
		SyncRemote:   BackendType(appConfig.SyncRemote),

		// Google Sheets configuration
		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.SnapshotTTL < 0 {
		return fmt.Errorf("invalid snapshot ttl: %v", c.SnapshotTTL)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
		// AMQP is optional, so we don't validate it

	case SheetsBackend:
		return c.validateSheets()

	case ScriptBackend:
		return c.validateScript()

	case MemoryBackend:
		// Memory backend doesn't require additional validation
	}

	return nil
}

// ValidateRemote validates the sync target of the sqlite backend.
func (c Config) ValidateRemote() error {
	switch c.SyncRemote {
	case SheetsBackend:
		return c.validateSheets()
	case ScriptBackend:
		return c.validateScript()
	default:
		return fmt.Errorf("invalid sync remote: %q", c.SyncRemote)
	}
}

func (c Config) validateSheets() error {
	if c.GoogleSpreadsheetID == "" {
		return errors.New("Google Spreadsheet ID is required for sheets backend")
	}
	if c.GoogleSheetName == "" {
		return errors.New("Google Sheet name is required for sheets backend")
	}
	return nil
}

func (c Config) validateScript() error {
	if c.ScriptURL == "" {
		return errors.New("script URL is required for script backend")
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, SheetsBackend, ScriptBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
