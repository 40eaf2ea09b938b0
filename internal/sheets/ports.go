// Package sheets defines the ports the services use to reach the remote
// record store, and the boundary error taxonomy for fetch failures.
package sheets

import (
	"context"

	"expensedash/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordFetcher returns the full remote snapshot. An empty snapshot is
	// not an error.
	RecordFetcher interface {
		FetchRecords(ctx context.Context) ([]core.RawRecord, error)
	}

	// RecordWriter persists one outbound record and returns a reference to
	// the stored row.
	RecordWriter interface {
		Append(ctx context.Context, r core.OutboundRecord) (rowRef string, err error)
	}

	// Store is a remote store supporting both directions.
	Store interface {
		RecordFetcher
		RecordWriter
	}
)
