package sheets

import (
	"errors"
	"fmt"
)

// Kind classifies a boundary failure.
type Kind int

const (
	// Transport covers timeouts, connection and TLS failures, and non-2xx
	// responses.
	Transport Kind = iota + 1
	// Format covers non-JSON bodies and missing top-level keys.
	Format
)

func (k Kind) String() string {
	switch k {
	case Transport:
		return "transport"
	case Format:
		return "format"
	default:
		return "unknown"
	}
}

// FetchError is returned by store adapters for remote failures.
type FetchError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func TransportError(op string, err error) error {
	return &FetchError{Kind: Transport, Op: op, Err: err}
}

func FormatError(op string, err error) error {
	return &FetchError{Kind: Format, Op: op, Err: err}
}

// KindOf reports the boundary kind of err, or 0 when err is not a
// FetchError.
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

func IsTransport(err error) bool { return KindOf(err) == Transport }

func IsFormat(err error) bool { return KindOf(err) == Format }
