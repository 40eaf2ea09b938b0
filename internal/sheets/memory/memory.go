// Package memory is an in-process record store for local development and
// tests.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"sync"

	"expensedash/internal/core"
	ports "expensedash/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []core.RawRecord
}

var _ ports.Store = (*Store)(nil)

func New(seed ...core.RawRecord) *Store {
	s := &Store{}
	for _, r := range seed {
		s.rows = append(s.rows, maps.Clone(r))
	}
	return s
}

// NewFromFile seeds a store from a JSON file holding either a list of
// records or the {"data": [...]} envelope the script endpoint serves.
func NewFromFile(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	rows, err := decodeSeed(raw)
	if err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return New(rows...), nil
}

func decodeSeed(raw []byte) ([]core.RawRecord, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	dec := func(b []byte, v any) error {
		d := json.NewDecoder(bytes.NewReader(b))
		d.UseNumber()
		return d.Decode(v)
	}
	if raw[0] == '[' {
		var rows []core.RawRecord
		return rows, dec(raw, &rows)
	}
	var env struct {
		Data []core.RawRecord `json:"data"`
	}
	if err := dec(raw, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// FetchRecords returns a copy of every stored row.
func (s *Store) FetchRecords(_ context.Context) ([]core.RawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.RawRecord, len(s.rows))
	for i, r := range s.rows {
		out[i] = maps.Clone(r)
	}
	return out, nil
}

// Append stores the record and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, r core.OutboundRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, r.Raw())
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
