// Package memory provides an in-memory ledger used in tests and local
// development when no spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"fundreq/internal/export"
)

type Ledger struct {
	mu   sync.Mutex
	rows []export.LedgerRow
}

func New() *Ledger {
	return &Ledger{}
}

var _ export.LedgerWriter = (*Ledger)(nil)

// AppendRows stores the rows in memory.
func (l *Ledger) AppendRows(_ context.Context, rows []export.LedgerRow) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, rows...)
	return nil
}

// Rows returns a copy of everything appended so far.
func (l *Ledger) Rows() []export.LedgerRow {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]export.LedgerRow, len(l.rows))
	copy(out, l.rows)
	return out
}
