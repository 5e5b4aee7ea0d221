// Package export defines the ports for pushing submitted funding requests
// to the treasurer's ledger.
package export

import "context"

// LedgerRow is one exported line: a single invoice of a funding request.
type LedgerRow struct {
	RequestID     int64
	EventName     string
	EventDate     string // YYYY-MM-DD
	Vendor        string
	SubtotalCents int64
	TaxCents      int64
	TipCents      int64
	TotalCents    int64
}

// LedgerWriter appends rows to the treasurer's funding ledger.
type LedgerWriter interface {
	AppendRows(ctx context.Context, rows []LedgerRow) error
}
