// Package worker moves submitted funding requests from SQLite into the
// treasurer's ledger.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"fundreq/internal/amqp"
	"fundreq/internal/export"
	"fundreq/internal/storage"
)

// ExportStore is the slice of the repository the worker needs.
type ExportStore interface {
	GetRequest(ctx context.Context, id int64) (storage.StoredRequest, error)
	PendingExports(ctx context.Context, limit int) ([]storage.PendingExport, error)
	MarkExported(ctx context.Context, id int64) error
	MarkExportError(ctx context.Context, id int64) error
}

// ExportWorker exports submitted funding requests to the ledger.
type ExportWorker struct {
	store     ExportStore
	ledger    export.LedgerWriter
	batchSize int
}

func NewExportWorker(store ExportStore, ledger export.LedgerWriter, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &ExportWorker{
		store:     store,
		ledger:    ledger,
		batchSize: batchSize,
	}
}

// HandleSubmitMessage processes a single submission message from AMQP.
func (w *ExportWorker) HandleSubmitMessage(ctx context.Context, msg *amqp.RequestSubmittedMessage) error {
	slog.InfoContext(ctx, "Processing submission message",
		"id", msg.ID,
		"version", msg.Version)

	if err := w.exportRequest(ctx, msg.ID); err != nil {
		return fmt.Errorf("export request %d: %w", msg.ID, err)
	}
	return nil
}

// CatchUp exports any requests still marked pending. It runs at worker
// startup and then periodically, to recover from missed AMQP messages or
// worker downtime.
func (w *ExportWorker) CatchUp(ctx context.Context) error {
	pending, err := w.store.PendingExports(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending exports: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending exports found")
		return nil
	}

	slog.InfoContext(ctx, "Found pending exports, processing...",
		"count", len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, p := range pending {
		g.Go(func() error {
			if err := w.exportRequest(gctx, p.ID); err != nil {
				slog.ErrorContext(gctx, "Failed to export request during catch-up",
					"id", p.ID, "error", err)
			}
			// Keep draining the batch even when one request fails.
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("catch-up: %w", err)
	}

	slog.InfoContext(ctx, "Catch-up completed", "count", len(pending))
	return nil
}

// exportRequest loads a stored request, appends one ledger row per invoice
// and records the outcome on the request.
func (w *ExportWorker) exportRequest(ctx context.Context, id int64) error {
	stored, err := w.store.GetRequest(ctx, id)
	if err != nil {
		if markErr := w.store.MarkExportError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", markErr)
		}
		return fmt.Errorf("get request from storage: %w", err)
	}

	rows := LedgerRows(stored)
	if err := w.ledger.AppendRows(ctx, rows); err != nil {
		if markErr := w.store.MarkExportError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to ledger: %w", err)
	}

	if err := w.store.MarkExported(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as exported", "id", id, "error", err)
		// The rows landed on the ledger, so the export itself succeeded.
	}

	slog.InfoContext(ctx, "Exported funding request to ledger",
		"id", id,
		"event", stored.Request.Name,
		"rows", len(rows),
		"total_cents", stored.Request.Invoices.GrandTotalCents())

	return nil
}

// LedgerRows flattens a stored request into one ledger row per invoice.
func LedgerRows(stored storage.StoredRequest) []export.LedgerRow {
	req := stored.Request
	rows := make([]export.LedgerRow, 0, len(req.Invoices.Invoices))
	for _, inv := range req.Invoices.Invoices {
		rows = append(rows, export.LedgerRow{
			RequestID:     stored.ID,
			EventName:     req.Name,
			EventDate:     req.Date.Format("2006-01-02"),
			Vendor:        inv.Vendor,
			SubtotalCents: inv.SubtotalCents(),
			TaxCents:      inv.TaxCents,
			TipCents:      inv.TipCents,
			TotalCents:    inv.TotalCents(),
		})
	}
	return rows
}
