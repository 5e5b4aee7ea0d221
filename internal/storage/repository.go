package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fundreq/internal/core"

	_ "modernc.org/sqlite"
)

// Export status of a stored request.
const (
	ExportPending  = "pending"
	ExportDone     = "exported"
	ExportFailed   = "error"
	dateLayout     = "2006-01-02"
	monthKeyLayout = "2006-01"
)

var ErrRequestNotFound = errors.New("event request not found")

type SQLiteRepository struct {
	db *sql.DB
}

// StoredRequest is a persisted event request plus its bookkeeping fields.
type StoredRequest struct {
	ID           int64
	Version      int64
	ExportStatus string
	CreatedAt    time.Time
	Request      core.EventRequest
}

// RequestSummary is a compact row for request listings.
type RequestSummary struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	EventDate       string    `json:"eventDate"`
	GrandTotalCents int64     `json:"grandTotalCents"`
	ExportStatus    string    `json:"exportStatus"`
	CreatedAt       time.Time `json:"createdAt"`
}

// PendingExport identifies a request the worker still has to export.
type PendingExport struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateRequest stores a validated event request with all its invoices,
// items and file references in one transaction and returns the new ID.
func (r *SQLiteRepository) CreateRequest(ctx context.Context, req core.EventRequest) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO event_requests (
			name, location, event_date, start_time, end_time, description,
			needs_graphics, flyer_types, other_flyer_desc, required_logos,
			logo_files, advertising_format, advertising_start,
			room_booked, booking_files, expected_attendance, food_drinks,
			as_funding, grand_total_cents
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.Name, req.Location, req.Date.Format(dateLayout), req.StartTime, req.EndTime, req.Description,
		req.NeedsGraphics, jsonText(req.FlyerTypes), req.OtherFlyerDesc, jsonText(req.RequiredLogos),
		jsonText(req.LogoFiles), req.AdvertisingFmt, formatOptionalDate(req.AdvertisingStart),
		nullableBool(req.RoomBooked), jsonText(req.BookingConfirmation), nullableInt(req.Attendance),
		nullableBool(req.FoodDrinks), nullableBool(req.ASFunding), req.Invoices.GrandTotalCents(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert event request: %w", err)
	}
	requestID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("request id: %w", err)
	}

	for pos, inv := range req.Invoices.Invoices {
		invRes, err := tx.ExecContext(ctx, `
			INSERT INTO invoices (request_id, client_id, vendor, tax_cents, tip_cents, position)
			VALUES (?, ?, ?, ?, ?, ?)`,
			requestID, inv.ID, inv.Vendor, inv.TaxCents, inv.TipCents, pos,
		)
		if err != nil {
			return 0, fmt.Errorf("insert invoice %s: %w", inv.ID, err)
		}
		invoiceID, err := invRes.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("invoice id: %w", err)
		}

		for itemPos, it := range inv.Items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO invoice_items (invoice_id, position, description, quantity, unit_price_cents, total_cents)
				VALUES (?, ?, ?, ?, ?, ?)`,
				invoiceID, itemPos, it.Description, it.Quantity, it.UnitPriceCents, it.TotalCents,
			); err != nil {
				return 0, fmt.Errorf("insert invoice item: %w", err)
			}
		}

		for _, f := range inv.Files {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO invoice_files (invoice_id, name, size, location) VALUES (?, ?, ?, ?)`,
				invoiceID, f.Name, f.Size, f.Location,
			); err != nil {
				return 0, fmt.Errorf("insert invoice file: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Event request saved",
		"id", requestID,
		"name", req.Name,
		"invoices", len(req.Invoices.Invoices),
		"grand_total_cents", req.Invoices.GrandTotalCents())

	return requestID, nil
}

// GetRequest loads a stored request with all invoices, items and files.
func (r *SQLiteRepository) GetRequest(ctx context.Context, id int64) (StoredRequest, error) {
	var (
		stored       StoredRequest
		eventDate    string
		flyerTypes   string
		logos        string
		logoFiles    string
		advStart     string
		bookingFiles string
		roomBooked   sql.NullBool
		attendance   sql.NullInt64
		foodDrinks   sql.NullBool
		asFunding    sql.NullBool
	)
	req := &stored.Request

	err := r.db.QueryRowContext(ctx, `
		SELECT id, version, export_status, created_at,
			name, location, event_date, start_time, end_time, description,
			needs_graphics, flyer_types, other_flyer_desc, required_logos,
			logo_files, advertising_format, advertising_start,
			room_booked, booking_files, expected_attendance, food_drinks, as_funding
		FROM event_requests WHERE id = ?`, id,
	).Scan(
		&stored.ID, &stored.Version, &stored.ExportStatus, &stored.CreatedAt,
		&req.Name, &req.Location, &eventDate, &req.StartTime, &req.EndTime, &req.Description,
		&req.NeedsGraphics, &flyerTypes, &req.OtherFlyerDesc, &logos,
		&logoFiles, &req.AdvertisingFmt, &advStart,
		&roomBooked, &bookingFiles, &attendance, &foodDrinks, &asFunding,
	)
	if err == sql.ErrNoRows {
		return StoredRequest{}, ErrRequestNotFound
	}
	if err != nil {
		return StoredRequest{}, fmt.Errorf("select event request: %w", err)
	}

	req.Date = parseStoredDate(eventDate)
	req.AdvertisingStart = parseStoredDate(advStart)
	if err := json.Unmarshal([]byte(flyerTypes), &req.FlyerTypes); err != nil {
		return StoredRequest{}, fmt.Errorf("decode flyer types: %w", err)
	}
	if err := json.Unmarshal([]byte(logos), &req.RequiredLogos); err != nil {
		return StoredRequest{}, fmt.Errorf("decode required logos: %w", err)
	}
	if err := json.Unmarshal([]byte(logoFiles), &req.LogoFiles); err != nil {
		return StoredRequest{}, fmt.Errorf("decode logo files: %w", err)
	}
	if err := json.Unmarshal([]byte(bookingFiles), &req.BookingConfirmation); err != nil {
		return StoredRequest{}, fmt.Errorf("decode booking files: %w", err)
	}
	req.RoomBooked = fromNullBool(roomBooked)
	req.FoodDrinks = fromNullBool(foodDrinks)
	req.ASFunding = fromNullBool(asFunding)
	if attendance.Valid {
		v := int(attendance.Int64)
		req.Attendance = &v
	}

	if err := r.loadInvoices(ctx, id, &req.Invoices); err != nil {
		return StoredRequest{}, err
	}
	return stored, nil
}

func (r *SQLiteRepository) loadInvoices(ctx context.Context, requestID int64, c *core.InvoiceCollection) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, client_id, vendor, tax_cents, tip_cents
		FROM invoices WHERE request_id = ? ORDER BY position`, requestID)
	if err != nil {
		return fmt.Errorf("select invoices: %w", err)
	}
	defer rows.Close()

	dbIDs := make(map[string]int64)
	for rows.Next() {
		var (
			dbID int64
			inv  core.Invoice
		)
		if err := rows.Scan(&dbID, &inv.ID, &inv.Vendor, &inv.TaxCents, &inv.TipCents); err != nil {
			return fmt.Errorf("scan invoice: %w", err)
		}
		dbIDs[inv.ID] = dbID
		c.Invoices = append(c.Invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate invoices: %w", err)
	}

	for i := range c.Invoices {
		inv := &c.Invoices[i]
		if err := r.loadItems(ctx, dbIDs[inv.ID], inv); err != nil {
			return err
		}
		if err := r.loadFiles(ctx, dbIDs[inv.ID], inv); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) loadItems(ctx context.Context, invoiceID int64, inv *core.Invoice) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT description, quantity, unit_price_cents, total_cents
		FROM invoice_items WHERE invoice_id = ? ORDER BY position`, invoiceID)
	if err != nil {
		return fmt.Errorf("select invoice items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it core.InvoiceItem
		if err := rows.Scan(&it.Description, &it.Quantity, &it.UnitPriceCents, &it.TotalCents); err != nil {
			return fmt.Errorf("scan invoice item: %w", err)
		}
		inv.Items = append(inv.Items, it)
	}
	return rows.Err()
}

func (r *SQLiteRepository) loadFiles(ctx context.Context, invoiceID int64, inv *core.Invoice) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, size, location FROM invoice_files WHERE invoice_id = ? ORDER BY id`, invoiceID)
	if err != nil {
		return fmt.Errorf("select invoice files: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f core.FileRef
		if err := rows.Scan(&f.Name, &f.Size, &f.Location); err != nil {
			return fmt.Errorf("scan invoice file: %w", err)
		}
		inv.Files = append(inv.Files, f)
	}
	return rows.Err()
}

// ListRequests returns the most recent submissions, newest first.
func (r *SQLiteRepository) ListRequests(ctx context.Context, limit int) ([]RequestSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, event_date, grand_total_cents, export_status, created_at
		FROM event_requests ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select event requests: %w", err)
	}
	defer rows.Close()

	var out []RequestSummary
	for rows.Next() {
		var s RequestSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.EventDate, &s.GrandTotalCents, &s.ExportStatus, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan request summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MonthOverview aggregates submitted funding for a year+month.
func (r *SQLiteRepository) MonthOverview(ctx context.Context, year, month int) (core.FundingOverview, error) {
	overview := core.FundingOverview{Year: year, Month: month}
	monthKey := core.NewDate(year, month, 1).Format(monthKeyLayout)

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(grand_total_cents), 0)
		FROM event_requests WHERE substr(event_date, 1, 7) = ?`, monthKey,
	).Scan(&overview.RequestCount, &overview.Total.Cents)
	if err != nil {
		return overview, fmt.Errorf("month totals: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT i.vendor,
			SUM(COALESCE(t.items_cents, 0) + i.tax_cents + i.tip_cents) AS total_cents
		FROM invoices i
		JOIN event_requests r ON r.id = i.request_id
		LEFT JOIN (
			SELECT invoice_id, SUM(total_cents) AS items_cents
			FROM invoice_items GROUP BY invoice_id
		) t ON t.invoice_id = i.id
		WHERE substr(r.event_date, 1, 7) = ?
		GROUP BY i.vendor
		ORDER BY total_cents DESC`, monthKey)
	if err != nil {
		return overview, fmt.Errorf("vendor sums: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var va core.VendorAmount
		if err := rows.Scan(&va.Name, &va.Amount.Cents); err != nil {
			return overview, fmt.Errorf("scan vendor sum: %w", err)
		}
		overview.ByVendor = append(overview.ByVendor, va)
	}
	return overview, rows.Err()
}

// PendingExports returns requests the worker still has to push to the ledger.
func (r *SQLiteRepository) PendingExports(ctx context.Context, limit int) ([]PendingExport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version, created_at FROM event_requests
		WHERE export_status = ? ORDER BY created_at LIMIT ?`, ExportPending, limit)
	if err != nil {
		return nil, fmt.Errorf("select pending exports: %w", err)
	}
	defer rows.Close()

	var out []PendingExport
	for rows.Next() {
		var p PendingExport
		if err := rows.Scan(&p.ID, &p.Version, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending export: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkExported marks a request as successfully pushed to the ledger.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE event_requests SET export_status = ?, version = version + 1
		WHERE id = ?`, ExportDone, id); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	slog.InfoContext(ctx, "Request marked as exported", "id", id)
	return nil
}

// MarkExportError records a failed export attempt.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE event_requests SET export_status = ?, export_attempts = export_attempts + 1
		WHERE id = ?`, ExportFailed, id); err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	return nil
}

func jsonText(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func formatOptionalDate(d core.Date) string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format(dateLayout)
}

func parseStoredDate(s string) core.Date {
	if s == "" {
		return core.Date{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}
	}
	return core.Date{Time: t}
}

func nullableBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}

func nullableInt(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}

func fromNullBool(n sql.NullBool) *bool {
	if !n.Valid {
		return nil
	}
	v := n.Bool
	return &v
}
