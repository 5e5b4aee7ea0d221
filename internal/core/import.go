package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// importPayload mirrors the JSON shape organizers paste into the import
// box. Pointers distinguish absent fields from zero values; a field with
// the wrong JSON type fails the decode instead of silently defaulting.
type importPayload struct {
	Vendor *string      `json:"vendor"`
	Tax    *float64     `json:"tax"`
	Tip    *float64     `json:"tip"`
	Items  []importItem `json:"items"`
}

type importItem struct {
	Description *string  `json:"description"`
	Quantity    *float64 `json:"quantity"`
	UnitPrice   *float64 `json:"unitPrice"`
}

// InvoiceImport is the validated result of parsing structured text.
// Vendor is nil when the payload omitted it, meaning "keep the current
// vendor". Item totals are recomputed, never taken from the input.
type InvoiceImport struct {
	Vendor   *string
	TaxCents int64
	TipCents int64
	Items    []InvoiceItem
}

// ParseInvoicePayload parses user-supplied structured text into a
// validated InvoiceImport. The text must be a JSON object with an items
// list of {description, quantity, unitPrice}; tax and tip default to 0
// when absent. Any malformed structure or missing required sub-field
// returns ErrBadImportPayload and leaves nothing half-applied.
func ParseInvoicePayload(text string) (InvoiceImport, error) {
	var payload importPayload
	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return InvoiceImport{}, fmt.Errorf("%w: %v", ErrBadImportPayload, err)
	}
	if dec.More() {
		return InvoiceImport{}, fmt.Errorf("%w: trailing data after payload", ErrBadImportPayload)
	}

	if len(payload.Items) == 0 {
		return InvoiceImport{}, fmt.Errorf("%w: items list is required and must not be empty", ErrBadImportPayload)
	}

	imp := InvoiceImport{Vendor: payload.Vendor}

	var err error
	if imp.TaxCents, err = amountToCents(payload.Tax, "tax"); err != nil {
		return InvoiceImport{}, err
	}
	if imp.TipCents, err = amountToCents(payload.Tip, "tip"); err != nil {
		return InvoiceImport{}, err
	}

	imp.Items = make([]InvoiceItem, 0, len(payload.Items))
	for i, raw := range payload.Items {
		item, err := convertImportItem(i, raw)
		if err != nil {
			return InvoiceImport{}, err
		}
		imp.Items = append(imp.Items, item)
	}
	return imp, nil
}

// Apply replaces the invoice's vendor, tax, tip and items with the parsed
// values. A payload without a vendor keeps the existing one.
func (inv *Invoice) Apply(imp InvoiceImport) {
	if imp.Vendor != nil {
		inv.Vendor = strings.TrimSpace(*imp.Vendor)
	}
	inv.TaxCents = imp.TaxCents
	inv.TipCents = imp.TipCents
	inv.Items = append([]InvoiceItem(nil), imp.Items...)
}

func convertImportItem(index int, raw importItem) (InvoiceItem, error) {
	if raw.Description == nil {
		return InvoiceItem{}, fmt.Errorf("%w: item %d is missing description", ErrBadImportPayload, index+1)
	}
	if raw.Quantity == nil {
		return InvoiceItem{}, fmt.Errorf("%w: item %d is missing quantity", ErrBadImportPayload, index+1)
	}
	if raw.UnitPrice == nil {
		return InvoiceItem{}, fmt.Errorf("%w: item %d is missing unitPrice", ErrBadImportPayload, index+1)
	}
	qty := *raw.Quantity
	if qty < 1 || qty != math.Trunc(qty) {
		return InvoiceItem{}, fmt.Errorf("%w: item %d has invalid quantity %v", ErrBadImportPayload, index+1, qty)
	}
	priceCents, err := floatToCents(*raw.UnitPrice)
	if err != nil {
		return InvoiceItem{}, fmt.Errorf("%w: item %d has invalid unitPrice %v", ErrBadImportPayload, index+1, *raw.UnitPrice)
	}
	item := InvoiceItem{
		Description:    strings.TrimSpace(*raw.Description),
		Quantity:       int64(qty),
		UnitPriceCents: priceCents,
	}
	item.TotalCents = LineTotalCents(item.Quantity, item.UnitPriceCents)
	return item, nil
}

func amountToCents(v *float64, field string) (int64, error) {
	if v == nil {
		return 0, nil
	}
	cents, err := floatToCents(*v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a non-negative amount", ErrBadImportPayload, field)
	}
	return cents, nil
}

func floatToCents(v float64) (int64, error) {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	return int64(math.Round(v * 100)), nil
}
