package core

import (
	"errors"
	"testing"
)

func TestParseInvoicePayload(t *testing.T) {
	text := `{"vendor":"X","tax":1,"tip":2,"items":[{"description":"A","quantity":3,"unitPrice":4}]}`
	imp, err := ParseInvoicePayload(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if imp.Vendor == nil || *imp.Vendor != "X" {
		t.Fatalf("expected vendor X, got %v", imp.Vendor)
	}
	if imp.TaxCents != 100 || imp.TipCents != 200 {
		t.Fatalf("expected tax 100 / tip 200, got %d / %d", imp.TaxCents, imp.TipCents)
	}
	if len(imp.Items) != 1 {
		t.Fatalf("expected one item, got %d", len(imp.Items))
	}
	it := imp.Items[0]
	if it.Description != "A" || it.Quantity != 3 || it.UnitPriceCents != 400 || it.TotalCents != 1200 {
		t.Fatalf("unexpected item: %+v", it)
	}
}

func TestParseInvoicePayloadDefaults(t *testing.T) {
	// vendor/tax/tip absent: keep vendor, default amounts to 0.
	imp, err := ParseInvoicePayload(`{"items":[{"description":"A","quantity":1,"unitPrice":0.5}]}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if imp.Vendor != nil {
		t.Fatalf("expected nil vendor, got %q", *imp.Vendor)
	}
	if imp.TaxCents != 0 || imp.TipCents != 0 {
		t.Fatalf("expected zero tax/tip, got %d / %d", imp.TaxCents, imp.TipCents)
	}
	if imp.Items[0].UnitPriceCents != 50 {
		t.Fatalf("expected 50 cents, got %d", imp.Items[0].UnitPriceCents)
	}
}

func TestParseInvoicePayloadRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"not json", "vendor: X"},
		{"missing items", `{"vendor":"X"}`},
		{"empty items", `{"vendor":"X","items":[]}`},
		{"missing description", `{"items":[{"quantity":1,"unitPrice":2}]}`},
		{"missing quantity", `{"items":[{"description":"A","unitPrice":2}]}`},
		{"missing unitPrice", `{"items":[{"description":"A","quantity":1}]}`},
		{"fractional quantity", `{"items":[{"description":"A","quantity":1.5,"unitPrice":2}]}`},
		{"zero quantity", `{"items":[{"description":"A","quantity":0,"unitPrice":2}]}`},
		{"negative price", `{"items":[{"description":"A","quantity":1,"unitPrice":-2}]}`},
		{"non-numeric tax", `{"tax":"abc","items":[{"description":"A","quantity":1,"unitPrice":2}]}`},
		{"negative tip", `{"tip":-1,"items":[{"description":"A","quantity":1,"unitPrice":2}]}`},
		{"unknown field", `{"totals":99,"items":[{"description":"A","quantity":1,"unitPrice":2}]}`},
		{"trailing data", `{"items":[{"description":"A","quantity":1,"unitPrice":2}]} garbage`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseInvoicePayload(tc.text); !errors.Is(err, ErrBadImportPayload) {
				t.Fatalf("expected ErrBadImportPayload, got %v", err)
			}
		})
	}
}

func TestApplyReplacesInvoiceContents(t *testing.T) {
	inv := NewInvoice()
	inv.Vendor = "Old Vendor"
	inv.TaxCents = 999
	inv.TipCents = 999

	imp, err := ParseInvoicePayload(`{"vendor":"X","tax":1,"tip":2,"items":[{"description":"A","quantity":3,"unitPrice":4}]}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	inv.Apply(imp)
	if inv.Vendor != "X" || inv.TaxCents != 100 || inv.TipCents != 200 {
		t.Fatalf("apply did not replace fields: %+v", inv)
	}
	if len(inv.Items) != 1 || inv.Items[0].TotalCents != 1200 {
		t.Fatalf("apply did not replace items: %+v", inv.Items)
	}

	// A payload without a vendor keeps the current one but still resets
	// tax and tip.
	imp2, err := ParseInvoicePayload(`{"items":[{"description":"B","quantity":1,"unitPrice":1}]}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	inv.Apply(imp2)
	if inv.Vendor != "X" {
		t.Fatalf("vendor should be kept, got %q", inv.Vendor)
	}
	if inv.TaxCents != 0 || inv.TipCents != 0 {
		t.Fatalf("tax/tip should reset to 0, got %d / %d", inv.TaxCents, inv.TipCents)
	}
}

func TestParseFailureLeavesInvoiceUntouched(t *testing.T) {
	inv := NewInvoice()
	inv.Vendor = "Kept"
	before := inv

	if _, err := ParseInvoicePayload(`{"vendor":"X"}`); err == nil {
		t.Fatal("expected parse failure")
	}
	if inv.Vendor != before.Vendor || len(inv.Items) != len(before.Items) {
		t.Fatalf("invoice mutated on failed parse: %+v", inv)
	}
}
