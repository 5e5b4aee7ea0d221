package core

import (
	"errors"
	"testing"
)

func TestNewInvoiceDefaults(t *testing.T) {
	inv := NewInvoice()
	if inv.ID == "" {
		t.Fatal("expected a generated ID")
	}
	if inv.Vendor != "" {
		t.Fatalf("expected empty vendor, got %q", inv.Vendor)
	}
	if len(inv.Items) != 1 {
		t.Fatalf("expected one blank item, got %d", len(inv.Items))
	}
	it := inv.Items[0]
	if it.Description != "" || it.Quantity != 1 || it.UnitPriceCents != 0 || it.TotalCents != 0 {
		t.Fatalf("unexpected blank item: %+v", it)
	}
	if inv.TaxCents != 0 || inv.TipCents != 0 || len(inv.Files) != 0 {
		t.Fatalf("expected zero tax/tip and no files: %+v", inv)
	}
}

func TestNewInvoiceIDsUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewInvoice().ID
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate invoice ID %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestCollectionAddSelectsNewInvoice(t *testing.T) {
	var c InvoiceCollection
	first := NewInvoice()
	second := NewInvoice()
	c.Add(first)
	c.Add(second)
	if c.ActiveID != second.ID {
		t.Fatalf("expected active %q, got %q", second.ID, c.ActiveID)
	}
	if len(c.Invoices) != 2 || c.Invoices[0].ID != first.ID {
		t.Fatalf("insertion order not preserved: %+v", c.Invoices)
	}
}

func TestCollectionRemove(t *testing.T) {
	var c InvoiceCollection
	first := NewInvoice()
	second := NewInvoice()
	c.Add(first)
	c.Add(second)

	// Removing the active invoice selects the first remaining one.
	c.Remove(second.ID)
	if len(c.Invoices) != 1 || c.ActiveID != first.ID {
		t.Fatalf("expected first invoice active, got %q (%d left)", c.ActiveID, len(c.Invoices))
	}

	// Removing an absent ID is a no-op.
	c.Remove("missing")
	if len(c.Invoices) != 1 {
		t.Fatalf("no-op remove changed the collection: %+v", c.Invoices)
	}

	c.Remove(first.ID)
	if len(c.Invoices) != 0 || c.ActiveID != "" {
		t.Fatalf("expected empty collection, got %+v active=%q", c.Invoices, c.ActiveID)
	}
}

func TestCollectionUpdate(t *testing.T) {
	var c InvoiceCollection
	inv := NewInvoice()
	c.Add(inv)

	vendor := "Pizza Place"
	tax := int64(550)
	if err := c.Update(inv.ID, InvoicePatch{Vendor: &vendor, TaxCents: &tax}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := c.Get(inv.ID)
	if got.Vendor != "Pizza Place" || got.TaxCents != 550 {
		t.Fatalf("patch not applied: %+v", got)
	}
	// Unspecified fields stay untouched.
	if got.TipCents != 0 || len(got.Items) != 1 {
		t.Fatalf("patch touched unrelated fields: %+v", got)
	}

	if err := c.Update("missing", InvoicePatch{Vendor: &vendor}); !errors.Is(err, ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
}

func TestRemoveItemGuardsLastItem(t *testing.T) {
	inv := NewInvoice()
	if err := inv.RemoveItem(0); !errors.Is(err, ErrLastItem) {
		t.Fatalf("expected ErrLastItem, got %v", err)
	}
	if len(inv.Items) != 1 {
		t.Fatalf("last item was removed")
	}

	inv.AddItem()
	if err := inv.RemoveItem(1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(inv.Items) != 1 {
		t.Fatalf("expected one item left, got %d", len(inv.Items))
	}

	if err := inv.RemoveItem(5); !errors.Is(err, ErrItemIndex) {
		t.Fatalf("expected ErrItemIndex, got %v", err)
	}
}

func TestItemUpdatesRecomputeTotal(t *testing.T) {
	inv := NewInvoice()
	if err := inv.SetItemUnitPrice(0, 1599); err != nil {
		t.Fatalf("set price: %v", err)
	}
	if inv.Items[0].TotalCents != 1599 {
		t.Fatalf("expected total 1599, got %d", inv.Items[0].TotalCents)
	}
	if err := inv.SetItemQuantity(0, 2); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if inv.Items[0].TotalCents != 3198 {
		t.Fatalf("expected total 3198, got %d", inv.Items[0].TotalCents)
	}

	// Description edits never change the total.
	if err := inv.SetItemDescription(0, "Pizza"); err != nil {
		t.Fatalf("set description: %v", err)
	}
	if inv.Items[0].TotalCents != 3198 {
		t.Fatalf("description edit changed total to %d", inv.Items[0].TotalCents)
	}

	if err := inv.SetItemQuantity(0, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if err := inv.SetItemUnitPrice(0, -1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
