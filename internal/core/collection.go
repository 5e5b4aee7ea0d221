package core

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewInvoice returns a fresh invoice with a unique ID, one blank item and
// zero tax and tip. The caller appends it to a collection via Add.
func NewInvoice() Invoice {
	return Invoice{
		ID:    newInvoiceID(),
		Items: []InvoiceItem{blankItem()},
	}
}

// newInvoiceID builds a creation-timestamp plus random-suffix token. The
// timestamp keeps IDs roughly sortable; the suffix makes them unique even
// within one millisecond.
func newInvoiceID() string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + suffix
}

func blankItem() InvoiceItem {
	return InvoiceItem{Description: "", Quantity: 1, UnitPriceCents: 0, TotalCents: 0}
}

// InvoicePatch carries partial invoice updates; nil fields are untouched.
// The invoice ID itself is immutable.
type InvoicePatch struct {
	Vendor   *string
	TaxCents *int64
	TipCents *int64
	Files    *[]FileRef
}

// Add appends the invoice to the collection and makes it the active tab.
func (c *InvoiceCollection) Add(inv Invoice) {
	c.Invoices = append(c.Invoices, inv)
	c.ActiveID = inv.ID
}

// Get returns a pointer to the invoice with the given ID.
func (c *InvoiceCollection) Get(id string) (*Invoice, bool) {
	for i := range c.Invoices {
		if c.Invoices[i].ID == id {
			return &c.Invoices[i], true
		}
	}
	return nil, false
}

// Remove deletes the invoice with the given ID, keeping the order of the
// rest. Removing the active invoice selects the first remaining one.
// Removing an absent ID is a no-op.
func (c *InvoiceCollection) Remove(id string) {
	for i := range c.Invoices {
		if c.Invoices[i].ID != id {
			continue
		}
		c.Invoices = append(c.Invoices[:i], c.Invoices[i+1:]...)
		if c.ActiveID == id {
			c.ActiveID = ""
			if len(c.Invoices) > 0 {
				c.ActiveID = c.Invoices[0].ID
			}
		}
		return
	}
}

// Update merges the patch into the invoice with the given ID.
func (c *InvoiceCollection) Update(id string, patch InvoicePatch) error {
	inv, ok := c.Get(id)
	if !ok {
		return ErrInvoiceNotFound
	}
	if patch.Vendor != nil {
		inv.Vendor = *patch.Vendor
	}
	if patch.TaxCents != nil {
		inv.TaxCents = *patch.TaxCents
	}
	if patch.TipCents != nil {
		inv.TipCents = *patch.TipCents
	}
	if patch.Files != nil {
		inv.Files = append([]FileRef(nil), (*patch.Files)...)
	}
	return nil
}

// AddItem appends a blank item to the end of the invoice.
func (inv *Invoice) AddItem() {
	inv.Items = append(inv.Items, blankItem())
}

// RemoveItem deletes the item at index. The last remaining item of an
// invoice cannot be removed; an invoice under edit always keeps one.
func (inv *Invoice) RemoveItem(index int) error {
	if index < 0 || index >= len(inv.Items) {
		return ErrItemIndex
	}
	if len(inv.Items) == 1 {
		return ErrLastItem
	}
	inv.Items = append(inv.Items[:index], inv.Items[index+1:]...)
	return nil
}

// SetItemDescription updates the description of the item at index.
// Descriptions do not affect the item total.
func (inv *Invoice) SetItemDescription(index int, desc string) error {
	if index < 0 || index >= len(inv.Items) {
		return ErrItemIndex
	}
	inv.Items[index].Description = desc
	return nil
}

// SetItemQuantity updates the quantity of the item at index and recomputes
// its total.
func (inv *Invoice) SetItemQuantity(index int, quantity int64) error {
	if index < 0 || index >= len(inv.Items) {
		return ErrItemIndex
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	it := &inv.Items[index]
	it.Quantity = quantity
	it.TotalCents = LineTotalCents(it.Quantity, it.UnitPriceCents)
	return nil
}

// SetItemUnitPrice updates the unit price of the item at index and
// recomputes its total.
func (inv *Invoice) SetItemUnitPrice(index int, unitPriceCents int64) error {
	if index < 0 || index >= len(inv.Items) {
		return ErrItemIndex
	}
	if unitPriceCents < 0 {
		return ErrInvalidAmount
	}
	it := &inv.Items[index]
	it.UnitPriceCents = unitPriceCents
	it.TotalCents = LineTotalCents(it.Quantity, it.UnitPriceCents)
	return nil
}
