package core

import (
	"errors"
	"time"
)

// Flyer types an organizer can request from the graphics team.
const (
	FlyerDigital = "digital"
	FlyerPrinted = "printed"
	FlyerBanner  = "banner"
	FlyerOther   = "other"
)

// Logo selections for marketing material.
const (
	LogoAS    = "as"
	LogoOrg   = "org"
	LogoOther = "other"
)

type (
	Money struct {
		Cents int64 `json:"cents"`
	}

	Date struct {
		time.Time
	}

	// FileRef references an attached file. A newly selected upload carries
	// Name and Size; an already persisted file carries only Location, an
	// opaque storage locator.
	FileRef struct {
		Name     string `json:"name,omitempty"`
		Size     int64  `json:"size,omitempty"`
		Location string `json:"location,omitempty"`
	}

	// InvoiceItem is one line entry on a vendor invoice. TotalCents is
	// derived from quantity and unit price and never set independently.
	InvoiceItem struct {
		Description    string `json:"description"`
		Quantity       int64  `json:"quantity"`
		UnitPriceCents int64  `json:"unitPriceCents"`
		TotalCents     int64  `json:"totalCents"`
	}

	// Invoice is a single vendor bill attached to a funding request.
	Invoice struct {
		ID       string        `json:"id"`
		Vendor   string        `json:"vendor"`
		Items    []InvoiceItem `json:"items"`
		TaxCents int64         `json:"taxCents"`
		TipCents int64         `json:"tipCents"`
		Files    []FileRef     `json:"files,omitempty"`
	}

	// InvoiceCollection holds the invoices of one funding request in tab
	// order. ActiveID tracks the invoice currently selected for editing.
	InvoiceCollection struct {
		Invoices []Invoice `json:"invoices"`
		ActiveID string    `json:"activeId,omitempty"`
	}

	// EventRequest is the full in-memory state of an event request form.
	// Pointer fields model yes/no questions that start unanswered.
	EventRequest struct {
		Name        string `json:"name"`
		Location    string `json:"location"`
		Date        Date   `json:"date"`
		StartTime   string `json:"startTime"` // "15:04"
		EndTime     string `json:"endTime"`
		Description string `json:"description"`

		NeedsGraphics    bool      `json:"needsGraphics"`
		FlyerTypes       []string  `json:"flyerTypes,omitempty"`
		OtherFlyerDesc   string    `json:"otherFlyerDescription,omitempty"`
		RequiredLogos    []string  `json:"requiredLogos,omitempty"`
		LogoFiles        []FileRef `json:"logoFiles,omitempty"`
		AdvertisingFmt   string    `json:"advertisingFormat,omitempty"`
		AdvertisingStart Date      `json:"advertisingStart,omitzero"`

		RoomBooked          *bool     `json:"roomBooked,omitempty"`
		BookingConfirmation []FileRef `json:"bookingConfirmation,omitempty"`
		Attendance          *int      `json:"expectedAttendance,omitempty"`
		FoodDrinks          *bool     `json:"foodDrinks,omitempty"`
		ASFunding           *bool     `json:"asFunding,omitempty"`

		Invoices InvoiceCollection `json:"invoiceCollection"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrItemIndex        = errors.New("item index out of range")
	ErrLastItem         = errors.New("an invoice must keep at least one item")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrBadImportPayload = errors.New("malformed invoice payload")
)

// Existing reports whether the reference points at an already stored file.
func (f FileRef) Existing() bool {
	return f.Location != ""
}

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty returns true if the date was never set.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}
