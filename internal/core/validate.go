package core

import (
	"fmt"
	"strings"
	"time"
)

// MaxBookingFileBytes caps newly selected room-booking confirmation files.
const MaxBookingFileBytes = 1 << 20 // 1 MiB

// ValidationResult reports the outcome of validating an event request.
// When invalid, Message holds the first violation found in stage order and
// Fields maps the offending field names to their messages.
type ValidationResult struct {
	Valid   bool              `json:"isValid"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fieldErrors,omitempty"`
}

func invalid(field, message string) ValidationResult {
	return ValidationResult{
		Valid:   false,
		Message: message,
		Fields:  map[string]string{field: message},
	}
}

func valid() ValidationResult {
	return ValidationResult{Valid: true}
}

// ValidateRequest checks the full form state in a fixed stage order: basic
// info, graphics, logistics, funding. Each stage reports its first
// violation, so the same invalid input always yields the same message.
func ValidateRequest(req EventRequest) ValidationResult {
	stages := []func(EventRequest) ValidationResult{
		validateBasicInfo,
		validateGraphics,
		validateLogistics,
		validateFunding,
	}
	for _, stage := range stages {
		if res := stage(req); !res.Valid {
			return res
		}
	}
	return valid()
}

func validateBasicInfo(req EventRequest) ValidationResult {
	if strings.TrimSpace(req.Name) == "" {
		return invalid("name", "Please enter an event name")
	}
	if strings.TrimSpace(req.Location) == "" {
		return invalid("location", "Please enter an event location")
	}
	if req.Date.IsEmpty() {
		return invalid("date", "Please choose an event date")
	}
	start, err := parseClock(req.StartTime)
	if err != nil {
		return invalid("startTime", "Please choose a valid start time")
	}
	end, err := parseClock(req.EndTime)
	if err != nil {
		return invalid("endTime", "Please choose a valid end time")
	}
	if strings.TrimSpace(req.Description) == "" {
		return invalid("description", "Please describe the event")
	}
	if !end.After(start) {
		return invalid("endTime", "End time must be after the start time")
	}
	return valid()
}

func validateGraphics(req EventRequest) ValidationResult {
	if !req.NeedsGraphics {
		return valid()
	}
	if len(req.FlyerTypes) == 0 {
		return invalid("flyerTypes", "Please select at least one flyer type")
	}
	if contains(req.FlyerTypes, FlyerOther) && strings.TrimSpace(req.OtherFlyerDesc) == "" {
		return invalid("otherFlyerDescription", "Please describe the other flyer type")
	}
	if len(req.RequiredLogos) == 0 {
		return invalid("requiredLogos", "Please select at least one required logo")
	}
	if contains(req.RequiredLogos, LogoOther) && len(req.LogoFiles) == 0 {
		return invalid("logoFiles", "Please attach a file for the other logo")
	}
	if strings.TrimSpace(req.AdvertisingFmt) == "" {
		return invalid("advertisingFormat", "Please select an advertising format")
	}
	if req.AdvertisingStart.IsEmpty() {
		return invalid("advertisingStart", "Please choose an advertising start date")
	}
	return valid()
}

func validateLogistics(req EventRequest) ValidationResult {
	if req.RoomBooked == nil {
		return invalid("roomBooked", "Please answer whether a room has been booked")
	}
	if *req.RoomBooked {
		if len(req.BookingConfirmation) == 0 {
			return invalid("bookingConfirmation", "Please attach the room booking confirmation")
		}
		for _, f := range req.BookingConfirmation {
			if !f.Existing() && f.Size > MaxBookingFileBytes {
				return invalid("bookingConfirmation", "Booking confirmation files must be 1 MB or smaller")
			}
		}
	}
	if req.Attendance == nil {
		return invalid("expectedAttendance", "Please provide the expected attendance")
	}
	if req.FoodDrinks == nil {
		return invalid("foodDrinks", "Please answer whether food or drinks will be served")
	}
	if *req.FoodDrinks && req.ASFunding == nil {
		return invalid("asFunding", "Please answer whether AS funding is requested")
	}
	return valid()
}

func validateFunding(req EventRequest) ValidationResult {
	if req.ASFunding == nil || !*req.ASFunding {
		return valid()
	}
	if len(req.Invoices.Invoices) == 0 {
		return invalid("invoices", "Please add at least one invoice when requesting AS funding")
	}
	for _, inv := range req.Invoices.Invoices {
		if res := validateInvoice(inv); !res.Valid {
			return res
		}
	}
	return valid()
}

func validateInvoice(inv Invoice) ValidationResult {
	field := func(name string) string {
		return fmt.Sprintf("invoices[%s].%s", inv.ID, name)
	}
	if strings.TrimSpace(inv.Vendor) == "" {
		return invalid(field("vendor"), "Please enter a vendor name for every invoice")
	}
	if len(inv.Files) == 0 {
		return invalid(field("files"), "Please attach at least one file to every invoice")
	}
	if len(inv.Items) == 0 {
		return invalid(field("items"), "Please add at least one item to every invoice")
	}
	for i, it := range inv.Items {
		itemField := func(name string) string {
			return fmt.Sprintf("invoices[%s].items[%d].%s", inv.ID, i, name)
		}
		if strings.TrimSpace(it.Description) == "" {
			return invalid(itemField("description"), "Please describe every invoice item")
		}
		if it.Quantity <= 0 {
			return invalid(itemField("quantity"), "Item quantities must be greater than zero")
		}
		if it.UnitPriceCents < 0 {
			return invalid(itemField("unitPrice"), "Item prices cannot be negative")
		}
	}
	if inv.TaxCents < 0 {
		return invalid(field("tax"), "Invoice tax cannot be negative")
	}
	if inv.TipCents < 0 {
		return invalid(field("tip"), "Invoice tip cannot be negative")
	}
	return valid()
}

func parseClock(s string) (time.Time, error) {
	return time.Parse("15:04", strings.TrimSpace(s))
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
