// Package core holds the domain model of the funding request workflow:
// money arithmetic, the invoice collection, the budget estimator and the
// form validation rules.
//
// This file contains functions for parsing monetary amounts from strings
// and computing derived invoice totals in integer cents.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Zero is a valid amount here:
// a draft invoice item may carry a unit price of 0 while it is being edited.
// Returns an error for invalid formats or negative values.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.346") -> 1235, nil (rounds up)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only unsigned values allowed
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// Dollars returns the dollar value as a float64 for display purposes.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Dollars() float64 {
	return float64(m.Cents) / 100.0
}

// FormatCents renders an amount in cents as "$12.34".
func FormatCents(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "." + fmt.Sprintf("%02d", cents%100)
	if neg {
		return "-$" + s
	}
	return "$" + s
}

// LineTotalCents computes the total of one invoice line.
func LineTotalCents(quantity, unitPriceCents int64) int64 {
	return quantity * unitPriceCents
}

// SubtotalCents sums the item totals of the invoice. Item order does not
// affect the result; an invoice without items has subtotal 0.
func (inv Invoice) SubtotalCents() int64 {
	var sum int64
	for _, it := range inv.Items {
		sum += it.TotalCents
	}
	return sum
}

// TotalCents is the invoice subtotal plus tax and tip.
func (inv Invoice) TotalCents() int64 {
	return inv.SubtotalCents() + inv.TaxCents + inv.TipCents
}

// GrandTotalCents sums the totals of all invoices in the collection.
// An empty collection has grand total 0.
func (c InvoiceCollection) GrandTotalCents() int64 {
	var sum int64
	for _, inv := range c.Invoices {
		sum += inv.TotalCents()
	}
	return sum
}
