// Package http provides the JSON API server for funding requests.
//
// This file implements utilities for parsing and validating request data:
// query parameter extraction with sane defaults, strict JSON body decoding
// and input sanitization.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fundreq/internal/core"
)

// maxBodyBytes caps JSON request bodies. Booking confirmations are
// referenced by URL, not uploaded, so payloads stay small.
const maxBodyBytes = 2 << 20

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, using the
// current date as defaults.
func ParseMonthParams(query url.Values) MonthParams {
	now := time.Now()
	params := MonthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			params.Month = m
		}
	}

	return params
}

// ParseAttendance extracts the attendance count for a budget estimate.
func ParseAttendance(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("attendance"))
	if v == "" {
		return 0, errors.New("missing attendance parameter")
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid attendance %q", v)
	}
	return n, nil
}

// ParsePerPersonCents extracts an optional per-person budget override given
// as a decimal dollar amount, e.g. perPerson=12.50. Returns ok=false when
// the parameter is absent.
func ParsePerPersonCents(query url.Values) (cents int64, ok bool, err error) {
	v := strings.TrimSpace(query.Get("perPerson"))
	if v == "" {
		return 0, false, nil
	}
	cents, err = core.ParseDecimalToCents(v)
	if err != nil {
		return 0, false, fmt.Errorf("invalid perPerson %q: %w", v, err)
	}
	return cents, true, nil
}

// DecodeEventRequest strictly decodes the request body into an EventRequest.
// Unknown fields and trailing content are rejected.
func DecodeEventRequest(r *http.Request) (core.EventRequest, error) {
	var req core.EventRequest

	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return core.EventRequest{}, fmt.Errorf("decode event request: %w", err)
	}
	if dec.More() {
		return core.EventRequest{}, errors.New("decode event request: trailing content after JSON value")
	}

	sanitizeRequest(&req)
	return req, nil
}

// ReadImportBody reads the raw invoice import payload, bounded by
// maxBodyBytes.
func ReadImportBody(r *http.Request) ([]byte, error) {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read import body: %w", err)
	}
	return raw, nil
}

func sanitizeRequest(req *core.EventRequest) {
	req.Name = sanitizeInput(req.Name)
	req.Location = sanitizeInput(req.Location)
	req.Description = sanitizeInput(req.Description)
	req.OtherFlyerDesc = sanitizeInput(req.OtherFlyerDesc)
	req.AdvertisingFmt = sanitizeInput(req.AdvertisingFmt)
	for i := range req.Invoices.Invoices {
		inv := &req.Invoices.Invoices[i]
		inv.Vendor = sanitizeInput(inv.Vendor)
		for j := range inv.Items {
			inv.Items[j].Description = sanitizeInput(inv.Items[j].Description)
		}
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
