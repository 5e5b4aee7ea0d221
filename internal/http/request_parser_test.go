package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestParseMonthParams(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		query     string
		wantYear  int
		wantMonth int
	}{
		{"both provided", "year=2026&month=10", 2026, 10},
		{"defaults when absent", "", now.Year(), int(now.Month())},
		{"garbage year falls back", "year=abc&month=3", now.Year(), 3},
		{"whitespace trimmed", "year=%202026%20&month=%207%20", 2026, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("parse query: %v", err)
			}
			got := ParseMonthParams(q)
			if got.Year != tt.wantYear || got.Month != tt.wantMonth {
				t.Errorf("ParseMonthParams() = %+v, want %d-%d", got, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestParseAttendance(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    int
		wantErr bool
	}{
		{"valid", "attendance=120", 120, false},
		{"zero", "attendance=0", 0, false},
		{"negative passes through", "attendance=-5", -5, false},
		{"missing", "", 0, true},
		{"not a number", "attendance=lots", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := ParseAttendance(q)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParsePerPersonCents(t *testing.T) {
	q, _ := url.ParseQuery("perPerson=12.50")
	cents, ok, err := ParsePerPersonCents(q)
	if err != nil || !ok || cents != 1250 {
		t.Errorf("got (%d, %v, %v), want (1250, true, nil)", cents, ok, err)
	}

	q, _ = url.ParseQuery("")
	if _, ok, err := ParsePerPersonCents(q); ok || err != nil {
		t.Errorf("absent param: got (ok=%v, err=%v), want (false, nil)", ok, err)
	}

	q, _ = url.ParseQuery("perPerson=abc")
	if _, _, err := ParsePerPersonCents(q); err == nil {
		t.Error("expected error for non-decimal value")
	}
}

func TestDecodeEventRequestStrict(t *testing.T) {
	body := `{"name":"Game Night","location":"Lounge"}`
	req, err := DecodeEventRequest(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.Name != "Game Night" || req.Location != "Lounge" {
		t.Errorf("unexpected request: %+v", req)
	}

	unknown := `{"name":"Game Night","surprise":true}`
	if _, err := DecodeEventRequest(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(unknown))); err == nil {
		t.Error("expected error for unknown field")
	}

	trailing := `{"name":"Game Night"} {"again":1}`
	if _, err := DecodeEventRequest(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(trailing))); err == nil {
		t.Error("expected error for trailing content")
	}
}

func TestDecodeEventRequestSanitizes(t *testing.T) {
	body := "{\"name\":\"  Game\\u0000 Night  \",\"description\":\"fun\\u0007\"}"
	req, err := DecodeEventRequest(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.Name != "Game Night" {
		t.Errorf("name = %q, want control characters stripped", req.Name)
	}
	if req.Description != "fun" {
		t.Errorf("description = %q", req.Description)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  plain  ", "plain"},
		{"tab\tkept", "tab\tkept"},
		{"bell\x07gone", "bellgone"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
