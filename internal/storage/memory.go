package storage

import (
	"context"
	"sync"
	"time"

	"fundreq/internal/core"
)

// MemoryStore keeps submitted requests in memory. It backs local
// development and tests when no SQLite path is configured.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]StoredRequest
	order  []int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[int64]StoredRequest)}
}

func (s *MemoryStore) CreateRequest(_ context.Context, req core.EventRequest) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.items[id] = StoredRequest{
		ID:           id,
		Version:      1,
		ExportStatus: ExportPending,
		CreatedAt:    time.Now(),
		Request:      req,
	}
	s.order = append(s.order, id)
	return id, nil
}

func (s *MemoryStore) GetRequest(_ context.Context, id int64) (StoredRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.items[id]
	if !ok {
		return StoredRequest{}, ErrRequestNotFound
	}
	return stored, nil
}

func (s *MemoryStore) ListRequests(_ context.Context, limit int) ([]RequestSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var out []RequestSummary
	// Newest first.
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		stored := s.items[s.order[i]]
		out = append(out, RequestSummary{
			ID:              stored.ID,
			Name:            stored.Request.Name,
			EventDate:       stored.Request.Date.Format(dateLayout),
			GrandTotalCents: stored.Request.Invoices.GrandTotalCents(),
			ExportStatus:    stored.ExportStatus,
			CreatedAt:       stored.CreatedAt,
		})
	}
	return out, nil
}

func (s *MemoryStore) MonthOverview(_ context.Context, year, month int) (core.FundingOverview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	overview := core.FundingOverview{Year: year, Month: month}
	byVendor := make(map[string]int64)
	var vendorOrder []string

	for _, id := range s.order {
		req := s.items[id].Request
		if req.Date.Year() != year || int(req.Date.Month()) != month {
			continue
		}
		overview.RequestCount++
		overview.Total.Cents += req.Invoices.GrandTotalCents()
		for _, inv := range req.Invoices.Invoices {
			if _, seen := byVendor[inv.Vendor]; !seen {
				vendorOrder = append(vendorOrder, inv.Vendor)
			}
			byVendor[inv.Vendor] += inv.TotalCents()
		}
	}
	for _, vendor := range vendorOrder {
		overview.ByVendor = append(overview.ByVendor, core.VendorAmount{
			Name:   vendor,
			Amount: core.Money{Cents: byVendor[vendor]},
		})
	}
	return overview, nil
}
