package services

import (
	"context"
	"fmt"
	"log/slog"

	"fundreq/internal/core"
	"fundreq/internal/storage"
)

// RequestStore is the persistence surface the service needs; implemented
// by storage.SQLiteRepository and storage.MemoryStore.
type RequestStore interface {
	CreateRequest(ctx context.Context, req core.EventRequest) (int64, error)
	GetRequest(ctx context.Context, id int64) (storage.StoredRequest, error)
	ListRequests(ctx context.Context, limit int) ([]storage.RequestSummary, error)
	MonthOverview(ctx context.Context, year, month int) (core.FundingOverview, error)
}

// Publisher notifies the export worker about new submissions.
type Publisher interface {
	PublishRequestSubmitted(ctx context.Context, id, version int64) error
}

// FundingService orchestrates request submission across the local store
// and AMQP.
type FundingService struct {
	store     RequestStore
	publisher Publisher
	closers   []func() error
}

func NewFundingService(store RequestStore, publisher Publisher, closers ...func() error) *FundingService {
	return &FundingService{
		store:     store,
		publisher: publisher,
		closers:   closers,
	}
}

// SubmitRequest saves a validated request locally and publishes a
// submission message. The local save is authoritative; a publish failure
// is logged but does not fail the submission.
func (s *FundingService) SubmitRequest(ctx context.Context, req core.EventRequest) (int64, error) {
	id, err := s.store.CreateRequest(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("save request: %w", err)
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "No publisher configured, skipping submission message", "id", id)
		return id, nil
	}
	if err := s.publisher.PublishRequestSubmitted(ctx, id, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish submission message",
			"id", id, "error", err)
		// The worker's startup catch-up pass will still pick it up.
	}
	return id, nil
}

// GetRequest returns a stored request by ID.
func (s *FundingService) GetRequest(ctx context.Context, id int64) (storage.StoredRequest, error) {
	return s.store.GetRequest(ctx, id)
}

// ListRequests returns the most recent submissions.
func (s *FundingService) ListRequests(ctx context.Context, limit int) ([]storage.RequestSummary, error) {
	return s.store.ListRequests(ctx, limit)
}

// MonthOverview returns the aggregated funding for a year+month.
func (s *FundingService) MonthOverview(ctx context.Context, year, month int) (core.FundingOverview, error) {
	return s.store.MonthOverview(ctx, year, month)
}

// Close closes every resource handed to the service.
func (s *FundingService) Close() error {
	var errs []error
	for _, close := range s.closers {
		if err := close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close funding service: %v", errs)
	}
	return nil
}
