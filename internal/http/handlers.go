package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fundreq/internal/core"
	"fundreq/internal/storage"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// budgetResponse decorates the raw estimate with display strings.
type budgetResponse struct {
	core.BudgetEstimate
	CalculatedBudget string `json:"calculatedBudget"`
	ActualBudget     string `json:"actualBudget"`
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	attendance, err := ParseAttendance(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	perPerson := s.perPersonCents
	if cents, ok, err := ParsePerPersonCents(r.URL.Query()); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	} else if ok {
		perPerson = cents
	}

	estimate := core.EstimateBudget(attendance, perPerson, s.maxBudgetCents)
	NewResponse().JSON(budgetResponse{
		BudgetEstimate:   estimate,
		CalculatedBudget: core.FormatCents(estimate.CalculatedCents),
		ActualBudget:     core.FormatCents(estimate.ActualCents),
	}).Write(w)
}

func (s *Server) handleImportInvoice(w http.ResponseWriter, r *http.Request) {
	raw, err := ReadImportBody(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	imp, err := core.ParseInvoicePayload(string(raw))
	if err != nil {
		if errors.Is(err, core.ErrBadImportPayload) {
			UnprocessableEntityError(err.Error()).Write(w)
		} else {
			BadRequestError(err.Error()).Write(w)
		}
		return
	}

	inv := core.NewInvoice()
	inv.Apply(imp)

	slog.InfoContext(r.Context(), "Invoice imported",
		"invoice_id", inv.ID,
		"vendor", inv.Vendor,
		"items", len(inv.Items),
		"total_cents", inv.TotalCents())

	NewResponse().JSON(inv).Write(w)
}

func (s *Server) handleValidateRequest(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeEventRequest(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	NewResponse().JSON(core.ValidateRequest(req)).Write(w)
}

type submitResponse struct {
	ID              int64 `json:"id"`
	GrandTotalCents int64 `json:"grandTotalCents"`
}

func (s *Server) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeEventRequest(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	result := core.ValidateRequest(req)
	if !result.Valid {
		NewResponse().Status(http.StatusUnprocessableEntity).JSON(result).Write(w)
		return
	}

	id, err := s.svc.SubmitRequest(r.Context(), req)
	if err != nil {
		slog.ErrorContext(r.Context(), "Submit request error", "error", err, "event", req.Name)
		InternalServerError("could not save the funding request").Write(w)
		return
	}

	s.invalidateOverview(req.Date.Year(), int(req.Date.Month()))

	NewResponse().Status(http.StatusCreated).JSON(submitResponse{
		ID:              id,
		GrandTotalCents: req.Invoices.GrandTotalCents(),
	}).Write(w)
}

// storedRequestResponse exposes a stored request with its metadata.
type storedRequestResponse struct {
	ID           int64             `json:"id"`
	Version      int64             `json:"version"`
	ExportStatus string            `json:"exportStatus"`
	CreatedAt    time.Time         `json:"createdAt"`
	Request      core.EventRequest `json:"request"`
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		BadRequestError("invalid request id").Write(w)
		return
	}

	stored, err := s.svc.GetRequest(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrRequestNotFound) {
			NotFoundError("funding request not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Get request error", "error", err, "id", id)
		InternalServerError("could not load the funding request").Write(w)
		return
	}

	NewResponse().JSON(storedRequestResponse{
		ID:           stored.ID,
		Version:      stored.Version,
		ExportStatus: stored.ExportStatus,
		CreatedAt:    stored.CreatedAt,
		Request:      stored.Request,
	}).Write(w)
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			BadRequestError("invalid limit parameter").Write(w)
			return
		}
		limit = n
	}

	summaries, err := s.svc.ListRequests(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "List requests error", "error", err)
		InternalServerError("could not list funding requests").Write(w)
		return
	}
	if summaries == nil {
		summaries = []storage.RequestSummary{}
	}

	NewResponse().JSON(summaries).Write(w)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	params := ParseMonthParams(r.URL.Query())
	if params.Month < 1 || params.Month > 12 {
		BadRequestError("month must be between 1 and 12").Write(w)
		return
	}

	overview, err := s.getOverview(r, params.Year, params.Month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Month overview error",
			"error", err, "year", params.Year, "month", params.Month)
		InternalServerError("could not build the funding overview").Write(w)
		return
	}

	NewResponse().JSON(overview).Write(w)
}

func (s *Server) getOverview(r *http.Request, year, month int) (core.FundingOverview, error) {
	key := overviewKey(year, month)
	if data, found := s.overviewCache.Get(key); found {
		slog.DebugContext(r.Context(), "Overview cache hit", "year", year, "month", month)
		return data, nil
	}

	data, err := s.svc.MonthOverview(r.Context(), year, month)
	if err != nil {
		return core.FundingOverview{}, err
	}

	s.overviewCache.Set(key, data)
	return data, nil
}

func overviewKey(year, month int) string {
	return strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

func (s *Server) invalidateOverview(year, month int) {
	s.overviewCache.Delete(overviewKey(year, month))
}
