package stats_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"ms-ticket-stats/internal/auth"
	"ms-ticket-stats/internal/logger"
	"ms-ticket-stats/internal/stats"
)

// maxBodyBytes bounds the request body of every stats endpoint.
const maxBodyBytes = 1 << 16

// StatsService is the part of stats.Service the handlers call.
type StatsService interface {
	GetSoldTicketsStat(ctx context.Context, eventID int64) (stats.SoldTicketsStat, error)
	GetTicketsSummary(ctx context.Context, eventID int64) ([]stats.SummaryRow, error)
	GetTicketsTable(ctx context.Context, eventID int64, page, pageSize int) (*stats.LedgerPage, error)
}

// OwnershipChecker confirms that the caller may read the stats of an event.
type OwnershipChecker interface {
	VerifyEventOwnership(ctx context.Context, eventID int64, userID string) error
}

// Handler serves the dashboard statistics endpoints
type Handler struct {
	Service   StatsService
	Ownership OwnershipChecker
	Logger    *logger.Logger
	// DefaultPageSize applies when a ledger request omits pageSize.
	DefaultPageSize int
}

// NewHandler creates a new stats handler. A nil ownership checker skips the
// event ownership check.
func NewHandler(service StatsService, ownership OwnershipChecker, log *logger.Logger) *Handler {
	return &Handler{
		Service:         service,
		Ownership:       ownership,
		Logger:          log,
		DefaultPageSize: stats.DefaultPageSize,
	}
}

// RegisterRoutes registers the stats routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/functions/v1", func(r chi.Router) {
		r.Post("/get-sold-tickets-stat", h.GetSoldTicketsStat)
		r.Post("/get-tickets-summary-table-data", h.GetTicketsSummaryTableData)
		r.Post("/get-tickets-table-data", h.GetTicketsTableData)
	})
}

// eventID accepts a JSON number or a numeric string.
type eventID int64

func (e *eventID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*e = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("eventId must be an integer")
	}
	*e = eventID(v)
	return nil
}

type eventRequest struct {
	EventID eventID `json:"eventId"`
}

type tableRequest struct {
	EventID  eventID `json:"eventId"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}

// GetSoldTicketsStat handles POST /functions/v1/get-sold-tickets-stat
func (h *Handler) GetSoldTicketsStat(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !h.decodeAndAuthorize(w, r, &req, func() int64 { return int64(req.EventID) }) {
		return
	}

	result, err := h.Service.GetSoldTicketsStat(r.Context(), int64(req.EventID))
	if err != nil {
		h.sendError(w, "get-sold-tickets-stat", err)
		return
	}
	h.Logger.LogStats("SOLD_STAT", int64(req.EventID), fmt.Sprintf("%d series points", len(result.Series)))
	sendJSONResponse(w, http.StatusOK, result)
}

// GetTicketsSummaryTableData handles POST /functions/v1/get-tickets-summary-table-data
func (h *Handler) GetTicketsSummaryTableData(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !h.decodeAndAuthorize(w, r, &req, func() int64 { return int64(req.EventID) }) {
		return
	}

	rows, err := h.Service.GetTicketsSummary(r.Context(), int64(req.EventID))
	if err != nil {
		h.sendError(w, "get-tickets-summary-table-data", err)
		return
	}
	h.Logger.LogStats("SUMMARY", int64(req.EventID), fmt.Sprintf("%d ticket types", len(rows)))
	sendJSONResponse(w, http.StatusOK, rows)
}

// GetTicketsTableData handles POST /functions/v1/get-tickets-table-data
func (h *Handler) GetTicketsTableData(w http.ResponseWriter, r *http.Request) {
	var req tableRequest
	if !h.decodeAndAuthorize(w, r, &req, func() int64 { return int64(req.EventID) }) {
		return
	}
	if req.PageSize == 0 && h.DefaultPageSize > 0 {
		req.PageSize = h.DefaultPageSize
	}

	page, err := h.Service.GetTicketsTable(r.Context(), int64(req.EventID), req.Page, req.PageSize)
	if err != nil {
		h.sendError(w, "get-tickets-table-data", err)
		return
	}
	h.Logger.LogStats("LEDGER", int64(req.EventID), fmt.Sprintf("page %d/%d, %d valid tickets", page.CurrentPage, page.TotalPages, page.TotalValidCount))
	sendJSONResponse(w, http.StatusOK, page)
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	sendJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeAndAuthorize reads the JSON body into dst and runs the ownership
// check. It writes the error response itself and returns false on failure.
func (h *Handler) decodeAndAuthorize(w http.ResponseWriter, r *http.Request, dst interface{}, id func() int64) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		msg := "invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		h.Logger.Warn("API", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
		sendJSONResponse(w, http.StatusBadRequest, map[string]string{"error": msg})
		return false
	}

	if h.Ownership == nil {
		return true
	}

	userID := auth.UserID(r.Context())
	if userID == "" {
		sendJSONResponse(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return false
	}
	if id() <= 0 {
		// Let the service report the validation error.
		return true
	}
	if err := h.Ownership.VerifyEventOwnership(r.Context(), id(), userID); err != nil {
		if errors.Is(err, auth.ErrNotOwner) {
			sendJSONResponse(w, http.StatusForbidden, map[string]string{"error": err.Error()})
			return false
		}
		h.Logger.Error("AUTH", fmt.Sprintf("Ownership check for event %d failed: %v", id(), err))
		sendJSONResponse(w, http.StatusBadRequest, map[string]string{"error": "failed to verify event ownership"})
		return false
	}
	return true
}

func (h *Handler) sendError(w http.ResponseWriter, op string, err error) {
	var se *stats.Error
	msg := err.Error()
	if errors.As(err, &se) {
		msg = se.Message
	}
	if stats.IsKind(err, stats.KindUpstreamRead) {
		h.Logger.Error("STATS", fmt.Sprintf("%s: %v", op, err))
	} else {
		h.Logger.Warn("STATS", fmt.Sprintf("%s: %v", op, err))
	}
	sendJSONResponse(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// sendJSONResponse is a helper function to send JSON responses
func sendJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already written, an encoding failure can only truncate the body.
	_ = json.NewEncoder(w).Encode(data)
}
