// Package handler exposes read access to the append-only audit log for
// auditors and regulators. There is no write surface; records are only
// appended by the decision and parameter flows.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"lendgate/internal/audit"
	dErrors "lendgate/pkg/domain-errors"
	"lendgate/pkg/platform/httputil"
)

// defaultLimit bounds unfiltered queries.
const defaultLimit = 100

// Reader defines the audit query operations.
type Reader interface {
	ListDecisions(ctx context.Context, filter audit.QueryFilter) ([]audit.DecisionRecord, error)
	ListParameterChanges(ctx context.Context, filter audit.QueryFilter) ([]audit.ParameterChange, error)
}

// Handler wires the audit query endpoints.
type Handler struct {
	reader Reader
	logger *slog.Logger
}

// New constructs an audit query handler.
func New(reader Reader, logger *slog.Logger) *Handler {
	return &Handler{reader: reader, logger: logger}
}

// Register mounts the audit endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit/decisions", h.HandleListDecisions)
	r.Get("/audit/parameter-changes", h.HandleListParameterChanges)
}

// HandleListDecisions handles GET /audit/decisions requests.
func (h *Handler) HandleListDecisions(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter.Decision = r.URL.Query().Get("decision")

	recs, err := h.reader.ListDecisions(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DecisionListResponse{Decisions: recs, Total: len(recs)})
}

// HandleListParameterChanges handles GET /audit/parameter-changes requests.
func (h *Handler) HandleListParameterChanges(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter.ParamKey = r.URL.Query().Get("key")

	recs, err := h.reader.ListParameterChanges(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ChangeListResponse{Changes: recs, Total: len(recs)})
}

// DecisionListResponse is the wire form of a decision log page.
type DecisionListResponse struct {
	Decisions []audit.DecisionRecord `json:"decisions"`
	Total     int                    `json:"total"`
}

// ChangeListResponse is the wire form of a parameter change log page.
type ChangeListResponse struct {
	Changes []audit.ParameterChange `json:"changes"`
	Total   int                     `json:"total"`
}

func filterFrom(r *http.Request) (audit.QueryFilter, error) {
	q := r.URL.Query()
	filter := audit.QueryFilter{Limit: defaultLimit}

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, dErrors.Newf(dErrors.CodeValidation, "from must be RFC 3339: %v", err)
		}
		filter.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, dErrors.Newf(dErrors.CodeValidation, "to must be RFC 3339: %v", err)
		}
		filter.To = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return filter, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer")
		}
		filter.Limit = n
	}
	return filter, nil
}
