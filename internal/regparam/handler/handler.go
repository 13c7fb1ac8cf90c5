// Package handler exposes the parameter administration endpoints. All
// routes are expected to be mounted behind the operator gateway; the
// acting principal arrives in the X-Actor-Id header.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"lendgate/internal/regparam"
	dErrors "lendgate/pkg/domain-errors"
	"lendgate/pkg/platform/httputil"
	"lendgate/pkg/requestcontext"
)

// Service defines the parameter administration operations.
type Service interface {
	Propose(ctx context.Context, prop regparam.Proposal, createdBy string) (*regparam.Parameter, error)
	Approve(ctx context.Context, id uuid.UUID, approvedBy string) (*regparam.Parameter, error)
	Deactivate(ctx context.Context, id uuid.UUID, reason, actor string) error
	List(ctx context.Context, filter regparam.ListFilter) ([]regparam.Parameter, error)
}

// Handler wires parameter administration endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a parameter administration handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the administration endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/regulation-params", h.HandleList)
	r.Post("/admin/regulation-params", h.HandlePropose)
	r.Post("/admin/regulation-params/{id}/approve", h.HandleApprove)
	r.Delete("/admin/regulation-params/{id}", h.HandleDeactivate)
}

// HandleList handles GET /admin/regulation-params requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := regparam.ListFilter{
		Key:        q.Get("key"),
		Category:   q.Get("category"),
		ActiveOnly: q.Get("active") == "true",
	}

	params, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{
		Parameters: fromParameters(params),
		Total:      len(params),
	})
}

// HandlePropose handles POST /admin/regulation-params requests.
func (h *Handler) HandlePropose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor := actorFrom(r)
	if actor == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "acting principal is required"))
		return
	}

	req, ok := httputil.Decode[ProposeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	prop, err := req.ToProposal()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	param, err := h.service.Propose(ctx, prop, actor)
	if err != nil {
		h.logger.ErrorContext(ctx, "parameter proposal failed",
			"request_id", requestID,
			"param_key", req.Key,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fromParameter(*param))
}

// HandleApprove handles POST /admin/regulation-params/{id}/approve requests.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor := actorFrom(r)
	if actor == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "acting principal is required"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid parameter id"))
		return
	}

	param, err := h.service.Approve(ctx, id, actor)
	if err != nil {
		h.logger.ErrorContext(ctx, "parameter approval failed",
			"request_id", requestID,
			"param_id", id,
			"approved_by", actor,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromParameter(*param))
}

// HandleDeactivate handles DELETE /admin/regulation-params/{id} requests.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor := actorFrom(r)
	if actor == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "acting principal is required"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid parameter id"))
		return
	}

	reason := r.URL.Query().Get("reason")
	if err := h.service.Deactivate(ctx, id, reason, actor); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":         "deactivated",
		"deactivated_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func actorFrom(r *http.Request) string {
	if actor := requestcontext.ActorID(r.Context()); actor != "" {
		return actor
	}
	return r.Header.Get("X-Actor-Id")
}
