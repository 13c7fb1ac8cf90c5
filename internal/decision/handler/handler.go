// Package handler exposes the public evaluation endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lendgate/internal/decision"
	"lendgate/pkg/platform/httputil"
	"lendgate/pkg/requestcontext"
)

// Service defines the evaluation operation.
type Service interface {
	Evaluate(ctx context.Context, app decision.Application) (*decision.Result, error)
}

// Handler wires the evaluation endpoint to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an evaluation handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the evaluation endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/decision/evaluate", h.HandleEvaluate)
}

// HandleEvaluate handles POST /decision/evaluate requests.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.Decode[EvaluateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	app, err := req.ToApplication()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.Evaluate(ctx, app)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromResult(res))
}
