// Package httputil renders JSON responses and maps domain errors onto
// HTTP status codes. Internal failures never leak their description.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "lendgate/pkg/domain-errors"
)

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeValidation:          http.StatusUnprocessableEntity,
	dErrors.CodeBadRequest:          http.StatusBadRequest,
	dErrors.CodeNotFound:            http.StatusNotFound,
	dErrors.CodeConflict:            http.StatusConflict,
	dErrors.CodeForbidden:           http.StatusForbidden,
	dErrors.CodeTimeout:             http.StatusGatewayTimeout,
	dErrors.CodeConfiguration:       http.StatusInternalServerError,
	dErrors.CodeUpstreamUnavailable: http.StatusBadGateway,
	dErrors.CodeAuditWrite:          http.StatusInternalServerError,
	dErrors.CodeInternal:            http.StatusInternalServerError,
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to an HTTP response. Server-side failure
// details (internal, configuration, audit) are omitted from the body.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		code = dErrors.CodeInternal
		status = http.StatusInternalServerError
	}

	body := map[string]string{"error": string(code)}
	if status < http.StatusInternalServerError {
		var de *dErrors.Error
		if errors.As(err, &de) {
			body["error_description"] = de.Message
		}
	}
	WriteJSON(w, status, body)
}

// Decode parses a JSON request body into T, reporting a bad-request error
// to the client on failure. The bool result tells the handler whether to
// continue.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "request decode failed",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return req, false
	}
	return req, true
}
