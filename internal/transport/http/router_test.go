package httptransport

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendgate/pkg/requestcontext"
)

type pingHandler struct {
	gotRequestID string
	gotTime      time.Time
}

func (h *pingHandler) Register(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		h.gotRequestID = requestcontext.RequestID(r.Context())
		h.gotTime = requestcontext.Now(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestRouterMountsHandlersUnderV1(t *testing.T) {
	router := NewRouter(&pingHandler{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "feature routes live under /v1 only")
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	router := NewRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDPropagatesCallerHeader(t *testing.T) {
	h := &pingHandler{}
	router := NewRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", h.gotRequestID)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
}

func TestRequestIDMintedWhenAbsent(t *testing.T) {
	h := &pingHandler{}
	router := NewRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))

	require.NotEmpty(t, h.gotRequestID)
	assert.Equal(t, h.gotRequestID, rec.Header().Get("X-Request-Id"))
}

func TestRequestTimePinned(t *testing.T) {
	h := &pingHandler{}
	router := NewRouter(h)

	before := time.Now().UTC()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))

	require.False(t, h.gotTime.IsZero())
	assert.False(t, h.gotTime.Before(before.Add(-time.Second)))
	assert.False(t, h.gotTime.After(time.Now().UTC().Add(time.Second)))
}
