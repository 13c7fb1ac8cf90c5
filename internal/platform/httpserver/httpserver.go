package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. Decision evaluation fans out to the bureau
// and the scoring model, so the write timeout leaves room for the
// evidence deadline plus policy evaluation.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
