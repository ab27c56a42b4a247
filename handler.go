package main

import (
	"fmt"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/rs/cors"
)

// countHandler answers every request, whatever its method or path, with
// the counter value that request produced.
type countHandler struct {
	counter *RequestCounter
}

func (h *countHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := h.counter.Next()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprintf(w, "Number of connections: %d", n); err != nil {
		// The count is spent either way.
		httpLog.Debugf("unable to send count %d to %s: %v",
			n, r.RemoteAddr, err)
	}
}

// newHandler returns the counting handler wrapped in the middleware chain
// the server exposes.
func newHandler(counter *RequestCounter, allowedOrigins []string) http.Handler {
	return wrapHandler(&countHandler{counter: counter}, allowedOrigins)
}

// wrapHandler adds panic recovery, CORS and access logging around h.
// Preflight requests are passed through so they are counted like any other.
func wrapHandler(h http.Handler, allowedOrigins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost,
			http.MethodPut, http.MethodPatch, http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:     []string{"*"},
		OptionsPassthrough: true,
	})

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{httpLog}),
		handlers.PrintRecoveryStack(true),
	)

	access := handlers.CombinedLoggingHandler(debugWriter{httpLog}, h)

	return recovery(c.Handler(access))
}
