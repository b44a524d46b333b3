package handlers

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestID tags every response with an X-Request-Id header so individual
// requests can be correlated with log lines. An incoming id is kept,
// otherwise a fresh one is generated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}
