// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flyvercity/iot-ngin-c2ng/internal/logger"
	"github.com/flyvercity/iot-ngin-c2ng/internal/metrics"
)

// authenticate verifies the bearer token carried in the literal
// `Authentication` header against the IdP signing keys.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authentication")

		if _, err := s.deps.Verifier.Authenticate(header); err != nil {
			logger.Warn("Authentication failed", logger.Error(err))
			accessDenied(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// measure records per-route request latency
func (s *Server) measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()

		next.ServeHTTP(w, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}

		metrics.RequestDuration.
			WithLabelValues(route, r.Method).
			Observe(time.Since(started).Seconds())
	})
}
