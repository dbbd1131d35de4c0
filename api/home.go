// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package api

import (
	"encoding/json"
	"net/http"

	"github.com/flyvercity/iot-ngin-c2ng/internal/logger"
	"github.com/flyvercity/iot-ngin-c2ng/pkg/health"
)

// handleHomepage services GET /
func (s *Server) handleHomepage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte("<html><body><h1>C2NG</h1></body></html>"))
}

// handleHealth services GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.Checker.CheckAll(r.Context())

	code := http.StatusOK
	if status.Status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(status); err != nil {
		logger.ErrorMsg("Failed to encode health status", logger.Error(err))
	}
}
