// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package api

import (
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flyvercity/iot-ngin-c2ng/internal/logger"
	"github.com/flyvercity/iot-ngin-c2ng/telemetry"
)

// signalReport wraps one measurement packet
type signalReport struct {
	Packet *telemetry.Packet `json:"Packet" validate:"required"`
}

// handleSignalReport services POST /signal/{uasid}
func (s *Server) handleSignalReport(w http.ResponseWriter, r *http.Request) {
	uasid := chi.URLParam(r, "uasid")

	report, ok := decode[signalReport](s, w, r)
	if !ok {
		return
	}

	if err := s.deps.Signal.WriteSignal(r.Context(), uasid, report.Packet); err != nil {
		internalError(w, err)
		return
	}

	logger.Info("Signal data written", logger.String("uasid", uasid))
	respond(w, nil)
}

// handleSignalStats services GET /signal/{uasid}
func (s *Server) handleSignalStats(w http.ResponseWriter, r *http.Request) {
	uasid := chi.URLParam(r, "uasid")

	values, err := s.deps.StatsMan.GetSignalStats(r.Context(), uasid)
	if err != nil {
		logger.ErrorMsg("Failed to read signal stats",
			logger.String("uasid", uasid),
			logger.Error(err))
		fail(w, envelope{"Database": "unable_to_read"})
		return
	}

	stats := make([]int, 0, len(values))
	for _, value := range values {
		stats = append(stats, int(math.Round(value)))
	}

	respond(w, envelope{"Stats": stats})
}
