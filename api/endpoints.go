// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flyvercity/iot-ngin-c2ng/internal/logger"
	"github.com/flyvercity/iot-ngin-c2ng/store"
)

// resolveEndpoint fetches the endpoint record addressed by the request
// path, writing the taxonomy error response when any lookup step fails.
func (s *Server) resolveEndpoint(w http.ResponseWriter, r *http.Request) (*store.Endpoint, bool) {
	uasid := chi.URLParam(r, "uasid")
	segment := chi.URLParam(r, "segment")

	if uasid == "" {
		fail(w, envelope{"UasID": "not_found"})
		return nil, false
	}

	session, err := s.deps.Sessions.GetSession(r.Context(), uasid)
	if err != nil {
		internalError(w, err)
		return nil, false
	}

	if session == nil {
		logger.Info("Session not found", logger.String("uasid", uasid))
		fail(w, envelope{"Session": "session_not_found"})
		return nil, false
	}

	if !store.ValidSegment(segment) {
		logger.Warn("Invalid segment",
			logger.String("uasid", uasid),
			logger.String("segment", segment))
		fail(w, envelope{"Segment": "invalid"})
		return nil, false
	}

	endpoint := session.Endpoint(segment)
	if endpoint == nil {
		fail(w, envelope{"Session": "peer_not_connected"})
		return nil, false
	}

	return endpoint, true
}

// handleAddress services GET /address/{uasid}/{segment}
func (s *Server) handleAddress(w http.ResponseWriter, r *http.Request) {
	endpoint, ok := s.resolveEndpoint(w, r)
	if !ok {
		return
	}

	respond(w, envelope{"Address": endpoint.IP})
}

// handleCertificate services GET /certificate/{uasid}/{segment}
func (s *Server) handleCertificate(w http.ResponseWriter, r *http.Request) {
	endpoint, ok := s.resolveEndpoint(w, r)
	if !ok {
		return
	}

	respond(w, envelope{
		"KID":         endpoint.KID,
		"Certificate": endpoint.Certificate,
	})
}
