// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flyvercity/iot-ngin-c2ng/internal/logger"
)

// handleDIDJWT services GET /did/jwt/{uasid}
func (s *Server) handleDIDJWT(w http.ResponseWriter, r *http.Request) {
	uasid := chi.URLParam(r, "uasid")

	token, err := s.deps.DID.IssueJWT(uasid)
	if err != nil {
		logger.ErrorMsg("Unable to issue credential",
			logger.String("uasid", uasid),
			logger.Error(err))
		fail(w, envelope{"UasID": "not_found"})
		return
	}

	respond(w, envelope{"JWT": token})
}

// handleDIDConfig services GET /did/config/{uasid}
func (s *Server) handleDIDConfig(w http.ResponseWriter, r *http.Request) {
	uasid := chi.URLParam(r, "uasid")

	config, err := s.deps.DID.GenerateConfig(uasid)
	if err != nil {
		logger.ErrorMsg("Unable to generate verifier config",
			logger.String("uasid", uasid),
			logger.Error(err))
		fail(w, envelope{"UasID": "not_found"})
		return
	}

	respond(w, envelope{"Config": config})
}
