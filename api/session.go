// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flyvercity/iot-ngin-c2ng/sessman"
	"github.com/flyvercity/iot-ngin-c2ng/store"
)

// sessionRequest is the connectivity session request payload
type sessionRequest struct {
	ReferenceTime *float64               `json:"ReferenceTime" validate:"required"`
	UasID         string                 `json:"UasID" validate:"required"`
	Segment       string                 `json:"Segment" validate:"required,oneof=ua adx"`
	IMSI          string                 `json:"IMSI,omitempty" validate:"omitempty,imsi"`
	Metadata      map[string]interface{} `json:"Metadata,omitempty"`
}

// handleSessionOpen services POST /session for both segments
func (s *Server) handleSessionOpen(w http.ResponseWriter, r *http.Request) {
	request, ok := decode[sessionRequest](s, w, r)
	if !ok {
		return
	}

	open := s.deps.SessMan.OpenADXSession
	if request.Segment == store.SegmentUA {
		open = s.deps.SessMan.OpenUASession
	}

	grant, serrs, err := open(r.Context(), sessman.Request{
		UasID:    request.UasID,
		IMSI:     request.IMSI,
		Metadata: request.Metadata,
	})

	if err != nil {
		internalError(w, err)
		return
	}

	if serrs != nil {
		fail(w, serrs)
		return
	}

	respond(w, envelope{
		"IP":                  grant.IP,
		"GatewayIP":           grant.GatewayIP,
		"KID":                 grant.KID,
		"EncryptedPrivateKey": grant.EncryptedPrivateKey,
	})
}

// handleSessionDelete services DELETE /session/{uasid}
func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	uasid := chi.URLParam(r, "uasid")

	if err := s.deps.SessMan.Terminate(r.Context(), uasid); err != nil {
		internalError(w, err)
		return
	}

	respond(w, nil)
}
