// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flyvercity/iot-ngin-c2ng/store"
)

// handleNotificationsAuth services POST /notifications/auth/{uasid}/{segment}.
// It authenticates over HTTP and hands out the ticket the client
// presents during the websocket subscribe.
func (s *Server) handleNotificationsAuth(w http.ResponseWriter, r *http.Request) {
	uasid := chi.URLParam(r, "uasid")
	segment := chi.URLParam(r, "segment")

	errors := envelope{}

	if uasid == "" {
		errors["UasID"] = "not_found"
	}

	if segment == "" {
		errors["Segment"] = "not_found"
	} else if !store.ValidSegment(segment) {
		errors["Segment"] = "bad_segment"
	}

	if len(errors) > 0 {
		fail(w, errors)
		return
	}

	ticket, err := s.deps.Tickets.Issue(uasid, segment)
	if err != nil {
		internalError(w, err)
		return
	}

	respond(w, envelope{"Ticket": ticket})
}
