// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

// Package api is the HTTP and WebSocket frontend of the service.
package api

import (
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/flyvercity/iot-ngin-c2ng/auth"
	"github.com/flyvercity/iot-ngin-c2ng/did"
	"github.com/flyvercity/iot-ngin-c2ng/notify"
	"github.com/flyvercity/iot-ngin-c2ng/pkg/health"
	"github.com/flyvercity/iot-ngin-c2ng/sessman"
	"github.com/flyvercity/iot-ngin-c2ng/stats"
	"github.com/flyvercity/iot-ngin-c2ng/store"
	"github.com/flyvercity/iot-ngin-c2ng/telemetry"
)

// Deps carries every backend the frontend routes to
type Deps struct {
	Verifier *auth.Verifier
	Sessions store.SessionStore
	Signal   telemetry.Store
	SessMan  *sessman.Manager
	StatsMan *stats.Manager
	Tickets  *notify.TicketManager
	DID      *did.Provider
	Checker  *health.Checker
}

// Server routes, authenticates and shapes every request of the service
type Server struct {
	deps     Deps
	validate *validator.Validate
	upgrader websocket.Upgrader
}

var imsiPattern = regexp.MustCompile(`^[0-9]{14,15}$`)

// NewServer creates the frontend over its backends
func NewServer(deps Deps) *Server {
	validate := validator.New()

	// Validation messages reference wire field names, not Go fields.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	_ = validate.RegisterValidation("imsi", func(fl validator.FieldLevel) bool {
		return imsiPattern.MatchString(fl.Field().String())
	})

	return &Server{
		deps:     deps,
		validate: validate,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the service route table
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.measure)

	// Public surface
	r.Get("/", s.handleHomepage)
	r.Get("/healthz", s.handleHealth)
	r.Get("/gui/dashboard", s.handleDashboard)
	r.Get("/notifications/websocket", s.handleWebsocket)

	// Authenticated API
	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Post("/session", s.handleSessionOpen)
		r.Delete("/session/{uasid}", s.handleSessionDelete)
		r.Get("/certificate/{uasid}/{segment}", s.handleCertificate)
		r.Get("/address/{uasid}/{segment}", s.handleAddress)
		r.Post("/signal/{uasid}", s.handleSignalReport)
		r.Get("/signal/{uasid}", s.handleSignalStats)
		r.Post("/notifications/auth/{uasid}/{segment}", s.handleNotificationsAuth)
		r.Get("/did/jwt/{uasid}", s.handleDIDJWT)
		r.Get("/did/config/{uasid}", s.handleDIDConfig)
	})

	return r
}
