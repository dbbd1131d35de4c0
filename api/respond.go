// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package api

import (
	"encoding/json"
	"net/http"

	"github.com/flyvercity/iot-ngin-c2ng/internal/logger"
)

// envelope is the uniform response body: Success plus either domain
// data or a structured Errors object.
type envelope map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.ErrorMsg("Failed to encode response", logger.Error(err))
	}
}

// respond produces a successful response with optional data
func respond(w http.ResponseWriter, data envelope) {
	body := envelope{"Success": true}
	for key, value := range data {
		body[key] = value
	}

	writeJSON(w, http.StatusOK, body)
}

// fail produces a graceful domain failure response
func fail(w http.ResponseWriter, errors interface{}) {
	writeJSON(w, http.StatusBadRequest, envelope{
		"Success": false,
		"Errors":  errors,
	})
}

// accessDenied produces the authorization failure response
func accessDenied(w http.ResponseWriter) {
	writeJSON(w, http.StatusForbidden, envelope{
		"Success": false,
		"Errors": envelope{
			"Access": "denied",
			"Code":   http.StatusForbidden,
		},
	})
}

// internalError produces the exception fallback response
func internalError(w http.ResponseWriter, err error) {
	logger.ErrorMsg("Internal error", logger.Error(err))

	writeJSON(w, http.StatusInternalServerError, envelope{
		"Success": false,
		"Errors": envelope{
			"InternalError": "internal_error",
			"Code":          http.StatusInternalServerError,
		},
	})
}
