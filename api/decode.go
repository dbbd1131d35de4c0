// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// decode unmarshals and validates a JSON request body. On failure it
// writes the validation error response and reports false.
func decode[T any](s *Server, w http.ResponseWriter, r *http.Request) (*T, bool) {
	var payload T

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		fail(w, map[string][]string{
			"Body": {"invalid JSON payload"},
		})
		return nil, false
	}

	if err := s.validate.Struct(&payload); err != nil {
		fail(w, validationMessages(err))
		return nil, false
	}

	return &payload, true
}

// validationMessages shapes validator output as a field → messages map
func validationMessages(err error) map[string][]string {
	messages := make(map[string][]string)

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		messages["Body"] = []string{err.Error()}
		return messages
	}

	for _, fieldError := range fieldErrors {
		field := fieldError.Field()
		messages[field] = append(messages[field], validationMessage(fieldError))
	}

	return messages
}

func validationMessage(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "Missing data for required field."
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", fieldError.Param())
	case "imsi":
		return "String does not match expected pattern."
	default:
		return fmt.Sprintf("Invalid value for %s constraint.", fieldError.Tag())
	}
}
