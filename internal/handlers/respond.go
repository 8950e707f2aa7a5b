// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON HTTP handlers of the storefront API.
// Handlers decode requests, pull the principal from the request context
// and delegate to the catalog and order services.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"storefront/internal/apperr"
)

// envelope is the body of every JSON response.
type envelope struct {
	Status  bool                `json:"status"`
	Message string              `json:"message"`
	Data    any                 `json:"data,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// writeJSON writes a success envelope.
func writeJSON(w http.ResponseWriter, status int, message string, data any) {
	writeEnvelope(w, status, envelope{Status: true, Message: message, Data: data})
}

func writeEnvelope(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("response encode failed", "error", err)
	}
}

// writeError translates a service error into a failure envelope. It is the
// only place application errors become HTTP status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal(err, "unexpected error")
	}

	status := statusFor(appErr.Kind)
	body := envelope{Message: appErr.Message}
	switch appErr.Kind {
	case apperr.KindValidation:
		body.Errors = appErr.Fields
	case apperr.KindInternal:
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		body.Message = "An unexpected error occurred."
	}
	writeEnvelope(w, status, body)
}

// statusFor maps an error kind to its HTTP status code.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindInvalidInput, apperr.KindBlocked:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
