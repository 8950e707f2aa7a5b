package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"storefront/internal/apperr"
	"storefront/internal/middleware"
	"storefront/internal/session"
)

// Request limits.
const (
	maxJSONBody    = 1 << 20  // 1 MB
	maxImageUpload = 10 << 20 // 10 MB
	maxNameLen     = 255
	maxEmailLen    = 255
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt ignores anything longer
)

// decodeJSON reads the request body into dst. Unknown fields are ignored;
// malformed or oversized bodies yield an InvalidInput error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.InvalidInput("Request body must not be empty.")
		case errors.As(err, &maxErr):
			return apperr.InvalidInput("Request body is too large.")
		default:
			return apperr.InvalidInput("Request body is not valid JSON.")
		}
	}
	return nil
}

// urlID parses a UUID route parameter. A malformed id cannot name an
// existing row, so it is reported as not found.
func urlID(r *http.Request, name, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.NotFound("%s not found", what)
	}
	return id, nil
}

// principal returns the authenticated session. Routes that call it sit
// behind RequireAuth, so a missing session is reported as 401.
func principal(r *http.Request) (*session.Data, error) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		return nil, apperr.Unauthorized("Unauthenticated.")
	}
	return sess, nil
}

// validateRegistration checks the sign-up fields.
func validateRegistration(fields apperr.Fields, name, email, password string) {
	switch {
	case strings.TrimSpace(name) == "":
		fields.Add("name", "The name field is required.")
	case utf8.RuneCountInString(name) > maxNameLen:
		fields.Add("name", "The name may not be greater than 255 characters.")
	}

	switch {
	case strings.TrimSpace(email) == "":
		fields.Add("email", "The email field is required.")
	case len(email) > maxEmailLen:
		fields.Add("email", "The email may not be greater than 255 characters.")
	case !validEmail(email):
		fields.Add("email", "The email must be a valid email address.")
	}

	switch {
	case password == "":
		fields.Add("password", "The password field is required.")
	case len(password) < minPasswordLen:
		fields.Add("password", "The password must be at least 8 characters.")
	case len(password) > maxPasswordLen:
		fields.Add("password", "The password may not be greater than 72 characters.")
	}
}

// validEmail accepts a bare address without display name.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
