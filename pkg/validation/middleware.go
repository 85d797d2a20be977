// Package validation provides middleware for HTTP request validation
package validation

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Middleware provides validation helpers for HTTP handlers
type Middleware struct {
	config *ValidationConfig
}

// NewMiddleware creates a new validation middleware
func NewMiddleware(config *ValidationConfig) *Middleware {
	if config == nil {
		config = DefaultValidationConfig()
	}

	return &Middleware{
		config: config,
	}
}

// DecodeJSON decodes the request body into v and validates it. On failure it
// writes a 422 response in the service's detail format and returns false.
func (m *Middleware) DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(v); err != nil {
		WriteValidationErrors(w, http.StatusUnprocessableEntity, ValidationErrors{{
			Field:   "",
			Message: fmt.Sprintf("invalid JSON: %v", err),
			Type:    "value_error.jsondecode",
		}})
		return false
	}

	if err := ValidateWithConfig(v, m.config); err != nil {
		if validationErrors, ok := err.(ValidationErrors); ok {
			WriteValidationErrors(w, http.StatusUnprocessableEntity, validationErrors)
			return false
		}
		// Anything else is a validator misuse, not a client mistake
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"validation failed"}`))
		return false
	}

	if custom, ok := v.(Validator); ok {
		if err := custom.Validate(); err != nil {
			errs, ok := err.(ValidationErrors)
			if !ok {
				errs = ValidationErrors{{Field: "", Message: err.Error(), Type: "value_error"}}
			}
			WriteValidationErrors(w, http.StatusUnprocessableEntity, errs)
			return false
		}
	}
	return true
}

// RequireBearer rejects requests whose Authorization header does not carry
// the expected bearer token. An empty token disables the check.
func (m *Middleware) RequireBearer(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			value := r.Header.Get("Authorization")
			if !isBearerToken(value) || subtle.ConstantTimeCompare([]byte(strings.TrimPrefix(value, "Bearer ")), []byte(token)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", "Bearer")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"detail":"Not authenticated"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteValidationErrors writes validation errors as a JSON detail response
func WriteValidationErrors(w http.ResponseWriter, statusCode int, errors ValidationErrors) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorData, err := MarshalValidationErrors(errors)
	if err != nil {
		// Fallback error response
		_, _ = w.Write([]byte(`{"detail":"validation failed"}`))
		return
	}

	_, _ = w.Write(errorData)
}

func isBearerToken(s string) bool {
	return len(s) > 7 && s[:7] == "Bearer " && len(s[7:]) > 0
}
