package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	authcore "github.com/matchday/authcore"
)

// envelope is the uniform response shape of the REST surface.
type envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func respond(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// respondError maps the coordinator error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is captured in Sentry and surfaced as a
// generic internal error.
func respondError(w http.ResponseWriter, err error) {
	var validation *authcore.ValidationError
	if errors.As(err, &validation) {
		writeJSON(w, http.StatusBadRequest, envelope{
			Success: false,
			Message: "Validation failed",
			Errors:  validation.Messages,
		})
		return
	}

	var locked *authcore.LockedOutError
	if errors.As(err, &locked) {
		writeJSON(w, http.StatusForbidden, envelope{
			Success: false,
			Message: fmt.Sprintf(
				"Account is locked due to repeated failed login attempts. Try again after %s.",
				locked.Until.UTC().Format(time.RFC3339),
			),
		})
		return
	}

	switch {
	case errors.Is(err, authcore.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Message: "Invalid email or password"})
	case errors.Is(err, authcore.ErrAccountInactive):
		writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Message: "Account is inactive"})
	case errors.Is(err, authcore.ErrRefreshInvalid):
		writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Message: "Invalid or expired refresh token"})
	case errors.Is(err, authcore.ErrTokenInvalid):
		writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Message: "Invalid or expired token"})
	case errors.Is(err, authcore.ErrResetInvalid):
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Invalid or expired reset token"})
	case errors.Is(err, authcore.ErrVerificationInvalid):
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Invalid or expired verification token"})
	case errors.Is(err, authcore.ErrEmailExists):
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Email is already registered"})
	case errors.Is(err, authcore.ErrAccountNotFound):
		writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: "Account not found"})
	case errors.Is(err, authcore.ErrTooManyAttempts):
		writeJSON(w, http.StatusTooManyRequests, envelope{Success: false, Message: "Too many attempts. Try again later."})
	default:
		sentry.CaptureException(err)
		writeJSON(w, http.StatusInternalServerError, envelope{Success: false, Message: "An unexpected error occurred"})
	}
}
