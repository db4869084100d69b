package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	authcore "github.com/matchday/authcore"
)

const maxAuditedBodyBytes = 64 << 10

// Fields whose values never reach the audit trail.
var redactedFields = map[string]struct{}{
	"password":          {},
	"confirmPassword":   {},
	"currentPassword":   {},
	"newPassword":       {},
	"token":             {},
	"idToken":           {},
	"accessToken":       {},
	"refreshToken":      {},
	"verificationToken": {},
	"resetToken":        {},
}

const redactedPlaceholder = "[REDACTED]"

// RequestAudit records every API call on the audit trail. Request
// bodies are snapshotted with credential and token fields redacted;
// bodies that are not JSON objects are dropped from the snapshot.
func RequestAudit(sink authcore.AuditSink) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sink == nil {
				next.ServeHTTP(w, r)
				return
			}

			snapshot := snapshotBody(r)

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			event := authcore.AuditEvent{
				Timestamp:   time.Now().UTC(),
				Action:      authcore.AuditActionView,
				EntityType:  "Request",
				EntityName:  r.Method + " " + r.URL.Path,
				Description: "status " + strconv.Itoa(recorder.status),
				NewValues:   snapshot,
				IP:          clientIP(r),
				UserAgent:   r.UserAgent(),
				Success:     recorder.status < http.StatusBadRequest,
			}
			if principal, ok := PrincipalFromContext(r.Context()); ok {
				event.ActorID = principal.AccountID
				event.ActorName = principal.Email
			}
			sink.Emit(r.Context(), event)
		})
	}
}

// snapshotBody reads and restores the request body, returning a
// redacted JSON copy suitable for the audit trail.
func snapshotBody(r *http.Request) json.RawMessage {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxAuditedBodyBytes))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return nil
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	for name := range fields {
		if _, sensitive := redactedFields[name]; sensitive {
			fields[name] = redactedPlaceholder
		}
	}

	redacted, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	return redacted
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
