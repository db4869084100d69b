package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	authcore "github.com/matchday/authcore"
)

// RouterConfig wires optional middleware into the REST surface.
type RouterConfig struct {
	// AuditSink, when set, receives one redacted event per API call.
	AuditSink authcore.AuditSink
}

// NewRouter mounts the auth endpoints. Logout and the profile endpoint
// sit behind the access token guard; everything else is anonymous.
func NewRouter(coordinator *authcore.Coordinator, cfg RouterConfig) *mux.Router {
	h := NewHandler(coordinator)
	guard := Guard(coordinator)

	r := mux.NewRouter()
	r.Use(RequestAudit(cfg.AuditSink))

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)

	r.HandleFunc("/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/google-login", h.googleLogin).Methods(http.MethodPost)
	r.HandleFunc("/refresh-token", h.refreshToken).Methods(http.MethodPost)
	r.HandleFunc("/forgot-password", h.forgotPassword).Methods(http.MethodPost)
	r.HandleFunc("/reset-password", h.resetPassword).Methods(http.MethodPost)
	r.HandleFunc("/verify-email", h.verifyEmail).Methods(http.MethodPost)
	r.HandleFunc("/resend-verification-email", h.resendVerification).Methods(http.MethodPost)

	r.Handle("/logout", guard(http.HandlerFunc(h.logout))).Methods(http.MethodPost)
	r.Handle("/me", guard(http.HandlerFunc(h.me))).Methods(http.MethodGet)

	return r
}
