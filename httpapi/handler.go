// Package httpapi exposes the Coordinator as a REST surface with the
// uniform {success, message, data, errors} envelope.
package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	authcore "github.com/matchday/authcore"
)

const maxBodyBytes = 1 << 20

// Handler carries the HTTP endpoints of the auth surface.
type Handler struct {
	coordinator *authcore.Coordinator
}

func NewHandler(coordinator *authcore.Coordinator) *Handler {
	return &Handler{coordinator: coordinator}
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

type googleLoginRequest struct {
	IDToken string `json:"idToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type resendVerificationRequest struct {
	Email string `json:"email"`
}

type authPayload struct {
	AccountID            string    `json:"accountId"`
	Email                string    `json:"email"`
	FirstName            string    `json:"firstName,omitempty"`
	LastName             string    `json:"lastName,omitempty"`
	FullName             string    `json:"fullName"`
	Roles                []string  `json:"roles"`
	EmailConfirmed       bool      `json:"emailConfirmed"`
	AccessToken          string    `json:"accessToken"`
	AccessTokenExpiresAt time.Time `json:"accessTokenExpiresAt"`
	RefreshToken         string    `json:"refreshToken"`
	SessionID            string    `json:"sessionId"`
}

type profilePayload struct {
	AccountID      string     `json:"accountId"`
	Email          string     `json:"email"`
	FirstName      string     `json:"firstName,omitempty"`
	LastName       string     `json:"lastName,omitempty"`
	FullName       string     `json:"fullName"`
	ProfilePicture string     `json:"profilePicture,omitempty"`
	Roles          []string   `json:"roles"`
	EmailConfirmed bool       `json:"emailConfirmed"`
	LastLoginAt    *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func toAuthPayload(resp *authcore.AuthResponse) authPayload {
	return authPayload{
		AccountID:            resp.AccountID,
		Email:                resp.Email,
		FirstName:            resp.FirstName,
		LastName:             resp.LastName,
		FullName:             resp.FullName,
		Roles:                resp.Roles,
		EmailConfirmed:       resp.EmailConfirmed,
		AccessToken:          resp.AccessToken,
		AccessTokenExpiresAt: resp.AccessTokenExpiresAt,
		RefreshToken:         resp.RefreshToken,
		SessionID:            resp.SessionID,
	}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.coordinator.Register(requestContext(r), authcore.RegisterRequest{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, "Registration successful", toAuthPayload(resp))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.coordinator.Login(requestContext(r), req.Email, req.Password, req.RememberMe)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "Login successful", toAuthPayload(resp))
}

func (h *Handler) googleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.coordinator.GoogleLogin(requestContext(r), req.IDToken)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "Login successful", toAuthPayload(resp))
}

func (h *Handler) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.coordinator.RefreshToken(requestContext(r), req.RefreshToken)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "Token refreshed", toAuthPayload(resp))
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, authcore.ErrTokenInvalid)
		return
	}

	// The body is optional: with a refresh token only that session ends.
	var req logoutRequest
	if r.Body != nil && r.ContentLength != 0 {
		if !decodeBody(w, r, &req) {
			return
		}
	}

	if err := h.coordinator.Logout(requestContext(r), principal.AccountID, req.RefreshToken); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "Logged out", nil)
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.coordinator.ForgotPassword(requestContext(r), req.Email); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "If the email is registered, a reset link has been sent", nil)
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.coordinator.ResetPassword(requestContext(r), req.Email, req.Token, req.NewPassword); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "Password has been reset", nil)
}

func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.coordinator.VerifyEmail(requestContext(r), req.Email, req.Token); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "Email confirmed", nil)
}

func (h *Handler) resendVerification(w http.ResponseWriter, r *http.Request) {
	var req resendVerificationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.coordinator.ResendVerificationEmail(requestContext(r), req.Email); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "If the email is registered and unconfirmed, a verification link has been sent", nil)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, authcore.ErrTokenInvalid)
		return
	}

	account, err := h.coordinator.CurrentUser(requestContext(r), principal.AccountID)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "", profilePayload{
		AccountID:      account.ID,
		Email:          account.Email,
		FirstName:      account.FirstName,
		LastName:       account.LastName,
		FullName:       account.DisplayName(),
		ProfilePicture: account.ProfilePicture,
		Roles:          account.Roles,
		EmailConfirmed: account.EmailConfirmed,
		LastLoginAt:    account.LastLoginAt,
		CreatedAt:      account.CreatedAt,
	})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, "ok", nil)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Invalid request body"})
		return false
	}
	return true
}

// requestContext enriches the request context with caller metadata for
// sessions, throttling and audit.
func requestContext(r *http.Request) context.Context {
	ctx := authcore.WithClientIP(r.Context(), clientIP(r))
	ctx = authcore.WithUserAgent(ctx, r.UserAgent())
	if device := r.Header.Get("X-Device-Name"); device != "" {
		ctx = authcore.WithDevice(ctx, device)
	}
	return ctx
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.IndexByte(forwarded, ','); idx >= 0 {
			forwarded = forwarded[:idx]
		}
		return strings.TrimSpace(forwarded)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
