// Package internaldefs holds the shared metric name and help text
// definitions used by the exporter packages.
package internaldefs

import authcore "github.com/matchday/authcore"

// CounterDef binds a coordinator counter to its exported name.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{authcore.MetricLoginSuccess, "authcore_login_success_total", "Successful password logins."},
	{authcore.MetricLoginFailure, "authcore_login_failure_total", "Failed login attempts."},
	{authcore.MetricLoginLockedOut, "authcore_login_locked_out_total", "Login attempts rejected by account lockout."},
	{authcore.MetricLoginThrottled, "authcore_login_throttled_total", "Login attempts rejected by the identifier throttle."},
	{authcore.MetricGoogleLoginSuccess, "authcore_google_login_success_total", "Successful Google sign-ins."},
	{authcore.MetricGoogleLoginFailure, "authcore_google_login_failure_total", "Failed Google sign-ins."},
	{authcore.MetricRegisterSuccess, "authcore_register_success_total", "Successful registrations."},
	{authcore.MetricRegisterRejected, "authcore_register_rejected_total", "Registrations rejected by validation."},
	{authcore.MetricRefreshSuccess, "authcore_refresh_success_total", "Successful refresh token rotations."},
	{authcore.MetricRefreshFailure, "authcore_refresh_failure_total", "Rejected refresh attempts."},
	{authcore.MetricLogout, "authcore_logout_total", "Single-session logouts."},
	{authcore.MetricLogoutAll, "authcore_logout_all_total", "All-session logouts."},
	{authcore.MetricSessionCreated, "authcore_session_created_total", "Sessions created."},
	{authcore.MetricSessionSwept, "authcore_session_swept_total", "Sessions terminated by the expiry sweep."},
	{authcore.MetricPasswordResetRequested, "authcore_password_reset_requested_total", "Password reset requests accepted."},
	{authcore.MetricPasswordResetSuccess, "authcore_password_reset_success_total", "Completed password resets."},
	{authcore.MetricPasswordResetFailure, "authcore_password_reset_failure_total", "Rejected password reset attempts."},
	{authcore.MetricVerificationEmailSent, "authcore_verification_email_sent_total", "Verification emails dispatched."},
	{authcore.MetricEmailVerified, "authcore_email_verified_total", "Email addresses confirmed."},
	{authcore.MetricEmailVerificationFailure, "authcore_email_verification_failure_total", "Rejected email verification attempts."},
}
