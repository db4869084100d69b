package authcore

import "github.com/matchday/authcore/internal/metrics"

// MetricID identifies one coordinator counter.
type MetricID = metrics.ID

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot = metrics.Snapshot

const (
	// MetricLoginSuccess is an exported constant or variable used by the auth coordinator.
	MetricLoginSuccess = metrics.LoginSuccess
	// MetricLoginFailure is an exported constant or variable used by the auth coordinator.
	MetricLoginFailure = metrics.LoginFailure
	// MetricLoginLockedOut is an exported constant or variable used by the auth coordinator.
	MetricLoginLockedOut = metrics.LoginLockedOut
	// MetricLoginThrottled is an exported constant or variable used by the auth coordinator.
	MetricLoginThrottled = metrics.LoginThrottled
	// MetricGoogleLoginSuccess is an exported constant or variable used by the auth coordinator.
	MetricGoogleLoginSuccess = metrics.GoogleLoginSuccess
	// MetricGoogleLoginFailure is an exported constant or variable used by the auth coordinator.
	MetricGoogleLoginFailure = metrics.GoogleLoginFailure
	// MetricRegisterSuccess is an exported constant or variable used by the auth coordinator.
	MetricRegisterSuccess = metrics.RegisterSuccess
	// MetricRegisterRejected is an exported constant or variable used by the auth coordinator.
	MetricRegisterRejected = metrics.RegisterRejected
	// MetricRefreshSuccess is an exported constant or variable used by the auth coordinator.
	MetricRefreshSuccess = metrics.RefreshSuccess
	// MetricRefreshFailure is an exported constant or variable used by the auth coordinator.
	MetricRefreshFailure = metrics.RefreshFailure
	// MetricLogout is an exported constant or variable used by the auth coordinator.
	MetricLogout = metrics.Logout
	// MetricLogoutAll is an exported constant or variable used by the auth coordinator.
	MetricLogoutAll = metrics.LogoutAll
	// MetricSessionCreated is an exported constant or variable used by the auth coordinator.
	MetricSessionCreated = metrics.SessionCreated
	// MetricSessionSwept is an exported constant or variable used by the auth coordinator.
	MetricSessionSwept = metrics.SessionSwept
	// MetricPasswordResetRequested is an exported constant or variable used by the auth coordinator.
	MetricPasswordResetRequested = metrics.PasswordResetRequested
	// MetricPasswordResetSuccess is an exported constant or variable used by the auth coordinator.
	MetricPasswordResetSuccess = metrics.PasswordResetSuccess
	// MetricPasswordResetFailure is an exported constant or variable used by the auth coordinator.
	MetricPasswordResetFailure = metrics.PasswordResetFailure
	// MetricVerificationEmailSent is an exported constant or variable used by the auth coordinator.
	MetricVerificationEmailSent = metrics.VerificationEmailSent
	// MetricEmailVerified is an exported constant or variable used by the auth coordinator.
	MetricEmailVerified = metrics.EmailVerified
	// MetricEmailVerificationFailure is an exported constant or variable used by the auth coordinator.
	MetricEmailVerificationFailure = metrics.EmailVerificationFailure
)

func (c *Coordinator) metricInc(id MetricID) {
	c.metrics.Inc(id)
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Coordinator) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.TakeSnapshot()
}

// MetricValue returns the current value of a single counter.
func (c *Coordinator) MetricValue(id MetricID) uint64 {
	return c.metrics.Value(id)
}
