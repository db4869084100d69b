// Package authcore implements the authentication and session-lifecycle
// subsystem of a league-management platform.
//
// The Coordinator is the single entry point: registration, password and
// Google sign-in, refresh rotation, logout, email verification and
// password reset all go through it. Sessions live in a Redis-backed
// registry and are never deleted, only marked inactive, so the session
// history stays available for audit. Credentials live behind the
// CredentialStore interface; a pgx-backed implementation ships in the
// postgres subpackage.
//
// Build a Coordinator through the Builder:
//
//	coordinator, err := authcore.New().
//		WithConfig(cfg).
//		WithRedis(redisClient).
//		WithCredentialStore(store).
//		Build()
//
// A Coordinator is immutable after Build and safe for concurrent use.
// Expected failures are returned as sentinel errors or as the structured
// ValidationError and LockedOutError types; audit emission is
// best-effort and never fails a flow.
package authcore
