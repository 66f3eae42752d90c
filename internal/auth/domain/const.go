// Package domain defines authentication domain models: sessions, token pairs,
// verified token claims, and the authentication error taxonomy.
package domain

// TerminationReason records why a session stopped being active.
type TerminationReason string

const (
	// TerminationLogout is a targeted logout of one session.
	TerminationLogout TerminationReason = "logout"

	// TerminationLogoutAll is a bulk "log out everywhere" revocation.
	TerminationLogoutAll TerminationReason = "logout_all"

	// TerminationSuperseded marks a session replaced by refresh-token rotation.
	TerminationSuperseded TerminationReason = "superseded"

	// TerminationExpired marks a session past its expiry, swept by cleanup.
	TerminationExpired TerminationReason = "expired"

	// TerminationSessionLimit marks eviction by the concurrent-session cap.
	TerminationSessionLimit TerminationReason = "session_limit_exceeded"

	// TerminationTokenReuse marks chain revocation after a rotated refresh
	// token was presented again.
	TerminationTokenReuse TerminationReason = "token_reuse"

	// TerminationPasswordChanged marks revocation following a password change.
	TerminationPasswordChanged TerminationReason = "password_changed"

	// TerminationAdminRevoked marks an administrative revocation.
	TerminationAdminRevoked TerminationReason = "admin_revoked"
)
