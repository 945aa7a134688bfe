package domain

import "time"

// Session is the result of a completed authentication: a signed bearer
// token plus the public profile of the authenticated user. Nothing is
// persisted server-side; expiry is the only revocation.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Profile   Profile   `json:"profile"`
}

// SecondFactorChallenge signals that primary credentials matched and a
// one-time code has been issued. It carries only the username being
// challenged, never the code.
type SecondFactorChallenge struct {
	Subject string `json:"subject"`
}

// LoginOutcome is the tagged result of a login attempt: exactly one of
// Challenge or Session is set. "More steps needed" is not an error, so it
// does not travel on the error path.
type LoginOutcome struct {
	Challenge *SecondFactorChallenge
	Session   *Session
}
