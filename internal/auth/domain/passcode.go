package domain

import (
	"time"

	"github.com/courseloop/campus-auth/pkg/idx"
)

// PasscodePurpose tags what an issued code authorizes. Codes for different
// purposes never satisfy each other.
type PasscodePurpose string

const (
	PurposeLogin2FA      PasscodePurpose = "login_2fa"
	PurposePasswordReset PasscodePurpose = "password_reset"
)

// Passcode is one issued one-time code in the ledger. Rows are append-only:
// never deleted, never mutated except to set ConsumedAt exactly once.
type Passcode struct {
	ID         idx.ID
	SubjectID  int64
	Code       string // zero-padded numeric string
	Purpose    PasscodePurpose
	IssuedAt   time.Time
	ExpiresAt  time.Time
	ConsumedAt *time.Time
}

// Active reports whether the code is still spendable at now: unconsumed
// and strictly before expiry.
func (p Passcode) Active(now time.Time) bool {
	return p.ConsumedAt == nil && now.Before(p.ExpiresAt)
}
