package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/courseloop/campus-auth/internal/auth/domain"
	"github.com/courseloop/campus-auth/internal/auth/notify"
	"github.com/courseloop/campus-auth/internal/auth/store"
	"github.com/courseloop/campus-auth/pkg/cryptox"
	"github.com/courseloop/campus-auth/pkg/idx"
	"github.com/courseloop/campus-auth/pkg/slogx"
)

// ErrCodeInvalid is the uniform verification failure. Wrong code, expired
// code, already-spent code and no-code-at-all are indistinguishable to
// the caller.
var ErrCodeInvalid = errors.New("service: code invalid")

const (
	// DefaultOTPTTL bounds the window in which an issued code is usable.
	DefaultOTPTTL = 5 * time.Minute

	// DefaultCodeDigits is the length of generated numeric codes.
	DefaultCodeDigits = 6

	// DefaultNotifyTimeout bounds the post-commit delivery attempt so a
	// wedged relay cannot hold the request open.
	DefaultNotifyTimeout = 10 * time.Second
)

// OTPService owns the one-time-code ledger: issuing codes, superseding
// older ones, and spending them exactly once.
type OTPService struct {
	Store   store.Store
	Channel notify.Channel

	TTL           time.Duration
	CodeDigits    int
	NotifyTimeout time.Duration

	// Now is the clock; defaults to time.Now. Tests pin it.
	Now func() time.Time
}

func (s *OTPService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *OTPService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultOTPTTL
}

func (s *OTPService) digits() int {
	if s.CodeDigits > 0 {
		return s.CodeDigits
	}
	return DefaultCodeDigits
}

func (s *OTPService) notifyTimeout() time.Duration {
	if s.NotifyTimeout > 0 {
		return s.NotifyTimeout
	}
	return DefaultNotifyTimeout
}

// Issue generates a fresh code for (user, purpose), invalidates any
// still-active codes in the same transaction, persists the new row, and
// only then attempts delivery. A delivery error is returned to the
// caller, but the issued code stays valid; the user can still complete
// the flow if the message arrived late.
func (s *OTPService) Issue(ctx context.Context, user domain.User, purpose domain.PasscodePurpose) (domain.Passcode, error) {
	code, err := cryptox.GenerateNumericCode(s.digits())
	if err != nil {
		return domain.Passcode{}, fmt.Errorf("generate code: %w", err)
	}

	now := s.now()
	passcode := domain.Passcode{
		ID:        idx.NewAt(now),
		SubjectID: user.ID,
		Code:      code,
		Purpose:   purpose,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl()),
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		superseded, err := tx.Passcodes().ConsumeActive(ctx, user.ID, purpose, now)
		if err != nil {
			return fmt.Errorf("supersede active codes: %w", err)
		}
		if superseded > 0 {
			slogx.FromContext(ctx).Debug("superseded active codes",
				slog.Int64("count", superseded),
				slog.String("purpose", string(purpose)),
			)
		}
		return tx.Passcodes().Create(ctx, passcode)
	})
	if err != nil {
		return domain.Passcode{}, fmt.Errorf("persist code: %w", err)
	}

	// Delivery happens after the row is durable. The bounded context
	// keeps a wedged channel from stalling the request.
	nctx, cancel := context.WithTimeout(ctx, s.notifyTimeout())
	defer cancel()

	if err := s.Channel.Send(nctx, user.Email, purpose, code, passcode.ExpiresAt); err != nil {
		return passcode, err
	}
	return passcode, nil
}

// Verify checks a submitted code against the newest ledger row for
// (user, purpose) and spends it on match. Only the most recent code is
// ever considered; older rows stay dead even if unexpired.
func (s *OTPService) Verify(ctx context.Context, userID int64, purpose domain.PasscodePurpose, submitted string) error {
	return s.verifyWith(ctx, s.Store, userID, purpose, submitted)
}

// VerifyWith runs the same check inside an existing transaction so a
// caller can couple the spend with its own writes (password reset).
func (s *OTPService) VerifyWith(ctx context.Context, tx store.Tx, userID int64, purpose domain.PasscodePurpose, submitted string) error {
	return s.verifyWith(ctx, tx, userID, purpose, submitted)
}

func (s *OTPService) verifyWith(ctx context.Context, st store.Store, userID int64, purpose domain.PasscodePurpose, submitted string) error {
	latest, err := st.Passcodes().Latest(ctx, userID, purpose)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCodeInvalid
		}
		return fmt.Errorf("load latest code: %w", err)
	}

	now := s.now()
	if !latest.Active(now) {
		return ErrCodeInvalid
	}
	if subtle.ConstantTimeCompare([]byte(latest.Code), []byte(submitted)) != 1 {
		return ErrCodeInvalid
	}

	ok, err := st.Passcodes().Consume(ctx, latest.ID, now)
	if err != nil {
		return fmt.Errorf("consume code: %w", err)
	}
	if !ok {
		// Lost the race to a concurrent verifier.
		return ErrCodeInvalid
	}
	return nil
}
