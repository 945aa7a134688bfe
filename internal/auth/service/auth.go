package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/courseloop/campus-auth/internal/auth/domain"
	"github.com/courseloop/campus-auth/internal/auth/store"
	"github.com/courseloop/campus-auth/pkg/cryptox"
	"github.com/courseloop/campus-auth/pkg/slogx"
)

var (
	// ErrInvalidInput covers structurally bad requests (empty fields).
	ErrInvalidInput = errors.New("service: invalid input")

	// ErrInvalidCredentials is the uniform primary-credential failure.
	// Unknown identifier, wrong password and disabled account all map
	// here so responses cannot be used to probe for accounts.
	ErrInvalidCredentials = errors.New("service: invalid credentials")
)

// AuthService orchestrates the authentication flows: primary credential
// verification, the second-factor challenge, and password reset.
type AuthService struct {
	Store  store.Store
	OTP    *OTPService
	Tokens *TokenService

	// RequireSecondFactor gates the 2FA challenge on login. When false a
	// correct password mints a session directly.
	RequireSecondFactor bool

	dummyOnce sync.Once
	dummyHash string
}

// Login verifies the primary credentials. On success it either issues a
// second-factor challenge or, when 2FA is disabled, mints a session.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (domain.LoginOutcome, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return domain.LoginOutcome{}, ErrInvalidInput
	}

	user, err := s.resolveAndMatch(ctx, identifier, password)
	if err != nil {
		return domain.LoginOutcome{}, err
	}

	if !s.RequireSecondFactor {
		session, err := s.mintSession(user)
		if err != nil {
			return domain.LoginOutcome{}, err
		}
		return domain.LoginOutcome{Session: &session}, nil
	}

	if _, err := s.OTP.Issue(ctx, user, domain.PurposeLogin2FA); err != nil {
		return domain.LoginOutcome{}, err
	}
	return domain.LoginOutcome{
		Challenge: &domain.SecondFactorChallenge{Subject: user.Username},
	}, nil
}

// VerifySecondFactor completes a login challenge. The identifier is
// resolved the same way as on login, so whichever form the user signed
// in with keeps working. An unknown identifier fails the same way as a
// wrong code.
func (s *AuthService) VerifySecondFactor(ctx context.Context, identifier, code string) (domain.Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || code == "" {
		return domain.Session{}, ErrInvalidInput
	}

	user, err := s.resolveIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrCodeInvalid
		}
		return domain.Session{}, fmt.Errorf("resolve user: %w", err)
	}
	if !user.Active {
		return domain.Session{}, ErrCodeInvalid
	}

	if err := s.OTP.Verify(ctx, user.ID, domain.PurposeLogin2FA, code); err != nil {
		return domain.Session{}, err
	}
	return s.mintSession(user)
}

// ResendSecondFactor re-issues the login challenge code. Unknown or
// inactive identifiers are swallowed so the endpoint cannot confirm
// account existence; delivery errors still surface.
func (s *AuthService) ResendSecondFactor(ctx context.Context, identifier string) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return ErrInvalidInput
	}

	user, err := s.resolveIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Warn("resend for unknown identifier", slog.String("identifier", identifier))
			return nil
		}
		return fmt.Errorf("resolve user: %w", err)
	}
	if !user.Active {
		return nil
	}

	_, err = s.OTP.Issue(ctx, user, domain.PurposeLogin2FA)
	return err
}

// RequestPasswordReset issues a reset code for the given identifier,
// email or username. Unknown identifiers succeed without touching the
// ledger so the endpoint cannot confirm account existence.
func (s *AuthService) RequestPasswordReset(ctx context.Context, identifier string) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return ErrInvalidInput
	}

	user, err := s.resolveIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Warn("reset requested for unknown identifier", slog.String("identifier", identifier))
			return nil
		}
		return fmt.Errorf("resolve user: %w", err)
	}
	if !user.Active {
		return nil
	}

	_, err = s.OTP.Issue(ctx, user, domain.PurposePasswordReset)
	return err
}

// CompletePasswordReset spends the reset code and overwrites the
// password hash in one transaction, so a spent code always corresponds
// to an updated password.
func (s *AuthService) CompletePasswordReset(ctx context.Context, identifier, code, newPassword string) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || code == "" || newPassword == "" {
		return ErrInvalidInput
	}

	user, err := s.resolveIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("resolve user: %w", err)
	}
	if !user.Active {
		return ErrInvalidCredentials
	}

	// Hash outside the transaction; argon2 is deliberately slow and must
	// not hold the write lock.
	newHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := s.OTP.VerifyWith(ctx, tx, user.ID, domain.PurposePasswordReset, code); err != nil {
			return err
		}
		return tx.Users().UpdatePasswordHash(ctx, user.ID, newHash)
	})
}

// Authenticate resolves the identity behind a validated session token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.User, error) {
	claims, err := s.Tokens.Validate(token)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.Store.Users().GetByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("resolve subject: %w", err)
	}
	if !user.Active {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// resolveIdentifier looks the identifier up as a username first, then
// as an email. Every flow accepts either form, so a user who signed in
// with their email address can verify, resend and reset with it too.
func (s *AuthService) resolveIdentifier(ctx context.Context, identifier string) (domain.User, error) {
	user, err := s.Store.Users().GetByUsername(ctx, identifier)
	if errors.Is(err, store.ErrNotFound) {
		user, err = s.Store.Users().GetByEmail(ctx, identifier)
	}
	return user, err
}

// resolveAndMatch resolves the identifier and verifies the password.
// Unknown identifiers burn a dummy argon2 comparison so timing does not
// leak existence.
func (s *AuthService) resolveAndMatch(ctx context.Context, identifier, password string) (domain.User, error) {
	user, err := s.resolveIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.burnHash(password)
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("resolve identifier: %w", err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	if !user.Active {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) mintSession(user domain.User) (domain.Session, error) {
	token, expiresAt, err := s.Tokens.Mint(user.Username)
	if err != nil {
		return domain.Session{}, fmt.Errorf("mint session: %w", err)
	}
	return domain.Session{
		Token:     token,
		ExpiresAt: expiresAt,
		Profile:   domain.NewProfile(user),
	}, nil
}

// burnHash runs a full argon2 verification against a throwaway hash so
// the unknown-identifier path costs the same as a real mismatch.
func (s *AuthService) burnHash(password string) {
	s.dummyOnce.Do(func() {
		h, err := cryptox.HashPassword("campus-auth-timing-pad")
		if err == nil {
			s.dummyHash = h
		}
	})
	if s.dummyHash != "" {
		_ = cryptox.VerifyPassword(password, s.dummyHash)
	}
}
