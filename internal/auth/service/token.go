package service

import (
	"time"

	"github.com/courseloop/campus-auth/pkg/jwtx"
)

// TokenService mints and validates stateless session tokens. The signer
// and verifier are the same HS256 instance in practice; keeping them as
// interfaces lets tests swap either side.
type TokenService struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Issuer   string
	TTL      time.Duration

	// Now is the clock; defaults to time.Now. Tests pin it.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *TokenService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return jwtx.DefaultSessionTTL
}

// Mint issues a session token whose subject is the given username.
func (s *TokenService) Mint(username string) (token string, expiresAt time.Time, err error) {
	now := s.now()
	claims := jwtx.NewSessionClaims(username, s.Issuer, s.ttl(), now)

	token, err = s.Signer.Sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, claims.ExpiresAt.Time, nil
}

// Validate verifies a token and returns its claims.
func (s *TokenService) Validate(token string) (jwtx.Claims, error) {
	return s.Verifier.Verify(token)
}

// ValidFor reports whether the token is valid and was minted for the
// given username.
func (s *TokenService) ValidFor(token, username string) bool {
	claims, err := s.Validate(token)
	if err != nil {
		return false
	}
	return claims.Subject == username
}
