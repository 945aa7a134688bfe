package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeyBytes is the smallest HS256 key we accept. HMAC-SHA256 keys
// shorter than the hash output weaken the MAC.
const MinKeyBytes = 32

// HS256 signs and verifies tokens with a single symmetric key. The key
// comes from process configuration at startup; there is no rotation and
// no ambient global state.
type HS256 struct {
	key    []byte
	issuer string
}

// NewHS256 builds a signer/verifier from the given key. The key must be
// at least MinKeyBytes long.
func NewHS256(key []byte, issuer string) (*HS256, error) {
	if len(key) < MinKeyBytes {
		return nil, fmt.Errorf("jwtx: HS256 key must be at least %d bytes, got %d", MinKeyBytes, len(key))
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &HS256{key: k, issuer: issuer}, nil
}

func (h *HS256) Alg() string { return "HS256" }

// Sign produces a compact JWS over the claims.
func (h *HS256) Sign(c Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(h.key)
}

// Verify parses and verifies a compact token. Structural problems,
// signature failures and expiry all come back as typed errors; nothing
// panics past this boundary.
func (h *HS256) Verify(token string) (Claims, error) {
	var claims Claims

	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAlgMismatch
		}
		return h.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return Claims{}, mapParseError(err)
	}
	if !parsed.Valid {
		return Claims{}, ErrInvalidSig
	}

	if err := claims.ValidateIssuer(h.issuer); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, ErrAlgMismatch):
		return ErrAlgMismatch
	default:
		return ErrMalformed
	}
}
