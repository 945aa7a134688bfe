package jwtx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestHS256RoundTrip(t *testing.T) {
	t.Parallel()

	h, err := NewHS256(testKey, "campus-auth")
	require.NoError(t, err)

	claims := NewSessionClaims("alice", "campus-auth", time.Hour, time.Now())
	token, err := h.Sign(claims)
	require.NoError(t, err)
	require.Equal(t, 3, len(strings.Split(token, ".")))

	got, err := h.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Subject)
	require.Equal(t, "campus-auth", got.Issuer)
	require.NoError(t, got.ValidateExpiry())
}

func TestHS256RejectsShortKey(t *testing.T) {
	t.Parallel()

	_, err := NewHS256([]byte("too-short"), "campus-auth")
	require.Error(t, err)
}

func TestHS256RejectsExpired(t *testing.T) {
	t.Parallel()

	h, err := NewHS256(testKey, "campus-auth")
	require.NoError(t, err)

	claims := NewSessionClaims("alice", "campus-auth", time.Minute, time.Now().Add(-2*time.Minute))
	token, err := h.Sign(claims)
	require.NoError(t, err)

	_, err = h.Verify(token)
	require.ErrorIs(t, err, ErrExpired)
}

func TestHS256RejectsTamperedToken(t *testing.T) {
	t.Parallel()

	h, err := NewHS256(testKey, "campus-auth")
	require.NoError(t, err)

	token, err := h.Sign(NewSessionClaims("alice", "campus-auth", time.Hour, time.Now()))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	_, err = h.Verify(tampered)
	require.Error(t, err)
}

func TestHS256RejectsWrongKey(t *testing.T) {
	t.Parallel()

	a, err := NewHS256(testKey, "campus-auth")
	require.NoError(t, err)
	b, err := NewHS256([]byte("ffffffffffffffffffffffffffffffff"), "campus-auth")
	require.NoError(t, err)

	token, err := a.Sign(NewSessionClaims("alice", "campus-auth", time.Hour, time.Now()))
	require.NoError(t, err)

	_, err = b.Verify(token)
	require.ErrorIs(t, err, ErrInvalidSig)
}

func TestHS256RejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	signer, err := NewHS256(testKey, "other-issuer")
	require.NoError(t, err)
	verifier, err := NewHS256(testKey, "campus-auth")
	require.NoError(t, err)

	token, err := signer.Sign(NewSessionClaims("alice", "other-issuer", time.Hour, time.Now()))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestHS256RejectsGarbage(t *testing.T) {
	t.Parallel()

	h, err := NewHS256(testKey, "campus-auth")
	require.NoError(t, err)

	for _, tok := range []string{"", "x", "a.b", "a.b.c.d", "not a token at all"} {
		_, err := h.Verify(tok)
		require.ErrorIs(t, err, ErrMalformed, "token: %q", tok)
	}
}
