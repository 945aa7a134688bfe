package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	require.NoError(t, VerifyPassword("correct horse battery staple", hash))
	require.Error(t, VerifyPassword("wrong password", hash))
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	t.Parallel()

	a, err := HashPassword("same input")
	require.NoError(t, err)
	b, err := HashPassword("same input")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifyPasswordRejectsGarbage(t *testing.T) {
	t.Parallel()

	cases := []string{
		"",
		"not-a-hash",
		"$argon2i$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=2$!!!$aGFzaA",
	}
	for _, encoded := range cases {
		require.Error(t, VerifyPassword("whatever", encoded), "hash: %q", encoded)
	}
}

func TestVerifyPasswordHonorsStoredParameters(t *testing.T) {
	t.Parallel()

	// A hash produced with weaker parameters than the package defaults
	// must still verify because parameters ride along in the PHC string.
	weak := "$argon2id$v=19$m=8,t=1,p=1$"
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	require.NotContains(t, hash, weak) // defaults are stronger

	require.NoError(t, VerifyPassword("pw", hash))
}
