package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateNumericCode(t *testing.T) {
	t.Parallel()

	for range 200 {
		code, err := GenerateNumericCode(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', "non-digit in code %q", code)
		}
	}
}

func TestGenerateNumericCodeLengths(t *testing.T) {
	t.Parallel()

	code, err := GenerateNumericCode(4)
	require.NoError(t, err)
	require.Len(t, code, 4)

	code, err = GenerateNumericCode(8)
	require.NoError(t, err)
	require.Len(t, code, 8)

	_, err = GenerateNumericCode(0)
	require.Error(t, err)

	_, err = GenerateNumericCode(19)
	require.Error(t, err)
}
