package accounts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery", hash)

	require.True(t, VerifyPassword("correct horse battery", hash))
	require.False(t, VerifyPassword("wrong password", hash))
	require.False(t, VerifyPassword("correct horse battery", "not-a-hash"))
}

func TestValidatePassword(t *testing.T) {
	require.ErrorIs(t, validatePassword("short"), ErrPasswordTooShort)
	require.ErrorIs(t, validatePassword(strings.Repeat("x", 73)), ErrPasswordTooLong)
	require.NoError(t, validatePassword("long enough"))
	require.NoError(t, validatePassword(strings.Repeat("x", 72)))
}
