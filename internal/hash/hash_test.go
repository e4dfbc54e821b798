package hash

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	t.Parallel()

	salt, pwHash, err := HashPassword("Secret123")
	require.NoError(t, err)
	require.NotEmpty(t, salt)
	require.NotEmpty(t, pwHash)

	assert.True(t, CheckPassword(salt, pwHash, "Secret123"))
	assert.False(t, CheckPassword(salt, pwHash, "secret123"))
	assert.False(t, CheckPassword(salt, pwHash, ""))
}

func TestHashPassword_FreshSaltEveryCall(t *testing.T) {
	t.Parallel()

	salt1, hash1, err := HashPassword("same-password")
	require.NoError(t, err)
	salt2, hash2, err := HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, salt1, salt2)
	assert.NotEqual(t, hash1, hash2)

	raw, err := hex.DecodeString(salt1)
	require.NoError(t, err)
	assert.Len(t, raw, SaltSize)
}

func TestCheckPassword_MalformedInputs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		salt string
		hash string
	}{
		{name: "bad salt hex", salt: "zz", hash: "00"},
		{name: "bad hash hex", salt: "00", hash: "zz"},
		{name: "empty", salt: "", hash: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.False(t, CheckPassword(tt.salt, tt.hash, "whatever"))
		})
	}
}
