package auth

import (
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sha512Hex(password string) string {
	sum := sha512.Sum512([]byte(password))
	return hex.EncodeToString(sum[:])
}

func TestHashAndVerifyPassword_RoundTrip(t *testing.T) {
	t.Parallel()
	digest := sha512Hex("hunter2")

	encoded, err := HashPassword(digest)
	require.NoError(t, err)

	ok, err := VerifyPassword(encoded, digest)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	t.Parallel()
	encoded, err := HashPassword(sha512Hex("hunter2"))
	require.NoError(t, err)

	ok, err := VerifyPassword(encoded, sha512Hex("wrong"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_DistinctSaltsProduceDistinctHashes(t *testing.T) {
	t.Parallel()
	digest := sha512Hex("hunter2")

	h1, err := HashPassword(digest)
	require.NoError(t, err)
	h2, err := HashPassword(digest)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()
	_, err := VerifyPassword("not-a-valid-hash", sha512Hex("hunter2"))
	assert.Error(t, err)
}
