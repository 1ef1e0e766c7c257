package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandomPassword(t *testing.T) {
	pw := GenerateRandomPassword(12)
	assert.Len(t, pw, 12)

	// provisioning two accounts must not hand out the same credential
	assert.NotEqual(t, pw, GenerateRandomPassword(12))
}

func TestGeneratedPasswordRoundTripsThroughHash(t *testing.T) {
	pw := GenerateRandomPassword(12)

	hash, err := HashPassword(pw)
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash(pw, hash))
	assert.False(t, CheckPasswordHash(pw+"x", hash))
}
