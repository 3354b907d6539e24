package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret123", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, VerifyPassword(hash, "secret123"))
	assert.False(t, VerifyPassword(hash, "secret124"))
}

func TestVerifyPasswordEmptyHashNeverMatches(t *testing.T) {
	// Federated accounts store an empty hash.
	assert.False(t, VerifyPassword("", ""))
	assert.False(t, VerifyPassword("", "anything"))
}
