package auth

import (
	"strings"
	"testing"

	"arcana/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFastHasher() *bcryptHasher {
	// Minimum cost keeps the test suite quick; production cost comes from config.
	cfg := &config.Config{Auth: &config.AuthConfig{BcryptCost: 4}}

	return NewBcryptHasher(cfg).(*bcryptHasher)
}

func TestBcryptHasher_HashAndCheck(t *testing.T) {
	hasher := newFastHasher()

	hash, err := hasher.Hash("s3cret")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, hasher.Check("s3cret", hash))
	assert.False(t, hasher.Check("wrong", hash))
	assert.False(t, hasher.Check("s3cret", "not-a-hash"))
}

func TestBcryptHasher_HashesAreSalted(t *testing.T) {
	hasher := newFastHasher()

	first, err := hasher.Hash("same-input")
	require.NoError(t, err)
	second, err := hasher.Hash("same-input")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestBcryptHasher_DefaultCost(t *testing.T) {
	hasher := NewBcryptHasher(&config.Config{}).(*bcryptHasher)
	assert.Equal(t, 10, hasher.cost)
}

func TestCredentialGenerator(t *testing.T) {
	gen := NewCredentialGenerator()

	t.Run("opaque tokens are unique and url-safe", func(t *testing.T) {
		first, err := gen.OpaqueToken()
		require.NoError(t, err)
		second, err := gen.OpaqueToken()
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
		assert.NotContains(t, first, "=")
		assert.NotContains(t, first, "+")
		assert.NotContains(t, first, "/")
	})

	t.Run("verification codes are six digits", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			code, err := gen.VerificationCode()
			require.NoError(t, err)
			require.Len(t, code, 6)
			require.False(t, strings.HasPrefix(code, "0"))
		}
	})

	t.Run("client ids carry the prefix", func(t *testing.T) {
		id, err := gen.ClientID()
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(id, "client_"))
	})
}
