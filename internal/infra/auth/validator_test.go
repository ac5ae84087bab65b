package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/compliance-ledger/internal/domain"
)

func signedToken(t *testing.T, key *rsa.PrivateKey, ttl time.Duration) string {
	t.Helper()
	claims := domain.CustomClaims{
		UserID: "user-1",
		Scopes: map[string]bool{"admin": true},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestVerifyToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := NewRS256Validator(&key.PublicKey)

	t.Run("valid token with bearer prefix", func(t *testing.T) {
		claims, err := v.VerifyToken("Bearer " + signedToken(t, key, time.Hour))
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.True(t, claims.Scopes["admin"])
	})

	t.Run("expired token", func(t *testing.T) {
		_, err := v.VerifyToken(signedToken(t, key, -time.Hour))
		assert.Error(t, err)
	})

	t.Run("foreign key", func(t *testing.T) {
		other, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		_, err = v.VerifyToken(signedToken(t, other, time.Hour))
		assert.Error(t, err)
	})

	t.Run("hmac downgrade is rejected", func(t *testing.T) {
		// Токен, подписанный HS256, не должен проходить с публичным ключом в роли секрета
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = v.VerifyToken(forged)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.VerifyToken("not-a-token")
		assert.Error(t, err)
	})
}
