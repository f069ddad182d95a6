package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestGenerateAndValidate(t *testing.T) {
	token, err := GenerateToken(secret, "user-1", "ana@example.com", RoleAdmin, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestValidateRejects(t *testing.T) {
	expired, err := GenerateToken(secret, "u", "e@x.io", "authenticated", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(secret, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	good, err := GenerateToken(secret, "u", "e@x.io", "authenticated", time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken([]byte("other"), good)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExp := gojwt.NewWithClaims(gojwt.SigningMethodHS256, &Claims{Email: "e@x.io"})
	signed, err := noExp.SignedString(secret)
	require.NoError(t, err)
	_, err = ValidateToken(secret, signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ValidateToken(nil, good)
	assert.ErrorIs(t, err, ErrNoSecret)
}
