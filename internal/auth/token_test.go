package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v, err := NewJWTVerifier("test-secret")
	require.NoError(t, err)

	token, err := v.Generate("claude-desktop", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	client, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "claude-desktop", client)
}

func TestJWTVerifier_RejectsEmptySecret(t *testing.T) {
	_, err := NewJWTVerifier("")
	assert.Error(t, err)
}

func TestJWTVerifier_RejectsEmptyClient(t *testing.T) {
	v, err := NewJWTVerifier("test-secret")
	require.NoError(t, err)

	_, err = v.Generate("", time.Hour)
	assert.Error(t, err)
}

func TestJWTVerifier_RejectsWrongSecret(t *testing.T) {
	issuer, err := NewJWTVerifier("secret-a")
	require.NoError(t, err)
	verifier, err := NewJWTVerifier("secret-b")
	require.NoError(t, err)

	token, err := issuer.Generate("client", time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTVerifier_RejectsExpired(t *testing.T) {
	v, err := NewJWTVerifier("test-secret")
	require.NoError(t, err)

	token, err := v.Generate("client", -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTVerifier_RejectsWrongIssuer(t *testing.T) {
	v, err := NewJWTVerifier("test-secret")
	require.NoError(t, err)

	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "someone-else",
		"sub": "client",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = v.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTVerifier_RejectsMissingSubject(t *testing.T) {
	v, err := NewJWTVerifier("test-secret")
	require.NoError(t, err)

	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": Issuer,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = v.Verify(signed)
	assert.ErrorIs(t, err, ErrMissingClaim)
}

func TestJWTVerifier_RejectsGarbage(t *testing.T) {
	v, err := NewJWTVerifier("test-secret")
	require.NoError(t, err)

	_, err = v.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
