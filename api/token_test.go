package api

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

var secret = []byte("test-secret")

func TestIssueTokenRoundTrip(t *testing.T) {
	token, err := IssueToken(secret, "5fc51f58c72ff10004dca382", "doctor")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := VerifyToken(secret, token)
	assert.NoError(t, err)
	assert.Equal(t, "5fc51f58c72ff10004dca382", claims.Subject)
	assert.Equal(t, "doctor", claims.Role)

	// expiry sits one hour out
	assert.WithinDuration(t, time.Now().Add(TokenTTL), claims.ExpiresAt.Time, 5*time.Second)
}

func TestIssueTokenEmptySecret(t *testing.T) {
	_, err := IssueToken(nil, "5fc51f58c72ff10004dca382", "doctor")
	assert.Error(t, err)
}

func TestVerifyTokenExpired(t *testing.T) {
	claims := Claims{
		Role: "patient",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "5fc51f58c72ff10004dca382",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	assert.NoError(t, err)

	_, err = VerifyToken(secret, token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	token, err := IssueToken(secret, "5fc51f58c72ff10004dca382", "doctor")
	assert.NoError(t, err)

	_, err = VerifyToken([]byte("other-secret"), token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyTokenGarbage(t *testing.T) {
	_, err := VerifyToken(secret, "not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyTokenRejectsUnsignedToken(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "5fc51f58c72ff10004dca382",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	assert.NoError(t, err)

	_, err = VerifyToken(secret, token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestClaimsContextRoundTrip(t *testing.T) {
	claims := &Claims{Role: "doctor"}
	ctx := WithClaims(context.Background(), claims)

	got, ok := ClaimsFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, claims, got)

	_, ok = ClaimsFrom(context.Background())
	assert.False(t, ok)
}
