package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func protectedEcho(t *testing.T, expectRole string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		assert.True(t, ok)
		assert.Equal(t, expectRole, claims.Role)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateMissingHeader(t *testing.T) {
	m := Middleware{Secret: secret}
	req := httptest.NewRequest("GET", "/api/v1/doctors/1234", nil)
	rr := httptest.NewRecorder()

	m.Authenticate(protectedEcho(t, "")).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error": "unauthorized"}`, rr.Body.String())
}

func TestAuthenticateMalformedToken(t *testing.T) {
	m := Middleware{Secret: secret}
	req := httptest.NewRequest("GET", "/api/v1/doctors/1234", nil)
	req.Header.Set("Authorization", "Bearer abc123")
	rr := httptest.NewRecorder()

	m.Authenticate(protectedEcho(t, "")).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error": "unauthorized"}`, rr.Body.String())
}

func TestAuthenticateExpiredToken(t *testing.T) {
	claims := Claims{
		Role: "doctor",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "5fc51f58c72ff10004dca382",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	assert.NoError(t, err)

	m := Middleware{Secret: secret}
	req := httptest.NewRequest("GET", "/api/v1/doctors/1234", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	m.Authenticate(protectedEcho(t, "")).ServeHTTP(rr, req)

	// expired tokens get their own error body so clients know to
	// re-authenticate rather than retry
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error": "token expired"}`, rr.Body.String())
}

func TestAuthenticateValidToken(t *testing.T) {
	token, err := IssueToken(secret, "5fc51f58c72ff10004dca382", "patient")
	assert.NoError(t, err)

	m := Middleware{Secret: secret}
	req := httptest.NewRequest("GET", "/api/v1/patients/5fc51f58c72ff10004dca382", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	m.Authenticate(protectedEcho(t, "patient")).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequestIDHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()

	RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}
