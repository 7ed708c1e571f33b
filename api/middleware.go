package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const claimsContextKey contextKey = "sessionClaims"

// Middleware holds the secret used to verify bearer tokens on protected routes
type Middleware struct {
	Secret []byte
}

// Authenticate adds bearer token authentication around accessing the routes
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			zap.S().Errorw("missing bearer token", "url", r.URL)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}

		claims, err := VerifyToken(m.Secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL,
				"reason", err.Error())
			w.WriteHeader(http.StatusUnauthorized)
			if errors.Is(err, ErrTokenExpired) {
				w.Write([]byte(`{"error": "token expired"}`))
			} else {
				w.Write([]byte(`{"error": "unauthorized"}`))
			}
			return
		}

		zap.S().Debugf("subject %s authenticated as %s", claims.Subject, claims.Role)
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// WithClaims stores verified session claims on the context
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFrom returns the verified session claims, if any, from the context
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}

// RequestID tags every request with a uuid and emits an access log line
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()
		w.Header().Set("X-Request-Id", requestID)

		next.ServeHTTP(w, r)

		zap.S().Infow("request served",
			"requestId", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String(),
		)
	})
}
