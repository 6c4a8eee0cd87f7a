// Package auth identifies callers from HS256 bearer tokens. The token subject
// is the caller ID that scopes session context and creation history.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"digestly/internal/handler/http/requestid"
	"digestly/internal/handler/http/respond"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

type ctxKey struct{}

// CallerFromContext returns the authenticated caller ID.
func CallerFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// WithCaller returns a context carrying callerID.
func WithCaller(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, callerID)
}

// Authenticator verifies caller tokens.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an Authenticator for tokens signed with secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Verify checks an Authorization header value and returns the caller ID.
func (a *Authenticator) Verify(authz string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return "", ErrMissingToken
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, prefix))
	if raw == "" {
		return "", ErrMissingToken
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// Middleware rejects requests to protected endpoints without a valid token
// and stores the caller ID in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsPublicEndpoint(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		caller, err := a.Verify(r.Header.Get("Authorization"))
		RecordAuthDuration(time.Since(start).Seconds())
		if err != nil {
			result := "invalid"
			if errors.Is(err, ErrMissingToken) {
				result = "missing"
			}
			RecordAuthRequest(result)
			slog.Warn("authentication failed",
				slog.String("request_id", requestid.FromContext(r.Context())),
				slog.String("path", r.URL.Path),
				slog.String("reason", result))
			respond.SafeError(w, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}

		RecordAuthRequest("success")
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}
