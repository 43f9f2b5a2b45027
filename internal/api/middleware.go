// Package api implements the Lexis REST API using chi.
package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey struct{}

// WithAuthenticated returns ctx carrying the authentication state.
func WithAuthenticated(ctx context.Context, ok bool) context.Context {
	return context.WithValue(ctx, ctxKey{}, ok)
}

// IsAuthenticated reports whether the request carrying ctx was authenticated.
func IsAuthenticated(ctx context.Context) bool {
	ok, _ := ctx.Value(ctxKey{}).(bool)
	return ok
}

// Authenticator checks a bearer credential.
type Authenticator interface {
	Authenticate(bearer string) error
}

// TokenAuth accepts one static token.
type TokenAuth struct {
	Token string
}

func (a TokenAuth) Authenticate(bearer string) error {
	if subtle.ConstantTimeCompare([]byte(bearer), []byte(a.Token)) != 1 {
		return fmt.Errorf("invalid token")
	}
	return nil
}

// JWTAuth accepts HS256 tokens signed with Secret.
type JWTAuth struct {
	Secret []byte
}

func (a JWTAuth) Authenticate(bearer string) error {
	_, err := jwt.Parse(bearer, func(*jwt.Token) (any, error) {
		return a.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(30*time.Second))
	return err
}

// AuthMiddleware decides whether each request is authenticated. With a nil
// authenticator every request is anonymous. Requests without credentials are
// anonymous; requests with invalid credentials are rejected.
func AuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				next.ServeHTTP(w, r.WithContext(WithAuthenticated(r.Context(), false)))
				return
			}
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r.WithContext(WithAuthenticated(r.Context(), false)))
				return
			}
			bearer, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || auth.Authenticate(bearer) != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAuthenticated(r.Context(), true)))
		})
	}
}

// RequireAuth rejects anonymous requests when enabled is true.
func RequireAuth(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if enabled && !IsAuthenticated(r.Context()) {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
