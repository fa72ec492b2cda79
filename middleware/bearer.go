// Package middleware provides framework-neutral net/http guards over the
// tokenauth core, mountable on any router.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	tokenauth "github.com/nvasko/tokenauth"
	"github.com/nvasko/tokenauth/token"
)

type payloadContextKey struct{}

// PayloadFromContext returns the verified access-token payload injected
// by [Bearer], if the request passed the guard.
func PayloadFromContext(ctx context.Context) (token.Payload, bool) {
	payload, ok := ctx.Value(payloadContextKey{}).(token.Payload)
	return payload, ok
}

// Bearer verifies the Authorization bearer token on every request and
// injects the decoded payload into the request context. Invalid, expired,
// and revoked tokens get 401; a revocation-store outage gets 503, never a
// pass-through.
func Bearer(tokens *tokenauth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokens == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			payload, err := tokens.VerifyAccessToken(r.Context(), raw)
			if err != nil {
				if errors.Is(err, tokenauth.ErrServiceUnavailable) {
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), payloadContextKey{}, payload)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireStaff rejects requests whose verified payload is not a staff
// account. Mount after [Bearer].
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, ok := PayloadFromContext(r.Context())
		if !ok || !payload.IsStaff {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	raw := value[len(bearer):]
	if raw == "" {
		return "", false
	}

	return raw, true
}
