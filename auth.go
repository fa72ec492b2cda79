package tokenauth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// AuthService is the thin orchestration layer between transports and the
// token core. It adds the one check the TokenService cannot do alone:
// that the user behind a refresh token still exists and may authenticate.
type AuthService struct {
	tokens *TokenService
	users  UserProvider
}

// NewAuthService wires the orchestrator.
func NewAuthService(tokens *TokenService, users UserProvider) *AuthService {
	return &AuthService{tokens: tokens, users: users}
}

// Tokens exposes the underlying token service for callers that only need
// verification, such as bearer middleware.
func (a *AuthService) Tokens() *TokenService { return a.tokens }

// RefreshTokens exchanges a refresh token for a new pair after confirming
// the subject is still a live account. A missing user and a locked or
// inactive one both fail with [ErrAuthenticationFailed] — the distinction
// never reaches the caller, so refresh cannot be used to probe for
// account existence.
func (a *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (TokenPair, error) {
	payload, err := a.tokens.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, err
	}

	user, found, err := a.users.UserByID(ctx, payload.Subject)
	if err != nil {
		return TokenPair{}, fmt.Errorf("tokenauth: user lookup: %w", err)
	}
	if !found || !user.CanAuthenticate() {
		return TokenPair{}, ErrAuthenticationFailed
	}

	return a.tokens.RefreshTokenPair(ctx, refreshToken, user.Email, user.IsStaff)
}

// Logout revokes the presented refresh token. A second logout with the
// same token fails at verification with [ErrRevokedToken]; that failure
// is propagated, not swallowed.
func (a *AuthService) Logout(ctx context.Context, refreshToken string) error {
	payload, err := a.tokens.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		return err
	}
	if payload.JTI == "" {
		return nil
	}
	return a.tokens.RevokeRefreshToken(ctx, payload.JTI)
}

// LogoutAllDevices invalidates every outstanding access token for the
// user via a version bump. Idempotent regardless of whether the user
// exists; no lookup is performed.
func (a *AuthService) LogoutAllDevices(ctx context.Context, userID uuid.UUID) error {
	return a.tokens.RevokeAllUserTokens(ctx, userID)
}
