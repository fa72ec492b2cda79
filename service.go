package tokenauth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nvasko/tokenauth/revocation"
	"github.com/nvasko/tokenauth/token"
)

// TokenService issues, verifies, rotates, and revokes token pairs. It is
// stateless apart from the revocation store: validity is re-derived on
// every call from signature, expiry, and store state, never cached.
//
// All methods are safe for concurrent use. The only blocking points are
// revocation-store round trips, which honor the caller's context.
type TokenService struct {
	codec   *token.Codec
	store   *revocation.Store
	metrics *Metrics

	accessTTL      time.Duration
	refreshTTL     time.Duration
	rotationWindow time.Duration

	now func() time.Time
}

// NewTokenService wires the codec and revocation store from a validated
// configuration. The Redis client's lifecycle stays with the caller.
func NewTokenService(cfg Config, client redis.UniversalClient) (*TokenService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	codec, err := token.NewCodec([]byte(cfg.Secret))
	if err != nil {
		return nil, err
	}

	return &TokenService{
		codec:          codec,
		store:          revocation.NewStore(client, cfg.RedisPrefix),
		metrics:        NewMetrics(),
		accessTTL:      cfg.AccessTTL.Duration(),
		refreshTTL:     cfg.RefreshTTL.Duration(),
		rotationWindow: cfg.RotationWindow.Duration(),
		now:            time.Now,
	}, nil
}

// Metrics exposes the service's operation counters.
func (s *TokenService) Metrics() *Metrics { return s.metrics }

// CreateTokenPair issues a fresh access/refresh pair for the user. The
// current token version is read (defaulting to 0, without creating a
// counter) and embedded in the access token; no store writes happen on
// plain issuance. Concurrent calls for one user produce independent,
// both-valid pairs — multi-device login is intentional.
func (s *TokenService) CreateTokenPair(ctx context.Context, userID uuid.UUID, email string, isStaff bool) (TokenPair, error) {
	version, err := s.store.Version(ctx, userID)
	if err != nil {
		return TokenPair{}, err
	}

	now := s.now()
	access, err := s.codec.Encode(token.Payload{
		Subject:      userID,
		Email:        email,
		IsStaff:      isStaff,
		Kind:         token.KindAccess,
		IssuedAt:     now,
		ExpiresAt:    now.Add(s.accessTTL),
		TokenVersion: version,
	})
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := s.codec.Encode(token.Payload{
		Subject:   userID,
		Email:     email,
		IsStaff:   isStaff,
		Kind:      token.KindRefresh,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTTL),
		JTI:       uuid.NewString(),
	})
	if err != nil {
		return TokenPair{}, err
	}

	s.metrics.inc(MetricPairsIssued)
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// VerifyAccessToken decodes an access token and checks it against the
// user's current token version. A version mismatch means a global
// revocation happened after issuance and fails with [ErrRevokedToken].
// The version is read fresh on every call so a bump racing an in-flight
// verification wins on the next read.
func (s *TokenService) VerifyAccessToken(ctx context.Context, accessToken string) (token.Payload, error) {
	payload, err := s.codec.Decode(accessToken)
	if err != nil {
		s.metrics.inc(MetricAccessRejected)
		return token.Payload{}, err
	}
	if payload.Kind != token.KindAccess {
		s.metrics.inc(MetricAccessRejected)
		return token.Payload{}, ErrInvalidToken
	}

	version, err := s.store.Version(ctx, payload.Subject)
	if err != nil {
		s.metrics.inc(MetricAccessRejected)
		return token.Payload{}, err
	}
	if version != payload.TokenVersion {
		s.metrics.inc(MetricAccessRejected)
		return token.Payload{}, ErrRevokedToken
	}

	s.metrics.inc(MetricAccessVerified)
	return payload, nil
}

// VerifyRefreshToken decodes a refresh token and checks its jti against
// the revocation blacklist. Refresh tokens are deliberately not checked
// against the version counter: a version bump invalidates access tokens
// immediately, while refresh tokens are revoked one by one via their jti.
func (s *TokenService) VerifyRefreshToken(ctx context.Context, refreshToken string) (token.Payload, error) {
	payload, err := s.codec.Decode(refreshToken)
	if err != nil {
		s.metrics.inc(MetricRefreshRejected)
		return token.Payload{}, err
	}
	if payload.Kind != token.KindRefresh {
		s.metrics.inc(MetricRefreshRejected)
		return token.Payload{}, ErrInvalidToken
	}

	revoked, err := s.store.IsRevoked(ctx, payload.JTI)
	if err != nil {
		s.metrics.inc(MetricRefreshRejected)
		return token.Payload{}, err
	}
	if revoked {
		s.metrics.inc(MetricRefreshRejected)
		return token.Payload{}, ErrRevokedToken
	}

	s.metrics.inc(MetricRefreshVerified)
	return payload, nil
}

// RefreshTokenPair exchanges a valid refresh token for a new pair. A new
// access token is issued unconditionally. The refresh token is reused
// verbatim unless it is inside the rotation window of its own expiry, in
// which case a brand-new refresh token replaces it and the old jti is
// revoked for its remaining lifetime.
func (s *TokenService) RefreshTokenPair(ctx context.Context, refreshToken, email string, isStaff bool) (TokenPair, error) {
	payload, err := s.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, err
	}

	version, err := s.store.Version(ctx, payload.Subject)
	if err != nil {
		return TokenPair{}, err
	}

	now := s.now()
	access, err := s.codec.Encode(token.Payload{
		Subject:      payload.Subject,
		Email:        email,
		IsStaff:      isStaff,
		Kind:         token.KindAccess,
		IssuedAt:     now,
		ExpiresAt:    now.Add(s.accessTTL),
		TokenVersion: version,
	})
	if err != nil {
		return TokenPair{}, err
	}

	if payload.ExpiresAt.Sub(now) > s.rotationWindow {
		return TokenPair{Access: access, Refresh: refreshToken}, nil
	}

	rotated, err := s.codec.Encode(token.Payload{
		Subject:   payload.Subject,
		Email:     email,
		IsStaff:   isStaff,
		Kind:      token.KindRefresh,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTTL),
		JTI:       uuid.NewString(),
	})
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.store.MarkRevoked(ctx, payload.JTI, payload.ExpiresAt.Sub(now)); err != nil {
		return TokenPair{}, err
	}

	s.metrics.inc(MetricRefreshRotated)
	return TokenPair{Access: access, Refresh: rotated}, nil
}

// RevokeRefreshToken blacklists a refresh-token identifier. Without the
// token's own expiry at hand the marker lives for a full refresh TTL, an
// upper bound on the remaining validity of any outstanding token.
// Idempotent.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, jti string) error {
	if err := s.store.MarkRevoked(ctx, jti, s.refreshTTL); err != nil {
		return err
	}
	s.metrics.inc(MetricRefreshRevoked)
	return nil
}

// RevokeAllUserTokens bumps the user's token version, invalidating every
// previously issued access token at its next verification without
// enumerating them. Outstanding refresh tokens stay independently valid
// until revoked by jti or expired; callers wanting a hard logout must also
// revoke the refresh tokens they know about.
func (s *TokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.store.IncrementVersion(ctx, userID); err != nil {
		return err
	}
	s.metrics.inc(MetricVersionBumps)
	return nil
}
