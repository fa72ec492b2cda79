package tokenauth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
)

type mockUserProvider struct {
	mu    sync.Mutex
	users map[uuid.UUID]User
	err   error

	byIDCalls    int
	byEmailCalls int
}

func newMockUserProvider(users ...User) *mockUserProvider {
	m := &mockUserProvider{users: make(map[uuid.UUID]User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserProvider) UserByID(_ context.Context, id uuid.UUID) (User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byIDCalls++
	if m.err != nil {
		return User{}, false, m.err
	}
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *mockUserProvider) UserByEmail(_ context.Context, email string) (User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byEmailCalls++
	if m.err != nil {
		return User{}, false, m.err
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, true, nil
		}
	}
	return User{}, false, nil
}

func (m *mockUserProvider) set(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func activeUser() User {
	return User{
		ID:       uuid.New(),
		Email:    "user@example.com",
		IsStaff:  false,
		IsActive: true,
	}
}

func newTestAuth(t *testing.T, users *mockUserProvider) *AuthService {
	t.Helper()

	_, svc := newTestService(t, testConfig())
	return NewAuthService(svc, users)
}

func TestRefreshTokensHappyPath(t *testing.T) {
	user := activeUser()
	users := newMockUserProvider(user)
	auth := newTestAuth(t, users)
	ctx := context.Background()

	pair, err := auth.Tokens().CreateTokenPair(ctx, user.ID, user.Email, user.IsStaff)
	if err != nil {
		t.Fatalf("CreateTokenPair failed: %v", err)
	}

	renewed, err := auth.RefreshTokens(ctx, pair.Refresh)
	if err != nil {
		t.Fatalf("RefreshTokens failed: %v", err)
	}

	payload, err := auth.Tokens().VerifyAccessToken(ctx, renewed.Access)
	if err != nil {
		t.Fatalf("renewed access token must verify, got %v", err)
	}
	if payload.Subject != user.ID {
		t.Fatalf("expected subject %s, got %s", user.ID, payload.Subject)
	}
	if users.byIDCalls != 1 {
		t.Fatalf("expected exactly one user lookup, got %d", users.byIDCalls)
	}
}

// Scenario: the user is deactivated after the refresh token was issued.
// The token is still structurally valid but the refresh must fail.
func TestRefreshTokensInactiveUser(t *testing.T) {
	user := activeUser()
	users := newMockUserProvider(user)
	auth := newTestAuth(t, users)
	ctx := context.Background()

	pair, err := auth.Tokens().CreateTokenPair(ctx, user.ID, user.Email, user.IsStaff)
	if err != nil {
		t.Fatalf("CreateTokenPair failed: %v", err)
	}

	user.IsActive = false
	users.set(user)

	if _, err := auth.RefreshTokens(ctx, pair.Refresh); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestRefreshTokensLockedUser(t *testing.T) {
	user := activeUser()
	users := newMockUserProvider(user)
	auth := newTestAuth(t, users)
	ctx := context.Background()

	pair, err := auth.Tokens().CreateTokenPair(ctx, user.ID, user.Email, user.IsStaff)
	if err != nil {
		t.Fatalf("CreateTokenPair failed: %v", err)
	}

	user.IsLocked = true
	users.set(user)

	if _, err := auth.RefreshTokens(ctx, pair.Refresh); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
}

// A deleted user and a locked user must be indistinguishable to the
// caller.
func TestRefreshTokensMissingUser(t *testing.T) {
	user := activeUser()
	users := newMockUserProvider(user)
	auth := newTestAuth(t, users)
	ctx := context.Background()

	pair, err := auth.Tokens().CreateTokenPair(ctx, user.ID, user.Email, user.IsStaff)
	if err != nil {
		t.Fatalf("CreateTokenPair failed: %v", err)
	}

	users.mu.Lock()
	delete(users.users, user.ID)
	users.mu.Unlock()

	if _, err := auth.RefreshTokens(ctx, pair.Refresh); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestRefreshTokensLookupErrorIsNotAuthFailure(t *testing.T) {
	user := activeUser()
	users := newMockUserProvider(user)
	auth := newTestAuth(t, users)
	ctx := context.Background()

	pair, err := auth.Tokens().CreateTokenPair(ctx, user.ID, user.Email, user.IsStaff)
	if err != nil {
		t.Fatalf("CreateTokenPair failed: %v", err)
	}

	users.err = errors.New("connection refused")

	_, err = auth.RefreshTokens(ctx, pair.Refresh)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrAuthenticationFailed) {
		t.Fatal("an infrastructure failure must not masquerade as an authentication failure")
	}
}

func TestLogoutRevokesAndSecondLogoutFails(t *testing.T) {
	user := activeUser()
	auth := newTestAuth(t, newMockUserProvider(user))
	ctx := context.Background()

	pair, err := auth.Tokens().CreateTokenPair(ctx, user.ID, user.Email, user.IsStaff)
	if err != nil {
		t.Fatalf("CreateTokenPair failed: %v", err)
	}

	if err := auth.Logout(ctx, pair.Refresh); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	// The second logout fails at verification, with the revocation error,
	// not something else.
	if err := auth.Logout(ctx, pair.Refresh); !errors.Is(err, ErrRevokedToken) {
		t.Fatalf("expected ErrRevokedToken on second logout, got %v", err)
	}

	// Refresh with the revoked token is dead too.
	if _, err := auth.RefreshTokens(ctx, pair.Refresh); !errors.Is(err, ErrRevokedToken) {
		t.Fatalf("expected ErrRevokedToken on refresh, got %v", err)
	}
}

func TestLogoutAllDevicesNeedsNoUserRecord(t *testing.T) {
	auth := newTestAuth(t, newMockUserProvider())
	ctx := context.Background()

	// Unknown user: still idempotent, still no lookup.
	if err := auth.LogoutAllDevices(ctx, uuid.New()); err != nil {
		t.Fatalf("LogoutAllDevices failed: %v", err)
	}
	if err := auth.LogoutAllDevices(ctx, uuid.New()); err != nil {
		t.Fatalf("second LogoutAllDevices failed: %v", err)
	}
}

func TestLogoutAllDevicesKillsAccessButNotRefresh(t *testing.T) {
	user := activeUser()
	auth := newTestAuth(t, newMockUserProvider(user))
	ctx := context.Background()

	pair, err := auth.Tokens().CreateTokenPair(ctx, user.ID, user.Email, user.IsStaff)
	if err != nil {
		t.Fatalf("CreateTokenPair failed: %v", err)
	}

	if err := auth.LogoutAllDevices(ctx, user.ID); err != nil {
		t.Fatalf("LogoutAllDevices failed: %v", err)
	}

	if _, err := auth.Tokens().VerifyAccessToken(ctx, pair.Access); !errors.Is(err, ErrRevokedToken) {
		t.Fatalf("expected access token revoked, got %v", err)
	}

	// Outstanding refresh tokens survive a version bump until revoked by
	// jti or expired. Existing behavior, kept deliberately.
	if _, err := auth.Tokens().VerifyRefreshToken(ctx, pair.Refresh); err != nil {
		t.Fatalf("refresh token should survive the bump, got %v", err)
	}
}
