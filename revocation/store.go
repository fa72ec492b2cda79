package revocation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrUnavailable is returned when the backing store cannot answer. Callers
// must treat it as "revocation state unknown" and fail closed: an
// unreachable store never means "not revoked".
var ErrUnavailable = errors.New("revocation store unavailable")

const minRevokeTTL = time.Second

// Store persists the per-user token version counter and the blacklist of
// revoked refresh-token identifiers. Both live under a configurable key
// prefix so several deployments can share one Redis.
//
// Key scheme:
//
//	<prefix>:ver:<user_id>  integer version counter, no expiry
//	<prefix>:jti:<jti>      revocation marker, expires with the token
type Store struct {
	client redis.UniversalClient
	prefix string
}

// NewStore wraps an initialized Redis client. The client's lifecycle
// (connect, ping, close) belongs to the caller.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "ta"
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) versionKey(userID uuid.UUID) string {
	return s.prefix + ":ver:" + userID.String()
}

func (s *Store) jtiKey(jti string) string {
	return s.prefix + ":jti:" + jti
}

// Version returns the current token version for the user, 0 when no
// counter exists. Reading never creates the key.
func (s *Store) Version(ctx context.Context, userID uuid.UUID) (int64, error) {
	val, err := s.client.Get(ctx, s.versionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: get version: %v", ErrUnavailable, err)
	}

	version, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: corrupt version value %q", ErrUnavailable, val)
	}
	return version, nil
}

// IncrementVersion atomically bumps the user's token version, creating the
// counter at 1 when absent. Concurrent calls serialize inside Redis; the
// store never read-modifies-writes the counter.
func (s *Store) IncrementVersion(ctx context.Context, userID uuid.UUID) (int64, error) {
	version, err := s.client.Incr(ctx, s.versionKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: increment version: %v", ErrUnavailable, err)
	}
	return version, nil
}

// MarkRevoked blacklists a refresh-token identifier for ttl, after which
// the key self-prunes alongside the token's natural expiry. Idempotent.
func (s *Store) MarkRevoked(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return errors.New("revocation: empty jti")
	}
	if ttl < minRevokeTTL {
		ttl = minRevokeTTL
	}
	if err := s.client.Set(ctx, s.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: mark revoked: %v", ErrUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether the refresh-token identifier is blacklisted.
// Absence means not revoked; a store failure means unknown, not false.
func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, s.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: revocation check: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}
