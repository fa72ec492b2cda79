package tokenauth

import (
	"errors"

	"github.com/nvasko/tokenauth/revocation"
	"github.com/nvasko/tokenauth/token"
)

var (
	// ErrInvalidToken covers malformed input, bad signatures, and tokens of
	// the wrong kind for the requested operation. Not retryable; the caller
	// must re-authenticate.
	ErrInvalidToken = token.ErrInvalidToken
	// ErrExpiredToken marks a structurally valid token past its expiry. The
	// caller refreshes (access) or re-logs-in (refresh).
	ErrExpiredToken = token.ErrExpiredToken
	// ErrRevokedToken marks a token that fails the blacklist or version
	// check: an explicit logout or security action, never retryable.
	ErrRevokedToken = errors.New("token revoked")
	// ErrAuthenticationFailed is returned when the user behind a refresh is
	// missing, inactive, or locked. Deliberately indistinct between those
	// cases so callers cannot enumerate accounts.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrServiceUnavailable surfaces revocation-store outages. Revocation
	// checks fail closed: an unreachable store is never treated as
	// "not revoked".
	ErrServiceUnavailable = revocation.ErrUnavailable
)
