// Package tokenauth is a token-based authentication core: issuance,
// verification, rotation, and revocation of short-lived access tokens and
// longer-lived refresh tokens, backed by Redis for revocation state.
//
// # Architecture
//
// The root package is the public surface: [TokenService] (the stateful
// orchestrator), [AuthService] (refresh/logout orchestration over a user
// lookup), [Config], and the error taxonomy. The [token] subpackage holds
// the pure signed-claims codec; the [revocation] subpackage holds the
// Redis-backed version counter and jti blacklist.
//
// # Validity model
//
// A token's state machine is issued -> {valid | expired | revoked}, with
// expired and revoked terminal. Access-token validity is re-derived on
// every verification from signature, expiry, and the user's current token
// version; refresh-token validity from signature, expiry, and blacklist
// membership. Nothing is cached in-process: every verification takes one
// store round trip, because staleness would weaken the revocation
// guarantee.
//
// # Failure model
//
// Revocation checks fail closed. When the store cannot answer, callers
// see [ErrServiceUnavailable] — never a silently "valid" token.
package tokenauth
