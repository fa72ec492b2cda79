// Package revocation implements the shared key-value state behind token
// invalidation: a per-user monotonic version counter and a self-pruning
// blacklist of revoked refresh-token identifiers.
//
// The store is the only shared mutable resource in the authentication
// core. Every verification hits it directly — no in-process caching —
// because staleness here directly weakens the revocation guarantee.
package revocation
