// Package token implements the signed claim-set codec used by the
// authentication core.
//
// Tokens are compact three-segment JWT strings (header.payload.signature)
// signed with HS256 over a single shared secret, interoperable with
// standard JWT tooling. The codec is pure: encoding and decoding touch no
// external state, and expiry is the only time-dependent check it performs.
//
// Business validity (token kind, revocation, user state) is the caller's
// concern and lives in the root tokenauth package.
package token
