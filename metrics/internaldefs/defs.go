// Package internaldefs holds the metric definitions shared by the
// exporters so both surfaces expose the same names and help strings.
package internaldefs

import (
	tokenauth "github.com/nvasko/tokenauth"
)

// CounterDef binds a counter ID to its exported name and help text.
type CounterDef struct {
	ID   tokenauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every operation counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: tokenauth.MetricPairsIssued, Name: "tokenauth_pairs_issued_total", Help: "Token pairs issued."},
	{ID: tokenauth.MetricAccessVerified, Name: "tokenauth_access_verified_total", Help: "Access tokens that passed verification."},
	{ID: tokenauth.MetricAccessRejected, Name: "tokenauth_access_rejected_total", Help: "Access verifications that failed."},
	{ID: tokenauth.MetricRefreshVerified, Name: "tokenauth_refresh_verified_total", Help: "Refresh tokens that passed verification."},
	{ID: tokenauth.MetricRefreshRejected, Name: "tokenauth_refresh_rejected_total", Help: "Refresh verifications that failed."},
	{ID: tokenauth.MetricRefreshRotated, Name: "tokenauth_refresh_rotated_total", Help: "Refresh exchanges that rotated the refresh token."},
	{ID: tokenauth.MetricRefreshRevoked, Name: "tokenauth_refresh_revoked_total", Help: "Refresh tokens revoked by jti."},
	{ID: tokenauth.MetricVersionBumps, Name: "tokenauth_version_bumps_total", Help: "Global revocations (logout-all)."},
}
