package tokenauth

import "sync/atomic"

// MetricID indexes an operation counter.
type MetricID uint8

const (
	// MetricPairsIssued counts successful CreateTokenPair calls.
	MetricPairsIssued MetricID = iota
	// MetricAccessVerified counts access tokens that passed verification.
	MetricAccessVerified
	// MetricAccessRejected counts access verifications that failed for any
	// reason: bad signature, expiry, kind mismatch, version mismatch, or a
	// store outage.
	MetricAccessRejected
	// MetricRefreshVerified counts refresh tokens that passed verification.
	MetricRefreshVerified
	// MetricRefreshRejected counts failed refresh verifications.
	MetricRefreshRejected
	// MetricRefreshRotated counts refresh exchanges that replaced the
	// refresh token inside the rotation window.
	MetricRefreshRotated
	// MetricRefreshRevoked counts explicit jti revocations.
	MetricRefreshRevoked
	// MetricVersionBumps counts global revocations (logout-all).
	MetricVersionBumps
	metricIDCount
)

// Metrics holds the token core's operation counters. Counters are plain
// atomics; reading a snapshot is lock-free and safe during writes.
type Metrics struct {
	counters [metricIDCount]atomic.Uint64
}

// NewMetrics returns a zeroed counter set.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) inc(id MetricID) {
	if m == nil {
		return
	}
	m.counters[id].Add(1)
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters [metricIDCount]uint64
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var snap MetricsSnapshot
	if m == nil {
		return snap
	}
	for i := range m.counters {
		snap.Counters[i] = m.counters[i].Load()
	}
	return snap
}
