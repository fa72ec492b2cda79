// Package prometheus renders tokenauth metrics in the Prometheus text
// exposition format. The counters already live inside the token service,
// so the exporter only needs to read a snapshot; no client registry is
// involved.
package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	tokenauth "github.com/nvasko/tokenauth"
	"github.com/nvasko/tokenauth/metrics/internaldefs"
)

// Exporter reads counter snapshots from a metrics source.
type Exporter struct {
	metrics *tokenauth.Metrics
}

// NewExporter creates an exporter over the given counter set, typically
// [tokenauth.TokenService.Metrics].
func NewExporter(m *tokenauth.Metrics) *Exporter {
	return &Exporter{metrics: m}
}

// Handler serves the rendered metrics over HTTP.
func (e *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(e.Render()))
	})
}

// Render writes all counters in text exposition format.
func (e *Exporter) Render() string {
	if e == nil || e.metrics == nil {
		return ""
	}

	snap := e.metrics.Snapshot()

	var b strings.Builder
	b.Grow(1024)
	for _, def := range internaldefs.CounterDefs {
		b.WriteString("# HELP ")
		b.WriteString(def.Name)
		b.WriteByte(' ')
		b.WriteString(def.Help)
		b.WriteByte('\n')
		b.WriteString("# TYPE ")
		b.WriteString(def.Name)
		b.WriteString(" counter\n")
		b.WriteString(def.Name)
		b.WriteByte(' ')
		b.WriteString(strconv.FormatUint(snap.Counters[def.ID], 10))
		b.WriteByte('\n')
	}
	return b.String()
}
