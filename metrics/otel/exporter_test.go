package otel

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	tokenauth "github.com/nvasko/tokenauth"
)

func newTestService(t *testing.T) *tokenauth.TokenService {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, err := tokenauth.NewTokenService(tokenauth.Config{
		Secret:         "otel-test-secret",
		AccessTTL:      tokenauth.TTL(15 * time.Minute),
		RefreshTTL:     tokenauth.TTL(7 * 24 * time.Hour),
		RotationWindow: tokenauth.TTL(24 * time.Hour),
	}, client)
	if err != nil {
		t.Fatalf("NewTokenService failed: %v", err)
	}
	return svc
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("tokenauth-test")

	svc := newTestService(t)
	if _, err := svc.CreateTokenPair(context.Background(), uuid.New(), "user@example.com", false); err != nil {
		t.Fatalf("CreateTokenPair failed: %v", err)
	}

	exp, err := NewExporter(meter, svc.Metrics())
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("expected collected metrics, got none")
	}

	var issued int64 = -1
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "tokenauth_pairs_issued_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok || len(sum.DataPoints) == 0 {
				t.Fatalf("unexpected data shape for %s: %#v", m.Name, m.Data)
			}
			issued = sum.DataPoints[0].Value
		}
	}
	if issued != 1 {
		t.Fatalf("expected pairs_issued 1, got %d", issued)
	}
}

func TestExporterRejectsNilArguments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("tokenauth-test")

	if _, err := NewExporter(meter, nil); err == nil {
		t.Fatal("expected error for nil source")
	}
	if _, err := NewExporter(nil, tokenauth.NewMetrics()); err == nil {
		t.Fatal("expected error for nil meter")
	}
}

func TestExporterCloseIsIdempotentOnNil(t *testing.T) {
	var exp *Exporter
	if err := exp.Close(); err != nil {
		t.Fatalf("nil Close should be a no-op, got %v", err)
	}
}
