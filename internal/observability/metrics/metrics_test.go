package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("currency", "USD"),
		attribute.String("customer_name", "Ana"),
		attribute.String("payment_method", "cash"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "customer_name" {
			t.Fatalf("customer_name must be dropped")
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordReservationCreated(context.Background(), "USD")
	m.RecordInstallment(context.Background(), "reservation", "cash")
	m.RecordPayout(context.Background(), "reservation_create")
	m.RecordRateLimitDenied(context.Background(), "/api/auth/login")

	NewNoop().RecordPayout(context.Background(), "reconcile")
}
