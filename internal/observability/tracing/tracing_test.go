package tracing

import (
	"errors"
	"testing"

	"github.com/smallbiznis/villadesk/internal/apperror"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsGuestData(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/reservations"),
		attribute.String("customer_name", "Ana"),
	)
	if len(attrs) != 1 || attrs[0].Key != "http.route" {
		t.Fatalf("unexpected attributes %v", attrs)
	}
}

func TestSafeErrorUsesCode(t *testing.T) {
	if SafeError(nil) != nil {
		t.Fatalf("expected nil")
	}
	if got := SafeError(apperror.Conflict("invoice_number_taken", "número 1600 ya existe")).Error(); got != "invoice_number_taken" {
		t.Fatalf("expected code, got %q", got)
	}
	if got := SafeError(errors.New("pq: password=secret")).Error(); got != "internal_error" {
		t.Fatalf("expected generic error, got %q", got)
	}
}
