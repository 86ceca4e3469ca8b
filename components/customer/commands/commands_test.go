package commands

import (
	"context"
	"errors"
	"testing"

	customer "github.com/goliatone/go-customer-dashboard/components/customer"
)

type stubInvalidator struct {
	calls    int
	customer string
	reason   string
	err      error
}

func (s *stubInvalidator) Invalidate(_ context.Context, name, reason string) error {
	s.calls++
	s.customer = name
	s.reason = reason
	return s.err
}

type stubTelemetry struct {
	calls  int
	events []string
}

func (s *stubTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	s.calls++
	s.events = append(s.events, event)
}

func TestInvalidateDashboardCommand(t *testing.T) {
	service := &stubInvalidator{}
	telemetry := &stubTelemetry{}
	cmd := NewInvalidateDashboardCommand(service, telemetry)
	if err := cmd.Execute(context.Background(), InvalidateDashboardInput{Customer: " CUST-001 "}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.calls != 1 || service.customer != "CUST-001" {
		t.Fatalf("expected invalidate call for CUST-001, got %+v", service)
	}
	if service.reason != "manual" {
		t.Fatalf("expected default reason, got %q", service.reason)
	}
	if telemetry.calls != 1 || telemetry.events[0] != "customer.dashboard.command.invalidate" {
		t.Fatalf("expected telemetry event, got %v", telemetry.events)
	}
}

func TestInvalidateDashboardCommandRequiresCustomer(t *testing.T) {
	service := &stubInvalidator{}
	cmd := NewInvalidateDashboardCommand(service, nil)
	err := cmd.Execute(context.Background(), InvalidateDashboardInput{})
	if !errors.Is(err, customer.ErrCustomerRequired) {
		t.Fatalf("expected ErrCustomerRequired, got %v", err)
	}
	if service.calls != 0 {
		t.Fatalf("expected no service call")
	}
}

func TestInvalidateDashboardCommandPropagatesErrors(t *testing.T) {
	service := &stubInvalidator{err: errors.New("cache down")}
	telemetry := &stubTelemetry{}
	cmd := NewInvalidateDashboardCommand(service, telemetry)
	if err := cmd.Execute(context.Background(), InvalidateDashboardInput{Customer: "CUST-001", Reason: "invoice"}); err == nil {
		t.Fatalf("expected error")
	}
	if telemetry.calls != 0 {
		t.Fatalf("expected no telemetry on failure")
	}
}

func TestInvalidateDashboardCommandRequiresService(t *testing.T) {
	cmd := NewInvalidateDashboardCommand(nil, nil)
	if err := cmd.Execute(context.Background(), InvalidateDashboardInput{Customer: "CUST-001"}); err == nil {
		t.Fatalf("expected error without service")
	}
}
