package commands

import (
	"context"

	customer "github.com/goliatone/go-customer-dashboard/components/customer"
)

// Telemetry is the sink commands report to; pkg/telemetry.Recorder satisfies it.
type Telemetry = customer.Telemetry

type discardTelemetry struct{}

func (discardTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return discardTelemetry{}
	}
	return t
}
