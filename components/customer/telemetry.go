package customer

import "context"

// Telemetry receives customer.dashboard.* events (render, empty, error,
// invalidate) with a flat payload of customer id, reason, or duration.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}
