package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/goliatone/go-customer-dashboard/components/customer/panel"
)

func TestRecorderCountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(reg, nil)

	rec.Record(context.Background(), "customer.dashboard.render", map[string]any{"customer": "CUST-001", "duration_ms": int64(12)})
	rec.Record(context.Background(), "customer.dashboard.render", nil)
	rec.Record(context.Background(), "customer.dashboard.error", map[string]any{"error": "boom"})

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.Events.WithLabelValues("customer.dashboard.render")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Events.WithLabelValues("customer.dashboard.error")))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.RenderDuration))
}

func TestRecorderObservesPanelCycles(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(reg, nil)

	rec.CycleCompleted(panel.Cycle{Customer: "CUST-001", Phase: panel.PhaseLoaded, Attached: true})
	rec.CycleCompleted(panel.Cycle{Customer: "CUST-001", Phase: panel.PhaseError, Err: errors.New("timeout")})

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.PanelCycles.WithLabelValues("loaded", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.PanelCycles.WithLabelValues("error", "false")))
}
