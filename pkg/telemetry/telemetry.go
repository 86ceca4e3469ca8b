// Package telemetry records dashboard events as Prometheus metrics and slog lines.
package telemetry

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/goliatone/go-customer-dashboard/components/customer/panel"
)

// Recorder implements the Telemetry interfaces used by the service and commands,
// and panel.Observer for refresh cycles.
type Recorder struct {
	Events         *prometheus.CounterVec
	RenderDuration prometheus.Histogram
	PanelCycles    *prometheus.CounterVec
	logger         *slog.Logger
}

var _ panel.Observer = (*Recorder)(nil)

// New registers the dashboard metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer, logger *slog.Logger) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	factory := promauto.With(reg)
	return &Recorder{
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "customer_dashboard_events_total",
			Help: "Dashboard service and command events by name",
		}, []string{"event"}),
		RenderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "customer_dashboard_render_duration_seconds",
			Help:    "Duration of dashboard fragment requests",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		PanelCycles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "customer_dashboard_panel_cycles_total",
			Help: "Completed panel refresh cycles by phase",
		}, []string{"phase", "attached"}),
		logger: logger,
	}
}

// Record counts the event and logs its payload at debug level.
func (r *Recorder) Record(ctx context.Context, event string, payload map[string]any) {
	r.Events.WithLabelValues(event).Inc()
	if ms, ok := payload["duration_ms"].(int64); ok {
		r.RenderDuration.Observe(float64(ms) / 1000)
	}
	attrs := make([]any, 0, len(payload)*2+2)
	attrs = append(attrs, "event", event)
	for k, v := range payload {
		attrs = append(attrs, k, v)
	}
	r.logger.DebugContext(ctx, "telemetry", attrs...)
}

// CycleCompleted implements panel.Observer.
func (r *Recorder) CycleCompleted(c panel.Cycle) {
	r.PanelCycles.WithLabelValues(c.Phase.String(), strconv.FormatBool(c.Attached)).Inc()
	if c.Err != nil {
		r.logger.Warn("customer dashboard panel failed", "customer", c.Customer, "error", c.Err)
	}
}
