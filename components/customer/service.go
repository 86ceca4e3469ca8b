package customer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	dashboardTemplate = "customer_dashboard"
	defaultCurrency   = "₹"
	defaultCacheTTL   = 2 * time.Minute
)

// Options configures the customer dashboard Service. Every collaborator is an
// interface so applications can swap stores, caches, and transports.
type Options struct {
	Source      DataSource
	Renderer    Renderer
	Cache       RenderCache
	RefreshHook RefreshHook
	Telemetry   Telemetry
	Translator  TranslationService
	Logger      *slog.Logger
	// Currency is prefixed to the ledger balance.
	Currency string
	// StatusChart appends a project status pie chart to the fragment.
	StatusChart bool
	Chart       *StatusChart
	Now         func() time.Time
}

// Service computes customer summaries and renders the dashboard fragment.
type Service struct {
	opts Options

	rendererOnce sync.Once
	renderer     Renderer
	rendererErr  error
}

// NewService builds a Service with safe defaults.
func NewService(opts Options) *Service {
	if opts.Cache == nil {
		opts.Cache = NewFragmentCache(defaultCacheTTL)
	}
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Currency == "" {
		opts.Currency = defaultCurrency
	}
	if opts.StatusChart && opts.Chart == nil {
		opts.Chart = NewStatusChart()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &Service{opts: opts}
}

// Summary gathers project counts, unbilled projects, and the ledger balance.
func (s *Service) Summary(ctx context.Context, customer string) (Summary, error) {
	customer = strings.TrimSpace(customer)
	if customer == "" {
		return Summary{}, ErrCustomerRequired
	}
	source, err := s.dataSource()
	if err != nil {
		return Summary{}, err
	}
	exists, err := source.CustomerExists(ctx, customer)
	if err != nil {
		return Summary{}, fmt.Errorf("customer: lookup %s: %w", customer, err)
	}
	if !exists {
		return Summary{}, ErrCustomerNotFound
	}

	summary := Summary{Customer: customer, Currency: s.opts.Currency}
	counts := []struct {
		status ProjectStatus
		dst    *int
	}{
		{ProjectOpen, &summary.Open},
		{ProjectCompleted, &summary.Completed},
		{ProjectCancelled, &summary.Cancelled},
	}

	var (
		active  []string
		balance float64
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range counts {
		g.Go(func() error {
			n, err := source.CountProjects(gctx, customer, c.status)
			if err != nil {
				return fmt.Errorf("customer: count %s projects: %w", strings.ToLower(string(c.status)), err)
			}
			*c.dst = n
			return nil
		})
	}
	g.Go(func() error {
		list, err := source.ActiveProjects(gctx, customer)
		if err != nil {
			return fmt.Errorf("customer: active projects: %w", err)
		}
		active = list
		return nil
	})
	g.Go(func() error {
		b, err := source.LedgerBalance(gctx, customer)
		if err != nil {
			return fmt.Errorf("customer: ledger balance: %w", err)
		}
		balance = b
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	billed, err := source.BilledProjects(ctx, active)
	if err != nil {
		return Summary{}, fmt.Errorf("customer: billed projects: %w", err)
	}
	summary.Unbilled = countUnbilled(active, billed)
	summary.Balance = roundTo(balance, 2)
	summary.GeneratedAt = s.opts.Now().UTC()
	return summary, nil
}

// Dashboard renders the dashboard fragment for a customer. An unknown customer
// yields an empty fragment and no error so callers can show an empty state.
func (s *Service) Dashboard(ctx context.Context, customer string) (string, error) {
	started := s.opts.Now()
	customer = strings.TrimSpace(customer)
	if customer == "" {
		return "", ErrCustomerRequired
	}
	locale := LocaleFromContext(ctx)
	html, err := s.opts.Cache.GetOrRender(ctx, cacheKey(customer), locale, func() (string, error) {
		return s.renderDashboard(ctx, customer, locale)
	})
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			s.opts.Logger.DebugContext(ctx, "customer dashboard requested for unknown customer", "customer", customer)
			s.recordTelemetry(ctx, "customer.dashboard.empty", map[string]any{"customer": customer})
			return "", nil
		}
		s.opts.Logger.ErrorContext(ctx, "customer dashboard failed", "customer", customer, "error", err)
		s.recordTelemetry(ctx, "customer.dashboard.error", map[string]any{
			"customer": customer,
			"error":    err.Error(),
		})
		return "", err
	}
	s.recordTelemetry(ctx, "customer.dashboard.render", map[string]any{
		"customer":    customer,
		"duration_ms": s.opts.Now().Sub(started).Milliseconds(),
	})
	return html, nil
}

// Invalidate drops cached fragments for the customer and notifies refresh hooks.
func (s *Service) Invalidate(ctx context.Context, customer, reason string) error {
	customer = strings.TrimSpace(customer)
	if customer == "" {
		return ErrCustomerRequired
	}
	if reason == "" {
		reason = "invalidate"
	}
	if err := s.opts.Cache.Invalidate(ctx, cacheKey(customer)); err != nil {
		return fmt.Errorf("customer: invalidate cache for %s: %w", customer, err)
	}
	event := DashboardEvent{
		ID:       uuid.NewString(),
		Customer: customer,
		Reason:   reason,
		At:       s.opts.Now().UTC(),
	}
	if err := s.opts.RefreshHook.DashboardUpdated(ctx, event); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "customer.dashboard.invalidate", map[string]any{
		"customer": customer,
		"reason":   reason,
	})
	return nil
}

func (s *Service) renderDashboard(ctx context.Context, customer, locale string) (string, error) {
	summary, err := s.Summary(ctx, customer)
	if err != nil {
		return "", err
	}
	renderer, err := s.templateRenderer()
	if err != nil {
		return "", err
	}
	data := map[string]any{
		"customer": summary.Customer,
		"cards":    s.cards(ctx, summary, locale),
	}
	if s.opts.Chart != nil {
		chart, err := s.opts.Chart.Render(ctx, summary, s.labels(ctx, locale))
		if err != nil {
			return "", fmt.Errorf("customer: render status chart: %w", err)
		}
		data["chart_html"] = chart
	}
	html, err := renderer.Render(dashboardTemplate, data)
	if err != nil {
		return "", fmt.Errorf("customer: render dashboard: %w", err)
	}
	return html, nil
}

func (s *Service) cards(ctx context.Context, summary Summary, locale string) []map[string]any {
	labels := s.labels(ctx, locale)
	return []map[string]any{
		{"key": "open", "value": FormatCount(summary.Open), "label": labels.Open},
		{"key": "cancelled", "value": FormatCount(summary.Cancelled), "label": labels.Cancelled},
		{"key": "completed", "value": FormatCount(summary.Completed), "label": labels.Completed},
		{"key": "unbilled", "value": FormatCount(summary.Unbilled), "label": labels.Unbilled},
		{"key": "balance", "value": FormatCurrency(summary.Currency, summary.Balance), "label": labels.Balance},
	}
}

func (s *Service) templateRenderer() (Renderer, error) {
	if s.opts.Renderer != nil {
		return s.opts.Renderer, nil
	}
	s.rendererOnce.Do(func() {
		s.renderer, s.rendererErr = NewTemplateRenderer()
	})
	return s.renderer, s.rendererErr
}

func (s *Service) dataSource() (DataSource, error) {
	if s.opts.Source == nil {
		return nil, errMissingDataSource
	}
	return s.opts.Source, nil
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

func countUnbilled(active, billed []string) int {
	seen := make(map[string]struct{}, len(billed))
	for _, name := range billed {
		seen[name] = struct{}{}
	}
	unbilled := 0
	for _, name := range active {
		if _, ok := seen[name]; !ok {
			unbilled++
		}
	}
	return unbilled
}

func roundTo(value float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(value*pow) / pow
}

func cacheKey(customer string) string {
	return "customer.dashboard:" + customer
}

type noopRefreshHook struct{}

func (noopRefreshHook) DashboardUpdated(context.Context, DashboardEvent) error {
	return nil
}
