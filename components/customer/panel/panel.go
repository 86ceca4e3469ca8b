// Package panel renders the customer dashboard panel inside a record-detail
// page. Each refresh replaces the previous panel, shows a loading placeholder,
// and fills it with the fragment returned by the backend.
package panel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	// ContainerClass marks the dashboard container; at most one exists per page.
	ContainerClass = "custom-customer-dashboard-container"
	// LoadingClass marks the placeholder shown while the request is in flight.
	LoadingClass = "dashboard-loading"

	loadingMarkup = `<i class="fa fa-spinner fa-spin fa-2x"></i><p>Loading customer dashboard...</p>`
	// EmptyMarkup replaces the placeholder when the backend has no data.
	EmptyMarkup = `<div class="text-muted">No dashboard data available.</div>`
	// ErrorMarkup replaces the placeholder when the request fails.
	ErrorMarkup = `<div class="text-danger">Error loading dashboard.</div>`
)

// Phase is the state of a container's content.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseLoaded
	PhaseEmpty
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseEmpty:
		return "empty"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Fetcher is the backend capability the panel calls once per refresh cycle.
type Fetcher interface {
	GetCustomerDashboard(ctx context.Context, customer string) (string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, customer string) (string, error)

// GetCustomerDashboard implements Fetcher.
func (f FetcherFunc) GetCustomerDashboard(ctx context.Context, customer string) (string, error) {
	return f(ctx, customer)
}

// Cycle reports the outcome of one refresh cycle.
type Cycle struct {
	Customer string
	Phase    Phase
	// Attached is false when a newer refresh removed the container before the response landed.
	Attached bool
	Err      error
	Duration time.Duration
}

// Observer is notified on the loop when a cycle reaches a terminal phase.
type Observer interface {
	CycleCompleted(Cycle)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Cycle)

// CycleCompleted implements Observer.
func (f ObserverFunc) CycleCompleted(c Cycle) { f(c) }

// Options configures a Panel.
type Options struct {
	// Timeout bounds each request; zero leaves it to the fetcher's transport.
	Timeout  time.Duration
	Logger   *slog.Logger
	Observer Observer
	// Context is the parent of every request context. Defaults to context.Background.
	Context context.Context
}

// Panel renders one dashboard container per refresh of a record-detail page.
type Panel struct {
	fetcher Fetcher
	opts    Options

	mu     sync.Mutex
	cycles map[PageContext]uint64
}

// New builds a panel backed by fetcher.
func New(fetcher Fetcher, opts Options) *Panel {
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	return &Panel{fetcher: fetcher, opts: opts, cycles: make(map[PageContext]uint64)}
}

// Register subscribes the panel to the page's refresh lifecycle event.
func (p *Panel) Register(page *Page) func() {
	unsubscribe := page.OnRefresh(p.Render)
	return func() {
		unsubscribe()
		p.mu.Lock()
		delete(p.cycles, page)
		p.mu.Unlock()
	}
}

// Render runs one refresh cycle against page. It never panics or returns an
// error to the host page; failures surface inside the container.
func (p *Panel) Render(page PageContext) {
	customer := page.DocName()
	cycle := p.nextCycle(page)

	removeContainers(page.Root())
	if page.IsNew() {
		p.opts.Logger.Debug("customer dashboard skipped for unsaved record")
		return
	}

	page.AfterSetup(func() {
		if !p.current(page, cycle) {
			// A newer refresh owns the page now.
			return
		}
		container := newContainer()
		removeContainers(page.Root())
		target := page.Root().First(MainSectionClass)
		if target == nil {
			target = page.Root()
		}
		target.Prepend(container)

		started := time.Now()
		page.Go(func() func() {
			html, err := p.fetch(customer)
			return func() {
				p.complete(container, customer, html, err, time.Since(started))
			}
		})
	})
}

func (p *Panel) fetch(customer string) (html string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panel: fetcher panicked: %v", r)
		}
	}()
	if p.fetcher == nil {
		return "", fmt.Errorf("panel: fetcher not configured")
	}
	ctx := p.opts.Context
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}
	return p.fetcher.GetCustomerDashboard(ctx, customer)
}

// complete writes into the captured container only, never a page query, so a
// stale response lands in a detached element.
func (p *Panel) complete(container *Element, customer, html string, err error, took time.Duration) {
	var phase Phase
	switch {
	case err != nil:
		phase = PhaseError
		container.SetHTML(ErrorMarkup)
	case html == "":
		phase = PhaseEmpty
		container.SetHTML(EmptyMarkup)
	default:
		phase = PhaseLoaded
		container.SetHTML(html)
	}
	report := Cycle{
		Customer: customer,
		Phase:    phase,
		Attached: container.Attached(),
		Err:      err,
		Duration: took,
	}
	p.opts.Logger.Debug("customer dashboard cycle completed",
		"customer", customer,
		"phase", phase.String(),
		"attached", report.Attached,
		"duration", took,
	)
	if p.opts.Observer != nil {
		p.opts.Observer.CycleCompleted(report)
	}
}

// Cycles are counted per page so one panel can serve several pages.
func (p *Panel) nextCycle(page PageContext) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cycles[page]++
	return p.cycles[page]
}

func (p *Panel) current(page PageContext, cycle uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cycles[page] == cycle
}

// PhaseOf infers the phase from a container's content.
func PhaseOf(container *Element) Phase {
	switch {
	case container == nil:
		return PhaseEmpty
	case container.First(LoadingClass) != nil:
		return PhaseLoading
	case container.InnerHTML() == EmptyMarkup:
		return PhaseEmpty
	case container.InnerHTML() == ErrorMarkup:
		return PhaseError
	default:
		return PhaseLoaded
	}
}

func newContainer() *Element {
	container := NewElement("div", ContainerClass)
	loading := NewElement("div", LoadingClass, "text-center").SetAttr("style", "padding: 16px;")
	loading.SetHTML(loadingMarkup)
	container.Append(loading)
	return container
}

func removeContainers(root *Element) {
	for _, el := range root.Find(ContainerClass) {
		el.Remove()
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
