package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-customer-dashboard/components/customer/panel"
	"github.com/goliatone/go-customer-dashboard/components/customer/queries"
	"github.com/goliatone/go-customer-dashboard/pkg/store"
	"github.com/goliatone/go-customer-dashboard/pkg/telemetry"
)

type renderCmd struct {
	Customer string    `arg:"" help:"Customer identifier."`
	Locale   string    `help:"Locale used for card labels."`
	Out      io.Writer `kong:"-"`
}

func (c *renderCmd) Run(g *Globals, ctx context.Context) error {
	logger := g.logger()
	a, err := newApp(ctx, g, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer a.Close()

	html, err := queries.NewDashboardQuery(a.service).Query(ctx, queries.DashboardInput{
		Customer: c.Customer,
		Locale:   c.Locale,
	})
	if err != nil {
		return err
	}
	if html == "" {
		logger.Warn("no dashboard data available", "customer", c.Customer)
		return nil
	}
	_, err = fmt.Fprintln(writerOr(c.Out), html)
	return err
}

type seedCmd struct {
	Path string    `arg:"" type:"existingfile" help:"Fixture YAML file."`
	Out  io.Writer `kong:"-"`
}

func (c *seedCmd) Run(g *Globals, ctx context.Context) error {
	doc, err := store.ReadFixtures(c.Path)
	if err != nil {
		return err
	}
	db, err := store.Open(g.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Seed(ctx, doc); err != nil {
		return err
	}
	_, err = fmt.Fprintf(writerOr(c.Out), "✓ Seeded %d customers, %d projects, %d invoices, %d ledger entries into %s\n",
		len(doc.Customers), len(doc.Projects), len(doc.Invoices), len(doc.Ledger), db.Dialect())
	return err
}

type previewCmd struct {
	Customer string        `arg:"" help:"Customer identifier shown by the record page."`
	New      bool          `help:"Preview an unsaved record."`
	BaseURL  string        `name:"base-url" help:"Fetch through the RPC endpoint of a running server instead of the local service."`
	Timeout  time.Duration `default:"10s" help:"Request timeout."`
	Out      io.Writer     `kong:"-"`

	// Registry receives the panel cycle metrics; a private registry is used when nil.
	Registry *prometheus.Registry `kong:"-"`
}

func (c *previewCmd) Run(g *Globals, ctx context.Context) error {
	logger := g.logger()
	reg := c.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	var (
		fetcher  panel.Fetcher
		recorder *telemetry.Recorder
	)
	if c.BaseURL != "" {
		client, err := panel.NewRPCClient(panel.RPCConfig{BaseURL: c.BaseURL})
		if err != nil {
			return err
		}
		fetcher = client
		recorder = telemetry.New(reg, logger)
	} else {
		a, err := newApp(ctx, g, logger, reg)
		if err != nil {
			return err
		}
		defer a.Close()
		fetcher = panel.FetcherFunc(a.service.Dashboard)
		recorder = a.recorder
	}

	loop := panel.NewEventLoop(logger)
	defer loop.Close()
	page := panel.NewPage(loop, c.Customer, c.New)
	p := panel.New(fetcher, panel.Options{
		Timeout: c.Timeout,
		Logger:  logger,
		Context: ctx,
		Observer: panel.ObserverFunc(func(cycle panel.Cycle) {
			logger.Info("panel refreshed", "customer", cycle.Customer, "phase", cycle.Phase.String(), "duration", cycle.Duration)
			recorder.CycleCompleted(cycle)
		}),
	})
	defer p.Register(page)()

	page.Refresh()
	if err := loop.Drain(ctx); err != nil {
		return err
	}
	out := writerOr(c.Out)
	_, err := fmt.Fprintln(out, page.Root().OuterHTML())
	return err
}

func writerOr(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
