package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-customer-dashboard/components/customer/commands"
	"github.com/goliatone/go-customer-dashboard/components/customer/gorouter"
	"github.com/goliatone/go-customer-dashboard/components/customer/httpapi"
	"github.com/goliatone/go-customer-dashboard/components/customer/queries"
)

type serveCmd struct {
	Listen        string `default:":9876" env:"CUSTOMER_DASHBOARD_LISTEN" help:"Listen address."`
	Transport     string `default:"fiber" enum:"fiber,http" env:"CUSTOMER_DASHBOARD_TRANSPORT" help:"Mount routes on go-router (fiber) or net/http."`
	MetricsListen string `name:"metrics-listen" env:"CUSTOMER_DASHBOARD_METRICS_LISTEN" help:"Serve Prometheus metrics on this address."`
}

func (c *serveCmd) Run(g *Globals, ctx context.Context) error {
	logger := g.logger()
	a, err := newApp(ctx, g, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer a.Close()

	dashboardQuery := queries.NewDashboardQuery(a.service)
	summaryQuery := queries.NewSummaryQuery(a.service)
	invalidate := commands.NewInvalidateDashboardCommand(a.service, a.recorder)

	group, gctx := errgroup.WithContext(ctx)
	if c.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		group.Go(func() error {
			return serveHTTP(gctx, &http.Server{Addr: c.MetricsListen, Handler: mux, ReadHeaderTimeout: 5 * time.Second})
		})
	}

	switch c.Transport {
	case "http":
		api := &httpapi.Handlers{
			Dashboard:  dashboardQuery,
			Summary:    summaryQuery,
			Invalidate: invalidate,
			Events:     http.HandlerFunc(a.broadcast.ServeSSE),
		}
		mux := http.NewServeMux()
		api.Mount(mux)
		mux.HandleFunc("GET /customers/dashboard/ws", a.broadcast.ServeWebSocket)
		logger.Info("customer dashboard listening", "addr", c.Listen, "transport", c.Transport)
		group.Go(func() error {
			return serveHTTP(gctx, &http.Server{Addr: c.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second})
		})
	default:
		server := router.NewFiberAdapter()
		if err := gorouter.Register(gorouter.Config[*fiber.App]{
			Router:     server.Router(),
			Dashboard:  dashboardQuery,
			Summary:    summaryQuery,
			Invalidate: invalidate,
			Broadcast:  a.broadcast,
		}); err != nil {
			return err
		}
		logger.Info("customer dashboard listening", "addr", c.Listen, "transport", c.Transport)
		group.Go(func() error {
			errCh := make(chan error, 1)
			go func() { errCh <- server.Serve(c.Listen) }()
			select {
			case err := <-errCh:
				return err
			case <-gctx.Done():
				return nil
			}
		})
	}

	err = group.Wait()
	logger.Info("customer dashboard stopped")
	return err
}

func serveHTTP(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
