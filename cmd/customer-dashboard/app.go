package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	customer "github.com/goliatone/go-customer-dashboard/components/customer"
	"github.com/goliatone/go-customer-dashboard/pkg/logging"
	"github.com/goliatone/go-customer-dashboard/pkg/store"
	"github.com/goliatone/go-customer-dashboard/pkg/telemetry"
)

// Globals holds flags shared by every command.
type Globals struct {
	LogLevel    string        `default:"info" enum:"debug,info,warn,error" env:"CUSTOMER_DASHBOARD_LOG_LEVEL" help:"Log level."`
	LogJSON     bool          `name:"log-json" env:"CUSTOMER_DASHBOARD_LOG_JSON" help:"Emit JSON logs."`
	DSN         string        `default:"sqlite://customer-dashboard.db" env:"CUSTOMER_DASHBOARD_DSN" help:"Database DSN (sqlite://path or postgres://...)."`
	Fixtures    string        `type:"path" env:"CUSTOMER_DASHBOARD_FIXTURES" help:"YAML fixtures to load before running."`
	RedisURL    string        `name:"redis-url" env:"CUSTOMER_DASHBOARD_REDIS_URL" help:"Cache fragments in Redis instead of memory."`
	CacheTTL    time.Duration `default:"2m" env:"CUSTOMER_DASHBOARD_CACHE_TTL" help:"Fragment cache TTL (0 disables caching)."`
	Currency    string        `default:"₹" env:"CUSTOMER_DASHBOARD_CURRENCY" help:"Currency symbol for the ledger balance."`
	StatusChart bool          `env:"CUSTOMER_DASHBOARD_STATUS_CHART" help:"Append a project status chart to the fragment."`
}

// app is the wired backend shared by the commands.
type app struct {
	logger    *slog.Logger
	store     *store.SQLStore
	service   *customer.Service
	broadcast *customer.BroadcastHook
	recorder  *telemetry.Recorder
	redis     *redis.Client
}

func (g *Globals) logger() *slog.Logger {
	return logging.New(logging.Config{Level: g.LogLevel, JSON: g.LogJSON})
}

func newApp(ctx context.Context, g *Globals, logger *slog.Logger, reg prometheus.Registerer) (*app, error) {
	db, err := store.Open(g.DSN)
	if err != nil {
		return nil, err
	}
	a := &app{logger: logger, store: db, broadcast: customer.NewBroadcastHook()}
	if g.Fixtures != "" {
		doc, err := store.ReadFixtures(g.Fixtures)
		if err != nil {
			a.Close()
			return nil, err
		}
		if err := db.Seed(ctx, doc); err != nil {
			a.Close()
			return nil, err
		}
		logger.Info("fixtures loaded", "path", g.Fixtures, "customers", len(doc.Customers))
	}

	var cache customer.RenderCache = customer.NewFragmentCache(g.CacheTTL)
	if g.RedisURL != "" {
		opts, err := redis.ParseURL(g.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		a.redis = redis.NewClient(opts)
		cache = customer.NewRedisCache(a.redis, g.CacheTTL, customer.WithRedisLogger(logger))
	}

	a.recorder = telemetry.New(reg, logger)
	a.service = customer.NewService(customer.Options{
		Source:      db,
		Cache:       cache,
		RefreshHook: a.broadcast,
		Telemetry:   a.recorder,
		Logger:      logger,
		Currency:    g.Currency,
		StatusChart: g.StatusChart,
	})
	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}
