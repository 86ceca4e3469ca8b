package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

type cli struct {
	Globals

	Serve   serveCmd   `cmd:"" help:"Serve the dashboard method endpoint, fragments, and refresh streams."`
	Render  renderCmd  `cmd:"" help:"Render a customer's dashboard fragment to stdout."`
	Seed    seedCmd    `cmd:"" help:"Load YAML fixtures into the configured database."`
	Preview previewCmd `cmd:"" help:"Run the dashboard panel against a backend and print the resulting page markup."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var c cli
	kctx := kong.Parse(&c,
		kong.Name("customer-dashboard"),
		kong.Description("Customer dashboard panel and backend."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	err := kctx.Run(&c.Globals)
	kctx.FatalIfErrorf(err)
}
