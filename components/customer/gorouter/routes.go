package gorouter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	gocommand "github.com/goliatone/go-command"
	router "github.com/goliatone/go-router"

	customer "github.com/goliatone/go-customer-dashboard/components/customer"
	"github.com/goliatone/go-customer-dashboard/components/customer/commands"
	"github.com/goliatone/go-customer-dashboard/components/customer/httpapi"
	"github.com/goliatone/go-customer-dashboard/components/customer/queries"
)

// Config wires go-router with the customer dashboard queries, commands, and hooks.
type Config[T any] struct {
	Router     router.Router[T]
	Dashboard  gocommand.Querier[queries.DashboardInput, string]
	Summary    gocommand.Querier[queries.SummaryInput, customer.Summary]
	Invalidate gocommand.Commander[commands.InvalidateDashboardInput]
	Broadcast  *customer.BroadcastHook
	BasePath   string
	Routes     RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	Method     string
	Fragment   string
	Summary    string
	Invalidate string
	WebSocket  string
}

// Register mounts the method endpoint, fragment/summary routes, and the
// refresh WebSocket on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Dashboard == nil {
		return errors.New("gorouter: dashboard query is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	group := cfg.Router
	if cfg.BasePath != "" {
		group = cfg.Router.Group(cfg.BasePath)
	}

	method := router.WrapHandler(func(ctx router.Context) error {
		name := methodCustomer(ctx)
		if name == "" {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"exc": customer.ErrCustomerRequired.Error()})
		}
		html, err := cfg.Dashboard.Query(ctx.Context(), dashboardInput(ctx, name))
		if err != nil {
			return ctx.JSON(statusFor(err), map[string]string{"exc": err.Error()})
		}
		if html == "" {
			return ctx.JSON(http.StatusOK, map[string]any{"message": nil})
		}
		return ctx.JSON(http.StatusOK, map[string]any{"message": html})
	})
	group.Post(routes.Method, method)
	group.Get(routes.Method, method)

	group.Get(routes.Fragment, router.WrapHandler(func(ctx router.Context) error {
		html, err := cfg.Dashboard.Query(ctx.Context(), dashboardInput(ctx, ctx.Param("id")))
		if err != nil {
			return respondError(ctx, statusFor(err), err)
		}
		if html == "" {
			return ctx.NoContent(http.StatusNoContent)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send([]byte(html))
	}))

	if cfg.Summary != nil {
		group.Get(routes.Summary, router.WrapHandler(func(ctx router.Context) error {
			summary, err := cfg.Summary.Query(ctx.Context(), queries.SummaryInput{Customer: ctx.Param("id")})
			if err != nil {
				return respondError(ctx, statusFor(err), err)
			}
			return ctx.JSON(http.StatusOK, summary)
		}))
	}

	if cfg.Invalidate != nil {
		group.Post(routes.Invalidate, router.WrapHandler(func(ctx router.Context) error {
			input := commands.InvalidateDashboardInput{
				Customer: ctx.Param("id"),
				Reason:   ctx.Query("reason"),
			}
			if err := cfg.Invalidate.Execute(ctx.Context(), input); err != nil {
				return respondError(ctx, statusFor(err), err)
			}
			return ctx.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
		}))
	}

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}
	return nil
}

// registerWebSocket streams every refresh event; clients filter on the customer field.
func registerWebSocket[T any](r router.Router[T], hook *customer.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe("")
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

// methodCustomer reads the customer from a JSON body, a form body, or the query string.
func methodCustomer(ctx router.Context) string {
	var payload struct {
		Customer string `json:"customer"`
	}
	if body := ctx.Body(); len(body) > 0 && json.Unmarshal(body, &payload) == nil && payload.Customer != "" {
		return strings.TrimSpace(payload.Customer)
	}
	if name := strings.TrimSpace(ctx.FormValue("customer")); name != "" {
		return name
	}
	return strings.TrimSpace(ctx.Query("customer"))
}

func dashboardInput(ctx router.Context, name string) queries.DashboardInput {
	var locale string
	if v, ok := ctx.Locals("locale").(string); ok && v != "" {
		locale = v
	} else {
		locale = customer.ParseAcceptLanguage(ctx.Header("Accept-Language"))
	}
	return queries.DashboardInput{Customer: name, Locale: locale}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, customer.ErrCustomerRequired):
		return http.StatusBadRequest
	case errors.Is(err, customer.ErrCustomerNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondError(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Method == "" {
		routes.Method = httpapi.MethodPath
	}
	if routes.Fragment == "" {
		routes.Fragment = "/customers/:id/dashboard"
	}
	if routes.Summary == "" {
		routes.Summary = "/customers/:id/summary"
	}
	if routes.Invalidate == "" {
		routes.Invalidate = "/customers/:id/dashboard/invalidate"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/customers/dashboard/ws"
	}
	return routes
}
