package commands

import (
	"context"
	"errors"
	"strings"

	gocommand "github.com/goliatone/go-command"
	customer "github.com/goliatone/go-customer-dashboard/components/customer"
)

// InvalidateDashboardInput drops a customer's cached fragment.
type InvalidateDashboardInput struct {
	Customer string
	Reason   string
}

type invalidator interface {
	Invalidate(ctx context.Context, name, reason string) error
}

// InvalidateDashboardCommand clears cached fragments and fans out a refresh
// event so open panels reload.
type InvalidateDashboardCommand struct {
	service   invalidator
	telemetry Telemetry
}

// NewInvalidateDashboardCommand creates the command.
func NewInvalidateDashboardCommand(service invalidator, telemetry Telemetry) *InvalidateDashboardCommand {
	return &InvalidateDashboardCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[InvalidateDashboardInput] = (*InvalidateDashboardCommand)(nil)

// Execute invalidates the customer's dashboard.
func (c *InvalidateDashboardCommand) Execute(ctx context.Context, msg InvalidateDashboardInput) error {
	if c.service == nil {
		return errors.New("invalidate command requires service")
	}
	name := strings.TrimSpace(msg.Customer)
	if name == "" {
		return customer.ErrCustomerRequired
	}
	reason := msg.Reason
	if reason == "" {
		reason = "manual"
	}
	if err := c.service.Invalidate(ctx, name, reason); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "customer.dashboard.command.invalidate", map[string]any{
		"customer": name,
		"reason":   reason,
	})
	return nil
}
