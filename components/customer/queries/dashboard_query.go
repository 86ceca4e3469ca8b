package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	customer "github.com/goliatone/go-customer-dashboard/components/customer"
)

// DashboardInput identifies the fragment to render.
type DashboardInput struct {
	Customer string
	Locale   string
}

type dashboardService interface {
	Dashboard(ctx context.Context, customer string) (string, error)
}

// DashboardQuery renders a customer's dashboard fragment. An empty result
// means the customer has no dashboard.
type DashboardQuery struct {
	service dashboardService
}

// NewDashboardQuery builds the query.
func NewDashboardQuery(service dashboardService) *DashboardQuery {
	return &DashboardQuery{service: service}
}

var _ gocommand.Querier[DashboardInput, string] = (*DashboardQuery)(nil)

// Query renders the fragment, honoring the requested locale.
func (q *DashboardQuery) Query(ctx context.Context, input DashboardInput) (string, error) {
	if input.Locale != "" {
		ctx = customer.WithLocale(ctx, input.Locale)
	}
	return q.service.Dashboard(ctx, input.Customer)
}
