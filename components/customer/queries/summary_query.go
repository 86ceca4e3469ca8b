package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	customer "github.com/goliatone/go-customer-dashboard/components/customer"
)

// SummaryInput identifies the customer to summarize.
type SummaryInput struct {
	Customer string
}

type summaryService interface {
	Summary(ctx context.Context, name string) (customer.Summary, error)
}

// SummaryQuery returns the raw metrics behind the dashboard.
type SummaryQuery struct {
	service summaryService
}

// NewSummaryQuery builds the query.
func NewSummaryQuery(service summaryService) *SummaryQuery {
	return &SummaryQuery{service: service}
}

var _ gocommand.Querier[SummaryInput, customer.Summary] = (*SummaryQuery)(nil)

// Query computes the summary.
func (q *SummaryQuery) Query(ctx context.Context, input SummaryInput) (customer.Summary, error) {
	return q.service.Summary(ctx, input.Customer)
}
