package customer

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCustomerRequired is returned when a lookup is issued without a customer id.
	ErrCustomerRequired = errors.New("customer: customer id is required")
	// ErrCustomerNotFound is returned when the data source has no such customer.
	ErrCustomerNotFound = errors.New("customer: customer not found")

	errMissingDataSource = errors.New("customer: data source not configured")
)

// ProjectStatus mirrors the lifecycle values stored on projects.
type ProjectStatus string

const (
	ProjectOpen      ProjectStatus = "Open"
	ProjectCompleted ProjectStatus = "Completed"
	ProjectCancelled ProjectStatus = "Cancelled"
)

// DataSource exposes the read model the dashboard is computed from.
// Implementations must be safe for concurrent use.
type DataSource interface {
	CustomerExists(ctx context.Context, customer string) (bool, error)
	CountProjects(ctx context.Context, customer string, status ProjectStatus) (int, error)
	// ActiveProjects lists project names whose status is not Cancelled.
	ActiveProjects(ctx context.Context, customer string) ([]string, error)
	// BilledProjects returns the distinct subset of projects referenced by submitted invoices.
	BilledProjects(ctx context.Context, projects []string) ([]string, error)
	// LedgerBalance sums debit minus credit over non-cancelled entries for the party.
	LedgerBalance(ctx context.Context, customer string) (float64, error)
}

// RefreshHook notifies transports (SSE/WebSocket) that a dashboard went stale.
type RefreshHook interface {
	DashboardUpdated(ctx context.Context, event DashboardEvent) error
}

// Summary holds the figures rendered into a customer dashboard.
type Summary struct {
	Customer    string    `json:"customer"`
	Open        int       `json:"open"`
	Completed   int       `json:"completed"`
	Cancelled   int       `json:"cancelled"`
	Unbilled    int       `json:"unbilled"`
	Balance     float64   `json:"balance"`
	Currency    string    `json:"currency"`
	GeneratedAt time.Time `json:"generated_at"`
}

// DashboardEvent describes a change that invalidates a customer's dashboard.
type DashboardEvent struct {
	ID       string    `json:"id"`
	Customer string    `json:"customer"`
	Reason   string    `json:"reason"`
	At       time.Time `json:"at"`
}
