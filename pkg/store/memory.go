package store

import (
	"context"
	"sort"
	"sync"

	customer "github.com/goliatone/go-customer-dashboard/components/customer"
)

// MemoryStore is an in-process DataSource for previews and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	customers map[string]CustomerRow
	projects  map[string]ProjectRow
	invoices  map[string]InvoiceRow
	ledger    map[string]LedgerEntryRow
}

var _ customer.DataSource = (*MemoryStore)(nil)

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		customers: map[string]CustomerRow{},
		projects:  map[string]ProjectRow{},
		invoices:  map[string]InvoiceRow{},
		ledger:    map[string]LedgerEntryRow{},
	}
}

// Seed upserts every row of doc by name.
func (s *MemoryStore) Seed(_ context.Context, doc *FixtureDocument) error {
	if doc == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range doc.Customers {
		s.customers[row.Name] = row
	}
	for _, row := range doc.Projects {
		s.projects[row.Name] = row
	}
	for _, row := range doc.Invoices {
		s.invoices[row.Name] = row
	}
	for _, row := range doc.Ledger {
		s.ledger[row.Name] = row
	}
	return nil
}

func (s *MemoryStore) CustomerExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.customers[name]
	return ok, nil
}

func (s *MemoryStore) CountProjects(_ context.Context, name string, status customer.ProjectStatus) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, p := range s.projects {
		if p.Customer == name && p.Status == string(status) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) ActiveProjects(_ context.Context, name string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, p := range s.projects {
		if p.Customer == name && p.Status != string(customer.ProjectCancelled) {
			out = append(out, p.Name)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) BilledProjects(_ context.Context, projects []string) ([]string, error) {
	if len(projects) == 0 {
		return nil, nil
	}
	wanted := make(map[string]struct{}, len(projects))
	for _, p := range projects {
		wanted[p] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]struct{}{}
	var out []string
	for _, inv := range s.invoices {
		if inv.DocStatus != 1 || inv.Project == "" {
			continue
		}
		if _, ok := wanted[inv.Project]; !ok {
			continue
		}
		if _, dup := seen[inv.Project]; dup {
			continue
		}
		seen[inv.Project] = struct{}{}
		out = append(out, inv.Project)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) LedgerBalance(_ context.Context, name string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var balance float64
	for _, e := range s.ledger {
		if e.Party == name && !e.IsCancelled {
			balance += e.Debit - e.Credit
		}
	}
	return balance, nil
}
