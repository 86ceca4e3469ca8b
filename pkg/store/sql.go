package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	customer "github.com/goliatone/go-customer-dashboard/components/customer"
)

// Dialect identifies the SQL backend behind a SQLStore.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore reads dashboard figures from sqlite (modernc) or Postgres (pgx).
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

var _ customer.DataSource = (*SQLStore)(nil)

// Open connects to dsn and applies the schema. Supported forms:
// sqlite://path, file:path, :memory:, a bare path, postgres:// and postgresql://.
func Open(dsn string) (*SQLStore, error) {
	dialect, source, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}
	driver := "sqlite"
	if dialect == DialectPostgres {
		driver = "pgx"
	}
	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("store: open %s db: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// Every pooled connection would otherwise get its own in-memory database.
		db.SetMaxOpenConns(1)
	}
	s := &SQLStore{db: db, dialect: dialect}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Dialect reports the backend in use.
func (s *SQLStore) Dialect() Dialect { return s.dialect }

func parseDSN(dsn string) (Dialect, string, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return "", "", errors.New("store: dsn is required")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DialectPostgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return DialectSQLite, strings.TrimPrefix(dsn, "sqlite://"), nil
	case strings.Contains(dsn, "://"):
		return "", "", fmt.Errorf("store: unsupported dsn scheme in %q", dsn)
	default:
		return DialectSQLite, dsn, nil
	}
}

func (s *SQLStore) migrate(ctx context.Context) error {
	var stmts []string
	if s.dialect == DialectSQLite {
		stmts = append(stmts, `PRAGMA busy_timeout=5000;`)
	}
	stmts = append(stmts,
		`CREATE TABLE IF NOT EXISTS customers (
			name TEXT PRIMARY KEY,
			customer_name TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS projects (
			name TEXT PRIMARY KEY,
			customer TEXT NOT NULL,
			status TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_projects_customer ON projects(customer, status);`,
		`CREATE TABLE IF NOT EXISTS sales_invoices (
			name TEXT PRIMARY KEY,
			customer TEXT NOT NULL,
			project TEXT NOT NULL DEFAULT '',
			docstatus INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sales_invoices_project ON sales_invoices(project, docstatus);`,
		`CREATE TABLE IF NOT EXISTS gl_entries (
			name TEXT PRIMARY KEY,
			party TEXT NOT NULL,
			debit DOUBLE PRECISION NOT NULL DEFAULT 0,
			credit DOUBLE PRECISION NOT NULL DEFAULT 0,
			is_cancelled INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_gl_entries_party ON gl_entries(party);`,
	)
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}

// Seed upserts every fixture row in a single transaction.
func (s *SQLStore) Seed(ctx context.Context, doc *FixtureDocument) error {
	if doc == nil {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	exec := func(query string, args ...any) error {
		_, err := tx.ExecContext(ctx, s.rebind(query), args...)
		return err
	}
	for _, row := range doc.Customers {
		if err := exec(`INSERT INTO customers (name, customer_name) VALUES (?, ?)
			ON CONFLICT (name) DO UPDATE SET customer_name = excluded.customer_name`,
			row.Name, row.CustomerName); err != nil {
			return fmt.Errorf("store: seed customer %s: %w", row.Name, err)
		}
	}
	for _, row := range doc.Projects {
		if err := exec(`INSERT INTO projects (name, customer, status) VALUES (?, ?, ?)
			ON CONFLICT (name) DO UPDATE SET customer = excluded.customer, status = excluded.status`,
			row.Name, row.Customer, row.Status); err != nil {
			return fmt.Errorf("store: seed project %s: %w", row.Name, err)
		}
	}
	for _, row := range doc.Invoices {
		if err := exec(`INSERT INTO sales_invoices (name, customer, project, docstatus) VALUES (?, ?, ?, ?)
			ON CONFLICT (name) DO UPDATE SET customer = excluded.customer, project = excluded.project, docstatus = excluded.docstatus`,
			row.Name, row.Customer, row.Project, row.DocStatus); err != nil {
			return fmt.Errorf("store: seed invoice %s: %w", row.Name, err)
		}
	}
	for _, row := range doc.Ledger {
		cancelled := 0
		if row.IsCancelled {
			cancelled = 1
		}
		if err := exec(`INSERT INTO gl_entries (name, party, debit, credit, is_cancelled) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (name) DO UPDATE SET party = excluded.party, debit = excluded.debit, credit = excluded.credit, is_cancelled = excluded.is_cancelled`,
			row.Name, row.Party, row.Debit, row.Credit, cancelled); err != nil {
			return fmt.Errorf("store: seed ledger entry %s: %w", row.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit seed: %w", err)
	}
	return nil
}

func (s *SQLStore) CustomerExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM customers WHERE name = ?`), name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("store: customer exists: %w", err)
	}
	return count > 0, nil
}

func (s *SQLStore) CountProjects(ctx context.Context, name string, status customer.ProjectStatus) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT COUNT(*) FROM projects WHERE customer = ? AND status = ?`),
		name, string(status),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("store: count %s projects: %w", status, err)
	}
	return count, nil
}

func (s *SQLStore) ActiveProjects(ctx context.Context, name string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT name FROM projects WHERE customer = ? AND status <> ? ORDER BY name`),
		name, string(customer.ProjectCancelled),
	)
	if err != nil {
		return nil, fmt.Errorf("store: active projects: %w", err)
	}
	return scanNames(rows)
}

func (s *SQLStore) BilledProjects(ctx context.Context, projects []string) ([]string, error) {
	if len(projects) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(projects))
	for _, p := range projects {
		args = append(args, p)
	}
	query := `SELECT DISTINCT project FROM sales_invoices WHERE docstatus = 1 AND project IN (` +
		placeholders(len(projects)) + `) ORDER BY project`
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("store: billed projects: %w", err)
	}
	return scanNames(rows)
}

func (s *SQLStore) LedgerBalance(ctx context.Context, name string) (float64, error) {
	var balance float64
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT COALESCE(SUM(debit - credit), 0) FROM gl_entries WHERE party = ? AND is_cancelled = 0`),
		name,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("store: ledger balance: %w", err)
	}
	return balance, nil
}

func scanNames(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: rows: %w", err)
	}
	return out, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
