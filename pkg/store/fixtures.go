package store

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// FixturesVersion is the current fixture document format.
const FixturesVersion = "1"

//go:embed fixtures.schema.json
var fixturesSchema []byte

// FixtureDocument seeds customers, projects, invoices, and ledger entries.
type FixtureDocument struct {
	Version   string           `json:"version" yaml:"version"`
	Customers []CustomerRow    `json:"customers" yaml:"customers"`
	Projects  []ProjectRow     `json:"projects,omitempty" yaml:"projects,omitempty"`
	Invoices  []InvoiceRow     `json:"invoices,omitempty" yaml:"invoices,omitempty"`
	Ledger    []LedgerEntryRow `json:"ledger,omitempty" yaml:"ledger,omitempty"`
	Source    string           `json:"-" yaml:"-"`
}

// CustomerRow is a customer master record.
type CustomerRow struct {
	Name         string `json:"name" yaml:"name"`
	CustomerName string `json:"customer_name,omitempty" yaml:"customer_name,omitempty"`
}

// ProjectRow is a project owned by a customer.
type ProjectRow struct {
	Name     string `json:"name" yaml:"name"`
	Customer string `json:"customer" yaml:"customer"`
	Status   string `json:"status" yaml:"status"`
}

// InvoiceRow is a sales invoice optionally billed against a project.
// DocStatus follows the draft (0), submitted (1), cancelled (2) convention.
type InvoiceRow struct {
	Name      string `json:"name" yaml:"name"`
	Customer  string `json:"customer" yaml:"customer"`
	Project   string `json:"project,omitempty" yaml:"project,omitempty"`
	DocStatus int    `json:"docstatus" yaml:"docstatus"`
}

// LedgerEntryRow is a general ledger posting against a customer party.
type LedgerEntryRow struct {
	Name        string  `json:"name" yaml:"name"`
	Party       string  `json:"party" yaml:"party"`
	Debit       float64 `json:"debit" yaml:"debit"`
	Credit      float64 `json:"credit" yaml:"credit"`
	IsCancelled bool    `json:"is_cancelled,omitempty" yaml:"is_cancelled,omitempty"`
}

// ReadFixtures loads and validates a fixture document from disk.
func ReadFixtures(path string) (*FixtureDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("store: open fixtures %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeFixtures(f)
	if err != nil {
		return nil, fmt.Errorf("store: decode fixtures %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeFixtures parses YAML (or JSON) fixtures and validates them against the embedded schema.
func DecodeFixtures(r io.Reader) (*FixtureDocument, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("store: read fixtures: %w", err)
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("store: parse fixtures: %w", err)
	}
	if err := validateFixtures(raw); err != nil {
		return nil, err
	}
	var doc FixtureDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("store: parse fixtures: %w", err)
	}
	if doc.Version == "" {
		doc.Version = FixturesVersion
	}
	return &doc, nil
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func fixturesValidator() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		const name = "fixtures.schema.json"
		if err := compiler.AddResource(name, bytes.NewReader(fixturesSchema)); err != nil {
			schemaErr = fmt.Errorf("store: load fixtures schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(name)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("store: compile fixtures schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// validateFixtures normalizes YAML values through JSON before validation so
// numbers and maps have the shapes jsonschema expects.
func validateFixtures(raw any) error {
	schema, err := fixturesValidator()
	if err != nil {
		return err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("store: marshal fixtures: %w", err)
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("store: normalize fixtures: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("store: fixtures failed validation: %w", err)
	}
	return nil
}
