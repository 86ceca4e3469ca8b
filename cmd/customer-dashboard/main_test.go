package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const fixturesPath = "../../pkg/store/testdata/fixtures.yaml"

func testGlobals() *Globals {
	return &Globals{
		LogLevel: "error",
		DSN:      "sqlite://:memory:",
		Fixtures: fixturesPath,
		CacheTTL: time.Minute,
		Currency: "₹",
	}
}

func TestRenderCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := &renderCmd{Customer: "CUST-001", Out: &out}
	if err := cmd.Run(testGlobals(), context.Background()); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out.String(), "₹12,345.60") {
		t.Fatalf("expected formatted balance, got %q", out.String())
	}
}

func TestPreviewCommandRendersPanel(t *testing.T) {
	var out bytes.Buffer
	cmd := &previewCmd{Customer: "CUST-001", Timeout: time.Second, Out: &out}
	if err := cmd.Run(testGlobals(), context.Background()); err != nil {
		t.Fatalf("preview: %v", err)
	}
	page := out.String()
	if strings.Count(page, "custom-customer-dashboard-container") != 1 {
		t.Fatalf("expected one container, got %q", page)
	}
	if !strings.Contains(page, "Unbilled Projects") {
		t.Fatalf("expected dashboard cards, got %q", page)
	}
}

func TestPreviewCommandUnknownCustomer(t *testing.T) {
	var out bytes.Buffer
	cmd := &previewCmd{Customer: "CUST-404", Timeout: time.Second, Out: &out}
	if err := cmd.Run(testGlobals(), context.Background()); err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !strings.Contains(out.String(), "No dashboard data available.") {
		t.Fatalf("expected empty message, got %q", out.String())
	}
}

func TestPreviewCommandRecordsPanelCycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	cmd := &previewCmd{Customer: "CUST-001", Timeout: time.Second, Out: io.Discard, Registry: reg}
	if err := cmd.Run(testGlobals(), context.Background()); err != nil {
		t.Fatalf("preview: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != "customer_dashboard_panel_cycles_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			if labels["phase"] == "loaded" && labels["attached"] == "true" && metric.GetCounter().GetValue() == 1 {
				return
			}
		}
		t.Fatalf("unexpected panel cycle samples %v", family.GetMetric())
	}
	t.Fatalf("expected panel cycle metric to be recorded")
}

func TestSeedCommand(t *testing.T) {
	var out bytes.Buffer
	g := testGlobals()
	g.Fixtures = ""
	cmd := &seedCmd{Path: fixturesPath, Out: &out}
	if err := cmd.Run(g, context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out.String(), "2 customers") {
		t.Fatalf("unexpected output %q", out.String())
	}
}
