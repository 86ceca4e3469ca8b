package customer

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultChartHeight = "280px"

// StatusChart renders a pie chart of project statuses with go-echarts.
type StatusChart struct {
	theme      string
	height     string
	assetsHost string
}

// StatusChartOption customizes StatusChart.
type StatusChartOption func(*StatusChart)

// WithChartTheme sets the echarts theme (defaults to Westeros).
func WithChartTheme(theme string) StatusChartOption {
	return func(c *StatusChart) {
		c.theme = theme
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from a CDN or local mount.
func WithChartAssetsHost(host string) StatusChartOption {
	return func(c *StatusChart) {
		c.assetsHost = host
	}
}

// NewStatusChart builds a chart renderer.
func NewStatusChart(options ...StatusChartOption) *StatusChart {
	c := &StatusChart{
		theme:  types.ThemeWesteros,
		height: defaultChartHeight,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Render returns chart markup for the summary. Customers without projects get no chart.
func (c *StatusChart) Render(_ context.Context, summary Summary, labels Labels) (string, error) {
	if summary.Open+summary.Completed+summary.Cancelled == 0 {
		return "", nil
	}
	initOpts := opts.Initialization{
		Theme:  c.theme,
		Width:  "100%",
		Height: c.height,
	}
	if c.assetsHost != "" {
		initOpts.AssetsHost = c.assetsHost
	}
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: summary.Customer}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	pie.AddSeries("projects", []opts.PieData{
		{Name: labels.Open, Value: summary.Open},
		{Name: labels.Completed, Value: summary.Completed},
		{Name: labels.Cancelled, Value: summary.Cancelled},
	})
	return renderChart(pie)
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", fmt.Errorf("render chart: %w", err)
	}
	return buf.String(), nil
}
