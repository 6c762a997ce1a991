// Package chart renders aggregated award series into static and
// interactive artifacts. No data computation happens here.
package chart

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"k8s.io/klog"

	"github.com/bcaldwell/grantpulse/pkg/awardseries"
)

type Metric string

const (
	MetricCount  Metric = "count"
	MetricAmount Metric = "amount"
)

const (
	artifactBasename = "nih_awards"

	chartWidth  = 1200
	chartHeight = 800
)

type Renderer struct {
	outputDir    string
	tickInterval int
}

func NewRenderer(outputDir string, tickInterval int) (*Renderer, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create output dir %s: %w", outputDir, err)
	}

	if tickInterval <= 0 {
		tickInterval = 7
	}

	return &Renderer{outputDir: outputDir, tickInterval: tickInterval}, nil
}

func (r *Renderer) HTMLPath(metric Metric) string {
	return filepath.Join(r.outputDir, fmt.Sprintf("%s_%s.html", artifactBasename, metric))
}

func (r *Renderer) PNGPath(metric Metric) string {
	return filepath.Join(r.outputDir, fmt.Sprintf("%s_%s.png", artifactBasename, metric))
}

// Render draws one line per year on a shared day-of-year axis and writes
// both artifacts for the metric. The current year gets a heavy solid red
// line; prior years get dashed pastels. Both artifacts are attempted even
// if the first fails.
func (r *Renderer) Render(seriesByYear map[int]*awardseries.YearSeries, currentYear int, metric Metric) error {
	if len(seriesByYear) == 0 {
		return errors.New("no series to render")
	}

	years := make([]int, 0, len(seriesByYear))
	for year := range seriesByYear {
		years = append(years, year)
	}
	slices.Sort(years)

	colors := lineColors(years, currentYear)
	labels := dayLabels(len(seriesByYear[years[0]].Counts))

	htmlErr := r.renderHTML(seriesByYear, years, currentYear, metric, colors, labels)
	pngErr := r.renderPNG(seriesByYear, years, currentYear, metric, colors, labels)

	if err := errors.Join(htmlErr, pngErr); err != nil {
		return fmt.Errorf("rendering %s charts: %w", metric, err)
	}

	klog.Infof("wrote %s and %s", r.HTMLPath(metric), r.PNGPath(metric))

	return nil
}

func (r *Renderer) renderHTML(seriesByYear map[int]*awardseries.YearSeries, years []int, currentYear int, metric Metric, colors map[int]string, labels []string) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  fmt.Sprintf("%dpx", chartWidth),
			Height: fmt.Sprintf("%dpx", chartHeight),
		}),
		charts.WithTitleOpts(opts.Title{Title: metricTitle(metric)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Date (Month-Day)",
			AxisLabel: &opts.AxisLabel{
				Show:     opts.Bool(true),
				Interval: strconv.Itoa(r.tickInterval - 1),
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: metricAxisTitle(metric)}),
	)

	line.SetXAxis(labels)

	for _, year := range years {
		values := metricValues(seriesByYear[year], metric)
		data := make([]opts.LineData, len(values))
		for i, v := range values {
			data[i] = opts.LineData{Value: v}
		}

		style := opts.LineStyle{Color: colors[year], Width: 2, Type: "dashed"}
		if year == currentYear {
			style.Width = 3
			style.Type = "solid"
		}

		line.AddSeries(strconv.Itoa(year), data, charts.WithLineStyleOpts(style))
	}

	f, err := os.Create(r.HTMLPath(metric))
	if err != nil {
		return err
	}
	defer f.Close()

	return line.Render(f)
}

func (r *Renderer) renderPNG(seriesByYear map[int]*awardseries.YearSeries, years []int, currentYear int, metric Metric, colors map[int]string, labels []string) error {
	series := make([]gochart.Series, 0, len(years))

	for _, year := range years {
		values := metricValues(seriesByYear[year], metric)

		xs := make([]float64, len(values))
		for i := range values {
			xs[i] = float64(i + 1)
		}

		style := gochart.Style{
			StrokeColor:     drawing.ColorFromHex(colors[year][1:]),
			StrokeWidth:     2,
			StrokeDashArray: []float64{5, 5},
		}
		if year == currentYear {
			style.StrokeWidth = 3
			style.StrokeDashArray = nil
		}

		series = append(series, gochart.ContinuousSeries{
			Name:    strconv.Itoa(year),
			XValues: xs,
			YValues: values,
			Style:   style,
		})
	}

	graph := gochart.Chart{
		Title:  metricTitle(metric),
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: gochart.XAxis{
			Name: "Date (Month-Day)",
			ValueFormatter: func(v interface{}) string {
				day, ok := v.(float64)
				if !ok {
					return ""
				}
				i := int(math.Round(day)) - 1
				if i < 0 || i >= len(labels) {
					return ""
				}
				return labels[i]
			},
		},
		YAxis:  gochart.YAxis{Name: metricAxisTitle(metric)},
		Series: series,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	f, err := os.Create(r.PNGPath(metric))
	if err != nil {
		return err
	}
	defer f.Close()

	return graph.Render(gochart.PNG, f)
}

func lineColors(years []int, currentYear int) map[int]string {
	colors := map[int]string{currentYear: currentYearColor}

	priorYears := 0
	for _, year := range years {
		if year != currentYear {
			priorYears++
		}
	}

	i := 0
	for _, year := range years {
		if year == currentYear {
			continue
		}
		colors[year] = pastelColor(i, priorYears)
		i++
	}

	return colors
}

// dayLabels builds "Jan 02" style x-axis labels from a dummy reference year.
func dayLabels(days int) []string {
	labels := make([]string, days)
	start := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := range labels {
		labels[i] = start.AddDate(0, 0, i).Format("Jan 02")
	}
	return labels
}

func metricValues(series *awardseries.YearSeries, metric Metric) []float64 {
	if metric == MetricAmount {
		return series.Amounts
	}
	return series.Counts
}

func metricTitle(metric Metric) string {
	if metric == MetricAmount {
		return "Cumulative NIH Award Dollars (YTD) by Award Notice Date"
	}
	return "Cumulative NIH Awards (YTD) by Award Notice Date"
}

func metricAxisTitle(metric Metric) string {
	if metric == MetricAmount {
		return "Cumulative Award Amount (USD)"
	}
	return "Cumulative Number of Awards"
}
