// Package awardimporter wires the fetcher, cache and renderer into the
// grant trend pipeline.
package awardimporter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/klog"

	"github.com/bcaldwell/grantpulse/internal/influxhelper"
	"github.com/bcaldwell/grantpulse/pkg/awardseries"
	"github.com/bcaldwell/grantpulse/pkg/chart"
	"github.com/bcaldwell/grantpulse/pkg/config"
	"github.com/bcaldwell/grantpulse/pkg/grantcache"
	"github.com/bcaldwell/grantpulse/pkg/postgresutils"
	"github.com/bcaldwell/grantpulse/pkg/reporter"
)

type ImportAwardsRunner struct {
	cfg      *config.Config
	secrets  *config.Secrets
	manager  *grantcache.Manager
	renderer *chart.Renderer
	now      func() time.Time
}

func NewImportAwardsRunner(cfg *config.Config, secrets *config.Secrets) (*ImportAwardsRunner, error) {
	store, err := createStore(cfg, secrets)
	if err != nil {
		return nil, err
	}

	client := reporter.NewClient(
		reporter.WithPageLimit(cfg.Reporter.PageLimit),
		reporter.WithMaxRetries(cfg.Reporter.MaxRetries),
		reporter.WithTimeout(time.Duration(cfg.Reporter.TimeoutSeconds)*time.Second),
		reporter.WithAPIToken(secrets.Reporter.APIToken),
	)

	renderer, err := chart.NewRenderer(cfg.Chart.OutputDir, cfg.Chart.TickInterval)
	if err != nil {
		return nil, err
	}

	return &ImportAwardsRunner{
		cfg:      cfg,
		secrets:  secrets,
		manager:  grantcache.NewManager(store, client),
		renderer: renderer,
		now:      time.Now,
	}, nil
}

// Run fetches or refreshes every period in the comparison window, then
// aggregates and renders. Per-period and per-metric failures are collected
// rather than aborting, so one bad month still leaves every other artifact
// updated; the joined error makes the run exit non-zero afterwards.
func (r *ImportAwardsRunner) Run() error {
	ctx := context.Background()

	today := r.now().UTC().Truncate(24 * time.Hour)
	currentYear := today.Year()
	startYear := currentYear - r.cfg.Reporter.Years + 1

	var errs []error

	totalPeriods := r.cfg.Reporter.Years * int(today.Month())
	period := 0

	caches := []*grantcache.PeriodCache{}

	for year := startYear; year <= currentYear; year++ {
		for month := time.January; month <= today.Month(); month++ {
			period++
			klog.Infof("[%d/%d] ensuring period %s is cached", period, totalPeriods, grantcache.PeriodKey(year, month))

			cache, err := r.manager.EnsurePeriod(ctx, year, month)
			if err != nil {
				klog.Warningf("keeping previous data for period %s: %v", grantcache.PeriodKey(year, month), err)
				errs = append(errs, err)
			}
			if cache != nil {
				caches = append(caches, cache)
			}
		}
	}

	if len(caches) == 0 {
		return errors.Join(append(errs, errors.New("no grant data retrieved"))...)
	}

	seriesByYear := buildWindowSeries(caches, startYear, currentYear, today)

	errs = append(errs, renderAllMetrics(r.renderer, seriesByYear, currentYear)...)

	r.publishToInflux(seriesByYear)

	return errors.Join(errs...)
}

func renderAllMetrics(renderer *chart.Renderer, seriesByYear map[int]*awardseries.YearSeries, currentYear int) []error {
	var errs []error

	for _, metric := range []chart.Metric{chart.MetricCount, chart.MetricAmount} {
		if err := renderer.Render(seriesByYear, currentYear, metric); err != nil {
			klog.Errorf("failed to render %s charts: %v", metric, err)
			errs = append(errs, err)
		}
	}

	return errs
}

// publishToInflux is best effort: a missing endpoint disables it and a
// write failure never fails the run.
func (r *ImportAwardsRunner) publishToInflux(seriesByYear map[int]*awardseries.YearSeries) {
	if r.secrets.Influx.InfluxEndpoint == "" || r.cfg.Influx.Database == "" {
		return
	}

	measurement := r.cfg.Influx.Measurement
	if measurement == "" {
		measurement = "award_series"
	}

	influxClient, err := influxhelper.CreateInfluxClient(r.secrets.Influx)
	if err != nil {
		klog.Warningf("unable to create influx client: %v", err)
		return
	}
	defer influxClient.Close()

	if err := influxhelper.CreateDatabase(influxClient, r.cfg.Influx.Database); err != nil {
		klog.Warningf("unable to create influx database %s: %v", r.cfg.Influx.Database, err)
		return
	}

	if err := influxhelper.WriteSeries(influxClient, r.cfg.Influx.Database, measurement, seriesByYear); err != nil {
		klog.Warningf("unable to write series to influx: %v", err)
		return
	}

	klog.Infof("wrote award series to influx database %s", r.cfg.Influx.Database)
}

func buildWindowSeries(caches []*grantcache.PeriodCache, startYear, currentYear int, today time.Time) map[int]*awardseries.YearSeries {
	years := make([]int, 0, currentYear-startYear+1)
	for year := startYear; year <= currentYear; year++ {
		years = append(years, year)
	}

	return awardseries.BuildSeries(caches, years, awardseries.Cutoff(today))
}

func createStore(cfg *config.Config, secrets *config.Secrets) (grantcache.Store, error) {
	switch cfg.Cache.Backend {
	case "", "file":
		return grantcache.NewFileStore(cfg.Cache.Dir)
	case "sql":
		database := cfg.Cache.SQL.Database
		if database == "" {
			database = "grantpulse"
		}
		table := cfg.Cache.SQL.PeriodsTable
		if table == "" {
			table = "periods"
		}

		db, err := postgresutils.CreatePostgresClient(secrets, database)
		if err != nil {
			return nil, fmt.Errorf("Error connecting to postgres DB: %s", err)
		}

		return grantcache.NewSQLStore(db, table)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}
