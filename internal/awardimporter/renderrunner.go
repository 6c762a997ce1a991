package awardimporter

import (
	"errors"
	"time"

	"k8s.io/klog"

	"github.com/bcaldwell/grantpulse/pkg/chart"
	"github.com/bcaldwell/grantpulse/pkg/config"
	"github.com/bcaldwell/grantpulse/pkg/grantcache"
)

// RenderRunner redraws the chart artifacts from cached data only, with no
// network calls. Handy after changing chart options.
type RenderRunner struct {
	cfg      *config.Config
	store    grantcache.Store
	renderer *chart.Renderer
	now      func() time.Time
}

func NewRenderRunner(cfg *config.Config, secrets *config.Secrets) (*RenderRunner, error) {
	store, err := createStore(cfg, secrets)
	if err != nil {
		return nil, err
	}

	renderer, err := chart.NewRenderer(cfg.Chart.OutputDir, cfg.Chart.TickInterval)
	if err != nil {
		return nil, err
	}

	return &RenderRunner{
		cfg:      cfg,
		store:    store,
		renderer: renderer,
		now:      time.Now,
	}, nil
}

func (r *RenderRunner) Run() error {
	today := r.now().UTC().Truncate(24 * time.Hour)
	currentYear := today.Year()
	startYear := currentYear - r.cfg.Reporter.Years + 1

	caches := []*grantcache.PeriodCache{}

	for year := startYear; year <= currentYear; year++ {
		for month := time.January; month <= today.Month(); month++ {
			cache, err := r.store.Get(grantcache.PeriodKey(year, month))
			if errors.Is(err, grantcache.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			caches = append(caches, cache)
		}
	}

	if len(caches) == 0 {
		return errors.New("nothing cached yet, run the import task first")
	}

	klog.Infof("rendering from %d cached periods", len(caches))

	seriesByYear := buildWindowSeries(caches, startYear, currentYear, today)

	return errors.Join(renderAllMetrics(r.renderer, seriesByYear, currentYear)...)
}
