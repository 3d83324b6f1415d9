package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"sales-dashboard/internal/aggregate"
	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/filter"
	"sales-dashboard/internal/geo"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/normalize"
	"sales-dashboard/internal/observability"
)

// Options are the distinct values a user can filter on.
type Options struct {
	Regions    []string `json:"regions"`
	Categories []string `json:"categories"`
	Products   []string `json:"products"`
	Months     []string `json:"months"`
}

// Analytics owns the loaded dataset and boundary file. Both are read-only
// once loaded, so every query is a pure function of its selection.
type Analytics struct {
	mu         sync.RWMutex
	dataset    *dataset.Dataset
	boundaries *geo.Boundaries
	loadedAt   time.Time
	logger     *slog.Logger
}

func NewAnalytics() *Analytics {
	return &Analytics{
		dataset: dataset.New(models.Summary{Period: "N/A", Currency: "HNL"}, nil),
		logger:  slog.Default(),
	}
}

// SetData replaces the loaded state. Boundaries may be nil.
func (a *Analytics) SetData(ds *dataset.Dataset, boundaries *geo.Boundaries) {
	if ds == nil {
		ds = dataset.New(models.Summary{Period: "N/A", Currency: "HNL"}, nil)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.dataset = ds
	a.boundaries = boundaries
	a.loadedAt = time.Now()
}

// LoadFromFiles reads the sales dataset and the boundary file. Both must
// load; there is no partial state and no retry.
func (a *Analytics) LoadFromFiles(ctx context.Context, salesPath, boundaryPath string) error {
	ctx, span := observability.StartSpan(ctx, "analytics.load")
	defer func() {
		span.Finish()
		span.Log(ctx, a.logger)
	}()

	var (
		ds         *dataset.Dataset
		boundaries *geo.Boundaries
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ds, err = dataset.Load(gctx, salesPath)
		return err
	})
	g.Go(func() error {
		var err error
		boundaries, err = geo.Load(gctx, boundaryPath)
		return err
	})
	if err := g.Wait(); err != nil {
		span.SetError(err)
		return fmt.Errorf("load dashboard data: %w", err)
	}

	observability.LogWarnings(a.logger, salesPath, ds.Warnings)

	a.SetData(ds, boundaries)

	a.logger.Info("dashboard data loaded",
		"rows", len(ds.Rows),
		"months", len(ds.Months),
		"regions", len(boundaries.Regions),
		"warnings", len(ds.Warnings),
		"trace_id", span.TraceID,
	)
	return nil
}

func (a *Analytics) snapshot() (*dataset.Dataset, *geo.Boundaries) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dataset, a.boundaries
}

func (a *Analytics) View(sel filter.Selection) models.AggregateView {
	ds, _ := a.snapshot()
	return aggregate.Aggregate(ds, sel.Normalize())
}

// FilteredRows returns the rows matching sel as read from the source, for
// export.
func (a *Analytics) FilteredRows(sel filter.Selection) []models.SalesRecord {
	ds, _ := a.snapshot()
	return filter.Apply(sel.Normalize(), ds.Rows)
}

func (a *Analytics) Rollup(dim aggregate.Dimension, measure aggregate.Measure, sel filter.Selection) []aggregate.Total {
	ds, _ := a.snapshot()
	rows := filter.Apply(sel.Normalize(), dataset.WithRevenue(ds.Rows))
	return aggregate.GroupSumBy(rows, dim, measure)
}

func (a *Analytics) Choropleth(sel filter.Selection) []geo.Shade {
	return a.ChoroplethFor(a.View(sel), sel)
}

// ChoroplethFor shades the boundaries from a view already computed for sel.
func (a *Analytics) ChoroplethFor(view models.AggregateView, sel filter.Selection) []geo.Shade {
	_, boundaries := a.snapshot()
	return geo.Choropleth(boundaries, view.ByRegion, sel.Normalize().Region)
}

func (a *Analytics) ChoroplethGeoJSON(sel filter.Selection) ([]byte, error) {
	_, boundaries := a.snapshot()
	return geo.AnnotatedGeoJSON(boundaries, a.Choropleth(sel))
}

func (a *Analytics) Summary() models.Summary {
	ds, _ := a.snapshot()
	return ds.Summary
}

func (a *Analytics) Warnings() []models.Warning {
	ds, _ := a.snapshot()
	return slices.Clone(ds.Warnings)
}

// Options lists distinct filter values. Months are chronological; the rest
// follow Spanish collation. Regions are boundary names when a boundary file
// is loaded, else dataset names.
func (a *Analytics) Options() Options {
	ds, boundaries := a.snapshot()

	regions := make([]string, 0)
	if boundaries != nil {
		for _, r := range boundaries.Regions {
			regions = append(regions, r.Name)
		}
	} else {
		regions = distinct(ds.Rows, func(r models.SalesRecord) string { return r.Region })
	}

	opts := Options{
		Regions:    regions,
		Categories: distinct(ds.Rows, func(r models.SalesRecord) string { return r.Category }),
		Products:   distinct(ds.Rows, func(r models.SalesRecord) string { return r.Product }),
		Months:     slices.Clone(ds.Months),
	}
	normalize.SortStrings(opts.Regions)
	normalize.SortStrings(opts.Categories)
	normalize.SortStrings(opts.Products)
	return opts
}

func distinct(rows []models.SalesRecord, field func(models.SalesRecord) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range rows {
		v := field(r)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Stats is used for monitoring.
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	regions := 0
	if a.boundaries != nil {
		regions = len(a.boundaries.Regions)
	}

	return map[string]any{
		"record_count": len(a.dataset.Rows),
		"months":       len(a.dataset.Months),
		"regions":      regions,
		"warnings":     len(a.dataset.Warnings),
		"period":       a.dataset.Summary.Period,
		"currency":     a.dataset.Summary.Currency,
		"loaded_at":    a.loadedAt,
	}
}
