// Package aggregate turns sales rows and a filter selection into the four
// dashboard views.
package aggregate

import (
	"slices"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/filter"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/normalize"
)

// TopN is the number of products in the top products view.
const TopN = 5

// Dimension is a grouping key.
type Dimension string

const (
	ByRegion    Dimension = "region"
	ByRegionKey Dimension = "region_key"
	ByCategory  Dimension = "categoria"
	ByProduct   Dimension = "producto"
	ByMonth     Dimension = "mes"
)

// Measure is a summed value.
type Measure string

const (
	Units     Measure = "ventas"
	Revenue   Measure = "ingresos_hnl"
	UnitPrice Measure = "precio_unitario_hnl"
)

var dimensions = map[Dimension]func(models.SalesRecord) string{
	ByRegion:    func(r models.SalesRecord) string { return r.Region },
	ByRegionKey: func(r models.SalesRecord) string { return normalize.RegionKey(r.Region) },
	ByCategory:  func(r models.SalesRecord) string { return r.Category },
	ByProduct:   func(r models.SalesRecord) string { return r.Product },
	ByMonth:     func(r models.SalesRecord) string { return r.Month },
}

var measures = map[Measure]func(models.SalesRecord) float64{
	Units:     func(r models.SalesRecord) float64 { return r.Units.Float() },
	Revenue:   models.SalesRecord.RevenueValue,
	UnitPrice: models.SalesRecord.UnitPriceValue,
}

func ParseDimension(s string) (Dimension, bool) {
	_, ok := dimensions[Dimension(s)]
	return Dimension(s), ok
}

func ParseMeasure(s string) (Measure, bool) {
	_, ok := measures[Measure(s)]
	return Measure(s), ok
}

// Total is one group of a rollup.
type Total struct {
	Key   string  `json:"key"`
	Total float64 `json:"total"`
}

// GroupSumBy sums measure per distinct value of dim in a single pass. Groups
// come back in the order their key was first seen. Unknown dimensions or
// measures yield an empty result.
func GroupSumBy(rows []models.SalesRecord, dim Dimension, measure Measure) []Total {
	keyOf, okDim := dimensions[dim]
	valueOf, okMeasure := measures[measure]
	if !okDim || !okMeasure {
		return []Total{}
	}

	index := make(map[string]int)
	totals := make([]Total, 0)
	for _, r := range rows {
		k := keyOf(r)
		i, ok := index[k]
		if !ok {
			i = len(totals)
			index[k] = i
			totals = append(totals, Total{Key: k})
		}
		totals[i].Total += valueOf(r)
	}
	return totals
}

// Aggregate computes the view for sel over ds. The monthly series sums
// revenue over the month axis of the whole dataset; the category, product
// and region views sum units. Top products ignore the category filter until
// a category is selected.
func Aggregate(ds *dataset.Dataset, sel filter.Selection) models.AggregateView {
	if ds == nil {
		ds = dataset.New(models.Summary{}, nil)
	}

	rows := dataset.WithRevenue(ds.Rows)
	filtered := filter.Apply(sel, rows)

	productRows := filtered
	if sel.Category == "" {
		productRows = filter.ApplyExceptCategory(sel, rows)
	}

	return models.AggregateView{
		ByMonth:     monthly(filtered, ds.Months),
		ByCategory:  categories(filtered),
		TopProducts: topProducts(productRows, TopN),
		ByRegion:    regions(filtered),
	}
}

func monthly(rows []models.SalesRecord, axis []string) []models.MonthTotal {
	sums := make(map[string]float64)
	for _, t := range GroupSumBy(rows, ByMonth, Revenue) {
		sums[t.Key] = t.Total
	}

	out := make([]models.MonthTotal, 0, len(axis))
	for _, month := range axis {
		out = append(out, models.MonthTotal{Month: month, TotalRevenue: sums[month]})
	}
	return out
}

func categories(rows []models.SalesRecord) []models.CategoryTotal {
	out := make([]models.CategoryTotal, 0)
	for _, t := range GroupSumBy(rows, ByCategory, Units) {
		if t.Key == "" {
			continue
		}
		out = append(out, models.CategoryTotal{Category: t.Key, TotalUnits: t.Total})
	}
	return out
}

func topProducts(rows []models.SalesRecord, n int) []models.ProductTotal {
	totals := slices.DeleteFunc(GroupSumBy(rows, ByProduct, Units), func(t Total) bool {
		return t.Key == ""
	})
	slices.SortStableFunc(totals, func(a, b Total) int {
		switch {
		case a.Total > b.Total:
			return -1
		case a.Total < b.Total:
			return 1
		default:
			return 0
		}
	})
	if len(totals) > n {
		totals = totals[:n]
	}

	categoryOf := firstSeen(rows, ByProduct, ByCategory)
	out := make([]models.ProductTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, models.ProductTotal{
			Product:    t.Key,
			TotalUnits: t.Total,
			Category:   categoryOf[t.Key],
		})
	}
	return out
}

func regions(rows []models.SalesRecord) []models.RegionTotal {
	labelOf := firstSeen(rows, ByRegionKey, ByRegion)
	out := make([]models.RegionTotal, 0)
	for _, t := range GroupSumBy(rows, ByRegionKey, Units) {
		if t.Key == "" {
			continue
		}
		out = append(out, models.RegionTotal{
			RegionKey:  t.Key,
			Label:      labelOf[t.Key],
			TotalUnits: t.Total,
		})
	}
	return out
}

// firstSeen maps each value of key to the value of attr on the first row
// carrying it.
func firstSeen(rows []models.SalesRecord, key, attr Dimension) map[string]string {
	keyOf, attrOf := dimensions[key], dimensions[attr]
	out := make(map[string]string)
	for _, r := range rows {
		k := keyOf(r)
		if _, ok := out[k]; !ok {
			out[k] = attrOf(r)
		}
	}
	return out
}
