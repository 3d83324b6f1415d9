// Package templates renders the dashboard page. The markup lives in
// dashboard.templ; run `templ generate` after editing it.
package templates

import (
	"encoding/json"
	"fmt"
	"strconv"

	"sales-dashboard/internal/filter"
	"sales-dashboard/internal/models"
)

// DashboardData is what the page needs before the first SSE refresh.
type DashboardData struct {
	Summary    models.Summary
	Regions    []string
	Categories []string
	Products   []string
	Months     []string
}

// initialSignals seeds the datastar store with an empty selection. The
// first /sse/refresh fills in the views.
func initialSignals(summary models.Summary) (string, error) {
	signals, err := json.Marshal(map[string]any{
		"filters":    filter.Selection{},
		"status":     filter.Selection{}.Describe(),
		"view":       models.AggregateView{},
		"choropleth": []any{},
		"currency":   summary.Currency,
	})
	if err != nil {
		return "", fmt.Errorf("marshal initial signals: %w", err)
	}
	return string(signals), nil
}

// selectAction raises the same dashboard-select event the charts and map
// raise on click. The "Todos" option sends an empty value, which clears dim.
func selectAction(dim filter.Dimension) string {
	return fmt.Sprintf("window.dispatchEvent(new CustomEvent('dashboard-select', {detail: {dim: '%s', value: evt.target.value}}))", dim)
}

const exportQuery = `new URLSearchParams({region: $filters.region_label, categoria: $filters.categoria, producto: $filters.producto, mes: $filters.mes})`

func exportAction(format string) string {
	return fmt.Sprintf("window.location = '/export/%s?' + %s", format, exportQuery)
}

func units(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}
