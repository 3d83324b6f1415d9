package templates

import (
	"bytes"
	"context"
	"encoding/json"
	"html"
	"strings"
	"testing"

	"sales-dashboard/internal/filter"
	"sales-dashboard/internal/models"
)

func render(t *testing.T, data DashboardData) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Dashboard(data).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	return buf.String()
}

func TestDashboard(t *testing.T) {
	out := render(t, DashboardData{
		Summary:    models.Summary{Period: "2024", Currency: "HNL"},
		Regions:    []string{"Copán", "Cortés"},
		Categories: []string{"Ropa"},
		Products:   []string{`Camisa "slim"`},
		Months:     []string{"2024-01"},
	})

	for _, want := range []string{
		"<!doctype html>",
		`<script src="/static/dashboard.js"></script>`,
		`<span id="periodo">2024</span>`,
		`<option value="Copán">Copán</option>`,
		`<option value="Camisa &#34;slim&#34;">Camisa &#34;slim&#34;</option>`,
		`<option value="">Todos</option>`,
		`id="pieChart"`,
		`id="map"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("page should contain %s", want)
		}
	}
}

func TestDashboard_Signals(t *testing.T) {
	out := render(t, DashboardData{Summary: models.Summary{Period: "2024", Currency: "USD"}})

	start := strings.Index(out, `data-signals="`)
	if start < 0 {
		t.Fatal("data-signals attribute missing")
	}
	rest := out[start+len(`data-signals="`):]
	raw := html.UnescapeString(rest[:strings.Index(rest, `"`)])

	var signals struct {
		Filters  filter.Selection `json:"filters"`
		Status   string           `json:"status"`
		Currency string           `json:"currency"`
	}
	if err := json.Unmarshal([]byte(raw), &signals); err != nil {
		t.Fatalf("signals are not JSON: %v (%s)", err, raw)
	}
	if !signals.Filters.IsEmpty() || signals.Status != "Sin filtros" || signals.Currency != "USD" {
		t.Errorf("signals = %+v", signals)
	}
}

func TestActions(t *testing.T) {
	if got := selectAction(filter.Category); !strings.Contains(got, "dim: 'categoria'") || !strings.Contains(got, "'dashboard-select'") {
		t.Errorf("selectAction() = %s", got)
	}
	if got := exportAction("xlsx"); !strings.HasPrefix(got, "window.location = '/export/xlsx?' + new URLSearchParams(") {
		t.Errorf("exportAction() = %s", got)
	}
}
