package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/geo"
	"sales-dashboard/internal/services"
)

const testSales = `{
	"resumen": {"periodo": "2024", "moneda": "HNL"},
	"detalle": [
		{"region": "Cortés", "categoria": "Ropa", "producto": "Camisa", "mes": "2024-01", "ventas": 10, "precio_unitario_hnl": 1},
		{"region": "Cortés", "categoria": "Ropa", "producto": "Camisa", "mes": "2024-02", "ventas": 5, "precio_unitario_hnl": 1},
		{"region": "Copán", "categoria": "Alimentos", "producto": "Arroz", "mes": "2024-01", "ventas": 20, "precio_unitario_hnl": 1}
	]
}`

const testGeo = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "properties": {"NAME_1": "Cortés"}, "geometry": {"type": "Point", "coordinates": [-88, 15.5]}},
		{"type": "Feature", "properties": {"NAME_1": "COPAN DEPARTMENT"}, "geometry": {"type": "Point", "coordinates": [-88.9, 14.8]}}
	]
}`

func createTestAnalytics() *services.Analytics {
	ds, err := dataset.Parse([]byte(testSales))
	if err != nil {
		panic(err)
	}
	boundaries, err := geo.Parse([]byte(testGeo))
	if err != nil {
		panic(err)
	}

	a := services.NewAnalytics()
	a.SetData(ds, boundaries)
	return a
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// decodeSuccess decodes the success envelope and returns its data field.
func decodeSuccess(t *testing.T, w *httptest.ResponseRecorder, data any) {
	t.Helper()

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content-type 'application/json', got %q", ct)
	}

	var response struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if !response.Success {
		t.Error("expected success=true in response")
	}
	if err := json.Unmarshal(response.Data, data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()

	if w.Code != wantStatus {
		t.Errorf("expected status %d, got %d", wantStatus, w.Code)
	}

	var response struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if response.Success {
		t.Error("expected success=false in response")
	}
	if response.Error.Code != wantCode {
		t.Errorf("expected error code %q, got %q", wantCode, response.Error.Code)
	}
}

func TestNewAPIHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	handlers := NewAPIHandlers(analytics, testLogger())

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}
	if handlers.analytics != analytics {
		t.Error("NewAPIHandlers() should set analytics field")
	}
}

func TestAPIHandlers_HandleView(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/view", nil)
	w := httptest.NewRecorder()
	handlers.HandleView(w, req)

	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=300" {
		t.Errorf("expected cache-control 'public, max-age=300', got %q", cc)
	}

	var data ViewResponse
	decodeSuccess(t, w, &data)

	if data.Description != "Sin filtros" {
		t.Errorf("Description = %q", data.Description)
	}
	if len(data.View.ByMonth) != 2 || data.View.ByMonth[0].TotalRevenue != 30 {
		t.Errorf("ByMonth = %+v", data.View.ByMonth)
	}
	if len(data.View.TopProducts) != 2 || data.View.TopProducts[0].Product != "Arroz" {
		t.Errorf("TopProducts = %+v", data.View.TopProducts)
	}
	if data.Summary.Currency != "HNL" {
		t.Errorf("Summary = %+v", data.Summary)
	}
}

func TestAPIHandlers_HandleView_Filters(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	tests := []struct {
		name        string
		query       string
		wantRegions int
		wantDesc    string
	}{
		{"region by display name", "?region=Cort%C3%A9s", 1, "Región: Cortés"},
		{"category", "?categoria=Alimentos", 1, "Categoría: Alimentos"},
		{"month", "?mes=2024-02", 1, "Mes: 2024-02"},
		{"no match", "?categoria=Ropa&producto=Arroz", 0, "Categoría: Ropa · Producto: Arroz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/view"+tt.query, nil)
			w := httptest.NewRecorder()
			handlers.HandleView(w, req)

			var data ViewResponse
			decodeSuccess(t, w, &data)

			if len(data.View.ByRegion) != tt.wantRegions {
				t.Errorf("ByRegion = %+v, want %d entries", data.View.ByRegion, tt.wantRegions)
			}
			if data.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", data.Description, tt.wantDesc)
			}
			if len(data.View.ByMonth) != 2 {
				t.Errorf("month axis should not shrink, got %+v", data.View.ByMonth)
			}
		})
	}
}

func TestAPIHandlers_HandleView_EmptyViewsAreArrays(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/view?categoria=Nada", nil)
	w := httptest.NewRecorder()
	handlers.HandleView(w, req)

	body := w.Body.String()
	for _, field := range []string{`"by_category":[]`, `"top_products":[]`, `"by_region":[]`} {
		if !strings.Contains(body, field) {
			t.Errorf("expected %s in response, got %s", field, body)
		}
	}
}

func TestAPIHandlers_HandleOptions(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/options", nil)
	w := httptest.NewRecorder()
	handlers.HandleOptions(w, req)

	var data services.Options
	decodeSuccess(t, w, &data)

	if len(data.Regions) != 2 || len(data.Categories) != 2 || len(data.Months) != 2 {
		t.Errorf("Options = %+v", data)
	}
}

func TestAPIHandlers_HandleSummary(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	w := httptest.NewRecorder()
	handlers.HandleSummary(w, req)

	var data map[string]string
	decodeSuccess(t, w, &data)

	if data["periodo"] != "2024" || data["moneda"] != "HNL" {
		t.Errorf("summary = %v", data)
	}
}

func TestAPIHandlers_HandleRollup(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/rollup?by=region_key&sum=ventas", nil)
	w := httptest.NewRecorder()
	handlers.HandleRollup(w, req)

	var data []struct {
		Key   string  `json:"key"`
		Total float64 `json:"total"`
	}
	decodeSuccess(t, w, &data)

	if len(data) != 2 || data[0].Key != "CORTES" || data[0].Total != 15 || data[1].Total != 20 {
		t.Errorf("rollup = %+v", data)
	}
}

func TestAPIHandlers_HandleRollup_Invalid(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	for _, query := range []string{"?by=pais&sum=ventas", "?by=region&sum=stock", ""} {
		t.Run(query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/rollup"+query, nil)
			w := httptest.NewRecorder()
			handlers.HandleRollup(w, req)

			decodeError(t, w, http.StatusBadRequest, "VALIDATION_ERROR")
		})
	}
}

func TestAPIHandlers_HandleChoropleth(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/choropleth?region=Cop%C3%A1n", nil)
	w := httptest.NewRecorder()
	handlers.HandleChoropleth(w, req)

	var data []struct {
		Key      string  `json:"key"`
		Value    float64 `json:"value"`
		Selected bool    `json:"selected"`
	}
	decodeSuccess(t, w, &data)

	if len(data) != 2 {
		t.Fatalf("got %d shades, want 2", len(data))
	}
	if data[1].Key != "COPAN" || !data[1].Selected || data[1].Value != 20 {
		t.Errorf("boundary named COPAN DEPARTMENT should match dataset region Copán, got %+v", data[1])
	}
}

func TestAPIHandlers_HandleChoroplethGeoJSON(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/choropleth.geojson", nil)
	w := httptest.NewRecorder()
	handlers.HandleChoroplethGeoJSON(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("expected content-type 'application/geo+json', got %q", ct)
	}
	if !strings.Contains(w.Body.String(), `"FeatureCollection"`) {
		t.Error("response should be a feature collection")
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handlers.HandleHealth(w, req)

	var data map[string]string
	decodeSuccess(t, w, &data)

	if data["status"] != "healthy" {
		t.Errorf("expected status=healthy, got %v", data["status"])
	}
	if _, ok := data["timestamp"]; !ok {
		t.Error("expected timestamp field in health data")
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()
	handlers.HandleStats(w, req)

	var data map[string]any
	decodeSuccess(t, w, &data)

	if data["record_count"] != float64(3) {
		t.Errorf("record_count = %v, want 3", data["record_count"])
	}
	if _, ok := data["warning_details"]; !ok {
		t.Error("expected warning_details in stats")
	}
}

func TestSelectionFromQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?region=Depto.+Cop%C3%A1n&categoria=Ropa&producto=Camisa&mes=2024-01", nil)
	sel := selectionFromQuery(req.URL.Query())

	if sel.Region != "COPAN" || sel.RegionLabel != "Depto. Copán" {
		t.Errorf("region = %q / %q", sel.Region, sel.RegionLabel)
	}
	if sel.Category != "Ropa" || sel.Product != "Camisa" || sel.Month != "2024-01" {
		t.Errorf("selection = %+v", sel)
	}
}
