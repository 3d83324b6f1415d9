package aggregate

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/filter"
	"sales-dashboard/internal/models"
)

func scenarioDataset() *dataset.Dataset {
	price := models.NumberPtr(1)
	return dataset.New(models.Summary{Period: "2024", Currency: "HNL"}, []models.SalesRecord{
		{Region: "Cortés", Category: "Ropa", Product: "Camisa", Month: "2024-01", Units: 10, UnitPrice: price},
		{Region: "Cortés", Category: "Ropa", Product: "Camisa", Month: "2024-02", Units: 5, UnitPrice: price},
		{Region: "Copán", Category: "Alimentos", Product: "Arroz", Month: "2024-01", Units: 20, UnitPrice: price},
	})
}

func TestAggregate_NoFilters(t *testing.T) {
	got := Aggregate(scenarioDataset(), filter.Selection{})

	want := models.AggregateView{
		ByMonth: []models.MonthTotal{
			{Month: "2024-01", TotalRevenue: 30},
			{Month: "2024-02", TotalRevenue: 5},
		},
		ByCategory: []models.CategoryTotal{
			{Category: "Ropa", TotalUnits: 15},
			{Category: "Alimentos", TotalUnits: 20},
		},
		TopProducts: []models.ProductTotal{
			{Product: "Arroz", TotalUnits: 20, Category: "Alimentos"},
			{Product: "Camisa", TotalUnits: 15, Category: "Ropa"},
		},
		ByRegion: []models.RegionTotal{
			{RegionKey: "CORTES", Label: "Cortés", TotalUnits: 15},
			{RegionKey: "COPAN", Label: "Copán", TotalUnits: 20},
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Aggregate() mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_CategorySelected(t *testing.T) {
	got := Aggregate(scenarioDataset(), filter.Selection{Category: "Ropa"})

	want := []models.ProductTotal{{Product: "Camisa", TotalUnits: 15, Category: "Ropa"}}
	if diff := cmp.Diff(want, got.TopProducts); diff != "" {
		t.Errorf("TopProducts mismatch (-want +got):\n%s", diff)
	}

	wantMonths := []models.MonthTotal{
		{Month: "2024-01", TotalRevenue: 10},
		{Month: "2024-02", TotalRevenue: 5},
	}
	if diff := cmp.Diff(wantMonths, got.ByMonth); diff != "" {
		t.Errorf("ByMonth mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_RegionOnly(t *testing.T) {
	sel := filter.Selection{}.ToggleRegion("Cortés")
	got := Aggregate(scenarioDataset(), sel)

	want := []models.ProductTotal{{Product: "Camisa", TotalUnits: 15, Category: "Ropa"}}
	if diff := cmp.Diff(want, got.TopProducts); diff != "" {
		t.Errorf("TopProducts mismatch (-want +got):\n%s", diff)
	}

	wantRegions := []models.RegionTotal{{RegionKey: "CORTES", Label: "Cortés", TotalUnits: 15}}
	if diff := cmp.Diff(wantRegions, got.ByRegion); diff != "" {
		t.Errorf("ByRegion mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_MonthAxisStable(t *testing.T) {
	ds := scenarioDataset()

	selections := []filter.Selection{
		{},
		{Category: "Alimentos"},
		{Month: "2024-02"},
		{Product: "Nada"},
		filter.Selection{}.ToggleRegion("Copán"),
	}

	for _, sel := range selections {
		t.Run(sel.Describe(), func(t *testing.T) {
			got := Aggregate(ds, sel).ByMonth
			if len(got) != len(ds.Months) {
				t.Fatalf("ByMonth has %d entries, want %d", len(got), len(ds.Months))
			}
			for i, m := range got {
				if m.Month != ds.Months[i] {
					t.Errorf("ByMonth[%d] = %q, want %q", i, m.Month, ds.Months[i])
				}
			}
		})
	}
}

func TestAggregate_EmptyResult(t *testing.T) {
	got := Aggregate(scenarioDataset(), filter.Selection{Category: "Ropa", Product: "Arroz"})

	if !got.IsEmpty() {
		t.Errorf("expected empty view, got %+v", got)
	}
	for _, m := range got.ByMonth {
		if m.TotalRevenue != 0 {
			t.Errorf("month %s = %v, want 0", m.Month, m.TotalRevenue)
		}
	}
	if got.ByCategory == nil || got.TopProducts == nil || got.ByRegion == nil {
		t.Error("empty views should marshal as [] not null")
	}
}

func TestAggregate_NilDataset(t *testing.T) {
	got := Aggregate(nil, filter.Selection{Category: "Ropa"})
	if len(got.ByMonth) != 0 || !got.IsEmpty() {
		t.Errorf("Aggregate(nil) = %+v, want empty view", got)
	}
}

func TestAggregate_RevenueDerivedOrKept(t *testing.T) {
	ds := dataset.New(models.Summary{}, []models.SalesRecord{
		{Product: "a", Month: "2024-01", Units: 2, UnitPrice: models.NumberPtr(50)},
		{Product: "b", Month: "2024-01", Units: 2, UnitPrice: models.NumberPtr(50), Revenue: models.NumberPtr(7)},
		{Product: "c", Month: "2024-01", Units: 2},
	})

	got := Aggregate(ds, filter.Selection{}).ByMonth
	if len(got) != 1 || got[0].TotalRevenue != 107 {
		t.Errorf("ByMonth = %+v, want 2024-01 = 107", got)
	}
}

func TestAggregate_TopProductsLimitAndTies(t *testing.T) {
	var rows []models.SalesRecord
	units := []float64{3, 9, 9, 1, 7, 5, 9}
	for i, u := range units {
		rows = append(rows, models.SalesRecord{
			Category: "Cat",
			Product:  fmt.Sprintf("P%d", i),
			Month:    "2024-01",
			Units:    models.Number(u),
		})
	}
	rows = append(rows, models.SalesRecord{Product: "", Units: 100})

	got := Aggregate(dataset.New(models.Summary{}, rows), filter.Selection{}).TopProducts

	wantOrder := []string{"P1", "P2", "P6", "P4", "P5"}
	if len(got) != TopN {
		t.Fatalf("TopProducts has %d entries, want %d", len(got), TopN)
	}
	for i, p := range got {
		if p.Product != wantOrder[i] {
			t.Errorf("TopProducts[%d] = %s, want %s", i, p.Product, wantOrder[i])
		}
	}
}

func TestAggregate_RegionSpellingsMerge(t *testing.T) {
	ds := dataset.New(models.Summary{}, []models.SalesRecord{
		{Region: "Copán", Units: 4},
		{Region: "COPAN DEPARTMENT", Units: 6},
		{Region: "", Units: 50},
	})

	want := []models.RegionTotal{{RegionKey: "COPAN", Label: "Copán", TotalUnits: 10}}
	if diff := cmp.Diff(want, Aggregate(ds, filter.Selection{}).ByRegion); diff != "" {
		t.Errorf("ByRegion mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_DoesNotMutateDataset(t *testing.T) {
	ds := scenarioDataset()
	Aggregate(ds, filter.Selection{Category: "Ropa"})

	for i, r := range ds.Rows {
		if r.Revenue != nil {
			t.Errorf("row %d gained a revenue field", i)
		}
	}
}

func TestGroupSumBy(t *testing.T) {
	if got := GroupSumBy(nil, ByRegion, Units); got == nil || len(got) != 0 {
		t.Errorf("GroupSumBy(nil) = %v, want empty slice", got)
	}

	var rows []models.SalesRecord
	if err := json.Unmarshal([]byte(`[
		{"region": "Yoro", "ventas": null},
		{"region": "Yoro", "ventas": 3},
		{"region": "Colón", "ventas": "2"}
	]`), &rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}

	want := []Total{{Key: "Yoro", Total: 3}, {Key: "Colón", Total: 2}}
	if diff := cmp.Diff(want, GroupSumBy(rows, ByRegion, Units)); diff != "" {
		t.Errorf("GroupSumBy() mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupSumBy_UnknownInputs(t *testing.T) {
	rows := []models.SalesRecord{{Region: "Yoro", Units: 1}}

	if got := GroupSumBy(rows, Dimension("pais"), Units); len(got) != 0 {
		t.Errorf("unknown dimension = %v, want empty", got)
	}
	if got := GroupSumBy(rows, ByRegion, Measure("stock")); len(got) != 0 {
		t.Errorf("unknown measure = %v, want empty", got)
	}
}

func TestParseDimensionAndMeasure(t *testing.T) {
	if _, ok := ParseDimension("region_key"); !ok {
		t.Error("ParseDimension(region_key) should succeed")
	}
	if _, ok := ParseDimension(""); ok {
		t.Error("ParseDimension(\"\") should fail")
	}
	if _, ok := ParseMeasure("ingresos_hnl"); !ok {
		t.Error("ParseMeasure(ingresos_hnl) should succeed")
	}
	if _, ok := ParseMeasure("ventas_totales"); ok {
		t.Error("ParseMeasure(ventas_totales) should fail")
	}
}
