package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/export"
	"sales-dashboard/internal/filter"
)

func testDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Parse([]byte(`{
		"resumen": {"periodo": "2024", "moneda": "HNL"},
		"detalle": [
			{"region": "Cortés", "categoria": "Ropa", "producto": "Camisa", "mes": "2024-01", "ventas": 10, "precio_unitario_hnl": 1},
			{"region": "Copán", "categoria": "Alimentos", "producto": "Arroz", "mes": "2024-01", "ventas": 20, "precio_unitario_hnl": 1}
		]
	}`))
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func TestRun_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := run(&buf, testDataset(t), filter.Selection{}, "text"); err != nil {
		t.Fatalf("run() failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Periodo: 2024", "Filtros: Sin filtros", "Filas: 2", "1. Arroz", "Cortés"} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q:\n%s", want, out)
		}
	}
}

func TestRun_JSON(t *testing.T) {
	var buf bytes.Buffer
	sel := filter.Selection{}.ToggleRegion("Copán")
	if err := run(&buf, testDataset(t), sel, "pretty"); err != nil {
		t.Fatalf("run() failed: %v", err)
	}

	var out struct {
		Description string `json:"description"`
		View        struct {
			ByRegion []struct {
				RegionKey string `json:"region_key"`
			} `json:"by_region"`
		} `json:"view"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if out.Description != "Región: Copán" || len(out.View.ByRegion) != 1 || out.View.ByRegion[0].RegionKey != "COPAN" {
		t.Errorf("unexpected output: %+v", out)
	}
}

func TestRun_Exports(t *testing.T) {
	ds := testDataset(t)

	var csv bytes.Buffer
	if err := run(&csv, ds, filter.Selection{Category: "Ropa"}, "csv"); err != nil {
		t.Fatalf("csv: %v", err)
	}
	if strings.Count(csv.String(), "\n") != 1 {
		t.Errorf("csv should hold a header and one row:\n%s", csv.String())
	}

	err := run(&bytes.Buffer{}, ds, filter.Selection{Product: "Nada"}, "xlsx")
	if !errors.Is(err, export.ErrNoRows) {
		t.Errorf("xlsx of empty selection error = %v, want ErrNoRows", err)
	}

	if err := run(&bytes.Buffer{}, ds, filter.Selection{}, "yaml"); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestRun_FormatCaseInsensitive(t *testing.T) {
	var buf bytes.Buffer
	if err := run(&buf, testDataset(t), filter.Selection{}, "PRETTY"); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "{\n  ") {
		t.Errorf("PRETTY should indent like pretty:\n%s", buf.String())
	}
}

func TestEmit(t *testing.T) {
	ds := testDataset(t)
	dir := t.TempDir()

	empty := filepath.Join(dir, "vacio.csv")
	err := emit(io.Discard, empty, ds, filter.Selection{Product: "Nada"}, "csv")
	if !errors.Is(err, export.ErrNoRows) {
		t.Fatalf("emit() error = %v, want ErrNoRows", err)
	}
	if _, err := os.Stat(empty); !os.IsNotExist(err) {
		t.Errorf("failed export should not create %s (stat error %v)", empty, err)
	}

	out := filepath.Join(dir, "ropa.csv")
	if err := emit(io.Discard, out, ds, filter.Selection{Category: "Ropa"}, "csv"); err != nil {
		t.Fatalf("emit() failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), `"Camisa"`) {
		t.Errorf("output file = %q", data)
	}

	var stdout bytes.Buffer
	if err := emit(&stdout, "", ds, filter.Selection{}, "text"); err != nil || !strings.Contains(stdout.String(), "Filas: 2") {
		t.Errorf("emit() to stdout = %q, %v", stdout.String(), err)
	}
}
