package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"sales-dashboard/internal/aggregate"
	"sales-dashboard/internal/config"
	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/export"
	"sales-dashboard/internal/filter"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
)

const version = "1.0.0"

func main() {
	salesPath := flag.String("sales", "data/ventas.json", "Path to the sales dataset JSON")
	region := flag.String("region", "", "Filter by region name")
	category := flag.String("categoria", "", "Filter by category")
	product := flag.String("producto", "", "Filter by product")
	month := flag.String("mes", "", "Filter by month (YYYY-MM)")
	format := flag.String("format", "text", "Output format: text, json, pretty, csv, xlsx, pdf")
	outFile := flag.String("out", "", "Write output to file instead of stdout")
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `salesctl: aggregate a sales dataset with dashboard filters

Usage:
  salesctl --sales data/ventas.json
  salesctl --sales data/ventas.json --categoria Ropa --format pretty
  salesctl --sales data/ventas.json --region "Copán" --format csv --out copan.csv
  salesctl --sales data/ventas.json --format pdf --out dashboard.pdf

Flags:
`)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println("salesctl", version)
		return
	}

	logger := observability.NewLoggerTo(os.Stderr, config.LoggerConfig{Level: *logLevel, Format: "text"})

	ds, err := dataset.Load(context.Background(), *salesPath)
	if err != nil {
		logger.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}
	observability.LogWarnings(logger, *salesPath, ds.Warnings)

	sel := filter.Selection{Category: *category, Product: *product, Month: *month}
	if *region != "" {
		sel = sel.ToggleRegion(*region)
	}

	if err := emit(os.Stdout, *outFile, ds, sel, *format); err != nil {
		if errors.Is(err, export.ErrNoRows) {
			fmt.Fprintln(os.Stderr, "No hay datos para exportar.")
			os.Exit(2)
		}
		logger.Error("failed", "error", err)
		os.Exit(1)
	}
}

// emit writes the report to stdout, or to path when one is given. The file
// is only created once the report has rendered, so a failed export leaves
// nothing behind.
func emit(stdout io.Writer, path string, ds *dataset.Dataset, sel filter.Selection, format string) error {
	if path == "" {
		return run(stdout, ds, sel, format)
	}

	var buf bytes.Buffer
	if err := run(&buf, ds, sel, format); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func run(w io.Writer, ds *dataset.Dataset, sel filter.Selection, format string) error {
	view := aggregate.Aggregate(ds, sel)
	report := export.Report{
		Rows:        filter.Apply(sel, ds.Rows),
		View:        view,
		Summary:     ds.Summary,
		Description: sel.Describe(),
	}

	format = strings.ToLower(format)
	switch format {
	case "text":
		return writeText(w, report)
	case "json", "pretty":
		enc := json.NewEncoder(w)
		if format == "pretty" {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(map[string]any{
			"summary":     ds.Summary,
			"filters":     sel,
			"description": report.Description,
			"view":        view,
		})
	case "csv":
		return export.CSV(w, report.Rows)
	case "xlsx":
		return export.XLSX(w, report)
	case "pdf":
		return export.PDF(w, report)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeText(w io.Writer, r export.Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Periodo: %s · Moneda: %s\n", r.Summary.Period, r.Summary.Currency)
	fmt.Fprintf(&b, "Filtros: %s\n", r.Description)
	fmt.Fprintf(&b, "Filas: %d\n\n", len(r.Rows))

	fmt.Fprintf(&b, "Ingresos por mes (%s)\n", r.Summary.Currency)
	for _, m := range r.View.ByMonth {
		fmt.Fprintf(&b, "  %-10s %14.2f\n", m.Month, m.TotalRevenue)
	}

	b.WriteString("\nTop productos (unidades)\n")
	for i, p := range r.View.TopProducts {
		fmt.Fprintf(&b, "  %d. %-24s %10.0f  %s\n", i+1, p.Product, p.TotalUnits, p.Category)
	}

	b.WriteString("\nUnidades por categoría\n")
	writeTotals(&b, r.View.ByCategory, func(c models.CategoryTotal) (string, float64) { return c.Category, c.TotalUnits })

	b.WriteString("\nUnidades por región\n")
	writeTotals(&b, r.View.ByRegion, func(t models.RegionTotal) (string, float64) { return t.Label, t.TotalUnits })

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTotals[T any](b *strings.Builder, items []T, row func(T) (string, float64)) {
	if len(items) == 0 {
		b.WriteString("  (sin datos)\n")
		return
	}
	for _, item := range items {
		label, total := row(item)
		fmt.Fprintf(b, "  %-24s %10.0f\n", label, total)
	}
}
