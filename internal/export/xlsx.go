package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"sales-dashboard/internal/models"
)

const (
	XLSXFilename = "ventas_filtradas.xlsx"

	detailSheet  = "Detalle"
	summarySheet = "Resumen"
)

// Report is what the spreadsheet and PDF exports describe: the filtered
// rows, their aggregates and the context they were taken in.
type Report struct {
	Rows        []models.SalesRecord
	View        models.AggregateView
	Summary     models.Summary
	Description string
}

// XLSX writes a workbook with a Detalle sheet holding the rows and a Resumen
// sheet holding the four aggregate views.
func XLSX(w io.Writer, report Report) error {
	if len(report.Rows) == 0 {
		return ErrNoRows
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", detailSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeDetail(f, report.Rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	if err := writeSummary(f, report); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeDetail(f *excelize.File, rows []models.SalesRecord) error {
	header := []any{"region", "categoria", "producto", "mes", "ventas", "precio_unitario_hnl", "ingresos_hnl"}
	if err := setRow(f, detailSheet, 1, header); err != nil {
		return err
	}

	for i, r := range rows {
		values := []any{r.Region, r.Category, r.Product, r.Month, r.Units.Float(), cellNumber(r.UnitPrice), cellNumber(r.Revenue)}
		if err := setRow(f, detailSheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, report Report) error {
	row := 1
	put := func(values ...any) error {
		err := setRow(f, summarySheet, row, values)
		row++
		return err
	}

	lines := [][]any{
		{"Periodo", report.Summary.Period},
		{"Moneda", report.Summary.Currency},
		{"Filtros", report.Description},
		{},
		{"Mes", fmt.Sprintf("Ingresos (%s)", report.Summary.Currency)},
	}
	for _, m := range report.View.ByMonth {
		lines = append(lines, []any{m.Month, m.TotalRevenue})
	}
	lines = append(lines, []any{}, []any{"Categoría", "Unidades"})
	for _, c := range report.View.ByCategory {
		lines = append(lines, []any{c.Category, c.TotalUnits})
	}
	lines = append(lines, []any{}, []any{"Producto", "Unidades", "Categoría"})
	for _, p := range report.View.TopProducts {
		lines = append(lines, []any{p.Product, p.TotalUnits, p.Category})
	}
	lines = append(lines, []any{}, []any{"Región", "Unidades"})
	for _, r := range report.View.ByRegion {
		lines = append(lines, []any{r.Label, r.TotalUnits})
	}

	for _, l := range lines {
		if err := put(l...); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func cellNumber(n *models.Number) any {
	if n == nil {
		return nil
	}
	return n.Float()
}
