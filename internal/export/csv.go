// Package export serializes the filtered dashboard state as CSV, XLSX and
// PDF.
package export

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"

	"sales-dashboard/internal/models"
)

// ErrNoRows is returned when an export is asked for an empty row set.
var ErrNoRows = errors.New("no rows to export")

// CSVFilename is the download name for the CSV export.
const CSVFilename = "ventas_filtradas.csv"

type column struct {
	name  string
	value func(models.SalesRecord) string
}

var requiredColumns = []column{
	{"region", func(r models.SalesRecord) string { return r.Region }},
	{"categoria", func(r models.SalesRecord) string { return r.Category }},
	{"producto", func(r models.SalesRecord) string { return r.Product }},
	{"mes", func(r models.SalesRecord) string { return r.Month }},
	{"ventas", func(r models.SalesRecord) string { return formatNumber(r.Units.Float()) }},
}

var (
	unitPriceColumn = column{"precio_unitario_hnl", func(r models.SalesRecord) string { return optional(r.UnitPrice) }}
	revenueColumn   = column{"ingresos_hnl", func(r models.SalesRecord) string { return optional(r.Revenue) }}
)

// columnsFor derives the header from the fields present on the first row.
func columnsFor(first models.SalesRecord) []column {
	cols := append([]column(nil), requiredColumns...)
	if first.UnitPrice != nil {
		cols = append(cols, unitPriceColumn)
	}
	if first.Revenue != nil {
		cols = append(cols, revenueColumn)
	}
	return cols
}

// CSV writes rows with a header line taken from the first row's fields and
// every value double-quoted. Fields a later row lacks are written empty.
func CSV(w io.Writer, rows []models.SalesRecord) error {
	if len(rows) == 0 {
		return ErrNoRows
	}

	cols := columnsFor(rows[0])
	bw := bufio.NewWriter(w)

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	bw.WriteString(strings.Join(names, ","))

	fields := make([]string, len(cols))
	for _, r := range rows {
		for i, c := range cols {
			fields[i] = quote(c.value(r))
		}
		bw.WriteByte('\n')
		bw.WriteString(strings.Join(fields, ","))
	}

	return bw.Flush()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func optional(n *models.Number) string {
	if n == nil {
		return ""
	}
	return formatNumber(n.Float())
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
