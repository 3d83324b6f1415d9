package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"sales-dashboard/internal/models"
)

const (
	defaultCurrency = "HNL"
	defaultPeriod   = "N/A"
)

// DetailFieldAliases lists the accepted names of the detail collection in
// priority order. The first one present and holding a JSON array wins.
var DetailFieldAliases = []string{"detalle_actualizado", "detalle"}

// Warning codes.
const (
	WarnMissingDetail   = "missing_detail"
	WarnMalformedDetail = "malformed_detail"
	WarnMalformedRecord = "malformed_record"
	WarnMissingSummary  = "missing_summary"
)

// Dataset is the in-memory sales dataset. Rows are kept as read from the
// source; revenue is derived per aggregation pass. Read-only after Parse.
type Dataset struct {
	Summary  models.Summary
	Rows     []models.SalesRecord
	Months   []string
	Warnings []models.Warning
}

// New builds a dataset from already decoded rows.
func New(summary models.Summary, rows []models.SalesRecord) *Dataset {
	return &Dataset{
		Summary: summary,
		Rows:    rows,
		Months:  MonthAxis(rows),
	}
}

// Load reads and parses a sales dataset file.
func Load(ctx context.Context, path string) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	ds, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return ds, nil
}

// Parse decodes a sales dataset. Only an empty payload or invalid JSON is an
// error. Schema problems become warnings, including a top-level value that
// is valid JSON but not an object, which reads as a dataset with no summary
// and no detail.
func Parse(data []byte) (*Dataset, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("dataset is empty (0 bytes)")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nil, fmt.Errorf("decode dataset: %w", err)
		}
		raw = nil
	}

	summary, warnings := extractSummary(raw)
	rows, rowWarnings := ExtractDetailRows(raw)

	ds := New(summary, rows)
	ds.Warnings = append(warnings, rowWarnings...)
	return ds, nil
}

func extractSummary(raw map[string]json.RawMessage) (models.Summary, []models.Warning) {
	summary := models.Summary{Period: defaultPeriod, Currency: defaultCurrency}

	body, ok := raw["resumen"]
	if !ok {
		return summary, []models.Warning{{Code: WarnMissingSummary, Message: "dataset has no resumen block"}}
	}

	var decoded struct {
		Period   *string `json:"periodo"`
		Currency *string `json:"moneda"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return summary, []models.Warning{{Code: WarnMissingSummary, Message: fmt.Sprintf("resumen is malformed: %v", err)}}
	}

	if decoded.Period != nil && *decoded.Period != "" {
		summary.Period = *decoded.Period
	}
	if decoded.Currency != nil && *decoded.Currency != "" {
		summary.Currency = *decoded.Currency
	}
	return summary, nil
}

// ExtractDetailRows returns the detail rows of a decoded dataset, consulting
// DetailFieldAliases in order. When no alias holds an array the result is
// empty and a warning explains why.
func ExtractDetailRows(raw map[string]json.RawMessage) ([]models.SalesRecord, []models.Warning) {
	var warnings []models.Warning

	for _, field := range DetailFieldAliases {
		body, ok := raw[field]
		if !ok {
			continue
		}

		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil || items == nil {
			warnings = append(warnings, models.Warning{
				Code:    WarnMalformedDetail,
				Message: fmt.Sprintf("field %q is not an array", field),
			})
			continue
		}

		rows := make([]models.SalesRecord, 0, len(items))
		for i, item := range items {
			var rec models.SalesRecord
			if err := json.Unmarshal(item, &rec); err != nil {
				warnings = append(warnings, models.Warning{
					Code:    WarnMalformedRecord,
					Message: fmt.Sprintf("%s[%d] is not an object", field, i),
				})
				continue
			}
			rows = append(rows, rec)
		}
		return rows, warnings
	}

	warnings = append(warnings, models.Warning{
		Code:    WarnMissingDetail,
		Message: "dataset has neither detalle_actualizado nor detalle",
	})
	return []models.SalesRecord{}, warnings
}

// WithRevenue returns copies of rows with Revenue always set: an existing
// value is kept, otherwise it is UnitPrice × Units with missing operands
// counted as 0. The input slice is not modified.
func WithRevenue(rows []models.SalesRecord) []models.SalesRecord {
	out := make([]models.SalesRecord, len(rows))
	for i, r := range rows {
		if r.Revenue == nil {
			r.Revenue = models.NumberPtr(r.UnitPriceValue() * r.Units.Float())
		}
		out[i] = r
	}
	return out
}

// MonthAxis returns the distinct non-empty months of rows in lexicographic
// order, which is chronological for "YYYY-MM" values.
func MonthAxis(rows []models.SalesRecord) []string {
	seen := make(map[string]struct{})
	months := make([]string, 0)
	for _, r := range rows {
		if r.Month == "" {
			continue
		}
		if _, ok := seen[r.Month]; ok {
			continue
		}
		seen[r.Month] = struct{}{}
		months = append(months, r.Month)
	}
	slices.Sort(months)
	return months
}
