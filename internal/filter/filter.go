// Package filter holds the dashboard's cross-filter selection and the row
// predicates derived from it.
package filter

import (
	"strings"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/normalize"
)

// Dimension names a filterable field. Values match the dataset field names.
type Dimension string

const (
	Region   Dimension = "region"
	Category Dimension = "categoria"
	Product  Dimension = "producto"
	Month    Dimension = "mes"
)

// Dimensions lists every filterable dimension in display order.
var Dimensions = []Dimension{Region, Category, Product, Month}

// ParseDimension maps a field name to a Dimension.
func ParseDimension(s string) (Dimension, bool) {
	for _, d := range Dimensions {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// Selection is the current filter state. An empty field places no
// constraint on its dimension. Region holds the normalized region key;
// RegionLabel is the name as the user saw it and is only set with Region.
type Selection struct {
	Region      string `json:"region"`
	RegionLabel string `json:"region_label"`
	Category    string `json:"categoria"`
	Product     string `json:"producto"`
	Month       string `json:"mes"`
}

// Normalize re-derives the region key from whatever the selection carries
// and clears a dangling label. Selections arriving from clients go through
// here before use.
func (s Selection) Normalize() Selection {
	if s.Region == "" {
		s.RegionLabel = ""
		return s
	}
	s.Region = normalize.RegionKey(s.Region)
	if s.Region == "" {
		s.RegionLabel = ""
	}
	return s
}

// ToggleRegion selects the region called name, or clears the region filter
// when that region is already selected or name is empty.
func (s Selection) ToggleRegion(name string) Selection {
	key := normalize.RegionKey(name)
	if key == "" || key == s.Region {
		s.Region, s.RegionLabel = "", ""
		return s
	}
	s.Region, s.RegionLabel = key, name
	return s
}

func (s Selection) ToggleCategory(value string) Selection {
	s.Category = toggle(s.Category, value)
	return s
}

func (s Selection) ToggleProduct(value string) Selection {
	s.Product = toggle(s.Product, value)
	return s
}

func (s Selection) ToggleMonth(value string) Selection {
	s.Month = toggle(s.Month, value)
	return s
}

// Toggle dispatches to the toggle for dim. Unknown dimensions leave the
// selection unchanged.
func (s Selection) Toggle(dim Dimension, value string) Selection {
	switch dim {
	case Region:
		return s.ToggleRegion(value)
	case Category:
		return s.ToggleCategory(value)
	case Product:
		return s.ToggleProduct(value)
	case Month:
		return s.ToggleMonth(value)
	default:
		return s
	}
}

func toggle(current, value string) string {
	if value == current {
		return ""
	}
	return value
}

// Reset returns the empty selection.
func (s Selection) Reset() Selection {
	return Selection{}
}

func (s Selection) IsEmpty() bool {
	return s.Region == "" && s.Category == "" && s.Product == "" && s.Month == ""
}

// Describe renders the selection for status display, e.g.
// "Región: Copán · Categoría: Ropa".
func (s Selection) Describe() string {
	var parts []string
	if s.Region != "" {
		label := s.RegionLabel
		if label == "" {
			label = s.Region
		}
		parts = append(parts, "Región: "+label)
	}
	if s.Category != "" {
		parts = append(parts, "Categoría: "+s.Category)
	}
	if s.Product != "" {
		parts = append(parts, "Producto: "+s.Product)
	}
	if s.Month != "" {
		parts = append(parts, "Mes: "+s.Month)
	}
	if len(parts) == 0 {
		return "Sin filtros"
	}
	return strings.Join(parts, " · ")
}

// Matches reports whether r satisfies every active predicate.
func (s Selection) Matches(r models.SalesRecord) bool {
	return s.matchesExceptCategory(r) && (s.Category == "" || r.Category == s.Category)
}

func (s Selection) matchesExceptCategory(r models.SalesRecord) bool {
	if s.Region != "" && normalize.RegionKey(r.Region) != s.Region {
		return false
	}
	if s.Product != "" && r.Product != s.Product {
		return false
	}
	if s.Month != "" && r.Month != s.Month {
		return false
	}
	return true
}

// Apply returns the rows matching every active predicate.
func Apply(sel Selection, rows []models.SalesRecord) []models.SalesRecord {
	return keep(rows, sel.Matches)
}

// ApplyExceptCategory is Apply without the category predicate. It feeds the
// top products view while no category is selected.
func ApplyExceptCategory(sel Selection, rows []models.SalesRecord) []models.SalesRecord {
	return keep(rows, sel.matchesExceptCategory)
}

func keep(rows []models.SalesRecord, pred func(models.SalesRecord) bool) []models.SalesRecord {
	out := make([]models.SalesRecord, 0, len(rows))
	for _, r := range rows {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}
