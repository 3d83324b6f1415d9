// Package geo reads the region boundary file and shades it into a
// choropleth from per-region totals.
package geo

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/normalize"
)

// NamePropertyAliases lists the feature properties that may carry the region
// name, in priority order.
var NamePropertyAliases = []string{"NAME_1", "NOMBRE", "name", "Name", "admin", "DEPARTAMEN"}

// UnnamedRegion is used for features without any usable name property.
const UnnamedRegion = "SinNombre"

type Region struct {
	Name  string    `json:"name"`
	Key   string    `json:"key"`
	Bound orb.Bound `json:"-"`
}

// Boundaries is a parsed boundary file. Read-only after Parse.
type Boundaries struct {
	Regions []Region
	Bound   orb.Bound
	raw     []byte
}

func Load(ctx context.Context, path string) (*Boundaries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read boundaries: %w", err)
	}

	b, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse boundaries %s: %w", path, err)
	}
	return b, nil
}

func Parse(data []byte) (*Boundaries, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("boundary file is empty (0 bytes)")
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	b := &Boundaries{
		Regions: make([]Region, 0, len(fc.Features)),
		raw:     data,
	}

	first := true
	for _, f := range fc.Features {
		name := RegionName(f.Properties)
		region := Region{Name: name, Key: normalize.RegionKey(name)}
		if f.Geometry != nil {
			region.Bound = f.Geometry.Bound()
			if first {
				b.Bound = region.Bound
				first = false
			} else {
				b.Bound = b.Bound.Union(region.Bound)
			}
		}
		b.Regions = append(b.Regions, region)
	}
	return b, nil
}

// RegionName returns the first non-empty string among NamePropertyAliases.
func RegionName(props geojson.Properties) string {
	for _, key := range NamePropertyAliases {
		if s, ok := props[key].(string); ok && s != "" {
			return s
		}
	}
	return UnnamedRegion
}

// Shade is the styling of one region for a given view.
type Shade struct {
	Name        string  `json:"name"`
	Key         string  `json:"key"`
	Value       float64 `json:"value"`
	FillColor   string  `json:"fill_color"`
	FillOpacity float64 `json:"fill_opacity"`
	StrokeColor string  `json:"stroke_color"`
	Weight      int     `json:"weight"`
	Selected    bool    `json:"selected"`
	Popup       string  `json:"popup"`
}

const (
	strokeColor         = "#16a34a"
	selectedStrokeColor = "#0ea5e9"
	baseOpacity         = 0.30
	selectedOpacity     = 0.65
)

// Choropleth shades every boundary region by its total in byRegion, matched
// on the normalized region key. selectedKey marks the selected region.
func Choropleth(b *Boundaries, byRegion []models.RegionTotal, selectedKey string) []Shade {
	if b == nil {
		return []Shade{}
	}

	values := make(map[string]float64, len(byRegion))
	maxValue := 1.0
	for _, r := range byRegion {
		values[r.RegionKey] = r.TotalUnits
		maxValue = max(maxValue, r.TotalUnits)
	}

	shades := make([]Shade, 0, len(b.Regions))
	for _, region := range b.Regions {
		v := values[region.Key]
		selected := selectedKey != "" && region.Key == selectedKey

		s := Shade{
			Name:        region.Name,
			Key:         region.Key,
			Value:       v,
			FillColor:   colorFor(v, maxValue),
			FillOpacity: baseOpacity,
			StrokeColor: strokeColor,
			Weight:      1,
			Selected:    selected,
			Popup:       fmt.Sprintf("%s · Ventas filtradas: %s", region.Name, formatUnits(v)),
		}
		if selected {
			s.FillOpacity = selectedOpacity
			s.StrokeColor = selectedStrokeColor
			s.Weight = 3
		}
		shades = append(shades, s)
	}
	return shades
}

// AnnotatedGeoJSON returns the boundary file with each feature's shade
// written into its properties.
func AnnotatedGeoJSON(b *Boundaries, shades []Shade) ([]byte, error) {
	if b == nil {
		return geojson.NewFeatureCollection().MarshalJSON()
	}

	fc, err := geojson.UnmarshalFeatureCollection(b.raw)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	for i, f := range fc.Features {
		if i >= len(shades) {
			break
		}
		if f.Properties == nil {
			f.Properties = geojson.Properties{}
		}
		s := shades[i]
		f.Properties["region_key"] = s.Key
		f.Properties["region_name"] = s.Name
		f.Properties["ventas"] = s.Value
		f.Properties["fill"] = s.FillColor
		f.Properties["fill-opacity"] = s.FillOpacity
		f.Properties["stroke"] = s.StrokeColor
		f.Properties["stroke-width"] = s.Weight
		f.Properties["selected"] = s.Selected
	}
	return fc.MarshalJSON()
}

func colorFor(value, maxValue float64) string {
	t := 0.0
	if maxValue != 0 {
		t = value / maxValue
	}
	alpha := 0.20 + 0.50*t
	return fmt.Sprintf("rgba(34,197,94,%.3f)", alpha)
}

func formatUnits(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
