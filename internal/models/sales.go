package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a lenient numeric field. It accepts JSON numbers, numeric
// strings and null; anything else (or a non-finite value) decodes as 0.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*n = 0

	var f float64
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		if err := json.Unmarshal(data, &f); err != nil {
			return nil
		}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	*n = Number(f)
	return nil
}

func (n Number) Float() float64 {
	return float64(n)
}

// NumberPtr is a convenience for building optional fields.
func NumberPtr(f float64) *Number {
	n := Number(f)
	return &n
}

// SalesRecord is one detail row of the sales dataset. UnitPrice and Revenue
// are nil when the field is absent or null in the source.
type SalesRecord struct {
	Region    string  `json:"region"`
	Category  string  `json:"categoria"`
	Product   string  `json:"producto"`
	Month     string  `json:"mes"`
	Units     Number  `json:"ventas"`
	UnitPrice *Number `json:"precio_unitario_hnl,omitempty"`
	Revenue   *Number `json:"ingresos_hnl,omitempty"`
}

// UnmarshalJSON decodes a record leniently: text fields accept strings,
// numbers and booleans; null, objects and arrays read as empty. It fails
// only when data is not a JSON object.
func (r *SalesRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		Region    json.RawMessage `json:"region"`
		Category  json.RawMessage `json:"categoria"`
		Product   json.RawMessage `json:"producto"`
		Month     json.RawMessage `json:"mes"`
		Units     Number          `json:"ventas"`
		UnitPrice *Number         `json:"precio_unitario_hnl"`
		Revenue   *Number         `json:"ingresos_hnl"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = SalesRecord{
		Region:    text(raw.Region),
		Category:  text(raw.Category),
		Product:   text(raw.Product),
		Month:     text(raw.Month),
		Units:     raw.Units,
		UnitPrice: raw.UnitPrice,
		Revenue:   raw.Revenue,
	}
	return nil
}

func text(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '{', '[', 'n':
		return ""
	default:
		return string(raw)
	}
}

// RevenueValue returns the revenue field, 0 when absent.
func (r SalesRecord) RevenueValue() float64 {
	if r.Revenue == nil {
		return 0
	}
	return r.Revenue.Float()
}

// UnitPriceValue returns the unit price field, 0 when absent.
func (r SalesRecord) UnitPriceValue() float64 {
	if r.UnitPrice == nil {
		return 0
	}
	return r.UnitPrice.Float()
}

type Summary struct {
	Period   string `json:"periodo"`
	Currency string `json:"moneda"`
}

// Warning is a recoverable problem found while reading input data. It is
// reported and logged but never aborts a computation.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
