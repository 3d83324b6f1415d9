package models

type MonthTotal struct {
	Month        string  `json:"month"`
	TotalRevenue float64 `json:"total_revenue"`
}

type CategoryTotal struct {
	Category   string  `json:"category"`
	TotalUnits float64 `json:"total_units"`
}

type ProductTotal struct {
	Product    string  `json:"product"`
	TotalUnits float64 `json:"total_units"`
	Category   string  `json:"category"`
}

type RegionTotal struct {
	RegionKey  string  `json:"region_key"`
	Label      string  `json:"label"`
	TotalUnits float64 `json:"total_units"`
}

// AggregateView is everything the dashboard charts and map need for one
// filter selection. ByMonth always spans every month of the unfiltered
// dataset.
type AggregateView struct {
	ByMonth     []MonthTotal    `json:"by_month"`
	ByCategory  []CategoryTotal `json:"by_category"`
	TopProducts []ProductTotal  `json:"top_products"`
	ByRegion    []RegionTotal   `json:"by_region"`
}

// IsEmpty reports whether no filtered row contributed to the view.
func (v AggregateView) IsEmpty() bool {
	return len(v.ByCategory) == 0 && len(v.TopProducts) == 0 && len(v.ByRegion) == 0
}
