package handlers

import (
	"net/url"

	"sales-dashboard/internal/filter"
)

const cacheControl = "public, max-age=300"

// selectionFromQuery reads filters from the region, categoria, producto and
// mes query parameters. region is a display name; its key is derived.
func selectionFromQuery(q url.Values) filter.Selection {
	sel := filter.Selection{
		Category: q.Get(string(filter.Category)),
		Product:  q.Get(string(filter.Product)),
		Month:    q.Get(string(filter.Month)),
	}
	if region := q.Get(string(filter.Region)); region != "" {
		sel = sel.ToggleRegion(region)
	}
	return sel
}
