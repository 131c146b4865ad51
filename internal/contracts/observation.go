package contracts

import (
	"sort"
	"time"
)

// Observation is one raw sales record per (sku, date). Rows are owned
// by the ingestion layer and consumed read-only by the feature
// engineer.
type Observation struct {
	SKUID       string    `json:"sku_id"`
	Date        time.Time `json:"date"`
	Quantity    float64   `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	PromoFlag   bool      `json:"promo_flag"`
	Category    string    `json:"category"`
	SubCategory string    `json:"sub_category"`
	ProductType string    `json:"product_type"`
}

// SortObservations orders rows by (sku_id, date) ascending. Feature
// construction depends on this ordering.
func SortObservations(obs []Observation) {
	sort.Slice(obs, func(i, j int) bool {
		if obs[i].SKUID != obs[j].SKUID {
			return obs[i].SKUID < obs[j].SKUID
		}
		return obs[i].Date.Before(obs[j].Date)
	})
}

// GroupBySKU partitions observations into per-SKU series, each sorted
// by date. Map iteration order is not defined; callers that need
// determinism should iterate SKUIDs().
func GroupBySKU(obs []Observation) map[string][]Observation {
	groups := make(map[string][]Observation)
	for _, o := range obs {
		groups[o.SKUID] = append(groups[o.SKUID], o)
	}
	for _, series := range groups {
		sort.Slice(series, func(i, j int) bool {
			return series[i].Date.Before(series[j].Date)
		})
	}
	return groups
}

// SKUIDs returns the sorted set of SKU identifiers present in obs.
func SKUIDs(obs []Observation) []string {
	seen := make(map[string]struct{})
	for _, o := range obs {
		seen[o.SKUID] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
