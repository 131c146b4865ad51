package features

import (
	"sort"

	"github.com/ennovar/demandcast/internal/contracts"
)

// encodedColumns are the categorical columns the engineer encodes, in
// schema order.
var encodedColumns = []string{"category", "sub_category", "product_type", "sku_id"}

// FitEncoders builds a fresh EncoderSet from training observations.
// Codes are assigned over the sorted distinct values per column, so
// fitting is deterministic for a given input set.
func FitEncoders(obs []contracts.Observation) *contracts.EncoderSet {
	distinct := map[string]map[string]struct{}{}
	for _, col := range encodedColumns {
		distinct[col] = make(map[string]struct{})
	}

	for _, o := range obs {
		distinct["category"][o.Category] = struct{}{}
		distinct["sub_category"][o.SubCategory] = struct{}{}
		distinct["product_type"][o.ProductType] = struct{}{}
		distinct["sku_id"][o.SKUID] = struct{}{}
	}

	enc := &contracts.EncoderSet{Columns: make(map[string]map[string]int, len(encodedColumns))}
	for col, values := range distinct {
		sorted := make([]string, 0, len(values))
		for v := range values {
			sorted = append(sorted, v)
		}
		sort.Strings(sorted)

		codes := make(map[string]int, len(sorted))
		for i, v := range sorted {
			codes[v] = i
		}
		enc.Columns[col] = codes
	}

	return enc
}

// encodeObservation maps one observation's categorical values to
// codes in encodedColumns order. Unseen values fall back to the
// unknown code and are tallied in unknown for data-quality logging.
func encodeObservation(enc *contracts.EncoderSet, o contracts.Observation, unknown map[string]int) []float64 {
	raw := map[string]string{
		"category":     o.Category,
		"sub_category": o.SubCategory,
		"product_type": o.ProductType,
		"sku_id":       o.SKUID,
	}

	codes := make([]float64, 0, len(encodedColumns))
	for _, col := range encodedColumns {
		code, ok := enc.Code(col, raw[col])
		if !ok {
			unknown[col]++
		}
		codes = append(codes, float64(code))
	}
	return codes
}
