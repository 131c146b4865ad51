package contracts

import "time"

// FeatureSchema is the ordered list of feature column names. It is
// computed once at training time, stored in the artifact, and is the
// authoritative shape for every matrix handed to the model afterwards.
type FeatureSchema struct {
	Columns []string `json:"columns"`
}

// Index returns the position of a column, or -1 when absent.
func (s FeatureSchema) Index(name string) int {
	for i, c := range s.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Equal reports whether two schemas have identical columns in
// identical order.
func (s FeatureSchema) Equal(other FeatureSchema) bool {
	if len(s.Columns) != len(other.Columns) {
		return false
	}
	for i, c := range s.Columns {
		if other.Columns[i] != c {
			return false
		}
	}
	return true
}

// Diff returns the columns missing from other and the columns other
// has that s does not. Both empty means same column set (order is
// checked separately by Equal).
func (s FeatureSchema) Diff(other FeatureSchema) (missing, extra []string) {
	mine := make(map[string]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		mine[c] = struct{}{}
	}
	theirs := make(map[string]struct{}, len(other.Columns))
	for _, c := range other.Columns {
		theirs[c] = struct{}{}
	}
	for _, c := range s.Columns {
		if _, ok := theirs[c]; !ok {
			missing = append(missing, c)
		}
	}
	for _, c := range other.Columns {
		if _, ok := mine[c]; !ok {
			extra = append(extra, c)
		}
	}
	return missing, extra
}

// FeatureVector is one engineered row per (sku, date). Values are
// aligned to a FeatureSchema; Target is the raw (untransformed)
// quantity for that date.
type FeatureVector struct {
	SKUID       string    `json:"sku_id"`
	Date        time.Time `json:"date"`
	Category    string    `json:"category"`
	ProductType string    `json:"product_type"`
	Target      float64   `json:"target"`
	Values      []float64 `json:"values"`
}

// EncoderSet maps categorical values to integer codes, one map per
// encoded column. Unknown values at inference map to UnknownCode
// instead of failing, so new SKUs can still be scored.
type EncoderSet struct {
	Columns map[string]map[string]int `json:"columns"`
}

// UnknownCode is the sentinel for values unseen during training.
const UnknownCode = -1

// Code returns the code for value in column col, or UnknownCode (and
// false) when either the column or the value is unknown.
func (e *EncoderSet) Code(col, value string) (int, bool) {
	m, ok := e.Columns[col]
	if !ok {
		return UnknownCode, false
	}
	code, ok := m[value]
	if !ok {
		return UnknownCode, false
	}
	return code, true
}

// Cardinality returns the number of distinct values fitted for col.
func (e *EncoderSet) Cardinality(col string) int {
	return len(e.Columns[col])
}
