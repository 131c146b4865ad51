package contracts

import (
	"fmt"
	"math"
)

// TransformKind names a reversible target transform.
type TransformKind string

const (
	// TransformLog1p is log(1+y), appropriate for right-skewed
	// non-negative count data. Inverse is expm1.
	TransformLog1p TransformKind = "log1p"

	// TransformIdentity leaves the target untouched.
	TransformIdentity TransformKind = "identity"
)

// TargetTransform is the serializable description of the target
// mapping applied before fitting and reversed after prediction.
type TargetTransform struct {
	Kind TransformKind `json:"kind"`
}

// Apply maps a raw target into transformed space.
func (t TargetTransform) Apply(y float64) float64 {
	switch t.Kind {
	case TransformLog1p:
		return math.Log1p(y)
	default:
		return y
	}
}

// Invert maps a transformed prediction back to the original scale.
func (t TargetTransform) Invert(y float64) float64 {
	switch t.Kind {
	case TransformLog1p:
		return math.Expm1(y)
	default:
		return y
	}
}

// Validate rejects transform kinds the runtime does not know how to
// invert. An artifact carrying one cannot be served.
func (t TargetTransform) Validate() error {
	switch t.Kind {
	case TransformLog1p, TransformIdentity:
		return nil
	default:
		return fmt.Errorf("unsupported target transform %q", t.Kind)
	}
}
