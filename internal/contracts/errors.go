package contracts

import (
	"fmt"
	"strings"
)

// InsufficientHistoryError marks a SKU whose series is shorter than
// the largest lag/window the feature set needs. Its rows are dropped,
// never zero-filled.
type InsufficientHistoryError struct {
	SKUID    string
	Rows     int
	Required int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("sku %s has %d observations, need at least %d", e.SKUID, e.Rows, e.Required)
}

// SchemaMismatchError is raised when inference-time feature columns
// diverge from the artifact's authoritative schema.
type SchemaMismatchError struct {
	Missing []string
	Extra   []string
}

func (e *SchemaMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing columns: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, fmt.Sprintf("unexpected columns: %s", strings.Join(e.Extra, ", ")))
	}
	if len(parts) == 0 {
		parts = append(parts, "column order differs")
	}
	return "feature schema mismatch: " + strings.Join(parts, "; ")
}

// IncompatibleArtifactError is raised when an artifact cannot be
// loaded as a whole: wrong format version, or a missing/corrupt
// component file. Load never returns a partial artifact.
type IncompatibleArtifactError struct {
	Path      string
	Version   int
	Supported int
	Reason    string
}

func (e *IncompatibleArtifactError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("incompatible artifact at %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("incompatible artifact at %s: format version %d, supported %d",
		e.Path, e.Version, e.Supported)
}

// TrainingDataEmptyError aborts training when a split has no rows
// after filtering.
type TrainingDataEmptyError struct {
	Split SplitName
}

func (e *TrainingDataEmptyError) Error() string {
	return fmt.Sprintf("%s split is empty after filtering", e.Split)
}

// InvalidHorizonError is raised for horizons outside the supported
// set.
type InvalidHorizonError struct {
	Horizon   int
	Supported []int
}

func (e *InvalidHorizonError) Error() string {
	return fmt.Sprintf("horizon %d not supported (supported: %v)", e.Horizon, e.Supported)
}

// MissingModelError is raised when inference is requested and no
// artifact exists at the configured location.
type MissingModelError struct {
	Dir string
}

func (e *MissingModelError) Error() string {
	return fmt.Sprintf("no trained model found at %s", e.Dir)
}
