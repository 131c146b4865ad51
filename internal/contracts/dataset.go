package contracts

import (
	"fmt"
	"time"
)

// SplitName identifies one partition of a TrainingDataset.
type SplitName string

const (
	SplitTrain      SplitName = "train"
	SplitValidation SplitName = "validation"
	SplitTest       SplitName = "test"
)

// TrainingDataset holds the three disjoint, chronologically ordered
// feature partitions. Invariant:
//
//	max(train.Date) < min(validation.Date) <= max(validation.Date) < min(test.Date)
//
// and no (sku, date) pair appears in more than one split.
type TrainingDataset struct {
	Train      []FeatureVector
	Validation []FeatureVector
	Test       []FeatureVector
}

// Counts returns row counts per split.
func (d *TrainingDataset) Counts() map[SplitName]int {
	return map[SplitName]int{
		SplitTrain:      len(d.Train),
		SplitValidation: len(d.Validation),
		SplitTest:       len(d.Test),
	}
}

// DateRange returns the min and max dates across all splits.
func (d *TrainingDataset) DateRange() (min, max time.Time) {
	for _, split := range [][]FeatureVector{d.Train, d.Validation, d.Test} {
		for _, row := range split {
			if min.IsZero() || row.Date.Before(min) {
				min = row.Date
			}
			if row.Date.After(max) {
				max = row.Date
			}
		}
	}
	return min, max
}

// Validate checks the chronological-ordering invariant and the
// (sku, date) disjointness of the splits. A violation is a programming
// error in the splitter, so this returns a plain error with context
// rather than silently truncating.
func (d *TrainingDataset) Validate() error {
	for name, split := range map[SplitName][]FeatureVector{
		SplitTrain:      d.Train,
		SplitValidation: d.Validation,
		SplitTest:       d.Test,
	} {
		if len(split) == 0 {
			return &TrainingDataEmptyError{Split: name}
		}
	}

	trainMax := maxDate(d.Train)
	valMin, valMax := minDate(d.Validation), maxDate(d.Validation)
	testMin := minDate(d.Test)

	if !trainMax.Before(valMin) {
		return fmt.Errorf("split ordering violated: train max %s >= validation min %s",
			trainMax.Format("2006-01-02"), valMin.Format("2006-01-02"))
	}
	if !valMax.Before(testMin) {
		return fmt.Errorf("split ordering violated: validation max %s >= test min %s",
			valMax.Format("2006-01-02"), testMin.Format("2006-01-02"))
	}

	seen := make(map[string]SplitName)
	for name, split := range map[SplitName][]FeatureVector{
		SplitTrain:      d.Train,
		SplitValidation: d.Validation,
		SplitTest:       d.Test,
	} {
		for _, row := range split {
			key := row.SKUID + "|" + row.Date.Format("2006-01-02")
			if prev, dup := seen[key]; dup && prev != name {
				return fmt.Errorf("split overlap: (%s, %s) appears in both %s and %s",
					row.SKUID, row.Date.Format("2006-01-02"), prev, name)
			}
			seen[key] = name
		}
	}

	return nil
}

func minDate(rows []FeatureVector) time.Time {
	var min time.Time
	for _, r := range rows {
		if min.IsZero() || r.Date.Before(min) {
			min = r.Date
		}
	}
	return min
}

func maxDate(rows []FeatureVector) time.Time {
	var max time.Time
	for _, r := range rows {
		if r.Date.After(max) {
			max = r.Date
		}
	}
	return max
}
