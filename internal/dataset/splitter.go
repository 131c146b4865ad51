package dataset

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ennovar/demandcast/internal/contracts"
)

// Cutoffs defines a chronological split by date, not by row count:
// the model has to generalize forward in time, so partitions follow
// the calendar.
//
//	train:      date <  ValStart
//	validation: ValStart  <= date < TestStart
//	test:       TestStart <= date
type Cutoffs struct {
	ValStart  time.Time
	TestStart time.Time
}

// CutoffsFromRange derives cutoffs by counting back from the newest
// observation date: the last testDays become the test set and the
// valDays before them the validation set.
func CutoffsFromRange(maxDate time.Time, valDays, testDays int) Cutoffs {
	testStart := maxDate.AddDate(0, 0, -(testDays - 1))
	valStart := testStart.AddDate(0, 0, -valDays)
	return Cutoffs{ValStart: valStart, TestStart: testStart}
}

// Splitter partitions feature rows into train/validation/test sets
// without leakage.
type Splitter struct {
	log zerolog.Logger
}

// NewSplitter creates a splitter.
func NewSplitter(log zerolog.Logger) *Splitter {
	return &Splitter{log: log.With().Str("component", "dataset.splitter").Logger()}
}

// Split partitions rows by the given cutoffs. Rows are assumed to
// have passed the feature engineer's minimum-history filter already.
// Any invariant violation in the produced dataset raises; nothing is
// silently truncated.
func (s *Splitter) Split(rows []contracts.FeatureVector, cutoffs Cutoffs) (*contracts.TrainingDataset, error) {
	if !cutoffs.ValStart.Before(cutoffs.TestStart) {
		return nil, fmt.Errorf("invalid cutoffs: validation start %s must precede test start %s",
			cutoffs.ValStart.Format("2006-01-02"), cutoffs.TestStart.Format("2006-01-02"))
	}

	ds := &contracts.TrainingDataset{}
	for _, row := range rows {
		switch {
		case row.Date.Before(cutoffs.ValStart):
			ds.Train = append(ds.Train, row)
		case row.Date.Before(cutoffs.TestStart):
			ds.Validation = append(ds.Validation, row)
		default:
			ds.Test = append(ds.Test, row)
		}
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}

	min, max := ds.DateRange()
	s.log.Info().
		Str("data_from", min.Format("2006-01-02")).
		Str("data_to", max.Format("2006-01-02")).
		Str("val_start", cutoffs.ValStart.Format("2006-01-02")).
		Str("test_start", cutoffs.TestStart.Format("2006-01-02")).
		Int("train", len(ds.Train)).
		Int("validation", len(ds.Validation)).
		Int("test", len(ds.Test)).
		Msg("chronological split created")

	return ds, nil
}
