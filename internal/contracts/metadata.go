package contracts

import "time"

// TrainingMetadata records what a training run saw and how well it
// did. It travels inside the artifact so serving can answer 'what is
// this model' without the training data.
type TrainingMetadata struct {
	ModelType     string    `json:"model_type"`
	TrainedAt     time.Time `json:"trained_at"`
	BestIteration int       `json:"best_iteration"`
	Rounds        int       `json:"rounds"`

	DataStart time.Time `json:"data_start"`
	DataEnd   time.Time `json:"data_end"`

	RowCounts map[SplitName]int     `json:"row_counts"`
	Metrics   map[SplitName]Metrics `json:"metrics"`

	FeatureImportance map[string]float64 `json:"feature_importance,omitempty"`
}
