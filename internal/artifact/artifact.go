package artifact

import (
	"github.com/ennovar/demandcast/internal/contracts"
	"github.com/ennovar/demandcast/internal/training"
)

// FormatVersion is bumped whenever the on-disk bundle layout changes
// in a way old readers cannot handle.
const FormatVersion = 1

// Artifact is everything inference needs: the model, the exact
// feature schema it was trained on, the fitted categorical encoders,
// the target transform, and the training metadata. The five parts
// are saved and loaded as one unit.
type Artifact struct {
	Model     *training.Ensemble
	Schema    contracts.FeatureSchema
	Encoders  contracts.EncoderSet
	Transform contracts.TargetTransform
	Metadata  contracts.TrainingMetadata
}

// Status summarizes the artifact for the serving layer.
func (a *Artifact) Status() contracts.ModelStatus {
	return contracts.ModelStatus{
		Available: true,
		ModelType: a.Metadata.ModelType,
		TrainedAt: a.Metadata.TrainedAt,
	}
}
