package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ennovar/demandcast/internal/contracts"
	"github.com/ennovar/demandcast/internal/training"
)

const (
	manifestFile  = "manifest.json"
	modelFile     = "model.json"
	schemaFile    = "schema.json"
	encodersFile  = "encoders.json"
	transformFile = "transform.json"
	metadataFile  = "metadata.json"
)

// manifest is the small header read first on load. Version gates
// whether the rest of the bundle is attempted at all.
type manifest struct {
	FormatVersion int       `json:"format_version"`
	ModelType     string    `json:"model_type"`
	SavedAt       time.Time `json:"saved_at"`
}

// Store persists artifacts as a directory of JSON files. Save is
// atomic at the directory level: readers either see the previous
// complete bundle or the new one, never a mix.
type Store struct {
	dir string
	log zerolog.Logger
}

func NewStore(dir string, log zerolog.Logger) *Store {
	return &Store{
		dir: dir,
		log: log.With().Str("component", "artifact_store").Logger(),
	}
}

// Dir returns the bundle directory this store reads and writes.
func (s *Store) Dir() string {
	return s.dir
}

// Exists reports whether a bundle directory is present. It does not
// verify the bundle is loadable.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.dir)
	return err == nil && info.IsDir()
}

// Save writes the artifact into a staging directory next to the
// target, then swaps it into place with a rename.
func (s *Store) Save(a *Artifact) error {
	if a.Model == nil {
		return fmt.Errorf("artifact has no model")
	}

	parent := filepath.Dir(s.dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact parent dir: %w", err)
	}

	staging, err := os.MkdirTemp(parent, filepath.Base(s.dir)+".staging-*")
	if err != nil {
		return fmt.Errorf("failed to create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	files := map[string]any{
		manifestFile: manifest{
			FormatVersion: FormatVersion,
			ModelType:     a.Metadata.ModelType,
			SavedAt:       time.Now().UTC(),
		},
		modelFile:     a.Model,
		schemaFile:    a.Schema,
		encodersFile:  a.Encoders,
		transformFile: a.Transform,
		metadataFile:  a.Metadata,
	}
	for name, v := range files {
		if err := writeJSON(filepath.Join(staging, name), v); err != nil {
			return err
		}
	}

	// Swap the staging dir into place. The previous bundle, if any,
	// is removed first since rename cannot replace a non-empty dir.
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to remove previous artifact: %w", err)
	}
	if err := os.Rename(staging, s.dir); err != nil {
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}

	s.log.Info().
		Str("dir", s.dir).
		Int("trees", len(a.Model.Trees)).
		Int("features", len(a.Schema.Columns)).
		Msg("artifact saved")
	return nil
}

// Load reads a complete bundle. A missing directory yields
// MissingModelError; a missing component file or unsupported format
// version yields IncompatibleArtifactError.
func (s *Store) Load() (*Artifact, error) {
	if !s.Exists() {
		return nil, &contracts.MissingModelError{Dir: s.dir}
	}

	var m manifest
	if err := readJSON(filepath.Join(s.dir, manifestFile), &m); err != nil {
		return nil, &contracts.IncompatibleArtifactError{
			Path:   s.dir,
			Reason: fmt.Sprintf("unreadable manifest: %v", err),
		}
	}
	if m.FormatVersion != FormatVersion {
		return nil, &contracts.IncompatibleArtifactError{
			Path:      s.dir,
			Version:   m.FormatVersion,
			Supported: FormatVersion,
		}
	}

	a := &Artifact{Model: &training.Ensemble{}}
	parts := map[string]any{
		modelFile:     a.Model,
		schemaFile:    &a.Schema,
		encodersFile:  &a.Encoders,
		transformFile: &a.Transform,
		metadataFile:  &a.Metadata,
	}
	for name, dst := range parts {
		if err := readJSON(filepath.Join(s.dir, name), dst); err != nil {
			return nil, &contracts.IncompatibleArtifactError{
				Path:   s.dir,
				Reason: fmt.Sprintf("unreadable %s: %v", name, err),
			}
		}
	}

	if err := a.Transform.Validate(); err != nil {
		return nil, &contracts.IncompatibleArtifactError{
			Path:   s.dir,
			Reason: err.Error(),
		}
	}

	s.log.Debug().
		Str("dir", s.dir).
		Str("model_type", a.Metadata.ModelType).
		Time("trained_at", a.Metadata.TrainedAt).
		Msg("artifact loaded")
	return a, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
