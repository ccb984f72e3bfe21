package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ArtifactStore persists model and scaler artifacts as JSON files under
// a single directory, keyed by version.
type ArtifactStore struct {
	dir string
}

// NewArtifactStore creates the artifact directory if needed.
func NewArtifactStore(dir string) (*ArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model directory: %w", err)
	}
	return &ArtifactStore{dir: dir}, nil
}

// ModelPath returns the on-disk location of a version's model artifact.
func (s *ArtifactStore) ModelPath(version string) string {
	return filepath.Join(s.dir, version+".model.json")
}

func (s *ArtifactStore) scalerPath(version string) string {
	return filepath.Join(s.dir, version+".scaler.json")
}

// Save writes the model and its scaler sidecar atomically enough for a
// single-writer workflow: model first, then scaler.
func (s *ArtifactStore) Save(version string, m *LinearModel, sc *StandardScaler) error {
	if err := writeJSON(s.ModelPath(version), m); err != nil {
		return fmt.Errorf("save model %s: %w", version, err)
	}
	if err := writeJSON(s.scalerPath(version), sc); err != nil {
		return fmt.Errorf("save scaler %s: %w", version, err)
	}
	return nil
}

// Load reads a version's model and scaler. A missing scaler sidecar is a
// configuration error, never a silent identity transform.
func (s *ArtifactStore) Load(version string) (*LinearModel, *StandardScaler, error) {
	var m LinearModel
	if err := readJSON(s.ModelPath(version), &m); err != nil {
		return nil, nil, fmt.Errorf("%w: load model %s: %v", ErrConfiguration, version, err)
	}

	var sc StandardScaler
	if err := readJSON(s.scalerPath(version), &sc); err != nil {
		return nil, nil, fmt.Errorf("%w: load scaler for %s: %v", ErrConfiguration, version, err)
	}
	if len(sc.Mean) != len(m.Weights) || len(sc.Std) != len(m.Weights) {
		return nil, nil, fmt.Errorf("%w: scaler for %s covers %d features, model expects %d", ErrConfiguration, version, len(sc.Mean), len(m.Weights))
	}

	return &m, &sc, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
