package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"goeta/internal/features"
)

// Model is a trained linear regression artifact. Weights are keyed by feature
// name so the artifact stays readable and order-independent on disk.
type Model struct {
	Weights      map[string]float64 `json:"weights"`
	Intercept    float64            `json:"intercept"`
	Version      string             `json:"version"`
	TrainedAt    time.Time          `json:"trained_at"`
	FeatureNames []string           `json:"feature_names"`
	SampleCount  int                `json:"sample_count"`
}

// LoadModel reads a model artifact from disk.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var model Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}
	if len(model.Weights) == 0 {
		return nil, fmt.Errorf("model artifact %s has no weights", path)
	}

	return &model, nil
}

// Save writes the artifact atomically: temp file in the same directory, then
// rename, so a concurrent reload never sees a half-written file.
func (m *Model) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model artifact: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".model-*.json")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp artifact: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace model artifact: %w", err)
	}
	return nil
}

// Score evaluates the regression for one feature vector. Features the model
// has no weight for are ignored; features missing from the vector read as
// zero.
func (m *Model) Score(v *features.Vector) float64 {
	sum := m.Intercept
	for name, weight := range m.Weights {
		sum += weight * v.Get(features.Name(name))
	}
	return sum
}
