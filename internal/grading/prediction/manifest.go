package prediction

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// ManifestFile is the artifact index inside a model directory.
	ManifestFile = "manifest.json"
	// SchemaVersion is the artifact layout this package understands.
	SchemaVersion = 1
)

// Manifest describes a trained model and the encoding contract it was trained with.
type Manifest struct {
	SchemaVersion int      `json:"schema_version"`
	ModelVersion  string   `json:"model_version"`
	FeatureOrder  []string `json:"feature_order"`
	TopicClasses  []string `json:"topic_classes"`
	GradeClasses  []string `json:"grade_classes"`
	ModelFile     string   `json:"model_file"`
}

// LoadManifest reads and validates dir/manifest.json.
func LoadManifest(dir string) (Manifest, error) {
	raw, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// Validate checks the manifest against the supported schema.
func (m Manifest) Validate() error {
	if m.SchemaVersion != SchemaVersion {
		return fmt.Errorf("manifest schema_version %d not supported (want %d)", m.SchemaVersion, SchemaVersion)
	}
	if len(m.FeatureOrder) == 0 {
		return errors.New("manifest feature_order is empty")
	}
	seen := make(map[string]struct{}, len(m.FeatureOrder))
	for _, name := range m.FeatureOrder {
		if _, dup := seen[name]; dup {
			return fmt.Errorf("manifest feature_order repeats %q", name)
		}
		seen[name] = struct{}{}
	}
	if len(m.GradeClasses) == 0 {
		return errors.New("manifest grade_classes is empty")
	}
	if m.ModelFile == "" {
		return errors.New("manifest model_file is empty")
	}
	return nil
}
