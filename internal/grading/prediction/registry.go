package prediction

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// State is the load state of the model registry.
type State string

const (
	StateReady    State = "ready"
	StateNotReady State = "not_ready"
)

// Status summarises the registry for health checks.
type Status struct {
	State         State     `json:"state"`
	ModelVersion  string    `json:"model_version,omitempty"`
	SchemaVersion int       `json:"schema_version,omitempty"`
	Features      int       `json:"features,omitempty"`
	LoadedAt      time.Time `json:"loaded_at,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// Registry owns the model artifacts for the life of the process. Artifacts are
// loaded exactly once; a failed load leaves the registry not ready until a new
// registry is constructed.
type Registry struct {
	dir       string
	predictor *Predictor
	loadErr   error
	loadedAt  time.Time
}

// NewRegistry loads the artifacts in dir.
func NewRegistry(dir string, logger zerolog.Logger) *Registry {
	log := logger.With().Str("component", "model_registry").Str("dir", dir).Logger()

	r := &Registry{dir: dir}
	predictor, err := Load(dir)
	if err != nil {
		r.loadErr = err
		log.Warn().Err(err).Msg("grade model not loaded; predictions unavailable")
		return r
	}

	r.predictor = predictor
	r.loadedAt = time.Now().UTC()
	m := predictor.Manifest()
	log.Info().
		Str("model_version", m.ModelVersion).
		Int("features", len(m.FeatureOrder)).
		Strs("grades", m.GradeClasses).
		Msg("grade model loaded")
	return r
}

// NewRegistryWith wraps an already constructed predictor.
func NewRegistryWith(predictor *Predictor) *Registry {
	if predictor == nil {
		return &Registry{loadErr: fmt.Errorf("no predictor configured")}
	}
	return &Registry{predictor: predictor, loadedAt: time.Now().UTC()}
}

// Load reads manifest and model from dir and builds a predictor.
func Load(dir string) (*Predictor, error) {
	m, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}

	ensemble, err := LoadTreeEnsemble(filepath.Join(dir, m.ModelFile))
	if err != nil {
		return nil, err
	}
	if n := ensemble.NumFeatures(); n > 0 && n != len(m.FeatureOrder) {
		return nil, fmt.Errorf("model expects %d features, manifest lists %d", n, len(m.FeatureOrder))
	}

	return NewPredictor(m, ensemble)
}

// Ready reports whether predictions can be made.
func (r *Registry) Ready() bool {
	return r != nil && r.predictor != nil
}

// Predictor returns the loaded predictor or an error wrapping ErrModelUnavailable.
func (r *Registry) Predictor() (*Predictor, error) {
	if r == nil {
		return nil, ErrModelUnavailable
	}
	if r.predictor == nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, r.loadErr)
	}
	return r.predictor, nil
}

// Status describes the registry for health endpoints.
func (r *Registry) Status() Status {
	if !r.Ready() {
		status := Status{State: StateNotReady}
		if r != nil && r.loadErr != nil {
			status.Error = r.loadErr.Error()
		}
		return status
	}

	m := r.predictor.Manifest()
	return Status{
		State:         StateReady,
		ModelVersion:  m.ModelVersion,
		SchemaVersion: m.SchemaVersion,
		Features:      len(m.FeatureOrder),
		LoadedAt:      r.loadedAt,
	}
}
