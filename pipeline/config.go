package pipeline

import (
	"fmt"
	"os"
	"time"

	"hospcost/ml"

	"gopkg.in/yaml.v3"
)

// Config is the run configuration of the pipeline. Keys absent from a YAML
// file keep their defaults.
type Config struct {
	TestSize  float64 `yaml:"test_size"`
	SplitSeed uint64  `yaml:"split_seed"`
	SGDSeed   uint64  `yaml:"sgd_seed"`
	// EnsembleSeed drives both the forest and the boosting model.
	EnsembleSeed uint64 `yaml:"ensemble_seed"`
	Estimators   int    `yaml:"estimators"`
	Folds        int    `yaml:"folds"`

	Grid ml.ParamGrid `yaml:"grid"`

	BoostLearningRate float64 `yaml:"boost_learning_rate"`
	BoostMaxDepth     int     `yaml:"boost_max_depth"`

	Sentinel string `yaml:"sentinel"`
	// Now fixes the reference date for ages (RFC 3339 or 2006-01-02).
	// Empty means the wall clock.
	Now string `yaml:"now"`

	// PlotDir receives the exploration PNGs. Empty skips rendering.
	PlotDir string `yaml:"plot_dir"`

	Patient HypotheticalPatient `yaml:"patient"`
	// RawPatientVector feeds the hypothetical patient to the models
	// unscaled. It only skips scaling: the patient fields are still the ones
	// in Patient, so this is not the notebook's literal vector, which was
	// shifted one column against the feature columns (date 2, City tier
	// 29.41, State_ID_R1013 34).
	RawPatientVector bool `yaml:"raw_patient_vector"`
}

// DefaultConfig returns the reference run settings.
func DefaultConfig() Config {
	return Config{
		TestSize:          0.2,
		SplitSeed:         10,
		SGDSeed:           0,
		EnsembleSeed:      42,
		Estimators:        1000,
		Folds:             5,
		Grid:              ml.DefaultParamGrid(),
		BoostLearningRate: 0.1,
		BoostMaxDepth:     3,
		Sentinel:          "?",
		Patient:           DefaultPatient(),
	}
}

// LoadConfig overlays the YAML file at path onto DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings Run cannot execute.
func (c Config) Validate() error {
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return fmt.Errorf("test_size %v outside (0, 1)", c.TestSize)
	}
	if c.Estimators < 1 {
		return fmt.Errorf("estimators must be at least 1, got %d", c.Estimators)
	}
	if c.Folds < 2 {
		return fmt.Errorf("folds must be at least 2, got %d", c.Folds)
	}
	if len(c.Grid.Alpha) == 0 || len(c.Grid.Penalty) == 0 {
		return fmt.Errorf("grid: %w", ml.ErrEmptyGrid)
	}
	for _, a := range c.Grid.Alpha {
		if a < 0 {
			return fmt.Errorf("grid: negative alpha %v", a)
		}
	}
	for _, p := range c.Grid.Penalty {
		if !p.Valid() {
			return fmt.Errorf("grid: unknown penalty %q", p)
		}
	}
	if c.BoostLearningRate <= 0 {
		return fmt.Errorf("boost_learning_rate must be positive, got %v", c.BoostLearningRate)
	}
	if c.BoostMaxDepth < 1 {
		return fmt.Errorf("boost_max_depth must be at least 1, got %d", c.BoostMaxDepth)
	}
	if _, err := c.Clock(); err != nil {
		return err
	}
	return nil
}

// Clock returns the reference-time source for age derivation.
func (c Config) Clock() (func() time.Time, error) {
	if c.Now == "" {
		return time.Now, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, c.Now); err == nil {
			return func() time.Time { return t }, nil
		}
	}
	return nil, fmt.Errorf("now %q: want RFC 3339 or YYYY-MM-DD", c.Now)
}
