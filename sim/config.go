package sim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Zone is an inclusive rectangle of the grid in which a category's spaces are drawn.
type Zone struct {
	XMin int `yaml:"x_min"`
	YMin int `yaml:"y_min"`
	XMax int `yaml:"x_max"`
	YMax int `yaml:"y_max"`
}

// ZoneSet holds one Zone per category.
type ZoneSet struct {
	General         Zone `yaml:"general"`
	Electric        Zone `yaml:"electric"`
	ReducedMobility Zone `yaml:"reduced_mobility"`
}

// For returns the zone of category c.
func (z ZoneSet) For(c Category) Zone {
	switch c {
	case Electric:
		return z.Electric
	case ReducedMobility:
		return z.ReducedMobility
	default:
		return z.General
	}
}

// SpaceCounts holds the requested number of spaces per category.
type SpaceCounts struct {
	General         int `yaml:"general"`
	Electric        int `yaml:"electric"`
	ReducedMobility int `yaml:"reduced_mobility"`
}

// For returns the requested count for category c.
func (s SpaceCounts) For(c Category) int {
	switch c {
	case Electric:
		return s.Electric
	case ReducedMobility:
		return s.ReducedMobility
	default:
		return s.General
	}
}

// Total returns the requested count across categories.
func (s SpaceCounts) Total() int {
	return s.General + s.Electric + s.ReducedMobility
}

// Config groups the facility geometry and stochastic parameters of one run.
// A Simulation is built from one Config and never reconfigured.
type Config struct {
	Width  int         `yaml:"width"`
	Height int         `yaml:"height"`
	Spaces SpaceCounts `yaml:"spaces"`
	Zones  ZoneSet     `yaml:"zones"`

	ArrivalRate         float64 `yaml:"arrival_rate"` // probability of one arrival per step, in [0,1]
	ProbGeneral         float64 `yaml:"prob_general"`
	ProbElectric        float64 `yaml:"prob_electric"`
	ProbReducedMobility float64 `yaml:"prob_reduced_mobility"`
	MaxArrivals         int64   `yaml:"max_arrivals"` // 0 = unlimited

	MeanDwell         float64 `yaml:"mean_dwell_time"`   // steps, must be > 0
	DwellDistribution string  `yaml:"dwell_distribution"` // "exponential" (default) or "constant"

	Admission      string `yaml:"admission"`       // "always-admit" (default) or "capacity"
	AllowShortfall bool   `yaml:"allow_shortfall"` // accept fewer spaces than requested
	Seed           int64  `yaml:"seed"`
}

// DefaultConfig returns the reference facility: a 20x20 lot with 30 general,
// 10 electric and 5 reduced-mobility spaces.
func DefaultConfig() Config {
	return Config{
		Width:  20,
		Height: 20,
		Spaces: SpaceCounts{General: 30, Electric: 10, ReducedMobility: 5},
		Zones: ZoneSet{
			General:         Zone{XMin: 1, YMin: 1, XMax: 8, YMax: 8},
			Electric:        Zone{XMin: 10, YMin: 1, XMax: 15, YMax: 4},
			ReducedMobility: Zone{XMin: 10, YMin: 6, XMax: 15, YMax: 8},
		},
		ArrivalRate:         0.3,
		ProbGeneral:         0.7,
		ProbElectric:        0.2,
		ProbReducedMobility: 0.1,
		MeanDwell:           20,
		DwellDistribution:   "exponential",
		Admission:           "always-admit",
		Seed:                42,
	}
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

// probabilityTolerance bounds how far the category probabilities may sum from 1.
const probabilityTolerance = 1e-6

// Validate checks value ranges and policy names.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return &ConfigError{Field: "width/height", Reason: fmt.Sprintf("must be positive, got %dx%d", c.Width, c.Height)}
	}
	for _, cat := range Categories() {
		if n := c.Spaces.For(cat); n < 0 {
			return &ConfigError{Field: "spaces." + cat.String(), Reason: fmt.Sprintf("must be non-negative, got %d", n)}
		}
	}
	if c.Spaces.Total() > c.Width*c.Height {
		return &ConfigError{Field: "spaces", Reason: fmt.Sprintf("%d spaces cannot fit on %d cells", c.Spaces.Total(), c.Width*c.Height)}
	}
	if math.IsNaN(c.ArrivalRate) || c.ArrivalRate < 0 || c.ArrivalRate > 1 {
		return &ConfigError{Field: "arrival_rate", Reason: fmt.Sprintf("must be in [0,1], got %v", c.ArrivalRate)}
	}
	probs := map[string]float64{
		"prob_general":          c.ProbGeneral,
		"prob_electric":         c.ProbElectric,
		"prob_reduced_mobility": c.ProbReducedMobility,
	}
	sum := 0.0
	for _, name := range []string{"prob_general", "prob_electric", "prob_reduced_mobility"} {
		p := probs[name]
		if math.IsNaN(p) || p < 0 || p > 1 {
			return &ConfigError{Field: name, Reason: fmt.Sprintf("must be in [0,1], got %v", p)}
		}
		sum += p
	}
	if math.Abs(sum-1) > probabilityTolerance {
		return &ConfigError{Field: "prob_*", Reason: fmt.Sprintf("category probabilities must sum to 1, got %v", sum)}
	}
	if c.MaxArrivals < 0 {
		return &ConfigError{Field: "max_arrivals", Reason: fmt.Sprintf("must be non-negative, got %d", c.MaxArrivals)}
	}
	if math.IsNaN(c.MeanDwell) || math.IsInf(c.MeanDwell, 0) || c.MeanDwell <= 0 {
		return &ConfigError{Field: "mean_dwell_time", Reason: fmt.Sprintf("must be positive, got %v", c.MeanDwell)}
	}
	if !ValidDwellDistributions[c.DwellDistribution] {
		return &ConfigError{Field: "dwell_distribution", Reason: fmt.Sprintf("unknown distribution %q", c.DwellDistribution)}
	}
	if !ValidAdmissionPolicies[c.Admission] {
		return &ConfigError{Field: "admission", Reason: fmt.Sprintf("unknown policy %q", c.Admission)}
	}
	return nil
}

// LoadConfig reads a YAML file on top of DefaultConfig.
// Unknown keys are rejected so that typos surface instead of silently
// falling back to defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}
