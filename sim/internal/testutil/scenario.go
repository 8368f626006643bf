// Package testutil provides shared test infrastructure for the parking
// simulator: the scenario dataset and float comparison helpers used by the
// sim/ test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// ScenarioDataset represents the structure of testdata/scenarios.json.
type ScenarioDataset struct {
	Scenarios []ScenarioCase `json:"scenarios"`
}

// ScenarioCase is one facility setup whose outcome does not depend on the seed.
type ScenarioCase struct {
	Name                  string  `json:"name"`
	Width                 int     `json:"width"`
	Height                int     `json:"height"`
	GeneralSpaces         int     `json:"general_spaces"`
	ElectricSpaces        int     `json:"electric_spaces"`
	ReducedMobilitySpaces int     `json:"reduced_mobility_spaces"`
	ArrivalRate           float64 `json:"arrival_rate"`
	ProbGeneral           float64 `json:"prob_general"`
	ProbElectric          float64 `json:"prob_electric"`
	ProbReducedMobility   float64 `json:"prob_reduced_mobility"`
	MaxArrivals           int64   `json:"max_arrivals"`
	MeanDwell             float64 `json:"mean_dwell_time"`
	DwellDistribution     string  `json:"dwell_distribution"`
	Admission             string  `json:"admission"`
	Seed                  int64   `json:"seed"`
	Steps                 int     `json:"steps"`

	Expected ScenarioOutcome `json:"expected"`
}

// ScenarioOutcome is the state expected after the last step.
type ScenarioOutcome struct {
	Arrived        int64   `json:"cars_arrived"`
	Parked         int64   `json:"cars_parked"`
	Exited         int64   `json:"cars_exited"`
	TurnedAway     int64   `json:"cars_turned_away"`
	LiveDrivers    int     `json:"live_drivers"`
	FinalOccupancy float64 `json:"final_occupancy"`
	PeakOccupancy  float64 `json:"peak_occupancy"`
}

// LoadScenarioDataset loads the scenario dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadScenarioDataset(t *testing.T) *ScenarioDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "scenarios.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read scenario dataset: %v", err)
	}

	var dataset ScenarioDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse scenario dataset: %v", err)
	}
	if len(dataset.Scenarios) == 0 {
		t.Fatal("scenario dataset is empty")
	}
	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
