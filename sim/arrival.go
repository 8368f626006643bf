package sim

import (
	"fmt"
	"math"
	"math/rand"
)

// DwellSampler draws how many steps a driver wants to stay parked.
type DwellSampler interface {
	// Sample returns a dwell of at least one step.
	Sample(rng *rand.Rand) int64
}

// ExponentialDwell draws floor(Exp(mean)) + 1.
type ExponentialDwell struct {
	mean float64
}

func (s *ExponentialDwell) Sample(rng *rand.Rand) int64 {
	return int64(math.Floor(rng.ExpFloat64()*s.mean)) + 1
}

// ConstantDwell always returns the configured mean, rounded, at least 1.
type ConstantDwell struct {
	steps int64
}

func (s *ConstantDwell) Sample(_ *rand.Rand) int64 {
	return s.steps
}

// ValidDwellDistributions is the set of recognized dwell distribution names.
var ValidDwellDistributions = map[string]bool{"": true, "exponential": true, "constant": true}

// NewDwellSampler creates a DwellSampler by name.
// An empty string defaults to exponential.
// Panics on unrecognized names.
func NewDwellSampler(name string, mean float64) DwellSampler {
	if !ValidDwellDistributions[name] {
		panic(fmt.Sprintf("unknown dwell distribution %q", name))
	}
	switch name {
	case "", "exponential":
		return &ExponentialDwell{mean: mean}
	case "constant":
		return &ConstantDwell{steps: max(1, int64(math.Round(mean)))}
	default:
		panic(fmt.Sprintf("unhandled dwell distribution %q", name))
	}
}

// Arrival is a vehicle the ArrivalProcess wants to admit this step.
type Arrival struct {
	Category Category
	Dwell    int64
	Entry    Cell
}

// ArrivalProcess decides, once per step, whether a vehicle shows up.
//
// Draw order per step: Bernoulli trial, then (on success) category, dwell
// and entry row. The order is part of the reproducibility contract.
type ArrivalProcess struct {
	rng        *rand.Rand
	rate       float64
	thresholds [numCategories - 1]float64
	dwell      DwellSampler
	entryX     int
	height     int
}

// NewArrivalProcess builds the process from a validated Config.
// Vehicles enter on the right edge of the grid (x = width-1).
func NewArrivalProcess(cfg Config, rng *rand.Rand) *ArrivalProcess {
	return &ArrivalProcess{
		rng:        rng,
		rate:       cfg.ArrivalRate,
		thresholds: [numCategories - 1]float64{cfg.ProbGeneral, cfg.ProbGeneral + cfg.ProbElectric},
		dwell:      NewDwellSampler(cfg.DwellDistribution, cfg.MeanDwell),
		entryX:     cfg.Width - 1,
		height:     cfg.Height,
	}
}

// Next runs the arrival trial for one step.
func (a *ArrivalProcess) Next() (Arrival, bool) {
	if a.rng.Float64() >= a.rate {
		return Arrival{}, false
	}
	return Arrival{
		Category: a.drawCategory(),
		Dwell:    a.dwell.Sample(a.rng),
		Entry:    Cell{X: a.entryX, Y: a.rng.Intn(a.height)},
	}, true
}

// drawCategory compares one uniform draw against the cumulative thresholds
// [p_general, p_general+p_electric, 1.0].
func (a *ArrivalProcess) drawCategory() Category {
	u := a.rng.Float64()
	for i, t := range a.thresholds {
		if u < t {
			return Category(i)
		}
	}
	return ReducedMobility
}
