// Tracks simulation-wide counters and occupancy ratios once per step.

package sim

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Counters are the monotonically non-decreasing event counts of a run.
type Counters struct {
	Arrived    int64 `json:"cars_arrived"`
	Parked     int64 `json:"cars_parked"`
	Exited     int64 `json:"cars_exited"`
	TurnedAway int64 `json:"cars_turned_away"`
}

// Record is one row of the metrics time series, sampled at the end of a step.
type Record struct {
	Step int64 `json:"step"`
	Counters
	Live            int     `json:"live_drivers"`
	Occupancy       float64 `json:"occupancy"`
	General         float64 `json:"general_occupancy"`
	Electric        float64 `json:"electric_occupancy"`
	ReducedMobility float64 `json:"reduced_mobility_occupancy"`
}

// CategoryOccupancy returns the occupancy column for category c.
func (r Record) CategoryOccupancy(c Category) float64 {
	switch c {
	case Electric:
		return r.Electric
	case ReducedMobility:
		return r.ReducedMobility
	default:
		return r.General
	}
}

// Sampler is the state a Collector reads each step.
type Sampler interface {
	Now() int64
	Counters() Counters
	LiveDrivers() int
	Occupancy() float64
	CategoryOccupancy(c Category) float64
}

// Collector keeps the append-only per-step time series.
type Collector struct {
	series []Record
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{series: make([]Record, 0)}
}

// Sample appends one row built from src and returns it.
func (m *Collector) Sample(src Sampler) Record {
	rec := Record{
		Step:            src.Now(),
		Counters:        src.Counters(),
		Live:            src.LiveDrivers(),
		Occupancy:       src.Occupancy(),
		General:         src.CategoryOccupancy(General),
		Electric:        src.CategoryOccupancy(Electric),
		ReducedMobility: src.CategoryOccupancy(ReducedMobility),
	}
	m.series = append(m.series, rec)
	return rec
}

// Series returns a copy of the time series in step order.
func (m *Collector) Series() []Record {
	out := make([]Record, len(m.series))
	copy(out, m.series)
	return out
}

// Len returns the number of sampled steps.
func (m *Collector) Len() int {
	return len(m.series)
}

// Last returns the most recent row.
func (m *Collector) Last() (Record, bool) {
	if len(m.series) == 0 {
		return Record{}, false
	}
	return m.series[len(m.series)-1], true
}

// Summary aggregates a time series for end-of-run reporting.
type Summary struct {
	Steps int64 `json:"steps"`
	Counters
	MeanOccupancy   float64              `json:"mean_occupancy"`
	StdDevOccupancy float64              `json:"stddev_occupancy"`
	MinOccupancy    float64              `json:"min_occupancy"`
	PeakOccupancy   float64              `json:"peak_occupancy"`
	MeanByCategory  map[Category]float64 `json:"mean_category_occupancy"`
	Provisioning    *Provisioning        `json:"-"`
}

// Summarize computes a Summary. Safe for an empty series.
func Summarize(series []Record) Summary {
	s := Summary{MeanByCategory: make(map[Category]float64, numCategories)}
	if len(series) == 0 {
		return s
	}
	last := series[len(series)-1]
	s.Steps = last.Step
	s.Counters = last.Counters

	occ := OccupancyColumn(series)
	s.MeanOccupancy = stat.Mean(occ, nil)
	s.MinOccupancy = floats.Min(occ)
	s.PeakOccupancy = floats.Max(occ)
	if len(occ) > 1 {
		s.StdDevOccupancy = stat.StdDev(occ, nil)
	}
	for _, c := range Categories() {
		s.MeanByCategory[c] = stat.Mean(columnOf(series, func(r Record) float64 { return r.CategoryOccupancy(c) }), nil)
	}
	return s
}

func columnOf(series []Record, f func(Record) float64) []float64 {
	out := make([]float64, len(series))
	for i, r := range series {
		out[i] = f(r)
	}
	return out
}

// OccupancyColumn extracts the overall occupancy column of a series.
func OccupancyColumn(series []Record) []float64 {
	return columnOf(series, func(r Record) float64 { return r.Occupancy })
}

// RollingMean returns the trailing mean of values over window samples.
// The first window-1 entries average over what is available so far.
func RollingMean(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(values))
	for i := range values {
		lo := max(0, i-window+1)
		out[i] = floats.Sum(values[lo:i+1]) / float64(i+1-lo)
	}
	return out
}

// Print displays the summary in a human-readable block.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Steps                : %d\n", s.Steps)
	fmt.Fprintf(w, "Cars Arrived         : %d\n", s.Arrived)
	fmt.Fprintf(w, "Cars Parked          : %d\n", s.Parked)
	fmt.Fprintf(w, "Cars Exited          : %d\n", s.Exited)
	fmt.Fprintf(w, "Cars Turned Away     : %d\n", s.TurnedAway)
	if s.Steps > 0 {
		fmt.Fprintf(w, "Mean Occupancy       : %.2f%%\n", 100*s.MeanOccupancy)
		fmt.Fprintf(w, "Occupancy Std Dev    : %.4f\n", s.StdDevOccupancy)
		fmt.Fprintf(w, "Min Occupancy        : %.2f%%\n", 100*s.MinOccupancy)
		fmt.Fprintf(w, "Peak Occupancy       : %.2f%%\n", 100*s.PeakOccupancy)
		for _, c := range Categories() {
			fmt.Fprintf(w, "Mean %-16s: %.2f%%\n", c.String(), 100*s.MeanByCategory[c])
		}
	}
	if s.Provisioning != nil && s.Provisioning.Shortfall() {
		fmt.Fprintf(w, "Provisioning         : %s\n", (&ShortfallError{Provisioning: *s.Provisioning}).Error())
	}
}

// DefaultRollingWindow is the trailing window of the rolling_occupancy column.
const DefaultRollingWindow = 20

// csvHeader mirrors the columns of Record, followed by the rolling occupancy.
var csvHeader = []string{
	"step", "cars_arrived", "cars_parked", "cars_exited", "cars_turned_away", "live_drivers",
	"occupancy", "general_occupancy", "electric_occupancy", "reduced_mobility_occupancy",
	"rolling_occupancy",
}

// SaveCSV writes the series as a CSV table with a header row. The last column
// is the trailing mean of occupancy over window steps.
func SaveCSV(w io.Writer, series []Record, window int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	rolling := RollingMean(OccupancyColumn(series), window)
	for i, r := range series {
		row := []string{
			strconv.FormatInt(r.Step, 10),
			strconv.FormatInt(r.Arrived, 10),
			strconv.FormatInt(r.Parked, 10),
			strconv.FormatInt(r.Exited, 10),
			strconv.FormatInt(r.TurnedAway, 10),
			strconv.Itoa(r.Live),
			formatRatio(r.Occupancy),
			formatRatio(r.General),
			formatRatio(r.Electric),
			formatRatio(r.ReducedMobility),
			formatRatio(rolling[i]),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row for step %d: %w", r.Step, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatRatio(v float64) string {
	if math.IsNaN(v) {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// Results is the JSON document written at the end of a run.
type Results struct {
	Summary Summary  `json:"summary"`
	Series  []Record `json:"series,omitempty"`
}

// SaveJSON writes results as indented JSON.
func SaveJSON(w io.Writer, res Results) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return nil
}
