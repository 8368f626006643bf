package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parksim/parksim/sim"
)

func TestCompare_SweepFromFlags_WritesTable(t *testing.T) {
	// GIVEN config flags that shrink the run
	c := newFlagCmd(t)
	require.NoError(t, c.Flags().Set("seed", "9"))
	cfg, err := buildConfig(c)
	require.NoError(t, err)

	// WHEN two rates are compared and written through writeFile
	rows, err := sim.CompareArrivalRates(cfg, []float64{0.2, 0.6}, 40)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "comparison.csv")
	require.NoError(t, writeFile(path, func(w io.Writer) error { return sim.SaveComparisonCSV(w, rows) }))

	// THEN the file has a header and one line per rate
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "arrival_rate,mean_occupancy,max_occupancy"))
	assert.True(t, strings.HasPrefix(lines[1], "0.2,"))
	assert.True(t, strings.HasPrefix(lines[2], "0.6,"))
}

func TestCompareCmd_DefaultRates(t *testing.T) {
	rates, err := compareCmd.Flags().GetFloat64Slice("arrival-rates")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.2, 0.4, 0.6}, rates)
}

func TestPrintComparison_OneLinePerRate(t *testing.T) {
	rows := []sim.RateComparison{
		{ArrivalRate: 0.2, Summary: sim.Summary{Counters: sim.Counters{Arrived: 3}}},
		{ArrivalRate: 0.4, Summary: sim.Summary{Counters: sim.Counters{Arrived: 7}, PeakOccupancy: 0.5}},
	}
	var buf bytes.Buffer

	printComparison(&buf, rows)

	out := buf.String()
	assert.Contains(t, out, "Arrival Rate Comparison")
	assert.Contains(t, out, "0.40")
	assert.Contains(t, out, "50.00%")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 4)
}
