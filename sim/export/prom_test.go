package export

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parksim/parksim/sim"
)

func TestPromSink_ObserveStep_TracksGaugesAndCounters(t *testing.T) {
	// GIVEN a sink on a private registry
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	// WHEN two steps are observed
	sink.ObserveStep(sim.Record{Step: 1, Counters: sim.Counters{Arrived: 1, Parked: 1}, Live: 1, Occupancy: 0.5, General: 1})
	sink.ObserveStep(sim.Record{Step: 2, Counters: sim.Counters{Arrived: 3, Parked: 2, Exited: 1, TurnedAway: 2}, Live: 2, Occupancy: 0.25})

	// THEN gauges hold the latest row and counters hold the cumulative totals
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.step))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.live))
	assert.Equal(t, 0.25, testutil.ToFloat64(sink.occupancy.WithLabelValues("all")))
	assert.Equal(t, 0.0, testutil.ToFloat64(sink.occupancy.WithLabelValues("general")))
	assert.Equal(t, 3.0, testutil.ToFloat64(sink.cars.WithLabelValues("arrived")))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.cars.WithLabelValues("parked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.cars.WithLabelValues("exited")))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.cars.WithLabelValues("turned_away")))
}

func TestPromSink_RegisterTwice_ReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	second.ObserveStep(sim.Record{Step: 5})
	assert.Equal(t, 5.0, testutil.ToFloat64(first.step), "second sink must share the registered gauge")
}

func TestPromSink_AsSimulationObserver(t *testing.T) {
	// GIVEN a simulation wired to the sink
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	cfg := sim.DefaultConfig()
	cfg.ArrivalRate = 1.0
	s, err := sim.NewSimulation(cfg, sim.WithObserver(sink))
	require.NoError(t, err)

	// WHEN it runs
	s.Run(25)

	// THEN the exported values match the simulation's own accessors
	c := s.Counters()
	assert.Equal(t, 25.0, testutil.ToFloat64(sink.step))
	assert.Equal(t, float64(c.Arrived), testutil.ToFloat64(sink.cars.WithLabelValues("arrived")))
	assert.Equal(t, float64(c.Exited), testutil.ToFloat64(sink.cars.WithLabelValues("exited")))
	assert.InDelta(t, s.Occupancy(), testutil.ToFloat64(sink.occupancy.WithLabelValues("all")), 1e-12)
}
