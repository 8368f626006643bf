package cmd

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parksim/parksim/sim"
	"github.com/parksim/parksim/sim/export"
)

func newLiveSim(t *testing.T) (*liveSim, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	sink, err := export.NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	cfg := sim.DefaultConfig()
	cfg.ArrivalRate = 1.0
	s, err := sim.NewSimulation(cfg, sim.WithObserver(sink))
	require.NoError(t, err)
	return &liveSim{sim: s}, reg
}

func TestStepLoop_StopsAtLimit(t *testing.T) {
	// GIVEN a live simulation and a step limit of 3
	live, _ := newLiveSim(t)

	// WHEN the loop runs with a short interval
	stepLoop(context.Background(), live, time.Millisecond, 3)

	// THEN exactly three steps were taken
	assert.Equal(t, int64(3), live.snapshot().Step)
}

func TestStepLoop_CancelledContext_Returns(t *testing.T) {
	live, _ := newLiveSim(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stepLoop(ctx, live, time.Hour, 0)

	assert.Equal(t, int64(0), live.snapshot().Step)
}

func TestServeMux_SnapshotAndMetrics(t *testing.T) {
	// GIVEN a simulation advanced by five steps behind the HTTP mux
	live, reg := newLiveSim(t)
	for i := 0; i < 5; i++ {
		live.step()
	}
	srv := httptest.NewServer(newServeMux(live, reg))
	defer srv.Close()

	// WHEN /snapshot is fetched
	resp, err := http.Get(srv.URL + "/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()

	// THEN it describes the current step and facility
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap sim.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, int64(5), snap.Step)
	assert.Equal(t, 20, snap.Width)
	assert.Len(t, snap.Spaces, live.sim.TotalSpaces())

	// AND /metrics exports the step gauge
	mresp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	body, err := io.ReadAll(mresp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "parksim_step 5")
	assert.Contains(t, string(body), "parksim_cars_total")
}

func TestServeMux_Summary(t *testing.T) {
	live, reg := newLiveSim(t)
	live.step()
	live.step()
	srv := httptest.NewServer(newServeMux(live, reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/summary")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.EqualValues(t, 2, got["steps"])
}
