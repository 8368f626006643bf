package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/parksim/parksim/sim"
	"github.com/parksim/parksim/sim/export"
)

var (
	// serve-only flags
	listenAddr   string        // HTTP listen address
	stepInterval time.Duration // Wall-clock delay between steps
	serveSteps   int           // Steps before the loop stops (0 = until interrupted)
)

// liveSim guards a running simulation shared between the step loop and HTTP handlers.
type liveSim struct {
	mu  sync.Mutex
	sim *sim.Simulation
}

func (l *liveSim) step() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sim.Step()
	return l.sim.Now()
}

func (l *liveSim) snapshot() sim.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sim.Snapshot()
}

func (l *liveSim) summary() sim.Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sim.Summary()
}

// newServeMux exposes the Prometheus registry and JSON views of the simulation.
func newServeMux(live *liveSim, reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/snapshot", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, live.snapshot())
	})
	mux.HandleFunc("/summary", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, live.summary())
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("encoding response: %v", err)
	}
}

// stepLoop advances live once per tick until ctx is done or limit steps ran.
func stepLoop(ctx context.Context, live *liveSim, interval time.Duration, limit int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := live.step()
			logrus.Debugf("step %d", now)
			if limit > 0 && now >= int64(limit) {
				logrus.Infof("Reached %d steps, stepping stopped", limit)
				return
			}
		}
	}
}

// serveCmd runs the simulation in real time and exposes it over HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulation continuously and expose metrics over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, err := buildConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if stepInterval <= 0 {
			logrus.Fatalf("--step-interval must be positive, got %v", stepInterval)
		}

		reg := prometheus.NewRegistry()
		sink, err := export.NewPromSinkWithRegistry(reg)
		if err != nil {
			logrus.Fatalf("Registering metrics: %v", err)
		}
		s, err := sim.NewSimulation(cfg, sim.WithObserver(sink))
		if err != nil {
			logrus.Fatalf("Unable to build simulation: %v", err)
		}
		live := &liveSim{sim: s}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := &http.Server{Addr: listenAddr, Handler: newServeMux(live, reg), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logrus.Infof("Serving on %s (/metrics, /snapshot, /summary)", listenAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("HTTP server: %v", err)
				stop()
			}
		}()

		stepLoop(ctx, live, stepInterval, serveSteps)
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.Warnf("HTTP shutdown: %v", err)
		}
		live.summary().Print(os.Stdout)
	},
}

func init() {
	addConfigFlags(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "addr", ":8080", "HTTP listen address")
	serveCmd.Flags().DurationVar(&stepInterval, "step-interval", 500*time.Millisecond, "Wall-clock time between steps")
	serveCmd.Flags().IntVar(&serveSteps, "steps", 0, "Stop stepping after this many steps (0 runs until interrupted)")

	rootCmd.AddCommand(serveCmd)
}
