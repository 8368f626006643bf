package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/parksim/parksim/sim"
	"github.com/parksim/parksim/sim/trace"
)

var (
	// CLI flags shared by run and serve
	configPath     string  // YAML config file (optional)
	seed           int64   // Seed for every RNG subsystem
	logLevel       string  // Log verbosity level
	width          int     // Grid width in cells
	height         int     // Grid height in cells
	generalSpaces  int     // Requested general spaces
	electricSpaces int     // Requested electric spaces
	reducedSpaces  int     // Requested reduced-mobility spaces
	arrivalRate    float64 // Probability of one arrival per step
	probGeneral    float64 // Share of general arrivals
	probElectric   float64 // Share of electric arrivals
	probReduced    float64 // Share of reduced-mobility arrivals
	meanDwell      float64 // Mean dwell in steps
	dwellDist      string  // Dwell distribution name
	maxArrivals    int64   // Cap on admitted arrivals (0 = unlimited)
	admission      string  // Admission policy name
	allowShortfall bool    // Accept a partially provisioned facility

	// run-only flags
	steps           int    // Number of steps to simulate
	reportEvery     int    // Log a progress line every N steps (0 = never)
	timeseriesPath  string // CSV output of the per-step series
	rollingWindow   int    // Trailing window of the rolling occupancy column
	resultsPath     string // JSON output of summary + series
	traceLevel      string // Decision trace level
	checkInvariants bool   // Verify bookkeeping after every step
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "parksim",
	Short: "Discrete-step simulator for parking facilities",
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the parking simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, err := buildConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s", traceLevel)
		}

		var opts []sim.Option
		var st *trace.SimulationTrace
		if trace.TraceLevel(traceLevel) == trace.TraceLevelDecisions {
			st = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
			opts = append(opts, sim.WithTrace(st))
		}

		logrus.Infof("Starting simulation: %dx%d grid, spaces=%+v, arrival_rate=%.2f, mean_dwell=%.1f, seed=%d",
			cfg.Width, cfg.Height, cfg.Spaces, cfg.ArrivalRate, cfg.MeanDwell, cfg.Seed)
		startTime := time.Now()

		s, err := sim.NewSimulation(cfg, opts...)
		if err != nil {
			logrus.Fatalf("Unable to build simulation: %v", err)
		}
		if err := runSteps(s, steps, reportEvery, checkInvariants); err != nil {
			logrus.Fatalf("%v", err)
		}

		summary := s.Summary()
		summary.Print(os.Stdout)
		if st != nil {
			printTraceSummary(os.Stdout, trace.Summarize(st))
		}
		if timeseriesPath != "" {
			if err := writeFile(timeseriesPath, func(w io.Writer) error { return sim.SaveCSV(w, s.Series(), rollingWindow) }); err != nil {
				logrus.Fatalf("Writing time series: %v", err)
			}
		}
		if resultsPath != "" {
			res := sim.Results{Summary: summary, Series: s.Series()}
			if err := writeFile(resultsPath, func(w io.Writer) error { return sim.SaveJSON(w, res) }); err != nil {
				logrus.Fatalf("Writing results: %v", err)
			}
		}

		logrus.Infof("Simulation complete in %v.", time.Since(startTime))
	},
}

// runSteps advances s and optionally reports progress and checks invariants.
func runSteps(s *sim.Simulation, n, every int, check bool) error {
	for i := 0; i < n; i++ {
		s.Step()
		if check {
			if err := s.CheckInvariants(); err != nil {
				return fmt.Errorf("invariant violated at step %d: %w", s.Now(), err)
			}
		}
		if every > 0 && s.Now()%int64(every) == 0 {
			c := s.Counters()
			logrus.Infof("Step %d: Occupancy = %.2f%%, Cars: %d arrived, %d parked, %d exited, %d turned away",
				s.Now(), 100*s.Occupancy(), c.Arrived, c.Parked, c.Exited, c.TurnedAway)
		}
	}
	return nil
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// buildConfig starts from the YAML file (or defaults) and applies every flag
// the user set explicitly.
func buildConfig(cmd *cobra.Command) (sim.Config, error) {
	cfg := sim.DefaultConfig()
	if configPath != "" {
		loaded, err := sim.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	changed := cmd.Flags().Changed
	if changed("seed") {
		cfg.Seed = seed
	}
	if changed("width") {
		cfg.Width = width
	}
	if changed("height") {
		cfg.Height = height
	}
	if changed("general-spaces") {
		cfg.Spaces.General = generalSpaces
	}
	if changed("electric-spaces") {
		cfg.Spaces.Electric = electricSpaces
	}
	if changed("reduced-mobility-spaces") {
		cfg.Spaces.ReducedMobility = reducedSpaces
	}
	if changed("arrival-rate") {
		cfg.ArrivalRate = arrivalRate
	}
	if changed("prob-general") {
		cfg.ProbGeneral = probGeneral
	}
	if changed("prob-electric") {
		cfg.ProbElectric = probElectric
	}
	if changed("prob-reduced-mobility") {
		cfg.ProbReducedMobility = probReduced
	}
	if changed("mean-dwell") {
		cfg.MeanDwell = meanDwell
	}
	if changed("dwell-distribution") {
		cfg.DwellDistribution = dwellDist
	}
	if changed("max-arrivals") {
		cfg.MaxArrivals = maxArrivals
	}
	if changed("admission") {
		cfg.Admission = admission
	}
	if changed("allow-shortfall") {
		cfg.AllowShortfall = allowShortfall
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func printTraceSummary(w io.Writer, ts *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Decision Trace ===")
	fmt.Fprintf(w, "Admissions           : %d admitted, %d rejected\n", ts.AdmittedCount, ts.RejectedCount)
	fmt.Fprintf(w, "Allocations          : %d (mean %.2f candidates, mean wait %.2f steps)\n", ts.Allocations, ts.MeanCandidates, ts.MeanWait)
	fmt.Fprintf(w, "Departures           : %d (mean dwell %.2f, max %d)\n", ts.Departures, ts.MeanDwell, ts.MaxDwell)
	for _, c := range sim.Categories() {
		name := c.String()
		fmt.Fprintf(w, "  %-18s : %d allocated, %d rejected\n", name, ts.AllocationsByCategory[name], ts.RejectionsByCategory[name])
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addConfigFlags registers the flags that map onto sim.Config.
// Defaults mirror sim.DefaultConfig; a flag only overrides the YAML file when set.
func addConfigFlags(cmd *cobra.Command) {
	def := sim.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML config file; explicit flags override its values")
	f.Int64Var(&seed, "seed", def.Seed, "Seed for all random draws")
	f.StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Facility geometry
	f.IntVar(&width, "width", def.Width, "Grid width in cells")
	f.IntVar(&height, "height", def.Height, "Grid height in cells")
	f.IntVar(&generalSpaces, "general-spaces", def.Spaces.General, "Number of general spaces")
	f.IntVar(&electricSpaces, "electric-spaces", def.Spaces.Electric, "Number of electric-vehicle spaces")
	f.IntVar(&reducedSpaces, "reduced-mobility-spaces", def.Spaces.ReducedMobility, "Number of reduced-mobility spaces")
	f.BoolVar(&allowShortfall, "allow-shortfall", def.AllowShortfall, "Run with fewer spaces than requested instead of failing")

	// Arrival process
	f.Float64Var(&arrivalRate, "arrival-rate", def.ArrivalRate, "Probability of one arrival per step")
	f.Float64Var(&probGeneral, "prob-general", def.ProbGeneral, "Share of general arrivals")
	f.Float64Var(&probElectric, "prob-electric", def.ProbElectric, "Share of electric arrivals")
	f.Float64Var(&probReduced, "prob-reduced-mobility", def.ProbReducedMobility, "Share of reduced-mobility arrivals")
	f.Float64Var(&meanDwell, "mean-dwell", def.MeanDwell, "Mean dwell duration in steps")
	f.StringVar(&dwellDist, "dwell-distribution", def.DwellDistribution, "Dwell distribution (exponential, constant)")
	f.Int64Var(&maxArrivals, "max-arrivals", def.MaxArrivals, "Stop admitting after this many arrivals (0 = unlimited)")
	f.StringVar(&admission, "admission", def.Admission, "Admission policy (always-admit, capacity)")
}

// init sets up CLI flags and subcommands
func init() {
	addConfigFlags(runCmd)
	runCmd.Flags().IntVar(&steps, "steps", 100, "Number of steps to simulate")
	runCmd.Flags().IntVar(&reportEvery, "report-every", 10, "Log progress every N steps (0 disables)")
	runCmd.Flags().StringVar(&timeseriesPath, "timeseries-path", "", "Write the per-step series as CSV")
	runCmd.Flags().IntVar(&rollingWindow, "rolling-window", sim.DefaultRollingWindow, "Steps averaged by the rolling_occupancy CSV column")
	runCmd.Flags().StringVar(&resultsPath, "results-path", "", "Write summary and series as JSON")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Decision trace level (none, decisions)")
	runCmd.Flags().BoolVar(&checkInvariants, "check-invariants", false, "Verify bookkeeping invariants after every step")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
