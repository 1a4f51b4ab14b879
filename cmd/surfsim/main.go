package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/surfsim/internal/automation"
	"github.com/san-kum/surfsim/internal/chart"
	"github.com/san-kum/surfsim/internal/config"
	"github.com/san-kum/surfsim/internal/experiment"
	"github.com/san-kum/surfsim/internal/optim"
	"github.com/san-kum/surfsim/internal/sim"
	"github.com/san-kum/surfsim/internal/storage"
	"github.com/san-kum/surfsim/internal/viz"
)

var logger = zap.NewNop()

var (
	dataDir string
	verbose bool

	dt          float64
	duration    float64
	seed        int64
	recordEvery int
	configFile  string
	noSave      bool

	plotFigures []string
	pngFigures  []string
	outDir      string
	width       int
	height      int

	workers int
	copies  int
	metric  string
	kps     []float64
	kis     []float64
	gains   []float64

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	trials     int
	aeroJitter float64
)

// main registers the surfsim commands and opens the scenario picker when no
// subcommand is given.
func main() {
	rootCmd := &cobra.Command{
		Use:   "surfsim",
		Short: "flight control surface actuation simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(logger)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".surfsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log mode transitions and events")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a scenario and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().IntVar(&recordEvery, "record-every", 0, "keep one sample every N ticks")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset scenarios",
		RunE:  listPresets,
	}

	assembliesCmd := &cobra.Command{
		Use:   "assemblies",
		Short: "list preset actuator assemblies",
		RunE:  listAssemblies,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&plotFigures, "figure", []string{"position", "force"}, "figures to draw: "+strings.Join(chart.Kinds(), ", "))
	plotCmd.Flags().IntVar(&width, "width", 80, "graph width")
	plotCmd.Flags().IntVar(&height, "height", 10, "graph height")

	plotPNGCmd := &cobra.Command{
		Use:   "plot-png [run_id]",
		Short: "render a stored run as png figures",
		Args:  cobra.ExactArgs(1),
		RunE:  plotPNG,
	}
	plotPNGCmd.Flags().StringSliceVar(&pngFigures, "figure", nil, "figures to render (default all)")
	plotPNGCmd.Flags().StringVar(&outDir, "out", "", "output directory (default the run directory)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write the samples of a run as csv to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "write a run as json to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run a scenario interactively in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)

	benchCmd := &cobra.Command{
		Use:   "bench [scenario]",
		Short: "measure simulation throughput",
		Args:  cobra.ExactArgs(1),
		RunE:  benchScenario,
	}
	benchCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (default GOMAXPROCS)")
	benchCmd.Flags().IntVar(&copies, "copies", 8, "runs in the parallel batch")

	compareCmd := &cobra.Command{
		Use:   "compare [scenario...]",
		Short: "run several scenarios concurrently and compare their metrics",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareScenarios,
	}
	compareCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (default GOMAXPROCS)")

	tuneCmd := &cobra.Command{
		Use:   "tune [scenario]",
		Short: "grid search flow loop gains",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneScenario,
	}
	addScenarioFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&metric, "metric", "tracking_rms", "metric to minimize")
	tuneCmd.Flags().Float64SliceVar(&kps, "kp", nil, "kp values")
	tuneCmd.Flags().Float64SliceVar(&kis, "ki", nil, "ki values")
	tuneCmd.Flags().Float64SliceVar(&gains, "force-gain", []float64{1000, 2000, 4000}, "force gain values")
	tuneCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (default GOMAXPROCS)")

	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario]",
		Short: "run a scenario across a range of one parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepScenario,
	}
	addScenarioFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "pressure_psi",
		fmt.Sprintf("parameter to vary %v", automation.SweepParams()))
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 3000, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 7, "number of values")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (default GOMAXPROCS)")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [scenario]",
		Short: "run seeded trials with random precharges and aero loads",
		Args:  cobra.MaximumNArgs(1),
		RunE:  monteCarloScenario,
	}
	addScenarioFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&aeroJitter, "aero-jitter", 0, "half-width of the uniform aero Y perturbation, N")
	monteCarloCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (default GOMAXPROCS)")

	rootCmd.AddCommand(runCmd, presetsCmd, assembliesCmd, listCmd, showCmd, plotCmd, plotPNGCmd,
		exportCSVCmd, exportJSONCmd, liveCmd, benchCmd, compareCmd, tuneCmd, sweepCmd, monteCarloCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger() error {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	logger = l
	return nil
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
}

// loadScenario reads a preset or a scenario file and applies the flags the
// user set explicitly.
func loadScenario(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	case len(args) == 1:
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown scenario: %s (available: %v)", args[0], config.ListPresets())
		}
	default:
		return nil, fmt.Errorf("name a scenario or pass --config (presets: %v)", config.ListPresets())
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if f := cmd.Flags().Lookup("record-every"); f != nil && f.Changed {
		cfg.RecordEvery = recordEvery
	}
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	exp := experiment.New(cfg, logger)
	if err := exp.Setup(registry.DefaultMetrics(cfg)); err != nil {
		return err
	}

	fmt.Printf("running %s...\n", cfg.Name)
	start := time.Now()
	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	final := result.Final()
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("final position: %.4f\n", final.Position)
	for i, a := range final.Actuators {
		fmt.Printf("  actuator %d: %s, force %.0f N\n", i, a.Mode, a.Force)
	}

	fmt.Println("\ncircuits:")
	for _, c := range result.Circuits {
		fmt.Printf("  %s: drawn %.4f L, returned %.4f L\n", c.Name, c.Drawn*1000, c.Returned*1000)
	}
	printMetrics(result.Metrics)

	if noSave {
		return nil
	}
	st := storage.New(dataDir, logger)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.Run{Scenario: cfg.Name, Assembly: cfg.AssemblyPreset, Config: exp.SimConfig()}, result)
	if err != nil {
		return err
	}
	if err := config.Save(filepath.Join(st.RunDir(runID), "scenario.yaml"), cfg); err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func printMetrics(metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, metrics[name])
	}
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tASSEMBLY\tDURATION\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%.1fs\t%s\n", name, p.AssemblyPreset, p.Duration, p.Description)
	}
	return w.Flush()
}

func listAssemblies(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tACTUATORS\tTRAVEL\tBACKUP")
	for _, name := range config.ListAssemblies() {
		a := config.GetAssembly(name)
		backup := "none"
		for _, act := range a.Actuators {
			if act.Backup != nil {
				backup = act.Backup.Kind
			}
		}
		fmt.Fprintf(w, "%s\t%d\t%.0f..%.0f deg\t%s\n", name, len(a.Actuators), a.Body.MinAngleDeg, a.Body.MaxAngleDeg, backup)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, logger)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tSTEPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Steps,
		)
	}
	return w.Flush()
}

func loadRun(runID string) (*storage.Store, *storage.RunMetadata, error) {
	st := storage.New(dataDir, logger)
	id, err := st.Resolve(runID)
	if err != nil {
		return nil, nil, err
	}
	meta, err := st.Load(id)
	if err != nil {
		return nil, nil, err
	}
	return st, meta, nil
}

func showRun(cmd *cobra.Command, args []string) error {
	_, meta, err := loadRun(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s (%s)\n", meta.Scenario, meta.Assembly)
	fmt.Printf("recorded: %s\n", meta.Timestamp.Local().Format(time.RFC3339))
	fmt.Printf("dt %.4fs, duration %.2fs, seed %d, steps %d\n", meta.Dt, meta.Duration, meta.Seed, meta.Steps)
	for _, c := range meta.Circuits {
		fmt.Printf("  %s: drawn %.4f L, returned %.4f L\n", c.Name, c.Drawn*1000, c.Returned*1000)
	}
	printMetrics(meta.Metrics)
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, meta, err := loadRun(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(meta.ID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(samples))

	for _, kind := range plotFigures {
		fig, err := chart.Build(kind, samples)
		if err != nil {
			return err
		}
		fmt.Println(fig.Text(width, height))
		fmt.Println()
	}
	return nil
}

func plotPNG(cmd *cobra.Command, args []string) error {
	st, meta, err := loadRun(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(meta.ID)
	if err != nil {
		return err
	}

	dir := outDir
	if dir == "" {
		dir = st.RunDir(meta.ID)
	}
	paths, err := chart.SavePNGs(dir, samples, pngFigures...)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st, meta, err := loadRun(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(meta.ID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.WriteSamples(os.Stdout, samples)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, meta, err := loadRun(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(meta.ID)
	if err != nil {
		return err
	}

	result := &sim.Result{
		Samples:    samples,
		Metrics:    meta.Metrics,
		Circuits:   meta.Circuits,
		StepsTaken: meta.Steps,
	}
	return storage.ExportJSON(os.Stdout, meta.Scenario, sim.Config{Dt: meta.Dt, Duration: meta.Duration}, result)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	// Log lines would tear the alternate screen.
	return viz.RunLive(cfg, zap.NewNop())
}

func benchScenario(cmd *cobra.Command, args []string) error {
	base := config.GetPreset(args[0])
	if base == nil {
		return fmt.Errorf("unknown scenario: %s (available: %v)", args[0], config.ListPresets())
	}
	if err := base.Resolve(); err != nil {
		return err
	}
	registry := experiment.NewRegistry()

	fmt.Printf("benchmarking %s\n\n", base.Name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DT\tSTEPS\tTIME\tSTEPS/SEC\tFINAL")

	for _, step := range []float64{0.001, 0.005, 0.01} {
		cfg := *base
		cfg.Dt = step
		exp := experiment.New(&cfg, nil)
		if err := exp.Setup(nil); err != nil {
			return err
		}

		start := time.Now()
		result, err := exp.Run(cmd.Context())
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		fmt.Fprintf(w, "%.4fs\t%d\t%v\t%.0f\t%.4f\n",
			step, result.StepsTaken, elapsed, float64(result.StepsTaken)/elapsed.Seconds(), result.Final().Position)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	jobs := make([]sim.Job, copies)
	for i := range jobs {
		cfg := *base
		cfg.Seed = int64(i)
		jobs[i] = experiment.Job(&cfg, nil, registry)
	}
	start := time.Now()
	results, err := sim.RunBatch(cmd.Context(), jobs, workers)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	total := 0
	for _, r := range results {
		total += r.StepsTaken
	}
	fmt.Printf("\nbatch of %d: %v, %.0f steps/sec\n", len(jobs), elapsed, float64(total)/elapsed.Seconds())
	return nil
}

func compareScenarios(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	jobs := make([]sim.Job, len(args))
	for i, name := range args {
		cfg := config.GetPreset(name)
		if cfg == nil {
			return fmt.Errorf("unknown scenario: %s (available: %v)", name, config.ListPresets())
		}
		if err := cfg.Resolve(); err != nil {
			return err
		}
		jobs[i] = experiment.Job(cfg, logger, registry)
	}

	results, err := sim.RunBatch(cmd.Context(), jobs, workers)
	if err != nil {
		return err
	}

	metrics := registry.ListMetrics()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SCENARIO\tFINAL\t%s\n", strings.ToUpper(strings.Join(metrics, "\t")))
	for i, r := range results {
		fmt.Fprintf(w, "%s\t%.4f", args[i], r.Final().Position)
		for _, m := range metrics {
			fmt.Fprintf(w, "\t%.4g", r.Metrics[m])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func tuneScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	registry := experiment.NewRegistry()
	if _, err := registry.GetMetric(metric, cfg); err != nil {
		return err
	}

	var names []string
	var ranges [][]float64
	for _, p := range []struct {
		name   string
		values []float64
	}{{"kp", kps}, {"ki", kis}, {"force_gain", gains}} {
		if len(p.values) > 0 {
			names = append(names, p.name)
			ranges = append(ranges, p.values)
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("no gain values to search")
	}

	grid := optim.NewGridSearch(names, ranges)
	grid.SetWorkers(workers)
	fmt.Printf("tuning %s over %d points, minimizing %s\n", cfg.Name, len(grid.Points()), metric)

	build := func(params map[string]float64) (*experiment.Experiment, error) {
		tuned := optim.WithGains(cfg, params)
		m, err := registry.GetMetric(metric, tuned)
		if err != nil {
			return nil, err
		}
		exp := experiment.New(tuned, nil)
		return exp, exp.Setup([]sim.Metric{m})
	}

	best, val, err := grid.Search(cmd.Context(), build, metric)
	if err != nil {
		return err
	}

	fmt.Printf("best %s: %.6f\n", metric, val)
	for _, name := range names {
		fmt.Printf("  %s = %g\n", name, best[name])
	}
	return nil
}

func sweepScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	registry := experiment.NewRegistry()
	sweep := automation.ParameterSweep{Param: sweepParam, Min: sweepMin, Max: sweepMax, NumSteps: sweepSteps}
	results, err := automation.RunSweep(cmd.Context(), cfg, sweep, registry, workers, logger)
	if err != nil {
		return err
	}

	metrics := registry.ListMetrics()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFINAL\t%s\n", strings.ToUpper(sweepParam), strings.ToUpper(strings.Join(metrics, "\t")))
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%.4f", r.Value, r.Final.Position)
		for _, m := range metrics {
			fmt.Fprintf(w, "\t%.4g", r.Metrics[m])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func monteCarloScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	mc := automation.MonteCarloConfig{NumTrials: trials, Seed: cfg.Seed, AeroJitter: aeroJitter}
	results, err := automation.RunMonteCarlo(cmd.Context(), cfg, mc, experiment.NewRegistry(), workers, logger)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d trials from seed %d\n\n", cfg.Name, len(results), cfg.Seed)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "QUANTITY\tMEAN\tSTDDEV\tMIN\tMAX")
	for _, s := range automation.MonteCarloStats(results) {
		fmt.Fprintf(w, "%s\t%.4g\t%.4g\t%.4g\t%.4g\n", s.Name, s.Mean, s.StdDev, s.Min, s.Max)
	}
	return w.Flush()
}
