package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/fibersag/internal/config"
	"github.com/san-kum/fibersag/internal/integrators"
	"github.com/san-kum/fibersag/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string

	// fiber overrides
	k            float64
	restLength   float64
	mass         float64
	damping      float64
	gravity      float64
	subdivisions int
	dt           float64
	initialSag   float64
	integrator   string
	workers      int

	// run overrides
	maxSteps    int
	duration    float64
	sampleEvery int
	window      int
	threshold   float64
	runToLimit  bool

	// output
	runName   string
	noSave    bool
	watch     bool
	frameRate int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fibersag",
		Short: "elastic fiber sag simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fibersag", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate until the lowest node settles",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().StringVar(&runName, "name", "", "run name (defaults to the preset)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&watch, "watch", false, "draw the fiber in the terminal while running")
	runCmd.Flags().IntVar(&frameRate, "fps", 20, "frame rate for --watch")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive live view of one configuration",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)

	criticalCmd := &cobra.Command{
		Use:   "critical",
		Short: "print the derived constants and the critical timestep",
		Args:  cobra.NoArgs,
		RunE:  printCritical,
	}
	addConfigFlags(criticalCmd)

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the resolved configuration to a yaml or toml file",
		Args:  cobra.ExactArgs(1),
		RunE:  writeConfig,
	}
	addConfigFlags(configCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the height history and final shape of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	positionsCmd := &cobra.Command{
		Use:   "positions [run_id]",
		Short: "print the final node positions as x,y lines",
		Args:  cobra.ExactArgs(1),
		RunE:  printPositions,
	}

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "render the final fiber (or its height history) as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  renderSVG,
	}
	svgCmd.Flags().String("out", "", "output file (default stdout)")
	svgCmd.Flags().Int("width", 800, "image width")
	svgCmd.Flags().Int("height", 400, "image height")
	svgCmd.Flags().Bool("heights", false, "plot the sampled height history instead")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summarize a run and compare it with the catenary",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [param]",
		Short: "run one simulation per value of a fiber parameter",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().Float64("min", 0, "first value")
	sweepCmd.Flags().Float64("max", 0, "last value")
	sweepCmd.Flags().Int("count", 5, "number of values")
	sweepCmd.Flags().Int("jobs", 0, "concurrent runs (0 = all cores)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the steps of a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "run randomly perturbed copies of a configuration",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addConfigFlags(monteCarloCmd)
	monteCarloCmd.Flags().Int("trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64("perturb", 0.1, "relative perturbation")
	monteCarloCmd.Flags().Int64("seed", 0, "random seed (0 = clock)")
	monteCarloCmd.Flags().StringSlice("params", []string{"k", "mass", "damping"}, "parameters to perturb")
	monteCarloCmd.Flags().Int("jobs", 0, "concurrent runs (0 = all cores)")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search the damping that settles fastest",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	addConfigFlags(tuneCmd)
	tuneCmd.Flags().Float64Slice("values", nil, "damping values to try")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "preset picker with live view",
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive()
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, criticalCmd, configCmd, presetsCmd, listCmd, plotCmd,
		exportCmd, positionsCmd, svgCmd, analyzeCmd, sweepCmd, scenarioCmd, monteCarloCmd, tuneCmd, tuiCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file (yaml or toml)")
	f.StringVar(&preset, "preset", "", "start from a preset ("+strings.Join(config.ListPresets(), ", ")+")")

	f.Float64Var(&k, "k", 0, "fiber spring constant")
	f.Float64Var(&restLength, "rest-length", 0, "unstretched fiber length")
	f.Float64Var(&mass, "mass", 0, "total fiber mass")
	f.Float64Var(&damping, "damping", 0, "viscous damping per node")
	f.Float64Var(&gravity, "gravity", 0, "gravitational acceleration")
	f.IntVar(&subdivisions, "n", 0, "number of segments")
	f.Float64Var(&dt, "dt", 0, "timestep (0 = half the critical timestep)")
	f.Float64Var(&initialSag, "initial-sag", 0, "start from a parabola this deep")
	f.StringVar(&integrator, "integrator", "", "integrator ("+strings.Join(integrators.Names(), ", ")+")")
	f.IntVar(&workers, "workers", 0, "goroutines per step (0 = all cores)")

	f.IntVar(&maxSteps, "max-steps", 0, "step limit (0 = none)")
	f.Float64Var(&duration, "time", 0, "simulated time limit in seconds (0 = none)")
	f.IntVar(&sampleEvery, "sample-every", 0, "steps between height samples")
	f.IntVar(&window, "window", 0, "convergence window in samples")
	f.Float64Var(&threshold, "threshold", 0, "convergence threshold in mm")
	f.BoolVar(&runToLimit, "run-to-limit", false, "keep running after convergence")
}

// resolveConfig layers defaults, preset, config file and changed flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	fiber := &cfg.Fiber
	if flags.Changed("k") {
		fiber.K = k
	}
	if flags.Changed("rest-length") {
		fiber.RestLength = restLength
	}
	if flags.Changed("mass") {
		fiber.Mass = mass
	}
	if flags.Changed("damping") {
		fiber.Damping = damping
	}
	if flags.Changed("gravity") {
		fiber.Gravity = gravity
	}
	if flags.Changed("n") {
		fiber.Subdivisions = subdivisions
	}
	if flags.Changed("dt") {
		fiber.Dt = dt
	}
	if flags.Changed("initial-sag") {
		fiber.InitialSag = initialSag
	}
	if flags.Changed("integrator") {
		fiber.Integrator = integrator
	}
	if flags.Changed("workers") {
		fiber.Workers = workers
	}

	run := &cfg.Run
	if flags.Changed("max-steps") {
		run.MaxSteps = maxSteps
	}
	if flags.Changed("time") {
		run.Duration = duration
	}
	if flags.Changed("sample-every") {
		run.SampleEvery = sampleEvery
	}
	if flags.Changed("window") {
		run.Window = window
	}
	if flags.Changed("threshold") {
		run.Threshold = threshold
	}
	if flags.Changed("run-to-limit") {
		run.RunToLimit = runToLimit
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configName() string {
	switch {
	case preset != "":
		return preset
	case configFile != "":
		base := filepath.Base(configFile)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return "fiber"
}
