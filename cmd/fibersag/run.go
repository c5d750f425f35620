package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/san-kum/fibersag/internal/analysis"
	"github.com/san-kum/fibersag/internal/config"
	"github.com/san-kum/fibersag/internal/dynamo"
	"github.com/san-kum/fibersag/internal/experiment"
	"github.com/san-kum/fibersag/internal/physics"
	"github.com/san-kum/fibersag/internal/storage"
	"github.com/san-kum/fibersag/internal/tui"
	"github.com/san-kum/fibersag/internal/viz"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	name := runName
	if name == "" {
		name = configName()
	}

	registry := experiment.NewRegistry()
	exp := experiment.New(cfg)

	var observers []dynamo.Observer
	var renderer *tui.LiveRenderer
	if watch {
		renderer = tui.NewLiveRenderer(name, frameRate)
		observers = append(observers, renderer)
	}
	if err := exp.Setup(registry.DefaultMetrics(), observers...); err != nil {
		return err
	}

	p := cfg.Params()
	fmt.Println(titleStyle.Render(fmt.Sprintf("running %s", name)))
	fmt.Println(dimStyle.Render(fmt.Sprintf("n=%d  k=%g  c=%g  dt=%.3g  integrator=%s",
		p.Subdivisions, p.K, p.Damping, p.Dt, exp.Simulator().Chain().IntegratorName())))

	ctx, cancel := signalContext()
	defer cancel()

	if renderer != nil {
		renderer.Start()
	}
	start := time.Now()
	result, runErr := exp.Run(ctx)
	elapsed := time.Since(start)
	if renderer != nil {
		renderer.Stop()
	}

	var simErr *dynamo.SimulationError
	if errors.As(runErr, &simErr) {
		fmt.Println(badStyle.Render("diverged"))
		fmt.Printf("  step %d, t=%.6fs, node %d\n", simErr.Step, simErr.Time, simErr.Node)
		fmt.Printf("  critical timestep %.4g, used %.4g\n", physics.CriticalTimestep(p), p.Dt)
		return runErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	printResult(result, elapsed)
	printPrediction(p, result.LowestHeight)

	if noSave {
		return runErr
	}
	st := storage.New(dataDir)
	runID, err := st.Save(name, cfg, result)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return runErr
}

func printResult(r *dynamo.Result, elapsed time.Duration) {
	status := goodStyle.Render(string(r.Reason))
	if !r.Converged {
		status = badStyle.Render(string(r.Reason))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "status\t%s\n", status)
	fmt.Fprintf(w, "steps\t%d\n", r.Steps)
	fmt.Fprintf(w, "simulated\t%.4fs\n", r.Time)
	fmt.Fprintf(w, "wall\t%v\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "lowest height\t%.6f m\n", r.LowestHeight)
	fmt.Fprintf(w, "stddev\t%.4g mm\n", r.StdDev)
	w.Flush()

	if len(r.Metrics) == 0 {
		return
	}
	names := make([]string, 0, len(r.Metrics))
	for name := range r.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, r.Metrics[name])
	}
}

func printPrediction(p physics.Params, lowest float64) {
	cat, err := analysis.PredictSag(p)
	if err != nil {
		fmt.Printf("\ncatenary: %v\n", err)
		return
	}
	fmt.Printf("\ncatenary sag %.6f m, horizontal tension %.4g N", cat.Sag, cat.HorizontalTension)
	if cat.Sag > 0 {
		diff := math.Abs(-lowest-cat.Sag) / cat.Sag
		fmt.Printf(" (simulated differs by %.2f%%)", 100*diff)
	}
	fmt.Println()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	chain, err := cfg.NewChain()
	if err != nil {
		return err
	}
	return viz.Run(chain, cfg.RunConfig(), configName())
}

func printCritical(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	p := cfg.Params()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "segments\t%d\n", p.Subdivisions)
	fmt.Fprintf(w, "segment stiffness\t%.6g N/m\n", p.SpringConstant())
	fmt.Fprintf(w, "segment rest length\t%.6g m\n", p.SegmentRestLength())
	fmt.Fprintf(w, "node mass\t%.6g kg\n", p.NodeMass())
	fmt.Fprintf(w, "critical dt\t%.6g s\n", physics.CriticalTimestep(p))
	fmt.Fprintf(w, "dt\t%.6g s\n", p.Dt)
	if cat, err := analysis.PredictSag(p); err == nil {
		fmt.Fprintf(w, "catenary sag\t%.6f m\n", cat.Sag)
		fmt.Fprintf(w, "support tension\t%.6g N\n", cat.SupportTension)
	}
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tN\tK\tREST\tDAMPING\tMAX STEPS")
	for _, name := range config.ListPresets() {
		f := config.Presets[name].Fiber
		r := config.Presets[name].Run
		fmt.Fprintf(w, "%s\t%d\t%g\t%g\t%g\t%d\n", name, f.Subdivisions, f.K, f.RestLength, f.Damping, r.MaxSteps)
	}
	return w.Flush()
}
