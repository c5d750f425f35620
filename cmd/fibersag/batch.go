package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/fibersag/internal/automation"
	"github.com/san-kum/fibersag/internal/dynamo"
	"github.com/san-kum/fibersag/internal/experiment"
	"github.com/san-kum/fibersag/internal/optim"
	"github.com/san-kum/fibersag/internal/storage"
)

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	lo, _ := flags.GetFloat64("min")
	hi, _ := flags.GetFloat64("max")
	count, _ := flags.GetInt("count")
	jobs, _ := flags.GetInt("jobs")

	sweep := &automation.ParameterSweep{Param: args[0], Min: lo, Max: hi, Count: count, Workers: jobs}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunSweep(ctx, base, sweep, experiment.NewRegistry(), os.Stderr)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tREASON\tSTEPS\tLOWEST\tCATENARY\n", args[0])
	for _, r := range results {
		predicted := "-"
		if !math.IsNaN(r.Predicted) {
			predicted = fmt.Sprintf("%.6f", -r.Predicted)
		}
		fmt.Fprintf(w, "%.4g\t%s\t%d\t%.6f\t%s\n", r.Value, r.Result.Reason, r.Result.Steps, r.Result.LowestHeight, predicted)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	if sc.Description != "" {
		fmt.Println(dimStyle.Render(sc.Description))
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunScenario(ctx, sc, experiment.NewRegistry(), os.Stderr)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tPRESET\tREASON\tSTEPS\tLOWEST\tRUN")
	for i, r := range results {
		runID := "-"
		if r.Step.SaveAs != "" && r.Result.Reason != dynamo.StopDiverged {
			if runID, err = st.Save(r.Step.SaveAs, r.Config, r.Result); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%.6f\t%s\n", i+1, r.Step.Preset, r.Result.Reason, r.Result.Steps, r.Result.LowestHeight, runID)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	mc := &automation.MonteCarloConfig{}
	mc.NumTrials, _ = flags.GetInt("trials")
	mc.Perturbation, _ = flags.GetFloat64("perturb")
	mc.Seed, _ = flags.GetInt64("seed")
	mc.Params, _ = flags.GetStringSlice("params")
	mc.Workers, _ = flags.GetInt("jobs")

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunMonteCarlo(ctx, base, mc, experiment.NewRegistry(), os.Stderr)
	if err != nil {
		return err
	}
	stats := automation.MonteCarloStats(results)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "trials\t%d\n", len(results))
	fmt.Fprintf(w, "converged\t%d\n", stats.Converged)
	fmt.Fprintf(w, "diverged\t%d\n", stats.Diverged)
	fmt.Fprintf(w, "unsettled\t%d\n", stats.Unsettled)
	if stats.Sag.N > 0 {
		fmt.Fprintf(w, "lowest mean\t%.6f\n", stats.Sag.Mean)
		fmt.Fprintf(w, "lowest stddev\t%.4g\n", stats.Sag.StdDev)
		fmt.Fprintf(w, "lowest range\t[%.6f, %.6f]\n", stats.Sag.Min, stats.Sag.Max)
	}
	return w.Flush()
}

func runTune(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	values, _ := cmd.Flags().GetFloat64Slice("values")
	if len(values) == 0 {
		values = optim.Linspace(0.05, 2, 8)
	}

	registry := experiment.NewRegistry()
	build := func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		for name, v := range params {
			if err := cfg.SetParam(name, v); err != nil {
				return nil, err
			}
		}
		exp := experiment.New(cfg)
		if err := exp.Setup(registry.DefaultMetrics()); err != nil {
			return nil, err
		}
		return exp, nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	gs := optim.NewGridSearch([]string{"damping"}, [][]float64{values})
	best, score, err := gs.Search(ctx, build, optim.SettlingTime)
	if err != nil {
		if ctx.Err() == context.Canceled {
			return ctx.Err()
		}
		return err
	}

	fmt.Println(goodStyle.Render("best: " + optim.FormatParams(best)))
	fmt.Printf("settling time: %.4fs\n", score)
	return nil
}
