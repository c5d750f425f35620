package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/fibersag/internal/analysis"
	"github.com/san-kum/fibersag/internal/config"
	"github.com/san-kum/fibersag/internal/export"
	"github.com/san-kum/fibersag/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tNODES\tSTEPS\tREASON\tLOWEST")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%.6f\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Nodes,
			run.Steps,
			run.Reason,
			run.LowestHeight,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadHeights(runID)
	if err != nil {
		return err
	}
	positions, err := st.LoadPositions(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(samples))

	if len(samples) > 1 {
		fmt.Println(asciigraph.Plot(analysis.Heights(samples),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("lowest height (mm) per sample"),
		))
		fmt.Println()
	}

	if len(positions) > 1 {
		ys := make([]float64, len(positions))
		for i, p := range positions {
			ys[i] = p.Y
		}
		fmt.Println(asciigraph.Plot(ys,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("final shape: y (m) per node"),
		))
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
}

func printPositions(cmd *cobra.Command, args []string) error {
	positions, err := storage.New(dataDir).LoadPositions(args[0])
	if err != nil {
		return err
	}
	return storage.WritePositions(os.Stdout, positions)
}

func renderSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	out, _ := cmd.Flags().GetString("out")
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	heights, _ := cmd.Flags().GetBool("heights")

	var svg string
	if heights {
		samples, err := st.LoadHeights(args[0])
		if err != nil {
			return err
		}
		svg = export.HeightsToSVG(samples, width, height, "#00ccff")
	} else {
		positions, err := st.LoadPositions(args[0])
		if err != nil {
			return err
		}
		svg = export.FiberToSVG(positions, width, height, "#a8c6e0")
	}
	if svg == "" {
		return errors.New("not enough data to draw")
	}

	if out == "" {
		_, err := fmt.Fprintln(os.Stdout, svg)
		return err
	}
	if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadHeights(runID)
	if err != nil {
		return err
	}

	sum := analysis.Summarize(samples)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "run\t%s\n", meta.ID)
	fmt.Fprintf(w, "samples\t%d\n", sum.N)
	fmt.Fprintf(w, "height mean\t%.4f mm\n", sum.Mean)
	fmt.Fprintf(w, "height median\t%.4f mm\n", sum.Median)
	fmt.Fprintf(w, "height range\t[%.4f, %.4f] mm\n", sum.Min, sum.Max)
	fmt.Fprintf(w, "height stddev\t%.4g mm\n", sum.StdDev)

	if idx := analysis.SettlingIndex(samples, meta.Run.Threshold); idx >= 0 {
		fmt.Fprintf(w, "settled from\tstep %d (t=%.4fs)\n", samples[idx].Step, samples[idx].Time)
	}

	interval := meta.Dt * float64(meta.Run.SampleEvery)
	if f, err := analysis.DominantFrequency(analysis.Heights(samples), interval); err == nil {
		fmt.Fprintf(w, "dominant frequency\t%.4g Hz\n", f)
	}

	cfg := &config.Config{Fiber: meta.Fiber, Run: meta.Run}
	p := cfg.Params()
	p.Dt = meta.Dt
	if cat, err := analysis.PredictSag(p); err == nil {
		fmt.Fprintf(w, "catenary sag\t%.6f m\n", cat.Sag)
		fmt.Fprintf(w, "simulated sag\t%.6f m\n", -meta.LowestHeight)
		if cat.Sag > 0 {
			fmt.Fprintf(w, "difference\t%.2f%%\n", 100*(-meta.LowestHeight-cat.Sag)/cat.Sag)
		}
	}
	return w.Flush()
}
