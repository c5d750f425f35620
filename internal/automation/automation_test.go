package automation

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/fibersag/internal/config"
	"github.com/san-kum/fibersag/internal/dynamo"
	"github.com/san-kum/fibersag/internal/experiment"
)

func smallBase() *config.Config {
	cfg := config.GetPreset("demo")
	cfg.Fiber.Subdivisions = 10
	cfg.Run.MaxSteps = 3000
	return cfg
}

const scenarioYAML = `name: stiffness
description: two stiffnesses
steps:
  - preset: demo
    params:
      subdivisions: 10
      k: 50
    max_steps: 2000
    metrics: [kinetic_energy]
  - preset: demo
    params:
      subdivisions: 10
      k: 100
    max_steps: 2000
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "stiffness" || len(sc.Steps) != 2 {
		t.Fatalf("unexpected scenario %+v", sc)
	}
	if sc.Steps[1].Params["k"] != 100 {
		t.Errorf("k = %v, want 100", sc.Steps[1].Params["k"])
	}

	if _, err := LoadScenario(writeScenario(t, "name: empty\n")); err == nil {
		t.Error("expected error for a scenario without steps")
	}
	if _, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestScenarioStepConfig(t *testing.T) {
	step := ScenarioStep{Preset: "taut", Params: map[string]float64{"damping": 2}, Duration: 1.5}
	cfg, err := step.Config()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Fiber.Damping != 2 || cfg.Run.Duration != 1.5 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if config.Presets["taut"].Fiber.Damping == 2 {
		t.Error("override leaked into the preset table")
	}

	if _, err := (ScenarioStep{Preset: "nope"}).Config(); err == nil {
		t.Error("expected error for unknown preset")
	}
	if _, err := (ScenarioStep{Params: map[string]float64{"colour": 1}}).Config(); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}

	var progress bytes.Buffer
	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), &progress)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if _, ok := results[0].Result.Metrics["kinetic_energy"]; !ok {
		t.Error("first step missing its metric")
	}
	if len(results[0].Result.Metrics) != 1 {
		t.Errorf("first step ran %d metrics, want 1", len(results[0].Result.Metrics))
	}
	// the stiffer fiber sags less
	if results[1].Result.LowestHeight <= results[0].Result.LowestHeight {
		t.Errorf("k=100 lowest %v not above k=50 lowest %v",
			results[1].Result.LowestHeight, results[0].Result.LowestHeight)
	}
	if strings.Count(progress.String(), "Running step") != 2 {
		t.Errorf("unexpected progress output:\n%s", progress.String())
	}
}

func TestRunScenario_DivergedStepContinues(t *testing.T) {
	sc := &Scenario{Steps: []ScenarioStep{
		{Preset: "demo", Params: map[string]float64{"subdivisions": 10, "dt": 1}, MaxSteps: 1000},
		{Preset: "demo", Params: map[string]float64{"subdivisions": 10}, MaxSteps: 100},
	}}
	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Result.Reason != dynamo.StopDiverged {
		t.Errorf("first step reason = %s, want diverged", results[0].Result.Reason)
	}
	if results[1].Result.Reason != dynamo.StopMaxSteps {
		t.Errorf("second step reason = %s, want max_steps", results[1].Result.Reason)
	}
}

func TestSweepValues(t *testing.T) {
	s := &ParameterSweep{Min: 1, Max: 2, Count: 5}
	want := []float64{1, 1.25, 1.5, 1.75, 2}
	got := s.Values()
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("values[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if v := (&ParameterSweep{Min: 3, Max: 9, Count: 1}).Values(); len(v) != 1 || v[0] != 3 {
		t.Errorf("single point sweep = %v", v)
	}
}

func TestRunSweep(t *testing.T) {
	sweep := &ParameterSweep{Param: "mass", Min: 0.5, Max: 2, Count: 3, Workers: 2}
	results, err := RunSweep(context.Background(), smallBase(), sweep, experiment.NewRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Result.LowestHeight >= results[i-1].Result.LowestHeight {
			t.Errorf("heavier fiber should hang lower: %v vs %v",
				results[i].Result.LowestHeight, results[i-1].Result.LowestHeight)
		}
		if results[i].Predicted <= results[i-1].Predicted {
			t.Errorf("predicted sag should grow with mass: %v vs %v",
				results[i].Predicted, results[i-1].Predicted)
		}
	}
}

func TestRunSweep_Errors(t *testing.T) {
	reg := experiment.NewRegistry()
	if _, err := RunSweep(context.Background(), smallBase(), &ParameterSweep{Param: "colour", Count: 2}, reg, nil); err == nil {
		t.Error("expected error for unknown parameter")
	}
	if _, err := RunSweep(context.Background(), smallBase(), &ParameterSweep{Param: "k", Count: 0}, reg, nil); err == nil {
		t.Error("expected error for zero count")
	}
	bad := &ParameterSweep{Param: "subdivisions", Min: 0, Max: 4, Count: 2}
	if _, err := RunSweep(context.Background(), smallBase(), bad, reg, nil); err == nil {
		t.Error("expected error for an invalid sweep point")
	}
}

func TestRunSweep_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sweep := &ParameterSweep{Param: "k", Min: 40, Max: 60, Count: 2}
	if _, err := RunSweep(ctx, smallBase(), sweep, experiment.NewRegistry(), nil); err == nil {
		t.Error("expected cancellation error")
	}
}

func TestRunMonteCarlo(t *testing.T) {
	mc := &MonteCarloConfig{Perturbation: 0.1, NumTrials: 6, Seed: 42, Workers: 3}
	base := smallBase()
	base.Run.MaxSteps = 20000

	var progress bytes.Buffer
	results, err := RunMonteCarlo(context.Background(), base, mc, experiment.NewRegistry(), &progress)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 6 {
		t.Fatalf("got %d trials", len(results))
	}
	for _, r := range results {
		k := r.Params["k"]
		if k < 45 || k > 55 {
			t.Errorf("trial %d: k=%v outside ±10%% of 50", r.TrialID, k)
		}
	}
	if !strings.Contains(progress.String(), "6/6") {
		t.Errorf("missing final progress line:\n%s", progress.String())
	}

	stats := MonteCarloStats(results)
	if stats.Converged+stats.Diverged+stats.Unsettled != 6 {
		t.Errorf("outcome counts do not add up: %+v", stats)
	}
	if stats.Diverged != 0 {
		t.Errorf("small perturbations should not diverge: %+v", stats)
	}
	if stats.Converged > 0 && stats.Sag.Max >= 0 {
		t.Errorf("converged fibers should hang below the supports: %+v", stats.Sag)
	}
}

func TestRunMonteCarlo_Reproducible(t *testing.T) {
	mc := &MonteCarloConfig{Params: []string{"damping"}, Perturbation: 0.2, NumTrials: 2, Seed: 7}
	base := smallBase()
	base.Run.MaxSteps = 100

	a, err := RunMonteCarlo(context.Background(), base, mc, experiment.NewRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := RunMonteCarlo(context.Background(), base, mc, experiment.NewRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i].Params["damping"] != b[i].Params["damping"] {
			t.Errorf("trial %d differs between seeded runs", i)
		}
		if len(a[i].Params) != 1 {
			t.Errorf("trial %d perturbed %v", i, a[i].Params)
		}
	}
}

func TestMonteCarloStats(t *testing.T) {
	results := []MonteCarloResult{
		{Result: &dynamo.Result{Converged: true, Reason: dynamo.StopConverged, LowestHeight: -0.5}},
		{Result: &dynamo.Result{Converged: true, Reason: dynamo.StopConverged, LowestHeight: -0.7}},
		{Result: &dynamo.Result{Reason: dynamo.StopDiverged}},
		{Result: &dynamo.Result{Reason: dynamo.StopMaxSteps}},
	}
	s := MonteCarloStats(results)
	if s.Converged != 2 || s.Diverged != 1 || s.Unsettled != 1 {
		t.Errorf("counts = %+v", s)
	}
	if s.Sag.N != 2 || math.Abs(s.Sag.Mean+0.6) > 1e-12 {
		t.Errorf("sag summary = %+v", s.Sag)
	}
}
