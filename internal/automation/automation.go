package automation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fibersag/internal/analysis"
	"github.com/san-kum/fibersag/internal/config"
	"github.com/san-kum/fibersag/internal/dynamo"
	"github.com/san-kum/fibersag/internal/experiment"
	"github.com/san-kum/fibersag/internal/physics"
	"github.com/san-kum/fibersag/internal/sim"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run: a preset with parameter overrides.
type ScenarioStep struct {
	Preset   string             `yaml:"preset"`
	Params   map[string]float64 `yaml:"params"`
	MaxSteps int                `yaml:"max_steps"`
	Duration float64            `yaml:"duration"`
	Metrics  []string           `yaml:"metrics"`
	SaveAs   string             `yaml:"save_as"`
}

// StepResult pairs a scenario step with its outcome.
type StepResult struct {
	Step   ScenarioStep
	Config *config.Config
	Result *dynamo.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// Config resolves the step's preset and overrides.
func (s ScenarioStep) Config() (*config.Config, error) {
	name := s.Preset
	if name == "" {
		name = "demo"
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s", name)
	}
	for k, v := range s.Params {
		if err := cfg.SetParam(k, v); err != nil {
			return nil, err
		}
	}
	if s.MaxSteps > 0 {
		cfg.Run.MaxSteps = s.MaxSteps
	}
	if s.Duration > 0 {
		cfg.Run.Duration = s.Duration
	}
	return cfg, nil
}

// RunScenario executes all steps in order. A diverged step is recorded and
// the scenario continues; any other error stops it. Progress lines go to
// progress when it is non-nil.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, progress io.Writer) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		logf(progress, "Running step %d/%d: %s\n", i+1, len(scenario.Steps), step.Preset)

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		metrics, err := registry.Metrics(step.Metrics...)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(cfg)
		if err := exp.Setup(metrics); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil && !errors.Is(err, dynamo.ErrDivergence) {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Step: step, Config: cfg, Result: result})
	}

	return results, nil
}

// ParameterSweep runs simulations across a range of parameter values
type ParameterSweep struct {
	Param   string
	Min     float64
	Max     float64
	Count   int
	Workers int // concurrent runs, 0 = GOMAXPROCS
}

// Values returns Count evenly spaced values from Min to Max.
func (s *ParameterSweep) Values() []float64 {
	if s.Count <= 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.Count-1)
	out := make([]float64, s.Count)
	for i := range out {
		out[i] = s.Min + float64(i)*step
	}
	out[len(out)-1] = s.Max
	return out
}

// SweepResult holds one sweep point. Predicted is the continuum catenary
// sag; it is NaN when no equilibrium exists.
type SweepResult struct {
	Value     float64
	Result    *dynamo.Result
	Predicted float64
}

// RunSweep varies one fiber parameter of base and runs every point
// concurrently.
func RunSweep(ctx context.Context, base *config.Config, sweep *ParameterSweep, registry *experiment.Registry, progress io.Writer) ([]SweepResult, error) {
	if sweep.Count < 1 {
		return nil, fmt.Errorf("sweep count must be at least 1, got %d", sweep.Count)
	}
	if _, err := base.Param(sweep.Param); err != nil {
		return nil, err
	}

	values := sweep.Values()
	cfgs := make([]*config.Config, len(values))
	for i, v := range values {
		cfg := base.Clone()
		_ = cfg.SetParam(sweep.Param, v)
		// dt depends on stiffness, mass and resolution
		if sweep.Param != "dt" {
			cfg.Fiber.Dt = 0
		}
		cfgs[i] = cfg
	}

	results, err := runAll(ctx, cfgs, sweep.Workers, registry)
	if err != nil {
		return nil, err
	}

	out := make([]SweepResult, len(values))
	for i, v := range values {
		out[i] = SweepResult{Value: v, Result: results[i], Predicted: predict(cfgs[i].Params())}
		logf(progress, "Sweep %d/%d: %s=%.4g %s\n", i+1, len(values), sweep.Param, v, results[i].Reason)
	}
	return out, nil
}

func predict(p physics.Params) float64 {
	c, err := analysis.PredictSag(p)
	if err != nil {
		return math.NaN()
	}
	return c.Sag
}

// MonteCarloConfig perturbs the named parameters of a base configuration by
// a uniform relative amount in [-Perturbation, +Perturbation].
type MonteCarloConfig struct {
	Params       []string
	Perturbation float64
	NumTrials    int
	Seed         int64 // 0 seeds from the clock
	Workers      int
}

// MonteCarloResult holds one trial.
type MonteCarloResult struct {
	TrialID int
	Params  map[string]float64
	Result  *dynamo.Result
}

// Converged reports whether the trial settled.
func (r MonteCarloResult) Converged() bool { return r.Result != nil && r.Result.Converged }

// Diverged reports whether the trial blew up.
func (r MonteCarloResult) Diverged() bool {
	return r.Result != nil && r.Result.Reason == dynamo.StopDiverged
}

// RunMonteCarlo executes multiple trials with random perturbations
func RunMonteCarlo(ctx context.Context, base *config.Config, cfg *MonteCarloConfig, registry *experiment.Registry, progress io.Writer) ([]MonteCarloResult, error) {
	if cfg.NumTrials < 1 {
		return nil, fmt.Errorf("trials must be at least 1, got %d", cfg.NumTrials)
	}
	names := cfg.Params
	if len(names) == 0 {
		names = []string{"k", "mass", "damping"}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	cfgs := make([]*config.Config, cfg.NumTrials)
	trials := make([]MonteCarloResult, cfg.NumTrials)
	for trial := range cfgs {
		c := base.Clone()
		c.Fiber.Dt = 0
		perturbed := make(map[string]float64, len(names))
		for _, name := range names {
			v, err := c.Param(name)
			if err != nil {
				return nil, err
			}
			v *= 1 + (rng.Float64()-0.5)*2*cfg.Perturbation
			_ = c.SetParam(name, v)
			perturbed[name], _ = c.Param(name)
		}
		cfgs[trial] = c
		trials[trial] = MonteCarloResult{TrialID: trial, Params: perturbed}
	}

	results, err := runAll(ctx, cfgs, cfg.Workers, registry)
	if err != nil {
		return nil, err
	}
	for i := range trials {
		trials[i].Result = results[i]
		if (i+1)%10 == 0 || i+1 == len(trials) {
			logf(progress, "Monte Carlo: %d/%d trials complete\n", i+1, len(trials))
		}
	}
	return trials, nil
}

// MonteCarloSummary counts outcomes and summarizes the final lowest height
// of the converged trials.
type MonteCarloSummary struct {
	Converged int
	Diverged  int
	Unsettled int
	Sag       analysis.Summary
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) MonteCarloSummary {
	var s MonteCarloSummary
	var heights []dynamo.Sample
	for _, r := range results {
		switch {
		case r.Diverged():
			s.Diverged++
		case r.Converged():
			s.Converged++
			heights = append(heights, dynamo.Sample{Step: r.Result.Steps, Time: r.Result.Time, Height: r.Result.LowestHeight})
		default:
			s.Unsettled++
		}
	}
	s.Sag = analysis.Summarize(heights)
	return s
}

// runAll builds every chain and runs them on an ensemble. Divergence is a
// per-run outcome; only setup failures and cancellation are errors.
func runAll(ctx context.Context, cfgs []*config.Config, workers int, registry *experiment.Registry) ([]*dynamo.Result, error) {
	chains := make([]*physics.Chain, len(cfgs))
	for i, cfg := range cfgs {
		c, err := cfg.NewChain()
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i+1, err)
		}
		chains[i] = c
	}

	ens := sim.NewEnsemble(cfgs[0].RunConfig(), workers).WithMetrics(registry.DefaultMetrics)
	results, err := ens.Run(ctx, chains)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	for i, r := range results {
		if r == nil {
			return nil, fmt.Errorf("run %d: %w", i+1, err)
		}
	}
	return results, nil
}

func logf(w io.Writer, format string, args ...any) {
	if w != nil {
		fmt.Fprintf(w, format, args...)
	}
}
