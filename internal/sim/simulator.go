package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/fibersag/internal/dynamo"
	"github.com/san-kum/fibersag/internal/metrics"
	"github.com/san-kum/fibersag/internal/physics"
)

// Simulator drives a chain until its lowest point stops moving. It owns the
// chain for the duration of a run.
type Simulator struct {
	chain     *physics.Chain
	cfg       dynamo.Config
	monitor   *metrics.Convergence
	metrics   []dynamo.Metric
	observers []dynamo.Observer
	pool      *SnapshotPool
}

func New(chain *physics.Chain, cfg dynamo.Config) *Simulator {
	return &Simulator{
		chain:     chain,
		cfg:       cfg,
		monitor:   metrics.NewConvergence(cfg.Window),
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
		pool:      NewSnapshotPool(chain.Len()),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Chain() *physics.Chain { return s.chain }

func (s *Simulator) Config() dynamo.Config { return s.cfg }

// Monitor exposes the convergence window of the current or last run.
func (s *Simulator) Monitor() *metrics.Convergence { return s.monitor }

// Run steps the chain until it converges or a limit in the config is hit.
// On cancellation or divergence the partial result is returned alongside
// the error.
func (s *Simulator) Run(ctx context.Context) (*dynamo.Result, error) {
	return s.run(ctx, nil)
}

// RunWithCallback runs like Run and hands every sampled snapshot to fn.
// Returning false from fn stops the run without error. The snapshot is
// only valid for the duration of the call.
func (s *Simulator) RunWithCallback(ctx context.Context, fn func(dynamo.Snapshot) bool) error {
	_, err := s.run(ctx, fn)
	return err
}

func (s *Simulator) run(ctx context.Context, fn func(dynamo.Snapshot) bool) (*dynamo.Result, error) {
	if err := s.validateConfig(); err != nil {
		return nil, err
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	s.monitor.Reset()

	result := &dynamo.Result{
		Heights: make([]dynamo.Sample, 0, 64),
		Metrics: make(map[string]float64),
	}
	start := s.chain.Steps()
	limit := s.stepLimit()

	for {
		taken := s.chain.Steps() - start
		if limit > 0 && taken >= limit {
			result.Reason = s.limitReason(taken)
			break
		}

		select {
		case <-ctx.Done():
			s.finish(result, start, dynamo.StopCanceled)
			return result, ctx.Err()
		default:
		}

		if err := s.chain.Step(); err != nil {
			s.finish(result, start, dynamo.StopDiverged)
			return result, err
		}

		if (s.chain.Steps()-start)%s.cfg.SampleEvery != 0 {
			continue
		}

		if !s.sample(result, fn) {
			result.Reason = dynamo.StopCallback
			break
		}
		if !s.cfg.RunToLimit && s.monitor.IsConverged(s.cfg.Threshold) {
			result.Reason = dynamo.StopConverged
			break
		}
	}

	s.finish(result, start, result.Reason)
	return result, nil
}

// sample records the lowest height and notifies metrics, observers and fn.
func (s *Simulator) sample(result *dynamo.Result, fn func(dynamo.Snapshot) bool) bool {
	snap := s.pool.Get()
	defer s.pool.Put(snap)
	s.chain.SnapshotInto(snap)

	h := snap.LowestHeight * s.cfg.HeightScale
	s.monitor.Observe(h)
	result.Heights = append(result.Heights, dynamo.Sample{
		Step:   snap.Step,
		Time:   snap.Time,
		Height: h,
	})

	for _, m := range s.metrics {
		m.Observe(*snap)
	}
	for _, obs := range s.observers {
		obs.OnSample(*snap)
	}
	if fn != nil {
		return fn(*snap)
	}
	return true
}

func (s *Simulator) finish(result *dynamo.Result, start int, reason dynamo.StopReason) {
	result.Reason = reason
	result.Steps = s.chain.Steps() - start
	result.Time = s.chain.Time()
	result.LowestHeight = s.chain.LowestHeight()
	result.StdDev = s.monitor.StdDev()
	result.Converged = s.monitor.IsConverged(s.cfg.Threshold)
	result.Final = s.chain.Snapshot()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

// stepLimit folds MaxSteps and Duration into one step count; 0 means none.
func (s *Simulator) stepLimit() int {
	limit := s.cfg.MaxSteps
	if s.cfg.Duration > 0 {
		steps := math.Ceil(s.cfg.Duration/s.chain.Dt() - 1e-9)
		byTime := math.MaxInt
		if steps < math.MaxInt {
			byTime = int(steps)
		}
		if limit == 0 || byTime < limit {
			limit = byTime
		}
	}
	return limit
}

func (s *Simulator) limitReason(taken int) dynamo.StopReason {
	if s.cfg.MaxSteps > 0 && taken >= s.cfg.MaxSteps {
		return dynamo.StopMaxSteps
	}
	return dynamo.StopDuration
}

func (s *Simulator) validateConfig() error {
	cfg := s.cfg
	if cfg.SampleEvery < 1 {
		return fmt.Errorf("sample_every must be at least 1, got %d", cfg.SampleEvery)
	}
	if cfg.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative, got %d", cfg.MaxSteps)
	}
	if cfg.Duration < 0 || math.IsNaN(cfg.Duration) {
		return fmt.Errorf("duration must be non-negative, got %f", cfg.Duration)
	}
	if cfg.Threshold < 0 || math.IsNaN(cfg.Threshold) {
		return fmt.Errorf("threshold must be non-negative, got %f", cfg.Threshold)
	}
	if cfg.HeightScale == 0 || math.IsNaN(cfg.HeightScale) {
		return fmt.Errorf("height_scale must be non-zero")
	}
	if cfg.RunToLimit && cfg.MaxSteps == 0 && cfg.Duration == 0 {
		return fmt.Errorf("run_to_limit needs max_steps or duration")
	}
	return nil
}
