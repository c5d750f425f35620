package sim

import (
	"context"
	"errors"
	"sync"

	"github.com/san-kum/fibersag/internal/dynamo"
	"github.com/san-kum/fibersag/internal/physics"
)

// Ensemble runs independent chains concurrently with a shared run config.
// Each chain gets its own Simulator; nothing is shared between goroutines.
type Ensemble struct {
	cfg     dynamo.Config
	workers int
	metrics func() []dynamo.Metric
}

// NewEnsemble limits concurrency to workers runs at a time; 0 means
// GOMAXPROCS.
func NewEnsemble(cfg dynamo.Config, workers int) *Ensemble {
	return &Ensemble{cfg: cfg, workers: dynamo.Workers(workers)}
}

// WithMetrics installs a factory called once per run, so metric state is
// never shared.
func (e *Ensemble) WithMetrics(fn func() []dynamo.Metric) *Ensemble {
	e.metrics = fn
	return e
}

// Run returns one result per chain, in order. A run that diverges still
// has its partial result; the returned error joins every run error.
func (e *Ensemble) Run(ctx context.Context, chains []*physics.Chain) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(chains))
	errs := make([]error, len(chains))
	sem := make(chan struct{}, e.workers)

	var wg sync.WaitGroup
	for i, chain := range chains {
		wg.Add(1)
		go func(idx int, c *physics.Chain) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			s := New(c, e.cfg)
			if e.metrics != nil {
				for _, m := range e.metrics() {
					s.AddMetric(m)
				}
			}
			results[idx], errs[idx] = s.Run(ctx)
		}(i, chain)
	}

	wg.Wait()

	return results, errors.Join(errs...)
}
