package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/fibersag/internal/config"
	"github.com/san-kum/fibersag/internal/dynamo"
	"github.com/san-kum/fibersag/internal/sim"
)

// Experiment is one configured run: a chain built from a config plus the
// simulator that drives it.
type Experiment struct {
	cfg       *config.Config
	simulator *sim.Simulator
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg.Clone()}
}

// Setup builds the chain and attaches metrics and observers.
func (e *Experiment) Setup(metrics []dynamo.Metric, observers ...dynamo.Observer) error {
	chain, err := e.cfg.NewChain()
	if err != nil {
		return err
	}
	e.simulator = sim.New(chain, e.cfg.RunConfig())
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	for _, o := range observers {
		e.simulator.AddObserver(o)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx)
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Simulator returns the underlying simulator for adding observers
func (e *Experiment) Simulator() *sim.Simulator {
	return e.simulator
}
