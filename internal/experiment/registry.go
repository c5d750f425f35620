package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/fibersag/internal/dynamo"
	"github.com/san-kum/fibersag/internal/metrics"
)

// Registry maps metric names to constructors so runs can be configured by
// name from the CLI and scenario files.
type Registry struct {
	metrics map[string]func() dynamo.Metric
}

// SettleBand is how close, in metres, a sampled lowest height must be to the
// final one to count as settled.
const SettleBand = 1e-3

func NewRegistry() *Registry {
	r := &Registry{
		metrics: make(map[string]func() dynamo.Metric),
	}

	r.metrics["kinetic_energy"] = func() dynamo.Metric { return metrics.NewKineticEnergy() }
	r.metrics["overshoot"] = func() dynamo.Metric { return metrics.NewOvershoot() }
	r.metrics["stability"] = func() dynamo.Metric { return metrics.NewStability(SettleBand) }

	return r
}

func (r *Registry) GetMetric(name string) (dynamo.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

// Metrics builds fresh instances of the named metrics; no names means all.
func (r *Registry) Metrics(names ...string) ([]dynamo.Metric, error) {
	if len(names) == 0 {
		names = r.ListMetrics()
	}
	out := make([]dynamo.Metric, 0, len(names))
	for _, name := range names {
		m, err := r.GetMetric(name)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns one fresh instance of every registered metric.
func (r *Registry) DefaultMetrics() []dynamo.Metric {
	ms, _ := r.Metrics()
	return ms
}
