package dynamo

import "fmt"

// Node is a point mass. It carries kinematic state only; forces live in
// the chain's accumulation buffer.
type Node struct {
	Position Vector2D
	Velocity Vector2D
	Mass     float64
}

func (n Node) IsFinite() bool {
	return n.Position.IsFinite() && n.Velocity.IsFinite()
}

// KineticEnergy returns 0.5*m*|v|^2.
func (n Node) KineticEnergy() float64 {
	return 0.5 * n.Mass * n.Velocity.Mag2()
}

// Snapshot is a read-only copy of the chain taken between steps.
type Snapshot struct {
	Step          int
	Time          float64
	Positions     []Vector2D
	Velocities    []Vector2D
	LowestHeight  float64
	KineticEnergy float64
}

func (s Snapshot) Clone() Snapshot {
	c := s
	c.Positions = append([]Vector2D(nil), s.Positions...)
	c.Velocities = append([]Vector2D(nil), s.Velocities...)
	return c
}

// Metric accumulates a scalar over sampled snapshots.
type Metric interface {
	Name() string
	Observe(s Snapshot)
	Value() float64
	Reset()
}

// Observer is notified at every sample point. The snapshot is only valid
// for the duration of the call.
type Observer interface {
	OnSample(s Snapshot)
}

// StopReason records why a run ended.
type StopReason string

const (
	StopConverged StopReason = "converged"
	StopMaxSteps  StopReason = "max_steps"
	StopDuration  StopReason = "duration"
	StopCanceled  StopReason = "canceled"
	StopDiverged  StopReason = "diverged"
	StopCallback  StopReason = "callback"
)

// Config controls a simulation run. It never carries physical constants;
// those are fixed when the chain is built.
type Config struct {
	MaxSteps    int     // 0 = unlimited
	Duration    float64 // simulated seconds, 0 = unlimited
	SampleEvery int     // steps between samples of the lowest height
	Window      int     // convergence window size in samples
	Threshold   float64 // stddev threshold, in scaled height units
	HeightScale float64 // multiplier applied to heights before sampling (1000 = mm)
	// RunToLimit keeps stepping after convergence until MaxSteps/Duration.
	RunToLimit bool
}

func DefaultConfig() Config {
	return Config{
		MaxSteps:    5_000_000,
		SampleEvery: 100,
		Window:      20,
		Threshold:   0.01,
		HeightScale: 1000,
	}
}

// Sample is one observation of the lowest node height.
type Sample struct {
	Step   int     `json:"step"`
	Time   float64 `json:"time"`
	Height float64 `json:"height"`
}

type Result struct {
	Steps        int
	Time         float64
	Converged    bool
	Reason       StopReason
	LowestHeight float64
	StdDev       float64
	Heights      []Sample
	Final        Snapshot
	Metrics      map[string]float64
}

func (r *Result) String() string {
	return fmt.Sprintf("%s after %d steps (t=%.4fs): lowest=%.6f stddev=%.6g",
		r.Reason, r.Steps, r.Time, r.LowestHeight, r.StdDev)
}
