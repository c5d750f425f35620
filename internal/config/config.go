package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/fibersag/internal/dynamo"
	"github.com/san-kum/fibersag/internal/physics"
)

const DefaultStabilityFactor = 0.5

type Config struct {
	Fiber FiberConfig `yaml:"fiber" toml:"fiber" json:"fiber"`
	Run   RunConfig   `yaml:"run" toml:"run" json:"run"`
}

// FiberConfig holds the physical description of the fiber. A zero dt is
// replaced by StabilityFactor times the critical timestep.
type FiberConfig struct {
	LeftX           float64 `yaml:"left_x" toml:"left_x" json:"left_x"`
	RightX          float64 `yaml:"right_x" toml:"right_x" json:"right_x"`
	K               float64 `yaml:"k" toml:"k" json:"k"`
	RestLength      float64 `yaml:"rest_length" toml:"rest_length" json:"rest_length"`
	Gravity         float64 `yaml:"gravity" toml:"gravity" json:"gravity"`
	Damping         float64 `yaml:"damping" toml:"damping" json:"damping"`
	Mass            float64 `yaml:"mass" toml:"mass" json:"mass"`
	Subdivisions    int     `yaml:"subdivisions" toml:"subdivisions" json:"subdivisions"`
	Dt              float64 `yaml:"dt" toml:"dt" json:"dt"`
	StabilityFactor float64 `yaml:"stability_factor" toml:"stability_factor" json:"stability_factor"`
	InitialSag      float64 `yaml:"initial_sag" toml:"initial_sag" json:"initial_sag"`
	Integrator      string  `yaml:"integrator" toml:"integrator" json:"integrator"`
	Workers         int     `yaml:"workers" toml:"workers" json:"workers"`
}

type RunConfig struct {
	MaxSteps    int     `yaml:"max_steps" toml:"max_steps" json:"max_steps"`
	Duration    float64 `yaml:"duration" toml:"duration" json:"duration"`
	SampleEvery int     `yaml:"sample_every" toml:"sample_every" json:"sample_every"`
	Window      int     `yaml:"window" toml:"window" json:"window"`
	Threshold   float64 `yaml:"threshold" toml:"threshold" json:"threshold"`
	HeightScale float64 `yaml:"height_scale" toml:"height_scale" json:"height_scale"`
	RunToLimit  bool    `yaml:"run_to_limit" toml:"run_to_limit" json:"run_to_limit"`
}

func DefaultConfig() *Config {
	p := physics.DefaultParams()
	r := dynamo.DefaultConfig()
	return &Config{
		Fiber: FiberConfig{
			LeftX:           p.LeftX,
			RightX:          p.RightX,
			K:               p.K,
			RestLength:      p.RestLength,
			Gravity:         p.Gravity,
			Damping:         p.Damping,
			Mass:            p.TotalMass,
			Subdivisions:    p.Subdivisions,
			StabilityFactor: DefaultStabilityFactor,
			Integrator:      "symplectic-euler",
		},
		Run: RunConfig{
			MaxSteps:    r.MaxSteps,
			SampleEvery: r.SampleEvery,
			Window:      r.Window,
			Threshold:   r.Threshold,
			HeightScale: r.HeightScale,
		},
	}
}

// Load reads a YAML file, or TOML when the path ends in .toml, on top of
// the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto decodes a config file onto base. Keys absent from the file keep
// their values in base.
func LoadInto(path string, base *Config) error {
	if isTOML(path) {
		if _, err := toml.DecodeFile(path, base); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	if isTOML(path) {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := toml.NewEncoder(f).Encode(cfg); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Params converts the fiber section, filling a zero dt from the critical
// timestep.
func (c *Config) Params() physics.Params {
	f := c.Fiber
	p := physics.Params{
		LeftX:        f.LeftX,
		RightX:       f.RightX,
		K:            f.K,
		RestLength:   f.RestLength,
		Gravity:      f.Gravity,
		Damping:      f.Damping,
		Dt:           f.Dt,
		TotalMass:    f.Mass,
		Subdivisions: f.Subdivisions,
		Integrator:   f.Integrator,
		Workers:      f.Workers,
	}
	if p.Dt == 0 {
		factor := f.StabilityFactor
		if factor <= 0 {
			factor = DefaultStabilityFactor
		}
		// left at zero when there is no spring to bound it
		if dt := physics.StableTimestep(p, factor); !math.IsInf(dt, 0) {
			p.Dt = dt
		}
	}
	return p
}

func (c *Config) RunConfig() dynamo.Config {
	r := c.Run
	return dynamo.Config{
		MaxSteps:    r.MaxSteps,
		Duration:    r.Duration,
		SampleEvery: r.SampleEvery,
		Window:      r.Window,
		Threshold:   r.Threshold,
		HeightScale: r.HeightScale,
		RunToLimit:  r.RunToLimit,
	}
}

// NewChain builds the chain described by the fiber section.
func (c *Config) NewChain() (*physics.Chain, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	p := c.Params()
	if c.Fiber.InitialSag == 0 {
		return physics.NewChain(p)
	}
	return physics.NewChainFromNodes(physics.SaggedLayout(p, c.Fiber.InitialSag), p)
}

// Validate checks both sections. Physical errors wrap the dynamo sentinels.
func (c *Config) Validate() error {
	p := c.Params()
	if err := p.Validate(); err != nil {
		return err
	}
	if p.K > 0 && p.Dt > physics.CriticalTimestep(p) && c.Fiber.Dt == 0 {
		return fmt.Errorf("stability_factor %g exceeds the critical timestep", c.Fiber.StabilityFactor)
	}

	r := c.Run
	switch {
	case r.MaxSteps < 0:
		return fmt.Errorf("max_steps must be non-negative, got %d", r.MaxSteps)
	case r.Duration < 0:
		return fmt.Errorf("duration must be non-negative, got %f", r.Duration)
	case r.SampleEvery < 1:
		return fmt.Errorf("sample_every must be at least 1, got %d", r.SampleEvery)
	case r.Window < 2:
		return fmt.Errorf("window must be at least 2, got %d", r.Window)
	case r.Threshold < 0:
		return fmt.Errorf("threshold must be non-negative, got %f", r.Threshold)
	case r.HeightScale == 0:
		return fmt.Errorf("height_scale must be non-zero")
	}
	return nil
}
