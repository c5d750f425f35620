package config

import (
	"fmt"
	"math"
	"sort"
)

// param addresses one numeric fiber field by its file key.
type param struct {
	get func(*FiberConfig) float64
	set func(*FiberConfig, float64)
}

var params = map[string]param{
	"k": {
		func(f *FiberConfig) float64 { return f.K },
		func(f *FiberConfig, v float64) { f.K = v },
	},
	"rest_length": {
		func(f *FiberConfig) float64 { return f.RestLength },
		func(f *FiberConfig, v float64) { f.RestLength = v },
	},
	"mass": {
		func(f *FiberConfig) float64 { return f.Mass },
		func(f *FiberConfig, v float64) { f.Mass = v },
	},
	"damping": {
		func(f *FiberConfig) float64 { return f.Damping },
		func(f *FiberConfig, v float64) { f.Damping = v },
	},
	"gravity": {
		func(f *FiberConfig) float64 { return f.Gravity },
		func(f *FiberConfig, v float64) { f.Gravity = v },
	},
	"subdivisions": {
		func(f *FiberConfig) float64 { return float64(f.Subdivisions) },
		func(f *FiberConfig, v float64) { f.Subdivisions = int(math.Round(v)) },
	},
	"initial_sag": {
		func(f *FiberConfig) float64 { return f.InitialSag },
		func(f *FiberConfig, v float64) { f.InitialSag = v },
	},
	"dt": {
		func(f *FiberConfig) float64 { return f.Dt },
		func(f *FiberConfig, v float64) { f.Dt = v },
	},
	"left_x": {
		func(f *FiberConfig) float64 { return f.LeftX },
		func(f *FiberConfig, v float64) { f.LeftX = v },
	},
	"right_x": {
		func(f *FiberConfig) float64 { return f.RightX },
		func(f *FiberConfig, v float64) { f.RightX = v },
	},
}

// ParamNames lists the fiber keys accepted by Param and SetParam.
func ParamNames() []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Config) Param(name string) (float64, error) {
	p, ok := params[name]
	if !ok {
		return 0, fmt.Errorf("unknown parameter: %s", name)
	}
	return p.get(&c.Fiber), nil
}

// SetParam assigns a fiber field by key. Subdivisions are rounded to the
// nearest integer.
func (c *Config) SetParam(name string, v float64) error {
	p, ok := params[name]
	if !ok {
		return fmt.Errorf("unknown parameter: %s", name)
	}
	p.set(&c.Fiber, v)
	return nil
}
