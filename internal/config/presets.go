package config

import "sort"

// Presets are complete configurations keyed by name.
var Presets = map[string]*Config{
	// The reference fiber: 1000 stiff segments, almost no damping. It takes
	// a very long time to settle, so it runs without a step limit.
	"sag": {
		Fiber: FiberConfig{
			LeftX: -2, RightX: 2, K: 5000, RestLength: 4, Gravity: 9.81, Damping: 0.0001,
			Mass: 1, Subdivisions: 1000, StabilityFactor: 0.5,
		},
		Run: RunConfig{MaxSteps: 0, SampleEvery: 100, Window: 20, Threshold: 0.01, HeightScale: 1000},
	},
	"demo": {
		Fiber: FiberConfig{
			LeftX: -2, RightX: 2, K: 50, RestLength: 4, Gravity: 9.81, Damping: 0.5,
			Mass: 1, Subdivisions: 50, StabilityFactor: 0.5,
		},
		Run: RunConfig{MaxSteps: 200000, SampleEvery: 100, Window: 20, Threshold: 0.01, HeightScale: 1000},
	},
	"taut": {
		Fiber: FiberConfig{
			LeftX: -2, RightX: 2, K: 200, RestLength: 3.6, Gravity: 9.81, Damping: 0.5,
			Mass: 1, Subdivisions: 50, StabilityFactor: 0.5,
		},
		Run: RunConfig{MaxSteps: 200000, SampleEvery: 100, Window: 20, Threshold: 0.01, HeightScale: 1000},
	},
	"slack": {
		Fiber: FiberConfig{
			LeftX: -2, RightX: 2, K: 50, RestLength: 5, Gravity: 9.81, Damping: 0.5,
			Mass: 1, Subdivisions: 50, StabilityFactor: 0.5, InitialSag: 1,
		},
		Run: RunConfig{MaxSteps: 400000, SampleEvery: 100, Window: 20, Threshold: 0.01, HeightScale: 1000},
	},
	// Undamped and weightless: the middle node oscillates about the origin
	// forever, so the run is bounded by steps.
	"three-node": {
		Fiber: FiberConfig{
			LeftX: -1, RightX: 1, K: 1, RestLength: 0, Gravity: 0, Damping: 0,
			Mass: 3, Subdivisions: 2, Dt: 0.01, InitialSag: 0.3,
		},
		Run: RunConfig{MaxSteps: 1000, SampleEvery: 10, Window: 20, Threshold: 0.01, HeightScale: 1000, RunToLimit: true},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
