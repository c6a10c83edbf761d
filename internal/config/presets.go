package config

import "sort"

var Presets = map[string]*Config{
	"two_state": {
		Name:       "two_state",
		RateMatrix: [][]float64{{-1, 1}, {1, -1}},
		Cutoff:     10, Machines: DefaultMachines, Steps: DefaultSteps,
	},
	"three_state": {
		Name:       "three_state",
		RateMatrix: [][]float64{{-1, 0.5, 1}, {1.5, -1, 2}, {2.5, 3.5, -1}},
		Cutoff:     5, Machines: DefaultMachines, Steps: DefaultSteps,
	},
	// State 3 cannot be left; long accumulations end in a stopped machine.
	"absorbing": {
		Name: "absorbing",
		RateMatrix: [][]float64{
			{-1, 1, -1, -1},
			{0.5, -1, 1, -1},
			{-1, 0.5, -1, 0.25},
			{-1, -1, -1, -1},
		},
		Cutoff: 2, Machines: DefaultMachines, Steps: 100,
	},
	// Ground (0), excited (1) and dark (2) states driven by a laser intensity.
	// Excitation, relaxation and recovery are linear in the intensity, the
	// dark-state crossing is quadratic.
	"fluorophore": {
		Name: "fluorophore",
		RateMatrix: [][]float64{
			{-1, 5, -1},
			{2, -1, 0.5},
			{0.2, -1, -1},
		},
		RateCoefficients: &TensorConfig{
			Shape: []int{1, 2, 3, 3},
			Data: []float64{
				-1, 5, -1, 2, -1, 0, 0.2, -1, -1,
				0, 0, 0, 0, 0, 0.5, 0, 0, 0,
			},
		},
		CtrlParams: []float64{1},
		Cutoff:     10, Machines: DefaultMachines, Steps: DefaultSteps,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := cfg.Clone()
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	return c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
