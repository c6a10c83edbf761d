package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/markovsim/internal/arrays"
	"github.com/san-kum/markovsim/internal/markov"
)

const (
	DefaultCutoff   = markov.DefaultCutoff
	DefaultMachines = 10
	DefaultSteps    = 10000
	DefaultLogLevel = "info"
)

type Config struct {
	Name             string        `yaml:"name"`
	InitialState     markov.State  `yaml:"initial_state"`
	RateMatrix       [][]float64   `yaml:"rate_matrix"`
	RateCoefficients *TensorConfig `yaml:"rate_coefficients,omitempty"`
	CtrlParams       []float64     `yaml:"ctrl_params"`
	Cutoff           float64       `yaml:"cutoff"`
	Machines         int           `yaml:"machines"`
	Workers          int           `yaml:"workers"`
	Seed             uint64        `yaml:"seed"`
	Steps            int           `yaml:"steps"`
	LogLevel         string        `yaml:"log_level"`
}

// TensorConfig is a rate-coefficient tensor in flat row-major form.
type TensorConfig struct {
	Shape []int     `yaml:"shape"`
	Data  []float64 `yaml:"data,flow"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:       "two_state",
		RateMatrix: [][]float64{{-1, 1}, {1, -1}},
		Cutoff:     DefaultCutoff,
		Machines:   DefaultMachines,
		Steps:      DefaultSteps,
		LogLevel:   DefaultLogLevel,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Matrix() (*arrays.Array2D, error) {
	return arrays.FromRows(c.RateMatrix)
}

// Tensor returns nil when no coefficients are configured.
func (c *Config) Tensor() (*arrays.Array4D, error) {
	if c.RateCoefficients == nil {
		return nil, nil
	}
	if len(c.RateCoefficients.Shape) != 4 {
		return nil, fmt.Errorf("rate_coefficients.shape: expected 4 dimensions, got %d", len(c.RateCoefficients.Shape))
	}
	var shape [4]int
	copy(shape[:], c.RateCoefficients.Shape)
	return arrays.New4D(c.RateCoefficients.Data, shape)
}

// NewStepper builds a fresh stepper from the configured rates.
func (c *Config) NewStepper() (markov.Stepper, error) {
	matrix, err := c.Matrix()
	if err != nil {
		return nil, fmt.Errorf("rate_matrix: %w", err)
	}
	tensor, err := c.Tensor()
	if err != nil {
		return nil, fmt.Errorf("rate_coefficients: %w", err)
	}
	return markov.NewStepper(c.InitialState, matrix, tensor)
}

// NewMachine builds a fresh stepper and cutoff accumulator pair.
func (c *Config) NewMachine() (*markov.Machine, error) {
	stepper, err := c.NewStepper()
	if err != nil {
		return nil, err
	}
	acc, err := markov.NewCutoffAccumulator(c.Cutoff)
	if err != nil {
		return nil, err
	}
	return markov.NewMachine(stepper, acc), nil
}

// Validate checks everything a run needs without stepping.
func (c *Config) Validate() error {
	stepper, err := c.NewStepper()
	if err != nil {
		return err
	}
	if p, ok := stepper.(*markov.ParametrizedRateStepper); ok && len(c.CtrlParams) != p.NumParams() {
		return fmt.Errorf("ctrl_params: expected %d value(s), got %d", p.NumParams(), len(c.CtrlParams))
	}
	if err := markov.ValidateCutoff(c.Cutoff); err != nil {
		return err
	}
	if c.Machines < 1 {
		return fmt.Errorf("machines must be positive, got %d", c.Machines)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Steps < 0 {
		return fmt.Errorf("steps must not be negative, got %d", c.Steps)
	}
	return nil
}

// BatchParams repeats the configured control parameters once per machine.
func (c *Config) BatchParams() [][]float64 {
	out := make([][]float64, c.Machines)
	for i := range out {
		out[i] = c.CtrlParams
	}
	return out
}

// EffectiveRates is the rate matrix the stepper races with under the
// configured control parameters.
func (c *Config) EffectiveRates() (*arrays.Array2D, error) {
	stepper, err := c.NewStepper()
	if err != nil {
		return nil, err
	}
	if p, ok := stepper.(*markov.ParametrizedRateStepper); ok {
		return p.Rates(c.CtrlParams)
	}
	return c.Matrix()
}

// Clone returns a deep copy; slices and the coefficient tensor are not shared.
func (c *Config) Clone() *Config {
	out := *c
	if c.RateMatrix != nil {
		out.RateMatrix = make([][]float64, len(c.RateMatrix))
		for i, row := range c.RateMatrix {
			out.RateMatrix[i] = append([]float64(nil), row...)
		}
	}
	if c.CtrlParams != nil {
		out.CtrlParams = append([]float64(nil), c.CtrlParams...)
	}
	if c.RateCoefficients != nil {
		out.RateCoefficients = &TensorConfig{
			Shape: append([]int(nil), c.RateCoefficients.Shape...),
			Data:  append([]float64(nil), c.RateCoefficients.Data...),
		}
	}
	return &out
}
