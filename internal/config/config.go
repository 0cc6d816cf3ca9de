package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/kadanoff/internal/integration"
	"github.com/san-kum/kadanoff/internal/models/holstein"
	"github.com/san-kum/kadanoff/internal/solver"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

const (
	DefaultModel      = "holstein"
	DefaultHopping    = 1.0
	DefaultElPhG      = 0.5
	DefaultPhFreq     = 1.0
	DefaultBeta       = 10.0
	DefaultNt         = 200
	DefaultNtau       = 400
	DefaultDt         = 0.02
	DefaultSolveOrder = integration.MaxSolveOrder
	DefaultOutEvery   = 10
)

type Config struct {
	Model string `yaml:"model"`

	Hopping  float64 `yaml:"hopping"`
	ElPhG    float64 `yaml:"el_ph_g"`
	PhFreqW0 float64 `yaml:"phfreq_w0"`
	MuMF     float64 `yaml:"mu_mf"`
	Beta     float64 `yaml:"beta"`

	Nt         int     `yaml:"nt"`
	Ntau       int     `yaml:"ntau"`
	Dt         float64 `yaml:"dt"`
	SolveOrder int     `yaml:"solve_order"`
	Workers    int     `yaml:"workers,omitempty"`

	MatsTol          float64 `yaml:"mats_tol"`
	MatsMaxIter      int     `yaml:"mats_max_iter"`
	BootstrapTol     float64 `yaml:"bootstrap_tol"`
	BootstrapMaxIter int     `yaml:"bootstrap_max_iter"`
	CorrectorSteps   int     `yaml:"corrector_steps"`
	CorrectorTol     float64 `yaml:"corrector_tol,omitempty"`

	OutEvery int `yaml:"out_every"`

	DHopping Perturbation `yaml:"dhopping,omitempty"`
	DElPhG   Perturbation `yaml:"del_ph_g,omitempty"`
}

func DefaultConfig() *Config {
	opts := solver.DefaultOptions()
	return &Config{
		Model:            DefaultModel,
		Hopping:          DefaultHopping,
		ElPhG:            DefaultElPhG,
		PhFreqW0:         DefaultPhFreq,
		Beta:             DefaultBeta,
		Nt:               DefaultNt,
		Ntau:             DefaultNtau,
		Dt:               DefaultDt,
		SolveOrder:       DefaultSolveOrder,
		MatsTol:          opts.Matsubara.Tolerance,
		MatsMaxIter:      opts.Matsubara.MaxIter,
		BootstrapTol:     opts.Bootstrap.Tolerance,
		BootstrapMaxIter: opts.Bootstrap.MaxIter,
		CorrectorSteps:   opts.Corrector.Steps,
		OutEvery:         DefaultOutEvery,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
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

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	cp := *c
	cp.DHopping = c.DHopping.clone()
	cp.DElPhG = c.DElPhG.clone()
	return &cp
}

// Validate reports every invalid field, each wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Model != DefaultModel {
		bad("unknown model %q", c.Model)
	}
	if c.Beta <= 0 {
		bad("beta must be positive, got %g", c.Beta)
	}
	if c.Dt <= 0 {
		bad("dt must be positive, got %g", c.Dt)
	}
	if c.PhFreqW0 <= 0 {
		bad("phfreq_w0 must be positive, got %g", c.PhFreqW0)
	}
	if c.Hopping == 0 {
		bad("hopping must be non-zero")
	}
	if c.SolveOrder < 1 || c.SolveOrder > integration.MaxSolveOrder {
		bad("solve_order must be in [1, %d], got %d", integration.MaxSolveOrder, c.SolveOrder)
	}
	if c.Nt < c.SolveOrder {
		bad("nt=%d must be at least solve_order=%d", c.Nt, c.SolveOrder)
	}
	if c.Ntau < c.SolveOrder {
		bad("ntau=%d must be at least solve_order=%d", c.Ntau, c.SolveOrder)
	}
	if c.MatsTol <= 0 || c.BootstrapTol <= 0 {
		bad("tolerances must be positive")
	}
	if c.MatsMaxIter < 0 || c.BootstrapMaxIter < 0 {
		bad("iteration limits must be non-negative")
	}
	if c.CorrectorSteps < 1 {
		bad("corrector_steps must be at least 1, got %d", c.CorrectorSteps)
	}
	if c.CorrectorTol < 0 {
		bad("corrector_tol must be non-negative")
	}
	if c.OutEvery < 1 {
		bad("out_every must be at least 1, got %d", c.OutEvery)
	}
	if c.Workers < 0 {
		bad("workers must be non-negative")
	}
	for name, p := range map[string]Perturbation{"dhopping": c.DHopping, "del_ph_g": c.DElPhG} {
		if err := p.validate(c.Nt); err != nil {
			bad("%s: %v", name, err)
		}
	}
	return errors.Join(errs...)
}

// SolverOptions returns the convergence settings for the solver.
func (c *Config) SolverOptions() solver.Options {
	return solver.Options{
		Matsubara: solver.Convergence{Tolerance: c.MatsTol, MaxIter: c.MatsMaxIter},
		Bootstrap: solver.Convergence{Tolerance: c.BootstrapTol, MaxIter: c.BootstrapMaxIter},
		Corrector: solver.CorrectorPolicy{Steps: c.CorrectorSteps, Tolerance: c.CorrectorTol},
	}
}

// ModelParams returns the Holstein parameters with the perturbation
// vectors expanded on the time grid.
func (c *Config) ModelParams() holstein.Params {
	return holstein.Params{
		Hopping:    c.Hopping,
		Coupling:   c.ElPhG,
		PhononFreq: c.PhFreqW0,
		MuMF:       c.MuMF,
		DHopping:   c.DHopping.Vector(c.Nt, c.Dt),
		DCoupling:  c.DElPhG.Vector(c.Nt, c.Dt),
	}
}
