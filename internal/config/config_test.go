package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != "holstein" {
		t.Errorf("expected model holstein, got %s", cfg.Model)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestPresetsValid(t *testing.T) {
	for _, name := range ListPresets("holstein") {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset("holstein", name)
			if err := cfg.Validate(); err != nil {
				t.Errorf("preset %s invalid: %v", name, err)
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("holstein", "quench")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.DElPhG.Ramp == nil || cfg.DElPhG.Ramp.Amplitude != 0.3 {
		t.Errorf("unexpected quench perturbation %+v", cfg.DElPhG)
	}

	cfg.DElPhG.Ramp.Amplitude = 9
	if GetPreset("holstein", "quench").DElPhG.Ramp.Amplitude != 0.3 {
		t.Error("GetPreset returned a shared config")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("holstein", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "weak") != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("holstein")
	want := []string{"quench", "ramp", "weak"}
	if len(presets) != len(want) {
		t.Fatalf("expected %v, got %v", want, presets)
	}
	for i := range want {
		if presets[i] != want[i] {
			t.Errorf("preset %d = %s, want %s", i, presets[i], want[i])
		}
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"beta", func(c *Config) { c.Beta = 0 }},
		{"dt", func(c *Config) { c.Dt = -1 }},
		{"order", func(c *Config) { c.SolveOrder = 6 }},
		{"nt below order", func(c *Config) { c.Nt = 3 }},
		{"ntau below order", func(c *Config) { c.Ntau = 2 }},
		{"model", func(c *Config) { c.Model = "hubbard" }},
		{"corrector", func(c *Config) { c.CorrectorSteps = 0 }},
		{"out every", func(c *Config) { c.OutEvery = 0 }},
		{"vector length", func(c *Config) { c.DHopping = Perturbation{Values: []float64{1, 2}} }},
		{"ramp shape", func(c *Config) { c.DElPhG = Perturbation{Ramp: &Ramp{Shape: "cubic"}} }},
		{"ramp duration", func(c *Config) { c.DElPhG = Perturbation{Ramp: &Ramp{Shape: ShapeLinear}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	cfg := GetPreset("holstein", "ramp")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.DHopping.Ramp == nil || *got.DHopping.Ramp != *cfg.DHopping.Ramp {
		t.Errorf("ramp lost in round trip: %+v", got.DHopping)
	}
	if !got.DElPhG.IsZero() {
		t.Errorf("expected empty del_ph_g, got %+v", got.DElPhG)
	}
	if got.Nt != cfg.Nt || got.Beta != cfg.Beta {
		t.Errorf("scalars lost in round trip")
	}
}

func TestLoadPerturbationForms(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	data := []byte(`
nt: 5
solve_order: 5
dhopping: [0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6]
del_ph_g:
  shape: linear
  amplitude: 1
  duration: 0.1
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Model != DefaultModel || cfg.Beta != DefaultBeta {
		t.Error("defaults not applied to missing fields")
	}
	p := cfg.ModelParams()
	if len(p.DHopping) != 7 || p.DHopping[6] != 0.6 {
		t.Errorf("unexpected dhopping %v", p.DHopping)
	}
	// dt = 0.02: t_n = 0, 0.02, ..., 0.1 ramps linearly to 1.
	want := []float64{0, 0, 0.2, 0.4, 0.6, 0.8, 1}
	for i, w := range want {
		if math.Abs(p.DCoupling[i]-w) > 1e-12 {
			t.Errorf("del_ph_g[%d] = %g, want %g", i, p.DCoupling[i], w)
		}
	}
}

func TestLoadRejectsScalarPerturbation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("dhopping: 0.5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRampShapes(t *testing.T) {
	tests := []struct {
		ramp Ramp
		t    float64
		want float64
	}{
		{Ramp{Shape: ShapeStep, Amplitude: 2, Start: 1}, 0.5, 0},
		{Ramp{Shape: ShapeStep, Amplitude: 2, Start: 1}, 1, 2},
		{Ramp{Shape: ShapeLinear, Amplitude: 2, Duration: 4}, 1, 0.5},
		{Ramp{Shape: ShapeLinear, Amplitude: 2, Duration: 4}, 10, 2},
		{Ramp{Shape: ShapePulse, Amplitude: 1, Duration: 2}, 1, 1},
		{Ramp{Shape: ShapePulse, Amplitude: 1, Duration: 2}, 3, 0},
	}
	for _, tt := range tests {
		if got := tt.ramp.At(tt.t); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s ramp at %g = %g, want %g", tt.ramp.Shape, tt.t, got, tt.want)
		}
	}
}

func TestSolverOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CorrectorTol = 1e-6
	opts := cfg.SolverOptions()
	if opts.Corrector.Steps != cfg.CorrectorSteps || opts.Corrector.Tolerance != 1e-6 {
		t.Errorf("unexpected corrector policy %+v", opts.Corrector)
	}
	if opts.Matsubara.MaxIter != cfg.MatsMaxIter {
		t.Errorf("unexpected matsubara limits %+v", opts.Matsubara)
	}
}
