package config

import "sort"

var Presets = map[string]map[string]*Config{
	"holstein": {
		"weak": {
			Model: "holstein", Hopping: 1, ElPhG: 0.3, PhFreqW0: 1, MuMF: 0, Beta: 10,
			Nt: 100, Ntau: 400, Dt: 0.02, SolveOrder: 5,
			MatsTol: 1e-8, MatsMaxIter: 200, BootstrapTol: 1e-10, BootstrapMaxIter: 100,
			CorrectorSteps: 5, OutEvery: 10,
		},
		"quench": {
			Model: "holstein", Hopping: 1, ElPhG: 0.5, PhFreqW0: 1, MuMF: -0.5, Beta: 10,
			Nt: 400, Ntau: 400, Dt: 0.02, SolveOrder: 5,
			MatsTol: 1e-8, MatsMaxIter: 200, BootstrapTol: 1e-10, BootstrapMaxIter: 100,
			CorrectorSteps: 5, OutEvery: 20,
			DElPhG: Perturbation{Ramp: &Ramp{Shape: ShapeStep, Amplitude: 0.3}},
		},
		"ramp": {
			Model: "holstein", Hopping: 1, ElPhG: 0.5, PhFreqW0: 1, MuMF: -0.5, Beta: 10,
			Nt: 400, Ntau: 400, Dt: 0.02, SolveOrder: 5,
			MatsTol: 1e-8, MatsMaxIter: 200, BootstrapTol: 1e-10, BootstrapMaxIter: 100,
			CorrectorSteps: 5, OutEvery: 20,
			DHopping: Perturbation{Ramp: &Ramp{Shape: ShapePulse, Amplitude: 0.5, Start: 0.5, Duration: 2}},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// ListPresets returns the sorted preset names of model.
func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
