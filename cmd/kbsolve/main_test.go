package main

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/kadanoff/internal/config"
	"github.com/san-kum/kadanoff/internal/logging"
	"github.com/san-kum/kadanoff/internal/storage"
)

func newRunCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	flagCfg = config.DefaultConfig()
	preset, configFile = "", ""
	cmd := &cobra.Command{Use: "run"}
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "")
	f.StringVar(&preset, "preset", "", "")
	f.Float64Var(&flagCfg.Beta, "beta", flagCfg.Beta, "")
	f.IntVar(&flagCfg.Nt, "nt", flagCfg.Nt, "")
	f.IntVar(&flagCfg.OutEvery, "out-every", flagCfg.OutEvery, "")
	if err := f.Parse(args); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func TestResolveConfig(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantBeta float64
		wantNt   int
		wantErr  bool
	}{
		{"defaults", nil, config.DefaultBeta, config.DefaultNt, false},
		{"flag overrides default", []string{"--beta", "4"}, 4, config.DefaultNt, false},
		{"preset", []string{"--preset", "weak"}, 10, 100, false},
		{"flag overrides preset", []string{"--preset", "weak", "--nt", "50"}, 10, 50, false},
		{"unknown preset", []string{"--preset", "nope"}, 0, 0, true},
		{"invalid value", []string{"--beta=-1"}, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := resolveConfig(newRunCmd(t, tt.args...))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Beta != tt.wantBeta || cfg.Nt != tt.wantNt {
				t.Errorf("beta=%g nt=%d, want beta=%g nt=%d", cfg.Beta, cfg.Nt, tt.wantBeta, tt.wantNt)
			}
		})
	}
}

func TestResolveConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	c := config.DefaultConfig()
	c.Beta = 7
	if err := config.Save(path, c); err != nil {
		t.Fatal(err)
	}
	cfg, err := resolveConfig(newRunCmd(t, "--config", path, "--nt", "30"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Beta != 7 || cfg.Nt != 30 {
		t.Errorf("beta=%g nt=%d, want 7 and 30", cfg.Beta, cfg.Nt)
	}
}

func TestSolveAndPersist(t *testing.T) {
	if testing.Short() {
		t.Skip("full solve")
	}
	cfg := config.DefaultConfig()
	cfg.Nt, cfg.Ntau, cfg.SolveOrder = 12, 60, 3
	cfg.Beta, cfg.Dt = 4, 0.05
	cfg.ElPhG = 0.3
	cfg.OutEvery = 4
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	sol, err := solve(context.Background(), cfg, logging.NopLogger())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.result.Timesteps != cfg.Nt+1 {
		t.Errorf("timesteps = %d, want %d", sol.result.Timesteps, cfg.Nt+1)
	}

	st := storage.New(t.TempDir())
	run, err := persist(st, "", sol)
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	meta, err := st.Load(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Nt != cfg.Nt || meta.Params["el_ph_g"] != cfg.ElPhG {
		t.Errorf("metadata = %+v", meta)
	}
	header, rows, err := st.LoadObservables(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != cfg.Nt+2 || len(header) == 0 {
		t.Errorf("observables: %d rows, header %v", len(rows), header)
	}
	for _, f := range []string{"G_slices.csv", "G_tavtrel.csv", "D0_slices.csv", "D0_tavtrel.csv"} {
		if _, err := os.Stat(filepath.Join(run.Dir(), f)); err != nil {
			t.Errorf("missing %s: %v", f, err)
		}
	}
}

func TestSolvePresetWeak(t *testing.T) {
	if testing.Short() {
		t.Skip("full solve")
	}
	cfg := config.GetPreset("holstein", "weak")
	cfg.Nt = 30
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	sol, err := solve(context.Background(), cfg, logging.NopLogger())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if sol.result.Timesteps != cfg.Nt+1 {
		t.Errorf("timesteps = %d, want %d", sol.result.Timesteps, cfg.Nt+1)
	}
	obs := sol.model.Observables(sol.problem.G)
	if len(obs) != cfg.Nt+2 {
		t.Fatalf("%d observations, want %d", len(obs), cfg.Nt+2)
	}
	for _, o := range obs {
		for i, v := range o.Row() {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("t%d: column %d is %v", o.Tstp, i, v)
			}
		}
		if o.Density < 0 || o.Density > 1 {
			t.Errorf("t%d: density %v outside [0, 1]", o.Tstp, o.Density)
		}
	}
}

func TestSolveRejectsCanceledContext(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Nt, cfg.Ntau, cfg.SolveOrder = 8, 40, 2
	cfg.Beta = 2
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := solve(ctx, cfg, logging.NopLogger()); err == nil {
		t.Error("expected an error for a canceled context")
	}
}
