package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/kadanoff/internal/compute"
	"github.com/san-kum/kadanoff/internal/config"
	"github.com/san-kum/kadanoff/internal/contour"
	"github.com/san-kum/kadanoff/internal/dyson"
	"github.com/san-kum/kadanoff/internal/integration"
	"github.com/san-kum/kadanoff/internal/logging"
	"github.com/san-kum/kadanoff/internal/models/holstein"
	"github.com/san-kum/kadanoff/internal/solver"
	"github.com/san-kum/kadanoff/internal/storage"
	"github.com/san-kum/kadanoff/internal/tui"
)

// overrides copies the value of each changed run flag from src into dst.
var overrides = map[string]func(dst, src *config.Config){
	"hopping":         func(d, s *config.Config) { d.Hopping = s.Hopping },
	"g":               func(d, s *config.Config) { d.ElPhG = s.ElPhG },
	"w0":              func(d, s *config.Config) { d.PhFreqW0 = s.PhFreqW0 },
	"mu":              func(d, s *config.Config) { d.MuMF = s.MuMF },
	"beta":            func(d, s *config.Config) { d.Beta = s.Beta },
	"nt":              func(d, s *config.Config) { d.Nt = s.Nt },
	"ntau":            func(d, s *config.Config) { d.Ntau = s.Ntau },
	"dt":              func(d, s *config.Config) { d.Dt = s.Dt },
	"order":           func(d, s *config.Config) { d.SolveOrder = s.SolveOrder },
	"workers":         func(d, s *config.Config) { d.Workers = s.Workers },
	"corrector-steps": func(d, s *config.Config) { d.CorrectorSteps = s.CorrectorSteps },
	"corrector-tol":   func(d, s *config.Config) { d.CorrectorTol = s.CorrectorTol },
	"out-every":       func(d, s *config.Config) { d.OutEvery = s.OutEvery },
}

// resolveConfig layers defaults, the preset, the config file and changed
// flags, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		p := config.GetPreset(config.DefaultModel, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(config.DefaultModel))
		}
		cfg = p
	}
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	}
	for name, apply := range overrides {
		if cmd.Flags().Changed(name) {
			apply(cfg, flagCfg)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// solution is a finished calculation ready to be stored.
type solution struct {
	cfg     *config.Config
	model   *holstein.Model
	problem *solver.Problem
	result  *solver.Result
}

// solve runs the full pipeline for cfg without touching the data directory.
func solve(ctx context.Context, cfg *config.Config, logger *logging.Logger, observers ...solver.Observer) (*solution, error) {
	in, err := integration.New(cfg.SolveOrder)
	if err != nil {
		return nil, err
	}
	backend := compute.GetBackend()
	if cfg.Workers > 0 {
		backend = compute.NewCPUBackendN(cfg.Workers)
	}
	engine := dyson.New(in, cfg.Beta, cfg.Dt).WithBackend(backend)

	model, err := holstein.New(cfg.ModelParams(), engine, cfg.Nt, cfg.Ntau)
	if err != nil {
		return nil, err
	}
	p, err := model.NewProblem()
	if err != nil {
		return nil, err
	}

	s := solver.New(engine, cfg.SolverOptions()).WithLogger(logger)
	for _, o := range observers {
		s.AddObserver(o)
	}
	logger.Info("solve started",
		"nt", cfg.Nt, "ntau", cfg.Ntau, "k", cfg.SolveOrder,
		"beta", cfg.Beta, "dt", cfg.Dt, "backend", backend.Name(), "workers", backend.Workers())
	res, err := s.Run(ctx, p)
	if err != nil {
		return nil, err
	}
	logger.Info("solve finished",
		"timesteps", res.Timesteps,
		"matsubara_iter", res.Matsubara.Iterations,
		"bootstrap_iter", res.Bootstrap.Iterations,
		"corrector_passes", res.Propagation.Iterations)
	return &solution{cfg: cfg, model: model, problem: p, result: res}, nil
}

// persist writes a solved calculation into a new run directory.
func persist(st *storage.Store, presetName string, sol *solution) (*storage.Run, error) {
	cfg := sol.cfg
	if err := st.Init(); err != nil {
		return nil, err
	}
	run, err := st.Create(cfg.Model)
	if err != nil {
		return nil, err
	}

	phase := func(ps solver.PhaseStats) storage.PhaseSummary {
		return storage.PhaseSummary{Iterations: ps.Iterations, Residual: ps.Residual, Seconds: ps.Duration.Seconds()}
	}
	meta := storage.RunMetadata{
		ID:         run.ID,
		Model:      cfg.Model,
		Preset:     presetName,
		Timestamp:  time.Now(),
		Nt:         cfg.Nt,
		Ntau:       cfg.Ntau,
		Beta:       cfg.Beta,
		Dt:         cfg.Dt,
		SolveOrder: cfg.SolveOrder,
		OutEvery:   cfg.OutEvery,
		Params: map[string]float64{
			"hopping":   cfg.Hopping,
			"el_ph_g":   cfg.ElPhG,
			"phfreq_w0": cfg.PhFreqW0,
			"mu_mf":     cfg.MuMF,
			"mu_chem":   sol.model.MuChem(),
		},
		Phases: map[string]storage.PhaseSummary{
			string(solver.PhaseMatsubara):   phase(sol.result.Matsubara),
			string(solver.PhaseBootstrap):   phase(sol.result.Bootstrap),
			string(solver.PhasePropagation): phase(sol.result.Propagation),
		},
	}
	if err := run.SaveRun(meta); err != nil {
		return nil, err
	}
	if err := store(run, sol); err != nil {
		return nil, err
	}
	return run, nil
}

// store writes observables and Green's function slices to sink.
func store(sink storage.Sink, sol *solution) error {
	obs := sol.model.Observables(sol.problem.G)
	rows := make([][]float64, len(obs))
	for i, o := range obs {
		rows[i] = o.Row()
	}
	if err := sink.WriteObservables(holstein.Columns, rows); err != nil {
		return err
	}
	stride := sol.cfg.OutEvery
	greens := []struct {
		name string
		g    *contour.HermMatrix
	}{
		{"G", sol.problem.G},
		{"D0", sol.model.D0},
	}
	for _, gf := range greens {
		if err := sink.WriteSlices(gf.name, gf.g, stride); err != nil {
			return err
		}
		if err := sink.WriteTavTrel(gf.name, gf.g, stride); err != nil {
			return err
		}
	}
	return nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var sol *solution
	if useTUI {
		logger, err := logging.NewLogger(dataDir, logLevel)
		if err != nil {
			return err
		}
		defer logger.Close()
		title := "k a d a n o f f"
		err = tui.RunWithProgress(ctx, title, cfg.Nt, cfg.SolveOrder, func(ctx context.Context, obs solver.Observer) error {
			var err error
			sol, err = solve(ctx, cfg, logger, obs)
			return err
		})
		if err != nil {
			return err
		}
	} else {
		logger, err := logging.NewLogger("", logLevel)
		if err != nil {
			return err
		}
		defer logger.Close()
		sol, err = solve(ctx, cfg, logger)
		if err != nil {
			return err
		}
	}

	run, err := persist(storage.New(dataDir), preset, sol)
	if err != nil {
		return err
	}
	res := sol.result
	fmt.Print(tui.Summary("run "+run.ID, [][2]string{
		{"directory", run.Dir()},
		{"timesteps", strconv.Itoa(res.Timesteps)},
		{"matsubara", fmt.Sprintf("%d iter, err %.2e", res.Matsubara.Iterations, res.Matsubara.Residual)},
		{"bootstrap", fmt.Sprintf("%d iter, err %.2e", res.Bootstrap.Iterations, res.Bootstrap.Residual)},
		{"propagation", fmt.Sprintf("%d passes, %s", res.Propagation.Iterations, res.Propagation.Duration.Round(time.Millisecond))},
		{"mu_chem", strconv.FormatFloat(sol.model.MuChem(), 'g', 8, 64)},
	}))
	return nil
}
