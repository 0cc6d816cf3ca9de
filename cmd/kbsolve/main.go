package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/kadanoff/internal/config"
	"github.com/san-kum/kadanoff/internal/logging"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	useTUI     bool

	flagCfg = config.DefaultConfig()
)

// main registers the kbsolve commands and exits with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "kbsolve",
		Short:         "Kadanoff-Baym equation solver",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".kadanoff", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "solve the equations of motion and store the run",
		Args:  cobra.NoArgs,
		RunE:  runSolve,
	}
	f := runCmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.StringVar(&logLevel, "log-level", logging.LevelInfo, fmt.Sprintf("log level %v", logging.ValidLevels()))
	f.BoolVar(&useTUI, "tui", false, "show live progress")
	f.Float64Var(&flagCfg.Hopping, "hopping", flagCfg.Hopping, "hopping J")
	f.Float64Var(&flagCfg.ElPhG, "g", flagCfg.ElPhG, "electron-phonon coupling")
	f.Float64Var(&flagCfg.PhFreqW0, "w0", flagCfg.PhFreqW0, "phonon frequency")
	f.Float64Var(&flagCfg.MuMF, "mu", flagCfg.MuMF, "mean-field chemical potential")
	f.Float64Var(&flagCfg.Beta, "beta", flagCfg.Beta, "inverse temperature")
	f.IntVar(&flagCfg.Nt, "nt", flagCfg.Nt, "number of real-time steps")
	f.IntVar(&flagCfg.Ntau, "ntau", flagCfg.Ntau, "number of imaginary-time steps")
	f.Float64Var(&flagCfg.Dt, "dt", flagCfg.Dt, "timestep")
	f.IntVar(&flagCfg.SolveOrder, "order", flagCfg.SolveOrder, "solve order k")
	f.IntVar(&flagCfg.Workers, "workers", flagCfg.Workers, "parallel workers (0 = auto)")
	f.IntVar(&flagCfg.CorrectorSteps, "corrector-steps", flagCfg.CorrectorSteps, "corrector passes per timestep")
	f.Float64Var(&flagCfg.CorrectorTol, "corrector-tol", flagCfg.CorrectorTol, "early exit tolerance for corrector passes")
	f.IntVar(&flagCfg.OutEvery, "out-every", flagCfg.OutEvery, "stride of stored slices")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id] [columns...]",
		Short: "plot observables of a run",
		Args:  cobra.MinimumNArgs(1),
		RunE:  plotRun,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "phonon frequency and phase portrait",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	svgCmd := &cobra.Command{
		Use:   "export-svg [run_id] [column]",
		Short: "write an observable as SVG into the run directory",
		Args:  cobra.ExactArgs(2),
		RunE:  exportSVG,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model := config.DefaultModel
			if len(args) > 0 {
				model = args[0]
			}
			presets := config.ListPresets(model)
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", model)
				return nil
			}
			fmt.Printf("presets for %s:\n", model)
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, showCmd, analyzeCmd, svgCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
