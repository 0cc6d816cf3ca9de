package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/kadanoff/internal/analysis"
	"github.com/san-kum/kadanoff/internal/export"
	"github.com/san-kum/kadanoff/internal/storage"
)

var defaultPlotColumns = []string{"density", "Xph", "Etot"}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tPRESET\tTIME\tNT\tNTAU\tBETA\tDT\tK")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%g\t%g\t%d\n",
			run.ID,
			run.Model,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Nt,
			run.Ntau,
			run.Beta,
			run.Dt,
			run.SolveOrder,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// realTime loads a run and drops the equilibrium row from its observables.
func realTime(runID string) (*storage.RunMetadata, []string, [][]float64, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	header, rows, err := st.LoadObservables(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(rows) < 3 {
		return nil, nil, nil, fmt.Errorf("no data to plot")
	}
	return meta, header, rows[1:], nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, header, rows, err := realTime(args[0])
	if err != nil {
		return err
	}

	columns := args[1:]
	if len(columns) == 0 {
		columns = defaultPlotColumns
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", len(rows))

	for _, name := range columns {
		data, err := storage.Column(header, rows, name)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs time"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, header, rows, err := realTime(args[0])
	if err != nil {
		return err
	}
	x, err := storage.Column(header, rows, "Xph")
	if err != nil {
		return err
	}
	p, err := storage.Column(header, rows, "Pph")
	if err != nil {
		return err
	}

	fmt.Printf("phonon analysis: %s\n\n", meta.ID)

	ps := analysis.PowerSpectrum(x)
	graph := asciigraph.Plot(ps[:max(len(ps)/4, 2)],
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (Xph)"),
	)
	fmt.Println(graph)
	fmt.Println()

	if w, err := analysis.DominantFrequency(x, meta.Dt); err == nil {
		fmt.Printf("dominant frequency: %.4f (bare %.4f)\n", w, meta.Params["phfreq_w0"])
	} else {
		fmt.Printf("dominant frequency: %v\n", err)
	}

	portrait, err := analysis.NewPortrait("Xph", "Pph", x, p)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println("phase portrait (Xph, Pph):")
	fmt.Print(portrait.ASCII(60, 20))
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID, name := args[0], args[1]
	_, header, rows, err := realTime(runID)
	if err != nil {
		return err
	}
	t, err := storage.Column(header, rows, "time")
	if err != nil {
		return err
	}
	y, err := storage.Column(header, rows, name)
	if err != nil {
		return err
	}
	run, err := storage.New(dataDir).Open(runID)
	if err != nil {
		return err
	}

	path := filepath.Join(run.Dir(), name+".svg")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.SeriesToSVG(f, t, y, 800, 400, name+" vs time"); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
