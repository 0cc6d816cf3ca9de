package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/san-kum/kadanoff/internal/contour"
)

// Sink receives the results of a finished calculation.
type Sink interface {
	SaveRun(meta RunMetadata) error
	WriteObservables(columns []string, rows [][]float64) error
	WriteSlices(name string, g *contour.HermMatrix, stride int) error
	WriteTavTrel(name string, g *contour.HermMatrix, stride int) error
}

// Run is one run directory. It implements Sink.
type Run struct {
	ID  string
	dir string
}

var _ Sink = (*Run)(nil)

func (r *Run) Dir() string { return r.dir }

func (r *Run) SaveRun(meta RunMetadata) error {
	meta.ID = r.ID
	f, err := os.Create(filepath.Join(r.dir, metadataFile))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func (r *Run) WriteObservables(columns []string, rows [][]float64) error {
	return writeCSV(filepath.Join(r.dir, observablesFile), columns, func(w *csv.Writer) error {
		for _, row := range rows {
			rec := make([]string, len(row))
			for i, v := range row {
				rec[i] = formatFloat(v)
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteSlices exports the Matsubara component and every stride-th
// timestep n of g: the rows R(n, m), <(j, n) and ⌉(n, τ_m), written to
// {name}_slices.csv.
func (r *Run) WriteSlices(name string, g *contour.HermMatrix, stride int) error {
	if stride < 1 {
		return fmt.Errorf("storage: stride must be positive, got %d", stride)
	}
	path := filepath.Join(r.dir, name+"_slices.csv")
	header := append([]string{"tstp", "component", "index"}, elementColumns(g.Size())...)
	return writeCSV(path, header, func(w *csv.Writer) error {
		rec := recorder{w: w}
		for m := 0; m <= g.Ntau(); m++ {
			rec.write(-1, "mat", m, g.MatPtr(m))
		}
		for n := 0; n <= g.Nt(); n += stride {
			for m := 0; m <= n; m++ {
				rec.write(n, "ret", m, g.RetPtr(n, m))
			}
			for j := 0; j <= n; j++ {
				rec.write(n, "les", j, g.LesPtr(j, n))
			}
			for m := 0; m <= g.Ntau(); m++ {
				rec.write(n, "tv", m, g.TVPtr(n, m))
			}
		}
		return rec.err
	})
}

// WriteTavTrel exports G^R and G^< on the grid of average and relative
// times: for t_av = a dt with a a multiple of stride, the pairs
// (t_av + r dt, t_av - r dt) for r = 0..min(a, nt-a), written to
// {name}_tavtrel.csv with t_rel = 2 r dt.
func (r *Run) WriteTavTrel(name string, g *contour.HermMatrix, stride int) error {
	if stride < 1 {
		return fmt.Errorf("storage: stride must be positive, got %d", stride)
	}
	path := filepath.Join(r.dir, name+"_tavtrel.csv")
	header := append([]string{"tav", "trel", "component"}, elementColumns(g.Size())...)
	gp := contour.Herm(g)
	buf := make([]complex128, g.ElementSize())
	return writeCSV(path, header, func(w *csv.Writer) error {
		rec := recorder{w: w}
		for a := 0; a <= g.Nt(); a += stride {
			for d := 0; d <= min(a, g.Nt()-a); d++ {
				gp.Ret(a+d, a-d, buf)
				rec.writeTav(a, 2*d, "ret", buf)
				gp.Les(a+d, a-d, buf)
				rec.writeTav(a, 2*d, "les", buf)
			}
		}
		return rec.err
	})
}

type recorder struct {
	w   *csv.Writer
	err error
}

func (r *recorder) write(n int, comp string, idx int, v []complex128) {
	r.emit([]string{strconv.Itoa(n), comp, strconv.Itoa(idx)}, v)
}

func (r *recorder) writeTav(a, rel int, comp string, v []complex128) {
	r.emit([]string{strconv.Itoa(a), strconv.Itoa(rel), comp}, v)
}

func (r *recorder) emit(prefix []string, v []complex128) {
	if r.err != nil {
		return
	}
	rec := prefix
	for _, c := range v {
		rec = append(rec, formatFloat(real(c)), formatFloat(imag(c)))
	}
	r.err = r.w.Write(rec)
}

func elementColumns(size int) []string {
	cols := make([]string, 0, 2*size*size)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			cols = append(cols, fmt.Sprintf("re_%d%d", i, j), fmt.Sprintf("im_%d%d", i, j))
		}
	}
	return cols
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 12, 64)
}

func writeCSV(path string, header []string, body func(w *csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := body(w); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
