package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/san-kum/kadanoff/internal/contour"
)

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	run, err := st.Create("holstein")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if run.ID == "" {
		t.Error("expected non-empty run id")
	}

	meta := RunMetadata{
		Model:  "holstein",
		Nt:     10,
		Ntau:   20,
		Beta:   5,
		Dt:     0.05,
		Params: map[string]float64{"el_ph_g": 0.5},
		Phases: map[string]PhaseSummary{"matsubara": {Iterations: 12, Residual: 1e-9}},
	}
	if err := run.SaveRun(meta); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := st.Load(run.ID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.ID != run.ID {
		t.Errorf("expected id %s, got %s", run.ID, got.ID)
	}
	if got.Params["el_ph_g"] != 0.5 {
		t.Errorf("expected el_ph_g 0.5, got %f", got.Params["el_ph_g"])
	}
	if got.Phases["matsubara"].Iterations != 12 {
		t.Errorf("phase summary lost: %+v", got.Phases)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestCreateUniqueIDs(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		run, err := st.Create("holstein")
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if seen[run.ID] {
			t.Errorf("duplicate run id %s", run.ID)
		}
		seen[run.ID] = true
	}
}

func TestListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "missing")).List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestObservablesRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	run, err := st.Create("holstein")
	if err != nil {
		t.Fatal(err)
	}
	cols := []string{"time", "density", "Etot"}
	rows := [][]float64{{0, 0.5, -1.25}, {0.05, 0.49, -1.2500001}}
	if err := run.WriteObservables(cols, rows); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	header, got, err := st.LoadObservables(run.ID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(header) != 3 || len(got) != 2 {
		t.Fatalf("unexpected table %v %v", header, got)
	}
	etot, err := Column(header, got, "Etot")
	if err != nil {
		t.Fatal(err)
	}
	if etot[1] != -1.2500001 {
		t.Errorf("expected -1.2500001, got %v", etot[1])
	}
	if _, err := Column(header, got, "missing"); err == nil {
		t.Error("expected error for missing column")
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}

func filledGreen(nt, ntau int) *contour.HermMatrix {
	g := contour.NewHermMatrix(nt, ntau, 1, contour.Fermion)
	for m := 0; m <= ntau; m++ {
		g.MatPtr(m)[0] = complex(-float64(m), 0)
	}
	for n := 0; n <= nt; n++ {
		for m := 0; m <= n; m++ {
			g.RetPtr(n, m)[0] = complex(float64(n), float64(m))
			g.LesPtr(m, n)[0] = complex(float64(m), float64(n))
		}
	}
	return g
}

func TestWriteSlices(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	run, _ := st.Create("holstein")

	const nt, ntau = 6, 4
	g := filledGreen(nt, ntau)
	if err := run.WriteSlices("G", g, 3); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	records := readCSV(t, filepath.Join(run.Dir(), "G_slices.csv"))
	// header + mat + timesteps 0, 3, 6 with n+1 ret, n+1 les and ntau+1 tv rows
	want := 1 + (ntau + 1)
	for _, n := range []int{0, 3, 6} {
		want += 2*(n+1) + ntau + 1
	}
	if len(records) != want {
		t.Fatalf("expected %d records, got %d", want, len(records))
	}
	if got := records[0]; len(got) != 5 || got[3] != "re_00" {
		t.Errorf("unexpected header %v", got)
	}
	for _, rec := range records[1:] {
		if rec[0] == "3" && rec[1] == "ret" && rec[2] == "2" {
			if rec[3] != "3" || rec[4] != "2" {
				t.Errorf("R(3,2) = (%s, %s)", rec[3], rec[4])
			}
		}
	}

	if err := run.WriteSlices("G", g, 0); err == nil {
		t.Error("expected error for zero stride")
	}
}

func TestWriteTavTrel(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	run, _ := st.Create("holstein")

	const nt = 6
	g := filledGreen(nt, 2)
	if err := run.WriteTavTrel("G", g, 2); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	records := readCSV(t, filepath.Join(run.Dir(), "G_tavtrel.csv"))

	// t_av = 0, 2, 4, 6 admit 1, 3, 3, 1 relative times, two components each.
	if len(records) != 1+2*(1+3+3+1) {
		t.Fatalf("unexpected record count %d", len(records))
	}
	for _, rec := range records[1:] {
		a, _ := strconv.Atoi(rec[0])
		rel, _ := strconv.Atoi(rec[1])
		if rec[2] != "ret" {
			continue
		}
		n, m := a+rel/2, a-rel/2
		if rec[3] != strconv.Itoa(n) || rec[4] != strconv.Itoa(m) {
			t.Errorf("R(%d,%d) exported as (%s, %s)", n, m, rec[3], rec[4])
		}
	}
}
