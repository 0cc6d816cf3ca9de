package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

const (
	metadataFile    = "metadata.json"
	observablesFile = "observables.csv"
)

// ErrRunExists is returned when a run directory cannot be allocated.
var ErrRunExists = errors.New("storage: run directory already exists")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) BaseDir() string { return s.baseDir }

// PhaseSummary records how a solver phase finished.
type PhaseSummary struct {
	Iterations int     `json:"iterations"`
	Residual   float64 `json:"residual"`
	Seconds    float64 `json:"seconds"`
}

type RunMetadata struct {
	ID         string                  `json:"id"`
	Model      string                  `json:"model"`
	Preset     string                  `json:"preset,omitempty"`
	Timestamp  time.Time               `json:"timestamp"`
	Nt         int                     `json:"nt"`
	Ntau       int                     `json:"ntau"`
	Beta       float64                 `json:"beta"`
	Dt         float64                 `json:"dt"`
	SolveOrder int                     `json:"solve_order"`
	OutEvery   int                     `json:"out_every"`
	Params     map[string]float64      `json:"params"`
	Phases     map[string]PhaseSummary `json:"phases,omitempty"`
}

// Create allocates a new run directory named after model and the current
// time.
func (s *Store) Create(model string) (*Run, error) {
	base := fmt.Sprintf("%s_%d", model, time.Now().Unix())
	for i := 1; i < 100; i++ {
		id := base
		if i > 1 {
			id = fmt.Sprintf("%s_%d", base, i)
		}
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return &Run{ID: id, dir: dir}, nil
		}
		if !os.IsExist(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRunExists, base)
}

// Open returns the run with the given ID.
func (s *Store) Open(runID string) (*Run, error) {
	dir := filepath.Join(s.baseDir, runID)
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}
	return &Run{ID: runID, dir: dir}, nil
}

// List returns the metadata of every run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadObservables reads the observables table of a run.
func (s *Store) LoadObservables(runID string) ([]string, [][]float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, observablesFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, [][]float64{}, nil
	}

	header := records[0]
	rows := make([][]float64, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: row %d: %w", observablesFile, len(rows)+1, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// Column extracts the named column from rows read by LoadObservables.
func Column(header []string, rows [][]float64, name string) ([]float64, error) {
	for j, h := range header {
		if h != name {
			continue
		}
		out := make([]float64, len(rows))
		for i, row := range rows {
			out[i] = row[j]
		}
		return out, nil
	}
	return nil, fmt.Errorf("storage: no column %q", name)
}
