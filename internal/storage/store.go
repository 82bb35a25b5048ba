package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/mobility/internal/config"
	"github.com/san-kum/mobility/internal/experiment"
)

const (
	metadataFile  = "metadata.json"
	msdFile       = "msd.csv"
	positionsFile = "positions.csv"
	noiseFile     = "noise.csv"
	configFile    = "config.yaml"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Solver        string             `json:"solver"`
	Variant       string             `json:"variant"`
	Configuration string             `json:"configuration"`
	Backend       string             `json:"backend,omitempty"`
	Timestamp     time.Time          `json:"timestamp"`
	Seed          uint64             `json:"seed"`
	Particles     int                `json:"particles"`
	Dt            float64            `json:"dt"`
	Steps         int                `json:"steps"`
	Metrics       map[string]float64 `json:"metrics"`
}

// Save writes one run directory and returns its id.
func (s *Store) Save(cfg *config.Config, result *experiment.Result) (string, error) {
	runID := fmt.Sprintf("%s_%s", cfg.Solver, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:            runID,
		Solver:        cfg.Solver,
		Variant:       result.Solver,
		Configuration: cfg.Configuration.String(),
		Backend:       cfg.Backend,
		Timestamp:     time.Now(),
		Seed:          cfg.Parameters.Seed,
		Particles:     cfg.Parameters.NumberParticles,
		Dt:            cfg.Run.Dt,
		Steps:         cfg.Run.Steps,
		Metrics:       result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}

	msd := [][]float64{result.Times, result.MSD}
	if err := writeColumns(filepath.Join(runDir, msdFile), []string{"time", "msd"}, msd); err != nil {
		return "", err
	}

	if err := writePositions(filepath.Join(runDir, positionsFile), result.Initial, result.Final); err != nil {
		return "", err
	}
	noise := [][]float64{result.Increments}
	if err := writeColumns(filepath.Join(runDir, noiseFile), []string{"increment"}, noise); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeColumns(path string, header []string, cols [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	rows := 0
	if len(cols) > 0 {
		rows = len(cols[0])
	}
	for i := 0; i < rows; i++ {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = strconv.FormatFloat(c[i], 'g', 10, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writePositions(path string, initial, final []float64) error {
	n := len(final) / 3
	x0 := make([]float64, n)
	y0 := make([]float64, n)
	z0 := make([]float64, n)
	x := make([]float64, n)
	y := make([]float64, n)
	z := make([]float64, n)
	for i := 0; i < n; i++ {
		if 3*i+2 < len(initial) {
			x0[i], y0[i], z0[i] = initial[3*i], initial[3*i+1], initial[3*i+2]
		}
		x[i], y[i], z[i] = final[3*i], final[3*i+1], final[3*i+2]
	}
	return writeColumns(path,
		[]string{"x0", "y0", "z0", "x", "y", "z"},
		[][]float64{x0, y0, z0, x, y, z})
}

// List returns all runs, newest first. Directories without readable
// metadata are skipped.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
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

// LoadConfig returns the run config saved with the run.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

// LoadMSD returns the sampled times and MSD values of a run.
func (s *Store) LoadMSD(runID string) ([]float64, []float64, error) {
	cols, err := readColumns(filepath.Join(s.baseDir, runID, msdFile), 2)
	if err != nil {
		return nil, nil, err
	}
	return cols[0], cols[1], nil
}

// LoadIncrements returns the per-step noise increments of the first particle.
func (s *Store) LoadIncrements(runID string) ([]float64, error) {
	cols, err := readColumns(filepath.Join(s.baseDir, runID, noiseFile), 1)
	if err != nil {
		return nil, err
	}
	return cols[0], nil
}

// LoadPositions returns flat initial and final positions.
func (s *Store) LoadPositions(runID string) ([]float64, []float64, error) {
	cols, err := readColumns(filepath.Join(s.baseDir, runID, positionsFile), 6)
	if err != nil {
		return nil, nil, err
	}
	n := len(cols[0])
	initial := make([]float64, 0, 3*n)
	final := make([]float64, 0, 3*n)
	for i := 0; i < n; i++ {
		initial = append(initial, cols[0][i], cols[1][i], cols[2][i])
		final = append(final, cols[3][i], cols[4][i], cols[5][i])
	}
	return initial, final, nil
}

func readColumns(path string, width int) ([][]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = width

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	cols := make([][]float64, width)
	for i := 1; i < len(records); i++ {
		for j, field := range records[i] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s line %d: %w", filepath.Base(path), i+1, err)
			}
			cols[j] = append(cols[j], v)
		}
	}
	return cols, nil
}

// ExportData is the single-document JSON form of a run.
type ExportData struct {
	RunMetadata
	Times []float64 `json:"times"`
	MSD   []float64 `json:"msd"`
}

// ExportJSON writes a stored run as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	times, msd, err := s.LoadMSD(runID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{RunMetadata: *meta, Times: times, MSD: msd})
}
