// Package storage persists solve results as run records under a data
// directory: one subdirectory per run with a JSON summary and a CSV of
// the mode table.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/iontools/trapmode/internal/equilibrium"
	"github.com/iontools/trapmode/internal/modes"
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

// RunRecord is the JSON summary of one solve.
type RunRecord struct {
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	Voltages    map[string]float64 `json:"voltages"`
	NumIons     int                `json:"num_ions"`
	Positions   []float64          `json:"positions_m"`
	Frequencies []float64          `json:"frequencies_hz"`
	Residual    float64            `json:"residual"`
	Iterations  int                `json:"iterations"`
}

// Save writes a run record plus a modes.csv with one row per mode:
// index, angular frequency, ordinary frequency, then the displacement
// pattern across the chain.
func (s *Store) Save(voltages map[string]float64, eq *equilibrium.State, res *modes.Result) (string, error) {
	runID := fmt.Sprintf("solve_%d", time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	rec := RunRecord{
		ID:          runID,
		Timestamp:   time.Now(),
		Voltages:    voltages,
		NumIons:     len(eq.Positions),
		Positions:   eq.Positions,
		Frequencies: res.FrequenciesHz(),
		Residual:    eq.Residual,
		Iterations:  eq.Iterations,
	}

	f, err := os.Create(filepath.Join(runDir, "record.json"))
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "modes.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	n := res.N()
	header := []string{"mode", "omega_rad_s", "freq_hz"}
	for i := 0; i < n; i++ {
		header = append(header, fmt.Sprintf("ion%d", i))
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	hz := res.FrequenciesHz()
	for k := 0; k < n; k++ {
		row := []string{
			strconv.Itoa(k),
			strconv.FormatFloat(res.Omega[k], 'e', 9, 64),
			strconv.FormatFloat(hz[k], 'e', 9, 64),
		}
		for i := 0; i < n; i++ {
			row = append(row, strconv.FormatFloat(res.Displacements.At(i, k), 'f', 9, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

// List returns all run records, skipping unreadable entries.
func (s *Store) List() ([]RunRecord, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunRecord{}, nil
		}
		return nil, err
	}

	runs := make([]RunRecord, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "record.json"))
		if err != nil {
			continue
		}
		var rec RunRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		runs = append(runs, rec)
	}
	return runs, nil
}

// Load reads one run record by ID.
func (s *Store) Load(runID string) (*RunRecord, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "record.json"))
	if err != nil {
		return nil, err
	}
	var rec RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
