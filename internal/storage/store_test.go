package storage

import (
	"math"
	"testing"

	"github.com/iontools/trapmode/internal/equilibrium"
	"github.com/iontools/trapmode/internal/modes"
	"github.com/iontools/trapmode/internal/potential"
	"github.com/iontools/trapmode/internal/trap"
)

func solveForTest(t *testing.T) (*equilibrium.State, *modes.Result) {
	t.Helper()
	ion, err := trap.Species("Ca40")
	if err != nil {
		t.Fatal(err)
	}
	well := potential.HarmonicForFrequency(2*math.Pi*1e6, ion)
	chain := trap.NewUniformChain(2, ion)

	eq, err := equilibrium.Solve(well, chain, equilibrium.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	res, err := modes.Solve(well, chain, eq, modes.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return eq, res
}

func TestSaveLoadRun(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	eq, res := solveForTest(t)
	volts := map[string]float64{"DC1": 1.5}

	runID, err := st.Save(volts, eq, res)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec, err := st.Load(runID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.ID != runID {
		t.Errorf("expected ID %s, got %s", runID, rec.ID)
	}
	if rec.NumIons != 2 {
		t.Errorf("expected 2 ions, got %d", rec.NumIons)
	}
	if len(rec.Frequencies) != 2 {
		t.Fatalf("expected 2 frequencies, got %d", len(rec.Frequencies))
	}
	if math.Abs(rec.Frequencies[0]-1e6) > 10 {
		t.Errorf("expected ~1 MHz COM mode, got %g", rec.Frequencies[0])
	}
	if rec.Voltages["DC1"] != 1.5 {
		t.Errorf("voltages lost: %v", rec.Voltages)
	}
}

func TestListRuns(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no runs, got %d", len(runs))
	}

	eq, res := solveForTest(t)
	if _, err := st.Save(nil, eq, res); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Save(nil, eq, res); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestListMissingDir(t *testing.T) {
	st := New("/nonexistent/trapmode-test")
	runs, err := st.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected empty list, got %d", len(runs))
	}
}
