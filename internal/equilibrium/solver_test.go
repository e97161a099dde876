package equilibrium

import (
	"errors"
	"math"
	"testing"

	"github.com/iontools/trapmode/internal/field"
	"github.com/iontools/trapmode/internal/numeric"
	"github.com/iontools/trapmode/internal/potential"
	"github.com/iontools/trapmode/internal/trap"
)

func ca40(t *testing.T) trap.Ion {
	t.Helper()
	ion, err := trap.Species("Ca40")
	if err != nil {
		t.Fatal(err)
	}
	return ion
}

// 1 MHz axial well for Ca40.
func testWell(t *testing.T) (*potential.Harmonic, trap.Ion) {
	t.Helper()
	ion := ca40(t)
	return potential.HarmonicForFrequency(2*math.Pi*1e6, ion), ion
}

func TestTwoIonSeparation(t *testing.T) {
	well, ion := testWell(t)
	chain := trap.NewUniformChain(2, ion)

	st, err := Solve(well, chain, DefaultConfig())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	// Force balance at +/- d/2: q c d/2 = k q^2 / d^2, so d^3 = 2kq/c.
	want := math.Cbrt(2 * trap.CoulombK * ion.Charge / well.Curvature)
	got := st.Positions[1] - st.Positions[0]
	if math.Abs(got-want)/want > 1e-7 {
		t.Errorf("separation: expected %.9e, got %.9e", want, got)
	}
	if math.Abs(st.Positions[0]+st.Positions[1]) > 1e-12 {
		t.Errorf("expected symmetric positions, got %v", st.Positions)
	}
}

func TestGradientBelowTolerance(t *testing.T) {
	well, ion := testWell(t)
	cfg := DefaultConfig()

	for _, n := range []int{1, 2, 3, 5, 7} {
		chain := trap.NewUniformChain(n, ion)
		st, err := Solve(well, chain, cfg)
		if err != nil {
			t.Fatalf("Solve(%d ions): %v", n, err)
		}

		if len(st.Positions) != n {
			t.Fatalf("%d ions: got %d positions", n, len(st.Positions))
		}
		for i := 1; i < n; i++ {
			if st.Positions[i] <= st.Positions[i-1] {
				t.Errorf("%d ions: positions not strictly increasing: %v", n, st.Positions)
			}
		}
		if st.Residual >= cfg.GradTol {
			t.Errorf("%d ions: residual %.3e above tolerance", n, st.Residual)
		}

		grad, err := Gradient(well, chain, st.Positions)
		if err != nil {
			t.Fatal(err)
		}
		for i, g := range grad {
			if math.Abs(g) >= cfg.GradTol*ion.Charge*1.01 {
				t.Errorf("%d ions: gradient[%d] = %.3e N too large", n, i, g)
			}
		}
	}
}

func TestSplineModelMatchesHarmonic(t *testing.T) {
	well, ion := testWell(t)

	xs := numeric.Linspace(-200e-6, 200e-6, 401)
	vs := make([]float64, len(xs))
	for i, x := range xs {
		vs[i], _ = well.Eval(x)
	}
	sample, err := field.NewAxialSample(xs, map[string][]float64{"DC1": vs})
	if err != nil {
		t.Fatal(err)
	}
	model, err := potential.NewModel(sample, field.Voltages{"DC1": 1.0})
	if err != nil {
		t.Fatal(err)
	}

	chain := trap.NewUniformChain(3, ion)
	cfg := DefaultConfig()

	ref, err := Solve(well, chain, cfg)
	if err != nil {
		t.Fatalf("harmonic solve: %v", err)
	}
	got, err := Solve(model, chain, cfg)
	if err != nil {
		t.Fatalf("spline solve: %v", err)
	}

	span := ref.Positions[2] - ref.Positions[0]
	for i := range ref.Positions {
		if math.Abs(got.Positions[i]-ref.Positions[i]) > 1e-4*span {
			t.Errorf("position %d: harmonic %.9e vs spline %.9e", i, ref.Positions[i], got.Positions[i])
		}
	}
}

func TestSymmetricMatchesNewton(t *testing.T) {
	well, ion := testWell(t)
	chain := trap.NewUniformChain(2, ion)
	cfg := DefaultConfig()

	ref, err := Solve(well, chain, cfg)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	sym, err := SolveSymmetric(well, chain, cfg)
	if err != nil {
		t.Fatalf("SolveSymmetric: %v", err)
	}

	sep := ref.Positions[1] - ref.Positions[0]
	for i := range ref.Positions {
		if math.Abs(sym.Positions[i]-ref.Positions[i]) > 1e-6*sep {
			t.Errorf("position %d: newton %.9e vs symmetric %.9e", i, ref.Positions[i], sym.Positions[i])
		}
	}
}

func TestSymmetricRejectsNonUniform(t *testing.T) {
	well, ion := testWell(t)

	if _, err := SolveSymmetric(well, trap.NewUniformChain(3, ion), DefaultConfig()); err == nil {
		t.Error("expected error for three ions")
	}

	mixed := trap.Chain{ion, trap.NewIon(1, 9.0121831)}
	if _, err := SolveSymmetric(well, mixed, DefaultConfig()); err == nil {
		t.Error("expected error for mixed species")
	}
}

func TestCollisionDetected(t *testing.T) {
	well, ion := testWell(t)
	chain := trap.NewUniformChain(2, ion)

	// Equilibrium separation is a few micrometers; demanding more than
	// that as the minimum makes every iterate a collision.
	cfg := DefaultConfig()
	cfg.MinSep = 1e-3

	_, err := Solve(well, chain, cfg)
	if !errors.Is(err, trap.ErrCollision) {
		t.Errorf("expected ErrCollision, got %v", err)
	}
}

func TestDiverged(t *testing.T) {
	well, ion := testWell(t)
	chain := trap.NewUniformChain(5, ion)

	cfg := DefaultConfig()
	cfg.MaxIter = 1
	cfg.InitialGuess = []float64{-50e-6, -25e-6, 0, 25e-6, 50e-6}

	_, err := Solve(well, chain, cfg)
	if !errors.Is(err, trap.ErrDiverged) {
		t.Errorf("expected ErrDiverged, got %v", err)
	}

	var se *trap.SolveError
	if !errors.As(err, &se) {
		t.Fatal("expected *trap.SolveError")
	}
}

func TestOutOfDomainDuringSolve(t *testing.T) {
	ion := ca40(t)

	// A tilted potential with no interior minimum pushes the iterates
	// toward and past the domain edge.
	xs := numeric.Linspace(-100e-6, 100e-6, 101)
	vs := make([]float64, len(xs))
	for i, x := range xs {
		vs[i] = -1e4 * x
	}
	sample, err := field.NewAxialSample(xs, map[string][]float64{"DC1": vs})
	if err != nil {
		t.Fatal(err)
	}
	model, err := potential.NewModel(sample, field.Voltages{"DC1": 1.0})
	if err != nil {
		t.Fatal(err)
	}

	_, err = Solve(model, trap.NewUniformChain(2, ion), DefaultConfig())
	if err == nil {
		t.Fatal("expected an error for unconfined potential")
	}
	if !errors.Is(err, trap.ErrOutOfDomain) && !errors.Is(err, trap.ErrDiverged) {
		t.Errorf("expected ErrOutOfDomain or ErrDiverged, got %v", err)
	}
}

func TestEnergyAtEquilibriumIsMinimal(t *testing.T) {
	well, ion := testWell(t)
	chain := trap.NewUniformChain(2, ion)

	st, err := Solve(well, chain, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	u0, err := Energy(well, chain, st.Positions)
	if err != nil {
		t.Fatal(err)
	}

	// Perturbations strictly raise the energy.
	for _, eps := range []float64{1e-8, -1e-8} {
		x := append([]float64(nil), st.Positions...)
		x[0] += eps
		u, err := Energy(well, chain, x)
		if err != nil {
			t.Fatal(err)
		}
		if u <= u0 {
			t.Errorf("perturbation %g did not raise energy: %g <= %g", eps, u, u0)
		}
	}
}

func TestInitialGuessOverride(t *testing.T) {
	well, ion := testWell(t)
	chain := trap.NewUniformChain(2, ion)

	cfg := DefaultConfig()
	cfg.InitialGuess = []float64{-10e-6, 10e-6}

	st, err := Solve(well, chain, cfg)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	want := math.Cbrt(2 * trap.CoulombK * ion.Charge / well.Curvature)
	got := st.Positions[1] - st.Positions[0]
	if math.Abs(got-want)/want > 1e-7 {
		t.Errorf("separation: expected %.9e, got %.9e", want, got)
	}
}
