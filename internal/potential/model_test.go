package potential

import (
	"errors"
	"math"
	"testing"

	"github.com/iontools/trapmode/internal/field"
	"github.com/iontools/trapmode/internal/numeric"
	"github.com/iontools/trapmode/internal/trap"
)

func quadraticSample(t *testing.T, c float64, n int) *field.AxialSample {
	t.Helper()
	xs := numeric.Linspace(-200e-6, 200e-6, n)
	vs := make([]float64, n)
	for i, x := range xs {
		vs[i] = 0.5 * c * x * x
	}
	s, err := field.NewAxialSample(xs, map[string][]float64{"DC1": vs})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestModelRoundTripAtSamples(t *testing.T) {
	xs := numeric.Linspace(0, 100e-6, 21)
	vs := make([]float64, len(xs))
	for i, x := range xs {
		vs[i] = math.Sin(x * 1e5)
	}
	sample, err := field.NewAxialSample(xs, map[string][]float64{"DC1": vs})
	if err != nil {
		t.Fatal(err)
	}

	m, err := NewModel(sample, field.Voltages{"DC1": 1.0})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}

	// A single electrode at unit voltage reproduces its own samples.
	for i, x := range xs {
		got, err := m.Eval(x)
		if err != nil {
			t.Fatalf("Eval(%g): %v", x, err)
		}
		if math.Abs(got-vs[i]) > 1e-12 {
			t.Errorf("sample %d: expected %.12f, got %.12f", i, vs[i], got)
		}
	}
}

func TestModelSuperposition(t *testing.T) {
	xs := numeric.Linspace(-50e-6, 50e-6, 11)
	a := make([]float64, len(xs))
	b := make([]float64, len(xs))
	for i, x := range xs {
		a[i] = x * 1e4
		b[i] = 2 - x*1e4
	}
	sample, err := field.NewAxialSample(xs, map[string][]float64{"DC1": a, "DC2": b})
	if err != nil {
		t.Fatal(err)
	}

	m, err := NewModel(sample, field.Voltages{"DC1": 2.0, "DC2": -1.0})
	if err != nil {
		t.Fatal(err)
	}

	for _, x := range xs {
		want := 2.0*(x*1e4) - (2 - x*1e4)
		got, err := m.Eval(x)
		if err != nil {
			t.Fatalf("Eval(%g): %v", x, err)
		}
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("Eval(%g): expected %.9f, got %.9f", x, want, got)
		}
	}
}

func TestModelOutOfDomain(t *testing.T) {
	sample := quadraticSample(t, 1e7, 21)
	m, err := NewModel(sample, field.Voltages{"DC1": 1.0})
	if err != nil {
		t.Fatal(err)
	}

	_, err = m.Eval(300e-6)
	if !errors.Is(err, trap.ErrOutOfDomain) {
		t.Errorf("expected ErrOutOfDomain, got %v", err)
	}
	_, err = m.FirstDeriv(-300e-6)
	if !errors.Is(err, trap.ErrOutOfDomain) {
		t.Errorf("expected ErrOutOfDomain, got %v", err)
	}

	var de *trap.DomainError
	if !errors.As(err, &de) {
		t.Fatal("expected *trap.DomainError")
	}
	if de.X != -300e-6 {
		t.Errorf("expected X=-300e-6, got %g", de.X)
	}
}

func TestModelUnknownElectrode(t *testing.T) {
	sample := quadraticSample(t, 1e7, 21)
	if _, err := NewModel(sample, field.Voltages{"DC9": 1.0}); err == nil {
		t.Error("expected error for unknown electrode")
	}
}

func TestModelAgreesWithHarmonic(t *testing.T) {
	// Numeric and analytic paths must agree on their overlap region.
	const c = 2.5e7
	sample := quadraticSample(t, c, 201)
	m, err := NewModel(sample, field.Voltages{"DC1": 1.0})
	if err != nil {
		t.Fatal(err)
	}
	h := NewHarmonic(c, 0)

	// Stay away from the natural-spline boundary.
	for _, x := range numeric.Linspace(-120e-6, 120e-6, 49) {
		mv, err := m.Eval(x)
		if err != nil {
			t.Fatalf("Eval(%g): %v", x, err)
		}
		hv, _ := h.Eval(x)
		if math.Abs(mv-hv) > 1e-6*math.Max(1, math.Abs(hv)) {
			t.Errorf("Eval(%g): spline %.9g vs harmonic %.9g", x, mv, hv)
		}

		md, err := m.SecondDeriv(x)
		if err != nil {
			t.Fatalf("SecondDeriv(%g): %v", x, err)
		}
		if math.Abs(md-c)/c > 1e-3 {
			t.Errorf("SecondDeriv(%g): spline %.6g vs harmonic %.6g", x, md, c)
		}
	}
}

func TestHarmonicDerivatives(t *testing.T) {
	h := NewHarmonic(4e6, 10e-6)

	v, _ := h.Eval(10e-6)
	if v != 0 {
		t.Errorf("expected 0 at center, got %g", v)
	}
	d, _ := h.FirstDeriv(15e-6)
	if math.Abs(d-4e6*5e-6) > 1e-9 {
		t.Errorf("FirstDeriv wrong: %g", d)
	}
	dd, _ := h.SecondDeriv(0)
	if dd != 4e6 {
		t.Errorf("SecondDeriv wrong: %g", dd)
	}
	if h.Minimum() != 10e-6 {
		t.Errorf("Minimum wrong: %g", h.Minimum())
	}
}

func TestHarmonicForFrequency(t *testing.T) {
	ion, err := trap.Species("Ca40")
	if err != nil {
		t.Fatal(err)
	}
	omega := 2 * math.Pi * 1e6
	h := HarmonicForFrequency(omega, ion)

	// Round trip: sqrt(q c / m) recovers omega.
	got := math.Sqrt(ion.Charge * h.Curvature / ion.Mass)
	if math.Abs(got-omega)/omega > 1e-12 {
		t.Errorf("expected omega %.6g, got %.6g", omega, got)
	}
}
