package numeric

import (
	"math"
	"testing"
)

func TestSplineInterpolatesKnots(t *testing.T) {
	xs := []float64{0, 0.7, 1.5, 2.2, 3.1, 4.0}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = math.Sin(x)
	}

	s, err := NewSpline(xs, ys)
	if err != nil {
		t.Fatalf("NewSpline: %v", err)
	}

	for i, x := range xs {
		if got := s.At(x); math.Abs(got-ys[i]) > 1e-12 {
			t.Errorf("knot %d: expected %.12f, got %.12f", i, ys[i], got)
		}
	}
}

func TestSplineLinearData(t *testing.T) {
	xs := []float64{-2, -1, 0, 1, 2}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 3*x + 1
	}

	s, err := NewSpline(xs, ys)
	if err != nil {
		t.Fatalf("NewSpline: %v", err)
	}

	for _, x := range Linspace(-2, 2, 41) {
		if got := s.At(x); math.Abs(got-(3*x+1)) > 1e-12 {
			t.Errorf("At(%.2f): expected %.6f, got %.6f", x, 3*x+1, got)
		}
		if got := s.Deriv(x); math.Abs(got-3) > 1e-12 {
			t.Errorf("Deriv(%.2f): expected 3, got %.6f", x, got)
		}
		if got := s.Deriv2(x); math.Abs(got) > 1e-10 {
			t.Errorf("Deriv2(%.2f): expected 0, got %.6g", x, got)
		}
	}
}

func TestSplineDerivativeAccuracy(t *testing.T) {
	// Dense sampling of sin: first derivative should track cos away
	// from the natural boundary.
	xs := Linspace(0, math.Pi, 101)
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = math.Sin(x)
	}

	s, err := NewSpline(xs, ys)
	if err != nil {
		t.Fatalf("NewSpline: %v", err)
	}

	for _, x := range Linspace(0.5, math.Pi-0.5, 31) {
		if got := s.Deriv(x); math.Abs(got-math.Cos(x)) > 1e-5 {
			t.Errorf("Deriv(%.3f): expected %.6f, got %.6f", x, math.Cos(x), got)
		}
		if got := s.Deriv2(x); math.Abs(got+math.Sin(x)) > 1e-2 {
			t.Errorf("Deriv2(%.3f): expected %.6f, got %.6f", x, -math.Sin(x), got)
		}
	}
}

func TestSplineRejectsBadInput(t *testing.T) {
	if _, err := NewSpline([]float64{0, 1}, []float64{0, 1}); err == nil {
		t.Error("expected error for too few points")
	}
	if _, err := NewSpline([]float64{0, 1, 1}, []float64{0, 1, 2}); err == nil {
		t.Error("expected error for non-increasing knots")
	}
	if _, err := NewSpline([]float64{0, 1, 2}, []float64{0, 1}); err == nil {
		t.Error("expected error for length mismatch")
	}
}

func TestLinspace(t *testing.T) {
	xs := Linspace(0, 1, 5)
	if len(xs) != 5 {
		t.Fatalf("expected 5 values, got %d", len(xs))
	}
	if xs[0] != 0 || xs[4] != 1 {
		t.Errorf("endpoints wrong: %v", xs)
	}
	if math.Abs(xs[2]-0.5) > 1e-15 {
		t.Errorf("midpoint wrong: %f", xs[2])
	}
}
