// Package numeric holds the small numerical utilities shared by the
// solver stages: a natural cubic spline with analytic derivatives and a
// few grid helpers.
package numeric

import (
	"fmt"
	"sort"
)

// Spline is a natural cubic spline through strictly increasing knots.
// Evaluation clamps to the knot range; domain enforcement is the
// caller's job (the potential model turns it into an error).
type Spline struct {
	xs, ys []float64
	m      []float64 // second derivatives at knots, natural ends
}

// NewSpline fits a natural cubic spline. xs must be strictly increasing
// with at least three points; xs and ys are copied.
func NewSpline(xs, ys []float64) (*Spline, error) {
	n := len(xs)
	if n != len(ys) {
		return nil, fmt.Errorf("numeric: spline needs matching lengths, got %d and %d", n, len(ys))
	}
	if n < 3 {
		return nil, fmt.Errorf("numeric: spline needs at least 3 points, got %d", n)
	}
	for i := 1; i < n; i++ {
		if xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("numeric: spline knots must be strictly increasing at index %d", i)
		}
	}

	s := &Spline{
		xs: append([]float64(nil), xs...),
		ys: append([]float64(nil), ys...),
		m:  make([]float64, n),
	}

	// Tridiagonal system for interior second derivatives (Thomas solve).
	// Natural boundary: m[0] = m[n-1] = 0.
	sub := make([]float64, n)
	diag := make([]float64, n)
	sup := make([]float64, n)
	rhs := make([]float64, n)

	for i := 1; i < n-1; i++ {
		h0 := xs[i] - xs[i-1]
		h1 := xs[i+1] - xs[i]
		sub[i] = h0
		diag[i] = 2 * (h0 + h1)
		sup[i] = h1
		rhs[i] = 6 * ((ys[i+1]-ys[i])/h1 - (ys[i]-ys[i-1])/h0)
	}

	for i := 2; i < n-1; i++ {
		w := sub[i] / diag[i-1]
		diag[i] -= w * sup[i-1]
		rhs[i] -= w * rhs[i-1]
	}
	for i := n - 2; i >= 1; i-- {
		s.m[i] = (rhs[i] - sup[i]*s.m[i+1]) / diag[i]
	}

	return s, nil
}

// Min returns the first knot position.
func (s *Spline) Min() float64 { return s.xs[0] }

// Max returns the last knot position.
func (s *Spline) Max() float64 { return s.xs[len(s.xs)-1] }

// segment returns the index i with xs[i] <= x < xs[i+1], clamped.
func (s *Spline) segment(x float64) int {
	i := sort.SearchFloat64s(s.xs, x) - 1
	if i < 0 {
		return 0
	}
	if i > len(s.xs)-2 {
		return len(s.xs) - 2
	}
	return i
}

// At evaluates the spline at x (clamped to the knot range).
func (s *Spline) At(x float64) float64 {
	i := s.segment(x)
	h := s.xs[i+1] - s.xs[i]
	a := s.xs[i+1] - x
	b := x - s.xs[i]
	return s.m[i]*a*a*a/(6*h) + s.m[i+1]*b*b*b/(6*h) +
		(s.ys[i]/h-s.m[i]*h/6)*a + (s.ys[i+1]/h-s.m[i+1]*h/6)*b
}

// Deriv evaluates the first derivative at x.
func (s *Spline) Deriv(x float64) float64 {
	i := s.segment(x)
	h := s.xs[i+1] - s.xs[i]
	a := s.xs[i+1] - x
	b := x - s.xs[i]
	return -s.m[i]*a*a/(2*h) + s.m[i+1]*b*b/(2*h) -
		(s.ys[i]/h - s.m[i]*h/6) + (s.ys[i+1]/h - s.m[i+1]*h/6)
}

// Deriv2 evaluates the second derivative at x.
func (s *Spline) Deriv2(x float64) float64 {
	i := s.segment(x)
	h := s.xs[i+1] - s.xs[i]
	return s.m[i]*(s.xs[i+1]-x)/h + s.m[i+1]*(x-s.xs[i])/h
}

// Linspace returns n evenly spaced values over [min, max].
func Linspace(min, max float64, n int) []float64 {
	if n < 2 {
		return []float64{min}
	}
	out := make([]float64, n)
	step := (max - min) / float64(n-1)
	for i := range out {
		out[i] = min + float64(i)*step
	}
	out[n-1] = max
	return out
}
