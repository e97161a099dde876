package potential

import (
	"math"

	"github.com/iontools/trapmode/internal/trap"
)

// Harmonic is the closed-form quadratic well V(x) = 1/2 c (x-x0)^2.
// It bypasses interpolation entirely and has an unbounded domain. A
// negative curvature gives an anti-confining potential, useful as a
// stability probe.
type Harmonic struct {
	// Curvature c in V/m^2.
	Curvature float64
	// Center x0 in meters.
	Center float64
}

var (
	_ trap.Potential = (*Harmonic)(nil)
	_ trap.Minimizer = (*Harmonic)(nil)
)

// NewHarmonic builds a quadratic well centered at x0.
func NewHarmonic(curvature, center float64) *Harmonic {
	return &Harmonic{Curvature: curvature, Center: center}
}

// HarmonicForFrequency builds the well whose single-ion axial angular
// frequency is omega for the given ion: c = m*omega^2/q.
func HarmonicForFrequency(omega float64, ion trap.Ion) *Harmonic {
	return &Harmonic{Curvature: ion.Mass * omega * omega / ion.Charge}
}

func (h *Harmonic) Eval(x float64) (float64, error) {
	d := x - h.Center
	return 0.5 * h.Curvature * d * d, nil
}

func (h *Harmonic) FirstDeriv(x float64) (float64, error) {
	return h.Curvature * (x - h.Center), nil
}

func (h *Harmonic) SecondDeriv(x float64) (float64, error) {
	return h.Curvature, nil
}

func (h *Harmonic) Domain() (min, max float64) {
	return math.Inf(-1), math.Inf(1)
}

// Minimum returns the well center.
func (h *Harmonic) Minimum() float64 { return h.Center }
