// Package potential turns field samples and a voltage configuration into
// a smooth axial potential with analytic derivatives.
//
// Two implementations of [trap.Potential] live here: [Model], which
// interpolates sampled per-electrode fields, and [Harmonic], a
// closed-form quadratic well. Callers choose one explicitly.
package potential

import (
	"github.com/iontools/trapmode/internal/field"
	"github.com/iontools/trapmode/internal/numeric"
	"github.com/iontools/trapmode/internal/trap"
)

// Model is the voltage-weighted sum of per-electrode spline interpolants.
// One spline is fit per electrode with nonzero voltage, once, at
// construction; derivatives come from the spline coefficients, never
// from finite differences. Immutable after construction.
type Model struct {
	splines  []*numeric.Spline
	weights  []float64
	min, max float64
}

var _ trap.Potential = (*Model)(nil)

// NewModel fits the model for one voltage configuration. Electrodes at
// exactly 0 V are skipped; every named electrode must exist in the
// sample.
func NewModel(sample *field.AxialSample, volts field.Voltages) (*Model, error) {
	if err := sample.Check(volts); err != nil {
		return nil, err
	}

	m := &Model{}
	m.min, m.max = sample.Domain()

	// Iterate labels in sorted order so the combined sum is deterministic.
	for _, label := range sample.Electrodes() {
		v := volts[label]
		if v == 0 {
			continue
		}
		unit, _ := sample.Unit(label)
		spl, err := numeric.NewSpline(sample.Positions(), unit)
		if err != nil {
			return nil, err
		}
		m.splines = append(m.splines, spl)
		m.weights = append(m.weights, v)
	}
	return m, nil
}

// Domain returns the sampled axial range.
func (m *Model) Domain() (min, max float64) { return m.min, m.max }

func (m *Model) check(x float64) error {
	if x < m.min || x > m.max {
		return &trap.DomainError{X: x, Min: m.min, Max: m.max}
	}
	return nil
}

// Eval returns the combined potential in volts.
func (m *Model) Eval(x float64) (float64, error) {
	if err := m.check(x); err != nil {
		return 0, err
	}
	sum := 0.0
	for i, spl := range m.splines {
		sum += m.weights[i] * spl.At(x)
	}
	return sum, nil
}

// FirstDeriv returns dV/dx in V/m.
func (m *Model) FirstDeriv(x float64) (float64, error) {
	if err := m.check(x); err != nil {
		return 0, err
	}
	sum := 0.0
	for i, spl := range m.splines {
		sum += m.weights[i] * spl.Deriv(x)
	}
	return sum, nil
}

// SecondDeriv returns d2V/dx2 in V/m^2.
func (m *Model) SecondDeriv(x float64) (float64, error) {
	if err := m.check(x); err != nil {
		return 0, err
	}
	sum := 0.0
	for i, spl := range m.splines {
		sum += m.weights[i] * spl.Deriv2(x)
	}
	return sum, nil
}
