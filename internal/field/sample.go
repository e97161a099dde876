// Package field holds per-electrode unit-voltage field samples along the
// trap axis, and the loader that reads them from exported tabular data.
//
// Electrostatics is linear, so the field of any voltage configuration is
// the voltage-weighted superposition of the per-electrode fields solved
// at 1 V each (the control voltage method). An AxialSample is exactly
// that dataset, validated and frozen.
package field

import (
	"fmt"
	"sort"
)

// Voltages maps electrode label to applied voltage in volts. Electrodes
// absent from the map are held at 0 V.
type Voltages map[string]float64

// AxialSample is the per-electrode unit-voltage potential sampled along
// one axis. Positions are strictly increasing and in meters. Immutable
// once built.
type AxialSample struct {
	positions []float64
	units     map[string][]float64
}

// NewAxialSample validates and freezes a sample set. Positions are
// sorted ascending and exact duplicates dropped (the per-electrode
// arrays are reordered alongside). Every electrode array must match the
// position count.
func NewAxialSample(positions []float64, units map[string][]float64) (*AxialSample, error) {
	n := len(positions)
	if n < 3 {
		return nil, fmt.Errorf("field: need at least 3 axial samples, got %d", n)
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("field: no electrode data")
	}
	for label, vals := range units {
		if len(vals) != n {
			return nil, fmt.Errorf("field: electrode %q has %d samples, expected %d", label, len(vals), n)
		}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return positions[order[a]] < positions[order[b]] })

	s := &AxialSample{units: make(map[string][]float64, len(units))}
	s.positions = make([]float64, 0, n)
	keep := make([]int, 0, n)
	for _, idx := range order {
		x := positions[idx]
		if len(s.positions) > 0 && x == s.positions[len(s.positions)-1] {
			continue
		}
		s.positions = append(s.positions, x)
		keep = append(keep, idx)
	}
	if len(s.positions) < 3 {
		return nil, fmt.Errorf("field: only %d distinct axial positions", len(s.positions))
	}

	for label, vals := range units {
		out := make([]float64, len(keep))
		for i, idx := range keep {
			out[i] = vals[idx]
		}
		s.units[label] = out
	}

	return s, nil
}

// Positions returns the axial coordinates. Callers must not modify the
// returned slice.
func (s *AxialSample) Positions() []float64 { return s.positions }

// Len returns the number of distinct axial positions.
func (s *AxialSample) Len() int { return len(s.positions) }

// Domain returns the sampled axial range.
func (s *AxialSample) Domain() (min, max float64) {
	return s.positions[0], s.positions[len(s.positions)-1]
}

// Unit returns the unit-voltage potential samples for one electrode.
func (s *AxialSample) Unit(label string) ([]float64, bool) {
	vals, ok := s.units[label]
	return vals, ok
}

// Electrodes returns the electrode labels in sorted order.
func (s *AxialSample) Electrodes() []string {
	labels := make([]string, 0, len(s.units))
	for label := range s.units {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Check verifies that every electrode named in v exists in the sample.
func (s *AxialSample) Check(v Voltages) error {
	for label := range v {
		if _, ok := s.units[label]; !ok {
			return fmt.Errorf("field: voltage set for unknown electrode %q (have %v)", label, s.Electrodes())
		}
	}
	return nil
}
