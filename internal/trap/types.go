package trap

import (
	"fmt"
	"sort"
)

// Potential is a scalar axial potential V(x) in volts with analytic
// derivatives. Implementations report *DomainError for positions outside
// their domain; they never extrapolate.
type Potential interface {
	Eval(x float64) (float64, error)
	FirstDeriv(x float64) (float64, error)
	SecondDeriv(x float64) (float64, error)

	// Domain returns the valid evaluation range. Closed-form potentials
	// may return infinite bounds.
	Domain() (min, max float64)
}

// Minimizer is implemented by potentials that know their minimum in
// closed form. Solvers use it to seed the initial guess; potentials
// without it get a grid scan instead.
type Minimizer interface {
	Minimum() float64
}

// Ion is a single trapped particle.
type Ion struct {
	Charge float64 // coulombs
	Mass   float64 // kg
}

// NewIon builds an ion from its charge state (in units of e) and mass
// in atomic mass units.
func NewIon(chargeState float64, massAMU float64) Ion {
	return Ion{
		Charge: chargeState * ElementaryCharge,
		Mass:   massAMU * AtomicMassUnit,
	}
}

// Common singly ionized species.
var species = map[string]float64{
	"Be9":   9.0121831,
	"Mg24":  23.985042,
	"Ca40":  40.078,
	"Sr88":  87.905612,
	"Ba138": 137.905247,
	"Yb171": 170.936323,
}

// Species returns a singly charged ion of a named species (e.g. "Ca40").
func Species(name string) (Ion, error) {
	amu, ok := species[name]
	if !ok {
		return Ion{}, fmt.Errorf("trap: unknown species %q", name)
	}
	return NewIon(1, amu), nil
}

// SpeciesNames lists the known species labels.
func SpeciesNames() []string {
	names := make([]string, 0, len(species))
	for name := range species {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chain is an ordered sequence of ions. The order fixes indexing only;
// the solver keeps positions ascending regardless.
type Chain []Ion

// NewUniformChain builds a chain of n identical ions.
func NewUniformChain(n int, ion Ion) Chain {
	c := make(Chain, n)
	for i := range c {
		c[i] = ion
	}
	return c
}

// Validate checks that the chain is non-empty with physical parameters.
func (c Chain) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("trap: chain must hold at least one ion")
	}
	for i, ion := range c {
		if ion.Charge == 0 {
			return fmt.Errorf("trap: ion %d has zero charge", i)
		}
		if ion.Mass <= 0 {
			return fmt.Errorf("trap: ion %d has non-positive mass", i)
		}
	}
	return nil
}

// Uniform reports whether all ions share the same charge and mass.
func (c Chain) Uniform() bool {
	if len(c) < 2 {
		return true
	}
	for _, ion := range c[1:] {
		if ion != c[0] {
			return false
		}
	}
	return true
}
