package trap

import "math"

// CODATA 2018 values.
const (
	// ElementaryCharge is the charge of a proton in coulombs.
	ElementaryCharge = 1.602176634e-19

	// Epsilon0 is the vacuum permittivity in F/m.
	Epsilon0 = 8.8541878128e-12

	// AtomicMassUnit is the unified atomic mass constant in kg.
	AtomicMassUnit = 1.66053906660e-27
)

// CoulombK is the Coulomb constant 1/(4*pi*eps0) in N*m^2/C^2.
var CoulombK = 1.0 / (4.0 * math.Pi * Epsilon0)
