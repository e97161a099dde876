// Package equilibrium finds the positions where an ion chain is
// stationary under external confinement and mutual Coulomb repulsion.
//
// The solver runs Newton-Raphson on the force-balance residual with the
// analytic Jacobian, the way the general numeric path of the control
// voltage method does it. A reduced symmetric path for two identical
// ions lives in symmetric.go.
package equilibrium

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/iontools/trapmode/internal/trap"
)

// Config holds the convergence and safety thresholds. All are caller
// inputs; none are hard-coded in the solver.
type Config struct {
	// GradTol is the convergence bound on the max-norm of the
	// per-charge force residual, in V/m.
	GradTol float64
	// StepTol declares convergence when the largest Newton update
	// falls below it, in meters.
	StepTol float64
	// MaxIter caps the Newton iteration.
	MaxIter int
	// MinSep is the smallest allowed ion separation in meters.
	// Anything closer is a collision.
	MinSep float64
	// InitialGuess overrides the automatic seeding when non-nil.
	// Must be strictly increasing with one entry per ion.
	InitialGuess []float64
	// ScanPoints is the grid resolution used to locate the potential
	// minimum when the potential cannot report it in closed form.
	ScanPoints int
}

// DefaultConfig returns thresholds suitable for micrometer-scale traps.
func DefaultConfig() Config {
	return Config{
		GradTol:    1e-6,
		StepTol:    1e-15,
		MaxIter:    200,
		MinSep:     1e-9,
		ScanPoints: 512,
	}
}

// State is a converged equilibrium: strictly increasing positions, one
// per ion, plus solver diagnostics. Owned by the call that produced it.
type State struct {
	Positions  []float64
	Residual   float64 // final max-norm of the per-charge gradient, V/m
	Iterations int
}

// Solve finds the equilibrium of chain in the potential p. It reports
// exactly one outcome: a converged State, or an error wrapping
// trap.ErrDiverged, trap.ErrCollision or trap.ErrOutOfDomain.
func Solve(p trap.Potential, chain trap.Chain, cfg Config) (*State, error) {
	if err := chain.Validate(); err != nil {
		return nil, err
	}
	n := len(chain)

	x, err := initialGuess(p, chain, cfg)
	if err != nil {
		return nil, err
	}

	r := make([]float64, n)
	jac := mat.NewDense(n, n, nil)
	rhs := mat.NewVecDense(n, nil)
	step := mat.NewVecDense(n, nil)

	var resNorm float64
	for iter := 0; iter < cfg.MaxIter; iter++ {
		if err := checkSeparation(x, cfg.MinSep, iter, resNorm); err != nil {
			return nil, err
		}

		if err := residual(p, chain, x, r); err != nil {
			return nil, err
		}
		resNorm = maxAbs(r)
		if resNorm < cfg.GradTol {
			return &State{Positions: x, Residual: resNorm, Iterations: iter}, nil
		}

		if err := jacobian(p, chain, x, jac); err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			rhs.SetVec(i, -r[i])
		}

		var lu mat.LU
		lu.Factorize(jac)
		if err := lu.SolveVecTo(step, false, rhs); err != nil {
			return nil, &trap.SolveError{Iter: iter, Residual: resNorm, Wrapped: trap.ErrDiverged}
		}

		maxStep := 0.0
		for i := 0; i < n; i++ {
			dx := step.AtVec(i)
			x[i] += dx
			maxStep = math.Max(maxStep, math.Abs(dx))
		}
		if maxStep < cfg.StepTol {
			if err := checkSeparation(x, cfg.MinSep, iter, resNorm); err != nil {
				return nil, err
			}
			if err := residual(p, chain, x, r); err != nil {
				return nil, err
			}
			resNorm = maxAbs(r)
			return &State{Positions: x, Residual: resNorm, Iterations: iter + 1}, nil
		}
	}

	return nil, &trap.SolveError{Iter: cfg.MaxIter, Residual: resNorm, Wrapped: trap.ErrDiverged}
}

// residual fills r with the per-charge gradient of the total energy:
//
//	r_i = V'(x_i) - k * sum_{j!=i} q_j * sgn(x_i-x_j) / (x_i-x_j)^2
//
// Dividing dU/dx_i by q_i keeps the residual in V/m, so one tolerance
// works across species.
func residual(p trap.Potential, chain trap.Chain, x []float64, r []float64) error {
	for i := range x {
		dv, err := p.FirstDeriv(x[i])
		if err != nil {
			return err
		}
		sum := 0.0
		for j := range x {
			if j == i {
				continue
			}
			d := x[i] - x[j]
			sum += chain[j].Charge * sign(d) / (d * d)
		}
		r[i] = dv - trap.CoulombK*sum
	}
	return nil
}

// jacobian fills jac with dr_i/dx_j.
func jacobian(p trap.Potential, chain trap.Chain, x []float64, jac *mat.Dense) error {
	n := len(x)
	for i := 0; i < n; i++ {
		ddv, err := p.SecondDeriv(x[i])
		if err != nil {
			return err
		}
		diag := ddv
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			d := math.Abs(x[i] - x[j])
			cpl := 2 * trap.CoulombK * chain[j].Charge / (d * d * d)
			diag += cpl
			jac.Set(i, j, -cpl)
		}
		jac.Set(i, i, diag)
	}
	return nil
}

// Energy returns the total potential energy of the chain at positions x.
func Energy(p trap.Potential, chain trap.Chain, x []float64) (float64, error) {
	u := 0.0
	for i := range x {
		v, err := p.Eval(x[i])
		if err != nil {
			return 0, err
		}
		u += chain[i].Charge * v
		for j := i + 1; j < len(x); j++ {
			u += trap.CoulombK * chain[i].Charge * chain[j].Charge / math.Abs(x[i]-x[j])
		}
	}
	return u, nil
}

// Gradient returns dU/dx_i at positions x, in newtons.
func Gradient(p trap.Potential, chain trap.Chain, x []float64) ([]float64, error) {
	r := make([]float64, len(x))
	if err := residual(p, chain, x, r); err != nil {
		return nil, err
	}
	for i := range r {
		r[i] *= chain[i].Charge
	}
	return r, nil
}

// initialGuess seeds the chain evenly about the potential minimum with
// the harmonic length scale d^3 = k*q/V''(x_min).
func initialGuess(p trap.Potential, chain trap.Chain, cfg Config) ([]float64, error) {
	n := len(chain)
	if cfg.InitialGuess != nil {
		if len(cfg.InitialGuess) != n {
			return nil, &trap.SolveError{Wrapped: trap.ErrDiverged}
		}
		return append([]float64(nil), cfg.InitialGuess...), nil
	}

	center, err := findMinimum(p, cfg.ScanPoints)
	if err != nil {
		return nil, err
	}

	qbar := 0.0
	for _, ion := range chain {
		qbar += math.Abs(ion.Charge)
	}
	qbar /= float64(n)

	ddv, err := p.SecondDeriv(center)
	if err != nil {
		return nil, err
	}

	min, max := p.Domain()
	width := max - min
	var d float64
	if ddv > 0 {
		d = math.Cbrt(trap.CoulombK * qbar / ddv)
	} else if !math.IsInf(width, 0) {
		d = width / float64(2*n)
	} else {
		d = 1e-6
	}
	if !math.IsInf(width, 0) && float64(n)*d > 0.8*width {
		d = 0.8 * width / float64(n)
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = center + (float64(i)-float64(n-1)/2)*d
	}
	return x, nil
}

// findMinimum locates the potential minimum: closed form when the
// potential provides it, otherwise a grid scan over the domain.
func findMinimum(p trap.Potential, points int) (float64, error) {
	if m, ok := p.(trap.Minimizer); ok {
		return m.Minimum(), nil
	}

	min, max := p.Domain()
	if math.IsInf(min, 0) || math.IsInf(max, 0) {
		return 0, nil
	}
	if points < 3 {
		points = 3
	}

	best, bestX := math.Inf(1), min
	step := (max - min) / float64(points-1)
	for i := 0; i < points; i++ {
		x := min + float64(i)*step
		if i == points-1 {
			x = max
		}
		v, err := p.Eval(x)
		if err != nil {
			return 0, err
		}
		if v < best {
			best, bestX = v, x
		}
	}
	return bestX, nil
}

func checkSeparation(x []float64, minSep float64, iter int, resNorm float64) error {
	for i := 1; i < len(x); i++ {
		if x[i]-x[i-1] < minSep {
			return &trap.SolveError{Iter: iter, Residual: resNorm, Wrapped: trap.ErrCollision}
		}
	}
	return nil
}

func maxAbs(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		m = math.Max(m, math.Abs(x))
	}
	return m
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}
