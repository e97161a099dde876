// Package modes computes the small-oscillation normal modes of an ion
// chain about its equilibrium.
//
// The mass-weighted Hessian A = M^-1/2 H M^-1/2 of the total potential
// energy is diagonalized; the square roots of its eigenvalues are the
// mode angular frequencies, and the eigenvectors give the collective
// displacement patterns.
package modes

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/iontools/trapmode/internal/equilibrium"
	"github.com/iontools/trapmode/internal/trap"
)

// Config holds the numerical acceptance thresholds.
type Config struct {
	// NoiseTol is the eigenvalue noise floor, relative to the largest
	// absolute eigenvalue. Negative eigenvalues within the floor are
	// clamped to zero (soft modes); anything below it is instability.
	NoiseTol float64
	// MaxCondition caps the acceptable eigenvalue spread of the
	// mass-weighted Hessian.
	MaxCondition float64
}

// DefaultConfig returns the default acceptance thresholds.
func DefaultConfig() Config {
	return Config{
		NoiseTol:     1e-9,
		MaxCondition: 1e12,
	}
}

// Result holds the normal modes, ascending in frequency. Immutable
// after the solve that produced it.
type Result struct {
	// Omega are the mode angular frequencies in rad/s.
	Omega []float64
	// Vectors are the orthonormal eigenvectors of the mass-weighted
	// Hessian, one column per mode.
	Vectors *mat.Dense
	// Displacements are the physical per-ion displacement patterns
	// M^-1/2 v, column-normalized.
	Displacements *mat.Dense
	// Positions is a copy of the equilibrium the modes were taken at.
	Positions []float64
}

// FrequenciesHz returns the ordinary mode frequencies Omega/2pi.
func (r *Result) FrequenciesHz() []float64 {
	out := make([]float64, len(r.Omega))
	for i, w := range r.Omega {
		out[i] = w / (2 * math.Pi)
	}
	return out
}

// N returns the number of modes.
func (r *Result) N() int { return len(r.Omega) }

// Solve diagonalizes the mass-weighted Hessian at the equilibrium eq.
// It reports an error wrapping trap.ErrUnstable when any eigenvalue is
// negative beyond the noise floor, and trap.ErrIllConditioned when the
// eigenvalue spread exceeds the configured cap.
func Solve(p trap.Potential, chain trap.Chain, eq *equilibrium.State, cfg Config) (*Result, error) {
	if err := chain.Validate(); err != nil {
		return nil, err
	}
	n := len(chain)

	h, err := Hessian(p, chain, eq.Positions)
	if err != nil {
		return nil, err
	}

	// A = M^-1/2 H M^-1/2.
	invSqrtM := make([]float64, n)
	for i, ion := range chain {
		invSqrtM[i] = 1 / math.Sqrt(ion.Mass)
	}
	a := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			a.SetSym(i, j, h.At(i, j)*invSqrtM[i]*invSqrtM[j])
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(a, true) {
		return nil, &trap.SolveError{Wrapped: trap.ErrIllConditioned}
	}

	// EigenSym returns eigenvalues in ascending order.
	lambda := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	absMax := 0.0
	absMin := math.Inf(1)
	for _, l := range lambda {
		al := math.Abs(l)
		absMax = math.Max(absMax, al)
		absMin = math.Min(absMin, al)
	}
	noise := cfg.NoiseTol * absMax

	if lambda[0] < -noise {
		return nil, &trap.SolveError{Residual: lambda[0], Wrapped: trap.ErrUnstable}
	}
	if cfg.MaxCondition > 0 && absMin*cfg.MaxCondition < absMax {
		return nil, &trap.SolveError{Residual: absMax / math.Max(absMin, math.SmallestNonzeroFloat64), Wrapped: trap.ErrIllConditioned}
	}

	res := &Result{
		Omega:     make([]float64, n),
		Vectors:   &vecs,
		Positions: append([]float64(nil), eq.Positions...),
	}
	for k, l := range lambda {
		if l < 0 {
			l = 0
		}
		res.Omega[k] = math.Sqrt(l)
	}

	// Physical displacement patterns, column-normalized.
	disp := mat.NewDense(n, n, nil)
	for k := 0; k < n; k++ {
		norm := 0.0
		for i := 0; i < n; i++ {
			d := vecs.At(i, k) * invSqrtM[i]
			disp.Set(i, k, d)
			norm += d * d
		}
		norm = math.Sqrt(norm)
		if norm > 0 {
			for i := 0; i < n; i++ {
				disp.Set(i, k, disp.At(i, k)/norm)
			}
		}
	}
	res.Displacements = disp

	return res, nil
}

// Hessian builds the N x N second-derivative matrix of the total
// potential energy at positions x:
//
//	H_ii = q_i V''(x_i) + sum_{j!=i} 2k q_i q_j / |x_i-x_j|^3
//	H_ij = -2k q_i q_j / |x_i-x_j|^3
func Hessian(p trap.Potential, chain trap.Chain, x []float64) (*mat.SymDense, error) {
	n := len(x)
	h := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		ddv, err := p.SecondDeriv(x[i])
		if err != nil {
			return nil, err
		}
		diag := chain[i].Charge * ddv
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			d := math.Abs(x[i] - x[j])
			cpl := 2 * trap.CoulombK * chain[i].Charge * chain[j].Charge / (d * d * d)
			diag += cpl
			if j > i {
				h.SetSym(i, j, -cpl)
			}
		}
		h.SetSym(i, i, diag)
	}
	return h, nil
}
