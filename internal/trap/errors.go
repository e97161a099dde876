package trap

import (
	"errors"
	"fmt"
)

// Domain errors for solver operations. Every failure a solve can report
// wraps exactly one of these, so callers dispatch with errors.Is.
var (
	// ErrOutOfDomain indicates an evaluation outside the sampled axial range.
	ErrOutOfDomain = errors.New("trap: position outside sampled axial range")

	// ErrDiverged indicates the equilibrium iteration hit its cap without converging.
	ErrDiverged = errors.New("trap: equilibrium iteration failed to converge")

	// ErrCollision indicates two ions came closer than the minimum separation.
	ErrCollision = errors.New("trap: ion separation below minimum")

	// ErrUnstable indicates a negative squared mode frequency (anti-confining well).
	ErrUnstable = errors.New("trap: unstable equilibrium")

	// ErrIllConditioned indicates a numerically unreliable Hessian.
	ErrIllConditioned = errors.New("trap: hessian too ill-conditioned")
)

// DomainError reports an evaluation at x outside [Min, Max].
type DomainError struct {
	X        float64
	Min, Max float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%v: x=%.6g outside [%.6g, %.6g]", ErrOutOfDomain, e.X, e.Min, e.Max)
}

func (e *DomainError) Unwrap() error { return ErrOutOfDomain }

// SolveError wraps a solver failure with iteration context.
type SolveError struct {
	Iter     int
	Residual float64
	Wrapped  error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("%v (iteration %d, residual %.3e)", e.Wrapped, e.Iter, e.Residual)
}

func (e *SolveError) Unwrap() error { return e.Wrapped }
