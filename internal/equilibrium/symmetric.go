package equilibrium

import (
	"fmt"
	"math"

	"github.com/iontools/trapmode/internal/trap"
)

// SolveSymmetric is the reduced path for two identical ions in a
// potential symmetric about its minimum. It exploits the reflection
// symmetry of the chain: both ions sit at center +/- s, and the
// half-separation s is found by an outward bracket scan followed by
// bisection on the antisymmetric force residual. The general Newton
// solver remains the reference; any other chain must use Solve.
func SolveSymmetric(p trap.Potential, chain trap.Chain, cfg Config) (*State, error) {
	if err := chain.Validate(); err != nil {
		return nil, err
	}
	if len(chain) != 2 || !chain.Uniform() {
		return nil, fmt.Errorf("equilibrium: symmetric path requires two identical ions, got %d", len(chain))
	}

	center, err := findMinimum(p, cfg.ScanPoints)
	if err != nil {
		return nil, err
	}

	// g(s) is the antisymmetric residual at positions {center-s, center+s};
	// its root is the equilibrium half-separation.
	r := make([]float64, 2)
	g := func(s float64) (float64, error) {
		x := []float64{center - s, center + s}
		if err := residual(p, chain, x, r); err != nil {
			return 0, err
		}
		return (r[0] - r[1]) / 2, nil
	}

	// Characteristic scale for the outward scan.
	ddv, err := p.SecondDeriv(center)
	if err != nil {
		return nil, err
	}
	min, max := p.Domain()
	var scale float64
	if ddv > 0 {
		scale = math.Cbrt(trap.CoulombK * math.Abs(chain[0].Charge) / ddv)
	} else if !math.IsInf(max-min, 0) {
		scale = (max - min) / 8
	} else {
		scale = 1e-6
	}

	lo := math.Max(cfg.MinSep/2, scale/100)
	step := scale / 20

	glo, err := g(lo)
	if err != nil {
		return nil, err
	}
	hi := lo
	ghi := glo
	for i := 0; glo*ghi > 0; i++ {
		if i >= cfg.MaxIter {
			return nil, &trap.SolveError{Iter: i, Residual: math.Abs(ghi), Wrapped: trap.ErrDiverged}
		}
		lo, glo = hi, ghi
		hi = lo + step
		if !math.IsInf(max, 0) && center+hi > max {
			return nil, &trap.DomainError{X: center + hi, Min: min, Max: max}
		}
		ghi, err = g(hi)
		if err != nil {
			return nil, err
		}
	}

	var s, gs float64
	iter := 0
	for ; iter < cfg.MaxIter; iter++ {
		s = (lo + hi) / 2
		gs, err = g(s)
		if err != nil {
			return nil, err
		}
		if math.Abs(gs) < cfg.GradTol || hi-lo < cfg.StepTol {
			break
		}
		if gs*glo > 0 {
			lo, glo = s, gs
		} else {
			hi = s
		}
	}

	if 2*s < cfg.MinSep {
		return nil, &trap.SolveError{Iter: iter, Residual: math.Abs(gs), Wrapped: trap.ErrCollision}
	}
	if math.Abs(gs) >= cfg.GradTol && hi-lo >= cfg.StepTol {
		return nil, &trap.SolveError{Iter: iter, Residual: math.Abs(gs), Wrapped: trap.ErrDiverged}
	}

	return &State{
		Positions:  []float64{center - s, center + s},
		Residual:   math.Abs(gs),
		Iterations: iter,
	}, nil
}
