// Package sweep runs the full solve pipeline across many independent
// voltage configurations in parallel. Each solve is a pure function of
// its inputs, so the runs share nothing but the read-only field sample.
package sweep

import (
	"context"
	"runtime"
	"sync"

	"github.com/iontools/trapmode/internal/equilibrium"
	"github.com/iontools/trapmode/internal/field"
	"github.com/iontools/trapmode/internal/modes"
	"github.com/iontools/trapmode/internal/potential"
	"github.com/iontools/trapmode/internal/trap"
)

// Job is one voltage configuration to solve.
type Job struct {
	Name     string
	Voltages field.Voltages
}

// Outcome pairs a job with its result or its failure. A failed job
// does not abort the sweep.
type Outcome struct {
	Job   Job
	Eq    *equilibrium.State
	Modes *modes.Result
	Err   error
}

// Runner sweeps a fixed chain and field sample over voltage sets.
type Runner struct {
	sample  *field.AxialSample
	chain   trap.Chain
	eqCfg   equilibrium.Config
	modeCfg modes.Config
	workers int
}

// New builds a runner. workers <= 0 means one per CPU.
func New(sample *field.AxialSample, chain trap.Chain, eqCfg equilibrium.Config, modeCfg modes.Config, workers int) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{
		sample:  sample,
		chain:   chain,
		eqCfg:   eqCfg,
		modeCfg: modeCfg,
		workers: workers,
	}
}

// Run solves every job. Outcomes are returned in job order; the only
// error Run itself returns is context cancellation.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Outcome, error) {
	outcomes := make([]Outcome, len(jobs))
	sem := make(chan struct{}, r.workers)

	var wg sync.WaitGroup
	for i, job := range jobs {
		select {
		case <-ctx.Done():
			wg.Wait()
			return outcomes, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(idx int, job Job) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[idx] = r.solve(job)
		}(i, job)
	}

	wg.Wait()
	if err := ctx.Err(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

func (r *Runner) solve(job Job) Outcome {
	out := Outcome{Job: job}

	model, err := potential.NewModel(r.sample, job.Voltages)
	if err != nil {
		out.Err = err
		return out
	}
	out.Eq, err = equilibrium.Solve(model, r.chain, r.eqCfg)
	if err != nil {
		out.Err = err
		return out
	}
	out.Modes, err = modes.Solve(model, r.chain, out.Eq, r.modeCfg)
	if err != nil {
		out.Err = err
	}
	return out
}

// Scaled builds jobs that scale one base voltage set by each factor.
func Scaled(base field.Voltages, factors []float64, nameFn func(float64) string) []Job {
	jobs := make([]Job, len(factors))
	for i, f := range factors {
		scaled := make(field.Voltages, len(base))
		for label, v := range base {
			scaled[label] = v * f
		}
		jobs[i] = Job{Name: nameFn(f), Voltages: scaled}
	}
	return jobs
}
