//go:build !windows && !no_cgo

package qp

import (
	"context"
	"math"

	"github.com/edaniels/golog"
	"github.com/go-nlopt/nlopt"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

const (
	defaultMaxEvaluations = 4001
	nloptTolerance        = 1e-12
	constraintTolerance   = 1e-10
)

// NLoptSolver is a QP backend delegating to nlopt's SLSQP implementation. It exists to
// cross-check the Hildreth backend and for problems whose active set churns badly; it requires
// cgo and is unavailable on windows or no_cgo builds.
type NLoptSolver struct {
	logger         golog.Logger
	maxEvaluations int
}

// NewNLoptSolver creates an SLSQP backend. A logger is required; a nonpositive evaluation budget
// selects the default.
func NewNLoptSolver(logger golog.Logger, maxEvaluations int) (*NLoptSolver, error) {
	if logger == nil {
		return nil, errors.New("nlopt solver requires a logger")
	}
	if maxEvaluations <= 0 {
		maxEvaluations = defaultMaxEvaluations
	}
	return &NLoptSolver{logger: logger, maxEvaluations: maxEvaluations}, nil
}

// Name returns the name of the backend.
func (s *NLoptSolver) Name() string {
	return "nlopt"
}

// Solve runs SLSQP on the problem and returns the minimizer.
func (s *NLoptSolver) Solve(ctx context.Context, problem *Problem) ([]float64, error) {
	if err := problem.Validate(); err != nil {
		return nil, err
	}
	n := problem.Size()

	opt, err := nlopt.NewNLopt(nlopt.LD_SLSQP, uint(n))
	if err != nil {
		return nil, errors.Wrap(err, "nlopt creation error")
	}
	defer opt.Destroy()

	objective := func(x, gradient []float64) float64 {
		cost := 0.0
		for i := 0; i < n; i++ {
			row := 0.0
			for j := 0; j < n; j++ {
				row += problem.Objective.At(i, j) * x[j]
			}
			cost += x[i] * (0.5*row + problem.Linear.AtVec(i))
			if len(gradient) > 0 {
				gradient[i] = row + problem.Linear.AtVec(i)
			}
		}
		return cost
	}

	err = multierr.Combine(
		opt.SetFtolAbs(nloptTolerance),
		opt.SetFtolRel(nloptTolerance),
		opt.SetXtolRel(nloptTolerance),
		opt.SetMaxEval(s.maxEvaluations),
		opt.SetMinObjective(objective),
		opt.SetLowerBounds(boundsOrInf(problem.Lower, n, math.Inf(-1))),
		opt.SetUpperBounds(boundsOrInf(problem.Upper, n, math.Inf(1))),
	)
	if err != nil {
		return nil, err
	}

	if problem.Constraints != nil {
		m, _ := problem.Constraints.Dims()
		inequality := func(result, x, gradient []float64) {
			for i := 0; i < m; i++ {
				row := 0.0
				for j := 0; j < n; j++ {
					row += problem.Constraints.At(i, j) * x[j]
					if len(gradient) > 0 {
						gradient[i*n+j] = problem.Constraints.At(i, j)
					}
				}
				result[i] = row - problem.Bounds.AtVec(i)
			}
		}
		tolerances := make([]float64, m)
		for i := range tolerances {
			tolerances[i] = constraintTolerance
		}
		if err := opt.AddInequalityMConstraint(inequality, tolerances); err != nil {
			return nil, err
		}
	}

	seed := make([]float64, n)
	for i := range seed {
		if problem.Lower != nil && seed[i] < problem.Lower[i] {
			seed[i] = problem.Lower[i]
		}
		if problem.Upper != nil && seed[i] > problem.Upper[i] {
			seed[i] = problem.Upper[i]
		}
	}

	type solveResult struct {
		solution []float64
		cost     float64
		err      error
	}
	solveChan := make(chan solveResult, 1)
	utils.PanicCapturingGo(func() {
		solution, cost, err := opt.Optimize(seed)
		solveChan <- solveResult{solution, cost, err}
	})

	select {
	case <-ctx.Done():
		opt.ForceStop()
		<-solveChan
		return nil, ctx.Err()
	case result := <-solveChan:
		if result.err != nil {
			if result.solution == nil {
				return nil, multierr.Combine(errNoSolve, result.err)
			}
			s.logger.Debugw("nlopt finished with status", "status", result.err, "cost", result.cost)
		}
		return result.solution, nil
	}
}

// boundsOrInf returns the given bounds, or a slice of unbounded entries when nil.
func boundsOrInf(bounds []float64, n int, unbounded float64) []float64 {
	if bounds != nil {
		return bounds
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = unbounded
	}
	return out
}
