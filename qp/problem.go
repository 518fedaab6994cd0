// Package qp solves the dense convex quadratic programs assembled by the IK solver:
//
//	minimize    0.5*xᵀ*H*x + cᵀ*x
//	subject to  G*x <= g
//	            lower <= x <= upper
//
// Two backends are provided: a pure-Go dual coordinate-ascent solver and, on cgo builds, an
// SLSQP solver backed by nlopt.
package qp

import (
	"context"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

var (
	errNoSolve          = errors.New("qp solver could not find a solution")
	errNotPosDef        = errors.New("qp objective is not positive definite")
	errMissingObjective = errors.New("qp problem has no objective")
)

// Problem is a dense convex QP. Constraints, Bounds, Lower and Upper may all be nil; infinite
// entries in Lower and Upper leave the variable unbounded on that side.
type Problem struct {
	// Objective is the positive-definite Hessian H.
	Objective *mat.SymDense
	// Linear is the linear cost term c.
	Linear *mat.VecDense
	// Constraints is the inequality matrix G, one row per constraint.
	Constraints *mat.Dense
	// Bounds is the inequality right-hand side g.
	Bounds *mat.VecDense
	// Lower and Upper are elementwise box bounds on the variable.
	Lower, Upper []float64
}

// Size returns the dimension of the QP variable.
func (p *Problem) Size() int {
	if p.Objective == nil {
		return 0
	}
	n, _ := p.Objective.Dims()
	return n
}

// Validate checks that all the problem dimensions are consistent.
func (p *Problem) Validate() error {
	if p.Objective == nil || p.Linear == nil {
		return errMissingObjective
	}
	n := p.Size()
	if p.Linear.Len() != n {
		return errors.Errorf("linear term has dimension %d, expected %d", p.Linear.Len(), n)
	}
	if (p.Constraints == nil) != (p.Bounds == nil) {
		return errors.New("constraint matrix and bounds must be provided together")
	}
	if p.Constraints != nil {
		rows, cols := p.Constraints.Dims()
		if cols != n {
			return errors.Errorf("constraint matrix has %d columns, expected %d", cols, n)
		}
		if p.Bounds.Len() != rows {
			return errors.Errorf("constraint bounds have dimension %d, expected %d", p.Bounds.Len(), rows)
		}
	}
	if p.Lower != nil && len(p.Lower) != n {
		return errors.Errorf("lower bounds have dimension %d, expected %d", len(p.Lower), n)
	}
	if p.Upper != nil && len(p.Upper) != n {
		return errors.Errorf("upper bounds have dimension %d, expected %d", len(p.Upper), n)
	}
	return nil
}

// A Solver finds the minimizer of a Problem.
type Solver interface {
	// Name returns the name of the backend.
	Name() string

	// Solve runs the actual solver and returns the minimizer.
	Solve(ctx context.Context, problem *Problem) ([]float64, error)
}
