package qp

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	defaultMaxIterations = 5000
	defaultTolerance     = 1e-10

	// pivots smaller than this are treated as inactive constraint directions.
	hildrethPivotFloor = 1e-14

	// how many dual sweeps to run between context checks.
	checkIterations = 256

	// slack allowed when checking the final iterate against the constraints. The dual iteration
	// converges asymptotically, so the primal residual can exceed the multiplier tolerance.
	feasibilityTolerance = 1e-8
)

// HildrethSolver is a pure-Go QP backend using Hildreth's dual coordinate ascent. The objective
// must be positive definite; the dual iteration then sweeps the constraint multipliers one at a
// time until they stop moving. It needs no cgo and is the default backend.
type HildrethSolver struct {
	maxIterations int
	tolerance     float64
}

// NewHildrethSolver creates a Hildreth backend. Nonpositive arguments select the defaults of
// 5000 sweeps and a 1e-10 multiplier tolerance.
func NewHildrethSolver(maxIterations int, tolerance float64) *HildrethSolver {
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}
	if tolerance <= 0 {
		tolerance = defaultTolerance
	}
	return &HildrethSolver{maxIterations: maxIterations, tolerance: tolerance}
}

// Name returns the name of the backend.
func (s *HildrethSolver) Name() string {
	return "hildreth"
}

// Solve runs the dual iteration and returns the minimizer. Infeasible or ill-conditioned
// constraint sets that keep the iteration from reaching a feasible point produce an error.
func (s *HildrethSolver) Solve(ctx context.Context, problem *Problem) ([]float64, error) {
	if err := problem.Validate(); err != nil {
		return nil, err
	}
	n := problem.Size()

	var chol mat.Cholesky
	if ok := chol.Factorize(problem.Objective); !ok {
		return nil, errNotPosDef
	}

	// unconstrained minimizer x0 = -H⁻¹c
	unconstrained := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(unconstrained, problem.Linear); err != nil {
		return nil, err
	}
	unconstrained.ScaleVec(-1, unconstrained)

	constraints, bounds := stackConstraints(problem)
	if constraints == nil || satisfies(constraints, bounds, unconstrained, s.tolerance) {
		return vecToSlice(unconstrained), nil
	}
	m, _ := constraints.Dims()

	// Y = H⁻¹Gᵀ, P = G·Y, K = G·x0 - g
	transposed := mat.NewDense(n, m, nil)
	transposed.Copy(constraints.T())
	solved := mat.NewDense(n, m, nil)
	if err := chol.SolveTo(solved, transposed); err != nil {
		return nil, err
	}
	gram := mat.NewDense(m, m, nil)
	gram.Mul(constraints, solved)
	violation := mat.NewVecDense(m, nil)
	violation.MulVec(constraints, unconstrained)
	violation.SubVec(violation, bounds)

	lambda := make([]float64, m)
	converged := false
	for iteration := 0; iteration < s.maxIterations; iteration++ {
		if iteration%checkIterations == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
		largestStep := 0.0
		for i := 0; i < m; i++ {
			pivot := gram.At(i, i)
			if pivot < hildrethPivotFloor {
				continue
			}
			residual := violation.AtVec(i)
			for j := 0; j < m; j++ {
				if j != i {
					residual -= gram.At(i, j) * lambda[j]
				}
			}
			updated := math.Max(0, residual/pivot)
			if step := math.Abs(updated - lambda[i]); step > largestStep {
				largestStep = step
			}
			lambda[i] = updated
		}
		if largestStep < s.tolerance {
			converged = true
			break
		}
	}

	// x = x0 - H⁻¹Gᵀλ
	solution := mat.NewVecDense(n, nil)
	solution.MulVec(solved, mat.NewVecDense(m, lambda))
	solution.SubVec(unconstrained, solution)
	if !converged || !satisfies(constraints, bounds, solution, feasibilityTolerance) {
		return nil, errNoSolve
	}
	return vecToSlice(solution), nil
}

// stackConstraints folds the box bounds of the problem into its inequality rows, producing a
// single pair (G, g) with one row per general constraint and per finite bound.
func stackConstraints(problem *Problem) (*mat.Dense, *mat.VecDense) {
	n := problem.Size()
	rows := 0
	if problem.Constraints != nil {
		rows, _ = problem.Constraints.Dims()
	}
	total := rows
	for i := 0; i < n; i++ {
		if problem.Lower != nil && !math.IsInf(problem.Lower[i], -1) {
			total++
		}
		if problem.Upper != nil && !math.IsInf(problem.Upper[i], 1) {
			total++
		}
	}
	if total == 0 {
		return nil, nil
	}

	constraints := mat.NewDense(total, n, nil)
	bounds := mat.NewVecDense(total, nil)
	if rows > 0 {
		constraints.Slice(0, rows, 0, n).(*mat.Dense).Copy(problem.Constraints)
		for i := 0; i < rows; i++ {
			bounds.SetVec(i, problem.Bounds.AtVec(i))
		}
	}
	row := rows
	for i := 0; i < n; i++ {
		if problem.Lower != nil && !math.IsInf(problem.Lower[i], -1) {
			constraints.Set(row, i, -1)
			bounds.SetVec(row, -problem.Lower[i])
			row++
		}
		if problem.Upper != nil && !math.IsInf(problem.Upper[i], 1) {
			constraints.Set(row, i, 1)
			bounds.SetVec(row, problem.Upper[i])
			row++
		}
	}
	return constraints, bounds
}

// satisfies reports whether G*x <= g + tolerance holds row by row.
func satisfies(constraints *mat.Dense, bounds, x *mat.VecDense, tolerance float64) bool {
	m, _ := constraints.Dims()
	result := mat.NewVecDense(m, nil)
	result.MulVec(constraints, x)
	for i := 0; i < m; i++ {
		if result.AtVec(i) > bounds.AtVec(i)+tolerance {
			return false
		}
	}
	return true
}

func vecToSlice(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	copy(out, v.RawVector().Data)
	return out
}
