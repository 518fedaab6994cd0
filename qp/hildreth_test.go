package qp

import (
	"context"
	"math"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func identityProblem(c []float64) *Problem {
	n := len(c)
	objective := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		objective.SetSym(i, i, 1)
	}
	return &Problem{Objective: objective, Linear: mat.NewVecDense(n, c)}
}

func TestValidate(t *testing.T) {
	p := identityProblem([]float64{1, 2})
	test.That(t, p.Validate(), test.ShouldBeNil)
	test.That(t, p.Size(), test.ShouldEqual, 2)

	test.That(t, (&Problem{}).Validate(), test.ShouldNotBeNil)

	bad := identityProblem([]float64{1, 2})
	bad.Linear = mat.NewVecDense(3, nil)
	test.That(t, bad.Validate(), test.ShouldNotBeNil)

	bad = identityProblem([]float64{1, 2})
	bad.Constraints = mat.NewDense(1, 2, []float64{1, 0})
	test.That(t, bad.Validate(), test.ShouldNotBeNil)
	bad.Bounds = mat.NewVecDense(2, nil)
	test.That(t, bad.Validate(), test.ShouldNotBeNil)
	bad.Bounds = mat.NewVecDense(1, nil)
	test.That(t, bad.Validate(), test.ShouldBeNil)

	bad.Lower = []float64{0}
	test.That(t, bad.Validate(), test.ShouldNotBeNil)
}

func TestHildrethUnconstrained(t *testing.T) {
	solver := NewHildrethSolver(0, 0)
	test.That(t, solver.Name(), test.ShouldEqual, "hildreth")

	// min 0.5*x'x - [1 2]'x  =>  x = (1, 2)
	x, err := solver.Solve(context.Background(), identityProblem([]float64{-1, -2}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, x[0], test.ShouldAlmostEqual, 1, 1e-8)
	test.That(t, x[1], test.ShouldAlmostEqual, 2, 1e-8)
}

func TestHildrethInactiveConstraint(t *testing.T) {
	solver := NewHildrethSolver(0, 0)
	p := identityProblem([]float64{-1, -2})
	// x0 = (1, 2) already satisfies x_0 <= 5
	p.Constraints = mat.NewDense(1, 2, []float64{1, 0})
	p.Bounds = mat.NewVecDense(1, []float64{5})

	x, err := solver.Solve(context.Background(), p)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, x[0], test.ShouldAlmostEqual, 1, 1e-8)
	test.That(t, x[1], test.ShouldAlmostEqual, 2, 1e-8)
}

func TestHildrethActiveConstraint(t *testing.T) {
	solver := NewHildrethSolver(0, 0)
	// min 0.5*x'x - 2x  s.t. x <= 0.5  =>  x = 0.5
	p := identityProblem([]float64{-2})
	p.Constraints = mat.NewDense(1, 1, []float64{1})
	p.Bounds = mat.NewVecDense(1, []float64{0.5})

	x, err := solver.Solve(context.Background(), p)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, x[0], test.ShouldAlmostEqual, 0.5, 1e-8)
}

func TestHildrethTwoActiveConstraints(t *testing.T) {
	solver := NewHildrethSolver(0, 0)
	// min 0.5*x'x - [3 3]'x  s.t. x_0 <= 1, x_1 <= 2  =>  x = (1, 2)
	p := identityProblem([]float64{-3, -3})
	p.Constraints = mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	p.Bounds = mat.NewVecDense(2, []float64{1, 2})

	x, err := solver.Solve(context.Background(), p)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, x[0], test.ShouldAlmostEqual, 1, 1e-8)
	test.That(t, x[1], test.ShouldAlmostEqual, 2, 1e-8)
}

func TestHildrethCoupledConstraint(t *testing.T) {
	solver := NewHildrethSolver(0, 0)
	// min 0.5*x'x - [2 2]'x  s.t. x_0 + x_1 <= 2: the minimizer projects onto the plane
	p := identityProblem([]float64{-2, -2})
	p.Constraints = mat.NewDense(1, 2, []float64{1, 1})
	p.Bounds = mat.NewVecDense(1, []float64{2})

	x, err := solver.Solve(context.Background(), p)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, x[0], test.ShouldAlmostEqual, 1, 1e-6)
	test.That(t, x[1], test.ShouldAlmostEqual, 1, 1e-6)
}

func TestHildrethBoxBounds(t *testing.T) {
	solver := NewHildrethSolver(0, 0)
	p := identityProblem([]float64{-2, 2})
	p.Lower = []float64{-0.5, -0.5}
	p.Upper = []float64{0.5, math.Inf(1)}

	// x0 = (2, -2) clips to the box
	x, err := solver.Solve(context.Background(), p)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, x[0], test.ShouldAlmostEqual, 0.5, 1e-6)
	test.That(t, x[1], test.ShouldAlmostEqual, -0.5, 1e-6)
}

func TestHildrethInfeasible(t *testing.T) {
	solver := NewHildrethSolver(0, 0)
	// x <= -1 and -x <= -1 have no common point; the dual iteration must not pass off its
	// final iterate as a solution
	p := identityProblem([]float64{0})
	p.Constraints = mat.NewDense(2, 1, []float64{1, -1})
	p.Bounds = mat.NewVecDense(2, []float64{-1, -1})

	x, err := solver.Solve(context.Background(), p)
	test.That(t, x, test.ShouldBeNil)
	test.That(t, err, test.ShouldBeError, errNoSolve)

	// contradictory box bounds take the same path
	p = identityProblem([]float64{0, 0})
	p.Lower = []float64{1, math.Inf(-1)}
	p.Upper = []float64{-1, math.Inf(1)}
	x, err = solver.Solve(context.Background(), p)
	test.That(t, x, test.ShouldBeNil)
	test.That(t, err, test.ShouldBeError, errNoSolve)
}

func TestHildrethNonConvex(t *testing.T) {
	solver := NewHildrethSolver(0, 0)
	objective := mat.NewSymDense(1, []float64{-1})
	p := &Problem{Objective: objective, Linear: mat.NewVecDense(1, nil)}
	_, err := solver.Solve(context.Background(), p)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestHildrethCancel(t *testing.T) {
	solver := NewHildrethSolver(0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := identityProblem([]float64{-2})
	p.Constraints = mat.NewDense(1, 1, []float64{1})
	p.Bounds = mat.NewVecDense(1, []float64{0.5})
	_, err := solver.Solve(ctx, p)
	test.That(t, err, test.ShouldNotBeNil)
}
