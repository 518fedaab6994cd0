// Package pink computes differential inverse kinematics: joint velocities that track weighted
// task targets while staying inside barrier constraints. Each call to SolveIK assembles one
// convex QP in the joint displacement over a timestep and solves it with a pluggable backend.
package pink

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/domrachev03/pink/barriers"
	"github.com/domrachev03/pink/qp"
	"github.com/domrachev03/pink/rigidbody"
	"github.com/domrachev03/pink/tasks"
)

// defaultDamping is the Tikhonov regularization keeping the QP strictly convex even when every
// task Jacobian is singular.
const defaultDamping = 1e-12

var (
	errNoTasks = errors.New("at least one task is required")
	errBadDt   = errors.New("integration timestep must be positive")
)

// IKOptions configures a single differential IK solve.
type IKOptions struct {
	// Solver is the QP backend. Defaults to the Hildreth backend.
	Solver qp.Solver

	// UsePositionLimits bounds the joint displacement by the model's position limits. On by
	// default; turn it off when a ConfigurationBarrier already covers the limits.
	UsePositionLimits bool

	// VelocityLimits caps the magnitude of each joint velocity, one entry per degree of freedom.
	// Nil leaves velocities unbounded.
	VelocityLimits []float64

	// Damping is the Tikhonov regularization added to the QP Hessian diagonal.
	Damping float64
}

// NewIKOptions returns options with the defaults: Hildreth backend, position limits on, no
// velocity limits.
func NewIKOptions() *IKOptions {
	return &IKOptions{
		Solver:            qp.NewHildrethSolver(0, 0),
		UsePositionLimits: true,
		Damping:           defaultDamping,
	}
}

// SolveIK computes the joint velocity that advances every task while respecting every barrier
// over the timestep dt. The velocity is meant to be integrated over dt, typically with
// Configuration.Integrate, before the next solve.
func SolveIK(
	ctx context.Context,
	c *rigidbody.Configuration,
	taskList []tasks.Task,
	barrierList []barriers.Barrier,
	dt float64,
	opts *IKOptions,
) ([]float64, error) {
	if dt <= 0 {
		return nil, errBadDt
	}
	if len(taskList) == 0 {
		return nil, errNoTasks
	}
	if opts == nil {
		opts = NewIKOptions()
	}
	solver := opts.Solver
	if solver == nil {
		solver = qp.NewHildrethSolver(0, 0)
	}

	problem, err := buildProblem(c, taskList, barrierList, dt, opts)
	if err != nil {
		return nil, err
	}
	displacement, err := solver.Solve(ctx, problem)
	if err != nil {
		return nil, err
	}

	velocity := make([]float64, len(displacement))
	for i, dq := range displacement {
		velocity[i] = dq / dt
	}
	return velocity, nil
}

// buildProblem stacks all the task objectives, barrier objectives, barrier inequalities and
// displacement bounds into one QP.
func buildProblem(
	c *rigidbody.Configuration,
	taskList []tasks.Task,
	barrierList []barriers.Barrier,
	dt float64,
	opts *IKOptions,
) (*qp.Problem, error) {
	nv := len(c.Model().DoF())

	objective := mat.NewSymDense(nv, nil)
	damping := opts.Damping
	if damping <= 0 {
		damping = defaultDamping
	}
	for i := 0; i < nv; i++ {
		objective.SetSym(i, i, damping)
	}
	linear := mat.NewVecDense(nv, nil)

	for _, task := range taskList {
		taskObjective, taskLinear, err := task.ComputeQPObjective(c)
		if err != nil {
			return nil, err
		}
		objective.AddSym(objective, taskObjective)
		linear.AddVec(linear, taskLinear)
	}

	var constraintRows []float64
	var boundRows []float64
	for _, barrier := range barrierList {
		barrierObjective, barrierLinear, err := barrier.ComputeQPObjective(c)
		if err != nil {
			return nil, err
		}
		objective.AddSym(objective, barrierObjective)
		linear.AddVec(linear, barrierLinear)

		constraint, bound, err := barrier.ComputeQPInequality(c, dt)
		if err != nil {
			return nil, err
		}
		rows, _ := constraint.Dims()
		for i := 0; i < rows; i++ {
			constraintRows = append(constraintRows, constraint.RawRowView(i)...)
			boundRows = append(boundRows, bound.AtVec(i))
		}
	}

	problem := &qp.Problem{Objective: objective, Linear: linear}
	if len(boundRows) > 0 {
		problem.Constraints = mat.NewDense(len(boundRows), nv, constraintRows)
		problem.Bounds = mat.NewVecDense(len(boundRows), boundRows)
	}
	problem.Lower, problem.Upper = displacementBounds(c, dt, opts)
	return problem, nil
}

// displacementBounds intersects the position-limit and velocity-limit boxes on the joint
// displacement. Either slice is nil when every entry is unbounded.
func displacementBounds(c *rigidbody.Configuration, dt float64, opts *IKOptions) ([]float64, []float64) {
	limits := c.Model().DoF()
	q := c.Float64s()

	lower := make([]float64, len(limits))
	upper := make([]float64, len(limits))
	bounded := false
	for i := range limits {
		lower[i] = math.Inf(-1)
		upper[i] = math.Inf(1)
		if opts.UsePositionLimits {
			if !math.IsInf(limits[i].Min, -1) {
				lower[i] = limits[i].Min - q[i]
				bounded = true
			}
			if !math.IsInf(limits[i].Max, 1) {
				upper[i] = limits[i].Max - q[i]
				bounded = true
			}
		}
		if opts.VelocityLimits != nil {
			speed := math.Abs(opts.VelocityLimits[i])
			lower[i] = math.Max(lower[i], -speed*dt)
			upper[i] = math.Min(upper[i], speed*dt)
			bounded = true
		}
		// a configuration already past its limit must still be allowed to move back inside
		if lower[i] > 0 {
			lower[i] = 0
		}
		if upper[i] < 0 {
			upper[i] = 0
		}
	}
	if !bounded {
		return nil, nil
	}
	return lower, upper
}
