package tasks

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/domrachev03/pink/rigidbody"
)

// DampingTask penalizes joint displacement itself: a pure Tikhonov regularizer with zero error.
// Unlike a PostureTask whose target lags the motion, a DampingTask always resists the current
// step, which keeps the QP Hessian positive definite even with rank-deficient tracking tasks.
type DampingTask struct {
	// Cost weighs every joint row, in cost per radian.
	Cost float64
}

// NewDampingTask creates a damping task with the given cost.
func NewDampingTask(cost float64) *DampingTask {
	return &DampingTask{Cost: cost}
}

// ComputeError returns the zero vector; the task is always satisfied at zero displacement.
func (t *DampingTask) ComputeError(c *rigidbody.Configuration) (*mat.VecDense, error) {
	return mat.NewVecDense(len(c.Model().DoF()), nil), nil
}

// ComputeJacobian returns the identity.
func (t *DampingTask) ComputeJacobian(c *rigidbody.Configuration) (*mat.Dense, error) {
	return identityJacobian(len(c.Model().DoF())), nil
}

// ComputeQPObjective returns the task's quadratic cost block.
func (t *DampingTask) ComputeQPObjective(c *rigidbody.Configuration) (*mat.SymDense, *mat.VecDense, error) {
	taskErr, err := t.ComputeError(c)
	if err != nil {
		return nil, nil, err
	}
	jacobian, err := t.ComputeJacobian(c)
	if err != nil {
		return nil, nil, err
	}
	return qpObjective(jacobian, taskErr, uniformWeights(taskErr.Len(), t.Cost), 1.0, 0)
}

// String returns a human readable string of the task's tuning.
func (t *DampingTask) String() string {
	return fmt.Sprintf("DampingTask(cost=%v)", t.Cost)
}
