// Package tasks defines the weighted cost terms of the inverse kinematics problem. Each task
// contributes a Gauss-Newton objective block pulling the joint displacement toward some desired
// behavior: tracking a frame target, staying near a reference posture, or simply staying still.
package tasks

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/domrachev03/pink/rigidbody"
)

// ErrTargetNotSet is returned when a task's error is requested before a target was set.
var ErrTargetNotSet = errors.New("task target is not set")

// A Task is a cost term of the differential IK problem. Over a solve step the QP minimizes, for
// every task, the weighted residual between the first-order displacement J*dq and the task error.
type Task interface {
	// ComputeError returns the task error e(q) at the given configuration. Driving the error to
	// zero achieves the task.
	ComputeError(c *rigidbody.Configuration) (*mat.VecDense, error)

	// ComputeJacobian returns the task Jacobian de/dq at the given configuration.
	ComputeJacobian(c *rigidbody.Configuration) (*mat.Dense, error)

	// ComputeQPObjective returns the pair (H, c) such that the task contributes the term
	// 0.5*dqᵀ*H*dq + cᵀ*dq to the QP cost.
	ComputeQPObjective(c *rigidbody.Configuration) (*mat.SymDense, *mat.VecDense, error)
}

// qpObjective assembles the Gauss-Newton objective block shared by all tasks:
//
//	H = (WJ)ᵀ(WJ) + μI    c = -(WJ)ᵀ(W·gain·e)    μ = lmDamping·‖W·gain·e‖²
//
// where W is the diagonal of per-row weights. The Levenberg-Marquardt term μ regularizes the
// task near singular Jacobians in proportion to how far the task is from completion.
func qpObjective(jacobian *mat.Dense, taskErr *mat.VecDense, weights []float64, gain, lmDamping float64) (*mat.SymDense, *mat.VecDense, error) {
	rows, nv := jacobian.Dims()
	if taskErr.Len() != rows || len(weights) != rows {
		return nil, nil, errors.Errorf("task dimension mismatch: jacobian has %d rows, error %d, weights %d",
			rows, taskErr.Len(), len(weights))
	}

	weighted := mat.NewDense(rows, nv, nil)
	weightedErr := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < nv; j++ {
			weighted.Set(i, j, weights[i]*jacobian.At(i, j))
		}
		weightedErr.SetVec(i, weights[i]*gain*taskErr.AtVec(i))
	}

	var hDense mat.Dense
	hDense.Mul(weighted.T(), weighted)
	objective := mat.NewSymDense(nv, nil)
	for i := 0; i < nv; i++ {
		for j := i; j < nv; j++ {
			objective.SetSym(i, j, hDense.At(i, j))
		}
	}

	mu := lmDamping * mat.Dot(weightedErr, weightedErr)
	if mu > 0 {
		for i := 0; i < nv; i++ {
			objective.SetSym(i, i, objective.At(i, i)+mu)
		}
	}

	linear := mat.NewVecDense(nv, nil)
	linear.MulVec(weighted.T(), weightedErr)
	linear.ScaleVec(-1, linear)
	return objective, linear, nil
}

// identityJacobian returns the nv-by-nv identity, the Jacobian of any task whose error is a
// direct function of the joint vector.
func identityJacobian(nv int) *mat.Dense {
	jacobian := mat.NewDense(nv, nv, nil)
	for i := 0; i < nv; i++ {
		jacobian.Set(i, i, 1)
	}
	return jacobian
}

// uniformWeights returns a weight vector with the same cost in every row.
func uniformWeights(n int, cost float64) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = cost
	}
	return weights
}
