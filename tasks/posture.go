package tasks

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/domrachev03/pink/rigidbody"
)

// PostureTask regularizes the solution toward a reference joint vector. It is typically given a
// cost several orders of magnitude below the tracking tasks so that it only resolves redundancy.
type PostureTask struct {
	// Cost weighs every joint row of the residual, in cost per radian.
	Cost float64
	// LmDamping is the Levenberg-Marquardt damping scale.
	LmDamping float64
	// Gain scales the fraction of the error requested per solve step, in (0, 1].
	Gain float64

	target []rigidbody.Input
}

// NewPostureTask creates a posture task with the given cost. The target posture must be set
// before the first solve.
func NewPostureTask(cost float64) *PostureTask {
	return &PostureTask{Cost: cost, Gain: 1.0}
}

// Target returns the reference posture, or nil if none was set.
func (t *PostureTask) Target() []rigidbody.Input {
	return t.target
}

// SetTarget sets the reference posture.
func (t *PostureTask) SetTarget(target []rigidbody.Input) {
	t.target = append(make([]rigidbody.Input, 0, len(target)), target...)
}

// SetTargetFromConfiguration sets the reference posture to the given configuration's joint
// vector, making the task initially satisfied.
func (t *PostureTask) SetTargetFromConfiguration(c *rigidbody.Configuration) error {
	t.SetTarget(c.Inputs())
	return nil
}

// ComputeError returns the difference between the reference posture and the current joint vector.
func (t *PostureTask) ComputeError(c *rigidbody.Configuration) (*mat.VecDense, error) {
	if t.target == nil {
		return nil, ErrTargetNotSet
	}
	q := c.Inputs()
	if len(t.target) != len(q) {
		return nil, rigidbody.NewIncorrectDoFError(len(t.target), len(q))
	}
	taskErr := mat.NewVecDense(len(q), nil)
	for i := range q {
		taskErr.SetVec(i, t.target[i].Value-q[i].Value)
	}
	return taskErr, nil
}

// ComputeJacobian returns the identity: the posture error is a direct function of the joints.
func (t *PostureTask) ComputeJacobian(c *rigidbody.Configuration) (*mat.Dense, error) {
	return identityJacobian(len(c.Model().DoF())), nil
}

// ComputeQPObjective returns the task's quadratic cost block.
func (t *PostureTask) ComputeQPObjective(c *rigidbody.Configuration) (*mat.SymDense, *mat.VecDense, error) {
	taskErr, err := t.ComputeError(c)
	if err != nil {
		return nil, nil, err
	}
	jacobian, err := t.ComputeJacobian(c)
	if err != nil {
		return nil, nil, err
	}
	return qpObjective(jacobian, taskErr, uniformWeights(taskErr.Len(), t.Cost), t.Gain, t.LmDamping)
}

// String returns a human readable string of the task's tuning.
func (t *PostureTask) String() string {
	return fmt.Sprintf("PostureTask(cost=%v, lm_damping=%v, gain=%v)", t.Cost, t.LmDamping, t.Gain)
}
