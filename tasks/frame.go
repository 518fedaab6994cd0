package tasks

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/domrachev03/pink/rigidbody"
	"github.com/domrachev03/pink/spatialmath"
)

// FrameTask drives a frame of the model toward a target pose. The error is the 6-vector from the
// current pose to the target: translation difference in meters, then the world-frame rotation
// vector, matching the row order of the model's geometric Jacobian.
type FrameTask struct {
	frame string

	// PositionCost weighs the translation rows of the residual, in cost per meter.
	PositionCost float64
	// OrientationCost weighs the rotation rows of the residual, in cost per radian.
	OrientationCost float64
	// LmDamping is the Levenberg-Marquardt damping scale; nonzero values slow the task down
	// near singular configurations instead of requesting unbounded joint displacements.
	LmDamping float64
	// Gain scales the fraction of the error requested per solve step, in (0, 1].
	Gain float64

	target spatialmath.Pose
}

// NewFrameTask creates a task tracking the named frame with the given translation and rotation
// costs. The target must be set before the first solve.
func NewFrameTask(frame string, positionCost, orientationCost float64) *FrameTask {
	return &FrameTask{
		frame:           frame,
		PositionCost:    positionCost,
		OrientationCost: orientationCost,
		Gain:            1.0,
	}
}

// Frame returns the name of the tracked frame.
func (t *FrameTask) Frame() string {
	return t.frame
}

// Target returns the current target pose, or nil if none was set.
func (t *FrameTask) Target() spatialmath.Pose {
	return t.target
}

// SetTarget sets the pose the tracked frame should reach, in the world frame.
func (t *FrameTask) SetTarget(target spatialmath.Pose) {
	t.target = target
}

// SetTargetFromConfiguration sets the target to the tracked frame's pose at the given
// configuration, making the task initially satisfied.
func (t *FrameTask) SetTargetFromConfiguration(c *rigidbody.Configuration) error {
	pose, err := c.FrameTransform(t.frame)
	if err != nil {
		return err
	}
	t.target = pose
	return nil
}

// ComputeError returns the 6-D pose error from the frame's current pose to the target.
func (t *FrameTask) ComputeError(c *rigidbody.Configuration) (*mat.VecDense, error) {
	if t.target == nil {
		return nil, ErrTargetNotSet
	}
	pose, err := c.FrameTransform(t.frame)
	if err != nil {
		return nil, err
	}
	return mat.NewVecDense(6, spatialmath.PoseDelta(pose, t.target)), nil
}

// ComputeJacobian returns the tracked frame's geometric Jacobian.
func (t *FrameTask) ComputeJacobian(c *rigidbody.Configuration) (*mat.Dense, error) {
	return c.FrameJacobian(t.frame)
}

// ComputeQPObjective returns the task's quadratic cost block.
func (t *FrameTask) ComputeQPObjective(c *rigidbody.Configuration) (*mat.SymDense, *mat.VecDense, error) {
	taskErr, err := t.ComputeError(c)
	if err != nil {
		return nil, nil, err
	}
	jacobian, err := t.ComputeJacobian(c)
	if err != nil {
		return nil, nil, err
	}
	weights := []float64{
		t.PositionCost, t.PositionCost, t.PositionCost,
		t.OrientationCost, t.OrientationCost, t.OrientationCost,
	}
	return qpObjective(jacobian, taskErr, weights, t.Gain, t.LmDamping)
}

// String returns a human readable string of the task's tuning.
func (t *FrameTask) String() string {
	return fmt.Sprintf("FrameTask(frame=%s, position_cost=%v, orientation_cost=%v, lm_damping=%v, gain=%v)",
		t.frame, t.PositionCost, t.OrientationCost, t.LmDamping, t.Gain)
}
