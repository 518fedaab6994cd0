package rigidbody

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/domrachev03/pink/spatialmath"
)

// Configuration pairs a model with a joint vector and caches the forward kinematics of every
// frame at that joint vector. Tasks and barriers read world poses and Jacobians through it, so a
// single solve never recomputes the kinematic chain.
//
// A Configuration is immutable once constructed; Integrate returns a new one.
type Configuration struct {
	model *SimpleModel
	q     []Input
	poses map[string]spatialmath.Pose
}

// NewConfiguration creates a Configuration from a model and joint values. Out-of-bounds joint
// values are allowed here; CheckLimits reports them.
func NewConfiguration(model *SimpleModel, q []Input) (*Configuration, error) {
	if len(q) != len(model.DoF()) {
		return nil, NewIncorrectDoFError(len(q), len(model.DoF()))
	}
	poses, err := model.FramePoses(q)
	if poses == nil {
		return nil, err
	}
	return &Configuration{
		model: model,
		q:     append(make([]Input, 0, len(q)), q...),
		poses: poses,
	}, nil
}

// NewZeroConfiguration creates a Configuration with all joint values at zero.
func NewZeroConfiguration(model *SimpleModel) (*Configuration, error) {
	return NewConfiguration(model, make([]Input, len(model.DoF())))
}

// Model returns the underlying model.
func (c *Configuration) Model() *SimpleModel {
	return c.model
}

// Inputs returns a copy of the joint values.
func (c *Configuration) Inputs() []Input {
	return append(make([]Input, 0, len(c.q)), c.q...)
}

// Float64s returns a copy of the joint values as raw floats.
func (c *Configuration) Float64s() []float64 {
	return InputsToFloats(c.q)
}

// FrameTransform returns the cached world pose of the named frame.
func (c *Configuration) FrameTransform(frameName string) (spatialmath.Pose, error) {
	pose, ok := c.poses[frameName]
	if !ok {
		return nil, NewFrameMissingError(frameName)
	}
	return pose, nil
}

// FrameJacobian returns the geometric Jacobian of the named frame at this configuration.
func (c *Configuration) FrameJacobian(frameName string) (*mat.Dense, error) {
	return c.model.Jacobian(c.q, frameName)
}

// FrameJacobianAtPoint returns the geometric Jacobian of a world point rigidly attached to the
// named frame at this configuration.
func (c *Configuration) FrameJacobianAtPoint(frameName string, point r3.Vector) (*mat.Dense, error) {
	return c.model.JacobianAtPoint(c.q, frameName, point)
}

// FrameGeometry returns the named frame's collision sphere transformed to this configuration's
// world pose.
func (c *Configuration) FrameGeometry(frameName string) (*spatialmath.Sphere, error) {
	pose, err := c.FrameTransform(frameName)
	if err != nil {
		return nil, err
	}
	for _, transform := range c.model.OrdTransforms() {
		if transform.Name() != frameName {
			continue
		}
		geometric, ok := transform.(Geometric)
		if !ok || geometric.Geometry() == nil {
			return nil, NewFrameNotGeometricError(frameName)
		}
		return geometric.Geometry().Transform(pose), nil
	}
	return nil, NewFrameMissingError(frameName)
}

// Integrate computes the configuration reached by moving at the given joint velocity for dt
// seconds.
func (c *Configuration) Integrate(velocity []float64, dt float64) (*Configuration, error) {
	if len(velocity) != len(c.q) {
		return nil, NewIncorrectDoFError(len(velocity), len(c.q))
	}
	next := make([]Input, len(c.q))
	for i, joint := range c.q {
		next[i] = Input{joint.Value + velocity[i]*dt}
	}
	return NewConfiguration(c.model, next)
}

// CheckLimits returns a non-nil error if any joint value violates its limits.
func (c *Configuration) CheckLimits() error {
	return c.model.validInputs(c.q)
}
