package rigidbody

import (
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"

	"github.com/domrachev03/pink/spatialmath"
)

// World is the reserved name of the origin frame every model hangs off of.
const World = "world"

// A Model represents a frame that can change its name, and can return itself as a serial chain
// of simpler frames.
type Model interface {
	Frame
	ChangeName(name string)
}

// SimpleModel is a serial kinematic chain: an ordered list of frames from the base to the end
// effector. A revolute or prismatic frame contributes one degree of freedom; static frames
// contribute none.
type SimpleModel struct {
	name string
	// ordTransforms is the list of transforms ordered from the base to the end effector
	ordTransforms []Frame
	limits        []Limit
}

// NewSimpleModel constructs a new model.
func NewSimpleModel(name string) *SimpleModel {
	return &SimpleModel{name: name}
}

// Name returns the name of this model.
func (m *SimpleModel) Name() string {
	return m.name
}

// ChangeName changes the name of this model - necessary for building larger assemblies.
func (m *SimpleModel) ChangeName(name string) {
	m.name = name
}

// OrdTransforms returns the underlying frames of the model, ordered base to end effector.
func (m *SimpleModel) OrdTransforms() []Frame {
	return m.ordTransforms
}

// setOrdTransforms sets the frames of the model and invalidates the cached limits.
func (m *SimpleModel) setOrdTransforms(transforms []Frame) {
	m.ordTransforms = transforms
	m.limits = nil
}

// DoF returns the allowable values of each joint, ordered base to end effector.
func (m *SimpleModel) DoF() []Limit {
	if m.limits == nil {
		for _, transform := range m.ordTransforms {
			m.limits = append(m.limits, transform.DoF()...)
		}
	}
	return m.limits
}

// EndEffectorName returns the name of the last frame in the chain.
func (m *SimpleModel) EndEffectorName() string {
	if len(m.ordTransforms) == 0 {
		return ""
	}
	return m.ordTransforms[len(m.ordTransforms)-1].Name()
}

// FrameNames returns the names of all frames in the chain, ordered base to end effector.
func (m *SimpleModel) FrameNames() []string {
	names := make([]string, 0, len(m.ordTransforms))
	for _, transform := range m.ordTransforms {
		names = append(names, transform.Name())
	}
	return names
}

// Transform takes a model and a list of joint angles in radians and computes the pose of the end
// effector in the world frame. Out-of-bounds inputs still transform but carry a non-nil error
// containing OOBErrString.
func (m *SimpleModel) Transform(inputs []Input) (spatialmath.Pose, error) {
	return m.FrameTransform(inputs, m.EndEffectorName())
}

// FrameTransform computes the world pose of the named frame at the given inputs.
func (m *SimpleModel) FrameTransform(inputs []Input, frameName string) (spatialmath.Pose, error) {
	poses, err := m.FramePoses(inputs)
	if err != nil && poses == nil {
		return nil, err
	}
	pose, ok := poses[frameName]
	if !ok {
		return nil, NewFrameMissingError(frameName)
	}
	return pose, err
}

// FramePoses returns the world pose of every named frame in the chain for the given inputs.
// The pose of a frame includes its own transform, so the pose of a static link frame is the pose
// of the link's distal coordinate system.
func (m *SimpleModel) FramePoses(inputs []Input) (map[string]spatialmath.Pose, error) {
	var errAll error
	if err := m.validInputs(inputs); err != nil && !strings.Contains(err.Error(), OOBErrString) {
		return nil, err
	} else if err != nil {
		multierr.AppendInto(&errAll, err)
	}

	poses := make(map[string]spatialmath.Pose, len(m.ordTransforms))
	composed := spatialmath.NewZeroPose()
	posIdx := 0
	for _, transform := range m.ordTransforms {
		dof := len(transform.DoF())
		input := inputs[posIdx : posIdx+dof]
		posIdx += dof

		pose, err := transform.Transform(input)
		if pose == nil || (err != nil && !strings.Contains(err.Error(), OOBErrString)) {
			return nil, err
		}
		multierr.AppendInto(&errAll, err)

		composed = spatialmath.Compose(composed, pose)
		poses[transform.Name()] = composed
	}
	return poses, errAll
}

// FrameGeometries returns the collision geometry of every geometric frame, transformed into the
// world frame at the given inputs.
func (m *SimpleModel) FrameGeometries(inputs []Input) (map[string]*spatialmath.Sphere, error) {
	poses, err := m.FramePoses(inputs)
	if err != nil && poses == nil {
		return nil, err
	}
	geometries := make(map[string]*spatialmath.Sphere)
	for _, transform := range m.ordTransforms {
		geometric, ok := transform.(Geometric)
		if !ok || geometric.Geometry() == nil {
			continue
		}
		geometries[transform.Name()] = geometric.Geometry().Transform(poses[transform.Name()])
	}
	return geometries, err
}

// Jacobian computes the 6xDoF geometric Jacobian of the named frame at the given inputs. Rows
// 0-2 are the linear velocity of the frame origin per unit joint velocity, rows 3-5 the angular
// velocity, both expressed in the world frame.
func (m *SimpleModel) Jacobian(inputs []Input, frameName string) (*mat.Dense, error) {
	pose, err := m.FrameTransform(inputs, frameName)
	if err != nil && pose == nil {
		return nil, err
	}
	return m.JacobianAtPoint(inputs, frameName, pose.Point())
}

// JacobianAtPoint computes the geometric Jacobian of a world-frame point rigidly attached to the
// named frame. Joints distal to the frame contribute zero columns.
func (m *SimpleModel) JacobianAtPoint(inputs []Input, frameName string, point r3.Vector) (*mat.Dense, error) {
	if err := m.validInputs(inputs); err != nil && !strings.Contains(err.Error(), OOBErrString) {
		return nil, err
	}

	nv := len(m.DoF())
	jacobian := mat.NewDense(6, nv, nil)
	composed := spatialmath.NewZeroPose()
	posIdx := 0
	found := false
	for _, transform := range m.ordTransforms {
		dof := len(transform.DoF())
		input := inputs[posIdx : posIdx+dof]

		if dof > 0 {
			origin := composed.Point()
			rotation := composed.Orientation().Quaternion()
			switch joint := transform.(type) {
			case *rotationalFrame:
				axis := spatialmath.QuatRotateVector(rotation, joint.rotAxis)
				linear := axis.Cross(point.Sub(origin))
				jacobian.Set(0, posIdx, linear.X)
				jacobian.Set(1, posIdx, linear.Y)
				jacobian.Set(2, posIdx, linear.Z)
				jacobian.Set(3, posIdx, axis.X)
				jacobian.Set(4, posIdx, axis.Y)
				jacobian.Set(5, posIdx, axis.Z)
			case *translationalFrame:
				axis := spatialmath.QuatRotateVector(rotation, joint.transAxis)
				jacobian.Set(0, posIdx, axis.X)
				jacobian.Set(1, posIdx, axis.Y)
				jacobian.Set(2, posIdx, axis.Z)
			}
		}
		posIdx += dof

		pose, err := transform.Transform(input)
		if pose == nil || (err != nil && !strings.Contains(err.Error(), OOBErrString)) {
			return nil, err
		}
		composed = spatialmath.Compose(composed, pose)

		if transform.Name() == frameName {
			found = true
			break
		}
	}
	if !found {
		return nil, NewFrameMissingError(frameName)
	}
	return jacobian, nil
}

// AlmostEquals returns true if the two models are equivalent.
func (m *SimpleModel) AlmostEquals(otherFrame Frame) bool {
	other, ok := otherFrame.(*SimpleModel)
	if !ok {
		return false
	}
	if len(m.ordTransforms) != len(other.ordTransforms) {
		return false
	}
	for idx, transform := range m.ordTransforms {
		if !transform.AlmostEquals(other.ordTransforms[idx]) {
			return false
		}
	}
	return true
}

// validInputs checks whether the given array of joint positions violates any joint limits.
func (m *SimpleModel) validInputs(inputs []Input) error {
	var errAll error
	limits := m.DoF()
	if len(inputs) != len(limits) {
		return NewIncorrectDoFError(len(inputs), len(limits))
	}
	for i := range limits {
		if inputs[i].Value < limits[i].Min || inputs[i].Value > limits[i].Max {
			lim := []float64{limits[i].Max, limits[i].Min}
			multierr.AppendInto(&errAll, errors.Errorf("%.5f %s %.5f", inputs[i].Value, OOBErrString, lim))
		}
	}
	return errAll
}
