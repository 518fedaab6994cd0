// Package spatialmath defines spatial mathematical operations.
// Distances are in meters and angles in radians throughout.
package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// defaultDistanceEpsilon represents the acceptable discrepancy between two floats
// representing spatial coordinates wherein the coordinates should be considered equivalent.
const defaultDistanceEpsilon = 1e-8

// Pose represents a 6dof pose, position and orientation, with respect to the origin.
// The Point() method returns the position in (x, y, z) meters, and the orientation
// is expressed as an Orientation.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

// NewZeroPose returns a pose at (0,0,0) with the same orientation as whatever frame it is placed in.
func NewZeroPose() Pose {
	return newDualQuaternion()
}

// NewPose takes in a position and orientation and returns a Pose.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(p)
	}
	q := newDualQuaternionFromRotation(o)
	q.SetTranslation(p)
	return q
}

// NewPoseFromPoint takes in a cartesian (x,y,z) and stores it as a vector.
// It will have the same orientation as the frame it is in reference to.
func NewPoseFromPoint(point r3.Vector) Pose {
	q := newDualQuaternion()
	q.SetTranslation(point)
	return q
}

// NewPoseFromOrientation takes in an orientation and returns a Pose with the given orientation
// and no translation.
func NewPoseFromOrientation(o Orientation) Pose {
	if o == nil {
		return NewZeroPose()
	}
	return newDualQuaternionFromRotation(o)
}

// NewPoseFromDH creates a pose from the modified Denavit-Hartenberg link parameters (a, d, alpha).
// The joint rotation about Z is not part of the returned pose; it belongs to the joint frame
// preceding this transform.
func NewPoseFromDH(a, d, alpha float64) Pose {
	m := mgl64.Ident4()

	m.Set(1, 1, math.Cos(alpha))
	m.Set(1, 2, -1*math.Sin(alpha))

	m.Set(2, 0, 0)
	m.Set(2, 1, math.Sin(alpha))
	m.Set(2, 2, math.Cos(alpha))

	qRot := mgl64.Mat4ToQuat(m)
	q := newDualQuaternion()
	q.Real = quat.Number{qRot.W, qRot.X(), qRot.Y(), qRot.Z()}
	q.SetTranslation(r3.Vector{a, 0, d})
	return q
}

// Compose treats Poses as functions A(x) and B(x), and produces a new function C(x) = A(B(x)).
// It converts the poses to dual quaternions and multiplies them together, normalizes the transform
// and returns a new Pose.
func Compose(a, b Pose) Pose {
	aq := newDualQuaternionFromPose(a)
	result := &dualQuaternion{aq.Transformation(newDualQuaternionFromPose(b).Number)}
	result.normalize()
	return result
}

// PoseInverse will return the inverse of a pose. So if a given pose p is the pose of A relative to B,
// PoseInverse(p) will give the pose of B relative to A.
func PoseInverse(p Pose) Pose {
	return newDualQuaternionFromPose(p).Invert()
}

// PoseBetween returns the difference between two dualQuaternions, that is, the dq which if
// multiplied by one will give the other: Compose(a, PoseBetween(a, b)) == b.
func PoseBetween(a, b Pose) Pose {
	result := &dualQuaternion{newDualQuaternionFromPose(a).Invert().(*dualQuaternion).Transformation(newDualQuaternionFromPose(b).Number)}
	result.normalize()
	return result
}

// PoseDelta returns the difference between two poses as a 6-vector: the first three elements are
// the translation difference in meters, the last three the orientation difference as an R3 scaled
// axis-angle (the rotation vector taking a's orientation to b's, expressed in world).
func PoseDelta(a, b Pose) []float64 {
	pt := b.Point().Sub(a.Point())
	aa := QuatToR4AA(quat.Mul(b.Orientation().Quaternion(), quat.Conj(a.Orientation().Quaternion()))).ToR3()
	return []float64{pt.X, pt.Y, pt.Z, aa.X, aa.Y, aa.Z}
}

// PoseAlmostEqual checks if poses are almost equal in both position and orientation.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostCoincident(a, b) && OrientationAlmostEqual(a.Orientation(), b.Orientation())
}

// PoseAlmostCoincident checks if two poses are within the default distance epsilon of each other.
// This uses the L-infinity norm, which is faster than the L2 norm and sufficient for a coincidence check.
func PoseAlmostCoincident(a, b Pose) bool {
	return PoseAlmostCoincidentEps(a, b, defaultDistanceEpsilon)
}

// PoseAlmostCoincidentEps checks if two poses are within a given distance epsilon of each other.
func PoseAlmostCoincidentEps(a, b Pose, epsilon float64) bool {
	ptA, ptB := a.Point(), b.Point()
	return math.Abs(ptA.X-ptB.X) < epsilon &&
		math.Abs(ptA.Y-ptB.Y) < epsilon &&
		math.Abs(ptA.Z-ptB.Z) < epsilon
}
