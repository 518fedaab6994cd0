package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// dualQuaternion defines functions to perform rigid transformations in 3D.
// If you find yourself importing gonum.org/v1/gonum/num/dualquat in some other
// file, you should probably be doing it here.
type dualQuaternion struct {
	dualquat.Number
}

// newDualQuaternion returns a pointer to a new dualQuaternion object whose real part is an identity
// quaternion. Since the real part of a dual quaternion should be a unit quaternion, not all zeroes,
// this should be used instead of &dualQuaternion{}.
func newDualQuaternion() *dualQuaternion {
	return &dualQuaternion{dualquat.Number{
		Real: quat.Number{Real: 1},
		Dual: quat.Number{},
	}}
}

// newDualQuaternionFromRotation returns a pointer to a new dualQuaternion object whose rotation
// quaternion is set from a provided orientation.
func newDualQuaternionFromRotation(o Orientation) *dualQuaternion {
	q := newDualQuaternion()
	q.Real = quat.Normalize(o.Quaternion())
	return q
}

// newDualQuaternionFromPose takes a pose and returns an equivalent dualQuaternion.
func newDualQuaternionFromPose(p Pose) *dualQuaternion {
	if q, ok := p.(*dualQuaternion); ok {
		return q.Clone()
	}
	q := newDualQuaternionFromRotation(p.Orientation())
	q.SetTranslation(p.Point())
	return q
}

// Clone returns a dualQuaternion object identical to this one.
func (q *dualQuaternion) Clone() *dualQuaternion {
	// No need for deep copies here, dual quaternions are primitives all the way down.
	return &dualQuaternion{q.Number}
}

// Point multiplies the dual quaternion by its own conjugate to give a dq where the real is the
// identity quat and the dual is representative of real-world units/2, then doubles it.
func (q *dualQuaternion) Point() r3.Vector {
	tmpDual := dualquat.Mul(q.Number, dualquat.Conj(q.Number)).Dual
	return r3.Vector{2 * tmpDual.Imag, 2 * tmpDual.Jmag, 2 * tmpDual.Kmag}
}

// Orientation returns the rotation quaternion as an Orientation.
func (q *dualQuaternion) Orientation() Orientation {
	return (*quaternion)(&q.Real)
}

// SetTranslation correctly sets the translation quaternion against the rotation.
func (q *dualQuaternion) SetTranslation(pt r3.Vector) {
	q.Dual = quat.Number{0, pt.X / 2, pt.Y / 2, pt.Z / 2}
	q.rotate()
}

// rotate multiplies the dual part of the quaternion by the real part to give the correct rotation.
func (q *dualQuaternion) rotate() {
	q.Dual = quat.Mul(q.Dual, q.Real)
}

// Invert returns a dualQuaternion representing the opposite transformation. So if the input q
// would transform a -> b, then Invert(q) will transform b -> a.
func (q *dualQuaternion) Invert() Pose {
	return &dualQuaternion{dualquat.ConjQuat(q.Number)}
}

// Transformation multiplies the dual quat contained in this dualQuaternion by another dual quat.
func (q *dualQuaternion) Transformation(by dualquat.Number) dualquat.Number {
	var newReal quat.Number
	var newDual quat.Number
	if vecLen := 1 / quat.Abs(by.Real); vecLen != 1 {
		by.Real.Real *= vecLen
		by.Real.Imag *= vecLen
		by.Real.Jmag *= vecLen
		by.Real.Kmag *= vecLen
	}

	//nolint: gocritic
	if q.Real.Real == 1 {
		// Since we're working with unit quaternions, if either real part is 1 then that quat is an
		// identity rotation and the multiplication is skippable.
		newReal = by.Real
	} else if by.Real.Real == 1 {
		newReal = q.Real
	} else {
		newReal = quat.Mul(q.Real, by.Real)
	}

	//nolint: gocritic
	if q.Dual.Real == 0 && q.Dual.Imag == 0 && q.Dual.Jmag == 0 && q.Dual.Kmag == 0 {
		newDual = quat.Mul(q.Real, by.Dual)
	} else if by.Dual.Real == 0 && by.Dual.Imag == 0 && by.Dual.Jmag == 0 && by.Dual.Kmag == 0 {
		newDual = quat.Mul(q.Dual, by.Real)
	} else {
		newDual = quat.Add(quat.Mul(q.Real, by.Dual), quat.Mul(q.Dual, by.Real))
	}
	return dualquat.Number{
		Real: newReal,
		Dual: newDual,
	}
}

// normalize divides a dual quaternion by the magnitude of its real part, guarding against drift
// accumulated over long chains of composition.
func (q *dualQuaternion) normalize() {
	mag := quat.Abs(q.Real)
	if mag == 0 || math.Abs(mag-1) < 1e-10 {
		return
	}
	q.Real = quat.Scale(1/mag, q.Real)
	q.Dual = quat.Scale(1/mag, q.Dual)
}
