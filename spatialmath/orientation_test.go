package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestR4AAQuatRoundTrip(t *testing.T) {
	for _, aa := range []R4AA{
		{Theta: math.Pi / 2, RZ: 1},
		{Theta: math.Pi / 3, RX: 1},
		{Theta: 1.2, RX: 0.5, RY: 0.5, RZ: math.Sqrt(0.5)},
		{Theta: 0.01, RY: 1},
	} {
		recovered := QuatToR4AA(aa.ToQuat())
		test.That(t, recovered.Theta, test.ShouldAlmostEqual, aa.Theta, 1e-8)
		test.That(t, recovered.RX, test.ShouldAlmostEqual, aa.RX, 1e-8)
		test.That(t, recovered.RY, test.ShouldAlmostEqual, aa.RY, 1e-8)
		test.That(t, recovered.RZ, test.ShouldAlmostEqual, aa.RZ, 1e-8)
	}
}

func TestR4AANormalize(t *testing.T) {
	aa := R4AA{Theta: 1, RX: 3, RY: 0, RZ: 4}
	aa.Normalize()
	test.That(t, aa.RX, test.ShouldAlmostEqual, 0.6, 1e-10)
	test.That(t, aa.RZ, test.ShouldAlmostEqual, 0.8, 1e-10)

	// a zero axis defaults to Z
	zero := R4AA{Theta: 1}
	zero.Normalize()
	test.That(t, zero.RZ, test.ShouldAlmostEqual, 1, 1e-10)
}

func TestR3ToR4(t *testing.T) {
	aa := R3ToR4(r3.Vector{Z: math.Pi / 2})
	test.That(t, aa.Theta, test.ShouldAlmostEqual, math.Pi/2, 1e-10)
	test.That(t, aa.RZ, test.ShouldAlmostEqual, 1, 1e-10)

	back := aa.ToR3()
	test.That(t, back.Z, test.ShouldAlmostEqual, math.Pi/2, 1e-10)
}

func TestEulerAngles(t *testing.T) {
	// yaw of 90 degrees matches the axis-angle quarter turn about Z
	ea := &EulerAngles{Yaw: math.Pi / 2}
	aa := &R4AA{Theta: math.Pi / 2, RZ: 1}
	test.That(t, OrientationAlmostEqual(ea, aa), test.ShouldBeTrue)

	recovered := QuatToEulerAngles(ea.Quaternion())
	test.That(t, recovered.Roll, test.ShouldAlmostEqual, 0, 1e-8)
	test.That(t, recovered.Pitch, test.ShouldAlmostEqual, 0, 1e-8)
	test.That(t, recovered.Yaw, test.ShouldAlmostEqual, math.Pi/2, 1e-8)
}

func TestOrientationBetween(t *testing.T) {
	o1 := &R4AA{Theta: math.Pi / 4, RZ: 1}
	o2 := &R4AA{Theta: 3 * math.Pi / 4, RZ: 1}
	between := OrientationBetween(o1, o2)
	test.That(t, OrientationAlmostEqual(between, &R4AA{Theta: math.Pi / 2, RZ: 1}), test.ShouldBeTrue)

	inv := OrientationInverse(o1)
	test.That(t, OrientationAlmostEqual(OrientationBetween(o1, o1), NewZeroOrientation()), test.ShouldBeTrue)
	test.That(t, OrientationAlmostEqual(inv, &R4AA{Theta: -math.Pi / 4, RZ: 1}), test.ShouldBeTrue)
}

func TestQuatRotateVector(t *testing.T) {
	q := (&R4AA{Theta: math.Pi / 2, RZ: 1}).ToQuat()
	rotated := QuatRotateVector(q, r3.Vector{X: 1})
	test.That(t, rotated.X, test.ShouldAlmostEqual, 0, 1e-10)
	test.That(t, rotated.Y, test.ShouldAlmostEqual, 1, 1e-10)

	identity := QuatRotateVector(quat.Number{Real: 1}, r3.Vector{X: 0.3, Y: -0.4, Z: 0.5})
	test.That(t, identity.X, test.ShouldAlmostEqual, 0.3, 1e-10)
	test.That(t, identity.Y, test.ShouldAlmostEqual, -0.4, 1e-10)
	test.That(t, identity.Z, test.ShouldAlmostEqual, 0.5, 1e-10)
}
