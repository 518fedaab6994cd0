package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestNewSphere(t *testing.T) {
	s, err := NewSphere(NewZeroPose(), 0.5, "base")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Radius(), test.ShouldEqual, 0.5)
	test.That(t, s.Label(), test.ShouldEqual, "base")

	_, err = NewSphere(NewZeroPose(), -1, "bad")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSphereTransform(t *testing.T) {
	s, err := NewSphere(NewPoseFromPoint(r3.Vector{X: 1}), 0.25, "elbow")
	test.That(t, err, test.ShouldBeNil)

	// a quarter turn about Z carries the offset onto the Y axis
	moved := s.Transform(NewPoseFromOrientation(&R4AA{Theta: math.Pi / 2, RZ: 1}))
	test.That(t, R3VectorAlmostEqual(moved.Pose().Point(), r3.Vector{Y: 1}, 1e-10), test.ShouldBeTrue)
	test.That(t, moved.Radius(), test.ShouldEqual, 0.25)
	// the original is untouched
	test.That(t, R3VectorAlmostEqual(s.Pose().Point(), r3.Vector{X: 1}, 1e-10), test.ShouldBeTrue)
}

func TestSphereDistance(t *testing.T) {
	a, err := NewSphere(NewZeroPose(), 1, "a")
	test.That(t, err, test.ShouldBeNil)
	b, err := NewSphere(NewPoseFromPoint(r3.Vector{X: 4}), 1, "b")
	test.That(t, err, test.ShouldBeNil)

	test.That(t, SphereVsSphereDistance(a, b), test.ShouldAlmostEqual, 2, 1e-10)
	test.That(t, a.DistanceFrom(b), test.ShouldAlmostEqual, 2, 1e-10)

	// overlapping spheres report penetration depth
	c, err := NewSphere(NewPoseFromPoint(r3.Vector{X: 1}), 1, "c")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, SphereVsSphereDistance(a, c), test.ShouldAlmostEqual, -1, 1e-10)
}

func TestSphereAlmostEqual(t *testing.T) {
	a, err := NewSphere(NewZeroPose(), 1, "a")
	test.That(t, err, test.ShouldBeNil)
	b, err := NewSphere(NewZeroPose(), 1+1e-10, "b")
	test.That(t, err, test.ShouldBeNil)
	c, err := NewSphere(NewZeroPose(), 2, "c")
	test.That(t, err, test.ShouldBeNil)

	test.That(t, a.AlmostEqual(b), test.ShouldBeTrue)
	test.That(t, a.AlmostEqual(c), test.ShouldBeFalse)
}
