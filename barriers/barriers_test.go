package barriers

import (
	"math"
	"strings"
	"testing"

	"go.viam.com/test"

	"github.com/domrachev03/pink/rigidbody"
)

const planar2RJSON = `{
	"name": "planar2r",
	"links": [
		{"id": "link1", "parent": "joint1", "translation": {"x": 1, "y": 0, "z": 0},
			"geometry": {"r": 0.1, "center": {"x": -0.5, "y": 0, "z": 0}}},
		{"id": "ee", "parent": "joint2", "translation": {"x": 1, "y": 0, "z": 0},
			"geometry": {"r": 0.1, "center": {"x": -0.5, "y": 0, "z": 0}}}
	],
	"joints": [
		{"id": "joint1", "parent": "world", "type": "revolute", "axis": {"z": 1}, "max": 180, "min": -180},
		{"id": "joint2", "parent": "link1", "type": "revolute", "axis": {"z": 1}, "max": 150, "min": -150}
	]
}`

func planarModel(t *testing.T) *rigidbody.SimpleModel {
	t.Helper()
	model, err := rigidbody.UnmarshalModelConfig([]byte(planar2RJSON), "")
	test.That(t, err, test.ShouldBeNil)
	return model
}

func planarConfiguration(t *testing.T, q []float64) *rigidbody.Configuration {
	t.Helper()
	c, err := rigidbody.NewConfiguration(planarModel(t), rigidbody.FloatsToInputs(q))
	test.That(t, err, test.ShouldBeNil)
	return c
}

// every barrier must produce consistently shaped outputs
func checkDimensions(t *testing.T, b Barrier, c *rigidbody.Configuration, nv int) {
	t.Helper()
	dim := b.Dim()

	value, err := b.ComputeBarrier(c)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, value.Len(), test.ShouldEqual, dim)

	jacobian, err := b.ComputeJacobian(c)
	test.That(t, err, test.ShouldBeNil)
	rows, cols := jacobian.Dims()
	test.That(t, rows, test.ShouldEqual, dim)
	test.That(t, cols, test.ShouldEqual, nv)

	objective, linear, err := b.ComputeQPObjective(c)
	test.That(t, err, test.ShouldBeNil)
	hRows, hCols := objective.Dims()
	test.That(t, hRows, test.ShouldEqual, nv)
	test.That(t, hCols, test.ShouldEqual, nv)
	test.That(t, linear.Len(), test.ShouldEqual, nv)

	constraint, bound, err := b.ComputeQPInequality(c, 1e-3)
	test.That(t, err, test.ShouldBeNil)
	gRows, gCols := constraint.Dims()
	test.That(t, gRows, test.ShouldEqual, dim)
	test.That(t, gCols, test.ShouldEqual, nv)
	test.That(t, bound.Len(), test.ShouldEqual, dim)
}

func TestPositionBarrierDimensions(t *testing.T) {
	c := planarConfiguration(t, []float64{0.5, 0.5})
	b, err := NewPositionBarrier("ee", []int{1}, []float64{math.Inf(-1)}, []float64{0.6}, []float64{100}, 1.0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Dim(), test.ShouldEqual, 1)
	checkDimensions(t, b, c, 2)

	// two-sided bounds double the rows
	b, err = NewPositionBarrier("ee", []int{0, 1}, []float64{-1, -1}, []float64{1, 1}, []float64{1, 1}, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Dim(), test.ShouldEqual, 4)
	checkDimensions(t, b, c, 2)
}

func TestPositionBarrierValue(t *testing.T) {
	c := planarConfiguration(t, []float64{math.Pi / 2, 0})
	// the arm is pointing up: ee at (0, 2)
	b, err := NewMaxPositionBarrier("ee", 1, 2.5, 100, 0)
	test.That(t, err, test.ShouldBeNil)

	value, err := b.ComputeBarrier(c)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, value.AtVec(0), test.ShouldAlmostEqual, 0.5, 1e-10)

	// the inequality bound is gain*h*dt and the row is the negated Y Jacobian
	dt := 1e-2
	constraint, bound, err := b.ComputeQPInequality(c, dt)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bound.AtVec(0), test.ShouldAlmostEqual, 100*0.5*dt, 1e-10)
	jacobian, err := c.FrameJacobian("ee")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, constraint.At(0, 0), test.ShouldAlmostEqual, -jacobian.At(1, 0), 1e-10)
	test.That(t, constraint.At(0, 1), test.ShouldAlmostEqual, -jacobian.At(1, 1), 1e-10)

	// a min bound flips the sign
	minBarrier, err := NewMinPositionBarrier("ee", 1, 1.5, 100, 0)
	test.That(t, err, test.ShouldBeNil)
	value, err = minBarrier.ComputeBarrier(c)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, value.AtVec(0), test.ShouldAlmostEqual, 0.5, 1e-10)
}

func TestPositionBarrierValidation(t *testing.T) {
	_, err := NewPositionBarrier("ee", []int{1}, []float64{0}, []float64{1}, []float64{1, 2}, 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewPositionBarrier("ee", []int{3}, []float64{0}, []float64{1}, []float64{1}, 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewPositionBarrier("ee", []int{1}, []float64{2}, []float64{1}, []float64{1}, 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewPositionBarrier("ee", []int{1}, []float64{math.Inf(-1)}, []float64{math.Inf(1)}, []float64{1}, 0)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestBarrierObjectiveDisabledByDefault(t *testing.T) {
	c := planarConfiguration(t, []float64{0.5, 0.5})
	// safe-displacement gain of zero contributes exactly nothing to the cost
	b, err := NewMaxPositionBarrier("ee", 1, 0.6, 100, 0)
	test.That(t, err, test.ShouldBeNil)

	objective, linear, err := b.ComputeQPObjective(c)
	test.That(t, err, test.ShouldBeNil)
	for i := 0; i < 2; i++ {
		test.That(t, linear.AtVec(i), test.ShouldEqual, 0)
		for j := 0; j < 2; j++ {
			test.That(t, objective.At(i, j), test.ShouldEqual, 0)
		}
	}
}

func TestBarrierObjectiveEnabled(t *testing.T) {
	c := planarConfiguration(t, []float64{0.5, 0.5})
	b, err := NewMaxPositionBarrier("ee", 1, 0.6, 100, 1.0)
	test.That(t, err, test.ShouldBeNil)

	objective, linear, err := b.ComputeQPObjective(c)
	test.That(t, err, test.ShouldBeNil)

	// H = safeGain/‖J‖² on the diagonal, and c = 0 under the default safe policy
	jacobian, err := b.ComputeJacobian(c)
	test.That(t, err, test.ShouldBeNil)
	norm := 0.0
	for j := 0; j < 2; j++ {
		norm += jacobian.At(0, j) * jacobian.At(0, j)
	}
	expected := 1.0 / norm
	test.That(t, objective.At(0, 0), test.ShouldAlmostEqual, expected, 1e-10)
	test.That(t, objective.At(1, 1), test.ShouldAlmostEqual, expected, 1e-10)
	test.That(t, objective.At(0, 1), test.ShouldEqual, 0)
	test.That(t, linear.AtVec(0), test.ShouldEqual, 0)
	test.That(t, linear.AtVec(1), test.ShouldEqual, 0)
}

func TestConfigurationBarrier(t *testing.T) {
	model := planarModel(t)
	b, err := NewConfigurationBarrier(model, 1, 0)
	test.That(t, err, test.ShouldBeNil)
	// both joints have finite min and max
	test.That(t, b.Dim(), test.ShouldEqual, 4)

	q := []float64{0.5, -0.5}
	c := planarConfiguration(t, q)
	checkDimensions(t, b, c, 2)

	value, err := b.ComputeBarrier(c)
	test.That(t, err, test.ShouldBeNil)
	limits := model.DoF()
	// min rows first, then max rows
	test.That(t, value.AtVec(0), test.ShouldAlmostEqual, q[0]-limits[0].Min, 1e-10)
	test.That(t, value.AtVec(1), test.ShouldAlmostEqual, q[1]-limits[1].Min, 1e-10)
	test.That(t, value.AtVec(2), test.ShouldAlmostEqual, limits[0].Max-q[0], 1e-10)
	test.That(t, value.AtVec(3), test.ShouldAlmostEqual, limits[1].Max-q[1], 1e-10)

	jacobian, err := b.ComputeJacobian(c)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, jacobian.At(0, 0), test.ShouldEqual, 1)
	test.That(t, jacobian.At(1, 1), test.ShouldEqual, 1)
	test.That(t, jacobian.At(2, 0), test.ShouldEqual, -1)
	test.That(t, jacobian.At(3, 1), test.ShouldEqual, -1)
	test.That(t, jacobian.At(0, 1), test.ShouldEqual, 0)
}

func TestConfigurationBarrierNoLimits(t *testing.T) {
	model := rigidbody.NewSimpleModel("free")
	_, err := NewConfigurationBarrier(model, 1, 0)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestBodySphericalBarrier(t *testing.T) {
	model := planarModel(t)
	b, err := NewBodySphericalBarrierFromModel(model, "link1", "ee", 1, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Dim(), test.ShouldEqual, 1)

	// stretched out: sphere centers at the middle of each link, one apart
	c := planarConfiguration(t, []float64{0, 0})
	checkDimensions(t, b, c, 2)

	value, err := b.ComputeBarrier(c)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, value.AtVec(0), test.ShouldAlmostEqual, 1-0.2*0.2, 1e-10)

	separation, err := b.SeparationDistance(c)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, separation, test.ShouldAlmostEqual, 0.8, 1e-10)

	// folded back onto itself: the midpoints coincide and the barrier goes negative
	folded := planarConfiguration(t, []float64{0, math.Pi})
	value, err = b.ComputeBarrier(folded)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, value.AtVec(0), test.ShouldAlmostEqual, -0.04, 1e-10)

	// frames without geometry are rejected
	_, err = NewBodySphericalBarrierFromModel(model, "joint1", "ee", 1, 0)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestBodySphericalBarrierJacobian(t *testing.T) {
	model := planarModel(t)
	b, err := NewBodySphericalBarrierFromModel(model, "link1", "ee", 1, 0)
	test.That(t, err, test.ShouldBeNil)

	q := []float64{0.2, 0.6}
	c := planarConfiguration(t, q)
	jacobian, err := b.ComputeJacobian(c)
	test.That(t, err, test.ShouldBeNil)

	// finite-difference check of dh/dq
	const h = 1e-7
	value, err := b.ComputeBarrier(c)
	test.That(t, err, test.ShouldBeNil)
	for j := 0; j < 2; j++ {
		bumped := []float64{q[0], q[1]}
		bumped[j] += h
		bc := planarConfiguration(t, bumped)
		bumpedValue, err := b.ComputeBarrier(bc)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, jacobian.At(0, j), test.ShouldAlmostEqual, (bumpedValue.AtVec(0)-value.AtVec(0))/h, 1e-5)
	}
}

func TestBarrierStrings(t *testing.T) {
	model := planarModel(t)
	position, err := NewMaxPositionBarrier("ee", 1, 0.6, 100, 1.0)
	test.That(t, err, test.ShouldBeNil)
	configuration, err := NewConfigurationBarrier(model, 1, 100)
	test.That(t, err, test.ShouldBeNil)
	spherical, err := NewBodySphericalBarrierFromModel(model, "link1", "ee", 1, 0)
	test.That(t, err, test.ShouldBeNil)

	for _, b := range []interface{ String() string }{position, configuration, spherical} {
		repr := b.String()
		test.That(t, strings.Contains(repr, "gain="), test.ShouldBeTrue)
		test.That(t, strings.Contains(repr, "safety_policy="), test.ShouldBeTrue)
		test.That(t, strings.Contains(repr, "r="), test.ShouldBeTrue)
	}
}

func TestSafePolicyIsZero(t *testing.T) {
	c := planarConfiguration(t, []float64{0.1, 0.1})
	b, err := NewMaxPositionBarrier("ee", 1, 0.6, 100, 1.0)
	test.That(t, err, test.ShouldBeNil)
	policy, err := b.ComputeSafePolicy(c)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, policy.Len(), test.ShouldEqual, 2)
	test.That(t, policy.AtVec(0), test.ShouldEqual, 0)
	test.That(t, policy.AtVec(1), test.ShouldEqual, 0)
}
