// Package barriers defines the control-barrier-function constraints of the inverse kinematics
// problem. A barrier is a function h(q) whose nonnegative set is the safe set; each solve step
// constrains the joint displacement so that h decays no faster than its gain allows, which keeps
// the configuration inside the safe set under first-order integration.
package barriers

import (
	"gonum.org/v1/gonum/mat"

	"github.com/domrachev03/pink/rigidbody"
)

// minSafeGain is the threshold below which the safe-displacement objective is considered
// disabled and contributes exactly zero to the QP.
const minSafeGain = 1e-6

// A Barrier is an inequality constraint of the differential IK problem.
type Barrier interface {
	// Dim returns the number of rows of the barrier: the dimension of h(q).
	Dim() int

	// ComputeBarrier returns h(q) at the given configuration. All entries are nonnegative while
	// the configuration is safe.
	ComputeBarrier(c *rigidbody.Configuration) (*mat.VecDense, error)

	// ComputeJacobian returns dh/dq at the given configuration, one row per barrier dimension.
	ComputeJacobian(c *rigidbody.Configuration) (*mat.Dense, error)

	// ComputeSafePolicy returns the joint displacement the barrier would steer toward when its
	// safe-displacement gain is enabled. The zero displacement is the default policy.
	ComputeSafePolicy(c *rigidbody.Configuration) (*mat.VecDense, error)

	// ComputeQPObjective returns the barrier's contribution (H, c) to the QP cost: a damping
	// term drawing the solution toward the safe policy, scaled by the safe-displacement gain.
	// Both are zero when the gain is zero.
	ComputeQPObjective(c *rigidbody.Configuration) (*mat.SymDense, *mat.VecDense, error)

	// ComputeQPInequality returns the pair (G, g) such that G*dq <= g keeps h nonnegative to
	// first order: G = -dh/dq and g = gain ⊙ h(q) * dt.
	ComputeQPInequality(c *rigidbody.Configuration, dt float64) (*mat.Dense, *mat.VecDense, error)
}

// qpObjective assembles the safe-displacement objective shared by all barriers:
//
//	w = safeGain / ‖dh/dq‖²_F    H = w·I    c = -w·dqSafe
//
// Both outputs are exactly zero when safeGain is below minSafeGain, so a barrier with the gain
// left at zero only constrains the QP and never shapes its cost.
func qpObjective(b Barrier, c *rigidbody.Configuration, safeGain float64) (*mat.SymDense, *mat.VecDense, error) {
	nv := len(c.Model().DoF())
	objective := mat.NewSymDense(nv, nil)
	linear := mat.NewVecDense(nv, nil)
	if safeGain < minSafeGain {
		return objective, linear, nil
	}

	jacobian, err := b.ComputeJacobian(c)
	if err != nil {
		return nil, nil, err
	}
	norm := mat.Norm(jacobian, 2)
	if norm == 0 {
		return objective, linear, nil
	}
	weight := safeGain / (norm * norm)
	for i := 0; i < nv; i++ {
		objective.SetSym(i, i, weight)
	}

	safePolicy, err := b.ComputeSafePolicy(c)
	if err != nil {
		return nil, nil, err
	}
	linear.ScaleVec(-weight, safePolicy)
	return objective, linear, nil
}

// qpInequality assembles the linearized barrier constraint shared by all barriers.
func qpInequality(b Barrier, c *rigidbody.Configuration, dt float64, gain []float64) (*mat.Dense, *mat.VecDense, error) {
	value, err := b.ComputeBarrier(c)
	if err != nil {
		return nil, nil, err
	}
	jacobian, err := b.ComputeJacobian(c)
	if err != nil {
		return nil, nil, err
	}

	rows, nv := jacobian.Dims()
	constraint := mat.NewDense(rows, nv, nil)
	constraint.Scale(-1, jacobian)
	bound := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		bound.SetVec(i, gain[i]*value.AtVec(i)*dt)
	}
	return constraint, bound, nil
}

// zeroSafePolicy is the default safe policy: do not move.
func zeroSafePolicy(c *rigidbody.Configuration) *mat.VecDense {
	return mat.NewVecDense(len(c.Model().DoF()), nil)
}

// uniformGain expands a scalar gain to one entry per barrier row.
func uniformGain(n int, gain float64) []float64 {
	gains := make([]float64, n)
	for i := range gains {
		gains[i] = gain
	}
	return gains
}
