package barriers

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/domrachev03/pink/rigidbody"
)

// ConfigurationBarrier keeps every joint inside its limits. Compared to clamping the QP variable
// with hard position bounds, the barrier slows the joints down smoothly as they approach a limit,
// in proportion to its gain. It has one row per finite limit: q-min rows first, then max-q.
type ConfigurationBarrier struct {
	minRows  []limitRow
	maxRows  []limitRow
	gain     float64
	safeGain float64
}

type limitRow struct {
	joint int
	bound float64
}

// NewConfigurationBarrier creates a joint-limit barrier for the given model. Joints with
// infinite limits contribute no rows.
func NewConfigurationBarrier(model *rigidbody.SimpleModel, gain, safeGain float64) (*ConfigurationBarrier, error) {
	b := &ConfigurationBarrier{gain: gain, safeGain: safeGain}
	for i, limit := range model.DoF() {
		if !math.IsInf(limit.Min, -1) {
			b.minRows = append(b.minRows, limitRow{joint: i, bound: limit.Min})
		}
		if !math.IsInf(limit.Max, 1) {
			b.maxRows = append(b.maxRows, limitRow{joint: i, bound: limit.Max})
		}
	}
	if len(b.minRows)+len(b.maxRows) == 0 {
		return nil, errors.New("model has no finite joint limits to enforce")
	}
	return b, nil
}

// Dim returns the number of finite joint limits.
func (b *ConfigurationBarrier) Dim() int {
	return len(b.minRows) + len(b.maxRows)
}

// ComputeBarrier returns the distance of every joint to its finite limits.
func (b *ConfigurationBarrier) ComputeBarrier(c *rigidbody.Configuration) (*mat.VecDense, error) {
	q := c.Float64s()
	value := mat.NewVecDense(b.Dim(), nil)
	for i, row := range b.minRows {
		value.SetVec(i, q[row.joint]-row.bound)
	}
	for i, row := range b.maxRows {
		value.SetVec(len(b.minRows)+i, row.bound-q[row.joint])
	}
	return value, nil
}

// ComputeJacobian returns signed unit rows selecting each limited joint.
func (b *ConfigurationBarrier) ComputeJacobian(c *rigidbody.Configuration) (*mat.Dense, error) {
	nv := len(c.Model().DoF())
	jacobian := mat.NewDense(b.Dim(), nv, nil)
	for i, row := range b.minRows {
		jacobian.Set(i, row.joint, 1)
	}
	for i, row := range b.maxRows {
		jacobian.Set(len(b.minRows)+i, row.joint, -1)
	}
	return jacobian, nil
}

// ComputeSafePolicy returns the zero displacement.
func (b *ConfigurationBarrier) ComputeSafePolicy(c *rigidbody.Configuration) (*mat.VecDense, error) {
	return zeroSafePolicy(c), nil
}

// ComputeQPObjective returns the barrier's safe-displacement cost block.
func (b *ConfigurationBarrier) ComputeQPObjective(c *rigidbody.Configuration) (*mat.SymDense, *mat.VecDense, error) {
	return qpObjective(b, c, b.safeGain)
}

// ComputeQPInequality returns the linearized joint-limit constraints.
func (b *ConfigurationBarrier) ComputeQPInequality(c *rigidbody.Configuration, dt float64) (*mat.Dense, *mat.VecDense, error) {
	return qpInequality(b, c, dt, uniformGain(b.Dim(), b.gain))
}

// String returns a human readable string of the barrier's tuning.
func (b *ConfigurationBarrier) String() string {
	return fmt.Sprintf("ConfigurationBarrier(dim=%d, gain=%v, safety_policy=default, r=%v)", b.Dim(), b.gain, b.safeGain)
}
