package barriers

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/domrachev03/pink/rigidbody"
)

// PositionBarrier keeps selected world coordinates of a frame inside an axis-aligned band: a
// virtual wall. Bounds set to ±Inf are unconstrained; the barrier has one row per finite bound,
// lower bounds first.
type PositionBarrier struct {
	frame    string
	indices  []int
	min, max []float64
	gain     []float64
	safeGain float64
	dim      int
}

// NewPositionBarrier creates a barrier on the given world axes (0=X, 1=Y, 2=Z) of a frame's
// position. min, max and gain must have one entry per index; use math.Inf for one-sided bounds.
// safeGain enables the safe-displacement objective when positive.
func NewPositionBarrier(frame string, indices []int, min, max, gain []float64, safeGain float64) (*PositionBarrier, error) {
	if len(min) != len(indices) || len(max) != len(indices) || len(gain) != len(indices) {
		return nil, errors.Errorf("expected %d entries for min, max and gain, got %d, %d and %d",
			len(indices), len(min), len(max), len(gain))
	}
	dim := 0
	for i, index := range indices {
		if index < 0 || index > 2 {
			return nil, errors.Errorf("position index out of range: %d", index)
		}
		if min[i] > max[i] {
			return nil, errors.Errorf("empty bound on axis %d: min %v > max %v", index, min[i], max[i])
		}
		if !math.IsInf(min[i], -1) {
			dim++
		}
		if !math.IsInf(max[i], 1) {
			dim++
		}
	}
	if dim == 0 {
		return nil, errors.New("position barrier has no finite bounds")
	}
	return &PositionBarrier{
		frame:    frame,
		indices:  append([]int{}, indices...),
		min:      append([]float64{}, min...),
		max:      append([]float64{}, max...),
		gain:     append([]float64{}, gain...),
		safeGain: safeGain,
	}, nil
}

// NewMaxPositionBarrier creates a one-sided barrier keeping a single world coordinate of the
// frame below a maximum.
func NewMaxPositionBarrier(frame string, index int, max, gain, safeGain float64) (*PositionBarrier, error) {
	return NewPositionBarrier(frame, []int{index}, []float64{math.Inf(-1)}, []float64{max}, []float64{gain}, safeGain)
}

// NewMinPositionBarrier creates a one-sided barrier keeping a single world coordinate of the
// frame above a minimum.
func NewMinPositionBarrier(frame string, index int, min, gain, safeGain float64) (*PositionBarrier, error) {
	return NewPositionBarrier(frame, []int{index}, []float64{min}, []float64{math.Inf(1)}, []float64{gain}, safeGain)
}

// Frame returns the name of the constrained frame.
func (b *PositionBarrier) Frame() string {
	return b.frame
}

// Dim returns the number of finite bounds.
func (b *PositionBarrier) Dim() int {
	if b.dim == 0 {
		for i := range b.indices {
			if !math.IsInf(b.min[i], -1) {
				b.dim++
			}
			if !math.IsInf(b.max[i], 1) {
				b.dim++
			}
		}
	}
	return b.dim
}

// ComputeBarrier returns p[i]-min for every finite lower bound followed by max-p[i] for every
// finite upper bound.
func (b *PositionBarrier) ComputeBarrier(c *rigidbody.Configuration) (*mat.VecDense, error) {
	pose, err := c.FrameTransform(b.frame)
	if err != nil {
		return nil, err
	}
	point := pose.Point()
	position := []float64{point.X, point.Y, point.Z}

	value := mat.NewVecDense(b.Dim(), nil)
	row := 0
	for i, index := range b.indices {
		if !math.IsInf(b.min[i], -1) {
			value.SetVec(row, position[index]-b.min[i])
			row++
		}
	}
	for i, index := range b.indices {
		if !math.IsInf(b.max[i], 1) {
			value.SetVec(row, b.max[i]-position[index])
			row++
		}
	}
	return value, nil
}

// ComputeJacobian returns the signed position Jacobian rows matching ComputeBarrier.
func (b *PositionBarrier) ComputeJacobian(c *rigidbody.Configuration) (*mat.Dense, error) {
	frameJacobian, err := c.FrameJacobian(b.frame)
	if err != nil {
		return nil, err
	}
	_, nv := frameJacobian.Dims()

	jacobian := mat.NewDense(b.Dim(), nv, nil)
	row := 0
	for i, index := range b.indices {
		if !math.IsInf(b.min[i], -1) {
			for j := 0; j < nv; j++ {
				jacobian.Set(row, j, frameJacobian.At(index, j))
			}
			row++
		}
	}
	for i, index := range b.indices {
		if !math.IsInf(b.max[i], 1) {
			for j := 0; j < nv; j++ {
				jacobian.Set(row, j, -frameJacobian.At(index, j))
			}
			row++
		}
	}
	return jacobian, nil
}

// ComputeSafePolicy returns the zero displacement.
func (b *PositionBarrier) ComputeSafePolicy(c *rigidbody.Configuration) (*mat.VecDense, error) {
	return zeroSafePolicy(c), nil
}

// ComputeQPObjective returns the barrier's safe-displacement cost block.
func (b *PositionBarrier) ComputeQPObjective(c *rigidbody.Configuration) (*mat.SymDense, *mat.VecDense, error) {
	return qpObjective(b, c, b.safeGain)
}

// ComputeQPInequality returns the linearized virtual wall constraint.
func (b *PositionBarrier) ComputeQPInequality(c *rigidbody.Configuration, dt float64) (*mat.Dense, *mat.VecDense, error) {
	gains := make([]float64, 0, b.Dim())
	for i := range b.indices {
		if !math.IsInf(b.min[i], -1) {
			gains = append(gains, b.gain[i])
		}
	}
	for i := range b.indices {
		if !math.IsInf(b.max[i], 1) {
			gains = append(gains, b.gain[i])
		}
	}
	return qpInequality(b, c, dt, gains)
}

// String returns a human readable string of the barrier's tuning.
func (b *PositionBarrier) String() string {
	return fmt.Sprintf("PositionBarrier(frame=%s, indices=%v, min=%v, max=%v, gain=%v, safety_policy=default, r=%v)",
		b.frame, b.indices, b.min, b.max, b.gain, b.safeGain)
}
