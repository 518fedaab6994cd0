package barriers

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/domrachev03/pink/rigidbody"
	"github.com/domrachev03/pink/spatialmath"
)

// BodySphericalBarrier keeps two spheres attached to different frames of the model from
// colliding: a self-collision margin. The barrier value is the squared center distance minus the
// squared sum of radii, which stays differentiable when the centers coincide.
type BodySphericalBarrier struct {
	frameA, frameB   string
	sphereA, sphereB *spatialmath.Sphere
	gain             float64
	safeGain         float64
}

// NewBodySphericalBarrier creates a self-collision barrier between two spheres, each expressed
// as an offset from its frame.
func NewBodySphericalBarrier(frameA, frameB string, sphereA, sphereB *spatialmath.Sphere, gain, safeGain float64) *BodySphericalBarrier {
	return &BodySphericalBarrier{
		frameA:   frameA,
		frameB:   frameB,
		sphereA:  sphereA,
		sphereB:  sphereB,
		gain:     gain,
		safeGain: safeGain,
	}
}

// NewBodySphericalBarrierFromModel creates a self-collision barrier between two frames using the
// collision geometry carried by the model itself.
func NewBodySphericalBarrierFromModel(model *rigidbody.SimpleModel, frameA, frameB string, gain, safeGain float64) (*BodySphericalBarrier, error) {
	spheres := map[string]*spatialmath.Sphere{}
	for _, transform := range model.OrdTransforms() {
		if geometric, ok := transform.(rigidbody.Geometric); ok && geometric.Geometry() != nil {
			spheres[transform.Name()] = geometric.Geometry()
		}
	}
	sphereA, ok := spheres[frameA]
	if !ok {
		return nil, rigidbody.NewFrameNotGeometricError(frameA)
	}
	sphereB, ok := spheres[frameB]
	if !ok {
		return nil, rigidbody.NewFrameNotGeometricError(frameB)
	}
	return NewBodySphericalBarrier(frameA, frameB, sphereA, sphereB, gain, safeGain), nil
}

// Dim returns 1: the barrier is a single scalar constraint.
func (b *BodySphericalBarrier) Dim() int {
	return 1
}

// worldSpheres returns both spheres transformed into the world frame at the given configuration.
func (b *BodySphericalBarrier) worldSpheres(c *rigidbody.Configuration) (*spatialmath.Sphere, *spatialmath.Sphere, error) {
	poseA, err := c.FrameTransform(b.frameA)
	if err != nil {
		return nil, nil, err
	}
	poseB, err := c.FrameTransform(b.frameB)
	if err != nil {
		return nil, nil, err
	}
	return b.sphereA.Transform(poseA), b.sphereB.Transform(poseB), nil
}

// SeparationDistance returns the distance between the sphere surfaces at the given
// configuration; nonpositive values report penetration depth.
func (b *BodySphericalBarrier) SeparationDistance(c *rigidbody.Configuration) (float64, error) {
	worldA, worldB, err := b.worldSpheres(c)
	if err != nil {
		return 0, err
	}
	return spatialmath.SphereVsSphereDistance(worldA, worldB), nil
}

// ComputeBarrier returns the squared center distance minus the squared minimum distance.
func (b *BodySphericalBarrier) ComputeBarrier(c *rigidbody.Configuration) (*mat.VecDense, error) {
	worldA, worldB, err := b.worldSpheres(c)
	if err != nil {
		return nil, err
	}
	delta := worldA.Pose().Point().Sub(worldB.Pose().Point())
	dMin := b.sphereA.Radius() + b.sphereB.Radius()
	return mat.NewVecDense(1, []float64{delta.Norm2() - dMin*dMin}), nil
}

// ComputeJacobian returns dh/dq = 2(cA-cB)ᵀ(J_A - J_B), with each Jacobian taken at its sphere's
// world center.
func (b *BodySphericalBarrier) ComputeJacobian(c *rigidbody.Configuration) (*mat.Dense, error) {
	worldA, worldB, err := b.worldSpheres(c)
	if err != nil {
		return nil, err
	}
	centerA, centerB := worldA.Pose().Point(), worldB.Pose().Point()
	jacobianA, err := c.FrameJacobianAtPoint(b.frameA, centerA)
	if err != nil {
		return nil, err
	}
	jacobianB, err := c.FrameJacobianAtPoint(b.frameB, centerB)
	if err != nil {
		return nil, err
	}

	delta := centerA.Sub(centerB)
	_, nv := jacobianA.Dims()
	jacobian := mat.NewDense(1, nv, nil)
	for j := 0; j < nv; j++ {
		relative := [3]float64{
			jacobianA.At(0, j) - jacobianB.At(0, j),
			jacobianA.At(1, j) - jacobianB.At(1, j),
			jacobianA.At(2, j) - jacobianB.At(2, j),
		}
		jacobian.Set(0, j, 2*(delta.X*relative[0]+delta.Y*relative[1]+delta.Z*relative[2]))
	}
	return jacobian, nil
}

// ComputeSafePolicy returns the zero displacement.
func (b *BodySphericalBarrier) ComputeSafePolicy(c *rigidbody.Configuration) (*mat.VecDense, error) {
	return zeroSafePolicy(c), nil
}

// ComputeQPObjective returns the barrier's safe-displacement cost block.
func (b *BodySphericalBarrier) ComputeQPObjective(c *rigidbody.Configuration) (*mat.SymDense, *mat.VecDense, error) {
	return qpObjective(b, c, b.safeGain)
}

// ComputeQPInequality returns the linearized collision constraint.
func (b *BodySphericalBarrier) ComputeQPInequality(c *rigidbody.Configuration, dt float64) (*mat.Dense, *mat.VecDense, error) {
	return qpInequality(b, c, dt, uniformGain(1, b.gain))
}

// String returns a human readable string of the barrier's tuning.
func (b *BodySphericalBarrier) String() string {
	return fmt.Sprintf("BodySphericalBarrier(frames=[%s %s], d_min=%v, gain=%v, safety_policy=default, r=%v)",
		b.frameA, b.frameB, b.sphereA.Radius()+b.sphereB.Radius(), b.gain, b.safeGain)
}
