package spatialmath

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sphere is a collision geometry primitive: a ball of a given radius whose center is offset from
// the frame it is attached to by a pose.
type Sphere struct {
	pose   Pose
	radius float64
	label  string
}

// NewSphere instantiates a new sphere from a center pose (offset of the sphere from its parent
// frame) and a radius in meters.
func NewSphere(offset Pose, radius float64, label string) (*Sphere, error) {
	if radius <= 0 {
		return nil, newBadGeometryDimensionsError(&Sphere{})
	}
	if offset == nil {
		offset = NewZeroPose()
	}
	return &Sphere{pose: offset, radius: radius, label: label}, nil
}

// Pose returns the pose of the sphere's center.
func (s *Sphere) Pose() Pose {
	return s.pose
}

// Radius returns the radius of the sphere in meters.
func (s *Sphere) Radius() float64 {
	return s.radius
}

// Label returns the label of this sphere.
func (s *Sphere) Label() string {
	return s.label
}

// Transform premultiplies the sphere pose with a transform, allowing the sphere to be moved in space.
func (s *Sphere) Transform(toPremultiply Pose) *Sphere {
	return &Sphere{pose: Compose(toPremultiply, s.pose), radius: s.radius, label: s.label}
}

// AlmostEqual compares the sphere with another sphere and checks if they are equivalent.
func (s *Sphere) AlmostEqual(other *Sphere) bool {
	return PoseAlmostEqual(s.pose, other.pose) && Float64AlmostEqual(s.radius, other.radius, 1e-8)
}

// String returns a human readable string that represents the sphere.
func (s *Sphere) String() string {
	return fmt.Sprintf("Type: Sphere | Position: X:%.1f, Y:%.1f, Z:%.1f | Radius: %.4f",
		s.pose.Point().X, s.pose.Point().Y, s.pose.Point().Z, s.radius)
}

// DistanceFrom returns the distance between the surfaces of this sphere and another.
// A negative value reports penetration depth.
func (s *Sphere) DistanceFrom(other *Sphere) float64 {
	return SphereVsSphereDistance(s, other)
}

// SphereVsSphereDistance takes two spheres as arguments and returns a floating point number.
// If this number is nonpositive it represents the penetration depth of the two spheres.
// If the returned float is positive it represents the separation distance between the two
// spheres, which are not in collision.
func SphereVsSphereDistance(a, b *Sphere) float64 {
	return a.pose.Point().Sub(b.pose.Point()).Norm() - (a.radius + b.radius)
}

func newBadGeometryDimensionsError(g interface{}) error {
	return errors.Errorf("invalid dimensions for %T, radius must be positive", g)
}
