package align

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RotateY rotates a world/model-space vector about the vertical axis.
// Positive angles follow the right-hand rule (counter-clockwise seen from +Y).
func RotateY(v mgl64.Vec3, angle float64) mgl64.Vec3 {
	return mgl64.Rotate3DY(angle).Mul3x1(v)
}

// NormalizeAngle wraps an angle in radians into (-pi, pi].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// FoldAxial folds an angle into [0, pi). A wall normal and its negation
// describe the same wall orientation, so angles that differ by pi are
// equivalent for rotation estimation.
func FoldAxial(a float64) float64 {
	a = math.Mod(a, math.Pi)
	if a < 0 {
		a += math.Pi
	}
	return a
}

// CircularMean averages angles via their sin/cos components, avoiding the
// wraparound bias a plain arithmetic mean has at the +-pi boundary.
// Returns 0 for an empty input.
func CircularMean(angles []float64) float64 {
	if len(angles) == 0 {
		return 0
	}
	var sinSum, cosSum float64
	for _, a := range angles {
		sinSum += math.Sin(a)
		cosSum += math.Cos(a)
	}
	return math.Atan2(sinSum, cosSum)
}

// YawAngle returns the XZ-plane heading of a 3D direction vector,
// measured as atan2(z, x).
func YawAngle(v mgl64.Vec3) float64 {
	return math.Atan2(v.Z(), v.X())
}

// wallYawAngle returns the XZ-plane heading of a reference wall normal.
func wallYawAngle(n mgl64.Vec2) float64 {
	return math.Atan2(n.Y(), n.X())
}

// wallTangent returns the unit direction a reference wall runs along in the
// model XZ plane (perpendicular to its normal).
func wallTangent(n mgl64.Vec2) mgl64.Vec2 {
	t := mgl64.Vec2{-n.Y(), n.X()}
	if l := t.Len(); l > 0 {
		return t.Mul(1 / l)
	}
	return t
}

// WallEndpoints returns the two model-space endpoints of a reference wall
// segment, derived from its center, tangent, and length.
func WallEndpoints(w ReferenceWall) (mgl64.Vec3, mgl64.Vec3) {
	t := wallTangent(w.Normal)
	half := w.Length / 2
	a := mgl64.Vec3{w.Center.X() - t.X()*half, w.Center.Y(), w.Center.Z() - t.Y()*half}
	b := mgl64.Vec3{w.Center.X() + t.X()*half, w.Center.Y(), w.Center.Z() + t.Y()*half}
	return a, b
}
