package align

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Classification rejections. These are expected conditions: the caller logs
// and skips the plane, the session continues.
var (
	ErrTooFewVertices    = errors.New("polygon has fewer than 3 vertices")
	ErrDegeneratePolygon = errors.New("polygon vertices are collinear")
	ErrIgnoredPlane      = errors.New("plane orientation is unknown")
)

// degenerateCrossEps rejects near-zero cross products before normalization
// would produce NaN.
const degenerateCrossEps = 1e-9

// ClassifyPlane converts a raw plane event into a DetectedPlane: transforms
// the polygon to world space, computes centroid, face normal, and longest
// edge, and tags the plane as floor, ceiling, or wall.
//
// ceilingYThreshold is the world height above which a horizontal plane is
// considered a ceiling rather than a floor.
func ClassifyPlane(ev *PlaneEvent, ceilingYThreshold float64) (*DetectedPlane, error) {
	orientation := ParseOrientation(ev.Orientation)
	if orientation == OrientationUnknown {
		return nil, ErrIgnoredPlane
	}
	if len(ev.Polygon) < 3 {
		return nil, ErrTooFewVertices
	}

	world, err := ev.WorldMatrix()
	if err != nil {
		return nil, err
	}

	vertices := make([]mgl64.Vec3, len(ev.Polygon))
	centroid := mgl64.Vec3{}
	for i, p := range ev.Polygon {
		v := mgl64.TransformCoordinate(mgl64.Vec3(p), world)
		vertices[i] = v
		centroid = centroid.Add(v)
	}
	centroid = centroid.Mul(1 / float64(len(vertices)))

	cross := vertices[1].Sub(vertices[0]).Cross(vertices[2].Sub(vertices[0]))
	if cross.Len() < degenerateCrossEps {
		return nil, ErrDegeneratePolygon
	}
	normal := cross.Normalize()

	plane := &DetectedPlane{
		Orientation: orientation,
		Position:    centroid,
		Normal:      normal,
		Vertices:    vertices,
		Length:      longestEdge(vertices),
	}

	if orientation == OrientationHorizontal {
		plane.IsCeiling = centroid.Y() > ceilingYThreshold
	}

	return plane, nil
}

// longestEdge returns the maximum distance between consecutive vertices,
// including the closing edge from the last vertex back to the first.
func longestEdge(vertices []mgl64.Vec3) float64 {
	longest := 0.0
	for i := range vertices {
		next := (i + 1) % len(vertices)
		d := vertices[next].Sub(vertices[i]).Len()
		longest = math.Max(longest, d)
	}
	return longest
}
