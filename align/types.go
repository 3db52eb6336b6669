package align

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Orientation classifies a detected plane by how the sensing runtime reported
// its facing: roughly horizontal (floor or ceiling), roughly vertical (wall
// candidate), or unknown.
type Orientation int

const (
	OrientationUnknown Orientation = iota
	OrientationHorizontal
	OrientationVertical
)

// ParseOrientation maps the wire-format orientation tag onto the enum.
// Anything unrecognized is OrientationUnknown.
func ParseOrientation(s string) Orientation {
	switch s {
	case "horizontal":
		return OrientationHorizontal
	case "vertical":
		return OrientationVertical
	default:
		return OrientationUnknown
	}
}

func (o Orientation) String() string {
	switch o {
	case OrientationHorizontal:
		return "horizontal"
	case OrientationVertical:
		return "vertical"
	default:
		return "unknown"
	}
}

// DetectedPlane is one classified sensor plane in world space. Instances are
// owned by the Collector for the lifetime of a session.
type DetectedPlane struct {
	Orientation Orientation
	// Position is the centroid of the polygon in world space.
	Position mgl64.Vec3
	// Normal is the unit face normal derived from the first three vertices.
	// Its sign is not guaranteed outward-facing; consumers must tolerate
	// either convention.
	Normal mgl64.Vec3
	// Vertices is the polygon boundary in world space, length >= 3.
	Vertices []mgl64.Vec3
	// Length is the longest polygon edge, used as a proxy for wall length.
	Length float64
	// IsCeiling is set for horizontal planes whose centroid sits above the
	// configured ceiling threshold.
	IsCeiling bool
}

// ReferenceWall is one wall segment of the pre-authored floor-plan model.
// The table is loaded once at startup and never mutated.
type ReferenceWall struct {
	Label string `yaml:"label" json:"label"`
	// Length of the wall segment in model units.
	Length float64 `yaml:"length" json:"length"`
	// Normal is the outward wall normal in the model XZ plane.
	Normal mgl64.Vec2 `yaml:"normal" json:"normal"`
	// Center of the wall segment in model space.
	Center mgl64.Vec3 `yaml:"center" json:"center"`
}

// WallMatch pairs a detected vertical plane with a reference wall. LengthDiff
// is kept for reporting only; it plays no part in solving.
type WallMatch struct {
	Detected  *DetectedPlane
	Reference *ReferenceWall
	// LengthDiff is |detected.Length - reference.Length| at match time.
	LengthDiff float64
}

// AlignmentResult is the rigid transform that superimposes the floor-plan
// model onto the physical room: uniform scale, yaw about Y, then translation.
type AlignmentResult struct {
	Scale       float64    `json:"scale"`
	RotationY   float64    `json:"rotationY"` // radians
	Translation mgl64.Vec3 `json:"position"`
	// MatchCount records how many wall matches fed the solve (diagnostic).
	MatchCount int `json:"matchCount"`
	// Forced is true when the result came from a timeout-forced best-effort
	// attempt that bypassed the minimum-evidence gate.
	Forced bool `json:"forced"`
}

// Apply maps a model-space point into world space using the committed
// transform. Composition order is scale, then yaw, then translation.
func (r AlignmentResult) Apply(p mgl64.Vec3) mgl64.Vec3 {
	scaled := p.Mul(r.Scale)
	rotated := RotateY(scaled, r.RotationY)
	return rotated.Add(r.Translation)
}

// ReferenceModel is the static description of the known floor plan: its wall
// table, floor and ceiling levels, and the floor centroid used as the
// translation fallback anchor.
type ReferenceModel struct {
	FloorY        float64         `yaml:"floorY" json:"floorY"`
	CeilingY      float64         `yaml:"ceilingY" json:"ceilingY"`
	FloorCentroid mgl64.Vec3      `yaml:"floorCentroid" json:"floorCentroid"`
	Walls         []ReferenceWall `yaml:"walls" json:"walls"`
}

// Height returns the model floor-to-ceiling distance in model units.
func (m *ReferenceModel) Height() float64 {
	return m.CeilingY - m.FloorY
}

// Validate checks that the model is usable for alignment. An empty wall table
// is the one configuration condition with no meaningful fallback.
func (m *ReferenceModel) Validate() error {
	if m == nil || len(m.Walls) == 0 {
		return fmt.Errorf("reference model has no walls; alignment is impossible without a reference geometry")
	}
	for i, w := range m.Walls {
		if w.Length <= 0 {
			return fmt.Errorf("model.walls[%d] (%s): length must be positive", i, w.Label)
		}
		if w.Normal.Len() == 0 {
			return fmt.Errorf("model.walls[%d] (%s): normal must be non-zero", i, w.Label)
		}
	}
	if m.CeilingY <= m.FloorY {
		return fmt.Errorf("model.ceilingY (%g) must be above model.floorY (%g)", m.CeilingY, m.FloorY)
	}
	return nil
}

// Placement is a virtual device registered against the floor-plan model.
// Positions are in model space; they only become meaningful in the real room
// once an alignment has been committed.
type Placement struct {
	ID       string     `yaml:"id" json:"id"`
	Name     string     `yaml:"name" json:"name"`
	Kind     string     `yaml:"kind" json:"kind"`
	Position mgl64.Vec3 `yaml:"position" json:"position"`
}

// WorldPlacement is a placement mapped through a committed alignment.
type WorldPlacement struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Kind     string     `json:"kind"`
	Position mgl64.Vec3 `json:"position"`
}
