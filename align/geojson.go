package align

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"

	"github.com/go-gl/mathgl/mgl64"
)

// outlineSimplifyTolerance collapses near-duplicate corners (meters) when the
// floor outline is built from wall endpoints that share corners.
const outlineSimplifyTolerance = 0.01

// FloorPlanFeatureCollection exports the floor-plan footprint as GeoJSON in
// plan view: world X maps to GeoJSON x and world Z to GeoJSON y. Walls become
// LineStrings, the floor outline a Polygon, and device placements Points.
//
// When result is non-nil, all geometry is mapped through the committed
// alignment; otherwise model-space coordinates are exported as-is.
func FloorPlanFeatureCollection(model *ReferenceModel, placements []Placement, result *AlignmentResult) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	toWorld := func(p mgl64.Vec3) mgl64.Vec3 {
		if result != nil {
			return result.Apply(p)
		}
		return p
	}
	toPlan := func(p mgl64.Vec3) orb.Point {
		w := toWorld(p)
		return orb.Point{w.X(), w.Z()}
	}

	for i, wall := range model.Walls {
		a, b := WallEndpoints(wall)
		f := geojson.NewFeature(orb.LineString{toPlan(a), toPlan(b)})
		f.Properties["layerType"] = "wall"
		f.Properties["label"] = wall.Label
		f.Properties["length"] = wall.Length
		f.ID = i
		fc.Append(f)
	}

	if ring := floorOutline(model, toPlan); len(ring) >= 4 {
		f := geojson.NewFeature(orb.Polygon{ring})
		f.Properties["layerType"] = "floor"
		f.Properties["areaM2"] = math.Abs(planar.Area(ring))
		fc.Append(f)
	}

	for _, p := range placements {
		f := geojson.NewFeature(toPlan(p.Position))
		f.Properties["layerType"] = "placement"
		f.Properties["id"] = p.ID
		f.Properties["name"] = p.Name
		f.Properties["kind"] = p.Kind
		f.Properties["height"] = toWorld(p.Position).Y()
		fc.Append(f)
	}

	fc.ExtraMembers = map[string]interface{}{
		"aligned": result != nil,
	}

	return fc
}

// floorOutline builds a closed ring around the room from the wall endpoints,
// ordered by angle about their centroid. Adjacent walls share corners, so the
// ring is simplified to drop the duplicates. Works for convex rooms; concave
// plans degrade to their convex outline.
func floorOutline(model *ReferenceModel, toPlan func(mgl64.Vec3) orb.Point) orb.Ring {
	var points []orb.Point
	for _, wall := range model.Walls {
		a, b := WallEndpoints(wall)
		points = append(points, toPlan(a), toPlan(b))
	}
	if len(points) < 3 {
		return nil
	}

	var cx, cy float64
	for _, p := range points {
		cx += p[0]
		cy += p[1]
	}
	cx /= float64(len(points))
	cy /= float64(len(points))

	sort.Slice(points, func(i, j int) bool {
		return math.Atan2(points[i][1]-cy, points[i][0]-cx) < math.Atan2(points[j][1]-cy, points[j][0]-cx)
	})

	ring := make(orb.Ring, 0, len(points)+1)
	ring = append(ring, points...)
	ring = append(ring, points[0]) // close

	ring = simplify.DouglasPeucker(outlineSimplifyTolerance).Simplify(ring).(orb.Ring)
	return ring
}

// MarshalFloorPlan renders the footprint collection as GeoJSON bytes.
func MarshalFloorPlan(model *ReferenceModel, placements []Placement, result *AlignmentResult) ([]byte, error) {
	fc := FloorPlanFeatureCollection(model, placements, result)
	data, err := json.Marshal(fc)
	if err != nil {
		return nil, fmt.Errorf("marshaling floor plan GeoJSON: %w", err)
	}
	return data, nil
}
