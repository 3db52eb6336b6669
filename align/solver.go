package align

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// legacyNormalOffset is the reference-angle offset subtracted by the no-match
// rotation fallback. It corresponds to the default wall orientation of the
// shipped reference table and is kept fixed for parity with the original
// estimator behavior.
const legacyNormalOffset = math.Pi / 2

// SolveRotation derives the yaw angle (radians) that rotates the model onto
// the room.
//
// With one or more wall matches, each match contributes the signed angular
// difference between its detected and reference normals in the XZ plane; the
// deltas are combined with an unweighted circular mean. A single outlier
// match shifts but does not dominate the average; no explicit outlier
// rejection is applied.
//
// With no matches, the legacy estimator takes over: the normals of all
// detected walls (matched or not) are folded into [0, pi) -- a normal and its
// negation describe the same wall orientation -- averaged circularly, and
// offset by the fixed reference angle. With no wall data at all, yaw is 0.
func SolveRotation(matches []WallMatch, walls []*DetectedPlane) float64 {
	if len(matches) == 0 {
		return legacyRotation(walls)
	}

	deltas := make([]float64, 0, len(matches))
	for _, m := range matches {
		detected := YawAngle(m.Detected.Normal)
		reference := wallYawAngle(m.Reference.Normal)
		deltas = append(deltas, NormalizeAngle(detected-reference))
	}
	return CircularMean(deltas)
}

func legacyRotation(walls []*DetectedPlane) float64 {
	if len(walls) == 0 {
		return 0
	}
	folded := make([]float64, 0, len(walls))
	for _, w := range walls {
		folded = append(folded, FoldAxial(YawAngle(w.Normal)))
	}
	return CircularMean(folded) - legacyNormalOffset
}

// SolveTranslation derives the world-space translation of the model root
// given an already-solved yaw.
//
// Each wall match constrains one horizontal axis: its reference center is
// scaled and rotated into world orientation, and the axis its rotated normal
// dominates (X or Z) receives the offset between the detected wall position
// and the rotated center. Constraints are averaged per axis independently.
// Any axis left unconstrained falls back to the floor-centroid method, which
// compares the rotated model floor centroid against the vertex-average
// centroid of all detected floor polygons.
//
// The Y component is always the verified floor height, independent of how
// X and Z were obtained.
func SolveTranslation(matches []WallMatch, floors []*DetectedPlane, model *ReferenceModel, scale, yaw float64, height HeightReport) mgl64.Vec3 {
	var sumX, sumZ float64
	var countX, countZ int

	for _, m := range matches {
		rotatedCenter := RotateY(m.Reference.Center.Mul(scale), yaw)
		n := m.Reference.Normal
		rotatedNormal := RotateY(mgl64.Vec3{n.X(), 0, n.Y()}, yaw)

		if abs(rotatedNormal.X()) >= abs(rotatedNormal.Z()) {
			sumX += m.Detected.Position.X() - rotatedCenter.X()
			countX++
		} else {
			sumZ += m.Detected.Position.Z() - rotatedCenter.Z()
			countZ++
		}
	}

	var tx, tz float64
	needFallbackX := countX == 0
	needFallbackZ := countZ == 0

	if countX > 0 {
		tx = sumX / float64(countX)
	}
	if countZ > 0 {
		tz = sumZ / float64(countZ)
	}

	if needFallbackX || needFallbackZ {
		fx, fz, ok := floorCentroidOffset(floors, model, scale, yaw)
		if ok {
			if needFallbackX {
				tx = fx
			}
			if needFallbackZ {
				tz = fz
			}
		}
	}

	ty := 0.0
	if height.HasFloor {
		ty = height.FloorY
	}

	return mgl64.Vec3{tx, ty, tz}
}

// floorCentroidOffset computes the XZ offset between the detected floor
// centroid and the rotated model floor centroid. Returns ok=false when no
// floor vertices exist to average.
func floorCentroidOffset(floors []*DetectedPlane, model *ReferenceModel, scale, yaw float64) (dx, dz float64, ok bool) {
	var sumX, sumZ float64
	count := 0
	for _, f := range floors {
		for _, v := range f.Vertices {
			sumX += v.X()
			sumZ += v.Z()
			count++
		}
	}
	if count == 0 {
		return 0, 0, false
	}

	detectedX := sumX / float64(count)
	detectedZ := sumZ / float64(count)

	rotated := RotateY(model.FloorCentroid.Mul(scale), yaw)
	return detectedX - rotated.X(), detectedZ - rotated.Z(), true
}

// Solve runs the full transform pipeline: yaw from matched-wall normals (or
// the legacy fallback), translation from matched-wall positions (degrading to
// the floor-centroid method), with the configured fixed scale.
func Solve(matches []WallMatch, walls, floors []*DetectedPlane, model *ReferenceModel, scale float64, height HeightReport) AlignmentResult {
	yaw := SolveRotation(matches, walls)
	translation := SolveTranslation(matches, floors, model, scale, yaw, height)

	return AlignmentResult{
		Scale:       scale,
		RotationY:   yaw,
		Translation: translation,
		MatchCount:  len(matches),
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
