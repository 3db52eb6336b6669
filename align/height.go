package align

import "math"

// HeightReport is the height verifier's diagnostic output. It is advisory
// only and never blocks an alignment.
type HeightReport struct {
	// FloorY is the minimum Y among detected floor centroids.
	FloorY   float64 `json:"floorY"`
	HasFloor bool    `json:"hasFloor"`
	// CeilingY is the maximum Y among detected ceiling centroids.
	CeilingY   float64 `json:"ceilingY"`
	HasCeiling bool    `json:"hasCeiling"`
	// MeasuredHeight is ceiling minus floor, when both exist.
	MeasuredHeight float64 `json:"measuredHeight"`
	// ExpectedHeight is the scaled model floor-to-ceiling distance.
	ExpectedHeight float64 `json:"expectedHeight"`
	// Warning is set when the measured height deviates from the expected
	// height by more than the configured tolerance.
	Warning bool `json:"warning"`
}

// VerifyHeight cross-checks the detected floor-to-ceiling distance against
// the model room height. Missing ceilings (common: headsets rarely scan the
// full ceiling) simply skip the check.
func VerifyHeight(floors, ceilings []*DetectedPlane, expectedHeight, maxHeightDiff float64) HeightReport {
	report := HeightReport{ExpectedHeight: expectedHeight}

	for _, f := range floors {
		if !report.HasFloor || f.Position.Y() < report.FloorY {
			report.FloorY = f.Position.Y()
			report.HasFloor = true
		}
	}

	for _, c := range ceilings {
		if !report.HasCeiling || c.Position.Y() > report.CeilingY {
			report.CeilingY = c.Position.Y()
			report.HasCeiling = true
		}
	}

	if report.HasFloor && report.HasCeiling {
		report.MeasuredHeight = report.CeilingY - report.FloorY
		report.Warning = math.Abs(report.MeasuredHeight-expectedHeight) > maxHeightDiff
	}

	return report
}
