package align

import (
	"math"
	"sort"
)

// MatchWalls pairs detected vertical planes with reference walls by length
// similarity. The assignment is greedy and deliberate: detected walls are
// processed largest first (long walls are the most reliably detected), each
// takes the closest-length unused reference wall within maxLengthDiff, and a
// committed match is never revisited. A detected wall with no reference wall
// in range is dropped; it is usually furniture or clutter misread as a
// vertical plane.
//
// Each reference wall is consumed at most once per call.
func MatchWalls(detected []*DetectedPlane, refs []ReferenceWall, maxLengthDiff float64) []WallMatch {
	if len(detected) == 0 || len(refs) == 0 {
		return nil
	}

	ordered := make([]*DetectedPlane, len(detected))
	copy(ordered, detected)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Length > ordered[j].Length
	})

	used := make([]bool, len(refs))
	var matches []WallMatch

	for _, wall := range ordered {
		bestIdx := -1
		bestDiff := math.MaxFloat64

		for i := range refs {
			if used[i] {
				continue
			}
			diff := math.Abs(wall.Length - refs[i].Length)
			if diff <= maxLengthDiff && diff < bestDiff {
				bestIdx = i
				bestDiff = diff
			}
		}

		if bestIdx == -1 {
			continue
		}

		used[bestIdx] = true
		matches = append(matches, WallMatch{
			Detected:   wall,
			Reference:  &refs[bestIdx],
			LengthDiff: bestDiff,
		})
	}

	return matches
}
