package align

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestMatchWalls_PairsByLength(t *testing.T) {
	model := testModel()
	detected := []*DetectedPlane{
		wallPlane(9.05, mgl64.Vec3{4.5, 1.4, 0.1}, mgl64.Vec3{0, 0, 1}),
		wallPlane(10.4, mgl64.Vec3{9.1, 1.4, -5.2}, mgl64.Vec3{1, 0, 0}),
	}

	matches := MatchWalls(detected, model.Walls, DefaultMaxLengthDiffM)
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}

	// Largest detected wall is committed first.
	if matches[0].Reference.Label != "east" {
		t.Errorf("first match = %q, want east", matches[0].Reference.Label)
	}
	if matches[1].Reference.Label != "north" {
		t.Errorf("second match = %q, want north", matches[1].Reference.Label)
	}
}

// Each reference wall may be consumed once; the larger detected wall wins it.
func TestMatchWalls_ReferenceConsumedOnce(t *testing.T) {
	refs := []ReferenceWall{
		{Label: "only", Length: 9.0, Normal: mgl64.Vec2{0, 1}},
	}
	detected := []*DetectedPlane{
		wallPlane(9.0, mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}),
		wallPlane(9.1, mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}),
	}

	matches := MatchWalls(detected, refs, DefaultMaxLengthDiffM)
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}
	if matches[0].Detected.Length != 9.1 {
		t.Errorf("matched length = %v, want the larger wall (9.1)", matches[0].Detected.Length)
	}
}

// Committed matches are never revisited, even when a later wall would have
// been a better fit for the consumed reference.
func TestMatchWalls_GreedyNoBacktracking(t *testing.T) {
	refs := []ReferenceWall{
		{Label: "a", Length: 8.0, Normal: mgl64.Vec2{0, 1}},
	}
	detected := []*DetectedPlane{
		{Orientation: OrientationVertical, Length: 8.5}, // committed first
		{Orientation: OrientationVertical, Length: 8.0}, // exact fit, too late
	}

	matches := MatchWalls(detected, refs, DefaultMaxLengthDiffM)
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}
	if matches[0].Detected.Length != 8.5 {
		t.Errorf("matched length = %v; the greedy pass must keep its first commitment", matches[0].Detected.Length)
	}
}

func TestMatchWalls_ThresholdDrop(t *testing.T) {
	model := testModel()
	detected := []*DetectedPlane{
		wallPlane(5.0, mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}), // no ref within 1.5m
	}

	matches := MatchWalls(detected, model.Walls, DefaultMaxLengthDiffM)
	if len(matches) != 0 {
		t.Errorf("matches = %d, want 0", len(matches))
	}
}

func TestMatchWalls_Empty(t *testing.T) {
	model := testModel()
	if got := MatchWalls(nil, model.Walls, DefaultMaxLengthDiffM); got != nil {
		t.Errorf("MatchWalls(nil, refs) = %v, want nil", got)
	}
	if got := MatchWalls([]*DetectedPlane{wallPlane(9, mgl64.Vec3{}, mgl64.Vec3{0, 0, 1})}, nil, DefaultMaxLengthDiffM); got != nil {
		t.Errorf("MatchWalls(walls, nil) = %v, want nil", got)
	}
}

// Input order must not change the pairing: ordering is by length, not arrival.
func TestMatchWalls_ArrivalOrderInvariant(t *testing.T) {
	model := testModel()
	forward := []*DetectedPlane{
		wallPlane(9.05, mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}),
		wallPlane(10.4, mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}),
	}
	reversed := []*DetectedPlane{forward[1], forward[0]}

	a := MatchWalls(forward, model.Walls, DefaultMaxLengthDiffM)
	b := MatchWalls(reversed, model.Walls, DefaultMaxLengthDiffM)

	if len(a) != len(b) {
		t.Fatalf("match counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Reference.Label != b[i].Reference.Label || a[i].Detected.Length != b[i].Detected.Length {
			t.Errorf("match %d differs: %v/%v vs %v/%v",
				i, a[i].Detected.Length, a[i].Reference.Label, b[i].Detected.Length, b[i].Reference.Label)
		}
	}
}
