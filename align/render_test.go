package align

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestPlanRenderer_SVG(t *testing.T) {
	renderer := NewPlanRenderer(squareModel(), nil)
	renderer.Placements = []Placement{
		{ID: "lamp-1", Position: mgl64.Vec3{2, 0.8, -1}},
	}

	var buf bytes.Buffer
	if err := renderer.RenderToSVG(&buf); err != nil {
		t.Fatalf("RenderToSVG: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<svg") {
		t.Errorf("output does not look like SVG: %.80s", out)
	}
}

func TestPlanRenderer_PNG(t *testing.T) {
	result := &AlignmentResult{Scale: 1, RotationY: 0.1, Translation: mgl64.Vec3{1, 0, 2}}

	renderer := NewPlanRenderer(squareModel(), result)
	renderer.Walls = []*DetectedPlane{
		wallPlane(10, mgl64.Vec3{1, 1.25, 7}, mgl64.Vec3{0, 0, 1}),
	}
	renderer.Floors = []*DetectedPlane{floorSquare(0, 10, 1, 2)}

	var buf bytes.Buffer
	if err := renderer.RenderToPNG(&buf); err != nil {
		t.Fatalf("RenderToPNG: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		t.Errorf("rendered image is empty: %v", bounds)
	}
}

// An empty model must not panic; the renderer falls back to a unit viewport.
func TestPlanRenderer_NothingDrawable(t *testing.T) {
	renderer := NewPlanRenderer(&ReferenceModel{}, nil)

	var buf bytes.Buffer
	if err := renderer.RenderToSVG(&buf); err != nil {
		t.Fatalf("RenderToSVG on empty model: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("no output produced")
	}
}
