package align

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/go-gl/mathgl/mgl64"
)

// Plan-view palette.
var (
	planWallColor      = color.RGBA{40, 40, 40, 255}    // reference walls
	planDetectedColor  = color.RGBA{220, 60, 60, 255}   // detected wall segments
	planFloorColor     = color.RGBA{225, 235, 245, 255} // floor fill
	planPlacementColor = color.RGBA{50, 110, 220, 255}  // device placements
)

// PlanRenderer draws a top-down view of the reference floor plan together
// with the detected planes and device placements. Useful for eyeballing why
// an alignment landed where it did. All coordinates are meters; world X maps
// to the horizontal axis and world Z to the vertical axis.
type PlanRenderer struct {
	Model      *ReferenceModel
	Result     *AlignmentResult // nil renders the model untransformed
	Walls      []*DetectedPlane
	Floors     []*DetectedPlane
	Placements []Placement

	Padding     float64           // meters of margin around the content
	GridSpacing float64           // grid line spacing in meters; 0 disables
	Resolution  canvas.Resolution // PNG output resolution
}

// NewPlanRenderer creates a renderer with default margins and grid.
func NewPlanRenderer(model *ReferenceModel, result *AlignmentResult) *PlanRenderer {
	return &PlanRenderer{
		Model:       model,
		Result:      result,
		Padding:     0.5,
		GridSpacing: 1.0,
		Resolution:  canvas.DPMM(20), // 20 px/mm of canvas space
	}
}

// canvasRenderer is the subset both the svg and rasterizer backends implement.
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// RenderToSVG writes the plan view as an SVG to the provided writer.
func (r *PlanRenderer) RenderToSVG(w io.Writer) error {
	minX, minY, maxX, maxY := r.bounds()

	width := (maxX - minX) + 2*r.Padding
	height := (maxY - minY) + 2*r.Padding

	svgRenderer := svg.New(w, width, height, nil)
	r.renderToCanvas(svgRenderer, minX, minY, width, height)
	return svgRenderer.Close()
}

// RenderToPNG writes the plan view as a PNG to the provided writer, with a
// text legend drawn over the rasterized image.
func (r *PlanRenderer) RenderToPNG(w io.Writer) error {
	minX, minY, maxX, maxY := r.bounds()

	width := (maxX - minX) + 2*r.Padding
	height := (maxY - minY) + 2*r.Padding

	rast := rasterizer.New(width, height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast, minX, minY, width, height)

	r.drawLegend(rast)

	return png.Encode(w, rast)
}

// bounds computes the world-space extent of everything drawable.
func (r *PlanRenderer) bounds() (minX, minY, maxX, maxY float64) {
	minX, minY = math.MaxFloat64, math.MaxFloat64
	maxX, maxY = -math.MaxFloat64, -math.MaxFloat64

	extend := func(p planPoint) {
		minX = math.Min(minX, p.x)
		minY = math.Min(minY, p.y)
		maxX = math.Max(maxX, p.x)
		maxY = math.Max(maxY, p.y)
	}

	for _, wall := range r.Model.Walls {
		a, b := WallEndpoints(wall)
		extend(r.toPlan(a))
		extend(r.toPlan(b))
	}
	for _, wp := range append(append([]*DetectedPlane{}, r.Walls...), r.Floors...) {
		for _, v := range wp.Vertices {
			extend(planPoint{v.X(), v.Z()})
		}
	}
	for _, p := range r.Placements {
		extend(r.toPlan(p.Position))
	}

	if minX > maxX {
		// nothing drawable; fall back to a unit square
		return 0, 0, 1, 1
	}
	return minX, minY, maxX, maxY
}

// planPoint is a 2D point in plan view (world X, world Z).
type planPoint struct{ x, y float64 }

// toPlan maps a model-space point through the alignment (when present) and
// projects it into plan coordinates.
func (r *PlanRenderer) toPlan(p mgl64.Vec3) planPoint {
	if r.Result != nil {
		p = r.Result.Apply(p)
	}
	return planPoint{p.X(), p.Z()}
}

func (r *PlanRenderer) renderToCanvas(renderer canvasRenderer, minX, minY, width, height float64) {
	toCanvas := func(p planPoint) (float64, float64) {
		return (p.x - minX) + r.Padding, (p.y - minY) + r.Padding
	}

	// Background
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	// Grid
	if r.GridSpacing > 0 {
		gridStyle := canvas.DefaultStyle
		gridStyle.Fill = canvas.Paint{Color: canvas.Transparent}
		gridStyle.Stroke = canvas.Paint{Color: canvas.Gray}
		gridStyle.StrokeWidth = 0.01

		for x := 0.0; x <= width; x += r.GridSpacing {
			gridPath := &canvas.Path{}
			gridPath.MoveTo(x, 0)
			gridPath.LineTo(x, height)
			renderer.RenderPath(gridPath, gridStyle, canvas.Identity)
		}
		for y := 0.0; y <= height; y += r.GridSpacing {
			gridPath := &canvas.Path{}
			gridPath.MoveTo(0, y)
			gridPath.LineTo(width, y)
			renderer.RenderPath(gridPath, gridStyle, canvas.Identity)
		}
	}

	// Detected floor polygons (filled, drawn under the walls)
	floorStyle := canvas.DefaultStyle
	floorStyle.Fill = canvas.Paint{Color: planFloorColor}
	floorStyle.Stroke = canvas.Paint{Color: canvas.Transparent}

	for _, f := range r.Floors {
		if len(f.Vertices) < 3 {
			continue
		}
		cp := &canvas.Path{}
		for i, v := range f.Vertices {
			cx, cy := toCanvas(planPoint{v.X(), v.Z()})
			if i == 0 {
				cp.MoveTo(cx, cy)
			} else {
				cp.LineTo(cx, cy)
			}
		}
		cp.Close()
		renderer.RenderPath(cp, floorStyle, canvas.Identity)
	}

	// Reference walls (transformed when a result exists)
	wallStyle := canvas.DefaultStyle
	wallStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	wallStyle.Stroke = canvas.Paint{Color: planWallColor}
	wallStyle.StrokeWidth = 0.08

	for _, wall := range r.Model.Walls {
		a, b := WallEndpoints(wall)
		pa, pb := r.toPlan(a), r.toPlan(b)
		ax, ay := toCanvas(pa)
		bx, by := toCanvas(pb)

		cp := &canvas.Path{}
		cp.MoveTo(ax, ay)
		cp.LineTo(bx, by)
		renderer.RenderPath(cp, wallStyle, canvas.Identity)
	}

	// Detected wall segments, reconstructed from centroid, normal, and length
	detectedStyle := canvas.DefaultStyle
	detectedStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	detectedStyle.Stroke = canvas.Paint{Color: planDetectedColor}
	detectedStyle.StrokeWidth = 0.04

	for _, wp := range r.Walls {
		tangent := mgl64.Vec2{-wp.Normal.Z(), wp.Normal.X()}
		if l := tangent.Len(); l > 0 {
			tangent = tangent.Mul(1 / l)
		}
		half := wp.Length / 2
		ax, ay := toCanvas(planPoint{wp.Position.X() - tangent.X()*half, wp.Position.Z() - tangent.Y()*half})
		bx, by := toCanvas(planPoint{wp.Position.X() + tangent.X()*half, wp.Position.Z() + tangent.Y()*half})

		cp := &canvas.Path{}
		cp.MoveTo(ax, ay)
		cp.LineTo(bx, by)
		renderer.RenderPath(cp, detectedStyle, canvas.Identity)
	}

	// Device placements
	placementStyle := canvas.DefaultStyle
	placementStyle.Fill = canvas.Paint{Color: planPlacementColor}
	placementStyle.Stroke = canvas.Paint{Color: canvas.Black}
	placementStyle.StrokeWidth = 0.01

	for _, p := range r.Placements {
		pp := r.toPlan(p.Position)
		cx, cy := toCanvas(pp)
		circle := canvas.Circle(0.12)
		renderer.RenderPath(circle, placementStyle, canvas.Identity.Translate(cx, cy))
	}
}

// drawLegend writes a small status line onto the rasterized image.
func (r *PlanRenderer) drawLegend(rast *rasterizer.Rasterizer) {
	status := "unaligned (model space)"
	if r.Result != nil {
		status = fmt.Sprintf("aligned: yaw=%.1fdeg pos=(%.2f, %.2f, %.2f)",
			r.Result.RotationY*180/math.Pi,
			r.Result.Translation.X(), r.Result.Translation.Y(), r.Result.Translation.Z())
	}

	d := &font.Drawer{
		Dst:  rast,
		Src:  image.NewUniform(planWallColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(8, 16),
	}
	d.DrawString(status)
}
