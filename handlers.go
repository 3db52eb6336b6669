package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/kwv/roomfit/align"
)

// planeInfo is the wire form of one detected plane for the diagnostics API.
type planeInfo struct {
	Orientation string     `json:"orientation"`
	Position    mgl64.Vec3 `json:"position"`
	Normal      mgl64.Vec3 `json:"normal"`
	Length      float64    `json:"length"`
	VertexCount int        `json:"vertexCount"`
	IsCeiling   bool       `json:"isCeiling"`
}

func planeInfos(planes []*align.DetectedPlane) []planeInfo {
	infos := make([]planeInfo, 0, len(planes))
	for _, p := range planes {
		infos = append(infos, planeInfo{
			Orientation: p.Orientation.String(),
			Position:    p.Position,
			Normal:      p.Normal,
			Length:      p.Length,
			VertexCount: len(p.Vertices),
			IsCeiling:   p.IsCeiling,
		})
	}
	return infos
}

// newHTTPServer creates an HTTP server with all endpoints
func newHTTPServer(stateTracker *align.StateTracker, collector *align.Collector, config *align.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] /health request from %s", r.RemoteAddr)
		w.Header().Set("Content-Type", "application/json")
		status := struct {
			Status    string    `json:"status"`
			Timestamp time.Time `json:"timestamp"`
			State     string    `json:"state"`
			Aligned   bool      `json:"aligned"`
		}{
			Status:    "ok",
			Timestamp: time.Now(),
			State:     collector.State().String(),
			Aligned:   stateTracker.Aligned(),
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("Error encoding health status: %v", err)
		}
	})

	// Current session view: state, counters, committed result if any
	mux.HandleFunc("/api/alignment", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(stateTracker.Snapshot()); err != nil {
			log.Printf("Error encoding alignment snapshot: %v", err)
		}
	})

	// Collected planes, bucketed, for debugging a session that will not align
	mux.HandleFunc("/api/planes", func(w http.ResponseWriter, r *http.Request) {
		floors, ceilings, walls := collector.Planes()
		response := struct {
			Floors   []planeInfo `json:"floors"`
			Ceilings []planeInfo `json:"ceilings"`
			Walls    []planeInfo `json:"walls"`
		}{
			Floors:   planeInfos(floors),
			Ceilings: planeInfos(ceilings),
			Walls:    planeInfos(walls),
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			log.Printf("Error encoding planes: %v", err)
		}
	})

	// Device placements: world-space once aligned, model-space otherwise
	mux.HandleFunc("/api/placements", func(w http.ResponseWriter, r *http.Request) {
		result := stateTracker.Result()
		response := struct {
			Aligned    bool                   `json:"aligned"`
			Placements []align.Placement      `json:"placements"`
			World      []align.WorldPlacement `json:"world,omitempty"`
		}{
			Aligned:    result != nil,
			Placements: config.Placements,
		}
		if result != nil {
			response.World = align.MapPlacements(config.Placements, *result)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			log.Printf("Error encoding placements: %v", err)
		}
	})

	// Floor-plan footprint as GeoJSON, aligned when a result exists
	mux.HandleFunc("/floorplan.geojson", func(w http.ResponseWriter, r *http.Request) {
		data, err := align.MarshalFloorPlan(config.Model, config.Placements, stateTracker.Result())
		if err != nil {
			log.Printf("Error building floor plan GeoJSON: %v", err)
			http.Error(w, "Failed to build floor plan", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.Header().Set("Cache-Control", "no-cache")
		if _, err := w.Write(data); err != nil {
			log.Printf("Error writing floor plan GeoJSON: %v", err)
		}
	})

	// Plan-view renders: reference walls, detected planes, placements
	mux.HandleFunc("/floorplan.svg", func(w http.ResponseWriter, r *http.Request) {
		renderer := newRequestRenderer(stateTracker, collector, config)
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		if err := renderer.RenderToSVG(w); err != nil {
			log.Printf("Error rendering floor plan SVG: %v", err)
		}
	})

	mux.HandleFunc("/floorplan.png", func(w http.ResponseWriter, r *http.Request) {
		renderer := newRequestRenderer(stateTracker, collector, config)
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		if err := renderer.RenderToPNG(w); err != nil {
			log.Printf("Error rendering floor plan PNG: %v", err)
		}
	})

	return mux
}

// newRequestRenderer assembles a renderer from the live session state.
func newRequestRenderer(stateTracker *align.StateTracker, collector *align.Collector, config *align.Config) *align.PlanRenderer {
	renderer := align.NewPlanRenderer(config.Model, stateTracker.Result())
	floors, _, walls := collector.Planes()
	renderer.Floors = floors
	renderer.Walls = walls
	renderer.Placements = config.Placements
	return renderer
}
