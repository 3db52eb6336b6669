package align

import (
	"fmt"
	"log"
	"sync"
)

// SessionState tracks where a session is in its alignment lifecycle.
type SessionState int

const (
	StateIdle SessionState = iota
	StateCollecting
	StateAligned
)

func (s SessionState) String() string {
	switch s {
	case StateCollecting:
		return "collecting"
	case StateAligned:
		return "aligned"
	default:
		return "idle"
	}
}

// AlignedHandler is invoked once per session, when an alignment commits.
// It runs on the collector's lock; it must not call back into the Collector.
type AlignedHandler func(result AlignmentResult, height HeightReport, matches []WallMatch)

// Collector accumulates classified planes for the active session and decides
// when to attempt alignment. It owns the plane buckets exclusively; the
// solver borrows them read-only during an attempt. Ending a session discards
// everything -- no state carries over.
//
// All entry points are serialized by an internal mutex, so MQTT callbacks and
// the ticker goroutine may call in concurrently.
type Collector struct {
	mu sync.Mutex

	config  Tuning
	model   *ReferenceModel
	onAlign AlignedHandler

	state    SessionState
	floors   []*DetectedPlane
	ceilings []*DetectedPlane
	walls    []*DetectedPlane
	elapsed  float64

	result *AlignmentResult
	height HeightReport
}

// NewCollector creates a collector for the given reference model. The model
// is the one hard requirement: without it no alignment attempt is possible.
func NewCollector(config Tuning, model *ReferenceModel, onAlign AlignedHandler) (*Collector, error) {
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("collector: %w", err)
	}
	return &Collector{
		config:  config,
		model:   model,
		onAlign: onAlign,
	}, nil
}

// OnSessionStart clears all accumulated state and begins collecting.
func (c *Collector) OnSessionStart() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.floors = nil
	c.ceilings = nil
	c.walls = nil
	c.elapsed = 0
	c.result = nil
	c.height = HeightReport{}
	c.state = StateCollecting

	log.Printf("[ALIGN] session started, collecting planes")
}

// OnSessionEnd stops accepting planes and discards the session.
func (c *Collector) OnSessionEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.floors = nil
	c.ceilings = nil
	c.walls = nil
	c.elapsed = 0
	c.result = nil
	c.state = StateIdle

	log.Printf("[ALIGN] session ended, state discarded")
}

// OnPlaneDetected stores a classified plane in its bucket and retries the
// alignment. Planes are kept as-is: the runtime re-reports the same physical
// surface as detection refines, and later reports are extra candidates, not
// replacements. Once aligned, further planes are no-ops.
func (c *Collector) OnPlaneDetected(plane *DetectedPlane) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateCollecting {
		return
	}

	switch {
	case plane.Orientation == OrientationVertical:
		c.walls = append(c.walls, plane)
	case plane.IsCeiling:
		c.ceilings = append(c.ceilings, plane)
	default:
		c.floors = append(c.floors, plane)
	}

	c.attempt(false)
}

// OnTimerTick accumulates elapsed seconds. Once the configured timeout has
// passed, a best-effort attempt runs with whatever evidence exists, bypassing
// the minimum-evidence gate.
func (c *Collector) OnTimerTick(dt float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateCollecting {
		return
	}

	c.elapsed += dt
	if c.elapsed < c.config.TimeoutS {
		return
	}

	log.Printf("[ALIGN] timeout after %.1fs, forcing best-effort alignment (floors=%d ceilings=%d walls=%d)",
		c.elapsed, len(c.floors), len(c.ceilings), len(c.walls))
	c.attempt(true)
}

// attempt runs one alignment pass. Callers must hold c.mu. Non-forced
// attempts below the evidence gate are silently skipped; the next plane or
// the timeout will retry.
func (c *Collector) attempt(force bool) {
	if !force {
		if len(c.floors) == 0 || len(c.walls) < c.config.MinWallPlanes {
			return
		}
	}

	matches := MatchWalls(c.walls, c.model.Walls, c.config.MaxLengthDiffM)

	height := VerifyHeight(c.floors, c.ceilings, c.model.Height()*c.config.ModelScale, c.config.MaxHeightDiffM)
	if height.Warning {
		log.Printf("[ALIGN] warning: measured room height %.2fm deviates from expected %.2fm (advisory only)",
			height.MeasuredHeight, height.ExpectedHeight)
	}

	result := Solve(matches, c.walls, c.floors, c.model, c.config.ModelScale, height)
	result.Forced = force

	c.result = &result
	c.height = height
	c.state = StateAligned

	log.Printf("[ALIGN] aligned: matches=%d yaw=%.3frad translation=(%.2f, %.2f, %.2f) forced=%v",
		result.MatchCount, result.RotationY,
		result.Translation.X(), result.Translation.Y(), result.Translation.Z(), force)

	if c.onAlign != nil {
		c.onAlign(result, height, matches)
	}
}

// State returns the current session state.
func (c *Collector) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Result returns the committed alignment, or nil while not aligned.
func (c *Collector) Result() *AlignmentResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return nil
	}
	r := *c.result
	return &r
}

// Counts reports the bucket sizes for diagnostics.
func (c *Collector) Counts() (floors, ceilings, walls int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.floors), len(c.ceilings), len(c.walls)
}

// Planes returns copies of the bucket contents for diagnostic endpoints.
func (c *Collector) Planes() (floors, ceilings, walls []*DetectedPlane) {
	c.mu.Lock()
	defer c.mu.Unlock()
	floors = append(floors, c.floors...)
	ceilings = append(ceilings, c.ceilings...)
	walls = append(walls, c.walls...)
	return floors, ceilings, walls
}
