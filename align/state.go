package align

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time view of the alignment session for HTTP
// consumers.
type Snapshot struct {
	State       string           `json:"state"`
	Aligned     bool             `json:"aligned"`
	Result      *AlignmentResult `json:"result,omitempty"`
	Height      *HeightReport    `json:"height,omitempty"`
	FloorCount  int              `json:"floorCount"`
	CeilCount   int              `json:"ceilingCount"`
	WallCount   int              `json:"wallCount"`
	LastPlaneAt *time.Time       `json:"lastPlaneAt,omitempty"`
	AlignedAt   *time.Time       `json:"alignedAt,omitempty"`
}

// StateTracker is the read side of the alignment pipeline: the collector
// writes into it, HTTP handlers and the publisher read from it.
type StateTracker struct {
	mu sync.RWMutex

	state       SessionState
	result      *AlignmentResult
	height      *HeightReport
	floorCount  int
	ceilCount   int
	wallCount   int
	lastPlaneAt time.Time
	alignedAt   time.Time
}

// NewStateTracker creates an empty state tracker.
func NewStateTracker() *StateTracker {
	return &StateTracker{}
}

// SetSessionState records a session lifecycle transition. Entering Idle or
// Collecting clears any previous alignment.
func (st *StateTracker) SetSessionState(state SessionState) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.state = state
	if state != StateAligned {
		st.result = nil
		st.height = nil
		st.floorCount = 0
		st.ceilCount = 0
		st.wallCount = 0
		st.lastPlaneAt = time.Time{}
		st.alignedAt = time.Time{}
	}
}

// RecordPlane updates the per-bucket counters after a plane was accepted.
func (st *StateTracker) RecordPlane(floors, ceilings, walls int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.floorCount = floors
	st.ceilCount = ceilings
	st.wallCount = walls
	st.lastPlaneAt = time.Now()
}

// SetAligned commits an alignment result.
func (st *StateTracker) SetAligned(result AlignmentResult, height HeightReport) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.state = StateAligned
	st.result = &result
	st.height = &height
	st.alignedAt = time.Now()
}

// Result returns the committed alignment, or nil while not aligned.
func (st *StateTracker) Result() *AlignmentResult {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.result == nil {
		return nil
	}
	r := *st.result
	return &r
}

// Aligned reports whether an alignment has been committed this session.
func (st *StateTracker) Aligned() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.result != nil
}

// Snapshot returns a copy of the current session view.
func (st *StateTracker) Snapshot() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()

	snap := Snapshot{
		State:      st.state.String(),
		Aligned:    st.result != nil,
		FloorCount: st.floorCount,
		CeilCount:  st.ceilCount,
		WallCount:  st.wallCount,
	}
	if st.result != nil {
		r := *st.result
		snap.Result = &r
	}
	if st.height != nil {
		h := *st.height
		snap.Height = &h
	}
	if !st.lastPlaneAt.IsZero() {
		t := st.lastPlaneAt
		snap.LastPlaneAt = &t
	}
	if !st.alignedAt.IsZero() {
		t := st.alignedAt
		snap.AlignedAt = &t
	}
	return snap
}
