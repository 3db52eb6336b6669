package main

import (
	"encoding/json"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"

	"github.com/kwv/roomfit/align"
)

// ---------------------------------------------------------------------------
// TestSessionAlignmentFlow
//
// Integration test that exercises the full session pipeline the way the MQTT
// callbacks drive it:
//   1. A "start" session signal puts the collector into collecting
//   2. Plane events are classified and accumulated
//   3. Once a floor and two walls exist, the alignment commits
//   4. The handler updates the state tracker and publishes the pose and the
//      world-space placements to the mock broker
//   5. An "end" signal discards the session
// ---------------------------------------------------------------------------

// appTestConfig is a two-wall corner room with distinct wall lengths, so the
// length-based matcher pairs each detected wall with exactly one reference.
func appTestConfig() *align.Config {
	cfg := &align.Config{
		MQTT: align.MQTTConfig{TopicPrefix: "roomfit"},
		Model: &align.ReferenceModel{
			FloorY:        0,
			CeilingY:      2.5,
			FloorCentroid: mgl64.Vec3{4.5, 0, -2.6},
			Walls: []align.ReferenceWall{
				{Label: "north", Length: 9.0, Normal: mgl64.Vec2{0, 1}, Center: mgl64.Vec3{4.5, 1.25, 0}},
				{Label: "east", Length: 10.5, Normal: mgl64.Vec2{1, 0}, Center: mgl64.Vec3{9, 1.25, -5.25}},
			},
		},
		Placements: []align.Placement{
			{ID: "lamp-1", Name: "Lamp", Kind: "light", Position: mgl64.Vec3{2, 0.8, -1}},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func newTestApp(t *testing.T) (*App, *align.MockClient) {
	t.Helper()

	cfg := appTestConfig()
	mock := align.NewMockClient()
	mock.SetConnected(true)

	app := NewApp()
	app.Config = cfg
	app.Publisher = align.NewPublisher(mock, cfg.MQTT.TopicPrefix)

	collector, err := align.NewCollector(cfg.Alignment, cfg.Model, app.onAligned)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	app.Collector = collector

	return app, mock
}

func planeEvent(t *testing.T, payload string) *align.PlaneEvent {
	t.Helper()
	ev, err := align.DecodePlaneEvent([]byte(payload))
	if err != nil {
		t.Fatalf("DecodePlaneEvent: %v", err)
	}
	return ev
}

func TestSessionAlignmentFlow(t *testing.T) {
	app, mock := newTestApp(t)

	app.handleSession("start")
	assert.Equal(t, align.StateCollecting, app.Collector.State())

	floor := planeEvent(t, `{
		"orientation": "horizontal",
		"polygon": [[3.5,0.02,-3.6],[5.5,0.02,-3.6],[5.5,0.02,-1.6],[3.5,0.02,-1.6]]
	}`)
	north := planeEvent(t, `{
		"orientation": "vertical",
		"polygon": [[0,0,0],[9,0,0],[9,2.5,0],[0,2.5,0]]
	}`)
	east := planeEvent(t, `{
		"orientation": "vertical",
		"polygon": [[9,0,0],[9,0,-10.5],[9,2.5,-10.5],[9,2.5,0]]
	}`)

	app.handlePlane(nil, floor, nil)
	app.handlePlane(nil, north, nil)
	assert.Equal(t, align.StateCollecting, app.Collector.State(), "one wall is below the evidence gate")

	app.handlePlane(nil, east, nil)
	assert.Equal(t, align.StateAligned, app.Collector.State())

	// The tracker saw the commit.
	assert.True(t, app.StateTracker.Aligned())
	result := app.StateTracker.Result()
	if assert.NotNil(t, result) {
		assert.Equal(t, 2, result.MatchCount)
		assert.False(t, result.Forced)
		assert.InDelta(t, 0, result.RotationY, 1e-6)
		assert.InDelta(t, 0.02, result.Translation.Y(), 1e-6)
	}

	// Pose and placements went out over MQTT.
	msgs := mock.GetPublishedMessages()
	topics := make([]string, 0, len(msgs))
	for _, m := range msgs {
		topics = append(topics, m.Topic)
	}
	assert.Contains(t, topics, "roomfit/alignment/pose")
	assert.Contains(t, topics, "roomfit/alignment/placements")

	for _, m := range msgs {
		if m.Topic == "roomfit/alignment/pose" {
			var pose struct {
				Scale     float64    `json:"scale"`
				RotationY float64    `json:"rotationY"`
				Position  [3]float64 `json:"position"`
			}
			assert.NoError(t, json.Unmarshal(m.Payload, &pose))
			assert.Equal(t, 1.0, pose.Scale)
		}
	}

	// End of session discards everything.
	app.handleSession("end")
	assert.Equal(t, align.StateIdle, app.Collector.State())
	assert.False(t, app.StateTracker.Aligned())
}

func TestHandlePlane_SkipsBadInput(t *testing.T) {
	app, mock := newTestApp(t)
	app.handleSession("start")

	// Transport-level decode failure: nothing reaches the collector.
	app.handlePlane([]byte("not json"), nil, assert.AnError)

	// Unknown orientation is silently ignored.
	unknown := &align.PlaneEvent{
		Orientation: "diagonal",
		Polygon:     [][3]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
	}
	app.handlePlane(nil, unknown, nil)

	// Degenerate polygon is dropped too.
	collinear := &align.PlaneEvent{
		Orientation: "horizontal",
		Polygon:     [][3]float64{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}},
	}
	app.handlePlane(nil, collinear, nil)

	floors, ceilings, walls := app.Collector.Counts()
	assert.Zero(t, floors+ceilings+walls)
	assert.Empty(t, mock.GetPublishedMessages())
}

func TestHandleSession_UnknownSignal(t *testing.T) {
	app, _ := newTestApp(t)

	app.handleSession("start")
	app.handleSession("pause") // unknown, ignored
	assert.Equal(t, align.StateCollecting, app.Collector.State())
}
