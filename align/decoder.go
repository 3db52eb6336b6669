package align

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// PlaneEvent is one plane-detection "qualify" event as received from the
// spatial-sensing runtime. The polygon is in the plane's local frame;
// Transform maps it to world space.
type PlaneEvent struct {
	Orientation string       `json:"orientation"`
	Polygon     [][3]float64 `json:"polygon"`
	// Transform is a 16-element column-major world matrix. Absent or empty
	// means the polygon is already in world space.
	Transform []float64 `json:"transform,omitempty"`
	Timestamp int64     `json:"timestamp,omitempty"`
}

// WorldMatrix returns the event's transform as an mgl64.Mat4, or the identity
// when no transform was supplied.
func (e *PlaneEvent) WorldMatrix() (mgl64.Mat4, error) {
	if len(e.Transform) == 0 {
		return mgl64.Ident4(), nil
	}
	if len(e.Transform) != 16 {
		return mgl64.Mat4{}, fmt.Errorf("transform must have 16 elements, got %d", len(e.Transform))
	}
	var m mgl64.Mat4
	copy(m[:], e.Transform)
	return m, nil
}

// DecodePlaneEvent parses a plane-detection payload. It validates the wire
// shape only; semantic rejection (too few vertices, degenerate polygon) is
// the classifier's job.
func DecodePlaneEvent(payload []byte) (*PlaneEvent, error) {
	var ev PlaneEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("decoding plane event: %w", err)
	}
	if ev.Orientation == "" {
		return nil, fmt.Errorf("plane event missing orientation")
	}
	if len(ev.Polygon) == 0 {
		return nil, fmt.Errorf("plane event missing polygon")
	}
	if len(ev.Transform) != 0 && len(ev.Transform) != 16 {
		return nil, fmt.Errorf("plane event transform must have 16 elements, got %d", len(ev.Transform))
	}
	return &ev, nil
}

// Session lifecycle signals emitted by the hosting runtime.
const (
	SessionSignalStart = "start"
	SessionSignalEnd   = "end"
)

// sessionPayload is the JSON object form of a session state message.
type sessionPayload struct {
	Value string `json:"value"`
}

// DecodeSessionSignal parses a session lifecycle payload. The runtime sends
// either a JSON object {"value": "start"}, a JSON string "start", or a raw
// string; all three are accepted.
func DecodeSessionSignal(payload []byte) (string, error) {
	var value string

	var obj sessionPayload
	if err := json.Unmarshal(payload, &obj); err == nil && obj.Value != "" {
		value = obj.Value
	} else {
		var plain string
		if err := json.Unmarshal(payload, &plain); err == nil {
			value = plain
		} else {
			value = strings.TrimSpace(string(payload))
		}
	}

	switch value {
	case SessionSignalStart, SessionSignalEnd:
		return value, nil
	case "":
		return "", fmt.Errorf("empty session signal")
	default:
		return "", fmt.Errorf("unknown session signal %q", value)
	}
}
