package align

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher pushes the committed model-root pose and the world-space device
// placements to MQTT. Messages are retained so late subscribers (a headset
// reconnecting mid-session) receive the current pose immediately.
type Publisher struct {
	client mqtt.Client
	prefix string
	qos    byte
	retain bool

	mu       sync.RWMutex
	lastPose *AlignmentResult
}

// NewPublisher creates a pose publisher. A nil client disables publishing
// (used in tests and render-only modes).
func NewPublisher(client mqtt.Client, topicPrefix string) *Publisher {
	if topicPrefix == "" {
		topicPrefix = "roomfit"
	}
	return &Publisher{
		client: client,
		prefix: topicPrefix,
		qos:    1, // the pose is applied once per session; delivery matters
		retain: true,
	}
}

// poseMessage is the wire form of a committed alignment.
type poseMessage struct {
	Scale     float64    `json:"scale"`
	RotationY float64    `json:"rotationY"`
	Position  [3]float64 `json:"position"`
	Forced    bool       `json:"forced"`
	Timestamp int64      `json:"timestamp"`
}

// PublishPose publishes the model-root transform to <prefix>/alignment/pose.
func (p *Publisher) PublishPose(result AlignmentResult) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	msg := poseMessage{
		Scale:     result.Scale,
		RotationY: result.RotationY,
		Position:  [3]float64(result.Translation),
		Forced:    result.Forced,
		Timestamp: time.Now().Unix(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling pose: %w", err)
	}

	topic := fmt.Sprintf("%s/alignment/pose", p.prefix)
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	p.mu.Lock()
	p.lastPose = &result
	p.mu.Unlock()

	log.Printf("[PUB] published pose: yaw=%.3frad position=(%.2f, %.2f, %.2f)",
		result.RotationY, result.Translation.X(), result.Translation.Y(), result.Translation.Z())
	return nil
}

// PublishPlacements publishes the world-space device placements to
// <prefix>/alignment/placements.
func (p *Publisher) PublishPlacements(placements []WorldPlacement) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}
	if len(placements) == 0 {
		return nil
	}

	message := map[string]interface{}{
		"placements": placements,
		"timestamp":  time.Now().Unix(),
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshaling placements: %w", err)
	}

	topic := fmt.Sprintf("%s/alignment/placements", p.prefix)
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	log.Printf("[PUB] published %d placements", len(placements))
	return nil
}

// LastPose returns the most recently published pose, if any.
func (p *Publisher) LastPose() (*AlignmentResult, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lastPose == nil {
		return nil, false
	}
	pose := *p.lastPose
	return &pose, true
}

// SetQoS sets the Quality of Service level for publishing (0, 1, or 2).
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// SetRetain sets whether published messages should be retained by the broker.
func (p *Publisher) SetRetain(retain bool) {
	p.retain = retain
}
