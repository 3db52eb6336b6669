package align

import (
	"os"
	"path/filepath"
	"testing"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func validConfigYAML() string {
	return `mqtt:
  broker: tcp://localhost:1883
  clientId: roomfit-test
  topicPrefix: roomfit
alignment:
  maxLengthDiffM: 1.0
  timeoutS: 15
model:
  floorY: 0
  ceilingY: 2.5
  floorCentroid: [4.5, 0, -2.6]
  walls:
    - label: north
      length: 9.0
      normal: [0, 1]
      center: [4.5, 1.25, 0]
    - label: east
      length: 10.5
      normal: [1, 0]
      center: [9, 1.25, -5.25]
placements:
  - id: lamp-1
    name: Desk Lamp
    kind: light
    position: [2, 0.8, -1]
`
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config fixture: %v", err)
	}
	return path
}

// ---------------------------------------------------------------------------
// LoadConfig
// ---------------------------------------------------------------------------

func TestLoadConfig_NotExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for missing config file, got nil")
	}
}

func TestLoadConfig_Valid(t *testing.T) {
	path := writeConfig(t, validConfigYAML())

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("Broker = %q", cfg.MQTT.Broker)
	}
	if len(cfg.Model.Walls) != 2 {
		t.Fatalf("walls = %d, want 2", len(cfg.Model.Walls))
	}
	if cfg.Model.Walls[0].Label != "north" || cfg.Model.Walls[0].Length != 9.0 {
		t.Errorf("walls[0] = %+v", cfg.Model.Walls[0])
	}
	if cfg.Model.Walls[1].Normal.X() != 1 || cfg.Model.Walls[1].Normal.Y() != 0 {
		t.Errorf("walls[1].Normal = %v", cfg.Model.Walls[1].Normal)
	}
	if len(cfg.Placements) != 1 || cfg.Placements[0].ID != "lamp-1" {
		t.Errorf("placements = %+v", cfg.Placements)
	}

	// Explicit values survive, the rest are defaulted.
	if cfg.Alignment.MaxLengthDiffM != 1.0 {
		t.Errorf("MaxLengthDiffM = %v, want 1.0", cfg.Alignment.MaxLengthDiffM)
	}
	if cfg.Alignment.TimeoutS != 15 {
		t.Errorf("TimeoutS = %v, want 15", cfg.Alignment.TimeoutS)
	}
	if cfg.Alignment.MinWallPlanes != DefaultMinWallPlanes {
		t.Errorf("MinWallPlanes = %v, want default", cfg.Alignment.MinWallPlanes)
	}
	if cfg.Alignment.ModelScale != DefaultModelScale {
		t.Errorf("ModelScale = %v, want default", cfg.Alignment.ModelScale)
	}
}

func TestLoadConfig_ModelRequired(t *testing.T) {
	path := writeConfig(t, "mqtt:\n  broker: tcp://localhost:1883\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for config without a model")
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := writeConfig(t, ":\n  - not yaml: [")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{Model: testModel()}
		cfg.ApplyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"Valid", func(c *Config) {}, false},
		{"NilModel", func(c *Config) { c.Model = nil }, true},
		{"NoWalls", func(c *Config) { c.Model = &ReferenceModel{FloorY: 0, CeilingY: 2.5} }, true},
		{"ZeroLengthWall", func(c *Config) { c.Model.Walls[0].Length = 0 }, true},
		{"CeilingBelowFloor", func(c *Config) { c.Model.CeilingY = -1 }, true},
		{"NegativeLengthDiff", func(c *Config) { c.Alignment.MaxLengthDiffM = -1 }, true},
		{"NegativeMinWalls", func(c *Config) { c.Alignment.MinWallPlanes = -1 }, true},
		{"PlacementWithoutID", func(c *Config) { c.Placements = []Placement{{Name: "anon"}} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// SaveConfig
// ---------------------------------------------------------------------------

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg := &Config{
		MQTT:  MQTTConfig{Broker: "tcp://localhost:1883"},
		Model: testModel(),
	}
	cfg.ApplyDefaults()

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig after save: %v", err)
	}
	if loaded.MQTT.Broker != cfg.MQTT.Broker {
		t.Errorf("Broker = %q, want %q", loaded.MQTT.Broker, cfg.MQTT.Broker)
	}
	if len(loaded.Model.Walls) != len(cfg.Model.Walls) {
		t.Errorf("walls = %d, want %d", len(loaded.Model.Walls), len(cfg.Model.Walls))
	}
	if loaded.Model.Walls[0].Center != cfg.Model.Walls[0].Center {
		t.Errorf("walls[0].Center = %v, want %v", loaded.Model.Walls[0].Center, cfg.Model.Walls[0].Center)
	}
}
