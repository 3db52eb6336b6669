package align

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults for the alignment tuning knobs. The values mirror the deployment
// the reference geometry was tuned for; change them in config, not here.
const (
	DefaultMaxLengthDiffM     = 1.5
	DefaultMaxHeightDiffM     = 0.5
	DefaultMinWallPlanes      = 2
	DefaultTimeoutS           = 30.0
	DefaultCeilingYThresholdM = 1.5
	DefaultModelScale         = 1.0
)

// MQTTConfig holds MQTT connection settings. Environment variables
// (MQTT_BROKER, MQTT_CLIENT_ID, MQTT_USERNAME, MQTT_PASSWORD) override the
// file values at connect time.
type MQTTConfig struct {
	Broker      string `yaml:"broker" json:"broker"`
	ClientID    string `yaml:"clientId" json:"clientId"`
	Username    string `yaml:"username,omitempty" json:"username,omitempty"`
	Password    string `yaml:"password,omitempty" json:"password,omitempty"`
	TopicPrefix string `yaml:"topicPrefix" json:"topicPrefix"`
}

// Tuning groups the estimator thresholds. All distances are meters, the
// timeout is seconds.
type Tuning struct {
	MaxLengthDiffM     float64 `yaml:"maxLengthDiffM" json:"maxLengthDiffM"`
	MaxHeightDiffM     float64 `yaml:"maxHeightDiffM" json:"maxHeightDiffM"`
	MinWallPlanes      int     `yaml:"minWallPlanes" json:"minWallPlanes"`
	TimeoutS           float64 `yaml:"timeoutS" json:"timeoutS"`
	CeilingYThresholdM float64 `yaml:"ceilingYThresholdM" json:"ceilingYThresholdM"`
	ModelScale         float64 `yaml:"modelScale" json:"modelScale"`
}

// Config is the full service configuration.
type Config struct {
	MQTT       MQTTConfig      `yaml:"mqtt" json:"mqtt"`
	Alignment  Tuning          `yaml:"alignment" json:"alignment"`
	Model      *ReferenceModel `yaml:"model" json:"model"`
	Placements []Placement     `yaml:"placements,omitempty" json:"placements,omitempty"`
}

// ApplyDefaults fills unset tuning values with their defaults. Zero is not a
// meaningful value for any of these knobs, so zero means "unset".
func (c *Config) ApplyDefaults() {
	if c.Alignment.MaxLengthDiffM == 0 {
		c.Alignment.MaxLengthDiffM = DefaultMaxLengthDiffM
	}
	if c.Alignment.MaxHeightDiffM == 0 {
		c.Alignment.MaxHeightDiffM = DefaultMaxHeightDiffM
	}
	if c.Alignment.MinWallPlanes == 0 {
		c.Alignment.MinWallPlanes = DefaultMinWallPlanes
	}
	if c.Alignment.TimeoutS == 0 {
		c.Alignment.TimeoutS = DefaultTimeoutS
	}
	if c.Alignment.CeilingYThresholdM == 0 {
		c.Alignment.CeilingYThresholdM = DefaultCeilingYThresholdM
	}
	if c.Alignment.ModelScale == 0 {
		c.Alignment.ModelScale = DefaultModelScale
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "roomfit"
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "roomfit"
	}
}

// Validate checks the parts of the configuration that have no workable
// fallback. The reference model is the hard requirement: without a wall table
// there is nothing to align against.
func (c *Config) Validate() error {
	if c.Model == nil {
		return fmt.Errorf("model is required")
	}
	if err := c.Model.Validate(); err != nil {
		return err
	}
	if c.Alignment.MaxLengthDiffM < 0 {
		return fmt.Errorf("alignment.maxLengthDiffM must not be negative")
	}
	if c.Alignment.MinWallPlanes < 1 {
		return fmt.Errorf("alignment.minWallPlanes must be at least 1")
	}
	for i, p := range c.Placements {
		if p.ID == "" {
			return fmt.Errorf("placements[%d].id is required", i)
		}
	}
	return nil
}

// LoadConfig loads the service configuration from a YAML file, applies
// defaults, and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// SaveConfig writes the configuration to a YAML file.
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
