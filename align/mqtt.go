package align

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// PlaneHandler receives decoded plane-detection events.
// rawPayload is kept so callers can log or archive undecodable payloads.
type PlaneHandler func(rawPayload []byte, event *PlaneEvent, err error)

// SessionHandler receives session lifecycle signals ("start" / "end").
type SessionHandler func(signal string)

// MQTTClient manages the connection to the spatial-sensing event stream:
// plane-detection qualify events and session lifecycle signals.
type MQTTClient struct {
	client         mqtt.Client
	config         *Config
	planeHandler   PlaneHandler
	sessionHandler SessionHandler
	isConnected    bool
	mu             sync.RWMutex
}

// PlaneTopic returns the plane-detection topic for the configured prefix.
func (c *Config) PlaneTopic() string {
	return c.MQTT.TopicPrefix + "/planes/qualify"
}

// SessionTopic returns the session lifecycle topic for the configured prefix.
func (c *Config) SessionTopic() string {
	return c.MQTT.TopicPrefix + "/session/state"
}

// InitMQTT connects to the broker and subscribes to the plane and session
// topics. If neither MQTT_BROKER nor config.mqtt.broker is set, MQTT is
// disabled and (nil, nil) is returned.
func InitMQTT(config *Config, planes PlaneHandler, sessions SessionHandler) (*MQTTClient, error) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" && config != nil && config.MQTT.Broker != "" {
		broker = config.MQTT.Broker
	}

	if broker == "" {
		log.Println("MQTT disabled: MQTT_BROKER not set")
		return nil, nil
	}

	if config == nil {
		return nil, fmt.Errorf("MQTT enabled but no configuration provided")
	}

	client := &MQTTClient{
		config:         config,
		planeHandler:   planes,
		sessionHandler: sessions,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)

	clientID := os.Getenv("MQTT_CLIENT_ID")
	if clientID == "" && config.MQTT.ClientID != "" {
		clientID = config.MQTT.ClientID
	}
	if clientID == "" {
		clientID = "roomfit"
	}
	opts.SetClientID(clientID)

	username := os.Getenv("MQTT_USERNAME")
	if username == "" && config.MQTT.Username != "" {
		username = config.MQTT.Username
	}
	if username != "" {
		opts.SetUsername(username)
		password := os.Getenv("MQTT_PASSWORD")
		if password == "" && config.MQTT.Password != "" {
			password = config.MQTT.Password
		}
		opts.SetPassword(password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(false) // preserve subscriptions on reconnect
	opts.SetOrderMatters(true)  // plane events must reach the collector in arrival order

	opts.SetOnConnectHandler(client.onConnect)
	opts.SetConnectionLostHandler(client.onConnectionLost)
	opts.SetReconnectingHandler(client.onReconnecting)

	client.client = mqtt.NewClient(opts)

	go client.connectWithRetry()

	return client, nil
}

// connectWithRetry attempts to connect to the MQTT broker with exponential backoff.
func (c *MQTTClient) connectWithRetry() {
	retryDelay := 1 * time.Second
	maxRetryDelay := 60 * time.Second

	for {
		log.Println("[MQTT] connecting to broker...")

		token := c.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				log.Println("[MQTT] connected")
				c.setConnected(true)
				return
			}
			log.Printf("[MQTT] connection failed: %v", token.Error())
		} else {
			log.Println("[MQTT] connection timeout")
		}

		log.Printf("[MQTT] retrying in %v...", retryDelay)
		time.Sleep(retryDelay)
		retryDelay *= 2
		if retryDelay > maxRetryDelay {
			retryDelay = maxRetryDelay
		}
	}
}

// onConnect subscribes to the plane and session topics. It also runs on every
// reconnect, so subscriptions survive broker restarts.
func (c *MQTTClient) onConnect(client mqtt.Client) {
	c.setConnected(true)

	planeTopic := c.config.PlaneTopic()
	log.Printf("[MQTT] subscribing to %s", planeTopic)
	token := client.Subscribe(planeTopic, 0, c.handlePlaneMessage)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		log.Printf("[MQTT] error subscribing to %s: %v", planeTopic, token.Error())
	}

	sessionTopic := c.config.SessionTopic()
	log.Printf("[MQTT] subscribing to %s", sessionTopic)
	token = client.Subscribe(sessionTopic, 1, c.handleSessionMessage)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		log.Printf("[MQTT] error subscribing to %s: %v", sessionTopic, token.Error())
	}
}

func (c *MQTTClient) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("[MQTT] connection interrupted (%v), auto-reconnect will retry", err)
	c.setConnected(false)
}

func (c *MQTTClient) onReconnecting(client mqtt.Client, opts *mqtt.ClientOptions) {
	log.Println("[MQTT] reconnecting...")
}

// handlePlaneMessage decodes a plane-detection payload and forwards it.
// Malformed payloads are reported to the handler with a nil event; they never
// abort the session.
func (c *MQTTClient) handlePlaneMessage(client mqtt.Client, msg mqtt.Message) {
	payload := msg.Payload()

	event, err := DecodePlaneEvent(payload)
	if err != nil {
		log.Printf("[MQTT] skipping undecodable plane event (%d bytes): %v", len(payload), err)
	}

	if c.planeHandler != nil {
		c.planeHandler(payload, event, err)
	}
}

// handleSessionMessage decodes a session lifecycle payload and forwards it.
func (c *MQTTClient) handleSessionMessage(client mqtt.Client, msg mqtt.Message) {
	signal, err := DecodeSessionSignal(msg.Payload())
	if err != nil {
		log.Printf("[MQTT] ignoring session message: %v", err)
		return
	}

	log.Printf("[MQTT] session signal: %s", signal)
	if c.sessionHandler != nil {
		c.sessionHandler(signal)
	}
}

// IsConnected returns true if the MQTT client is connected.
func (c *MQTTClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

func (c *MQTTClient) setConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isConnected = connected
}

// Disconnect gracefully closes the MQTT connection.
func (c *MQTTClient) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		log.Println("[MQTT] disconnecting...")
		c.client.Disconnect(250)
		c.setConnected(false)
	}
}

// GetClient returns the underlying MQTT client for publishing.
func (c *MQTTClient) GetClient() mqtt.Client {
	return c.client
}

// newMQTTClientWithMock creates an MQTTClient around a provided mqtt.Client.
// Used by tests with the in-package mock.
func newMQTTClientWithMock(client mqtt.Client, config *Config, planes PlaneHandler, sessions SessionHandler) *MQTTClient {
	return &MQTTClient{
		client:         client,
		config:         config,
		planeHandler:   planes,
		sessionHandler: sessions,
	}
}
