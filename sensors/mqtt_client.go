package sensors

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"coachsight-service/database"
	"coachsight-service/logger"
	"coachsight-service/realtime"
)

const (
	// DefaultTopicFilter matches per-device telemetry topics
	DefaultTopicFilter = "devices/+/telemetry"

	// MQTT Quality of Service levels
	QoSAtMostOnce  = 0
	QoSAtLeastOnce = 1
	QoSExactlyOnce = 2
)

// TelemetrySink receives resolved telemetry events (implemented by realtime.Hub)
type TelemetrySink interface {
	RelayTelemetry(event *realtime.TelemetryEvent)
}

// TelemetryObserver optionally taps the telemetry stream (implemented by the insight engine)
type TelemetryObserver interface {
	Observe(event *realtime.TelemetryEvent)
}

// DeviceResolver maps a wearable device id to a player record
type DeviceResolver interface {
	FindByDeviceID(deviceID string) (*database.Player, error)
}

// DeviceSample is the JSON payload wearable trackers publish.
// The device id comes from the topic, the player id is resolved server-side.
type DeviceSample struct {
	MatchID   string           `json:"matchId"`
	Timestamp int64            `json:"timestamp"`
	Metrics   realtime.Metrics `json:"metrics"`
}

// MQTTClient subscribes to wearable device telemetry topics and feeds
// resolved samples into the live-match relay
type MQTTClient struct {
	broker   string
	username string
	password string
	topics   []string
	sink     TelemetrySink
	observer TelemetryObserver
	resolver DeviceResolver
	client   mqtt.Client

	// device id -> player id cache, avoids a DB lookup per sample
	mu    sync.RWMutex
	cache map[string]string
}

// NewMQTTClient creates a device telemetry client
func NewMQTTClient(broker, username, password string, topics []string, sink TelemetrySink, observer TelemetryObserver, resolver DeviceResolver) *MQTTClient {
	if len(topics) == 0 {
		topics = []string{DefaultTopicFilter}
	}
	return &MQTTClient{
		broker:   broker,
		username: username,
		password: password,
		topics:   topics,
		sink:     sink,
		observer: observer,
		resolver: resolver,
		cache:    make(map[string]string),
	}
}

// Connect establishes the connection to the MQTT broker and subscribes
func (c *MQTTClient) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.broker)
	opts.SetUsername(c.username)
	opts.SetPassword(c.password)
	opts.SetClientID(fmt.Sprintf("coachsight_%d", time.Now().Unix()))

	if strings.HasPrefix(c.broker, "ssl://") || strings.HasPrefix(c.broker, "tls://") {
		opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: false})
	}

	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	// Auto reconnect
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(10 * time.Second)

	// Keep alive
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)

	c.client = mqtt.NewClient(opts)

	token := c.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect: %w", token.Error())
	}
	return nil
}

// Disconnect closes the connection to the MQTT broker
func (c *MQTTClient) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(250)
	}
}

// onConnect subscribes to the configured topics; called on every (re)connect
func (c *MQTTClient) onConnect(client mqtt.Client) {
	logger.Println("[DeviceMQTT] Connected to broker")
	for _, topic := range c.topics {
		token := client.Subscribe(topic, QoSAtMostOnce, c.onMessage)
		if token.Wait() && token.Error() != nil {
			logger.Errorf("[DeviceMQTT] Failed to subscribe to %s: %v", topic, token.Error())
			continue
		}
		logger.Printf("[DeviceMQTT] Subscribed to %s", topic)
	}
}

func (c *MQTTClient) onConnectionLost(client mqtt.Client, err error) {
	logger.Errorf("[DeviceMQTT] Connection lost: %v", err)
}

func (c *MQTTClient) onMessage(client mqtt.Client, msg mqtt.Message) {
	c.processSample(msg.Topic(), msg.Payload())
}

// processSample handles one telemetry publication. Malformed payloads and
// unknown devices are dropped with a log line, never retried.
func (c *MQTTClient) processSample(topic string, payload []byte) {
	deviceID := deviceIDFromTopic(topic)
	if deviceID == "" {
		logger.Printf("[DeviceMQTT] Ignoring message on unexpected topic %s", topic)
		return
	}

	sample := &DeviceSample{}
	if err := json.Unmarshal(payload, sample); err != nil {
		logger.Errorf("[DeviceMQTT] Malformed payload from %s: %v", deviceID, err)
		return
	}
	if sample.MatchID == "" {
		logger.Printf("[DeviceMQTT] Dropping sample from %s without matchId", deviceID)
		return
	}

	playerID, ok := c.resolvePlayer(deviceID)
	if !ok {
		logger.Printf("[DeviceMQTT] No player mapped to device %s", deviceID)
		return
	}

	event := &realtime.TelemetryEvent{
		MatchID:   sample.MatchID,
		PlayerID:  playerID,
		Timestamp: sample.Timestamp,
		Metrics:   sample.Metrics,
	}
	c.sink.RelayTelemetry(event)
	if c.observer != nil {
		c.observer.Observe(event)
	}
}

// resolvePlayer looks up the player bound to a device, caching hits
func (c *MQTTClient) resolvePlayer(deviceID string) (string, bool) {
	c.mu.RLock()
	playerID, ok := c.cache[deviceID]
	c.mu.RUnlock()
	if ok {
		return playerID, true
	}

	player, err := c.resolver.FindByDeviceID(deviceID)
	if err != nil {
		logger.Errorf("[DeviceMQTT] Device lookup failed for %s: %v", deviceID, err)
		return "", false
	}
	if player == nil {
		return "", false
	}

	playerID = fmt.Sprintf("%d", player.ID)
	c.mu.Lock()
	c.cache[deviceID] = playerID
	c.mu.Unlock()
	return playerID, true
}

// deviceIDFromTopic extracts the device id from "devices/<id>/telemetry"
func deviceIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "devices" || parts[2] != "telemetry" {
		return ""
	}
	return parts[1]
}
