package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"onemeter-monitor/internal/onemeter"
)

// Publisher mirrors each snapshot to MQTT: one state topic per sensor, a
// retained JSON status topic, an availability topic, and Home Assistant
// discovery configs so the meter shows up as a device with its sensors.
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	deviceID    string
	deviceName  string
	enabled     bool
	announced   bool
	logger      *slog.Logger
}

type PublisherConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	DeviceID    string
	DeviceName  string
	Enabled     bool
	Logger      *slog.Logger
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "mqtt")

	if !cfg.Enabled {
		return &Publisher{enabled: false, logger: logger}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(availabilityTopic(cfg.TopicPrefix, cfg.DeviceID), "offline", 0, true).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			logger.Warn("connection lost", "error", err)
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			logger.Info("connected")
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Publisher{
		client:      client,
		topicPrefix: cfg.TopicPrefix,
		deviceID:    cfg.DeviceID,
		deviceName:  cfg.DeviceName,
		enabled:     true,
		logger:      logger,
	}, nil
}

// Publish mirrors one snapshot to MQTT. Discovery configs are announced
// once, on the first snapshot, when real device identity is available.
func (p *Publisher) Publish(snap onemeter.Snapshot) error {
	if !p.enabled {
		return nil
	}

	if !p.announced {
		if err := p.publishDiscovery(snap); err != nil {
			return err
		}
		p.announced = true
	}

	for key := range snap {
		if _, ok := onemeter.FindSensor(key); !ok {
			continue
		}
		topic := stateTopic(p.topicPrefix, p.deviceID, key)
		payload := fmt.Sprintf("%v", snap[key])
		token := p.client.Publish(topic, 0, false, payload)
		token.Wait()
		if token.Error() != nil {
			p.logger.Warn("failed to publish state", "topic", topic, "error", token.Error())
		}
	}

	statusJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	token := p.client.Publish(statusTopic(p.topicPrefix, p.deviceID), 0, true, statusJSON)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish status: %w", token.Error())
	}

	return nil
}

// PublishAvailability marks the device online or offline, retained so Home
// Assistant keeps the state across its own restarts.
func (p *Publisher) PublishAvailability(online bool) error {
	if !p.enabled {
		return nil
	}
	payload := "offline"
	if online {
		payload = "online"
	}
	token := p.client.Publish(availabilityTopic(p.topicPrefix, p.deviceID), 0, true, payload)
	token.Wait()
	return token.Error()
}

func (p *Publisher) publishDiscovery(snap onemeter.Snapshot) error {
	identity := onemeter.Identity(snap, p.deviceID, p.deviceName)

	for _, desc := range onemeter.Sensors {
		if _, ok := snap[desc.Key]; !ok {
			continue
		}
		topic := discoveryTopic(p.deviceID, desc.Key)
		payload, err := json.Marshal(discoveryPayload(desc, identity, p.topicPrefix))
		if err != nil {
			return fmt.Errorf("failed to marshal discovery config: %w", err)
		}
		token := p.client.Publish(topic, 0, true, payload)
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("failed to publish discovery config: %w", token.Error())
		}
	}

	p.logger.Info("published Home Assistant discovery", "device", p.deviceID)
	return nil
}

// discoveryPayload builds one Home Assistant MQTT discovery config.
func discoveryPayload(desc onemeter.SensorDescription, identity onemeter.DeviceIdentity, topicPrefix string) map[string]any {
	config := map[string]any{
		"name":               desc.Name,
		"unique_id":          fmt.Sprintf("onemeter_%s_%s", identity.DeviceID, desc.Key),
		"state_topic":        stateTopic(topicPrefix, identity.DeviceID, desc.Key),
		"availability_topic": availabilityTopic(topicPrefix, identity.DeviceID),
		"device": map[string]any{
			"identifiers":   []string{fmt.Sprintf("onemeter_%s", identity.DeviceID)},
			"name":          identity.Name,
			"manufacturer":  identity.Manufacturer,
			"model":         identity.Model,
			"sw_version":    identity.FirmwareVersion,
			"hw_version":    identity.HardwareVersion,
			"serial_number": identity.SerialNumber,
		},
	}

	if desc.Unit != "" {
		config["unit_of_measurement"] = desc.Unit
	}
	if desc.DeviceClass != "" {
		config["device_class"] = desc.DeviceClass
	}
	if desc.StateClass != "" {
		config["state_class"] = desc.StateClass
	}
	if desc.Icon != "" {
		config["icon"] = desc.Icon
	}
	if desc.Diagnostic {
		config["entity_category"] = "diagnostic"
	}
	if !desc.EnabledByDefault {
		config["enabled_by_default"] = false
	}

	return config
}

func stateTopic(prefix, deviceID, key string) string {
	return fmt.Sprintf("%s/%s/%s", prefix, deviceID, key)
}

func statusTopic(prefix, deviceID string) string {
	return fmt.Sprintf("%s/%s/status", prefix, deviceID)
}

func availabilityTopic(prefix, deviceID string) string {
	return fmt.Sprintf("%s/%s/availability", prefix, deviceID)
}

func discoveryTopic(deviceID, key string) string {
	return fmt.Sprintf("homeassistant/sensor/onemeter_%s/%s/config", deviceID, key)
}

func (p *Publisher) IsConnected() bool {
	if !p.enabled {
		return false
	}
	return p.client.IsConnected()
}

func (p *Publisher) Close() {
	if p.enabled && p.client != nil {
		p.client.Disconnect(1000)
	}
}
