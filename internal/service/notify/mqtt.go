package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/oshokin/smart-home/internal/config"
	"github.com/oshokin/smart-home/internal/logger"
)

const (
	mqttKeepAlive      = 60 * time.Second
	mqttPingTimeout    = 10 * time.Second
	mqttDisconnectWait = 250
)

var errMQTTTimeout = errors.New("mqtt operation timed out")

// Publisher is the part of an MQTT client used to send events.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload any) mqtt.Token
}

// MQTT publishes events as JSON on a topic.
type MQTT struct {
	client  Publisher
	topic   string
	qos     byte
	timeout time.Duration
}

// NewMQTT creates a notifier over an existing client.
func NewMQTT(client Publisher, topic string, qos byte, timeout time.Duration) *MQTT {
	return &MQTT{
		client:  client,
		topic:   topic,
		qos:     qos,
		timeout: timeout,
	}
}

// DialMQTT connects to the broker in cfg.
// The returned function disconnects the client.
func DialMQTT(ctx context.Context, cfg config.MQTT, timeout time.Duration) (*MQTT, func(), error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL(cfg.Broker))
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetKeepAlive(mqttKeepAlive)
	opts.SetPingTimeout(mqttPingTimeout)
	opts.SetAutoReconnect(true)

	opts.OnConnect = func(mqtt.Client) {
		logger.InfoKV(ctx, "Connected to MQTT broker", "broker", cfg.Broker)
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.WarnKV(ctx, "MQTT connection lost", "broker", cfg.Broker, "error", err)
	}

	client := mqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, nil, fmt.Errorf("connect to %s: %w", cfg.Broker, errMQTTTimeout)
	}

	if err := token.Error(); err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", cfg.Broker, err)
	}

	closeFn := func() {
		client.Disconnect(mqttDisconnectWait)
	}

	return NewMQTT(client, cfg.Topic, cfg.QoS, timeout), closeFn, nil
}

// brokerURL adds the tcp scheme to a bare host:port.
func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}

	return "tcp://" + broker
}

// Name implements Notifier.
func (m *MQTT) Name() string {
	return "mqtt"
}

// Notify implements Notifier.
func (m *MQTT) Notify(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	timeout := m.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	token := m.client.Publish(m.topic, m.qos, false, payload)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish to %s: %w", m.topic, errMQTTTimeout)
	}

	if err = token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", m.topic, err)
	}

	return nil
}
