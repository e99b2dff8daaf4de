package mqtt

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/jgulick48/tilt2mqtt/internal/models"
	"github.com/jgulick48/tilt2mqtt/internal/tilt"
)

const (
	// MQTT 3.1.1
	protocolVersion   = 4
	connectTimeout    = 10 * time.Second
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 250
	maxReconnectDelay = 5 * time.Minute
)

type Client interface {
	Close()
	Connect() error
	Publish(color tilt.Color, reading tilt.Reading) error
}

func NewClient(config models.MQTTConfiguration) Client {
	c := &client{
		config: config,
	}
	c.mqttClient = paho.NewClient(c.options())
	return c
}

type client struct {
	config     models.MQTTConfiguration
	mqttClient paho.Client
	connecting atomic.Bool
}

func (c *client) brokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", c.config.Host, c.config.Port)
}

func (c *client) options() *paho.ClientOptions {
	opts := paho.NewClientOptions()
	opts.AddBroker(c.brokerURL())
	opts.SetClientID(fmt.Sprintf("tilt2mqtt-%s", uuid.NewString()))
	opts.SetProtocolVersion(protocolVersion)
	if c.config.Username != "" {
		opts.SetUsername(c.config.Username)
		opts.SetPassword(c.config.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetMaxReconnectInterval(maxReconnectDelay)
	opts.SetConnectTimeout(connectTimeout)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler
	return opts
}

// Connect makes a single connection attempt. A failed attempt is not retried
// here; publish starts a fresh attempt when it finds the client disconnected.
func (c *client) Connect() error {
	slog.Info("Connecting to broker", "broker", c.brokerURL())
	token := c.mqttClient.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("connecting to %s: timeout after %v", c.brokerURL(), connectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connecting to %s: %w", c.brokerURL(), err)
	}
	return nil
}

// reconnect starts one background connection attempt unless one is already
// running.
func (c *client) reconnect() {
	if !c.connecting.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer c.connecting.Store(false)
		if err := c.Connect(); err != nil {
			slog.Warn("Broker still unreachable", "error", err)
		}
	}()
}

func (c *client) Close() {
	c.mqttClient.Disconnect(disconnectQuiesce)
}

func (c *client) Publish(color tilt.Color, reading tilt.Reading) error {
	message, err := NewMessage(color, reading)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return c.publish(message)
}

// publish refuses to hand a message to paho unless the connection is open.
// paho stores QoS 2 messages while reconnecting and delivers them later,
// which would replay stale readings after an outage.
func (c *client) publish(message Message) error {
	if !c.mqttClient.IsConnectionOpen() {
		// IsConnected is also true while paho is reconnecting on its own.
		if !c.mqttClient.IsConnected() {
			c.reconnect()
		}
		return fmt.Errorf("%w: %w", ErrPublishFailed, ErrNotConnected)
	}
	token := c.mqttClient.Publish(message.Topic, message.QoS, message.Retain, message.Payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	if c.config.Debug {
		slog.Debug("Published message", "topic", message.Topic, "payload", string(message.Payload))
	}
	return nil
}

var connectHandler paho.OnConnectHandler = func(client paho.Client) {
	slog.Info("Connected to broker")
}

var connectLostHandler paho.ConnectionLostHandler = func(client paho.Client, err error) {
	slog.Warn("Connection to broker lost", "error", err)
}
