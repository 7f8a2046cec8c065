package mqtt

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Options configures Connect.
type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string
	// SystemTopic is the prefix for the daemon's own topics.
	SystemTopic string
}

// ClientID returns configured, or a random "lightswitch-xxxxxxxx" ID when
// configured is empty.
func ClientID(configured string) string {
	if configured != "" {
		return configured
	}
	return "lightswitch-" + uuid.NewString()[:8]
}

// Client publishes to and subscribes on an actual MQTT broker.
//
// Subscriptions are tracked and restored whenever paho reconnects.
type Client struct {
	client    paho.Client
	topics    Topics
	log       logr.Logger
	connected atomic.Bool

	subMu sync.Mutex
	subs  map[string]MessageHandler
}

// Connect creates a client connected to the broker. An "Offline" will is
// registered on the LWT topic and "Online" is published on every connect.
func Connect(o Options, log logr.Logger) (*Client, error) {
	c := &Client{
		topics: Topics{Prefix: o.SystemTopic, ClientID: o.ClientID},
		log:    log,
		subs:   make(map[string]MessageHandler),
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetUsername(o.Username).
		SetPassword(o.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(c.topics.LWT(), PayloadOffline, 1, true).
		SetOnConnectHandler(func(paho.Client) { c.handleConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			c.connected.Store(false)
			c.log.Error(err, "connection lost")
		})

	c.client = paho.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	c.connected.Store(true)

	return c, nil
}

// handleConnect runs on every (re)connect.
func (c *Client) handleConnect() {
	c.connected.Store(true)
	c.log.Info("connected")

	c.client.Publish(c.topics.LWT(), 1, true, PayloadOnline)

	c.subMu.Lock()
	defer c.subMu.Unlock()
	for topic, handler := range c.subs {
		c.client.Subscribe(topic, 0, c.wrap(handler))
	}
}

// Publish sends a light command at QoS 0 without waiting for it.
// Failures are logged.
func (c *Client) Publish(topic, payload string) {
	token := c.client.Publish(topic, 0, false, payload)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			c.log.Error(ErrPublishFailed, "publish timeout", "topic", topic)
			return
		}
		if err := token.Error(); err != nil {
			c.log.Error(err, "publish failed", "topic", topic)
		}
	}()
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (c *Client) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) so shutdown events survive a flaky link
	token := c.client.Publish(c.topics.System(), 1, event.Retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: system timeout", ErrPublishFailed)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Subscribe registers handler for topic (wildcards allowed).
func (c *Client) Subscribe(topic string, handler MessageHandler) error {
	if topic == "" {
		return ErrInvalidTopic
	}

	c.subMu.Lock()
	c.subs[topic] = handler
	c.subMu.Unlock()

	token := c.client.Subscribe(topic, 0, c.wrap(handler))
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}
	return nil
}

func (c *Client) wrap(handler MessageHandler) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		c.dispatch(handler, msg.Topic(), msg.Payload())
	}
}

// dispatch runs handler on paho's routing goroutine. A panic is logged and
// swallowed so one bad message cannot take the daemon down.
func (c *Client) dispatch(handler MessageHandler, topic string, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error(fmt.Errorf("%w: %v", ErrHandlerPanic, r), "message handler panicked", "topic", topic)
		}
	}()

	if err := handler(topic, payload); err != nil {
		c.log.Error(err, "message handler failed", "topic", topic)
	}
}

// IsConnected reports whether the broker connection is up.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// Close publishes "Offline" and disconnects from the broker.
func (c *Client) Close() error {
	token := c.client.Publish(c.topics.LWT(), 1, true, PayloadOffline)
	token.WaitTimeout(time.Second)
	c.client.Disconnect(1000) // 1 second timeout
	c.connected.Store(false)
	return nil
}
