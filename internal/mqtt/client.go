// Package mqtt is the paho-backed transport under the session supervisor.
// Automatic reconnection is disabled; the session decides when to retry.
// Inbound messages arrive on paho goroutines and are only queued here, to be
// drained by the control loop.
package mqtt

import (
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/relay-controller/internal/datadog"
	"github.com/thatsimonsguy/relay-controller/internal/session"
)

var ErrNotConnected = errors.New("mqtt client not connected")

// newClient is swapped in tests.
var newClient = paho.NewClient

const keepAlive = 15 * time.Second

type Client struct {
	brokerURL string
	timeout   time.Duration
	client    paho.Client
	inbound   chan session.Message
}

func New(brokerURL string, connectTimeout time.Duration, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Client{
		brokerURL: brokerURL,
		timeout:   connectTimeout,
		inbound:   make(chan session.Message, queueSize),
	}
}

// Connect makes a single connection attempt bounded by the connect timeout.
func (c *Client) Connect(clientID, username, password string) error {
	opts := paho.NewClientOptions()
	opts.AddBroker(c.brokerURL)
	opts.SetClientID(clientID)
	opts.SetUsername(username)
	opts.SetPassword(password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(c.timeout)
	opts.SetKeepAlive(keepAlive)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Warn().Err(err).Str("broker", c.brokerURL).Msg("MQTT connection lost")
	})

	client := newClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("connect to %s: timed out after %s", c.brokerURL, c.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to %s: %w", c.brokerURL, err)
	}

	c.client = client
	return nil
}

func (c *Client) Connected() bool {
	return c.client != nil && c.client.IsConnectionOpen()
}

func (c *Client) Subscribe(topic string) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	token := c.client.Subscribe(topic, 0, c.handle)
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("subscribe %s: timed out", topic)
	}
	return token.Error()
}

// Publish queues the message with paho and returns without waiting for it to
// be written.
func (c *Client) Publish(topic string, payload []byte) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	token := c.client.Publish(topic, 0, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	default:
		return nil
	}
}

func (c *Client) Receive() (session.Message, bool) {
	select {
	case msg := <-c.inbound:
		return msg, true
	default:
		return session.Message{}, false
	}
}

// handle runs on a paho goroutine. A full queue drops the message.
func (c *Client) handle(_ paho.Client, msg paho.Message) {
	payload := append([]byte(nil), msg.Payload()...)
	select {
	case c.inbound <- session.Message{Topic: msg.Topic(), Payload: payload}:
	default:
		datadog.Incr("mqtt.inbound_dropped")
		log.Warn().Str("topic", msg.Topic()).Msg("Inbound queue full, dropping message")
	}
}
