// Package session supervises the broker session: gated reconnects,
// resubscription after every (re)connect, fire-and-forget publishing and
// synchronous delivery of buffered inbound messages.
package session

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/relay-controller/internal/datadog"
	"github.com/thatsimonsguy/relay-controller/internal/model"
)

type Message struct {
	Topic   string
	Payload []byte
}

// Transport is the MQTT client underneath the session.
type Transport interface {
	Connect(clientID, username, password string) error
	Connected() bool
	Subscribe(topic string) error
	Publish(topic string, payload []byte) error
	// Receive dequeues one buffered inbound message without blocking.
	Receive() (Message, bool)
}

type Credentials struct {
	ClientID string
	Username string
	Password string
}

type Session struct {
	transport Transport
	creds     Credentials
	topics    Topics
	interval  time.Duration
}

func New(transport Transport, creds Credentials, interval time.Duration) *Session {
	return &Session{
		transport: transport,
		creds:     creds,
		topics:    NewTopics(creds.ClientID),
		interval:  interval,
	}
}

func (s *Session) Topics() Topics {
	return s.topics
}

func (s *Session) Status() bool {
	return s.transport.Connected()
}

// Connect establishes the session and subscribes to every command topic. On
// failure the attempt time is recorded for the reconnect gate and the error
// returned; there is no immediate retry.
func (s *Session) Connect(st *model.DeviceState, now time.Time) error {
	if s.transport.Connected() {
		st.SessionUp = true
		return nil
	}

	log.Info().Str("client_id", s.creds.ClientID).Msg("Connecting to MQTT broker")
	datadog.Incr("mqtt.connect_attempts")

	if err := s.transport.Connect(s.creds.ClientID, s.creds.Username, s.creds.Password); err != nil {
		st.SessionUp = false
		st.LastSessionAttempt = now
		log.Warn().
			Err(err).
			Dur("retry_in", s.interval).
			Msg("MQTT broker not connected")
		return fmt.Errorf("mqtt connect: %w", err)
	}

	st.SessionUp = true
	log.Info().Msg("MQTT broker connected")

	for _, topic := range s.topics.Subscriptions() {
		if err := s.transport.Subscribe(topic); err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("Failed to subscribe")
			continue
		}
		log.Debug().Str("topic", topic).Msg("Subscribed")
	}
	return nil
}

// PollReconnect calls Connect when the session is down, the link is up, and
// at least one interval has passed since the last failed attempt. The link
// status is the one the network poll left in st during the same tick.
func (s *Session) PollReconnect(st *model.DeviceState, now time.Time) bool {
	st.SessionUp = s.transport.Connected()
	if st.SessionUp || !st.LinkUp {
		return false
	}
	if now.Sub(st.LastSessionAttempt) < s.interval {
		return false
	}

	_ = s.Connect(st, now)
	return true
}

// Publish sends without waiting for delivery. Failures are only logged.
func (s *Session) Publish(topic string, payload []byte) {
	if err := s.transport.Publish(topic, payload); err != nil {
		log.Debug().Err(err).Str("topic", topic).Msg("Publish failed")
	}
}

// maxPumpBatch bounds one Pump call so a message flood cannot stall the loop.
const maxPumpBatch = 64

// Pump hands buffered inbound messages to handler in arrival order and returns
// how many were delivered. It must run every loop iteration.
func (s *Session) Pump(handler func(topic string, payload []byte)) int {
	n := 0
	for n < maxPumpBatch {
		msg, ok := s.transport.Receive()
		if !ok {
			break
		}
		handler(msg.Topic, msg.Payload)
		n++
	}
	return n
}
