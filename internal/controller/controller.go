// Package controller owns the device state and runs the cooperative loop:
// network poll, session poll, inbound pump and the periodic state publish.
package controller

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/relay-controller/internal/datadog"
	"github.com/thatsimonsguy/relay-controller/internal/model"
	"github.com/thatsimonsguy/relay-controller/internal/relay"
	"github.com/thatsimonsguy/relay-controller/internal/session"
)

type Store interface {
	Load() (model.Record, error)
	Save(rec *model.Record) error
	Erase() (model.Record, error)
}

type Network interface {
	ConnectInitial(st *model.DeviceState, now time.Time) bool
	PollReconnect(st *model.DeviceState, now time.Time) bool
}

type Session interface {
	Connect(st *model.DeviceState, now time.Time) error
	PollReconnect(st *model.DeviceState, now time.Time) bool
	Publish(topic string, payload []byte)
	Pump(handler func(topic string, payload []byte)) int
	Topics() session.Topics
}

type Relays interface {
	Set(ch model.Channel, level model.Level) error
	Apply(rec model.Record) error
}

type Options struct {
	StateInterval time.Duration
	TickIdle      time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

type Controller struct {
	state     model.DeviceState
	store     Store
	network   Network
	session   Session
	relays    Relays
	processor *relay.Processor
	opts      Options
}

func New(store Store, network Network, sess Session, relays Relays, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &Controller{
		store:   store,
		network: network,
		session: sess,
		relays:  relays,
		opts:    opts,
	}
	c.processor = relay.NewProcessor(&c.state, relays, store, sess, sess.Topics())
	return c
}

// State returns a copy of the current device state.
func (c *Controller) State() model.DeviceState {
	return c.state
}

// Boot runs the one-time startup sequence. Neither a missing network nor a
// missing broker stops it; the loop keeps retrying both.
func (c *Controller) Boot() {
	c.loadConfig()

	c.network.ConnectInitial(&c.state, c.opts.Now())

	if err := c.session.Connect(&c.state, c.opts.Now()); err != nil {
		log.Warn().Err(err).Msg("Initial MQTT connect failed, will retry from loop")
	}

	if err := c.relays.Apply(c.state.Config); err != nil {
		log.Error().Err(err).Msg("Failed to initialize relay outputs")
	}

	log.Info().
		Str("relay1", c.state.Config.Relay1.String()).
		Str("relay2", c.state.Config.Relay2.String()).
		Msg("Relay outputs initialized")

	c.PublishState(c.opts.Now())
}

// loadConfig erases the record only when it was read and carries an unknown
// marker. A read error leaves the media alone; the loop runs from the zero
// record until the first command saves a full one.
func (c *Controller) loadConfig() {
	rec, err := c.store.Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load config record, starting from zero record")
		datadog.Incr("storage.load_errors")
		c.state.Config = model.Record{}
		return
	}
	if rec.IsValid() {
		c.state.Config = rec
		log.Info().
			Str("relay1", rec.Relay1.String()).
			Str("relay2", rec.Relay2.String()).
			Msg("Loaded config record")
		return
	}

	log.Warn().Uint8("valid", rec.Valid).Msg("Config record not initialized, erasing")
	erased, eraseErr := c.store.Erase()
	if eraseErr != nil {
		log.Error().Err(eraseErr).Msg("Failed to erase config record")
		datadog.Incr("storage.erase_errors")
	}
	c.state.Config = erased
}

// Tick runs one loop iteration. Message handling inside the pump may take
// arbitrarily long; the periodic publish compares against the same now.
func (c *Controller) Tick(now time.Time) {
	c.network.PollReconnect(&c.state, now)
	c.session.PollReconnect(&c.state, now)
	c.session.Pump(c.processor.OnMessage)

	if now.Sub(c.state.LastStatePublish) > c.opts.StateInterval {
		c.PublishState(now)
		c.reportMetrics()
	}
}

// PublishState sends the snapshot and restarts the periodic publish timer.
func (c *Controller) PublishState(now time.Time) {
	c.processor.PublishState()
	c.state.LastStatePublish = now
}

// Run boots the device and then ticks until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	log.Info().Msg("Starting relay controller")
	c.Boot()

	for {
		c.Tick(c.opts.Now())

		select {
		case <-ctx.Done():
			log.Info().Msg("Relay controller stopping")
			return ctx.Err()
		case <-time.After(c.opts.TickIdle):
		}
	}
}

func (c *Controller) reportMetrics() {
	datadog.BoolGauge("network.up", c.state.LinkUp)
	datadog.BoolGauge("mqtt.up", c.state.SessionUp)
	for _, ch := range model.Channels {
		datadog.Gauge("relay.level", float64(c.state.Config.Level(ch)), "relay:"+ch.Name())
	}
}
