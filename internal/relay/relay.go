package relay

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/relay-controller/internal/datadog"
	"github.com/thatsimonsguy/relay-controller/internal/model"
	"github.com/thatsimonsguy/relay-controller/internal/notifications"
	"github.com/thatsimonsguy/relay-controller/internal/session"
)

// Outputs drives the physical relays.
type Outputs interface {
	Set(ch model.Channel, level model.Level) error
}

// Store persists the config record.
type Store interface {
	Save(rec *model.Record) error
}

// Publisher sends a payload without waiting for delivery.
type Publisher interface {
	Publish(topic string, payload []byte)
}

type command struct {
	channel model.Channel
	level   model.Level
}

// Processor applies inbound relay commands. It is the only writer of the
// relay levels in DeviceState.
type Processor struct {
	state     *model.DeviceState
	outputs   Outputs
	store     Store
	publisher Publisher
	topics    session.Topics
	commands  map[string]command

	// saveFailing is set from the first failed save until the next good one.
	saveFailing bool
}

// notify sends a push notification without blocking the loop. Swapped in tests.
var notify = func(title, message string) {
	if !notifications.Enabled() {
		return
	}
	go func() {
		if err := notifications.Send(title, message); err != nil {
			log.Warn().Err(err).Msg("Failed to send storage failure notification")
		}
	}()
}

func NewProcessor(st *model.DeviceState, outputs Outputs, store Store, publisher Publisher, topics session.Topics) *Processor {
	return &Processor{
		state:     st,
		outputs:   outputs,
		store:     store,
		publisher: publisher,
		topics:    topics,
		commands: map[string]command{
			topics.Relay1On:  {model.Relay1, model.On},
			topics.Relay1Off: {model.Relay1, model.Off},
			topics.Relay2On:  {model.Relay2, model.On},
			topics.Relay2Off: {model.Relay2, model.Off},
		},
	}
}

// OnMessage matches topic exactly against the relay commands. Whatever the
// topic, the record is then saved and the state published, in that order.
// That includes the state request topic and topics that match nothing.
func (p *Processor) OnMessage(topic string, payload []byte) {
	log.Debug().
		Str("topic", topic).
		Bytes("payload", payload).
		Msg("Incoming message")

	if cmd, ok := p.commands[topic]; ok {
		p.apply(cmd)
		datadog.Incr("commands", "command:"+cmd.channel.Name()+"_"+cmd.level.String())
	} else if topic == p.topics.StateRequest {
		datadog.Incr("commands", "command:state")
	} else {
		log.Debug().Str("topic", topic).Msg("Unrecognised topic, no relay change")
	}

	p.persist()
	p.PublishState()
}

// PublishState sends the current snapshot to the state topic.
func (p *Processor) PublishState() {
	p.publisher.Publish(p.topics.State, StatePayload(p.state.Config))
}

func (p *Processor) apply(cmd command) {
	p.state.Config.SetLevel(cmd.channel, cmd.level)

	if err := p.outputs.Set(cmd.channel, cmd.level); err != nil {
		log.Error().Err(err).Str("relay", cmd.channel.Name()).Msg("Failed to drive relay output")
		datadog.Incr("relay.output_errors", "relay:"+cmd.channel.Name())
	}

	log.Info().
		Str("relay", cmd.channel.Name()).
		Str("level", cmd.level.String()).
		Msg("Relay switched")
	datadog.Gauge("relay.level", float64(cmd.level), "relay:"+cmd.channel.Name())
}

// persist saves the record. A failure leaves the in-memory state as the only
// up-to-date copy, so it is reported loudly but does not stop processing. Only
// the first failure of a streak is pushed as a notification.
func (p *Processor) persist() {
	err := p.store.Save(&p.state.Config)
	if err == nil {
		if p.saveFailing {
			log.Info().Msg("Relay state persisted again after earlier failures")
		}
		p.saveFailing = false
		return
	}

	log.Error().Err(err).Msg("Failed to persist relay state, stored config is stale")
	datadog.Incr("storage.save_errors")

	if p.saveFailing {
		return
	}
	p.saveFailing = true
	notify("Relay controller storage failure", err.Error())
}

type statePayload struct {
	Relay1 string `json:"relay1"`
	Relay2 string `json:"relay2"`
}

// StatePayload renders rec as {"relay1":"on|off","relay2":"on|off"}.
func StatePayload(rec model.Record) []byte {
	b, _ := json.Marshal(statePayload{
		Relay1: rec.Relay1.String(),
		Relay2: rec.Relay2.String(),
	})
	return b
}
