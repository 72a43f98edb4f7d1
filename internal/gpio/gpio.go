package gpio

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/relay-controller/internal/model"
)

// Driver sets the electrical level of a GPIO line.
type Driver interface {
	Drive(pin int, high bool) error
	Close() error
}

// Relays maps relay channels onto driver pins.
type Relays struct {
	driver     Driver
	pins       map[model.Channel]int
	activeHigh bool
	safeMode   bool
}

func NewRelays(driver Driver, relay1Pin, relay2Pin int, activeHigh, safeMode bool) *Relays {
	return &Relays{
		driver: driver,
		pins: map[model.Channel]int{
			model.Relay1: relay1Pin,
			model.Relay2: relay2Pin,
		},
		activeHigh: activeHigh,
		safeMode:   safeMode,
	}
}

// Set drives the channel's relay to level. In safe mode nothing is driven.
func (r *Relays) Set(ch model.Channel, level model.Level) error {
	pin, ok := r.pins[ch]
	if !ok {
		return fmt.Errorf("no pin for channel %d", ch)
	}

	if r.safeMode {
		log.Debug().
			Str("relay", ch.Name()).
			Int("pin", pin).
			Str("level", level.String()).
			Msg("Safe mode, relay output not driven")
		return nil
	}

	high := level.IsOn() == r.activeHigh
	if err := r.driver.Drive(pin, high); err != nil {
		return fmt.Errorf("failed to drive %s (GPIO %d): %w", ch.Name(), pin, err)
	}
	return nil
}

// Apply drives both relays from a record.
func (r *Relays) Apply(rec model.Record) error {
	for _, ch := range model.Channels {
		if err := r.Set(ch, rec.Level(ch)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Relays) Close() error {
	return r.driver.Close()
}
