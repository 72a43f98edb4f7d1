// Package netlink keeps the wireless link up. The initial join is a bounded
// blocking wait; after that reconnects are requested at most once per
// interval and never waited on.
package netlink

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/relay-controller/internal/datadog"
	"github.com/thatsimonsguy/relay-controller/internal/model"
)

// Link is the wireless network stack.
type Link interface {
	Connect(ssid, password string) error
	Status() bool
	Disconnect() error
	Reconnect() error
	Address() string
}

var sleep = time.Sleep

type Supervisor struct {
	link     Link
	ssid     string
	password string
	attempts int
	interval time.Duration
}

func NewSupervisor(link Link, ssid, password string, attempts int, interval time.Duration) *Supervisor {
	return &Supervisor{
		link:     link,
		ssid:     ssid,
		password: password,
		attempts: attempts,
		interval: interval,
	}
}

// ConnectInitial starts the join and polls once a second for up to the
// configured number of attempts. It returns whether or not the link came up.
func (s *Supervisor) ConnectInitial(st *model.DeviceState, now time.Time) bool {
	log.Info().Str("ssid", s.ssid).Msg("Connecting to network")

	st.LastLinkAttempt = now
	if err := s.link.Connect(s.ssid, s.password); err != nil {
		log.Warn().Err(err).Str("ssid", s.ssid).Msg("Network join request failed")
	}

	for i := 1; i <= s.attempts; i++ {
		if s.link.Status() {
			break
		}
		sleep(time.Second)
		log.Debug().Int("attempt", i).Int("max_attempts", s.attempts).Msg("Waiting for network")
	}

	st.LinkUp = s.link.Status()
	if !st.LinkUp {
		log.Warn().
			Str("ssid", s.ssid).
			Int("attempts", s.attempts).
			Msg("Network not connected after initial attempts, continuing anyway")
		return false
	}

	log.Info().
		Str("ssid", s.ssid).
		Str("address", s.link.Address()).
		Msg("Network connected")
	return true
}

// PollReconnect requests a disconnect and reconnect when the link is down and
// the last attempt is at least one interval old. It reports whether it did.
func (s *Supervisor) PollReconnect(st *model.DeviceState, now time.Time) bool {
	st.LinkUp = s.link.Status()
	if st.LinkUp || now.Sub(st.LastLinkAttempt) < s.interval {
		return false
	}

	log.Info().Str("ssid", s.ssid).Msg("Reconnecting to network")
	datadog.Incr("network.reconnect_attempts")

	if err := s.link.Disconnect(); err != nil {
		log.Debug().Err(err).Msg("Network disconnect failed")
	}
	if err := s.link.Reconnect(); err != nil {
		log.Warn().Err(err).Msg("Network reconnect request failed")
	}
	st.LastLinkAttempt = now
	return true
}

func (s *Supervisor) Status() bool {
	return s.link.Status()
}
