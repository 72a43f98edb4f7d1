package model

import "time"

type Level uint8

const (
	Off Level = 0
	On  Level = 1
)

// IsOn only treats the exact On value as asserted. Raw bytes loaded from
// storage are not normalised, so anything else reads as off.
func (l Level) IsOn() bool {
	return l == On
}

func (l Level) String() string {
	if l.IsOn() {
		return "on"
	}
	return "off"
}

type Channel int

const (
	Relay1 Channel = 1
	Relay2 Channel = 2
)

var Channels = []Channel{Relay1, Relay2}

func (c Channel) Name() string {
	switch c {
	case Relay1:
		return "relay1"
	case Relay2:
		return "relay2"
	default:
		return "unknown"
	}
}

// ValidMarker is the sentinel stored in Record.Valid once a full record has been saved.
const ValidMarker uint8 = 1

// RecordSize is the packed on-media size of a Record: valid, relay1, relay2.
const RecordSize = 3

type Record struct {
	Valid  uint8
	Relay1 Level
	Relay2 Level
}

func (r Record) IsValid() bool {
	return r.Valid == ValidMarker
}

func (r Record) Level(ch Channel) Level {
	if ch == Relay2 {
		return r.Relay2
	}
	return r.Relay1
}

func (r *Record) SetLevel(ch Channel, l Level) {
	if ch == Relay2 {
		r.Relay2 = l
		return
	}
	r.Relay1 = l
}

// DeviceState is everything the control loop owns. It is passed by pointer to
// the supervisors and the command processor; nothing else holds device state.
type DeviceState struct {
	Config Record

	LinkUp    bool
	SessionUp bool

	LastLinkAttempt    time.Time
	LastSessionAttempt time.Time
	LastStatePublish   time.Time
}
