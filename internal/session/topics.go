package session

const (
	SuffixRelay1On     = "cmd/relay1/on"
	SuffixRelay1Off    = "cmd/relay1/off"
	SuffixRelay2On     = "cmd/relay2/on"
	SuffixRelay2Off    = "cmd/relay2/off"
	SuffixStateRequest = "cmd/state"
	SuffixState        = "state"
)

// TopicFor prefixes suffix with the device's client id.
func TopicFor(clientID, suffix string) string {
	return clientID + "/" + suffix
}

// Topics is the fixed topic surface of one device.
type Topics struct {
	Relay1On     string
	Relay1Off    string
	Relay2On     string
	Relay2Off    string
	StateRequest string
	State        string
}

func NewTopics(clientID string) Topics {
	return Topics{
		Relay1On:     TopicFor(clientID, SuffixRelay1On),
		Relay1Off:    TopicFor(clientID, SuffixRelay1Off),
		Relay2On:     TopicFor(clientID, SuffixRelay2On),
		Relay2Off:    TopicFor(clientID, SuffixRelay2Off),
		StateRequest: TopicFor(clientID, SuffixStateRequest),
		State:        TopicFor(clientID, SuffixState),
	}
}

// Subscriptions lists the command topics in the order they are subscribed.
func (t Topics) Subscriptions() []string {
	return []string{t.Relay1On, t.Relay1Off, t.Relay2On, t.Relay2Off, t.StateRequest}
}
