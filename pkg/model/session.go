package model

// DiscoveryPhase is the discovery half of session state (§3 Session).
type DiscoveryPhase int

const (
	DiscoveryAvailable DiscoveryPhase = iota
	DiscoveryConnecting
	DiscoveryTaken
)

// ConnectionPhase is the connection half of session state.
type ConnectionPhase int

const (
	ConnDisconnected ConnectionPhase = iota
	ConnConnected
)

// RepeatMode is the player's repeat behavior.
type RepeatMode int

const (
	RepeatNone RepeatMode = iota
	RepeatAll
	RepeatOne
)

// DiscoveryState tracks whether this device is available for a new
// connection, mid-handshake with a specific controller, or already taken.
type DiscoveryState struct {
	Phase      DiscoveryPhase
	Controller string // set when Phase != Available
	ReadyID    string // set when Phase == Connecting: the Ready message id
}

// ConnectionState tracks the active controller connection, if any.
type ConnectionState struct {
	Phase         ConnectionPhase
	Controller    string
	SessionUUID   string
}

// Session is the protocol engine's connection/discovery/subscription state
// (§3 Session). The invariant `Connected => DiscoveryState in {Available,
// Taken}` and "Taken blocks new connections when interruptions disabled"
// are enforced by the engine, not by this struct.
type Session struct {
	Discovery   DiscoveryState
	Connection  ConnectionState
	Subscribed  map[string]bool // channel key -> subscribed
}

func NewSession() *Session {
	return &Session{Subscribed: make(map[string]bool)}
}

func (s *Session) IsConnected() bool { return s.Connection.Phase == ConnConnected }

func (s *Session) Subscribe(channel string)   { s.Subscribed[channel] = true }
func (s *Session) Unsubscribe(channel string) { delete(s.Subscribed, channel) }
func (s *Session) IsSubscribed(channel string) bool { return s.Subscribed[channel] }

// Reset returns the session to Available/Disconnected with no subscriptions,
// as happens on disconnect (§4.1.9).
func (s *Session) Reset() {
	s.Discovery = DiscoveryState{Phase: DiscoveryAvailable}
	s.Connection = ConnectionState{Phase: ConnDisconnected}
	s.Subscribed = make(map[string]bool)
}
