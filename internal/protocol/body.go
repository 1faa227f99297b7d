package protocol

import (
	"encoding/json"
	"fmt"
)

// BodyKind discriminates the polymorphic message body carried by a Send or
// Receive Envelope (§4.1.4, §6.3).
type BodyKind string

const (
	BodyConnectionOffer  BodyKind = "connection_offer"
	BodyConnect          BodyKind = "connect"
	BodyDiscoveryRequest BodyKind = "discovery_request"
	BodyClose            BodyKind = "close"
	BodyPing             BodyKind = "ping"
	BodyReady            BodyKind = "ready"
	BodyStatus           BodyKind = "status"
	BodyAcknowledgement  BodyKind = "acknowledgement"
	BodySkip             BodyKind = "skip"
	BodyStop             BodyKind = "stop"
	BodyPlaybackProgress BodyKind = "playback_progress"
	BodyPublishQueue     BodyKind = "publish_queue"
	BodyRefreshQueue     BodyKind = "refresh_queue"
)

// DeviceType names the controllable-device kind reported in a
// ConnectionOffer (§4.1.2).
type DeviceType string

const (
	DeviceSpeaker DeviceType = "speaker"
	DeviceGeneric DeviceType = "generic"
)

// ConnectionOffer answers a DiscoveryRequest, or opens a connection from
// this device's side of the handshake (§4.1.2).
type ConnectionOffer struct {
	Type       BodyKind   `json:"type"`
	MessageID  string     `json:"message_id"`
	DeviceID   string     `json:"device_id"`
	DeviceName string     `json:"device_name"`
	DeviceType DeviceType `json:"device_type"`
}

// Connect is a controller's request to take over this device (§4.1.2).
type Connect struct {
	Type      BodyKind `json:"type"`
	MessageID string   `json:"message_id"`
}

// DiscoveryRequest asks every listening device to announce itself.
type DiscoveryRequest struct {
	Type      BodyKind `json:"type"`
	MessageID string   `json:"message_id"`
}

// Close ends a controller/device session (§4.1.9).
type Close struct {
	Type      BodyKind `json:"type"`
	MessageID string   `json:"message_id"`
}

// Ping requests an Acknowledgement in reply (§4.1.3 tx watchdog, §4.1.4).
type Ping struct {
	Type      BodyKind `json:"type"`
	MessageID string   `json:"message_id"`
}

// Ready is sent by this device after subscribing to RemoteQueue/
// RemoteCommand, to begin the Connecting phase (§4.1.2).
type Ready struct {
	Type      BodyKind `json:"type"`
	MessageID string   `json:"message_id"`
}

// StatusCode is the outcome reported in a Status or carried as the reply to
// a Skip/handshake Ready (§4.1.2, §4.1.6).
type StatusCode string

const (
	StatusOK    StatusCode = "OK"
	StatusError StatusCode = "ERROR"
)

// Status reports success or failure of the command named by CommandID
// (e.g. this device's own Ready message id during the handshake, §4.1.2,
// or a Skip's message id, §4.1.6 step 9).
type Status struct {
	Type      BodyKind   `json:"type"`
	MessageID string     `json:"message_id"`
	CommandID string     `json:"command_id"`
	Status    StatusCode `json:"status"`
}

// Acknowledgement confirms receipt of a command (§4.1.3 tx watchdog rearm,
// §4.1.4 Ping reply).
type Acknowledgement struct {
	Type              BodyKind `json:"type"`
	MessageID         string   `json:"message_id"`
	AcknowledgementID string   `json:"acknowledgement_id"`
}

// RepeatMode is the wire representation of the player's repeat behavior.
type RepeatMode string

const (
	RepeatModeNone RepeatMode = "none"
	RepeatModeAll  RepeatMode = "all"
	RepeatModeOne  RepeatMode = "one"
)

// QueueItemRef names a position/track pair a Skip targets (§4.1.6).
type QueueItemRef struct {
	Position int    `json:"position"`
	TrackID  string `json:"track_id"`
}

// Skip carries any subset of the fields below; absent optional fields are
// nil (§4.1.6).
type Skip struct {
	Type          BodyKind      `json:"type"`
	MessageID     string        `json:"message_id"`
	QueueID       *string       `json:"queue_id,omitempty"`
	Item          *QueueItemRef `json:"item,omitempty"`
	Progress      *float64      `json:"progress,omitempty"` // 0..1
	ShouldPlay    *bool         `json:"should_play,omitempty"`
	SetShuffle    *bool         `json:"set_shuffle,omitempty"`
	SetRepeatMode *RepeatMode   `json:"set_repeat_mode,omitempty"`
	SetVolume     *float64      `json:"set_volume,omitempty"` // 0..1
}

// Stop pauses the player (§4.1.4).
type Stop struct {
	Type      BodyKind `json:"type"`
	MessageID string   `json:"message_id"`
}

// PlaybackProgress is the periodic (and on-demand) state report of §4.1.8.
type PlaybackProgress struct {
	Type        BodyKind   `json:"type"`
	MessageID   string     `json:"message_id"`
	QueueID     string     `json:"queue_id"`
	TrackID     string     `json:"track_id"`
	Position    int        `json:"position"` // unshuffled (original) index
	Codec       string     `json:"codec"`
	BitrateKbps int        `json:"bitrate_kbps"`
	DurationMs  int64      `json:"duration_ms"`
	BufferedMs  int64      `json:"buffered_ms"`
	Progress    float64    `json:"progress"` // 0..1
	Volume      float64    `json:"volume"`   // 0..1, user-facing percentage
	Playing     bool       `json:"playing"`
	Shuffle     bool       `json:"shuffle"`
	RepeatMode  RepeatMode `json:"repeat_mode"`
}

// QueueTrackRef identifies one track within a PublishQueue, by the type
// that decides how the gateway must hydrate it (§4.1.5).
type QueueTrackRef struct {
	Type string `json:"type"` // "song" | "episode" | "livestream"
	ID   string `json:"id"`
}

// QueueContents is the queue body carried by PublishQueue/RefreshQueue
// (§4.1.5, §4.1.7).
type QueueContents struct {
	ID              string          `json:"queue_id"`
	Tracks          []QueueTrackRef `json:"tracks"`
	ContainerType   string          `json:"container_type,omitempty"` // "podcast" | "live_radio" | ""
	PersonalizedMix bool            `json:"personalized_mix,omitempty"`
}

// PublishQueue replaces the controller-published queue (§4.1.5).
type PublishQueue struct {
	Type      BodyKind      `json:"type"`
	MessageID string        `json:"message_id"`
	Queue     QueueContents `json:"queue"`
}

// RefreshQueue asks the controller to republish the queue under a new id
// (§4.1.4, §4.1.6 step 4).
type RefreshQueue struct {
	Type      BodyKind `json:"type"`
	MessageID string   `json:"message_id"`
}

type bodyPeek struct {
	Type BodyKind `json:"type"`
}

// DecodeBody inspects the "type" discriminator of a Send/Receive Envelope's
// Body and unmarshals it into the matching concrete struct, returned as
// interface{} for the caller to type-switch on.
func DecodeBody(raw json.RawMessage) (interface{}, error) {
	var peek bodyPeek
	if err := json.Unmarshal(raw, &peek); err != nil {
		return nil, fmt.Errorf("protocol: decode body kind: %w", err)
	}

	var out interface{}
	switch peek.Type {
	case BodyConnectionOffer:
		out = &ConnectionOffer{}
	case BodyConnect:
		out = &Connect{}
	case BodyDiscoveryRequest:
		out = &DiscoveryRequest{}
	case BodyClose:
		out = &Close{}
	case BodyPing:
		out = &Ping{}
	case BodyReady:
		out = &Ready{}
	case BodyStatus:
		out = &Status{}
	case BodyAcknowledgement:
		out = &Acknowledgement{}
	case BodySkip:
		out = &Skip{}
	case BodyStop:
		out = &Stop{}
	case BodyPlaybackProgress:
		out = &PlaybackProgress{}
	case BodyPublishQueue:
		out = &PublishQueue{}
	case BodyRefreshQueue:
		out = &RefreshQueue{}
	default:
		return nil, fmt.Errorf("protocol: unknown body type %q", peek.Type)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("protocol: decode body %q: %w", peek.Type, err)
	}
	return out, nil
}
