package protocol

import (
	"encoding/json"
	"fmt"
)

// MaxMessageBytes is the inbound text-message size cap (§4.1.4, §6.3).
const MaxMessageBytes = 8 * 1024

// EnvelopeKind is the outer websocket frame variant (§6.3).
type EnvelopeKind string

const (
	EnvelopeSend          EnvelopeKind = "send"
	EnvelopeReceive       EnvelopeKind = "receive"
	EnvelopeSubscribe     EnvelopeKind = "subscribe"
	EnvelopeUnsubscribe   EnvelopeKind = "unsubscribe"
	EnvelopeStreamSend    EnvelopeKind = "stream_send"
	EnvelopeStreamReceive EnvelopeKind = "stream_receive"
)

// Envelope is the outer JSON frame exchanged over the websocket. Body holds
// a Message (Send/Receive) or StreamContents (StreamSend/StreamReceive);
// Subscribe/Unsubscribe carry no body.
type Envelope struct {
	Kind    EnvelopeKind    `json:"kind"`
	Channel string          `json:"channel"`
	Body    json.RawMessage `json:"body,omitempty"`
}

// EncodeMessage builds a Send/Receive Envelope wrapping a Message body.
func EncodeMessage(kind EnvelopeKind, ch Channel, msg interface{}) (Envelope, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return Envelope{}, fmt.Errorf("protocol: encode message: %w", err)
	}
	return Envelope{Kind: kind, Channel: ch.String(), Body: raw}, nil
}

// EncodeSubscription builds a Subscribe/Unsubscribe Envelope with no body.
func EncodeSubscription(kind EnvelopeKind, ch Channel) Envelope {
	return Envelope{Kind: kind, Channel: ch.String()}
}

// EncodeStream builds a StreamSend/StreamReceive Envelope wrapping
// StreamContents.
func EncodeStream(kind EnvelopeKind, ch Channel, contents StreamContents) (Envelope, error) {
	raw, err := json.Marshal(contents)
	if err != nil {
		return Envelope{}, fmt.Errorf("protocol: encode stream contents: %w", err)
	}
	return Envelope{Kind: kind, Channel: ch.String(), Body: raw}, nil
}

// DecodeEnvelope parses one inbound websocket text frame, rejecting
// anything over MaxMessageBytes before attempting to decode it (§4.1.4).
func DecodeEnvelope(raw []byte) (Envelope, error) {
	if len(raw) > MaxMessageBytes {
		return Envelope{}, fmt.Errorf("protocol: message of %d bytes exceeds %d byte cap", len(raw), MaxMessageBytes)
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("protocol: decode envelope: %w", err)
	}
	return env, nil
}
