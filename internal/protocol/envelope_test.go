package protocol

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeMessageRoundTrip(t *testing.T) {
	ch := Channel{From: 1, To: 2, Event: EventRemoteCommand}
	ping := &Ping{Type: BodyPing, MessageID: "abc-123"}

	env, err := EncodeMessage(EnvelopeSend, ch, ping)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	if env.Channel != ch.String() {
		t.Fatalf("Channel = %q, want %q", env.Channel, ch.String())
	}

	body, err := DecodeBody(env.Body)
	if err != nil {
		t.Fatalf("DecodeBody: %v", err)
	}
	got, ok := body.(*Ping)
	if !ok {
		t.Fatalf("DecodeBody returned %T, want *Ping", body)
	}
	if got.MessageID != ping.MessageID {
		t.Fatalf("MessageID = %q, want %q", got.MessageID, ping.MessageID)
	}
}

func TestEncodeSubscriptionHasNoBody(t *testing.T) {
	ch := Channel{From: 1, To: 2, Event: EventRemoteQueue}
	env := EncodeSubscription(EnvelopeSubscribe, ch)
	if env.Kind != EnvelopeSubscribe {
		t.Fatalf("Kind = %v, want EnvelopeSubscribe", env.Kind)
	}
	if len(env.Body) != 0 {
		t.Fatalf("Body = %q, want empty", env.Body)
	}
}

func TestDecodeEnvelopeRejectsOversizedMessage(t *testing.T) {
	raw := bytes.Repeat([]byte("a"), MaxMessageBytes+1)
	if _, err := DecodeEnvelope(raw); err == nil {
		t.Fatal("expected an error for an oversized message")
	}
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	if _, err := DecodeEnvelope([]byte("not json")); err == nil {
		t.Fatal("expected an error decoding non-JSON")
	}
}

func TestEncodeStreamRoundTrip(t *testing.T) {
	ch := Channel{From: 1, To: 2, Event: EventStream}
	contents := StreamContents{Action: StreamActionPlay, Ident: StreamIdentLimitation, UserID: 1, UniqID: "u1", TrackID: "999"}

	env, err := EncodeStream(EnvelopeStreamSend, ch, contents)
	if err != nil {
		t.Fatalf("EncodeStream: %v", err)
	}
	if env.Kind != EnvelopeStreamSend {
		t.Fatalf("Kind = %v, want EnvelopeStreamSend", env.Kind)
	}
	if len(env.Body) == 0 {
		t.Fatal("expected a non-empty body")
	}
}
