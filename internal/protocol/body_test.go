package protocol

import (
	"encoding/json"
	"testing"
)

func TestDecodeBodySkipPreservesOptionalFields(t *testing.T) {
	queueID := "queue-1"
	progress := 0.5
	shouldPlay := true
	repeat := RepeatModeOne

	skip := &Skip{
		Type:          BodySkip,
		MessageID:     "m1",
		QueueID:       &queueID,
		Item:          &QueueItemRef{Position: 3, TrackID: "t1"},
		Progress:      &progress,
		ShouldPlay:    &shouldPlay,
		SetRepeatMode: &repeat,
	}
	raw, err := json.Marshal(skip)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	decoded, err := DecodeBody(raw)
	if err != nil {
		t.Fatalf("DecodeBody: %v", err)
	}
	got, ok := decoded.(*Skip)
	if !ok {
		t.Fatalf("DecodeBody returned %T, want *Skip", decoded)
	}
	if got.QueueID == nil || *got.QueueID != queueID {
		t.Fatalf("QueueID = %v, want %q", got.QueueID, queueID)
	}
	if got.Item == nil || got.Item.Position != 3 || got.Item.TrackID != "t1" {
		t.Fatalf("Item = %+v, want position=3 track_id=t1", got.Item)
	}
	if got.SetShuffle != nil {
		t.Fatalf("SetShuffle = %v, want nil (absent)", got.SetShuffle)
	}
	if got.SetRepeatMode == nil || *got.SetRepeatMode != RepeatModeOne {
		t.Fatalf("SetRepeatMode = %v, want one", got.SetRepeatMode)
	}
}

func TestDecodeBodyUnknownKindErrors(t *testing.T) {
	_, err := DecodeBody(json.RawMessage(`{"type":"not_a_real_kind"}`))
	if err == nil {
		t.Fatal("expected an error for an unknown body kind")
	}
}

func TestDecodeBodyPlaybackProgress(t *testing.T) {
	pp := &PlaybackProgress{
		Type:        BodyPlaybackProgress,
		MessageID:   "m2",
		QueueID:     "q1",
		TrackID:     "t1",
		Position:    4,
		Codec:       "flac",
		BitrateKbps: 1411,
		Progress:    0.25,
		Playing:     true,
		RepeatMode:  RepeatModeAll,
	}
	raw, err := json.Marshal(pp)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	decoded, err := DecodeBody(raw)
	if err != nil {
		t.Fatalf("DecodeBody: %v", err)
	}
	got, ok := decoded.(*PlaybackProgress)
	if !ok {
		t.Fatalf("DecodeBody returned %T, want *PlaybackProgress", decoded)
	}
	if got.Position != 4 || got.Codec != "flac" || !got.Playing {
		t.Fatalf("got %+v", got)
	}
}
