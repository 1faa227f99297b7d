package player

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dialtone/connectcore/pkg/model"
)

func newTestPlayer(t *testing.T) *Player {
	t.Helper()
	return New(zerolog.Nop(), &Device{}, nil)
}

func TestSetPositionNoOpWhenSameIndex(t *testing.T) {
	p := newTestPlayer(t)
	p.SetTracks([]*model.Track{{}, {}, {}}, 1)
	p.SetPosition(1)
	if p.Position() != 1 {
		t.Fatalf("Position() = %d, want 1 (no-op)", p.Position())
	}
}

func TestSetPositionUpdatesAndClearsLoaded(t *testing.T) {
	p := newTestPlayer(t)
	p.SetTracks([]*model.Track{{}, {}, {}}, 0)
	p.SetPosition(2)
	if p.Position() != 2 {
		t.Fatalf("Position() = %d, want 2", p.Position())
	}
	if p.current != nil || p.next != nil {
		t.Fatal("expected current and next to be cleared on position change")
	}
}

func TestSetRepeatModeDropsPreloadedNextOnRepeatOne(t *testing.T) {
	pipe := newTestPipeline(t, [][2]int16{{0, 0}})
	p := newTestPlayer(t)
	p.next = &loaded{pipeline: pipe, trackIdx: 1}

	p.SetRepeatMode(model.RepeatOne)

	if p.next != nil {
		t.Fatal("expected preloaded next to be dropped when switching to RepeatOne")
	}
}

func TestSetRepeatModeKeepsPreloadedNextForOtherModes(t *testing.T) {
	pipe := newTestPipeline(t, [][2]int16{{0, 0}})
	p := newTestPlayer(t)
	p.next = &loaded{pipeline: pipe, trackIdx: 1}
	defer pipe.Close()

	p.SetRepeatMode(model.RepeatAll)

	if p.next == nil {
		t.Fatal("expected preloaded next to survive a switch to RepeatAll")
	}
}

func TestPauseEmitsPauseEvent(t *testing.T) {
	p := newTestPlayer(t)
	p.Pause()

	select {
	case e := <-p.Events():
		if e != EventPause {
			t.Fatalf("got event %v, want EventPause", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Pause event")
	}
	if p.IsPlaying() {
		t.Fatal("IsPlaying() should be false after Pause")
	}
}

func TestNotifyConnectedAndDisconnectedEmitEvents(t *testing.T) {
	p := newTestPlayer(t)
	p.NotifyConnected()
	p.NotifyDisconnected()

	first := <-p.Events()
	second := <-p.Events()
	if first != EventConnected || second != EventDisconnected {
		t.Fatalf("got events %v, %v; want Connected, Disconnected", first, second)
	}
}

func TestShouldPreloadLockedFalseWhenNotComplete(t *testing.T) {
	p := newTestPlayer(t)
	tr := &model.Track{Duration: 10 * time.Second, HasDuration: true, BitrateKbps: 128}
	tr.Buffered.Set(5 * time.Second)
	p.tracks = []*model.Track{tr, {}}
	p.position = 0

	if p.shouldPreloadLocked() {
		t.Fatal("should not preload an incomplete track")
	}
}

func TestShouldPreloadLockedTrueNearEndOfCompleteTrack(t *testing.T) {
	p := newTestPlayer(t)
	tr := &model.Track{Duration: 10 * time.Second, HasDuration: true, BitrateKbps: 128}
	tr.Buffered.Set(10 * time.Second) // IsComplete once Buffered >= Duration
	p.tracks = []*model.Track{tr, {}}
	p.position = 0

	if !p.shouldPreloadLocked() {
		t.Fatal("expected preload once a complete track is past preload_start")
	}
}

func TestShouldPreloadLockedFalseInRepeatOne(t *testing.T) {
	p := newTestPlayer(t)
	p.repeat = model.RepeatOne
	tr := &model.Track{Duration: 10 * time.Second, HasDuration: true, BitrateKbps: 128}
	tr.Buffered.Set(10 * time.Second)
	p.tracks = []*model.Track{tr, {}}
	p.position = 0

	if p.shouldPreloadLocked() {
		t.Fatal("must never preload in RepeatOne")
	}
}

func TestShouldPreloadLockedFalseAtLastTrack(t *testing.T) {
	p := newTestPlayer(t)
	tr := &model.Track{Duration: 10 * time.Second, HasDuration: true, BitrateKbps: 128}
	tr.Buffered.Set(10 * time.Second)
	p.tracks = []*model.Track{tr}
	p.position = 0

	if p.shouldPreloadLocked() {
		t.Fatal("must not preload when there is no next track")
	}
}
