package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dialtone/connectcore/internal/track"
	"github.com/dialtone/connectcore/internal/volume"
	"github.com/dialtone/connectcore/pkg/model"
)

// Event is emitted on an in-process channel, buffered to 64 events and
// consumed by the remote engine (§4.2.8); when the channel is full, emit
// drops the new event and logs a warning.
type Event int

const (
	EventPlay Event = iota
	EventPause
	EventTrackChanged
	EventConnected
	EventDisconnected
)

// pollPeriod is the run loop's cadence (§4.2.4).
const pollPeriod = 10 * time.Millisecond

// Loader produces a ready-to-play Pipeline for a track, running the full
// internal/track lifecycle (negotiate, open, infer format) first.
type Loader func(ctx context.Context, t *model.Track) (*Pipeline, error)

type loaded struct {
	pipeline *Pipeline
	trackIdx int
	done     bool // set once the pipeline reports exhaustion
}

// Player owns the output device, the currently (and next, preloaded)
// playing pipeline, and the run loop driving track advancement (§4.2).
type Player struct {
	log    zerolog.Logger
	device *Device
	loader Loader

	volAtom    *volume.Atom
	volPercent float64

	mu          sync.Mutex
	tracks      []*model.Track
	position    int
	unavailable map[int]bool
	repeat      model.RepeatMode
	playing     bool

	current *loaded
	next    *loaded

	deferredSeek *time.Duration

	events chan Event
	stopCh chan struct{}
}

// New builds a Player bound to an already-open output Device. The Loader
// is responsible for building each track's Pipeline (via NewPipeline),
// using VolumeAtom() as the shared amplitude source so volume ramps stay
// continuous across a track change.
func New(log zerolog.Logger, device *Device, loader Loader) *Player {
	p := &Player{
		log:         log,
		device:      device,
		loader:      loader,
		volAtom:     volume.NewAtom(),
		volPercent:  1,
		unavailable: make(map[int]bool),
		events:      make(chan Event, 64),
		stopCh:      make(chan struct{}),
	}
	device.SetPullFunc(p.pull)
	return p
}

// VolumeAtom returns the shared amplitude/quant-step atom every pipeline's
// dither sink must be built with.
func (p *Player) VolumeAtom() *volume.Atom { return p.volAtom }

// Events returns the channel player lifecycle events are emitted on
// (§4.2.8).
func (p *Player) Events() <-chan Event { return p.events }

func (p *Player) emit(e Event) {
	select {
	case p.events <- e:
	default:
		p.log.Warn().Int("event", int(e)).Msg("player: event channel full, dropping")
	}
}

// SetTracks replaces the player's own track list (already resolved to the
// internal/effective ordering by the caller via model.List.EffectivePosition,
// §4.2.7) and clears any preloaded/current pipeline.
func (p *Player) SetTracks(tracks []*model.Track, position int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLoadedLocked(p.current)
	p.closeLoadedLocked(p.next)
	p.current = nil
	p.next = nil
	p.tracks = tracks
	p.position = position
	p.unavailable = make(map[int]bool)
}

// Extend appends tracks to the player's list in place, leaving current and
// preloaded playback undisturbed (§4.1.7).
func (p *Player) Extend(tracks []*model.Track) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracks = append(p.tracks, tracks...)
}

func (p *Player) closeLoadedLocked(l *loaded) {
	if l == nil {
		return
	}
	if err := l.pipeline.Close(); err != nil {
		p.log.Warn().Err(err).Msg("player: error closing pipeline")
	}
}

// Run starts the ~10ms run loop (§4.2.4); it returns when ctx is cancelled
// or Stop is called.
func (p *Player) Run(ctx context.Context) {
	ticker := time.NewTicker(pollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case err := <-p.device.Errors():
			p.log.Error().Err(err).Msg("player: catastrophic device error")
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

// Stop ends the run loop.
func (p *Player) Stop() {
	close(p.stopCh)
}

func (p *Player) tick() {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.current != nil && p.current.done:
		p.advanceLocked()

	case p.repeat == model.RepeatOne && p.current != nil:
		lower, upper := p.current.pipeline.dec.Len()
		_ = lower
		remaining := p.remainingLocked(upper)
		if remaining < 2*pollPeriod {
			if err := p.current.pipeline.Seek(0); err != nil {
				p.closeLoadedLocked(p.current)
				p.current = nil
			}
		}

	case p.next == nil && p.current != nil && p.shouldPreloadLocked():
		p.preloadNextLocked()

	case p.current == nil:
		p.loadCurrentLocked()
	}
}

func (p *Player) remainingLocked(upperSamples int) time.Duration {
	if p.current == nil {
		return 0
	}
	sr := p.current.pipeline.SampleRate()
	ch := p.current.pipeline.Channels()
	if sr <= 0 || ch <= 0 {
		return 0
	}
	total := time.Duration(upperSamples/ch) * time.Second / time.Duration(sr)
	played := p.current.pipeline.Elapsed()
	if total > played {
		return total - played
	}
	return 0
}

// shouldPreloadLocked implements §4.2.3's preload check, skipping in
// RepeatOne: it compares the current track's Buffered value, not the
// playback position, against preload_start, so it holds as soon as the
// track is fully buffered.
func (p *Player) shouldPreloadLocked() bool {
	if p.repeat == model.RepeatOne {
		return false
	}
	if p.position+1 >= len(p.tracks) {
		return false
	}
	tr := p.tracks[p.position]
	if !tr.IsComplete() {
		return false
	}
	prefetch := track.PrefetchSize(tr.BitrateKbps)
	prefetchDur := time.Duration(0)
	if tr.BitrateKbps > 0 {
		prefetchDur = time.Duration(float64(prefetch)*8/float64(tr.BitrateKbps)/1000) * time.Second
	}
	preloadStart := tr.Duration - 2*prefetchDur
	return tr.Buffered.Get() >= preloadStart
}

func (p *Player) preloadNextLocked() {
	idx := p.position + 1
	if p.unavailable[idx] {
		return
	}
	ctx := context.Background()
	pipe, err := p.loader(ctx, p.tracks[idx])
	if err != nil {
		p.log.Warn().Err(err).Int("index", idx).Msg("player: preload failed, marking unavailable")
		p.unavailable[idx] = true
		return
	}
	p.next = &loaded{pipeline: pipe, trackIdx: idx}
}

func (p *Player) loadCurrentLocked() {
	if p.position >= len(p.tracks) {
		return
	}
	if p.unavailable[p.position] {
		return
	}
	ctx := context.Background()
	pipe, err := p.loader(ctx, p.tracks[p.position])
	if err != nil {
		p.log.Warn().Err(err).Int("index", p.position).Msg("player: load failed, marking unavailable")
		p.unavailable[p.position] = true
		return
	}
	p.current = &loaded{pipeline: pipe, trackIdx: p.position}
	p.applyDeferredSeekLocked()
}

// advanceLocked implements the "finished track" branch of the run loop
// (§4.2.4): advance position, reset the finished track's download handle,
// emit TrackChanged, and re-emit Play if playback is still active.
func (p *Player) advanceLocked() {
	track.ResetDownload(p.tracks[p.current.trackIdx])
	p.position++

	if p.next != nil && p.next.trackIdx == p.position {
		p.current = p.next
		p.next = nil
		p.applyDeferredSeekLocked()
	} else {
		p.closeLoadedLocked(p.current)
		p.current = nil
	}

	p.emit(EventTrackChanged)
	if p.playing {
		p.emit(EventPlay)
	}
}

// markCurrentDone is called by the pull callback when the active pipeline
// reports exhaustion, so the run loop can advance on its next tick.
func (p *Player) markCurrentDone() {
	p.mu.Lock()
	if p.current != nil {
		p.current.done = true
	}
	p.mu.Unlock()
}

// pull is the audio-thread callback PortAudio invokes; it must never
// block or take the player's lock for longer than a sample copy.
func (p *Player) pull(out [][]float32) {
	p.mu.Lock()
	cur := p.current
	playing := p.playing
	p.mu.Unlock()

	if cur == nil || cur.done || !playing {
		silence(out)
		return
	}

	frames := 0
	if len(out) > 0 {
		frames = len(out[0])
	}
	channels := len(out)
	mono := cur.pipeline.Channels() == 1

	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			if mono && ch > 0 {
				out[ch][i] = out[0][i]
				continue
			}
			s, ok := cur.pipeline.NextSample()
			if !ok {
				p.markCurrentDone()
				silenceFrom(out, i)
				return
			}
			out[ch][i] = s
		}
	}
}

func silence(out [][]float32) {
	for ch := range out {
		for i := range out[ch] {
			out[ch][i] = 0
		}
	}
}

func silenceFrom(out [][]float32, from int) {
	for ch := range out {
		for i := from; i < len(out[ch]); i++ {
			out[ch][i] = 0
		}
	}
}

// Play starts or resumes playback, emitting Play (§4.2.8).
func (p *Player) Play() error {
	p.mu.Lock()
	p.playing = true
	p.mu.Unlock()
	if err := p.device.Start(); err != nil {
		return fmt.Errorf("player: start device: %w", err)
	}
	p.emit(EventPlay)
	return nil
}

// Pause stops the audio thread from advancing, emitting Pause.
func (p *Player) Pause() {
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
	p.emit(EventPause)
}

// NotifyConnected/NotifyDisconnected let the remote engine report controller
// connect state onto the same event stream the run loop uses (§4.1.9,
// §4.2.8); the player itself never originates these two events.
func (p *Player) NotifyConnected()    { p.emit(EventConnected) }
func (p *Player) NotifyDisconnected() { p.emit(EventDisconnected) }

// IsPlaying reports whether playback is active.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// SetRepeatMode sets the repeat mode; switching to RepeatOne drops any
// preloaded track (§4.1.6 step 5).
func (p *Player) SetRepeatMode(mode model.RepeatMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.repeat = mode
	if mode == model.RepeatOne && p.next != nil {
		p.closeLoadedLocked(p.next)
		p.next = nil
	}
}

// CurrentTrack returns the track at the player's current position, or nil
// if nothing is loaded.
func (p *Player) CurrentTrack() *model.Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.position >= len(p.tracks) {
		return nil
	}
	return p.tracks[p.position]
}

// RepeatMode returns the player's current repeat behavior.
func (p *Player) RepeatMode() model.RepeatMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.repeat
}

// Position returns the player's internal (unshuffled-view-independent)
// track-list index.
func (p *Player) Position() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

// SetVolume ramps the shared amplitude atom from the current percentage to
// target over 50ms (§4.2.6). The target dither quantization step and the
// equal-loudness filter's coefficients are recomputed from the currently
// loaded pipeline before ramping, so the quant step published alongside the
// new amplitude reflects target rather than the stale step of whatever
// volume was last set (§4.7, §4.8). Runs synchronously; call from a
// goroutine if the caller can't block for ~50ms.
func (p *Player) SetVolume(target float64) {
	p.mu.Lock()
	from := p.volPercent
	p.volPercent = target
	var quantStep float64
	var quantStepOK bool
	if p.current != nil {
		quantStep, quantStepOK = p.current.pipeline.SetVolume(target)
	}
	p.mu.Unlock()

	volume.Ramp(p.volAtom, from, target, quantStep, quantStepOK)
}

// Progress returns the current track's playback fraction in [0,1], or 0 if
// nothing is loaded or its duration is unknown (§4.1.8).
func (p *Player) Progress() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || p.position >= len(p.tracks) {
		return 0
	}
	tr := p.tracks[p.position]
	if !tr.HasDuration || tr.Duration <= 0 {
		return 0
	}
	frac := float64(p.current.pipeline.Elapsed()) / float64(tr.Duration)
	if frac < 0 {
		return 0
	}
	if frac > 1 {
		return 1
	}
	return frac
}

// VolumePercent returns the last user-facing volume percentage set.
func (p *Player) VolumePercent() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volPercent
}

// SetPosition jumps to effectivePos, the already-mapped internal index
// (§4.2.7: callers pass list.EffectivePosition(p), not the raw shuffled
// index). Setting to the current position is a no-op to avoid interrupting
// an in-flight seek.
func (p *Player) SetPosition(effectivePos int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if effectivePos == p.position {
		return
	}
	p.closeLoadedLocked(p.current)
	p.closeLoadedLocked(p.next)
	p.current = nil
	p.next = nil
	p.position = effectivePos
}
