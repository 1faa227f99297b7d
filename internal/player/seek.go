package player

import (
	"time"

	"github.com/dialtone/connectcore/internal/volume"
)

func volumeRampDown(atom *volume.Atom, from float64) {
	step, ok := atom.QuantStep()
	volume.Ramp(atom, from, 0, step, ok)
}

func volumeRampUp(atom *volume.Atom, to float64) {
	step, ok := atom.QuantStep()
	volume.Ramp(atom, 0, to, step, ok)
}

// SetProgress implements set_progress(p) (§4.2.5): clamp the requested
// fraction to what's known playable, fade volume to zero around the seek,
// and defer the seek if the track hasn't started downloading yet or the
// decoder can't seek right now.
func (p *Player) SetProgress(fraction float64) error {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	p.mu.Lock()
	if p.position >= len(p.tracks) {
		p.mu.Unlock()
		return nil
	}
	tr := p.tracks[p.position]
	target := time.Duration(fraction * float64(tr.Duration))

	if !tr.IsComplete() {
		buffered := tr.Buffered.Get()
		if target > buffered {
			target = buffered
		}
	}

	if tr.Download == nil || p.current == nil {
		if target != 0 {
			p.deferredSeek = &target
		}
		p.mu.Unlock()
		return nil
	}

	pipe := p.current.pipeline
	p.mu.Unlock()

	return p.seekWithFade(pipe, target)
}

// seekWithFade fades the shared volume atom to zero, performs the seek, and
// restores it. Any decoder-level seek failure (the underlying stream may
// simply not be seekable yet, or may never be, e.g. a livestream) is
// treated as "try again once more has downloaded" rather than a hard
// failure, matching the deferred-seek fallback of §4.2.5.
func (p *Player) seekWithFade(pipe *Pipeline, target time.Duration) error {
	from := p.VolumePercent()

	volumeRampDown(p.volAtom, from)
	err := pipe.Seek(target)
	volumeRampUp(p.volAtom, from)

	if err != nil {
		p.log.Warn().Err(err).Msg("player: seek failed, deferring")
		p.mu.Lock()
		p.deferredSeek = &target
		p.mu.Unlock()
		return nil
	}
	return nil
}

// applyDeferredSeekLocked runs a stored deferred seek once a pipeline has
// just been constructed for the current track (§4.2.5 "skipping zero").
func (p *Player) applyDeferredSeekLocked() {
	if p.deferredSeek == nil || p.current == nil {
		return
	}
	target := *p.deferredSeek
	p.deferredSeek = nil
	if target == 0 {
		return
	}
	_ = p.current.pipeline.Seek(target)
}
