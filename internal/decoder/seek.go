package decoder

import (
	"math"
	"time"
)

// Seek moves playback to target, restoring channel phase afterward (§4.3.5).
// It converts the duration to the demuxer's sample-index time base, clamps
// to the known total if any, remembers the active channel, issues the
// underlying seek, resets decode state, then skips forward to correct for
// any residual gap between the requested timestamp and the frame boundary
// the demuxer actually landed on.
func (d *Decoder) Seek(target time.Duration) error {
	activeChannel := 0
	if d.channels > 0 {
		activeChannel = (d.bufPos) % d.channels
	}

	sampleRate := d.format.SampleRate
	targetFrame := sampleRate.N(target)
	if lower, upper := d.Len(); upper > 0 {
		maxFrame := upper / d.channels
		_ = lower
		if targetFrame >= maxFrame {
			targetFrame = maxFrame - 1
		}
	}
	if targetFrame < 0 {
		targetFrame = 0
	}

	if err := d.stream.Seek(targetFrame); err != nil {
		return err
	}

	// Reset decode state: sample buffer exhausted marker cleared, position
	// counters zeroed, skip counter reset.
	d.bufPos, d.bufLen = 0, 0
	d.exhausted = false
	d.consecutiveSkips = 0
	d.lastErr = nil

	// The demuxer landed on a frame boundary; compute the residual gap in
	// seconds between that boundary and the exact requested timestamp, and
	// skip forward the equivalent number of interleaved samples, aligned to
	// channel count, to compensate.
	landedDuration := sampleRate.D(targetFrame)
	gapSeconds := (target - landedDuration).Seconds()
	if gapSeconds > 0 {
		skipSamples := int(math.Ceil(gapSeconds*float64(sampleRate)*float64(d.channels)))
		skipSamples -= skipSamples % d.channels
		for i := 0; i < skipSamples; i++ {
			if _, ok := d.NextSample(); !ok {
				break
			}
		}
	}

	// Restore the remembered channel phase.
	for i := 0; i < activeChannel; i++ {
		if _, ok := d.NextSample(); !ok {
			break
		}
	}

	return nil
}
