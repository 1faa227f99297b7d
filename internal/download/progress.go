package download

import (
	"context"
	"time"
)

// Phase is the download lifecycle phase reported to a progress callback
// (§4.4.7). Prefetching (waiting for the initial prefetch window before
// playback starts) deliberately produces no position update since reads
// would block anyway.
type Phase int

const (
	PhasePrefetching Phase = iota
	PhaseDownloading
	PhaseComplete
	PhaseFailed
)

// ProgressFunc receives (phase, position, file_size) on each observed state
// change (§4.4.7). file_size is 0 when unknown.
type ProgressFunc func(phase Phase, position, fileSize int64)

const progressPollInterval = 100 * time.Millisecond

// Watch polls buf until ctx is cancelled or the download finishes,
// invoking fn whenever downloaded bytes, total size, or completion state
// changes. prefetchTarget is the byte position below which the phase is
// reported as Prefetching rather than Downloading.
func Watch(ctx context.Context, buf *Buffer, prefetchTarget int64, fn ProgressFunc) {
	var lastPos int64 = -1
	var lastPhase Phase = -1

	ticker := time.NewTicker(progressPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pos, size, _, done, err := buf.Snapshot()

		var phase Phase
		switch {
		case err != nil:
			phase = PhaseFailed
		case done:
			phase = PhaseComplete
		case pos < prefetchTarget:
			phase = PhasePrefetching
		default:
			phase = PhaseDownloading
		}

		if phase == lastPhase && pos == lastPos {
			continue
		}
		lastPhase, lastPos = phase, pos

		if phase == PhasePrefetching {
			continue
		}
		fn(phase, pos, size)

		if phase == PhaseComplete || phase == PhaseFailed {
			return
		}
	}
}
