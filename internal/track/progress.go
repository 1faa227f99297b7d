package track

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dialtone/connectcore/internal/download"
	"github.com/dialtone/connectcore/pkg/model"
)

// prefetchSeconds mirrors download's PREFETCH_SECONDS (§4.4.5/§4.4.7): the
// position window subtracted from the naive buffered estimate so a seek
// can never land in bytes that are technically downloaded but would still
// block a read.
const prefetchSeconds = 3 * time.Second

// TrackDownload sets t.Download and starts watching buf's progress,
// updating t.Buffered on every reported state change until ctx is
// cancelled or the download finishes (§4.4.7).
func TrackDownload(ctx context.Context, log zerolog.Logger, t *model.Track, h *download.Handle) {
	t.Download = &model.DownloadHandle{
		Cancel: h.Cancel,
		Closer: h.Close,
	}

	go download.Watch(ctx, h.Buffer, PrefetchSize(t.BitrateKbps), func(phase download.Phase, position, fileSize int64) {
		switch phase {
		case download.PhaseComplete:
			t.Buffered.Set(t.Duration)
		case download.PhaseDownloading:
			if fileSize <= 0 || t.Duration <= 0 {
				return
			}
			frac := float64(position) / float64(fileSize)
			buffered := time.Duration(float64(t.Duration)*frac) - prefetchSeconds
			if buffered < 0 {
				buffered = 0
			}
			t.Buffered.Set(buffered)
		case download.PhaseFailed:
			log.Warn().Str("track", t.ID).Msg("track: download failed")
		}
	})
}

// ResetDownload clears a track's download state: performed when advancing
// past a finished track, reconstructing the queue, or reordering a track
// out of the current/next positions (§4.4.8).
func ResetDownload(t *model.Track) {
	if t.Download != nil && t.Download.Cancel != nil {
		t.Download.Cancel()
	}
	t.Download = nil
	t.FileSize = 0
	t.Buffered.Set(0)
}
