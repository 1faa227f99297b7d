package track

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dialtone/connectcore/internal/download"
	"github.com/dialtone/connectcore/internal/gateway"
	"github.com/dialtone/connectcore/pkg/model"
)

// Open runs a track through its full pre-playback lifecycle: negotiate a
// medium, activate the fallback identity if that's what was returned, open
// the winning source, infer its format parameters, and start the progress
// watcher that keeps t.Buffered current (§4.4.1-§4.4.7). It returns the
// download handle so the caller can build a decoder atop its buffer.
func Open(ctx context.Context, log zerolog.Logger, media *gateway.MediaClient, mgr *download.Manager, licenseToken string, t *model.Track, requested model.Quality, isUserUpload bool) (*download.Handle, error) {
	n, err := Negotiate(ctx, media, licenseToken, t, requested)
	if err != nil {
		return nil, err
	}

	if n.IsFallback {
		log.Warn().Str("track", t.ID).Msg("track: primary medium unavailable, activating fallback")
		t.ActivateFallback()
	}

	prefetch := PrefetchSize(t.BitrateKbps)
	isLivestream := t.Type == model.Livestream

	h, err := OpenStream(ctx, log, mgr, n.Medium, isLivestream, prefetch)
	if err != nil {
		return nil, err
	}

	_, fileSize, hasSize, _, _ := h.Buffer.Snapshot()
	if !hasSize {
		fileSize = 0
	}
	InferFormat(t, n, requested, isUserUpload, fileSize)
	t.FileSize = fileSize

	TrackDownload(ctx, log, t, h)
	return h, nil
}
