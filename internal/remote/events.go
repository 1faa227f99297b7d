package remote

import (
	"context"
	"strconv"

	"github.com/dialtone/connectcore/internal/player"
)

// handlePlayerEvent relays the player's lifecycle events to the configured
// hook (§6.5) and, on Play, reports progress immediately rather than
// waiting for the next reporting tick.
func (e *Engine) handlePlayerEvent(ev player.Event) {
	switch ev {
	case player.EventPlay:
		e.hook.Invoke("playing", e.hookEnv())
		if e.isConnected() {
			if err := e.reportProgress(); err != nil {
				e.log.Warn().Err(err).Msg("remote: error reporting progress")
			}
		}
	case player.EventPause:
		e.hook.Invoke("paused", e.hookEnv())
	case player.EventTrackChanged:
		e.hook.Invoke("track_changed", e.hookEnv())
		if e.queue != nil && e.queue.IsPersonalizedRadio() {
			if err := e.extendQueue(context.Background(), false); err != nil {
				e.log.Warn().Err(err).Msg("remote: error extending personalized queue")
			}
		}
	case player.EventConnected:
		e.hook.Invoke("connected", e.hookEnv())
	case player.EventDisconnected:
		e.hook.Invoke("disconnected", e.hookEnv())
	}
}

// hookEnv builds the environment variable set passed to the hook script
// (§6.5); values are rendered as-is, shell-escaping is the launcher's job.
func (e *Engine) hookEnv() map[string]string {
	env := map[string]string{
		"USER_ID":   e.accountUserID.String(),
		"USER_NAME": e.userName,
	}
	tr := e.ply.CurrentTrack()
	if tr == nil {
		return env
	}
	env["TRACK_ID"] = tr.ID
	env["TITLE"] = tr.Title
	env["ARTIST"] = tr.Artist
	env["ALBUM_TITLE"] = tr.AlbumName
	env["ALBUM_COVER"] = tr.CoverID
	env["DURATION"] = strconv.FormatInt(tr.Duration.Milliseconds(), 10)
	return env
}
