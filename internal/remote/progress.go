package remote

import (
	"github.com/google/uuid"

	"github.com/dialtone/connectcore/internal/protocol"
	"github.com/dialtone/connectcore/pkg/model"
)

func toWireRepeat(m model.RepeatMode) protocol.RepeatMode {
	switch m {
	case model.RepeatAll:
		return protocol.RepeatModeAll
	case model.RepeatOne:
		return protocol.RepeatModeOne
	default:
		return protocol.RepeatModeNone
	}
}

// reportProgress composes and sends a PlaybackProgress message (§4.1.8).
// The reporting timer is rearmed unconditionally, on both success and
// failure, since a send error says nothing about whether the controller is
// still listening.
func (e *Engine) reportProgress() error {
	defer func() {
		if e.reportingTimer != nil {
			if !e.reportingTimer.Stop() {
				select {
				case <-e.reportingTimer.C:
				default:
				}
			}
			e.reportingTimer.Reset(reportingInterval)
		}
	}()

	tr := e.ply.CurrentTrack()
	if tr == nil {
		return nil
	}

	queueID := ""
	position := e.ply.Position()
	shuffle := false
	if e.queue != nil {
		queueID = e.queue.ID
		shuffle = e.queue.Shuffled
		position = e.queue.OriginalIndexOf(position)
	}

	body := &protocol.PlaybackProgress{
		Type:        protocol.BodyPlaybackProgress,
		MessageID:   uuid.NewString(),
		QueueID:     queueID,
		TrackID:     tr.ID,
		Position:    position,
		Codec:       tr.Codec.String(),
		BitrateKbps: tr.BitrateKbps,
		DurationMs:  tr.Duration.Milliseconds(),
		BufferedMs:  tr.Buffered.Get().Milliseconds(),
		Progress:    e.ply.Progress(),
		Volume:      e.ply.VolumePercent(),
		Playing:     e.ply.IsPlaying(),
		Shuffle:     shuffle,
		RepeatMode:  toWireRepeat(e.ply.RepeatMode()),
	}
	return e.sendCommand(body)
}
