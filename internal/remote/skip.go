package remote

import (
	"github.com/google/uuid"

	"github.com/dialtone/connectcore/internal/protocol"
	"github.com/dialtone/connectcore/pkg/model"
)

func toModelRepeat(m protocol.RepeatMode) model.RepeatMode {
	switch m {
	case protocol.RepeatModeAll:
		return model.RepeatAll
	case protocol.RepeatModeOne:
		return model.RepeatOne
	default:
		return model.RepeatNone
	}
}

// handleSkip implements §4.1.6: a Skip carries any subset of its fields,
// each applied in a fixed order, finishing with a progress report and a
// Status reply.
func (e *Engine) handleSkip(s *protocol.Skip) error {
	if err := e.sendAcknowledgement(s.MessageID); err != nil {
		e.log.Warn().Err(err).Msg("remote: error acknowledging skip")
	}

	if s.Item != nil {
		if e.queue != nil && s.QueueID != nil && *s.QueueID == e.queue.ID {
			e.ply.SetPosition(e.queue.EffectivePosition(s.Item.Position))
		} else {
			pos := s.Item.Position
			e.deferredPosition = &pos
		}
	}

	if s.Progress != nil {
		if err := e.ply.SetProgress(*s.Progress); err != nil {
			e.log.Warn().Err(err).Msg("remote: error seeking")
		}
	}

	if s.SetShuffle != nil && e.queue != nil && *s.SetShuffle != e.queue.Shuffled {
		if err := e.applyShuffleChange(*s.SetShuffle); err != nil {
			e.log.Warn().Err(err).Msg("remote: error refreshing queue after shuffle")
		}
	}

	if s.SetRepeatMode != nil {
		e.ply.SetRepeatMode(toModelRepeat(*s.SetRepeatMode))
	}

	if s.SetVolume != nil {
		target := *s.SetVolume
		if e.initialVolState == initialVolumeActive && target >= 1 {
			target = e.initialVolPct
		} else {
			e.initialVolState = initialVolumeInactive
		}
		e.ply.SetVolume(target)
	}

	if s.ShouldPlay != nil {
		if *s.ShouldPlay {
			if err := e.ply.Play(); err != nil {
				e.log.Warn().Err(err).Msg("remote: error starting playback")
			}
		} else {
			e.ply.Pause()
		}
	}

	if err := e.reportProgress(); err != nil {
		e.log.Warn().Err(err).Msg("remote: error reporting progress")
	}

	status := protocol.StatusError
	if e.queue != nil && len(e.queue.Tracks) > 0 {
		status = protocol.StatusOK
	}
	return e.sendCommand(&protocol.Status{
		Type:      protocol.BodyStatus,
		MessageID: uuid.NewString(),
		CommandID: s.MessageID,
		Status:    status,
	})
}
