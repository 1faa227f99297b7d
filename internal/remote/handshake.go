package remote

import (
	"context"

	"github.com/google/uuid"

	"github.com/dialtone/connectcore/internal/protocol"
	"github.com/dialtone/connectcore/pkg/model"
)

// handleEnvelope implements the inbound half of §4.1.4: reject own echoes
// and messages addressed elsewhere (unless eavesdropping), then dispatch by
// body kind.
func (e *Engine) handleEnvelope(env protocol.Envelope) {
	ch, err := protocol.ParseChannel(env.Channel)
	if err != nil {
		e.log.Warn().Err(err).Str("channel", env.Channel).Msg("remote: malformed channel, ignoring")
		return
	}

	// Controller and device share one account id, so from/to can't
	// distinguish "our own echo" the way a per-device id would; instead
	// each handler below matches its own outstanding message/command id
	// (handleStatus's ready_id, handleSkip's command_id) to ignore replies
	// to someone else's request.
	forAnother := ch.To != protocol.UserID(protocol.UnspecifiedUser) && ch.To != e.accountUserID
	if forAnother && !e.cfg.Eavesdrop {
		return
	}
	if e.cfg.Eavesdrop && forAnother {
		e.log.Trace().Str("channel", env.Channel).Msg("remote: eavesdropped message")
		return
	}

	if ch.Event == protocol.EventStream {
		return // reporting-only, or eavesdrop diagnostics already logged above
	}

	body, err := protocol.DecodeBody(env.Body)
	if err != nil {
		e.log.Warn().Err(err).Msg("remote: error parsing message body")
		return
	}

	if err := e.dispatch(ch.From, body); err != nil {
		e.log.Warn().Err(err).Msg("remote: error handling message")
	}
}

func (e *Engine) dispatch(from protocol.UserID, body interface{}) error {
	switch b := body.(type) {
	case *protocol.DiscoveryRequest:
		return e.handleDiscoveryRequest(from)
	case *protocol.Connect:
		return e.handleConnect(from)
	case *protocol.Status:
		return e.handleStatus(from, b)
	case *protocol.Close:
		return e.handleClose()
	case *protocol.Ping:
		return e.sendAcknowledgement(b.MessageID)
	case *protocol.PublishQueue:
		return e.handlePublishQueue(&b.Queue)
	case *protocol.RefreshQueue:
		return e.handleRefreshQueue()
	case *protocol.Skip:
		return e.handleSkip(b)
	case *protocol.Stop:
		e.ply.Pause()
		return nil
	case *protocol.Acknowledgement:
		return nil
	default:
		// ConnectionOffer, PlaybackProgress, Ready: messages meant for a
		// controller, not us.
		return nil
	}
}

// handleDiscoveryRequest answers every discovery request with our device's
// offer; stateless and idempotent, matching controllers' ~2s retry cadence
// (§4.1.2).
func (e *Engine) handleDiscoveryRequest(from protocol.UserID) error {
	offer := &protocol.ConnectionOffer{
		Type:       protocol.BodyConnectionOffer,
		MessageID:  uuid.NewString(),
		DeviceID:   e.cfg.DeviceID,
		DeviceName: e.cfg.DeviceName,
		DeviceType: e.cfg.DeviceType,
	}
	return e.sendDiscover(offer)
}

// handleConnect implements §4.1.2's connection request branch: refuse new
// controllers while Taken, subscribe RemoteQueue then RemoteCommand rolling
// back on partial failure, and send Ready to begin the handshake.
func (e *Engine) handleConnect(from protocol.UserID) error {
	if e.session.Discovery.Phase == model.DiscoveryTaken {
		e.log.Debug().Int64("from", int64(from)).Msg("remote: not allowing interruptions")
		return nil
	}

	if err := e.subscribe(protocol.EventRemoteQueue); err != nil {
		return err
	}
	if err := e.subscribe(protocol.EventRemoteCommand); err != nil {
		_ = e.unsubscribe(protocol.EventRemoteQueue)
		return err
	}

	messageID := uuid.NewString()
	ready := &protocol.Ready{Type: protocol.BodyReady, MessageID: messageID}
	if err := e.sendCommand(ready); err != nil {
		return err
	}

	e.session.Discovery = model.DiscoveryState{
		Phase:      model.DiscoveryConnecting,
		Controller: from.String(),
		ReadyID:    messageID,
	}
	return nil
}

// handleStatus drives the handshake to completion on Status(OK) for the
// outstanding ready_id, or ignores everything else (§4.1.2).
func (e *Engine) handleStatus(from protocol.UserID, s *protocol.Status) error {
	if e.session.Discovery.Phase != model.DiscoveryConnecting {
		return nil
	}
	if from.String() != e.session.Discovery.Controller || s.CommandID != e.session.Discovery.ReadyID {
		return nil
	}
	if s.Status != protocol.StatusOK {
		return nil
	}

	if e.isConnected() {
		_ = e.sendClose()
	}

	if e.cfg.Interruptions {
		e.session.Discovery.Phase = model.DiscoveryAvailable
	} else {
		e.session.Discovery.Phase = model.DiscoveryTaken
	}
	e.session.Connection = model.ConnectionState{
		Phase:       model.ConnConnected,
		Controller:  from.String(),
		SessionUUID: uuid.NewString(),
	}

	e.log.Info().Str("controller", from.String()).Msg("remote: connected")
	e.ply.NotifyConnected()

	ctx, cancel := context.WithTimeout(context.Background(), networkTimeout)
	defer cancel()
	if err := e.bootstrap(ctx); err != nil {
		return err
	}

	if e.initialVolState == initialVolumeActive {
		e.log.Debug().Float64("volume", e.initialVolPct).Msg("remote: applying initial volume")
		e.ply.SetVolume(e.initialVolPct)
	}

	return nil
}

// controller returns the currently (or mid-handshake) connected
// controller's id, empty if none.
func (e *Engine) controller() string {
	if e.session.Connection.Phase == model.ConnConnected {
		return e.session.Connection.Controller
	}
	if e.session.Discovery.Phase == model.DiscoveryConnecting {
		return e.session.Discovery.Controller
	}
	return ""
}

func (e *Engine) sendClose() error {
	c := e.controller()
	if c == "" {
		return nil
	}
	return e.sendCommand(&protocol.Close{Type: protocol.BodyClose, MessageID: uuid.NewString()})
}

func (e *Engine) sendPing() error {
	if e.controller() == "" {
		return nil
	}
	return e.sendCommand(&protocol.Ping{Type: protocol.BodyPing, MessageID: uuid.NewString()})
}

func (e *Engine) sendAcknowledgement(pingID string) error {
	if e.controller() == "" {
		return nil
	}
	return e.sendCommand(&protocol.Acknowledgement{
		Type:              protocol.BodyAcknowledgement,
		MessageID:         uuid.NewString(),
		AcknowledgementID: pingID,
	})
}

// handleClose implements the controller-initiated half of §4.1.9.
func (e *Engine) handleClose() error {
	if e.controller() == "" {
		return nil
	}
	_ = e.unsubscribe(protocol.EventRemoteQueue)
	_ = e.unsubscribe(protocol.EventRemoteCommand)
	e.resetStates()
	return nil
}

// disconnect is the rx-watchdog-initiated half of §4.1.9.
func (e *Engine) disconnect() {
	_ = e.unsubscribe(protocol.EventRemoteQueue)
	_ = e.unsubscribe(protocol.EventRemoteCommand)
	e.resetStates()
}

// resetStates implements §4.1.9: pause the player (the output device stays
// open), reactivate initial-volume, flush the cached user token so the
// next connection reloads it, and return to Available/Disconnected.
func (e *Engine) resetStates() {
	if e.controller() != "" {
		e.log.Info().Str("controller", e.controller()).Msg("remote: disconnected")
		e.ply.NotifyDisconnected()
	}

	e.ply.Pause()

	if e.initialVolState == initialVolumeInactive {
		e.initialVolState = initialVolumeActive
	}

	e.userToken = "" // force a reload of the user token on the next connection

	e.session.Reset()
	e.queue = nil
	e.deferredPosition = nil
}
