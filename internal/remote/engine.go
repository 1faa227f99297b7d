package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dialtone/connectcore/internal/decoder"
	"github.com/dialtone/connectcore/internal/decrypt"
	"github.com/dialtone/connectcore/internal/download"
	"github.com/dialtone/connectcore/internal/gateway"
	"github.com/dialtone/connectcore/internal/player"
	"github.com/dialtone/connectcore/internal/protocol"
	"github.com/dialtone/connectcore/internal/track"
	"github.com/dialtone/connectcore/pkg/model"
)

const (
	networkTimeout       = 2 * time.Second
	tokenExpiryThreshold = 60 * time.Second
	reportingInterval    = 3 * time.Second
	watchdogRxTimeout    = 10 * time.Second
	watchdogTxTimeout    = 5 * time.Second

	websocketHost = "wss://live.deezer.com/ws/"
)

type initialVolumeState int

const (
	initialVolumeDisabled initialVolumeState = iota
	initialVolumeActive
	initialVolumeInactive
)

// Engine drives one Connect websocket session end to end: discovery,
// handshake, queue sync, skip/seek/volume/shuffle/repeat commands, progress
// reporting, and the watchdogs that tear the session down on silence
// (§4.1).
type Engine struct {
	log   zerolog.Logger
	cfg   Config
	gw    *gateway.Client
	media *gateway.MediaClient
	dl    *download.Manager
	ply   *player.Player
	hook  Hook

	conn *protocol.Conn

	accountUserID protocol.UserID
	userName      string

	session   *model.Session
	queue     *model.List
	trackByID map[string]*model.Track

	deferredPosition *int

	initialVolState initialVolumeState
	initialVolPct   float64

	licenseToken string
	mediaBaseURL string
	audioQuality model.Quality
	gainTargetDB float64

	userToken string
	tokenTTL  time.Duration

	reportingTimer *time.Timer
}

// New builds an Engine bound to its gateway/download collaborators. The
// player is supplied afterward via SetPlayer, since building the player
// requires a Loader this Engine provides (NewLoader) — a chicken-and-egg
// the caller breaks by constructing the Engine first.
func New(log zerolog.Logger, cfg Config, gw *gateway.Client, media *gateway.MediaClient, dl *download.Manager, hook Hook) *Engine {
	if hook == nil {
		hook = noopHook{}
	}

	e := &Engine{
		log:     log,
		cfg:     cfg,
		gw:      gw,
		media:   media,
		dl:      dl,
		hook:    hook,
		session: model.NewSession(),
	}
	if cfg.InitialVolume != nil {
		e.initialVolState = initialVolumeActive
		e.initialVolPct = *cfg.InitialVolume
	}
	return e
}

// SetPlayer attaches the player this Engine will drive; must be called
// before Run.
func (e *Engine) SetPlayer(ply *player.Player) { e.ply = ply }

// parseAudioQuality maps Deezer's AUDIO_QUALITY_PREFERENCE string onto the
// domain Quality enum, defaulting to Standard for unrecognized values.
func parseAudioQuality(s string) model.Quality {
	switch strings.ToUpper(s) {
	case "LOSSLESS", "FLAC":
		return model.QualityLossless
	case "HIGH", "HQ":
		return model.QualityHigh
	case "STANDARD", "MQ":
		return model.QualityStandard
	case "LOW", "BASIC", "LQ":
		return model.QualityBasic
	default:
		return model.QualityStandard
	}
}

// bootstrap runs §4.1.1 step 1: load user data (license token, media base
// URL, quality/gain preferences, websocket user_token + its lifetime).
func (e *Engine) bootstrap(ctx context.Context) error {
	ud, err := e.gw.GetUserData(ctx)
	if err != nil {
		return fmt.Errorf("remote: bootstrap: %w", err)
	}
	uid, err := protocol.ParseUserID(ud.UserID)
	if err != nil {
		return fmt.Errorf("remote: bootstrap: parse user id %q: %w", ud.UserID, err)
	}

	e.accountUserID = uid
	e.userName = ud.UserName
	e.licenseToken = ud.LicenseToken
	e.mediaBaseURL = ud.MediaBaseURL
	e.media.SetBaseURL(ud.MediaBaseURL)
	e.audioQuality = parseAudioQuality(ud.AudioQuality)
	e.gainTargetDB = ud.GainTargetDB
	e.userToken = ud.UserToken

	ttl := time.Duration(ud.TokenExpiresAt) * time.Second
	if ttl <= tokenExpiryThreshold {
		ttl = tokenExpiryThreshold
	}
	e.tokenTTL = ttl - tokenExpiryThreshold
	return nil
}

// Run opens the websocket, subscribes the device-level channels, and
// multiplexes watchdogs, the reporting timer, the token-expiry timer,
// inbound messages, and player events until a fatal condition occurs or ctx
// is cancelled (§4.1.1, §4.1.3, §4.1.9).
func (e *Engine) Run(ctx context.Context) error {
	if err := e.bootstrap(ctx); err != nil {
		return err
	}

	url := fmt.Sprintf("%s%s?version=%s", websocketHost, e.userToken, EncodeClientVersion(e.cfg.AppVersion))
	header := http.Header{}
	if cookie := e.gw.CookieHeader(); cookie != "" {
		header.Set("Cookie", cookie)
	}

	conn, err := protocol.Dial(ctx, url, header)
	if err != nil {
		return fmt.Errorf("remote: dial: %w", err)
	}
	e.conn = conn
	defer e.conn.Close()

	if err := e.subscribe(protocol.EventStream); err != nil {
		return fmt.Errorf("remote: subscribe stream: %w", err)
	}
	if err := e.subscribe(protocol.EventRemoteDiscover); err != nil {
		return fmt.Errorf("remote: subscribe discover: %w", err)
	}

	e.log.Info().Msg("remote: ready for discovery")

	rxCh := make(chan protocol.Envelope, 16)
	rxErrCh := make(chan error, 1)
	go e.readLoop(rxCh, rxErrCh)

	watchdogRx := time.NewTimer(watchdogRxTimeout)
	watchdogTx := time.NewTimer(watchdogTxTimeout)
	reporting := time.NewTimer(reportingInterval)
	tokenExpiry := time.NewTimer(e.tokenTTL)
	e.reportingTimer = reporting
	defer watchdogRx.Stop()
	defer watchdogTx.Stop()
	defer reporting.Stop()
	defer tokenExpiry.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-watchdogRx.C:
			if e.isConnected() {
				e.log.Error().Msg("remote: controller is not responding")
				e.disconnect()
			}
			watchdogRx.Reset(watchdogRxTimeout)

		case <-watchdogTx.C:
			if e.isConnected() {
				if err := e.sendPing(); err != nil {
					e.log.Warn().Err(err).Msg("remote: error sending ping")
				}
			}
			watchdogTx.Reset(watchdogTxTimeout)

		case <-reporting.C:
			if e.isConnected() && e.ply.IsPlaying() {
				if err := e.reportProgress(); err != nil {
					e.log.Warn().Err(err).Msg("remote: error reporting progress")
				}
			} else {
				reporting.Reset(reportingInterval)
			}

		case <-tokenExpiry.C:
			return fmt.Errorf("remote: user token expired")

		case err := <-rxErrCh:
			return fmt.Errorf("remote: receive: %w", err)

		case env := <-rxCh:
			watchdogRx.Reset(watchdogRxTimeout)
			e.handleEnvelope(env)

		case ev := <-e.ply.Events():
			e.handlePlayerEvent(ev)
		}
	}
}

func (e *Engine) readLoop(out chan<- protocol.Envelope, errCh chan<- error) {
	for {
		env, err := e.conn.Receive()
		if err != nil {
			errCh <- err
			return
		}
		out <- env
	}
}

func (e *Engine) isConnected() bool {
	return e.session.IsConnected()
}

// deviceChannel builds the channel this engine's own account uses for a
// given event, both ends keyed by the logged-in account's user id: the
// headless client and any controller sharing the account operate in the
// same pubsub namespace (§6.3).
func (e *Engine) deviceChannel(event protocol.Event) protocol.Channel {
	return protocol.Channel{From: e.accountUserID, To: e.accountUserID, Event: event}
}

func (e *Engine) subscribe(event protocol.Event) error {
	ch := e.deviceChannel(event)
	env := protocol.EncodeSubscription(protocol.EnvelopeSubscribe, ch)
	if err := e.conn.Send(env); err != nil {
		return err
	}
	e.session.Subscribe(ch.String())
	return nil
}

func (e *Engine) unsubscribe(event protocol.Event) error {
	ch := e.deviceChannel(event)
	env := protocol.EncodeSubscription(protocol.EnvelopeUnsubscribe, ch)
	if err := e.conn.Send(env); err != nil {
		return err
	}
	e.session.Unsubscribe(ch.String())
	return nil
}

func (e *Engine) sendCommand(body interface{}) error {
	ch := e.deviceChannel(protocol.EventRemoteCommand)
	env, err := protocol.EncodeMessage(protocol.EnvelopeSend, ch, body)
	if err != nil {
		return err
	}
	return e.conn.Send(env)
}

func (e *Engine) sendQueueMessage(body interface{}) error {
	ch := e.deviceChannel(protocol.EventRemoteQueue)
	env, err := protocol.EncodeMessage(protocol.EnvelopeSend, ch, body)
	if err != nil {
		return err
	}
	return e.conn.Send(env)
}

func (e *Engine) sendDiscover(body interface{}) error {
	ch := e.deviceChannel(protocol.EventRemoteDiscover)
	env, err := protocol.EncodeMessage(protocol.EnvelopeSend, ch, body)
	if err != nil {
		return err
	}
	return e.conn.Send(env)
}

// decryptedTrack adapts a *decrypt.Reader (Read+Seek only) to io.ReadCloser
// by delegating Close to the download.Reader it wraps, so the decoder sees
// the same closeable stream whether or not the track is striped-cipher.
type decryptedTrack struct {
	*decrypt.Reader
	closer io.Closer
}

func (d *decryptedTrack) Close() error { return d.closer.Close() }

// NewLoader builds the player.Loader that runs a track through its full
// pre-playback lifecycle and wraps the result in a player.Pipeline (§4.2.2,
// §4.4.1). Call this to build the Player, then attach it with SetPlayer.
func (e *Engine) NewLoader() player.Loader {
	return func(ctx context.Context, t *model.Track) (*player.Pipeline, error) {
		h, err := track.Open(ctx, e.log, e.media, e.dl, e.licenseToken, t, e.audioQuality, e.cfg.IsUserUpload)
		if err != nil {
			return nil, err
		}

		seekable := t.Type != model.Livestream
		reader := download.NewReader(h.Buffer, seekable)

		var src io.ReadCloser = reader
		if t.Cipher == model.CipherBFStripe {
			if e.cfg.BFSecret == nil {
				return nil, fmt.Errorf("remote: track %s is striped-cipher but no bf_secret is configured", t.ID)
			}
			key := decrypt.DeriveKey(t.ID, *e.cfg.BFSecret)
			size, hasSize := reader.Size()
			src = &decryptedTrack{Reader: decrypt.NewReader(reader, key, size, hasSize), closer: reader}
		}

		// User uploads and some catalog tracks carry no server-side gain
		// value; fall back to the file's own ReplayGain tag when the
		// stream can be seeked back to its start afterward (§4.3.6). The
		// two are distinct inputs to normalize.TargetGainDifference: a
		// native gain is used directly, a ReplayGain tag goes through the
		// -18dB-reference conversion first (§4.2.2).
		var replayGainDB *float64
		if t.GainDB == nil && seekable {
			if rs, ok := src.(io.ReadSeeker); ok {
				if g, ok := decoder.ExtractReplayGain(rs); ok {
					gain := float64(g)
					replayGainDB = &gain
				}
				_, _ = rs.Seek(0, io.SeekStart)
			}
		}

		dec, err := decoder.New(e.log, src, t.Codec, t.Type)
		if err != nil {
			return nil, err
		}

		pipeCfg := player.PipelineConfig{
			NormalizeEnabled: e.cfg.NormalizeEnabled,
			LoudnessEnabled:  e.cfg.LoudnessEnabled,
			// The gateway-supplied target gain (§4.1.2) is the single
			// target for both the normalizer's gain difference and the
			// equal-loudness filter's lufs_target; there is one target
			// value, not two independent sources.
			TargetLUFS:    e.gainTargetDB,
			NativeGainDB:  t.GainDB,
			ReplayGainDB:  replayGainDB,
			DitherCfg:     e.cfg.DitherCfg,
			TrackBits:     e.cfg.TrackBits,
			VolumeAtom:    e.ply.VolumeAtom(),
			VolumePercent: e.ply.VolumePercent(),
		}
		return player.NewPipeline(dec, pipeCfg), nil
	}
}
