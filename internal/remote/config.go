package remote

import (
	"github.com/dialtone/connectcore/internal/decrypt"
	"github.com/dialtone/connectcore/internal/dither"
	"github.com/dialtone/connectcore/internal/protocol"
)

// Config carries the subset of the CLI-surface contract (§6.6) the engine
// itself consumes. Credentials and max_ram are consumed earlier, by the
// gateway login flow and the download manager, before an Engine is
// constructed.
type Config struct {
	DeviceID   string
	DeviceName string
	DeviceType protocol.DeviceType
	AppVersion string // SemVer, e.g. "2.1.0"
	AppLang    string

	Interruptions bool
	Eavesdrop     bool

	// InitialVolume is a percentage in [0,1]; nil disables the feature
	// (§4.1.2 "if an initial-volume is configured").
	InitialVolume *float64

	// NormalizeEnabled and LoudnessEnabled gate the normalizer and
	// equal-loudness stages; both target e.gainTargetDB, the single
	// gateway-supplied target gain loaded at bootstrap (§4.1.2, §4.2.2,
	// §4.7) — there is no independently configurable target here.
	NormalizeEnabled bool
	LoudnessEnabled  bool

	DitherCfg dither.Config
	TrackBits int

	IsUserUpload bool

	// BFSecret derives per-track decryption keys for striped-cipher media
	// (§4.5.2). nil means no striped-cipher track can be opened; NewLoader
	// fails such tracks rather than feeding still-encrypted bytes to the
	// decoder.
	BFSecret *decrypt.Secret
}

// Hook is invoked once per lifecycle event (§6.5); internal/hook's launcher
// satisfies this, and a zero Engine falls back to a no-op.
type Hook interface {
	Invoke(event string, env map[string]string)
}

type noopHook struct{}

func (noopHook) Invoke(string, map[string]string) {}
