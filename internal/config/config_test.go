package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/dialtone/connectcore/internal/protocol"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadAppliesDefaultsWithNoConfigFile(t *testing.T) {
	resetViper(t)
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.RateLimit.RequestsPerSecond != 5 {
		t.Errorf("default requests_per_second = %v, want 5", cfg.API.RateLimit.RequestsPerSecond)
	}
	if cfg.Audio.TrackBits != 16 {
		t.Errorf("default track_bits = %d, want 16", cfg.Audio.TrackBits)
	}
	if !cfg.Interruptions {
		t.Error("default interruptions should be true")
	}
	if cfg.Download.MaxRAM != 512*1024*1024 {
		t.Errorf("default max_ram = %d, want 512MiB", cfg.Download.MaxRAM)
	}
}

func TestLoadReadsExplicitFile(t *testing.T) {
	resetViper(t)
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
device:
  id: "dev-1"
  name: "Kitchen Speaker"
  type: "speaker"
audio:
  noise_shaping: 99
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Device.ID != "dev-1" || cfg.Device.Name != "Kitchen Speaker" {
		t.Errorf("unexpected device fields: %+v", cfg.Device)
	}
	if cfg.Audio.NoiseShaping != 7 {
		t.Errorf("NoiseShaping = %d, want clamped to 7", cfg.Audio.NoiseShaping)
	}
}

func TestDeviceTypeDefaultsToGeneric(t *testing.T) {
	cfg := &Config{}
	cfg.Device.Type = "toaster"
	if got := cfg.DeviceType(); got != protocol.DeviceGeneric {
		t.Errorf("DeviceType() = %q, want generic", got)
	}

	cfg.Device.Type = "speaker"
	if got := cfg.DeviceType(); got != protocol.DeviceSpeaker {
		t.Errorf("DeviceType() = %q, want speaker", got)
	}
}

func TestSecretEmptyIsNotAnError(t *testing.T) {
	cfg := &Config{}
	secret, err := cfg.Secret()
	if err != nil {
		t.Fatalf("Secret() error = %v", err)
	}
	if secret != nil {
		t.Fatal("expected nil secret for empty bf_secret")
	}
}

func TestSecretRejectsWrongLength(t *testing.T) {
	cfg := &Config{}
	cfg.BFSecret = "too-short"
	if _, err := cfg.Secret(); err == nil {
		t.Fatal("expected error for a bf_secret that isn't 16 bytes")
	}
}

func TestSecretAcceptsSixteenBytes(t *testing.T) {
	cfg := &Config{}
	cfg.BFSecret = "0123456789abcdef"
	secret, err := cfg.Secret()
	if err != nil {
		t.Fatalf("Secret() error = %v", err)
	}
	if secret == nil {
		t.Fatal("expected non-nil secret")
	}
}

func TestDeviceSpecDelegatesToPlayerGrammar(t *testing.T) {
	cfg := &Config{}
	cfg.Audio.Device = "hw|default|48000|i16"
	spec := cfg.DeviceSpec()
	if spec.Host != "hw" || spec.Device != "default" || spec.Rate != 48000 || spec.Format != "i16" {
		t.Fatalf("unexpected DeviceSpec: %+v", spec)
	}
}

func TestRemoteConfigCarriesBFSecretThrough(t *testing.T) {
	cfg := &Config{}
	cfg.BFSecret = "0123456789abcdef"
	cfg.Device.ID = "dev-1"

	rc, err := cfg.RemoteConfig()
	if err != nil {
		t.Fatalf("RemoteConfig() error = %v", err)
	}
	if rc.DeviceID != "dev-1" {
		t.Errorf("DeviceID = %q, want dev-1", rc.DeviceID)
	}
	if rc.BFSecret == nil {
		t.Fatal("expected BFSecret to be populated")
	}
}

func TestRemoteConfigPropagatesSecretError(t *testing.T) {
	cfg := &Config{}
	cfg.BFSecret = "nope"
	if _, err := cfg.RemoteConfig(); err == nil {
		t.Fatal("expected RemoteConfig to surface the bad bf_secret")
	}
}
