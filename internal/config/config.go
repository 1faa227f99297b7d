// Package config loads the CLI-surface contract (§6.6) from a YAML file,
// environment variables and viper defaults, then builds the per-package
// config values the composition root wires into gateway, remote and player.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/dialtone/connectcore/internal/decrypt"
	"github.com/dialtone/connectcore/internal/dither"
	"github.com/dialtone/connectcore/internal/gateway"
	"github.com/dialtone/connectcore/internal/platform"
	"github.com/dialtone/connectcore/internal/player"
	"github.com/dialtone/connectcore/internal/protocol"
	"github.com/dialtone/connectcore/internal/remote"
)

type Config struct {
	Debug bool `mapstructure:"debug"`

	Credentials struct {
		Email    string `mapstructure:"email"`
		Password string `mapstructure:"password"`
		// ARL, if set, is used instead of email/password (§6.6).
		ARL string `mapstructure:"arl"`
	} `mapstructure:"credentials"`

	Device struct {
		ID   string `mapstructure:"id"`
		Name string `mapstructure:"name"`
		// Type is "speaker" or "generic" (§4.1.2).
		Type string `mapstructure:"type"`
	} `mapstructure:"device"`

	App struct {
		Version  string `mapstructure:"version"`
		Lang     string `mapstructure:"lang"`
		ClientID string `mapstructure:"client_id"`
	} `mapstructure:"app"`

	API struct {
		BaseURL   string `mapstructure:"base_url"`
		UserAgent string `mapstructure:"user_agent"`
		RateLimit struct {
			RequestsPerSecond float64 `mapstructure:"requests_per_second"`
			Burst             int     `mapstructure:"burst"`
		} `mapstructure:"rate_limit"`
		TimeoutSeconds int `mapstructure:"timeout"`
		Retries        int `mapstructure:"retries"`
	} `mapstructure:"api"`

	Audio struct {
		// Device is the `[host][|device][|rate][|format]` output-device
		// string consumed by player.ParseDeviceSpec (§4.2.1).
		Device string `mapstructure:"device"`

		// Normalization and Loudness gate the two gain-compensation stages;
		// both target the gateway-supplied gain loaded at login, not a
		// locally configured LUFS value (§4.1.2, §4.2.2, §4.7).
		Normalization bool `mapstructure:"normalization"`
		Loudness      bool `mapstructure:"loudness"`

		// InitialVolume is a percentage in [0,1]; nil disables the feature.
		InitialVolume *float64 `mapstructure:"initial_volume"`

		// DitherBits overrides the DAC bit depth used by the dither stage;
		// nil uses the output format's own default (§4.8).
		DitherBits *float64 `mapstructure:"dither_bits"`
		// NoiseShaping selects a Shibata filter profile, 0..7; 0 disables
		// shaping (§4.8).
		NoiseShaping int `mapstructure:"noise_shaping"`
		TrackBits    int `mapstructure:"track_bits"`
	} `mapstructure:"audio"`

	Interruptions bool `mapstructure:"interruptions"`
	Eavesdrop     bool `mapstructure:"eavesdrop"`

	// Hook is a path to a script invoked on player lifecycle events (§6.5);
	// empty disables hooks.
	Hook string `mapstructure:"hook"`

	// BFSecret is the process-wide striped-cipher secret, 16 raw bytes
	// (§4.5.2). Empty means striped-cipher tracks can't be decrypted.
	BFSecret string `mapstructure:"bf_secret"`

	Download struct {
		TempDir string `mapstructure:"temp_dir"`
		// MaxRAM bounds the in-memory download buffer pool, in bytes.
		MaxRAM int64 `mapstructure:"max_ram"`
	} `mapstructure:"download"`
}

// Load reads config from configPath (or the platform config dir plus
// ./configs and . when empty), environment variables prefixed CONNECTCORE_,
// and defaults. Environment variables override the config file, which
// overrides the defaults.
func Load(configPath string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		configDir, err := platform.GetConfigDir()
		if err != nil {
			return nil, err
		}
		viper.AddConfigPath(configDir)
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("CONNECTCORE")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Audio.NoiseShaping < 0 {
		cfg.Audio.NoiseShaping = 0
	} else if cfg.Audio.NoiseShaping > 7 {
		cfg.Audio.NoiseShaping = 7
	}

	if err := ensureDirectories(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("debug", false)

	viper.SetDefault("device.type", "speaker")
	viper.SetDefault("app.version", "2.1.0")
	viper.SetDefault("app.lang", "en")

	viper.SetDefault("api.base_url", "")
	viper.SetDefault("api.user_agent", "connectcore/1.0.0")
	viper.SetDefault("api.rate_limit.requests_per_second", 5)
	viper.SetDefault("api.rate_limit.burst", 5)
	viper.SetDefault("api.timeout", 30)
	viper.SetDefault("api.retries", 3)

	cacheDir, _ := platform.GetCacheDir()
	viper.SetDefault("download.temp_dir", filepath.Join(cacheDir, "downloads"))
	viper.SetDefault("download.max_ram", 512*1024*1024)

	viper.SetDefault("audio.normalization", false)
	viper.SetDefault("audio.loudness", false)
	viper.SetDefault("audio.noise_shaping", 0)
	viper.SetDefault("audio.track_bits", 16)

	viper.SetDefault("interruptions", true)
	viper.SetDefault("eavesdrop", false)
}

func ensureDirectories(cfg *Config) error {
	return os.MkdirAll(cfg.Download.TempDir, 0o755)
}

// DeviceType maps the configured device-type string onto the wire enum,
// defaulting to generic for anything unrecognized.
func (c *Config) DeviceType() protocol.DeviceType {
	if c.Device.Type == string(protocol.DeviceSpeaker) {
		return protocol.DeviceSpeaker
	}
	return protocol.DeviceGeneric
}

// Secret parses BFSecret, if set. An empty BFSecret is not an error: it
// just means striped-cipher tracks fail to open later, at NewLoader time.
func (c *Config) Secret() (*decrypt.Secret, error) {
	if c.BFSecret == "" {
		return nil, nil
	}
	s, err := decrypt.NewSecret([]byte(c.BFSecret))
	if err != nil {
		return nil, fmt.Errorf("config: bf_secret: %w", err)
	}
	return &s, nil
}

// DeviceSpec parses Audio.Device through the player package's output-device
// grammar.
func (c *Config) DeviceSpec() player.DeviceSpec {
	return player.ParseDeviceSpec(c.Audio.Device)
}

// GatewayConfig builds the gateway client tuning this config describes.
func (c *Config) GatewayConfig() gateway.Config {
	return gateway.Config{
		BaseURL:           c.API.BaseURL,
		ClientID:          c.App.ClientID,
		UserAgent:         c.API.UserAgent,
		RequestsPerSecond: c.API.RateLimit.RequestsPerSecond,
		Burst:             c.API.RateLimit.Burst,
		RetryMax:          c.API.Retries,
		Timeout:           time.Duration(c.API.TimeoutSeconds) * time.Second,
	}
}

// DitherConfig builds the dither stage config for the given output sample
// format, picked from the resolved audio device (§4.8).
func (c *Config) DitherConfig(format dither.SampleFormat) dither.Config {
	return dither.Config{
		Format:          format,
		DACBitsOverride: c.Audio.DitherBits,
		NoiseShaping:    dither.Profile(c.Audio.NoiseShaping),
	}
}

// RemoteConfig builds the connect-protocol engine config this config
// describes. BFSecret is resolved once and threaded through rather than
// re-parsed per track.
func (c *Config) RemoteConfig() (remote.Config, error) {
	secret, err := c.Secret()
	if err != nil {
		return remote.Config{}, err
	}
	return remote.Config{
		DeviceID:         c.Device.ID,
		DeviceName:       c.Device.Name,
		DeviceType:       c.DeviceType(),
		AppVersion:       c.App.Version,
		AppLang:          c.App.Lang,
		Interruptions:    c.Interruptions,
		Eavesdrop:        c.Eavesdrop,
		InitialVolume:    c.Audio.InitialVolume,
		NormalizeEnabled: c.Audio.Normalization,
		LoudnessEnabled:  c.Audio.Loudness,
		TrackBits:        c.Audio.TrackBits,
		BFSecret:         secret,
	}, nil
}

