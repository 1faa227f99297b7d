package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dialtone/connectcore/internal/config"
	"github.com/dialtone/connectcore/internal/download"
	"github.com/dialtone/connectcore/internal/gateway"
	"github.com/dialtone/connectcore/internal/hook"
	"github.com/dialtone/connectcore/internal/player"
	"github.com/dialtone/connectcore/internal/remote"
)

// outputChannels is the channel count opened on the audio device. The
// decoder reports mono sources as one channel (§4.3.2); the player copies a
// mono pipeline's samples onto every device channel, so the device is
// always opened stereo.
const outputChannels = 2

var (
	configPath = flag.String("config", "", "Path to configuration file")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	version    = "dev"
)

func main() {
	flag.Parse()

	log := newLogger(*debug)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *debug {
		cfg.Debug = true
	}

	log.Info().Str("version", version).Str("device", cfg.Device.Name).Msg("starting connectcore")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupGracefulShutdown(log, cancel)

	engine, err := buildEngine(ctx, log, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build engine")
	}

	err = engine.Run(ctx)
	if ctx.Err() != nil {
		log.Info().Msg("shutdown complete")
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("remote engine stopped")
	}
}

func newLogger(debugMode bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debugMode {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
}

func setupGracefulShutdown(log zerolog.Logger, cancel context.CancelFunc) {
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		sig := <-c
		log.Info().Str("signal", sig.String()).Msg("received signal, shutting down")
		cancel()
	}()
}

// buildEngine wires the config into the gateway client, authenticates,
// opens the audio device and constructs the remote engine and its player,
// following the Engine/Player construction order NewLoader requires:
// build the Engine, take its Loader, build the Player, then attach it.
func buildEngine(ctx context.Context, log zerolog.Logger, cfg *config.Config) (*remote.Engine, error) {
	gw, err := gateway.New(cfg.GatewayConfig(), log)
	if err != nil {
		return nil, fmt.Errorf("gateway client: %w", err)
	}

	if err := login(ctx, gw, cfg); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	media := gateway.NewMediaClient("", time.Duration(cfg.API.TimeoutSeconds)*time.Second)
	dl := download.NewManager(log, cfg.Download.TempDir, cfg.API.UserAgent, cfg.Download.MaxRAM)

	launcher := hook.NewLauncher(cfg.Hook, log)

	remoteCfg, err := cfg.RemoteConfig()
	if err != nil {
		return nil, fmt.Errorf("remote config: %w", err)
	}

	engine := remote.New(log, remoteCfg, gw, media, dl, launcher)

	device, err := player.Open(log, cfg.DeviceSpec(), outputChannels)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}

	ply := player.New(log, device, engine.NewLoader())
	engine.SetPlayer(ply)
	go ply.Run(ctx)

	return engine, nil
}

// login authenticates the gateway session from an ARL cookie or
// email/password (§C.1), preferring the ARL when both are configured since
// it skips the OAuth round trip entirely.
func login(ctx context.Context, gw *gateway.Client, cfg *config.Config) error {
	if cfg.Credentials.ARL != "" {
		return gw.LoginWithARL(cfg.Credentials.ARL)
	}

	accessToken, err := gw.LoginWithPassword(ctx, cfg.Credentials.Email, cfg.Credentials.Password)
	if err != nil {
		return fmt.Errorf("oauth login: %w", err)
	}
	arl, err := gw.ExchangeAccessTokenForARL(ctx, accessToken)
	if err != nil {
		return fmt.Errorf("exchange access token: %w", err)
	}
	return gw.LoginWithARL(arl)
}
