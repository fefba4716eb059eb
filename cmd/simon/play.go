package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/simon/audio"
	"github.com/lixenwraith/simon/config"
	"github.com/lixenwraith/simon/core"
	"github.com/lixenwraith/simon/engine"
	"github.com/lixenwraith/simon/score"
	"github.com/lixenwraith/simon/service"
	"github.com/lixenwraith/simon/telemetry"
	"github.com/lixenwraith/simon/tui"
)

// runPlay wires services, engine and terminal, then runs the game until quit
func runPlay(cmd *cobra.Command, opts *options) error {
	cfg, cfgPath, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}

	log, closer, err := telemetry.SetupLogger(telemetry.LogConfig{
		Debug: cfg.Log.Debug,
		Dir:   cfg.Log.Dir,
		Level: cfg.Log.Level,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	log.Info().Str("version", Version).Str("difficulty", cfg.Difficulty).Msg("simon starting")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Engine is created after services initialize; the config watcher starts later and may reference it
	var game *engine.Engine

	hub := service.NewHub()
	scoreSvc := score.NewService(cfg.Scores.Path, log)
	audioSvc := audio.NewService(audio.Config{
		SampleRate: cfg.Sound.SampleRate,
		Volume:     cfg.Sound.Volume,
	}, log)
	metrics := telemetry.NewMetrics()

	services := []service.Service{scoreSvc, audioSvc}
	if cfg.Metrics.Addr != "" {
		services = append(services, telemetry.NewMetricsServer(cfg.Metrics.Addr, metrics, log))
	}
	if _, err := os.Stat(cfgPath); err == nil {
		services = append(services, config.NewWatcher(cfgPath, log, func(next config.Config) {
			if err := applyFlags(cmd, opts, &next); err != nil {
				log.Warn().Err(err).Msg("reloaded config rejected")
				return
			}
			applyReload(game, next, log)
		}))
	}
	for _, svc := range services {
		if err := hub.Register(svc); err != nil {
			return err
		}
	}

	if err := hub.InitAll(); err != nil {
		return err
	}
	log.Debug().Strs("services", hub.Names()).Msg("services initialized")
	defer func() {
		if err := hub.StopAll(); err != nil {
			log.Warn().Err(err).Msg("service shutdown")
		}
	}()

	game = engine.New(engine.Config{
		Difficulty:    cfg.DifficultyLevel(),
		SoundEnabled:  cfg.Sound.Enabled,
		Volume:        cfg.Sound.Volume,
		Seed:          cfg.Seed,
		AudioDegraded: audioSvc.IsDisabled(),
		Sound:         audioSvc.Player(),
		Scores:        scoreSvc.Store(),
		Logger:        &log,
	})
	defer game.Reset()
	defer game.Subscribe(metrics)()
	seedBestGauge(ctx, scoreSvc.Store(), metrics, log)

	if err := hub.StartAll(ctx); err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	core.SetCrashCleanup(screen.Fini)
	defer screen.Fini()

	return tui.NewApp(screen, game, log, tui.Options{ScoresVolatile: scoreSvc.Degraded()}).Run(ctx)
}

// applyReload pushes hot-reloadable settings into a running engine
// Difficulty is refused by the engine while a run is in progress
func applyReload(game *engine.Engine, cfg config.Config, log zerolog.Logger) {
	if game == nil {
		return
	}
	game.SetSoundEnabled(cfg.Sound.Enabled)
	game.SetVolume(cfg.Sound.Volume)
	if d := cfg.DifficultyLevel(); game.Snapshot().Difficulty != d && !game.ChangeDifficulty(d) {
		log.Info().Str("difficulty", d.Key()).Msg("difficulty change refused, run in progress")
	}
}

func seedBestGauge(ctx context.Context, store score.Store, metrics *telemetry.Metrics, log zerolog.Logger) {
	best, err := store.ListBest(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("best scores unavailable")
		return
	}
	for d, s := range best {
		metrics.SetBest(d, s)
	}
}
