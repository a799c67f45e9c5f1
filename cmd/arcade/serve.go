package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/campfire-gg/arcade/pkg/broadcast"
	"github.com/campfire-gg/arcade/pkg/config"
	"github.com/campfire-gg/arcade/pkg/ingress"
	"github.com/campfire-gg/arcade/pkg/leaderboard"
	"github.com/campfire-gg/arcade/pkg/manager"
	"github.com/campfire-gg/arcade/pkg/tiles"

	"github.com/rs/zerolog/log"
)

func serve(configs []string) error {
	cfg, err := config.Process(configs)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load arcade configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	maps, err := tiles.Default()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load maze maps")
	}

	var store leaderboard.Store = leaderboard.NewMemory()
	if cfg.Leaderboard.Redis.Enabled {
		store = leaderboard.NewRedis(cfg.Leaderboard.Redis)
		log.Info().Str("address", cfg.Leaderboard.Redis.Address).Msg("using redis leaderboard")
	}

	var archive *leaderboard.Archive
	if cfg.Leaderboard.Archive.Enabled {
		archive, err = leaderboard.NewArchive(cfg.Leaderboard.Archive.DBPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open score archive")
		}
	}

	scores := leaderboard.NewService(ctx, store, archive)

	hub := ingress.NewHub(cfg.Ingress)

	m := manager.New(
		ctx,
		manager.Options{
			Game:      cfg.Game.Options(),
			IdleLimit: time.Duration(cfg.Manager.IdleMinutes) * time.Minute,
			ReapSpec:  cfg.Manager.ReapSchedule,
		},
		manager.Deps{
			Relay:   broadcast.New(hub),
			Members: hub,
			Scores:  scores,
			Maps:    maps,
		},
	)

	errc := make(chan error, 1)
	go func() {
		errc <- hub.Serve(ctx, m, scores)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	signal.Notify(sigs, os.Kill)

	select {
	case err := <-errc:
		log.Printf("failed to serve: %v", err)
	case sig := <-sigs:
		log.Printf("terminating: %v", sig)
	}

	m.Close()
	scores.Close()
	cancel()

	return nil
}
