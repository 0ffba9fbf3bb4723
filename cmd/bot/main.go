package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"referral-bot/internal/bot"
	"referral-bot/internal/cache"
	"referral-bot/internal/config"
	"referral-bot/internal/database"
	"referral-bot/internal/logging"
	"referral-bot/internal/membership"
	"referral-bot/internal/metrics"
	"referral-bot/internal/referral"
	"referral-bot/internal/store"
	"referral-bot/internal/worker"
)

func main() {
	cfg := config.LoadConfig()
	log := logging.New("referral-bot", cfg.AppEnv, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectPostgres(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to database")
	}
	st := store.New(db)
	if err := st.EnsureInitialized(ctx); err != nil {
		log.WithError(err).Fatal("Could not initialize schema")
	}

	rdb, err := database.ConnectRedis(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to redis")
	}
	defer rdb.Close()

	tgBot, err := bot.NewBot(cfg.BotToken, log, cfg.RequestTimeout)
	if err != nil {
		log.WithError(err).Fatal("Could not create bot")
	}

	coordinator := &referral.Coordinator{
		Store:           st,
		Oracle:          membership.NewChecker(tgBot.Instance, cfg.ChannelUsername),
		Handles:         tgBot,
		Cache:           cache.NewLeaderboard(rdb, cfg.LeaderboardCacheTTL),
		Log:             log,
		JoinURL:         cfg.ChannelURL,
		LeaderboardSize: cfg.LeaderboardSize,
	}
	tgBot.Router = (&bot.Handlers{Coordinator: coordinator}).Routes()

	stats := worker.NewStatsWorker(st, coordinator, log, cfg.StatsInterval)
	metricsServer := metrics.NewServer(cfg.MetricsAddr, cfg.MetricsAllowedCIDRs, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return tgBot.Start(gctx) })
	g.Go(func() error { return stats.Start(gctx) })
	g.Go(func() error { return metrics.Serve(gctx, metricsServer, log) })

	log.Info("Service started successfully")
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Service stopped with error")
		os.Exit(1)
	}
	log.Info("Service stopped")
}
