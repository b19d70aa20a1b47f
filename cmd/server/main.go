package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"pokerhand/internal/api"
	"pokerhand/internal/classifier"
	"pokerhand/internal/config"
	"pokerhand/internal/console"
	"pokerhand/internal/joke"
	"pokerhand/internal/logger"
	"pokerhand/internal/notifier"
	"pokerhand/internal/redis"
	"pokerhand/internal/storage"
	"pokerhand/internal/worker"
)

func main() {
	cfg, err := config.Load(config.Getenv("POKERHAND_CONFIG", config.DefaultPath))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logg := logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := storage.NewPostgres(cfg.Storage.DSN)
	if err != nil {
		log.Fatalf("failed to connect to storage: %v", err)
	}
	defer repo.Close()

	if err := repo.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate storage: %v", err)
	}

	rdb, err := redis.New(cfg.Redis.Addr, cfg.Redis.Prefix)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer rdb.Close()

	opts := []worker.Option{worker.WithStats(rdb)}
	nt, err := notifier.FromConfig(cfg.Notifier)
	if err != nil {
		log.Fatalf("failed to configure notifier: %v", err)
	}
	if nt != nil {
		opts = append(opts, worker.WithNotifier(nt))
	}

	processor := worker.NewProcessor(classifier.NewPoker(), repo, logg, opts...)

	server := api.NewServer(api.Deps{
		Processor:    processor,
		Hands:        repo,
		Applications: repo,
		Stats:        rdb,
		Jokes:        joke.New(cfg.Joke, logg),
		Logger:       logg,
		StaticDir:    cfg.Server.StaticDir,
	})
	processor.SetBroadcaster(server)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start(cfg.Server.Port)
	})

	g.Go(func() error {
		<-ctx.Done()
		logg.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Server.Console {
		g.Go(func() error {
			return console.Run(ctx, os.Stdin, os.Stdout, stop)
		})
	}

	if err := g.Wait(); err != nil {
		logg.Error("server error", "err", err)
		os.Exit(1)
	}
}
