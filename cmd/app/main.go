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
	"pokerhand/internal/queue"
	"pokerhand/internal/redis"
	"pokerhand/internal/storage"
	"pokerhand/internal/worker"
)

// app runs the web server and, when a queue is configured, the submission consumer
// in one process.
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

	deps := api.Deps{
		Processor:    processor,
		Hands:        repo,
		Applications: repo,
		Stats:        rdb,
		Jokes:        joke.New(cfg.Joke, logg),
		Logger:       logg,
		StaticDir:    cfg.Server.StaticDir,
	}

	var consumer *worker.Consumer
	if cfg.Queue.Enabled() {
		publisher, err := queue.NewKafka(cfg.Queue.Brokers, cfg.Queue.Topic)
		if err != nil {
			log.Fatalf("failed to create publisher: %v", err)
		}
		defer publisher.Close()
		deps.Publisher = publisher

		kc, err := queue.NewKafkaConsumer(cfg.Queue.Brokers, cfg.Queue.GroupID, cfg.Queue.Topic, logg)
		if err != nil {
			log.Fatalf("failed to create consumer: %v", err)
		}
		defer kc.Close()
		consumer = worker.NewConsumer(kc, processor, logg)
	}

	server := api.NewServer(deps)
	processor.SetBroadcaster(server)

	g, ctx := errgroup.WithContext(ctx)

	if consumer != nil {
		g.Go(func() error {
			return consumer.Start(ctx)
		})
	}

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

	logg.Info("app started", "queue", cfg.Queue.Enabled())

	if err := g.Wait(); err != nil {
		logg.Error("app error", "err", err)
		os.Exit(1)
	}
}
