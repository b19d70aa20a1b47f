package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"pokerhand/internal/classifier"
	"pokerhand/internal/config"
	"pokerhand/internal/logger"
	"pokerhand/internal/notifier"
	"pokerhand/internal/queue"
	"pokerhand/internal/redis"
	"pokerhand/internal/storage"
	"pokerhand/internal/worker"
)

func main() {
	cfg, err := config.Load(config.Getenv("POKERHAND_CONFIG", config.DefaultPath))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if !cfg.Queue.Enabled() {
		log.Fatalf("queue.brokers must be set to run the consumer")
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

	consumer, err := queue.NewKafkaConsumer(cfg.Queue.Brokers, cfg.Queue.GroupID, cfg.Queue.Topic, logg)
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}
	defer consumer.Close()

	opts := []worker.Option{worker.WithStats(rdb)}
	nt, err := notifier.FromConfig(cfg.Notifier)
	if err != nil {
		log.Fatalf("failed to configure notifier: %v", err)
	}
	if nt != nil {
		opts = append(opts, worker.WithNotifier(nt))
	}

	w := worker.NewConsumer(consumer, worker.NewProcessor(classifier.NewPoker(), repo, logg, opts...), logg)

	logg.Info("consumer started", "topic", cfg.Queue.Topic, "group", cfg.Queue.GroupID)

	if err := w.Start(ctx); err != nil {
		logg.Error("consumer error", "err", err)
	}

	logg.Info("shutting down")
}
