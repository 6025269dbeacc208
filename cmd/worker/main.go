package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/pitchbooking/config"
	"github.com/Domenick1991/pitchbooking/internal/cache"
	"github.com/Domenick1991/pitchbooking/internal/kafka"
	"github.com/Domenick1991/pitchbooking/internal/logging"
	"github.com/Domenick1991/pitchbooking/internal/push"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load(".env")

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Engine.VenuesCacheTTL())
	defer redisCache.Close()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID+"-push", cfg.Kafka.AlertsTopic)
	defer consumer.Close()

	sender := push.NewSender(redisCache, log, push.WithRateLimit(cfg.Push.RatePerSecond, cfg.Push.Burst))

	log.WithField("topic", cfg.Kafka.AlertsTopic).Info("push worker started")
	if err := consumer.Consume(ctx, sender.Handle); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("alerts consumer stopped")
		return
	}
	log.Info("push worker stopped")
}
