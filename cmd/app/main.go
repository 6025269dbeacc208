package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/pitchbooking/config"
	"github.com/Domenick1991/pitchbooking/internal/bootstrap"
	"github.com/Domenick1991/pitchbooking/internal/cache"
	"github.com/Domenick1991/pitchbooking/internal/engine"
	"github.com/Domenick1991/pitchbooking/internal/kafka"
	"github.com/Domenick1991/pitchbooking/internal/logging"
	"github.com/Domenick1991/pitchbooking/internal/migrations"
	"github.com/Domenick1991/pitchbooking/internal/repository"
	"github.com/Domenick1991/pitchbooking/internal/service/booking"
	"github.com/Domenick1991/pitchbooking/internal/service/loyalty"
	"github.com/Domenick1991/pitchbooking/internal/service/notify"
	"github.com/Domenick1991/pitchbooking/internal/service/reminder"
	"github.com/Domenick1991/pitchbooking/internal/service/restore"
	"github.com/Domenick1991/pitchbooking/internal/service/venues"
	"github.com/Domenick1991/pitchbooking/internal/session"
	"github.com/Domenick1991/pitchbooking/internal/shell"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	kafkaGo "github.com/segmentio/kafka-go"
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

	loc, err := cfg.Engine.Location()
	if err != nil {
		log.Fatalf("engine timezone: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(cfg.Database.MigrationURL(), log); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	instance := cfg.Engine.Instance()
	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Engine.VenuesCacheTTL(), cache.WithInstance(instance))
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		log.WithError(err).Warn("kafka unavailable, alerts and rewards will not be published")
	}

	bookingRepo := repository.NewBookingRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	venueRepo := repository.NewVenueRepository(pool)

	state := session.NewState()
	venueService := venues.NewVenueService(venueRepo, redisCache, log)

	dispatcher := notify.NewDispatcher(userRepo, state,
		notify.WithPlatformSink(kafka.NewAlertSink(producer, cfg.Kafka.AlertsTopic, state.UserID)),
		notify.WithToastTTL(cfg.Engine.ToastTTL()),
		notify.WithInboxLimit(cfg.Engine.InboxLimit),
		notify.WithLogger(log),
	)

	scheduler := reminder.NewScheduler(bookingRepo, venueService, dispatcher, state,
		reminder.WithLocation(loc),
		reminder.WithLogger(log),
		reminder.WithTickLock(redisCache, cfg.Engine.TickLockTTL()),
	)
	tracker := loyalty.NewTracker(bookingRepo, userRepo, venueService, dispatcher, state,
		loyalty.WithLocation(loc),
		loyalty.WithLogger(log),
		loyalty.WithRewardPresenter(kafka.NewRewardSink(producer, cfg.Kafka.RewardsTopic)),
	)
	eng := engine.New(scheduler, tracker,
		engine.WithIntervals(cfg.Engine.ReminderInterval(), cfg.Engine.LoyaltyInterval()),
		engine.WithLogger(log),
	)

	restorer := restore.NewRestorer(userRepo, redisCache, dispatcher, state, log)
	appShell := shell.New(userRepo, state, dispatcher, eng, restorer, redisCache, log)
	defer appShell.Close()

	if err := appShell.Boot(ctx); err != nil {
		log.WithError(err).Warn("session restore failed")
	}

	bookingService := booking.NewBookingService(bookingRepo, venueService, producer, cfg.Kafka.BookingEventsTopic,
		booking.WithLocation(loc),
		booking.WithLogger(log),
	)

	// Every app instance owns its own session, so each one reads the full feed.
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, instanceGroup(cfg.Kafka.GroupID, instance), cfg.Kafka.BookingEventsTopic,
		kafka.WithStartOffset(kafkaGo.LastOffset),
	)
	defer consumer.Close()

	go func() {
		err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.BookingEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.WithError(err).Warn("decode booking event")
				return nil
			}
			appShell.HandleBookingEvent(ctx, event)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("booking events consumer stopped")
		}
	}()

	if err := bootstrap.Run(ctx, cfg, bootstrap.Services{
		Bookings:      bookingService,
		Venues:        venueService,
		Notifications: dispatcher,
		Session:       appShell,
	}, log); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func instanceGroup(base, instance string) string {
	if instance == "" {
		return base
	}
	return base + "-" + instance
}
