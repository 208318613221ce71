package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/nelonissle/kubernetes-bookingsystem/api"
	"github.com/nelonissle/kubernetes-bookingsystem/config"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/auth"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/bootstrap"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/kafka"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/logger"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/metrics"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/rabbitmq"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/repository"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/seatclient"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/service/booking"
)

type notificationProducer interface {
	booking.NotificationProducer
	Close() error
}

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		zlog.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := repository.EnsureBookingSchema(ctx, pool); err != nil {
		zlog.Fatal("ensure booking schema", zap.Error(err))
	}
	bookingRepo := repository.NewBookingRepository(pool)
	if cfg.Seed.DemoData {
		seeded, err := repository.SeedBookings(ctx, bookingRepo, time.Now())
		if err != nil {
			zlog.Fatal("seed bookings", zap.Error(err))
		}
		zlog.Info("demo bookings seeded", zap.Int("created", seeded))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var producer notificationProducer
	switch cfg.Notifications.Transport {
	case config.TransportKafka:
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic, zlog)
	default:
		producer = rabbitmq.NewProducer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, zlog,
			rabbitmq.WithDialer(rabbitmq.DialTimeout(cfg.RabbitMQ.DialTimeout())))
	}
	defer func() { _ = producer.Close() }()

	bookingService := booking.NewBookingService(
		bookingRepo,
		seatclient.New(cfg.Inventory.BaseURL, cfg.Inventory.Timeout()),
		producer,
		zlog,
		booking.WithMetrics(m),
		booking.WithCompletionTimeout(cfg.Inventory.Timeout()),
	)

	engine := bootstrap.NewEngine(zlog, bootstrap.EngineConfig{
		Gatherer:   reg,
		Registerer: reg,
		SwaggerDir: cfg.HTTP.SwaggerDir,
		SwaggerDoc: "booking.swagger.json",
	})
	bookings := engine.Group("/api/booking", auth.Middleware([]byte(cfg.Auth.JWTSecret), zlog))
	api.NewBookingHandler(bookingService).Register(bookings)

	zlog.Info("booking api starting",
		zap.String("transport", cfg.Notifications.Transport),
		zap.String("inventory", cfg.Inventory.BaseURL))
	if err := bootstrap.Run(ctx, cfg.HTTP.Address, engine, zlog); err != nil {
		zlog.Fatal("server error", zap.Error(err))
	}
}
