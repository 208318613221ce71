package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/nelonissle/kubernetes-bookingsystem/config"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/bootstrap"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/kafka"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/logger"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/metrics"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/notify"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/rabbitmq"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/whatsapp"
)

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

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	sender, err := whatsapp.NewSender(cfg.Twilio, zlog)
	if err != nil {
		zlog.Fatal("build whatsapp sender", zap.Error(err))
	}
	dispatcher := notify.NewDispatcher(sender, cfg.Notifications.DestinationPhone, zlog, m)

	consumerErr := make(chan error, 1)
	go func() {
		switch cfg.Notifications.Transport {
		case config.TransportKafka:
			consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, zlog)
			consumerErr <- consumer.StartListening(ctx, dispatcher.Handle)
		default:
			consumer := rabbitmq.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, zlog,
				rabbitmq.WithDialer(rabbitmq.DialTimeout(cfg.RabbitMQ.DialTimeout())))
			consumerErr <- consumer.StartListening(ctx, dispatcher.Handle)
		}
	}()

	engine := bootstrap.NewEngine(zlog, bootstrap.EngineConfig{Gatherer: reg, Registerer: reg})
	serverErr := make(chan error, 1)
	go func() { serverErr <- bootstrap.Run(ctx, cfg.HTTP.WorkerAddress, engine, zlog) }()

	zlog.Info("notification worker started", zap.String("transport", cfg.Notifications.Transport))

	select {
	case err := <-consumerErr:
		if err != nil {
			zlog.Error("consumer stopped", zap.Error(err))
		}
		stop()
		<-serverErr
	case err := <-serverErr:
		if err != nil {
			zlog.Error("metrics server stopped", zap.Error(err))
		}
		stop()
		<-consumerErr
	}
	zlog.Info("notification worker stopped")
}
