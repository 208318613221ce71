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
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/nelonissle/kubernetes-bookingsystem/api"
	"github.com/nelonissle/kubernetes-bookingsystem/config"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/auth"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/bootstrap"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/cache"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/logger"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/metrics"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/repository"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/service/flights"
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

	flightRepo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		zlog.Fatal("open flight store", zap.String("store", cfg.Inventory.Store), zap.Error(err))
	}
	defer closeStore()

	if cfg.Seed.DemoData {
		seeded, err := repository.SeedFlights(ctx, flightRepo, time.Now())
		if err != nil {
			zlog.Fatal("seed flights", zap.Error(err))
		}
		zlog.Info("demo flights seeded", zap.Int("created", seeded))
	}

	var flightCache flights.FlightCache
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Inventory.CacheTTL())
		defer func() { _ = redisCache.Close() }()
		flightCache = redisCache
	} else {
		zlog.Warn("redis not configured: flights cache and decrement idempotency disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	flightService := flights.NewFlightService(flightRepo, flightCache, cfg.Inventory.IdempotencyTTL(), zlog, flights.WithMetrics(m))

	engine := bootstrap.NewEngine(zlog, bootstrap.EngineConfig{
		Gatherer:   reg,
		Registerer: reg,
		SwaggerDir: cfg.HTTP.SwaggerDir,
		SwaggerDoc: "inventory.swagger.json",
	})
	api.NewFlightHandler(flightService).Register(engine.Group("/flight"),
		auth.Middleware([]byte(cfg.Auth.JWTSecret), zlog),
		auth.RequireRole(auth.RoleAdmin),
	)

	zlog.Info("inventory ledger starting", zap.String("store", cfg.Inventory.Store))
	if err := bootstrap.Run(ctx, cfg.HTTP.InventoryAddress, engine, zlog); err != nil {
		zlog.Fatal("server error", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config) (repository.FlightRepository, func(), error) {
	if cfg.Inventory.Store == config.StorePostgres {
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, err
		}
		if err := repository.EnsureFlightSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repository.NewFlightRepository(pool), pool.Close, nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, nil, err
	}
	closeClient := func() { _ = client.Disconnect(context.Background()) }
	if err := client.Ping(ctx, nil); err != nil {
		closeClient()
		return nil, nil, err
	}

	collection := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
	if err := repository.EnsureFlightIndexes(ctx, collection); err != nil {
		closeClient()
		return nil, nil, err
	}
	return repository.NewMongoFlightRepository(collection), closeClient, nil
}
