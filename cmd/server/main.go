package main

import (
	"context"
	"database/sql"
	"log"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nandanugg/station-gate/config"
	"github.com/nandanugg/station-gate/module/core"
	"github.com/nandanugg/station-gate/module/core/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	waypoints, err := config.LoadWaypoints(cfg.WaypointsFile)
	if err != nil {
		logger.Fatal("waypoints", zap.Error(err))
	}

	var db *sql.DB
	if cfg.GrantStore == config.GrantStorePostgres {
		db, err = config.NewPostgres(ctx, cfg)
		if err != nil {
			logger.Fatal("postgres", zap.Error(err))
		}
		defer func() { _ = db.Close() }()
	}

	amqpConn, err := config.NewRabbitMQ(cfg)
	if err != nil {
		logger.Fatal("rabbitmq", zap.Error(err))
	}
	defer func() { _ = amqpConn.Close() }()

	// Resubscribe on every MQTT reconnect once the module exists.
	var coreModule atomic.Pointer[core.Module]
	mqttClient, err := config.NewMQTT(cfg, func() error {
		if m := coreModule.Load(); m != nil {
			return m.StartSubscribers()
		}
		return nil
	})
	if err != nil {
		logger.Fatal("mqtt", zap.Error(err))
	}
	defer mqttClient.Disconnect(250)

	m, err := core.Build(ctx, core.Deps{
		DB:              db,
		AMQP:            amqpConn,
		MQTT:            mqttClient,
		MemoryStoreSize: cfg.MemoryStoreSize,
	}, service.Settings{
		Waypoints:   waypoints,
		RadiusKm:    cfg.RadiusKm,
		GrantWindow: cfg.GrantWindow,
	})
	if err != nil {
		logger.Fatal("core module", zap.Error(err))
	}
	coreModule.Store(m)

	if err := m.StartSubscribers(); err != nil {
		logger.Fatal("start subscribers", zap.Error(err))
	}

	r := gin.New()
	r.Use(gin.Recovery())

	health := config.NewHealthChecker(db, amqpConn, mqttClient)
	health.Register(r)

	m.RegisterRoutes(&r.RouterGroup)

	logger.Info("listening",
		zap.String("port", cfg.HTTPPort),
		zap.Int("waypoints", len(waypoints)),
		zap.Float64("radius_km", cfg.RadiusKm),
		zap.Duration("grant_window", cfg.GrantWindow),
		zap.String("grant_store", cfg.GrantStore),
	)
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}
