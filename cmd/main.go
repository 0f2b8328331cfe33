package main

import (
	"context"
	"encoding/base64"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mansoorceksport/stride/internal/config"
	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/infrastructure/exercises"
	"github.com/mansoorceksport/stride/internal/logger"
	"github.com/mansoorceksport/stride/internal/middleware"
	"github.com/mansoorceksport/stride/internal/repository"
	"github.com/mansoorceksport/stride/internal/server"
	"github.com/mansoorceksport/stride/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		JSON:       cfg.Server.Environment == "production",
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger.Info("starting stride api", "env", cfg.Server.Environment, "timezone", cfg.Server.Timezone)

	ctx := context.Background()

	// Grafana Cloud requires Basic auth with instanceId:apiToken base64 encoded
	authEncoded := base64.StdEncoding.EncodeToString([]byte(cfg.OTEL.InstanceID + ":" + cfg.OTEL.Token))

	otelProvider, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.OTEL.ServiceName,
		ServiceVersion: cfg.OTEL.ServiceVersion,
		Environment:    cfg.OTEL.Environment,
		OTLPEndpoint:   cfg.OTEL.Endpoint,
		OTLPHeaders: map[string]string{
			"Authorization": "Basic " + authEncoded,
		},
		Insecure:    cfg.OTEL.Insecure,
		SampleRatio: cfg.OTEL.SampleRatio,
		Enabled:     cfg.OTEL.Enabled,
	})
	if err != nil {
		logger.Warn("failed to initialize OpenTelemetry", "err", err)
	}
	if otelProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			otelProvider.Shutdown(shutdownCtx)
		}()
	}

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		logger.Warn("failed to register metrics", "err", err)
	}

	firebaseApp, err := middleware.InitFirebase(ctx,
		cfg.Firebase.ProjectID,
		cfg.Firebase.PrivateKey,
		cfg.Firebase.ClientEmail,
	)
	if err != nil {
		logger.Fatal("failed to initialize Firebase", "err", err)
	}
	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		logger.Fatal("failed to get Firebase Auth client", "err", err)
	}
	logger.Info("firebase initialized")

	ctxMongo, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	mongoOpts := options.Client().ApplyURI(cfg.MongoDB.URI)
	if cfg.OTEL.Enabled {
		mongoOpts.SetMonitor(otelmongo.NewMonitor())
	}
	mongoClient, err := mongo.Connect(ctxMongo, mongoOpts)
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", "err", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error("error disconnecting from MongoDB", "err", err)
		}
	}()
	if err := mongoClient.Ping(ctxMongo, nil); err != nil {
		logger.Fatal("failed to ping MongoDB", "err", err)
	}
	logger.Info("mongodb connected", "database", cfg.MongoDB.Database)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to Redis", "err", err)
	}
	logger.Info("redis connected")

	// Route archives are optional; sessions complete without them.
	var fileStore domain.FileRepository
	if cfg.S3.Endpoint != "" {
		store, err := repository.NewS3ObjectStore(ctx, cfg.S3)
		if err != nil {
			logger.Warn("route archive store unavailable", "err", err)
		} else {
			fileStore = store
		}
	}

	var exerciseSource domain.ExerciseSource
	if cfg.Catalog.APIKey != "" {
		exerciseSource = exercises.NewClient(exercises.Config{
			BaseURL: cfg.Catalog.BaseURL,
			APIKey:  cfg.Catalog.APIKey,
			Timeout: cfg.Catalog.Timeout,
		})
	} else {
		logger.Info("no exercise provider key, catalog uses built-in walking templates")
	}

	app := server.NewApp(server.AppDependencies{
		Config:         cfg,
		MongoDB:        mongoClient.Database(cfg.MongoDB.Database),
		RedisClient:    redisClient,
		AuthClient:     authClient,
		FileStore:      fileStore,
		ExerciseSource: exerciseSource,
		Clock:          domain.NewSystemClock(cfg.Location()),
		Metrics:        metrics,
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("shutting down gracefully")
		app.Shutdown()
	}()

	logger.Info("server starting", "port", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		logger.Fatal("failed to start server", "err", err)
	}
}
