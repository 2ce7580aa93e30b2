package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ms-concerts/internal/config"
	"ms-concerts/internal/database/migrations"
	"ms-concerts/internal/kafka"
	"ms-concerts/internal/logger"
	ticket_db "ms-concerts/internal/tickets/db"
	qr "ms-concerts/internal/tickets/qr_generator"
	rediswrap "ms-concerts/internal/tickets/redis"
	tickets "ms-concerts/internal/tickets/service"
	"ms-concerts/internal/tickets/ticket_api"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
)

func connectDatabase(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	if cfg.Driver == ticket_db.DriverPostgres && cfg.PostgresDSN == "" {
		log.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	const maxRetries = 5
	var (
		bunDB *bun.DB
		err   error
	)
	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to %s (attempt %d/%d)", cfg.Driver, i+1, maxRetries))
		bunDB, err = ticket_db.Open(ctx, cfg.Driver, cfg.DSN(), cfg.MaxOpenConns)
		if err == nil {
			break
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to %s after %d attempts: %v", cfg.Driver, maxRetries, err))
	}

	log.LogDatabase("CONNECT", cfg.Driver, "connection successful")
	return bunDB
}

func migrateSchema(ctx context.Context, bunDB *bun.DB, cfg config.DatabaseConfig, log *logger.Logger) {
	if !cfg.AutoMigrate {
		log.Info("MIGRATE", "AUTO_MIGRATE disabled, skipping schema setup")
		return
	}

	if cfg.Driver == ticket_db.DriverSQLite {
		if err := ticket_db.CreateSchema(ctx, bunDB); err != nil {
			log.Fatal("MIGRATE", fmt.Sprintf("Failed to create sqlite schema: %v", err))
		}
		log.Info("MIGRATE", "SQLite schema ready")
		return
	}

	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
		MigrationsDir: cfg.MigrationsDir,
		AutoMigrate:   cfg.AutoMigrate,
	}, log)
	defer func() {
		if err := runner.Close(); err != nil {
			log.Warn("MIGRATE", fmt.Sprintf("Failed to close migrator: %v", err))
		}
	}()
	if err := runner.RunMigrations(); err != nil {
		log.Fatal("MIGRATE", fmt.Sprintf("Failed to run migrations: %v", err))
	}
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s (DB: %d)", cfg.Addr, client.Options().DB))
	return client
}

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log := logger.NewLogger(cfg.Log.Dir)
	defer log.Close()

	log.Info("APP", "Starting Concert Ticketing Service initialization")
	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	ctx := context.Background()
	bunDB := connectDatabase(ctx, cfg.Database, log)
	defer bunDB.Close()
	migrateSchema(ctx, bunDB, cfg.Database, log)

	secret := cfg.QR.SecretKey
	if secret == "" {
		log.Warn("CONFIG", "QR_SECRET_KEY not set, QR codes will not survive a restart")
		secret = uuid.NewString()
	}
	opts := []tickets.Option{
		tickets.WithLogger(log),
		tickets.WithQRGenerator(qr.NewQRGenerator(secret)),
	}

	if cfg.Redis.Enabled {
		redisClient := connectRedis(ctx, cfg.Redis, log)
		defer redisClient.Close()
		opts = append(opts, tickets.WithLocker(rediswrap.NewRedis(redisClient, cfg.Redis.LockTTL)))
		log.Info("REDIS", fmt.Sprintf("Ticket locks enabled with TTL %s", cfg.Redis.LockTTL))
	} else {
		log.Info("REDIS", "REDIS_ENABLED is false, ticket locks disabled")
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix)
		defer producer.Close()

		topicCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := kafka.EnsureTopicsExist(topicCtx, cfg.Kafka.Brokers, kafka.TicketTopics(cfg.Kafka.TopicPrefix)); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}
		cancel()

		opts = append(opts, tickets.WithEventPublisher(producer))
		log.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for %v", cfg.Kafka.Brokers))
	} else {
		log.Info("KAFKA", "KAFKA_ENABLED is false, lifecycle events disabled")
	}

	service := tickets.NewTicketService(&ticket_db.DB{Bun: bunDB}, opts...)
	handler := ticket_api.NewHandler(service, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(ticket_api.RequestLogger(log))
	handler.RegisterRoutes(r)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Concert Ticketing Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Concert Ticketing Service shutdown complete")
	}
}
