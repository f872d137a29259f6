package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AndreMoodley/EvolveApp/internal/config"
	"github.com/AndreMoodley/EvolveApp/internal/emulator"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var (
		docs        emulator.DocumentStore
		tokenStore  emulator.RefreshTokenStore
		limiter     emulator.SignInRateLimiter
		redisClient *redis.Client
	)

	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, falling back to memory", zap.Error(err))
			redisClient = nil
		}
		cancel()
	}

	switch {
	case cfg.DatabaseURL != "":
		pool, err := emulator.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		pgStore := emulator.NewPgDocumentStore(pool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			logger.Fatal("db schema", zap.Error(err))
		}
		docs = pgStore
		logger.Info("using postgres document store")
	case redisClient != nil:
		docs = emulator.NewRedisDocumentStore(redisClient)
		logger.Info("using redis document store")
	default:
		docs = emulator.NewMemoryDocumentStore()
		logger.Info("using in-memory document store")
	}

	if redisClient != nil {
		tokenStore = emulator.NewRedisRefreshTokenStore(redisClient)
		limiter = emulator.NewRedisSignInRateLimiter(redisClient, 10*time.Minute, 10)
	}

	tokens := emulator.NewTokenService(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLDays)*24*time.Hour,
		tokenStore,
	)
	accounts := emulator.NewAccountService(docs, tokens, limiter, logger)
	router := emulator.NewRouter(logger, docs, accounts, tokens)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting emulator", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
