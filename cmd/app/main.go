package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"clue_backend/internal/config"
	"clue_backend/internal/db"
	httpServer "clue_backend/internal/http"
	"clue_backend/internal/http/handlers"
	"clue_backend/internal/http/middleware"
	"clue_backend/internal/logger"
	"clue_backend/internal/metrics"
	"clue_backend/internal/service"
	"clue_backend/internal/store"
	"clue_backend/internal/ws"
)

// Version устанавливается при сборке
var Version = "dev"

func main() {
	cfg := config.Load()

	logger.Init(cfg.LogLevel, cfg.LogJSON)
	log := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Redis: снимки лобби и rate limit. Без него все живет в памяти процесса.
	var (
		rdb       *redis.Client
		lobbyRepo service.Store = store.NewMemoryStore()
	)
	if cfg.RedisAddr != "" {
		var err error
		rdb, err = store.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal("redis connect failed", "error", err)
		}
		defer rdb.Close()
		lobbyRepo = store.NewRedisStore(rdb, cfg.SnapshotTTL)
		log.Info("lobby snapshots in redis", "addr", cfg.RedisAddr, "ttl", cfg.SnapshotTTL)
	} else {
		log.Warn("REDIS_ADDR не задан: лобби не переживут перезапуск")
	}

	// Postgres: история партий и журнал лобби
	var (
		recorder service.Recorder
		history  handlers.History
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("db connect failed", "error", err)
		}
		defer pool.Close()
		if err := db.EnsureSchema(ctx, pool); err != nil {
			logger.Fatal("db schema failed", "error", err)
		}
		hs := service.NewHistoryService(pool)
		recorder, history = hs, hs
	} else {
		log.Warn("DATABASE_URL не задан: история партий отключена")
	}

	hub := ws.NewHub()
	lobbies := service.NewLobbyService(service.Options{
		Store:       lobbyRepo,
		Publisher:   hub,
		Recorder:    recorder,
		Metrics:     metrics.New(nil),
		FinishedTTL: cfg.FinishedLobbyTTL,
	})

	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	lobbies.StartCleanup(cleanupCtx, cfg.CleanupInterval)

	r := gin.Default()
	r.Use(middleware.CORS(cfg.AllowedOrigin))

	httpServer.RegisterRoutes(r, httpServer.Deps{
		Lobbies:       lobbies,
		History:       history,
		Engine:        lobbies,
		Hub:           hub,
		Tokens:        service.NewTokenIssuer(cfg.PlayerTokenSecret, cfg.PlayerTokenTTL),
		RateLimiter:   middleware.NewRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute),
		AllowedOrigin: cfg.AllowedOrigin,
		PublicURL:     cfg.PublicURL,
		Version:       Version,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		log.Info("server started", "port", cfg.AppPort, "version", Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	// воркеры лобби останавливаем после HTTP
	stopCleanup()
	lobbies.Close()

	log.Info("server exited")
}
