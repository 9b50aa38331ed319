package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"codecollab/internal/config"
	"codecollab/internal/http/http_server"
	"codecollab/internal/redis/redis_client"
	"codecollab/internal/roomstore"
	"codecollab/internal/services/runner"
	"codecollab/internal/ws"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Optional Redis for the execution-result cache
	var redisClient *redis.Client
	if cfg.RedisCacheHost != "" {
		redisClient, err = redis_client.NewRedisClient(cfg.RedisCacheHost, int(cfg.RedisCachePort))
		if err != nil {
			Log.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer redisClient.Close()
		Log.Debug("Redis client created successfully")
	}

	// 4. Room state + execution service
	store := roomstore.New()
	runnerSvc := runner.NewRunnerService(cfg.ExecApiUrl, cfg.ExecApiTimeout, redisClient, cfg.RedisCacheTTL)

	// 5. WebSockets hub (membership) + replication/relay server
	hub := ws.NewHub()
	wsSrv := ws.NewWsServer(hub, store)

	// 6. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, hub, store, runnerSvc)
	go func() {
		<-ctx.Done()
		_ = httpServer.Dispose()
	}()
	if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
