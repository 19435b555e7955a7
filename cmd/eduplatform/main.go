package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"eduplatform/internal/config"
	"eduplatform/internal/logger"
	"eduplatform/internal/mysql"
	"eduplatform/internal/redis"
	"eduplatform/internal/routing"
	"eduplatform/pkg/handlers"
	"eduplatform/pkg/ratelimit"
	"eduplatform/pkg/token"
	"eduplatform/pkg/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logger.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := mysql.LoadDB(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	defer db.Close()

	var store ratelimit.Store = ratelimit.NewMemoryStore()
	if cfg.RedisAddr != "" {
		client, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer client.Close()
		store = ratelimit.NewRedisStore(client)
		logger.Info("rate limits shared via redis", "addr", cfg.RedisAddr)
	}

	codec, err := token.NewCodec(cfg.JWTSecret)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	limits := handlers.DefaultLimits()
	limits.LoginMaxAttempts = cfg.LoginMaxAttempts
	limits.LoginWindow = cfg.LoginWindow

	r := routing.NewRouter(routing.Deps{
		Users:          user.NewService(user.NewMySQLRepo(db)),
		Codec:          codec,
		Limiter:        ratelimit.New(store, logger),
		Limits:         limits,
		SecureCookie:   cfg.Production,
		Logger:         logger,
		TrustedProxies: cfg.TrustedProxies,
	})

	if err := routing.StartServer(ctx, cfg.ListenAddr, r, logger); err != nil {
		logger.Error("server", "error", err)
		os.Exit(1)
	}
}
