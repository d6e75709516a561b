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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"resilinked/backend/config"
	"resilinked/backend/internal/api/handler"
	"resilinked/backend/internal/api/router"
	"resilinked/backend/internal/repository"
	"resilinked/backend/internal/service"
	"resilinked/backend/pkg/database"
	"resilinked/backend/pkg/jwt"
	applogger "resilinked/backend/pkg/logger"
	"resilinked/backend/pkg/redis"
)

func main() {
	// 0. .env is optional
	_ = godotenv.Load()

	// 1. config
	cfg, err := config.Load(os.Getenv("RESILINKED_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting notification service",
		zap.Int("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Driver),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. store
	repo, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("open store failed", zap.Error(err))
	}

	// 4. redis is optional: without it tokens are not revocable and requests are not rate limited
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, token blacklist and rate limiting disabled", zap.Error(err))
		rdb = nil
	}

	// 5. JWT
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. Repository → Service → Handler
	svc := service.NewService(cfg, repo, logger)
	var cache handler.Pinger
	if rdb != nil {
		cache = rdb
	}
	h := handler.NewHandler(svc, cache)

	// 7. router
	if cfg.Log.Format != "console" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 8. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// 9. wait for a signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	closeStore(ctx)

	if rdb != nil {
		rdb.Close()
	}

	logger.Info("server stopped")
}

// openStore connects the configured backend and returns the repository
// aggregate plus its close function.
func openStore(cfg *config.Config, logger *zap.Logger) (*repository.Repository, func(context.Context), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		mc, err := database.NewMongo(&cfg.Mongo, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func(ctx context.Context) {
			if err := mc.Close(ctx); err != nil {
				logger.Error("mongodb disconnect failed", zap.Error(err))
			}
		}
		return repository.NewMongoRepository(mc.Collection), closeFn, nil

	default:
		db, err := database.NewDB(&cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("get sql.DB: %w", err)
		}
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			sqlDB.Close()
			return nil, nil, err
		}
		closeFn := func(context.Context) {
			if err := sqlDB.Close(); err != nil {
				logger.Error("database close failed", zap.Error(err))
			}
		}
		return repository.NewRepository(db), closeFn, nil
	}
}
