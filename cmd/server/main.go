package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/example/snapcheck/internal/analyzer"
	"github.com/example/snapcheck/internal/config"
	"github.com/example/snapcheck/internal/framer"
	"github.com/example/snapcheck/internal/handlers"
	"github.com/example/snapcheck/internal/logging"
	"github.com/example/snapcheck/internal/storage"
	"github.com/example/snapcheck/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	cfg := config.ServerFromEnv()

	logger, err := logging.NewLoggerAtLevel(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	repo := storage.NewRecordRepository(db)
	if err := repo.AutoMigrate(ctx); err != nil {
		logger.Fatal("auto migrate failed", zap.Error(err))
	}

	redisCtx, redisCancel := context.WithTimeout(ctx, 5*time.Second)
	defer redisCancel()
	cache := initCache(redisCtx, cfg.RedisAddr, logger)

	vision := analyzer.NewOpenAIAnalyzer(analyzer.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	}, logger)

	compositor, err := framer.LoadCompositor(cfg.FramesDir, logger)
	if err != nil {
		logger.Fatal("failed to load frame overlays", zap.Error(err))
	}

	photoStore := storage.NewPhotoStore(cfg.PhotosDir, cfg.PublicBaseURL, logger)

	uc := usecase.NewProcessUseCase(vision, compositor, photoStore, repo, cache, logger)

	r := gin.Default()
	r.MaxMultipartMemory = handlers.MaxUploadSize

	handlers.RegisterRoutes(r, uc, photoStore.Dir())

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	logger.Info("analysis API listening", zap.String("addr", cfg.ListenAddr))
	if err := serveHTTPServer(server, 15*time.Second, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// initCache connects to Redis, falling back to a no-op cache when it is
// unreachable. The service still works without Redis, it just re-analyzes
// photos it has already seen.
func initCache(ctx context.Context, addr string, logger *zap.Logger) usecase.Cache {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, duplicate photos will be re-analyzed",
			zap.String("addr", addr),
			zap.Error(err))
		return usecase.NoopCache{}
	}
	return usecase.NewRedisCache(client)
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

func serveHTTPServerWithListener(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, listener, nil)
}

func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var (
		sigCh       <-chan os.Signal
		stopSignals func()
	)

	if signalCh != nil {
		sigCh = signalCh
		stopSignals = func() {}
	} else {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		sigCh = ch
		stopSignals = func() {
			signal.Stop(ch)
		}
	}
	defer stopSignals()

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
