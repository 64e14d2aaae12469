package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/snapcheck/internal/booth"
	"github.com/example/snapcheck/internal/camera"
	"github.com/example/snapcheck/internal/camera/mjpeg"
	"github.com/example/snapcheck/internal/camera/webcam"
	"github.com/example/snapcheck/internal/config"
	"github.com/example/snapcheck/internal/kiosk"
	"github.com/example/snapcheck/internal/logging"
	"github.com/example/snapcheck/internal/photo"
	"github.com/example/snapcheck/internal/present"
	"github.com/example/snapcheck/internal/stats"
	"github.com/example/snapcheck/internal/upload"
)

func main() {
	_ = godotenv.Load()

	cfg, cfgPath, err := config.LoadBooth(".")
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLoggerAtLevel(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfgPath != "" {
		logger.Info("loaded configuration", zap.String("path", cfgPath))
	} else {
		logger.Info("no configuration file found, using defaults")
	}

	manager := camera.NewManager(buildOpener(cfg, logger), camera.Constraints{
		Facing:      camera.Facing(cfg.Camera.Facing),
		IdealWidth:  cfg.Camera.IdealWidth,
		IdealHeight: cfg.Camera.IdealHeight,
	}, logger)

	compressor := &photo.Compressor{
		MaxDimension: cfg.Photo.MaxDimension,
		Quality:      cfg.Photo.Quality,
	}

	uploader := upload.NewClient(cfg.UploadURL, nil, logger)

	store := stats.NewStore(cfg.StatsPath, logger)
	counters := store.Load()
	logger.Info("usage counters loaded",
		zap.Int64("photosProcessed", counters.PhotosProcessed),
		zap.Int64("framesApplied", counters.FramesApplied),
		zap.Int64("aiAnalyses", counters.AIAnalyses))

	hub := kiosk.NewHub(logger)
	surface := kiosk.NewSurface(hub)
	presenter := present.NewPresenter(surface, nil, logger)

	wf := booth.New(booth.Config{
		Manager:         manager,
		Compressor:      compressor,
		Uploader:        uploader,
		Presenter:       presenter,
		Stats:           store,
		Surface:         surface,
		Logger:          logger,
		Facing:          camera.Facing(cfg.Camera.Facing),
		PreviewInterval: cfg.PreviewInterval(),
	})
	wf.SetStateListener(surface.StateChanged)

	router := gin.Default()
	kioskServer := kiosk.NewServer(wf, presenter, store, hub, cfg.StaticDir, logger)
	kioskServer.RegisterRoutes(router)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("booth UI listening", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		wf.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)

		hub.Close()
		return err
	})

	// The booth stays up without a camera; the page shows the failure and
	// offers a retry.
	if err := wf.Start(gctx); err != nil {
		logger.Warn("camera unavailable at startup", zap.Error(err))
	}

	if err := g.Wait(); err != nil {
		logger.Fatal("booth failed", zap.Error(err))
	}
	logger.Info("booth stopped")
}

// buildOpener picks the capture backend. MJPEG suits network cameras and
// phone streaming apps; everything else goes through the local webcam.
func buildOpener(cfg *config.Booth, logger *zap.Logger) camera.Opener {
	switch cfg.Camera.Source {
	case "mjpeg":
		return mjpeg.NewOpener(cfg.Camera.MJPEGURL, logger)
	default:
		return &webcam.Opener{
			UserDevice:        cfg.Camera.UserDevice,
			EnvironmentDevice: cfg.Camera.EnvironmentDevice,
			Logger:            logger,
		}
	}
}
