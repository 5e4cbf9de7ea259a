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
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/invpulse/internal/api"
	"github.com/andresuchdata/invpulse/internal/cache"
	"github.com/andresuchdata/invpulse/internal/config"
	"github.com/andresuchdata/invpulse/internal/domain"
	"github.com/andresuchdata/invpulse/internal/drive"
	"github.com/andresuchdata/invpulse/internal/service"
	"github.com/andresuchdata/invpulse/internal/storage"
	"github.com/andresuchdata/invpulse/pkg/logger"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the dashboard HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Usage:   "Port to listen on",
				EnvVars: []string{"SERVER_PORT"},
			},
			&cli.BoolFlag{
				Name:  "load-latest",
				Usage: "Load the newest spreadsheet from Drive or object storage on startup",
			},
			marginFlag(),
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg := config.Load()

	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsCache, err := cache.NewMetricsCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("metrics cache unavailable, continuing without it")
		metricsCache = cache.NewNoopMetricsCache()
	}

	driveService, err := newDriveService(c.Context, cfg.Drive, "")
	if err != nil {
		return err
	}
	storageSource, err := newStorageSource(cfg.Storage)
	if err != nil {
		return err
	}

	dashboard := service.NewDashboard(newReconciler(c, cfg), metricsCache)

	if c.Bool("load-latest") {
		preload(c.Context, dashboard, driveService, storageSource)
	}

	router := api.NewRouter(&api.Services{
		Dashboard:      dashboard,
		Drive:          driveService,
		Storage:        storageSource,
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
	}, cfg.Server.AllowedOrigins)

	port := cfg.Server.Port
	if c.IsSet("port") {
		port = c.String("port")
	}
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	logger.Log.Info().Msg("Server exiting")
	return nil
}

// preload restores the dashboard from the newest remote spreadsheet, Drive
// first. Failures are logged and the server starts empty.
func preload(ctx context.Context, dashboard *service.Dashboard, driveService *drive.Service, storageSource *storage.Source) {
	var sources []domain.FileSource
	if driveService != nil {
		sources = append(sources, driveService)
	}
	if storageSource != nil {
		sources = append(sources, storageSource)
	}

	for _, src := range sources {
		snap, err := dashboard.LoadLatest(ctx, src)
		if err != nil {
			logger.Log.Warn().Err(err).Str("source", domain.SourceName(src)).Msg("startup load failed")
			continue
		}
		logger.Log.Info().Str("file", snap.FileName).Int("products", len(snap.Products)).Msg("startup load complete")
		return
	}
}
