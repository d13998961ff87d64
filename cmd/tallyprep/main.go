package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tallyprep/tallyprep/internal/app"
	"github.com/tallyprep/tallyprep/internal/bulkimport"
	"github.com/tallyprep/tallyprep/internal/catalog"
	"github.com/tallyprep/tallyprep/internal/export"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	snap, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Error("load catalog", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("catalog loaded",
		slog.String("path", cfg.CatalogPath),
		slog.String("version", snap.Version),
		slog.String("home", snap.HomeJurisdiction),
	)

	store := bulkimport.NewStore(cfg.BatchTTL)
	pipeline := bulkimport.NewPipeline(logger, snap)
	serializer := export.NewSerializer(cfg.CompanyName)

	catalogHandler := catalog.NewHandler(logger, snap, nil)
	bulkHandler := bulkimport.NewHandler(logger, pipeline, store, cfg.MaxUploadBytes)
	exportHandler := export.NewHandler(logger, serializer, store)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		CatalogHandler: catalogHandler,
		BulkHandler:    bulkHandler,
		ExportHandler:  exportHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
