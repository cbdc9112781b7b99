package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/readymix/internal/config"
	"github.com/Simplici0/readymix/internal/db"
	"github.com/Simplici0/readymix/internal/geocode"
	"github.com/Simplici0/readymix/internal/logging"
	"github.com/Simplici0/readymix/internal/migrations"
	"github.com/Simplici0/readymix/internal/seed"
	"github.com/Simplici0/readymix/internal/store"
	"github.com/Simplici0/readymix/internal/supplier"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := migrations.Up(ctx, database, logger); err != nil {
		return err
	}

	catalog, err := supplier.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}
	stats, err := seed.Run(ctx, database, catalog)
	if err != nil {
		return err
	}
	logger.Info("supplier catalog synced",
		zap.String("path", cfg.CatalogPath),
		zap.Int("inserts", stats.Inserts),
		zap.Int("updates", stats.Updates),
		zap.Int("deletes", stats.Deletes),
	)

	st := store.New(database)
	suppliers, err := st.ListSuppliers(ctx)
	if err != nil {
		return err
	}
	logger.Info("suppliers loaded", zap.Int("count", len(suppliers)))

	var geocoder geocode.Client
	if cfg.GeocoderBaseURL != "" {
		geocoder = geocode.New(cfg.GeocoderBaseURL, &http.Client{Timeout: cfg.GeocoderTimeout})
	}

	srv := &server{
		store:    st,
		locator:  supplier.NewLocator(suppliers),
		geocoder: geocoder,
		logger:   logger,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", httpServer.Addr), zap.String("env", cfg.Env))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
