package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Stas2664/x2-backend/internal/config"
	"github.com/Stas2664/x2-backend/internal/core"
	"github.com/Stas2664/x2-backend/internal/logging"
	"github.com/Stas2664/x2-backend/internal/source"
	"github.com/Stas2664/x2-backend/internal/store"
	"github.com/Stas2664/x2-backend/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver,
		"sheet_configured", cfg.Import.SheetURL != "",
		"sync_interval", cfg.Import.SyncInterval,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()
	feeds, err := store.Open(ctx, store.Options{
		Driver:          cfg.Database.Driver,
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		slog.Error("failed to open database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer feeds.Close()
	slog.Info("connected to database", "driver", cfg.Database.Driver)

	service, err := core.NewService(feeds, core.ServiceConfig{
		LockWait: cfg.Import.LockWait,
		Logger:   logger,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, cfg)

	// Cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	if cfg.Import.SheetURL != "" {
		sheet, err := source.NewSheetSource(cfg.Import.SheetURL, source.SheetOptions{
			Timeout:      cfg.Import.FetchTimeout,
			Retries:      cfg.Import.FetchRetries,
			MaxRedirects: cfg.Import.MaxRedirects,
			MaxBodySize:  cfg.Import.MaxBodySize,
			Rate:         cfg.Import.FetchRate,
			Logger:       logger,
		})
		if err != nil {
			slog.Error("invalid GOOGLE_SHEETS_URL, automatic import disabled", "error", err)
		} else {
			go service.StartSyncScheduler(jobCtx, sheet, core.SyncConfig{
				StartupDelay:    cfg.Import.StartupDelay,
				Interval:        cfg.Import.SyncInterval,
				ReplaceExisting: cfg.Import.ReplaceExisting,
			})
		}
	} else {
		slog.Info("GOOGLE_SHEETS_URL not set, automatic import disabled")
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let a running import commit or roll back before the store closes
		if service.Limiter().Busy() {
			slog.Info("waiting for import to complete")
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("import did not complete in time", "error", err)
			} else {
				slog.Info("import completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		cancelJobs()
		feeds.Close()
		os.Exit(1)
	}
	slog.Info("server stopped")
}
