// Command feedimport runs feed imports and reports from the command line.
//
//	feedimport file feeds.xlsx --replace
//	feedimport sheet "https://docs.google.com/spreadsheets/d/<id>/edit"
//	feedimport stats
//	feedimport history --limit 5
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Stas2664/x2-backend/internal/config"
	"github.com/Stas2664/x2-backend/internal/core"
	"github.com/Stas2664/x2-backend/internal/logging"
	"github.com/Stas2664/x2-backend/internal/store"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// globalFlags override the matching environment variables.
type globalFlags struct {
	driver   string
	database string
	logLevel string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "feedimport",
		Short:         "Import pet food feeds from CSV, workbooks or shared spreadsheets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.driver, "driver", "", "database driver: postgres or sqlite (env DB_DRIVER)")
	root.PersistentFlags().StringVar(&flags.database, "db", "", "database URL or sqlite file (env DATABASE_URL)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (env LOG_LEVEL)")

	root.AddCommand(
		newFileCmd(flags),
		newSheetCmd(flags),
		newStatsCmd(flags),
		newHistoryCmd(flags),
	)

	return root
}

// app is the wiring shared by every subcommand.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   store.Store
	service *core.Service
}

// openApp loads configuration, applies flag overrides and opens the store.
func openApp(ctx context.Context, flags *globalFlags) (*app, error) {
	_ = godotenv.Overload()

	overrides := map[string]string{
		"DB_DRIVER":    flags.driver,
		"DATABASE_URL": flags.database,
		"LOG_LEVEL":    flags.logLevel,
	}
	for k, v := range overrides {
		if v != "" {
			os.Setenv(k, v)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	// Tables go to stdout, logs to stderr.
	logger := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	st, err := store.Open(ctx, store.Options{
		Driver:          cfg.Database.Driver,
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	svc, err := core.NewService(st, core.ServiceConfig{LockWait: cfg.Import.LockWait, Logger: logger})
	if err != nil {
		st.Close()
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, store: st, service: svc}, nil
}

func (a *app) Close() {
	a.store.Close()
}

// printError prints err with its user-facing code.
func printError(w io.Writer, err error) {
	color.New(color.FgRed, color.Bold).Fprintf(w, "✗ %s\n", core.FormatUserError(err))
	if stage := core.StageOf(err); stage != "" {
		fmt.Fprintf(w, "  stage: %s\n", stage)
	}
	fmt.Fprintf(w, "  detail: %v\n", err)
}
