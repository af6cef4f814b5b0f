package main

import (
	"log/slog"
	"os"

	"github.com/Stas2664/x2-backend/internal/config"
	"github.com/Stas2664/x2-backend/internal/core"
	"github.com/Stas2664/x2-backend/internal/source"
	"github.com/spf13/cobra"
)

func newFileCmd(flags *globalFlags) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Import feeds from a local .csv or .xlsx file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := source.NewFileSource(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.Close()

			src.MaxSize = a.cfg.Import.MaxBodySize
			return runImport(cmd, a, src, replace)
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "delete all public feeds before importing")
	return cmd
}

func newSheetCmd(flags *globalFlags) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "sheet [url]",
		Short: "Import feeds from a shared spreadsheet link (defaults to GOOGLE_SHEETS_URL)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.Close()

			url := a.cfg.Import.SheetURL
			if len(args) == 1 {
				url = args[0]
			}
			if !cmd.Flags().Changed("replace") {
				replace = a.cfg.Import.ReplaceExisting
			}

			src, err := source.NewSheetSource(url, sheetOptions(a.cfg.Import, a.logger))
			if err != nil {
				return err
			}
			return runImport(cmd, a, src, replace)
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "delete all public feeds before importing (default CLEAR_FEEDS_ON_IMPORT)")
	return cmd
}

// sheetOptions builds fetch settings; retry warnings go to the CLI logger.
func sheetOptions(cfg config.ImportConfig, logger *slog.Logger) source.SheetOptions {
	return source.SheetOptions{
		Timeout:      cfg.FetchTimeout,
		Retries:      cfg.FetchRetries,
		MaxRedirects: cfg.MaxRedirects,
		MaxBodySize:  cfg.MaxBodySize,
		Rate:         cfg.FetchRate,
		Logger:       logger,
	}
}

func runImport(cmd *cobra.Command, a *app, src core.Source, replace bool) error {
	summary, err := a.service.Import(cmd.Context(), src, core.ImportOptions{ReplaceExisting: replace})
	if err != nil {
		return err
	}
	printSummary(os.Stdout, summary)
	return nil
}

func newStatsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show counts and averages over the public feeds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.service.Stats(cmd.Context())
			if err != nil {
				return err
			}
			printStats(os.Stdout, stats)
			return nil
		},
	}
}

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent imports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.Close()

			runs, err := a.store.ImportHistory(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printHistory(os.Stdout, runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of imports to show")
	return cmd
}
