package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ContextCheckInterval is how often, in rows, cancellation is checked.
var ContextCheckInterval = 100

// ImportCSV tokenizes CSV text and imports it.
func (s *Service) ImportCSV(ctx context.Context, text string, opts ImportOptions) (*ImportSummary, error) {
	if opts.Source == "" {
		opts.Source = "csv"
	}
	return s.importRows(ctx, Tokenize(text), opts)
}

// Import reads src and imports its rows. Read failures are fatal at the
// fetch stage, except unreadable formats which fail at the parse stage.
func (s *Service) Import(ctx context.Context, src Source, opts ImportOptions) (*ImportSummary, error) {
	if opts.Source == "" {
		opts.Source = src.Describe()
	}

	ctx, cancel := context.WithTimeout(ctx, ImportTimeout)
	defer cancel()

	rows, err := src.ReadRows(ctx)
	if err != nil {
		switch {
		case ctx.Err() != nil && errors.Is(err, context.Canceled):
			return nil, fatal(StageCancelled, err)
		case errors.Is(err, ErrUnsupportedSource), errors.Is(err, ErrEmptySource):
			return nil, fatal(StageParse, err)
		case errors.Is(err, ErrFetch):
			return nil, fatal(StageFetch, err)
		default:
			return nil, fatal(StageFetch, fmt.Errorf("%w: %w", ErrFetch, err))
		}
	}

	return s.importRows(ctx, rows, opts)
}

// importRows resolves the header, assembles the data rows and persists them.
func (s *Service) importRows(ctx context.Context, rows []RawRow, opts ImportOptions) (*ImportSummary, error) {
	if len(rows) == 0 {
		return nil, fatal(StageParse, ErrEmptySource)
	}

	idx := ResolveHeader(rows[0])
	if missing := idx.Unresolved(); len(missing) > 0 {
		s.logger.Debug("unresolved columns", "source", opts.Source, "fields", missing)
	}
	if !idx.Resolved(FieldName) {
		s.logger.Warn("no name column found, every row will be skipped", "source", opts.Source)
	}

	dataRows := rows[1:]
	records, skipped, err := Assemble(ctx, dataRows, idx)
	if err != nil {
		return nil, fatal(StageCancelled, err)
	}

	return s.persist(ctx, records, opts, len(dataRows), skipped)
}

// ImportRecords persists already normalized records.
func (s *Service) ImportRecords(ctx context.Context, records []FeedRecord, opts ImportOptions) (*ImportSummary, error) {
	if opts.Source == "" {
		opts.Source = "records"
	}
	return s.persist(ctx, records, opts, len(records), 0)
}

// persist writes records in one transaction. Each insert runs under its own
// savepoint so a rejected record is rolled back alone and counted as an
// error. Any failure of the transaction itself discards the whole batch.
func (s *Service) persist(ctx context.Context, records []FeedRecord, opts ImportOptions, totalRows, skipped int) (*ImportSummary, error) {
	start := time.Now()
	summary := &ImportSummary{
		ImportID:  uuid.NewString(),
		Source:    opts.Source,
		TotalRows: totalRows,
		Skipped:   skipped,
	}
	log := s.logger.With("import_id", summary.ImportID, "source", opts.Source)

	if len(records) == 0 {
		log.Warn("no feeds to import, existing data left untouched", "total_rows", totalRows)
		summary.Duration = time.Since(start)
		return summary, nil
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		if errors.Is(err, ErrImportInProgress) {
			return nil, err
		}
		return nil, fatal(StageCancelled, err)
	}
	defer s.limiter.Release()

	log.Info("import started", "records", len(records), "replace", opts.ReplaceExisting)

	tx, err := s.store.BeginImport(ctx)
	if err != nil {
		return nil, fatal(StageTransaction, fmt.Errorf("%w: begin: %w", ErrTransaction, err))
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
				log.Error("rollback failed", "error", rbErr)
			}
		}
	}()

	if opts.ReplaceExisting {
		n, err := tx.DeletePublicFeeds(ctx)
		if err != nil {
			return nil, s.txFailure(ctx, "delete public feeds", err)
		}
		summary.Replaced = n
	}

	for i, rec := range records {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fatal(StageCancelled, err)
			}
		}

		sp := fmt.Sprintf("sp_%d", i)
		if err := tx.Savepoint(ctx, sp); err != nil {
			return nil, s.txFailure(ctx, "create savepoint", err)
		}

		if err := tx.InsertFeed(ctx, rec); err != nil {
			if ctx.Err() != nil {
				return nil, fatal(StageCancelled, ctx.Err())
			}
			if rbErr := tx.RollbackToSavepoint(ctx, sp); rbErr != nil {
				return nil, s.txFailure(ctx, "rollback savepoint", rbErr)
			}
			summary.Errors++
			summary.Failures = append(summary.Failures, RecordFailure{
				Line:   rec.Line,
				Name:   rec.Name,
				Reason: err.Error(),
				Code:   MapError(err).Code,
			})
			log.Warn("feed rejected", "line", rec.Line, "name", rec.Name, "error", err)
			continue
		}

		if err := tx.ReleaseSavepoint(ctx, sp); err != nil {
			return nil, s.txFailure(ctx, "release savepoint", err)
		}
		summary.Imported++
	}

	run := ImportRun{
		ID:        summary.ImportID,
		Source:    summary.Source,
		Imported:  summary.Imported,
		Errors:    summary.Errors,
		TotalRows: summary.TotalRows,
		Replaced:  summary.Replaced,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.RecordImport(ctx, run); err != nil {
		return nil, s.txFailure(ctx, "record import", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, s.txFailure(ctx, "commit", err)
	}
	committed = true

	summary.Duration = time.Since(start)
	log.Info("import completed",
		slog.Int("imported", summary.Imported),
		slog.Int("errors", summary.Errors),
		slog.Int("total_rows", summary.TotalRows),
		slog.Int("skipped", summary.Skipped),
		slog.Int64("replaced", summary.Replaced),
		slog.Int64("duration_ms", summary.Duration.Milliseconds()),
	)

	return summary, nil
}

// txFailure classifies a transaction-level error, preferring cancellation
// when the context is done.
func (s *Service) txFailure(ctx context.Context, op string, err error) *ImportError {
	if ctx.Err() != nil {
		return fatal(StageCancelled, ctx.Err())
	}
	return fatal(StageTransaction, fmt.Errorf("%w: %s: %w", ErrTransaction, op, err))
}
