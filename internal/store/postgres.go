package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Stas2664/x2-backend/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgUniqueViolation is the SQLSTATE of a unique constraint failure.
const pgUniqueViolation = "23505"

// Postgres is a feed store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres parses opts.URL, applies pool limits and pings the server.
func OpenPostgres(ctx context.Context, opts Options) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) BeginImport(ctx context.Context) (core.FeedTx, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

func (p *Postgres) PublicFeeds(ctx context.Context) ([]core.StoredFeed, error) {
	rows, err := p.pool.Query(ctx, selectPublicFeeds)
	if err != nil {
		return nil, fmt.Errorf("query public feeds: %w", err)
	}

	feeds, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[core.StoredFeed])
	if err != nil {
		return nil, fmt.Errorf("scan public feeds: %w", err)
	}
	return feeds, nil
}

// ImportHistory returns the most recent import runs, newest first.
func (p *Postgres) ImportHistory(ctx context.Context, limit int) ([]core.ImportRun, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, source, imported, errors, total_rows, replaced, created_at
		FROM feed_imports
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query import history: %w", err)
	}

	runs, err := pgx.CollectRows(rows, pgx.RowToStructByName[core.ImportRun])
	if err != nil {
		return nil, fmt.Errorf("scan import history: %w", err)
	}
	return runs, nil
}

// pgTx runs one import inside a pgx transaction.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) DeletePublicFeeds(ctx context.Context) (int64, error) {
	tag, err := t.tx.Exec(ctx, deletePublicFeeds)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (t *pgTx) Savepoint(ctx context.Context, name string) error {
	return t.execSavepoint(ctx, "SAVEPOINT %s", name)
}

func (t *pgTx) RollbackToSavepoint(ctx context.Context, name string) error {
	return t.execSavepoint(ctx, "ROLLBACK TO SAVEPOINT %s", name)
}

func (t *pgTx) ReleaseSavepoint(ctx context.Context, name string) error {
	return t.execSavepoint(ctx, "RELEASE SAVEPOINT %s", name)
}

func (t *pgTx) execSavepoint(ctx context.Context, format, name string) error {
	name, err := savepointName(name)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, fmt.Sprintf(format, name))
	return err
}

var pgInsertFeed = insertFeedSQL("@")

func (t *pgTx) InsertFeed(ctx context.Context, rec core.FeedRecord) error {
	_, err := t.tx.Exec(ctx, pgInsertFeed, pgx.NamedArgs(feedArgs(rec, time.Now().UTC())))
	return classifyPgError(err)
}

var pgInsertImportRun = fmt.Sprintf(insertImportRun, "@")

func (t *pgTx) RecordImport(ctx context.Context, run core.ImportRun) error {
	_, err := t.tx.Exec(ctx, pgInsertImportRun, pgx.NamedArgs(importRunArgs(run)))
	return err
}

func (t *pgTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback is a no-op after Commit.
func (t *pgTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// classifyPgError marks unique violations as duplicate feeds.
func classifyPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", core.ErrDuplicateFeed, pgErr.Detail)
	}
	return err
}
