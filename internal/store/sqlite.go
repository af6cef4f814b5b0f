package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Stas2664/x2-backend/internal/core"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLite is a feed store on a single SQLite database file.
type SQLite struct {
	db *sqlx.DB
}

// OpenSQLite opens (creating if needed) the database at path. A "file:" DSN
// is passed through unchanged.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite database path is required")
	}

	dsn := path
	if !strings.HasPrefix(path, "file:") {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; a second connection would only wait on the file lock.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Migrate(ctx context.Context) error {
	for _, stmt := range sqliteSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// DB exposes the handle for tests and tooling.
func (s *SQLite) DB() *sqlx.DB {
	return s.db
}

func (s *SQLite) BeginImport(ctx context.Context) (core.FeedTx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx}, nil
}

func (s *SQLite) PublicFeeds(ctx context.Context) ([]core.StoredFeed, error) {
	var feeds []core.StoredFeed
	if err := s.db.SelectContext(ctx, &feeds, selectPublicFeeds); err != nil {
		return nil, fmt.Errorf("query public feeds: %w", err)
	}
	return feeds, nil
}

// sqliteTx runs one import inside a database/sql transaction.
type sqliteTx struct {
	tx *sqlx.Tx
}

func (t *sqliteTx) DeletePublicFeeds(ctx context.Context) (int64, error) {
	res, err := t.tx.ExecContext(ctx, deletePublicFeeds)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (t *sqliteTx) Savepoint(ctx context.Context, name string) error {
	return t.execSavepoint(ctx, "SAVEPOINT %s", name)
}

func (t *sqliteTx) RollbackToSavepoint(ctx context.Context, name string) error {
	return t.execSavepoint(ctx, "ROLLBACK TO SAVEPOINT %s", name)
}

func (t *sqliteTx) ReleaseSavepoint(ctx context.Context, name string) error {
	return t.execSavepoint(ctx, "RELEASE SAVEPOINT %s", name)
}

func (t *sqliteTx) execSavepoint(ctx context.Context, format, name string) error {
	name, err := savepointName(name)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, fmt.Sprintf(format, name))
	return err
}

var sqliteInsertFeed = insertFeedSQL(":")

func (t *sqliteTx) InsertFeed(ctx context.Context, rec core.FeedRecord) error {
	_, err := t.tx.NamedExecContext(ctx, sqliteInsertFeed, feedArgs(rec, time.Now().UTC()))
	return classifySQLiteError(err)
}

var sqliteInsertImportRun = fmt.Sprintf(insertImportRun, ":")

func (t *sqliteTx) RecordImport(ctx context.Context, run core.ImportRun) error {
	_, err := t.tx.NamedExecContext(ctx, sqliteInsertImportRun, importRunArgs(run))
	return err
}

func (t *sqliteTx) Commit(ctx context.Context) error {
	return t.tx.Commit()
}

// Rollback is a no-op after Commit.
func (t *sqliteTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// classifySQLiteError marks unique violations as duplicate feeds.
func classifySQLiteError(err error) error {
	if err == nil {
		return nil
	}
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return err
	}
	code := sqlErr.Code()
	if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqlErr.Error(), "UNIQUE")) {
		return fmt.Errorf("%w: %s", core.ErrDuplicateFeed, sqlErr.Error())
	}
	return err
}

// ImportHistory returns the most recent import runs, newest first.
func (s *SQLite) ImportHistory(ctx context.Context, limit int) ([]core.ImportRun, error) {
	var runs []core.ImportRun
	err := s.db.SelectContext(ctx, &runs, `
		SELECT id, source, imported, errors, total_rows, replaced, created_at
		FROM feed_imports
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query import history: %w", err)
	}
	return runs, nil
}
