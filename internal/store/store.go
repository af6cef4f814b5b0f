// Package store implements core.FeedStore on PostgreSQL and SQLite.
//
// Both backends keep the same two tables. A feed with a NULL user_id is
// public and belongs to the importer; feeds with an owner are never touched
// by an import.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Stas2664/x2-backend/internal/core"
)

// Store is a migrated, closable feed store.
type Store interface {
	core.FeedStore
	ImportHistory(ctx context.Context, limit int) ([]core.ImportRun, error)
	Migrate(ctx context.Context) error
	Close() error
}

// Options selects and tunes a backend.
type Options struct {
	Driver string // postgres or sqlite
	URL    string

	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Open connects to the configured backend and applies the schema.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)

	switch strings.ToLower(opts.Driver) {
	case "postgres", "postgresql", "pgx":
		s, err = OpenPostgres(ctx, opts)
	case "sqlite", "sqlite3", "":
		s, err = OpenSQLite(ctx, opts.URL)
	default:
		return nil, fmt.Errorf("unknown database driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// feedColumns lists the columns written by an import, in insert order.
var feedColumns = []string{
	"name", "brand", "type", "animal_type", "category",
	"metabolizable_energy", "protein", "fat", "fiber", "ash", "moisture", "carbohydrates",
	"calcium", "phosphorus", "vitamin_a", "vitamin_d", "ingredients",
}

const selectPublicFeeds = `
	SELECT id, name, brand, type, animal_type, category,
	       metabolizable_energy, protein, fat, fiber, ash, moisture, carbohydrates,
	       calcium, phosphorus, vitamin_a, vitamin_d, ingredients, updated_at
	FROM feeds
	WHERE user_id IS NULL
	ORDER BY name`

const deletePublicFeeds = `DELETE FROM feeds WHERE user_id IS NULL`

// insertFeedSQL builds the feed insert with the given named-parameter prefix
// (":" for sqlx, "@" for pgx).
func insertFeedSQL(prefix string) string {
	params := make([]string, len(feedColumns))
	for i, c := range feedColumns {
		params[i] = prefix + c
	}
	return fmt.Sprintf(
		"INSERT INTO feeds (%s, is_public, created_at, updated_at) VALUES (%s, TRUE, %snow, %snow)",
		strings.Join(feedColumns, ", "),
		strings.Join(params, ", "),
		prefix, prefix,
	)
}

// feedArgs maps a record onto the insert's named parameters.
func feedArgs(rec core.FeedRecord, now time.Time) map[string]any {
	return map[string]any{
		"name":                 rec.Name,
		"brand":                rec.Brand,
		"type":                 string(rec.Type),
		"animal_type":          string(rec.AnimalType),
		"category":             string(rec.Category),
		"metabolizable_energy": rec.MetabolizableEnergy,
		"protein":              rec.Protein,
		"fat":                  rec.Fat,
		"fiber":                rec.Fiber,
		"ash":                  rec.Ash,
		"moisture":             rec.Moisture,
		"carbohydrates":        rec.Carbohydrates,
		"calcium":              rec.Calcium,
		"phosphorus":           rec.Phosphorus,
		"vitamin_a":            rec.VitaminA,
		"vitamin_d":            rec.VitaminD,
		"ingredients":          rec.Ingredients,
		"now":                  now,
	}
}

const insertImportRun = `
	INSERT INTO feed_imports (id, source, imported, errors, total_rows, replaced, created_at)
	VALUES (%[1]sid, %[1]ssource, %[1]simported, %[1]serrors, %[1]stotal_rows, %[1]sreplaced, %[1]screated_at)`

func importRunArgs(run core.ImportRun) map[string]any {
	return map[string]any{
		"id":         run.ID,
		"source":     run.Source,
		"imported":   run.Imported,
		"errors":     run.Errors,
		"total_rows": run.TotalRows,
		"replaced":   run.Replaced,
		"created_at": run.CreatedAt,
	}
}

// savepointName guards the identifier spliced into SAVEPOINT statements.
func savepointName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty savepoint name")
	}
	for _, r := range name {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return "", fmt.Errorf("invalid savepoint name %q", name)
		}
	}
	return name, nil
}
