package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory FeedStore with savepoint semantics and a
// unique feed name, used to exercise the orchestrator without a database.
type memStore struct {
	mu      sync.Mutex
	rows    []memRow
	imports []ImportRun
	nextID  int64

	beginErr   error
	deleteErr  error
	commitErr  error
	failInsert func(FeedRecord) error
	onInsert   func()
}

type memRow struct {
	feed  StoredFeed
	owner string
}

func newMemStore() *memStore {
	return &memStore{}
}

// addUserFeed seeds a feed owned by an end user.
func (s *memStore) addUserFeed(name, owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.rows = append(s.rows, memRow{
		feed:  StoredFeed{FeedRecord: FeedRecord{Name: name}, ID: s.nextID},
		owner: owner,
	})
}

func (s *memStore) BeginImport(ctx context.Context) (FeedTx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return &memTx{
		store:      s,
		rows:       append([]memRow(nil), s.rows...),
		nextID:     s.nextID,
		savepoints: make(map[string][]memRow),
	}, nil
}

func (s *memStore) PublicFeeds(ctx context.Context) ([]StoredFeed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []StoredFeed
	for _, r := range s.rows {
		if r.owner == "" {
			out = append(out, r.feed)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) all() []memRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]memRow(nil), s.rows...)
}

func (s *memStore) publicNames() []string {
	feeds, _ := s.PublicFeeds(context.Background())
	names := make([]string, len(feeds))
	for i, f := range feeds {
		names[i] = f.Name
	}
	return names
}

type memTx struct {
	store      *memStore
	rows       []memRow
	imports    []ImportRun
	nextID     int64
	savepoints map[string][]memRow
	done       bool
}

func (tx *memTx) DeletePublicFeeds(ctx context.Context) (int64, error) {
	if tx.store.deleteErr != nil {
		return 0, tx.store.deleteErr
	}
	kept := tx.rows[:0:0]
	var n int64
	for _, r := range tx.rows {
		if r.owner == "" {
			n++
			continue
		}
		kept = append(kept, r)
	}
	tx.rows = kept
	return n, nil
}

func (tx *memTx) Savepoint(ctx context.Context, name string) error {
	tx.savepoints[name] = append([]memRow(nil), tx.rows...)
	return nil
}

func (tx *memTx) RollbackToSavepoint(ctx context.Context, name string) error {
	snap, ok := tx.savepoints[name]
	if !ok {
		return fmt.Errorf("savepoint %q does not exist", name)
	}
	tx.rows = append([]memRow(nil), snap...)
	return nil
}

func (tx *memTx) ReleaseSavepoint(ctx context.Context, name string) error {
	delete(tx.savepoints, name)
	return nil
}

func (tx *memTx) InsertFeed(ctx context.Context, rec FeedRecord) error {
	if tx.store.onInsert != nil {
		tx.store.onInsert()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if tx.store.failInsert != nil {
		if err := tx.store.failInsert(rec); err != nil {
			return err
		}
	}
	for _, r := range tx.rows {
		if r.feed.Name == rec.Name {
			return fmt.Errorf("insert feed %q: %w", rec.Name, ErrDuplicateFeed)
		}
	}
	tx.nextID++
	rec.Line = 0
	tx.rows = append(tx.rows, memRow{feed: StoredFeed{FeedRecord: rec, ID: tx.nextID, UpdatedAt: time.Now()}})
	return nil
}

func (tx *memTx) RecordImport(ctx context.Context, run ImportRun) error {
	tx.imports = append(tx.imports, run)
	return nil
}

func (tx *memTx) Commit(ctx context.Context) error {
	if tx.done {
		return errors.New("tx already closed")
	}
	if tx.store.commitErr != nil {
		return tx.store.commitErr
	}
	tx.done = true
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	tx.store.rows = tx.rows
	tx.store.nextID = tx.nextID
	tx.store.imports = append(tx.store.imports, tx.imports...)
	return nil
}

func (tx *memTx) Rollback(ctx context.Context) error {
	tx.done = true
	return nil
}
