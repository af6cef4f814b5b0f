package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, store FeedStore) *Service {
	t.Helper()
	svc, err := NewService(store, ServiceConfig{LockWait: 100 * time.Millisecond})
	require.NoError(t, err)
	return svc
}

const twoFeedCSV = "Название,Бренд,Белок,Жир\n" +
	"Корм А,Acme,25,15\n" +
	"Корм Б,Acme,30,18\n"

func TestNewService_RequiresStore(t *testing.T) {
	_, err := NewService(nil, ServiceConfig{})
	assert.Error(t, err)
}

func TestImportCSV_EndToEnd(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	text := "Название,Бренд,Белок\nКорм А,Acme,25\n,Acme,30\n"
	summary, err := svc.ImportCSV(context.Background(), text, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 0, summary.Errors)
	assert.Equal(t, 2, summary.TotalRows)
	assert.Equal(t, 1, summary.Skipped)
	assert.NotEmpty(t, summary.ImportID)

	feeds, err := store.PublicFeeds(context.Background())
	require.NoError(t, err)
	require.Len(t, feeds, 1)
	assert.Equal(t, "Корм А", feeds[0].Name)
	assert.Equal(t, FeedDry, feeds[0].Type)
	assert.Equal(t, CategoryAdult, feeds[0].Category)
	assert.Equal(t, AnimalDog, feeds[0].AnimalType)
}

func TestImportCSV_ReplaceIsIdempotent(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()
	opts := ImportOptions{ReplaceExisting: true}

	_, err := svc.ImportCSV(ctx, twoFeedCSV, opts)
	require.NoError(t, err)
	first := store.publicNames()

	summary, err := svc.ImportCSV(ctx, twoFeedCSV, opts)
	require.NoError(t, err)
	second := store.publicNames()

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"Корм А", "Корм Б"}, second)
	assert.Equal(t, int64(2), summary.Replaced)
	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 0, summary.Errors)
}

func TestImportCSV_AppendCountsDuplicates(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.ImportCSV(ctx, twoFeedCSV, ImportOptions{})
	require.NoError(t, err)

	summary, err := svc.ImportCSV(ctx, twoFeedCSV+"Корм В,Acme,20,10\n", ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 2, summary.Errors)
	require.Len(t, summary.Failures, 2)
	assert.Equal(t, "Корм А", summary.Failures[0].Name)
	assert.Equal(t, 2, summary.Failures[0].Line)
	assert.Equal(t, "DB001", summary.Failures[0].Code)
	assert.Len(t, store.publicNames(), 3)
}

func TestImportCSV_DuplicateWithinBatch(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	text := "Name\nA\nA\nB\n"
	summary, err := svc.ImportCSV(context.Background(), text, ImportOptions{ReplaceExisting: true})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, 3, summary.Imported+summary.Errors)
	assert.Equal(t, []string{"A", "B"}, store.publicNames())
}

func TestImportCSV_ReplaceKeepsUserFeeds(t *testing.T) {
	store := newMemStore()
	store.addUserFeed("Мой корм", "user-1")
	svc := newTestService(t, store)

	_, err := svc.ImportCSV(context.Background(), twoFeedCSV, ImportOptions{ReplaceExisting: true})
	require.NoError(t, err)
	_, err = svc.ImportCSV(context.Background(), twoFeedCSV, ImportOptions{ReplaceExisting: true})
	require.NoError(t, err)

	var owned int
	for _, r := range store.all() {
		if r.owner == "user-1" {
			owned++
			assert.Equal(t, "Мой корм", r.feed.Name)
		}
	}
	assert.Equal(t, 1, owned)
}

func TestImportCSV_EmptyText(t *testing.T) {
	svc := newTestService(t, newMemStore())

	summary, err := svc.ImportCSV(context.Background(), "", ImportOptions{})
	assert.Nil(t, summary)
	assert.ErrorIs(t, err, ErrEmptySource)
	assert.Equal(t, StageParse, StageOf(err))
}

func TestImportCSV_NoRecordsKeepsExistingFeeds(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.ImportCSV(ctx, twoFeedCSV, ImportOptions{})
	require.NoError(t, err)

	summary, err := svc.ImportCSV(ctx, "Название,Белок\n,25\n", ImportOptions{ReplaceExisting: true})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Imported)
	assert.Equal(t, 0, summary.Errors)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, int64(0), summary.Replaced)
	assert.Len(t, store.publicNames(), 2)
}

func TestImportCSV_CommitFailureRollsBack(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.ImportCSV(ctx, twoFeedCSV, ImportOptions{})
	require.NoError(t, err)

	store.commitErr = errors.New("disk full")
	summary, err := svc.ImportCSV(ctx, "Name\nX\n", ImportOptions{ReplaceExisting: true})

	assert.Nil(t, summary)
	assert.ErrorIs(t, err, ErrTransaction)
	assert.Equal(t, StageTransaction, StageOf(err))
	assert.Equal(t, []string{"Корм А", "Корм Б"}, store.publicNames())
}

func TestImportCSV_BeginAndDeleteFailures(t *testing.T) {
	t.Run("begin", func(t *testing.T) {
		store := newMemStore()
		store.beginErr = errors.New("connection refused")
		svc := newTestService(t, store)

		_, err := svc.ImportCSV(context.Background(), twoFeedCSV, ImportOptions{})
		assert.Equal(t, StageTransaction, StageOf(err))
		assert.ErrorIs(t, err, ErrTransaction)
	})

	t.Run("delete", func(t *testing.T) {
		store := newMemStore()
		store.deleteErr = errors.New("permission denied")
		svc := newTestService(t, store)

		_, err := svc.ImportCSV(context.Background(), twoFeedCSV, ImportOptions{ReplaceExisting: true})
		assert.Equal(t, StageTransaction, StageOf(err))
		assert.Empty(t, store.publicNames())
	})
}

func TestImportCSV_PerRecordFailureDoesNotAbort(t *testing.T) {
	store := newMemStore()
	store.failInsert = func(rec FeedRecord) error {
		if rec.Name == "Корм А" {
			return errors.New("value too long for type character varying(255)")
		}
		return nil
	}
	svc := newTestService(t, store)

	summary, err := svc.ImportCSV(context.Background(), twoFeedCSV, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, []string{"Корм Б"}, store.publicNames())
}

func TestImportCSV_CancelledMidBatch(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inserts := 0
	store.onInsert = func() {
		inserts++
		if inserts == 2 {
			cancel()
		}
	}

	summary, err := svc.ImportCSV(ctx, twoFeedCSV+"Корм В,Acme,20,10\n", ImportOptions{})
	assert.Nil(t, summary)
	assert.Equal(t, StageCancelled, StageOf(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.publicNames())
}

func TestImportCSV_RecordsHistory(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	summary, err := svc.ImportCSV(context.Background(), twoFeedCSV, ImportOptions{Source: "upload.csv"})
	require.NoError(t, err)

	require.Len(t, store.imports, 1)
	run := store.imports[0]
	assert.Equal(t, summary.ImportID, run.ID)
	assert.Equal(t, "upload.csv", run.Source)
	assert.Equal(t, 2, run.Imported)
	assert.Equal(t, 2, run.TotalRows)
}

func TestImportCSV_LockHeld(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	require.NoError(t, svc.Limiter().Acquire(context.Background()))
	defer svc.Limiter().Release()

	_, err := svc.ImportCSV(context.Background(), twoFeedCSV, ImportOptions{})
	assert.ErrorIs(t, err, ErrImportInProgress)
	assert.Empty(t, store.publicNames())
}

func TestImportRecords(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	records := []FeedRecord{{Name: "A"}, {Name: "B"}, {Name: "A"}}
	summary, err := svc.ImportRecords(context.Background(), records, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalRows)
	assert.Equal(t, len(records), summary.Imported+summary.Errors)
	assert.Equal(t, 1, summary.Errors)
}

type stubSource struct {
	rows []RawRow
	err  error
}

func (s stubSource) Describe() string { return "stub" }

func (s stubSource) ReadRows(ctx context.Context) ([]RawRow, error) {
	return s.rows, s.err
}

func TestImport_FromSource(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	src := stubSource{rows: []RawRow{{"Name", "Protein"}, {"A", "25"}}}
	summary, err := svc.Import(context.Background(), src, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, "stub", summary.Source)
	assert.Equal(t, 1, summary.Imported)
}

func TestImport_SourceErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantStage Stage
		wantIs    error
	}{
		{"network failure", errors.New("dial tcp: no such host"), StageFetch, ErrFetch},
		{"wrapped fetch", fmt.Errorf("%w: status 404", ErrFetch), StageFetch, ErrFetch},
		{"unsupported file", fmt.Errorf("%w: .pdf", ErrUnsupportedSource), StageParse, ErrUnsupportedSource},
		{"empty workbook", ErrEmptySource, StageParse, ErrEmptySource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, newMemStore())

			summary, err := svc.Import(context.Background(), stubSource{err: tt.err}, ImportOptions{})
			assert.Nil(t, summary)
			assert.Equal(t, tt.wantStage, StageOf(err))
			assert.ErrorIs(t, err, tt.wantIs)
		})
	}
}
