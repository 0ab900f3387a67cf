package pending

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifelog_agent/pkg"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	return store
}

func sqliteEntry(owner string, category pkg.Category, created time.Time) *Entry {
	return &Entry{
		ID:        fmt.Sprintf("entry-%s-%d", category, created.UnixNano()),
		OwnerID:   owner,
		Category:  category,
		Summary:   "summary for " + string(category),
		RawText:   "raw text",
		Data:      map[string]any{"amount": 12.5, "merchant": "Subway"},
		Status:    pkg.StatusPending,
		SessionID: "sess-1",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestSQLiteInsertGetRoundtrip(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	entry := sqliteEntry("owner-1", pkg.CategoryExpense, time.Now().UTC().Truncate(time.Second))
	require.NoError(t, store.Insert(ctx, entry))

	got, err := store.Get(ctx, "owner-1", entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.Summary, got.Summary)
	assert.Equal(t, entry.RawText, got.RawText)
	assert.Equal(t, 12.5, got.Data["amount"])
	assert.Equal(t, "Subway", got.Data["merchant"])
	assert.Equal(t, pkg.StatusPending, got.Status)
	assert.Equal(t, "sess-1", got.SessionID)

	_, err = store.Get(ctx, "owner-2", entry.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, "owner-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteUpdate(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	entry := sqliteEntry("owner-1", pkg.CategoryTask, time.Now().UTC())
	require.NoError(t, store.Insert(ctx, entry))

	entry.Summary = "edited"
	entry.Status = pkg.StatusAccepted
	entry.Data = map[string]any{"priority": "high"}
	require.NoError(t, store.Update(ctx, entry))

	got, err := store.Get(ctx, "owner-1", entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Summary)
	assert.Equal(t, pkg.StatusAccepted, got.Status)
	assert.Equal(t, "high", got.Data["priority"])

	ghost := sqliteEntry("owner-1", pkg.CategoryTask, time.Now().UTC())
	ghost.ID = "missing"
	assert.ErrorIs(t, store.Update(ctx, ghost), ErrNotFound)
}

func TestSQLiteDelete(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	entry := sqliteEntry("owner-1", pkg.CategoryJournal, time.Now().UTC())
	require.NoError(t, store.Insert(ctx, entry))

	require.NoError(t, store.Delete(ctx, "owner-1", entry.ID))
	_, err := store.Get(ctx, "owner-1", entry.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "owner-1", entry.ID), ErrNotFound)
}

func TestSQLiteListFiltersAndPagination(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		category := pkg.CategoryTask
		if i%2 == 1 {
			category = pkg.CategoryExpense
		}
		entry := sqliteEntry("owner-1", category, base.Add(time.Duration(i)*time.Minute))
		entry.ID = fmt.Sprintf("entry-%d", i)
		require.NoError(t, store.Insert(ctx, entry))
	}
	other := sqliteEntry("owner-2", pkg.CategoryTask, base)
	other.ID = "other-owner"
	require.NoError(t, store.Insert(ctx, other))

	// Newest first across the whole listing.
	all, meta, err := store.List(ctx, "owner-1", Filter{})
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, "entry-5", all[0].ID)
	assert.Equal(t, 6, meta.Total)

	// Category filter plus pagination.
	tasks, meta, err := store.List(ctx, "owner-1", Filter{Category: pkg.CategoryTask, Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, 3, meta.Total)
	assert.Equal(t, 2, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.False(t, meta.HasPrev)
	assert.Equal(t, "entry-4", tasks[0].ID)

	page2, meta, err := store.List(ctx, "owner-1", Filter{Category: pkg.CategoryTask, Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.True(t, meta.HasPrev)
	assert.False(t, meta.HasNext)
}

func TestSQLiteSessionAndCategoryCounts(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	first := sqliteEntry("owner-1", pkg.CategoryTask, base)
	first.ID = "first"
	require.NoError(t, store.Insert(ctx, first))

	second := sqliteEntry("owner-1", pkg.CategoryTask, base.Add(time.Minute))
	second.ID = "second"
	second.Status = pkg.StatusAccepted
	require.NoError(t, store.Insert(ctx, second))

	third := sqliteEntry("owner-1", pkg.CategoryExpense, base.Add(2*time.Minute))
	third.ID = "third"
	third.SessionID = "sess-2"
	require.NoError(t, store.Insert(ctx, third))

	byCategory, err := store.PendingByCategory(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 1, byCategory[pkg.CategoryTask])
	assert.Equal(t, 1, byCategory[pkg.CategoryExpense])

	counts, err := store.SessionCounts(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Total)
	assert.Equal(t, 1, counts.Pending)
	assert.Equal(t, 2, counts.ByCategory[pkg.CategoryTask])

	pendingOnly, err := store.ListPending(ctx, "owner-1", "")
	require.NoError(t, err)
	assert.Len(t, pendingOnly, 2)

	scoped, err := store.ListPending(ctx, "owner-1", "sess-2")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "third", scoped[0].ID)
}
