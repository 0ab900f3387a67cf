package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifelog_agent/pkg"
)

type stubCounter struct {
	counts EntryCounts
}

func (s *stubCounter) SessionEntryCounts(ctx context.Context, sessionID string) (EntryCounts, error) {
	return s.counts, nil
}

func newTestManager() *Manager {
	return NewManager(NewMemoryStore(), &stubCounter{counts: EntryCounts{
		ByCategory: map[pkg.Category]int{},
	}})
}

func TestStartDeactivatesPreviousSession(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager()

	first, err := manager.Start(ctx, "owner-1")
	require.NoError(t, err)
	assert.True(t, first.IsActive)
	assert.Nil(t, first.EndedAt)

	second, err := manager.Start(ctx, "owner-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	active, err := manager.GetActive(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	previous, err := manager.GetByID(ctx, "owner-1", first.ID)
	require.NoError(t, err)
	assert.False(t, previous.IsActive)
	require.NotNil(t, previous.EndedAt)
}

func TestGetActiveWithoutSession(t *testing.T) {
	manager := newTestManager()

	_, err := manager.GetActive(context.Background(), "owner-1")
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestGetByIDEnforcesOwnership(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager()

	created, err := manager.Start(ctx, "owner-1")
	require.NoError(t, err)

	_, err = manager.GetByID(ctx, "owner-2", created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = manager.GetByID(ctx, "owner-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEndSession(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager()

	created, err := manager.Start(ctx, "owner-1")
	require.NoError(t, err)

	ended, err := manager.End(ctx, "owner-1", created.ID)
	require.NoError(t, err)
	assert.False(t, ended.IsActive)
	require.NotNil(t, ended.EndedAt)

	_, err = manager.GetActive(ctx, "owner-1")
	assert.ErrorIs(t, err, ErrNoActiveSession)

	// ending again is allowed and refreshes ended_at
	again, err := manager.End(ctx, "owner-1", created.ID)
	require.NoError(t, err)
	assert.False(t, again.IsActive)
	require.NotNil(t, again.EndedAt)
}

func TestAddMessagePreservesOrder(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager()

	created, err := manager.Start(ctx, "owner-1")
	require.NoError(t, err)

	contents := []string{"first", "second", "third"}
	for _, content := range contents {
		_, err := manager.AddMessage(ctx, created.ID, RoleUser, content)
		require.NoError(t, err)
	}

	stored, err := manager.GetByID(ctx, "owner-1", created.ID)
	require.NoError(t, err)
	require.Len(t, stored.History, 3)

	var prev time.Time
	for i, msg := range stored.History {
		assert.Equal(t, contents[i], msg.Content)
		assert.False(t, msg.Timestamp.Before(prev))
		prev = msg.Timestamp
	}
}

func TestMarkCategoryCoveredIsIdempotent(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager()

	created, err := manager.Start(ctx, "owner-1")
	require.NoError(t, err)

	_, err = manager.MarkCategoryCovered(ctx, created.ID, pkg.CategoryTask)
	require.NoError(t, err)
	updated, err := manager.MarkCategoryCovered(ctx, created.ID, pkg.CategoryTask)
	require.NoError(t, err)

	assert.Equal(t, []pkg.Category{pkg.CategoryTask}, updated.CategoriesCovered)
}

func TestStatsAllCategoriesCovered(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager()

	created, err := manager.Start(ctx, "owner-1")
	require.NoError(t, err)

	for _, category := range []pkg.Category{pkg.CategoryTask, pkg.CategoryExpense} {
		created, err = manager.MarkCategoryCovered(ctx, created.ID, category)
		require.NoError(t, err)
	}

	stats, err := manager.Stats(ctx, created)
	require.NoError(t, err)
	assert.False(t, stats.AllCategoriesCovered)

	for _, category := range []pkg.Category{pkg.CategoryEvent, pkg.CategoryJournal} {
		created, err = manager.MarkCategoryCovered(ctx, created.ID, category)
		require.NoError(t, err)
	}

	stats, err = manager.Stats(ctx, created)
	require.NoError(t, err)
	assert.True(t, stats.AllCategoriesCovered)
}

func TestLastAssistantMessage(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager()

	created, err := manager.Start(ctx, "owner-1")
	require.NoError(t, err)

	_, err = manager.AddMessage(ctx, created.ID, RoleAssistant, "hello")
	require.NoError(t, err)
	_, err = manager.AddMessage(ctx, created.ID, RoleUser, "hi")
	require.NoError(t, err)
	updated, err := manager.AddMessage(ctx, created.ID, RoleAssistant, "tell me more")
	require.NoError(t, err)

	assert.Equal(t, "tell me more", updated.LastAssistantMessage())
}
