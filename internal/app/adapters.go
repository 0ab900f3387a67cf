package app

import (
	"context"

	"lifelog_agent/internal/pending"
	"lifelog_agent/internal/session"
	"lifelog_agent/pkg"
)

// entryCounter feeds per-session staged entry counts into session stats. It
// wraps the pending store directly so the session manager and the pending
// service can be constructed in either order.
type entryCounter struct {
	store pending.Store
}

// NewEntryCounter adapts a pending store into a session.EntryCounter.
func NewEntryCounter(store pending.Store) session.EntryCounter {
	return entryCounter{store: store}
}

func (c entryCounter) SessionEntryCounts(ctx context.Context, sessionID string) (session.EntryCounts, error) {
	counts, err := c.store.SessionCounts(ctx, sessionID)
	if err != nil {
		return session.EntryCounts{}, err
	}
	return session.EntryCounts{
		Pending:    counts.Pending,
		Total:      counts.Total,
		ByCategory: counts.ByCategory,
	}, nil
}

// sessionMarker lets the pending service flag category coverage on the
// originating session.
type sessionMarker struct {
	sessions *session.Manager
}

// NewSessionMarker adapts a session manager into a pending.SessionMarker.
func NewSessionMarker(sessions *session.Manager) pending.SessionMarker {
	return sessionMarker{sessions: sessions}
}

func (m sessionMarker) MarkCovered(ctx context.Context, sessionID string, category pkg.Category) error {
	_, err := m.sessions.MarkCategoryCovered(ctx, sessionID, category)
	return err
}
