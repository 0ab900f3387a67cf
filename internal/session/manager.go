package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lifelog_agent/internal/logger"
	"lifelog_agent/pkg"
)

// EntryCounts summarizes staged entries attached to one session.
type EntryCounts struct {
	Pending    int
	Total      int
	ByCategory map[pkg.Category]int
}

// EntryCounter exposes the staged entry statistics the manager needs.
type EntryCounter interface {
	SessionEntryCounts(ctx context.Context, sessionID string) (EntryCounts, error)
}

// Stats describes the state of one session including staged entry counts.
type Stats struct {
	SessionID            string                `json:"session_id"`
	IsActive             bool                  `json:"is_active"`
	CategoriesCovered    []pkg.Category        `json:"categories_covered"`
	PendingItemsCount    int                   `json:"pending_items_count"`
	TotalItemsCount      int                   `json:"total_items_count"`
	ItemsByCategory      map[pkg.Category]int  `json:"items_by_category"`
	AllCategoriesCovered bool                  `json:"all_categories_covered"`
}

// Manager owns session lifecycle and coverage bookkeeping.
type Manager struct {
	store   Store
	entries EntryCounter
	now     func() time.Time
}

// NewManager creates a session manager over store, querying entries for stats.
func NewManager(store Store, entries EntryCounter) *Manager {
	return &Manager{
		store:   store,
		entries: entries,
		now:     time.Now,
	}
}

// Start creates a new active session for the owner. Any previously active
// session is ended first, so repeated calls leave exactly one active session.
func (m *Manager) Start(ctx context.Context, ownerID string) (*Session, error) {
	if prevID, err := m.store.ActiveID(ctx, ownerID); err != nil {
		return nil, err
	} else if prevID != "" {
		prev, err := m.store.Get(ctx, prevID)
		if err == nil && prev.IsActive {
			m.deactivate(prev)
			if err := m.store.Save(ctx, prev); err != nil {
				return nil, fmt.Errorf("failed to end previous session: %w", err)
			}
		}
	}

	now := m.now()
	created := &Session{
		ID:                uuid.New().String(),
		OwnerID:           ownerID,
		StartedAt:         now,
		IsActive:          true,
		CategoriesCovered: []pkg.Category{},
		History:           []pkg.ConversationMessage{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := m.store.Save(ctx, created); err != nil {
		return nil, err
	}
	if err := m.store.SetActiveID(ctx, ownerID, created.ID); err != nil {
		return nil, err
	}

	logger.Info().
		Str("owner_id", ownerID).
		Str("session_id", created.ID).
		Msg("daily update session started")

	return created, nil
}

// GetActive returns the owner's active session, or ErrNoActiveSession.
func (m *Manager) GetActive(ctx context.Context, ownerID string) (*Session, error) {
	id, err := m.store.ActiveID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ErrNoActiveSession
	}

	active, err := m.store.Get(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrNoActiveSession
		}
		return nil, err
	}
	if !active.IsActive || active.OwnerID != ownerID {
		return nil, ErrNoActiveSession
	}
	return active, nil
}

// GetByID returns the owner's session, or ErrNotFound when absent or not owned.
func (m *Manager) GetByID(ctx context.Context, ownerID, sessionID string) (*Session, error) {
	found, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if found.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return found, nil
}

// End marks the session as ended. Ending an already ended session re-sets its
// end time.
func (m *Manager) End(ctx context.Context, ownerID, sessionID string) (*Session, error) {
	ended, err := m.GetByID(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}

	m.deactivate(ended)
	if err := m.store.Save(ctx, ended); err != nil {
		return nil, err
	}

	if activeID, err := m.store.ActiveID(ctx, ownerID); err == nil && activeID == sessionID {
		if err := m.store.ClearActiveID(ctx, ownerID); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("owner_id", ownerID).
		Str("session_id", sessionID).
		Msg("daily update session ended")

	return ended, nil
}

// AddMessage appends a message to the session history in call order.
func (m *Manager) AddMessage(ctx context.Context, sessionID, role, content string) (*Session, error) {
	target, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	target.History = append(target.History, pkg.ConversationMessage{
		Role:      role,
		Content:   content,
		Timestamp: m.now(),
	})
	target.UpdatedAt = m.now()

	if err := m.store.Save(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}

// MarkCategoryCovered adds category to the covered set. Already covered
// categories are a no-op.
func (m *Manager) MarkCategoryCovered(ctx context.Context, sessionID string, category pkg.Category) (*Session, error) {
	target, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if target.Covered(category) {
		return target, nil
	}

	target.CategoriesCovered = append(target.CategoriesCovered, category)
	target.UpdatedAt = m.now()

	if err := m.store.Save(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}

// Stats returns coverage and staged entry statistics for the session.
func (m *Manager) Stats(ctx context.Context, s *Session) (Stats, error) {
	counts, err := m.entries.SessionEntryCounts(ctx, s.ID)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count session entries: %w", err)
	}

	return Stats{
		SessionID:            s.ID,
		IsActive:             s.IsActive,
		CategoriesCovered:    s.CategoriesCovered,
		PendingItemsCount:    counts.Pending,
		TotalItemsCount:      counts.Total,
		ItemsByCategory:      counts.ByCategory,
		AllCategoriesCovered: len(s.CategoriesCovered) >= len(pkg.AllCategories),
	}, nil
}

func (m *Manager) deactivate(s *Session) {
	now := m.now()
	s.IsActive = false
	s.EndedAt = &now
	s.UpdatedAt = now
}
