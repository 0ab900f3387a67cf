package pending

import (
	"context"
	"sort"
	"sync"

	"lifelog_agent/pkg"
)

// Store persists staged entries.
type Store interface {
	Insert(ctx context.Context, entry *Entry) error
	Get(ctx context.Context, ownerID, id string) (*Entry, error)
	Update(ctx context.Context, entry *Entry) error
	Delete(ctx context.Context, ownerID, id string) error
	// List returns one page of the owner's entries, newest created first.
	List(ctx context.Context, ownerID string, filter Filter) ([]Entry, PageMeta, error)
	// ListPending returns all the owner's pending entries, newest created
	// first, optionally scoped to a session.
	ListPending(ctx context.Context, ownerID, sessionID string) ([]Entry, error)
	// PendingByCategory counts the owner's pending entries per category.
	PendingByCategory(ctx context.Context, ownerID string) (map[pkg.Category]int, error)
	// SessionCounts summarizes entries attached to the session.
	SessionCounts(ctx context.Context, sessionID string) (SessionCounts, error)
}

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty in-memory entry store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

func (m *MemoryStore) Insert(ctx context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := cloneEntry(entry)
	m.entries[entry.ID] = copied
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, ownerID, id string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[id]
	if !ok || entry.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return cloneEntry(entry), nil
}

func (m *MemoryStore) Update(ctx context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.entries[entry.ID]
	if !ok || existing.OwnerID != entry.OwnerID {
		return ErrNotFound
	}
	m.entries[entry.ID] = cloneEntry(entry)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[id]
	if !ok || entry.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, ownerID string, filter Filter) ([]Entry, PageMeta, error) {
	m.mu.RLock()
	matched := m.collect(func(e *Entry) bool {
		if e.OwnerID != ownerID {
			return false
		}
		if filter.Category != "" && e.Category != filter.Category {
			return false
		}
		if filter.Status != "" && e.Status != filter.Status {
			return false
		}
		if filter.SessionID != "" && e.SessionID != filter.SessionID {
			return false
		}
		return true
	})
	m.mu.RUnlock()

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 50
	}

	total := len(matched)
	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	meta := PageMeta{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
	return matched[start:end], meta, nil
}

func (m *MemoryStore) ListPending(ctx context.Context, ownerID, sessionID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.collect(func(e *Entry) bool {
		if e.OwnerID != ownerID || e.Status != pkg.StatusPending {
			return false
		}
		return sessionID == "" || e.SessionID == sessionID
	}), nil
}

func (m *MemoryStore) PendingByCategory(ctx context.Context, ownerID string) (map[pkg.Category]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[pkg.Category]int, len(pkg.AllCategories))
	for _, category := range pkg.AllCategories {
		counts[category] = 0
	}
	for _, entry := range m.entries {
		if entry.OwnerID == ownerID && entry.Status == pkg.StatusPending {
			counts[entry.Category]++
		}
	}
	return counts, nil
}

func (m *MemoryStore) SessionCounts(ctx context.Context, sessionID string) (SessionCounts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := SessionCounts{ByCategory: make(map[pkg.Category]int, len(pkg.AllCategories))}
	for _, category := range pkg.AllCategories {
		counts.ByCategory[category] = 0
	}
	for _, entry := range m.entries {
		if entry.SessionID != sessionID {
			continue
		}
		counts.Total++
		counts.ByCategory[entry.Category]++
		if entry.Status == pkg.StatusPending {
			counts.Pending++
		}
	}
	return counts, nil
}

// collect returns matching entries sorted newest created first.
func (m *MemoryStore) collect(match func(*Entry) bool) []Entry {
	var out []Entry
	for _, entry := range m.entries {
		if match(entry) {
			out = append(out, *cloneEntry(entry))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func cloneEntry(entry *Entry) *Entry {
	copied := *entry
	if entry.Data != nil {
		copied.Data = make(map[string]any, len(entry.Data))
		for k, v := range entry.Data {
			copied.Data[k] = v
		}
	}
	return &copied
}
