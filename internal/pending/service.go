package pending

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lifelog_agent/internal/logger"
	"lifelog_agent/pkg"
)

// Promoter converts an accepted entry into a domain record.
type Promoter interface {
	Promote(ctx context.Context, ownerID string, category pkg.Category, summary, rawText string, data map[string]any) (string, error)
}

// SessionMarker records category coverage on the originating session.
type SessionMarker interface {
	MarkCovered(ctx context.Context, sessionID string, category pkg.Category) error
}

// Service implements the staged entry lifecycle over a Store.
type Service struct {
	store    Store
	promoter Promoter
	marker   SessionMarker
	now      func() time.Time
}

// NewService creates the lifecycle service. marker may be nil when session
// coverage tracking is not wired in.
func NewService(store Store, promoter Promoter, marker SessionMarker) *Service {
	return &Service{
		store:    store,
		promoter: promoter,
		marker:   marker,
		now:      time.Now,
	}
}

// CreateInput carries the fields for staging a new draft.
type CreateInput struct {
	Category  pkg.Category
	Summary   string
	RawText   string
	Data      map[string]any
	SessionID string
}

// Create stages a new draft with status pending. When the draft originates
// from a session, the session's category coverage is updated as well.
func (s *Service) Create(ctx context.Context, ownerID string, input CreateInput) (*Entry, error) {
	if !pkg.ValidCategory(input.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, input.Category)
	}
	if input.Summary == "" {
		return nil, fmt.Errorf("%w: summary is required", ErrValidation)
	}

	data := input.Data
	if data == nil {
		data = map[string]any{}
	}

	now := s.now()
	entry := &Entry{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Category:  input.Category,
		Summary:   input.Summary,
		RawText:   input.RawText,
		Data:      data,
		Status:    pkg.StatusPending,
		SessionID: input.SessionID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Insert(ctx, entry); err != nil {
		return nil, err
	}

	if input.SessionID != "" && s.marker != nil {
		if err := s.marker.MarkCovered(ctx, input.SessionID, input.Category); err != nil {
			logger.Warn().Err(err).
				Str("session_id", input.SessionID).
				Msg("failed to mark session category covered")
		}
	}

	return entry, nil
}

// EditInput carries the mutable fields of a pending entry. Nil means "leave
// unchanged".
type EditInput struct {
	Summary *string
	Data    map[string]any
}

// Edit overwrites the provided fields of a still-pending entry.
func (s *Service) Edit(ctx context.Context, ownerID, id string, input EditInput) (*Entry, error) {
	entry, err := s.store.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if entry.Status != pkg.StatusPending {
		return nil, ErrNotPending
	}

	if input.Summary != nil {
		entry.Summary = *input.Summary
	}
	if input.Data != nil {
		entry.Data = input.Data
	}
	entry.UpdatedAt = s.now()

	if err := s.store.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Get returns the owner's entry by ID.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*Entry, error) {
	return s.store.Get(ctx, ownerID, id)
}

// List returns one page of the owner's entries, newest created first.
func (s *Service) List(ctx context.Context, ownerID string, filter Filter) ([]Entry, PageMeta, error) {
	return s.store.List(ctx, ownerID, filter)
}

// Delete removes an entry unconditionally, regardless of status.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.store.Get(ctx, ownerID, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, ownerID, id)
}

// Reject marks a pending entry as rejected without deleting it.
func (s *Service) Reject(ctx context.Context, ownerID, id string) (*Entry, error) {
	entry, err := s.store.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if entry.Status != pkg.StatusPending {
		return nil, ErrNotPending
	}

	entry.Status = pkg.StatusRejected
	entry.UpdatedAt = s.now()

	if err := s.store.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// AcceptResult reports the outcome of accepting one entry.
type AcceptResult struct {
	EntryID       string       `json:"pending_entry_id"`
	Category      pkg.Category `json:"category"`
	CreatedItemID string       `json:"created_item_id,omitempty"`
	Success       bool         `json:"success"`
	Error         string       `json:"error,omitempty"`
}

// Accept promotes a pending entry into its domain store. The status flips to
// accepted only after promotion succeeds; on failure the entry stays pending.
func (s *Service) Accept(ctx context.Context, ownerID, id string) (*AcceptResult, error) {
	entry, err := s.store.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if entry.Status != pkg.StatusPending {
		return nil, ErrNotPending
	}

	createdID, err := s.promoter.Promote(ctx, ownerID, entry.Category, entry.Summary, entry.RawText, entry.Data)
	if err != nil {
		return nil, err
	}

	entry.Status = pkg.StatusAccepted
	entry.UpdatedAt = s.now()
	if err := s.store.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("entry promoted as %s but status update failed: %w", createdID, err)
	}

	logger.Info().
		Str("owner_id", ownerID).
		Str("entry_id", id).
		Str("category", string(entry.Category)).
		Str("created_item_id", createdID).
		Msg("pending entry accepted")

	return &AcceptResult{
		EntryID:       entry.ID,
		Category:      entry.Category,
		CreatedItemID: createdID,
		Success:       true,
	}, nil
}

// AcceptAll accepts every pending entry for the owner, optionally scoped to a
// session. It is best-effort: each entry is processed in isolation and one
// failure never aborts the rest. The returned slice has one result per entry.
func (s *Service) AcceptAll(ctx context.Context, ownerID, sessionID string) ([]AcceptResult, error) {
	entries, err := s.store.ListPending(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}

	results := make([]AcceptResult, 0, len(entries))
	for _, entry := range entries {
		result, err := s.Accept(ctx, ownerID, entry.ID)
		if err != nil {
			results = append(results, AcceptResult{
				EntryID:  entry.ID,
				Category: entry.Category,
				Success:  false,
				Error:    err.Error(),
			})
			continue
		}
		results = append(results, *result)
	}
	return results, nil
}

// Summary reports the owner's pending workload.
type Summary struct {
	TotalPending int                  `json:"total_pending"`
	ByCategory   map[pkg.Category]int `json:"by_category"`
	RecentItems  []Entry              `json:"recent_items"`
	HasPending   bool                 `json:"has_pending"`
}

// PendingSummary returns per-category pending counts and the five most recent
// pending entries.
func (s *Service) PendingSummary(ctx context.Context, ownerID string) (*Summary, error) {
	counts, err := s.store.PendingByCategory(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, count := range counts {
		total += count
	}

	recent, err := s.store.ListPending(ctx, ownerID, "")
	if err != nil {
		return nil, err
	}
	if len(recent) > 5 {
		recent = recent[:5]
	}

	return &Summary{
		TotalPending: total,
		ByCategory:   counts,
		RecentItems:  recent,
		HasPending:   total > 0,
	}, nil
}

// SessionEntryCounts summarizes entries attached to one session.
func (s *Service) SessionEntryCounts(ctx context.Context, sessionID string) (SessionCounts, error) {
	return s.store.SessionCounts(ctx, sessionID)
}
