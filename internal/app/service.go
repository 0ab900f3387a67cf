package app

import (
	"context"
	"errors"
	"time"

	"lifelog_agent/internal/agent"
	"lifelog_agent/internal/logger"
	"lifelog_agent/internal/pending"
	"lifelog_agent/internal/ratelimit"
	"lifelog_agent/internal/session"
	"lifelog_agent/pkg"
)

// ErrSessionEnded is returned when chatting against a session that is no
// longer active.
var ErrSessionEnded = errors.New("session has ended")

// ChatFeature is the rate-limited feature name for conversation turns.
const ChatFeature = "daily_update:chat"

// Extractor is the conversational engine the service drives each turn.
type Extractor interface {
	Execute(ctx context.Context, request pkg.ExtractionRequest) *pkg.ExtractionResult
}

// Service orchestrates the daily update flow: sessions, conversation turns,
// draft staging and coverage bookkeeping.
type Service struct {
	sessions   *session.Manager
	entries    *pending.Service
	engine     Extractor
	guard      *ratelimit.Guard
	historyMax int
}

// Option customizes a Service.
type Option func(*Service)

// WithHistoryLimit caps how many prior messages each turn hands to the
// engine. Zero means unlimited.
func WithHistoryLimit(messages int) Option {
	return func(s *Service) { s.historyMax = messages }
}

// NewService wires the orchestrator. guard limits the chat surface per owner.
func NewService(sessions *session.Manager, entries *pending.Service, engine Extractor, guard *ratelimit.Guard, opts ...Option) *Service {
	s := &Service{
		sessions: sessions,
		entries:  entries,
		engine:   engine,
		guard:    guard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SessionView is the external shape of a session.
type SessionView struct {
	ID                 string         `json:"id"`
	OwnerID            string         `json:"owner_id"`
	StartedAt          time.Time      `json:"started_at"`
	EndedAt            *time.Time     `json:"ended_at,omitempty"`
	IsActive           bool           `json:"is_active"`
	CategoriesCovered  []pkg.Category `json:"categories_covered"`
	TotalItemsCaptured int            `json:"total_items_captured"`
}

// StartResult is a freshly started session plus its opening message.
type StartResult struct {
	Session  SessionView `json:"session"`
	Greeting string      `json:"greeting"`
}

// StartSession opens a new session for the owner and seeds the greeting into
// its history. Any previously active session is ended.
func (s *Service) StartSession(ctx context.Context, ownerID string) (*StartResult, error) {
	created, err := s.sessions.Start(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	seeded, err := s.sessions.AddMessage(ctx, created.ID, session.RoleAssistant, agent.Greeting)
	if err != nil {
		return nil, err
	}

	return &StartResult{
		Session:  s.view(ctx, seeded),
		Greeting: agent.Greeting,
	}, nil
}

// GetActiveSession returns the owner's active session, or
// session.ErrNoActiveSession.
func (s *Service) GetActiveSession(ctx context.Context, ownerID string) (*SessionView, error) {
	active, err := s.sessions.GetActive(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	view := s.view(ctx, active)
	return &view, nil
}

// EndSession ends the session and returns its final shape.
func (s *Service) EndSession(ctx context.Context, ownerID, sessionID string) (*SessionView, error) {
	ended, err := s.sessions.End(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	view := s.view(ctx, ended)
	return &view, nil
}

// CreatedEntry identifies one draft staged during a chat turn.
type CreatedEntry struct {
	ID       string       `json:"id"`
	Category pkg.Category `json:"category"`
	Summary  string       `json:"summary"`
}

// ChatResponse is the outcome of one conversation turn.
type ChatResponse struct {
	AIResponse        string         `json:"ai_response"`
	CreatedEntries    []CreatedEntry `json:"created_entries"`
	CategoriesCovered []pkg.Category `json:"categories_covered"`
	IsComplete        bool           `json:"is_complete"`
}

// Chat runs one turn: the user's message goes through the extraction engine,
// emitted drafts are staged as pending entries, and the session history and
// coverage are updated. Turns are rate limited per owner.
func (s *Service) Chat(ctx context.Context, ownerID, sessionID, userMessage string) (*ChatResponse, error) {
	if err := s.guard.Allow(ownerID); err != nil {
		return nil, err
	}

	current, err := s.sessions.GetByID(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	if !current.IsActive {
		return nil, ErrSessionEnded
	}

	history := current.History
	if s.historyMax > 0 && len(history) > s.historyMax {
		history = history[len(history)-s.historyMax:]
	}

	result := s.engine.Execute(ctx, pkg.ExtractionRequest{
		UserMessage:       userMessage,
		History:           history,
		CategoriesCovered: current.CategoriesCovered,
		IsNewSession:      len(current.History) <= 1,
	})

	if _, err := s.sessions.AddMessage(ctx, sessionID, session.RoleUser, userMessage); err != nil {
		return nil, err
	}

	created := []CreatedEntry{}
	for _, draft := range result.Drafts {
		entry, err := s.entries.Create(ctx, ownerID, pending.CreateInput{
			Category:  draft.Category,
			Summary:   draft.Summary,
			RawText:   userMessage,
			Data:      draft.Details,
			SessionID: sessionID,
		})
		if err != nil {
			logger.Warn().Err(err).
				Str("session_id", sessionID).
				Str("category", string(draft.Category)).
				Msg("failed to stage draft entry")
			continue
		}
		created = append(created, CreatedEntry{
			ID:       entry.ID,
			Category: entry.Category,
			Summary:  entry.Summary,
		})
	}

	// Creating entries already marks their categories; mention-detection
	// coverage still needs to land on the session.
	for _, category := range result.CategoriesCovered {
		if _, err := s.sessions.MarkCategoryCovered(ctx, sessionID, category); err != nil {
			return nil, err
		}
	}

	updated, err := s.sessions.AddMessage(ctx, sessionID, session.RoleAssistant, result.Reply)
	if err != nil {
		return nil, err
	}

	return &ChatResponse{
		AIResponse:        result.Reply,
		CreatedEntries:    created,
		CategoriesCovered: updated.CategoriesCovered,
		IsComplete:        result.IsComplete,
	}, nil
}

// CategoryStatus reports one category's coverage within a session.
type CategoryStatus struct {
	Category   pkg.Category `json:"category"`
	IsCovered  bool         `json:"is_covered"`
	ItemsCount int          `json:"items_count"`
}

// ConversationState is the review-surface snapshot of a session.
type ConversationState struct {
	SessionID         string           `json:"session_id"`
	CategoriesStatus  []CategoryStatus `json:"categories_status"`
	IsComplete        bool             `json:"is_complete"`
	PendingItemsCount int              `json:"pending_items_count"`
	LastAgentResponse string           `json:"last_agent_response"`
}

// GetConversationState returns per-category coverage and staged counts.
func (s *Service) GetConversationState(ctx context.Context, ownerID, sessionID string) (*ConversationState, error) {
	current, err := s.sessions.GetByID(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}

	stats, err := s.sessions.Stats(ctx, current)
	if err != nil {
		return nil, err
	}

	statuses := make([]CategoryStatus, 0, len(pkg.AllCategories))
	for _, category := range pkg.AllCategories {
		statuses = append(statuses, CategoryStatus{
			Category:   category,
			IsCovered:  current.Covered(category),
			ItemsCount: stats.ItemsByCategory[category],
		})
	}

	return &ConversationState{
		SessionID:         current.ID,
		CategoriesStatus:  statuses,
		IsComplete:        stats.AllCategoriesCovered,
		PendingItemsCount: stats.PendingItemsCount,
		LastAgentResponse: current.LastAssistantMessage(),
	}, nil
}

// view builds the external session shape, tolerating stats failures so a
// counting hiccup never hides the session itself.
func (s *Service) view(ctx context.Context, sess *session.Session) SessionView {
	total := 0
	if stats, err := s.sessions.Stats(ctx, sess); err == nil {
		total = stats.TotalItemsCount
	} else {
		logger.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to count session items")
	}

	return SessionView{
		ID:                 sess.ID,
		OwnerID:            sess.OwnerID,
		StartedAt:          sess.StartedAt,
		EndedAt:            sess.EndedAt,
		IsActive:           sess.IsActive,
		CategoriesCovered:  sess.CategoriesCovered,
		TotalItemsCaptured: total,
	}
}
