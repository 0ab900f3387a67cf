// Package session owns daily update conversation sessions: lifecycle,
// history, and category coverage bookkeeping.
package session

import (
	"errors"
	"time"

	"lifelog_agent/pkg"
)

var (
	// ErrNotFound indicates the session does not exist or is not owned by the caller.
	ErrNotFound = errors.New("daily update session not found")
	// ErrNoActiveSession indicates the owner has no active session.
	ErrNoActiveSession = errors.New("no active session")
)

// Roles for conversation history entries.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session tracks a single daily update conversation.
// At most one session per owner is active at a time.
type Session struct {
	ID                string                    `json:"id"`
	OwnerID           string                    `json:"owner_id"`
	StartedAt         time.Time                 `json:"started_at"`
	EndedAt           *time.Time                `json:"ended_at,omitempty"`
	IsActive          bool                      `json:"is_active"`
	CategoriesCovered []pkg.Category            `json:"categories_covered"`
	History           []pkg.ConversationMessage `json:"conversation_history"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

// Covered reports whether category has already been marked on the session.
func (s *Session) Covered(category pkg.Category) bool {
	for _, c := range s.CategoriesCovered {
		if c == category {
			return true
		}
	}
	return false
}

// LastAssistantMessage returns the most recent assistant reply, or "".
func (s *Session) LastAssistantMessage() string {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == RoleAssistant {
			return s.History[i].Content
		}
	}
	return ""
}
