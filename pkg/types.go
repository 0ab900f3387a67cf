package pkg

import (
	"time"
)

// Core types for the daily update extraction pipeline.

// Category is one of the four life-log domains the agent captures.
type Category string

const (
	CategoryTask    Category = "task"
	CategoryExpense Category = "expense"
	CategoryEvent   Category = "event"
	CategoryJournal Category = "journal"
)

// AllCategories lists every capture category in canonical order.
var AllCategories = []Category{CategoryTask, CategoryExpense, CategoryEvent, CategoryJournal}

// ValidCategory reports whether c is one of the four capture categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryTask, CategoryExpense, CategoryEvent, CategoryJournal:
		return true
	}
	return false
}

// Status is the review state of a staged draft entry.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// ConversationMessage represents a message in conversation history
type ConversationMessage struct {
	Role      string    `json:"role"` // user, assistant
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// DraftEntry is a structured entry the model extracted from the conversation.
// It matches the create_draft_entry tool signature.
type DraftEntry struct {
	Category Category       `json:"category"`
	Summary  string         `json:"summary"`
	Details  map[string]any `json:"details"`
}

// ExtractionRequest contains input data for one conversation turn
type ExtractionRequest struct {
	UserMessage       string                `json:"user_message"`
	History           []ConversationMessage `json:"history,omitempty"`
	CategoriesCovered []Category            `json:"categories_covered,omitempty"`
	IsNewSession      bool                  `json:"is_new_session"`
}

// ExtractionResult contains the structured output of one conversation turn.
// Drafts is empty for a plain reply; a model failure is captured in Err and
// never propagated as a fatal error.
type ExtractionResult struct {
	Reply               string       `json:"reply"`
	Drafts              []DraftEntry `json:"drafts"`
	CategoriesMentioned []Category   `json:"categories_mentioned"`
	CategoriesCovered   []Category   `json:"categories_covered"`
	IsComplete          bool         `json:"is_complete"`
	Err                 string       `json:"error,omitempty"`
}
