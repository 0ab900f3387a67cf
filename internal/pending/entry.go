// Package pending is the staging area for AI-captured draft entries. Drafts
// wait here with status pending until the user accepts (promoting them into a
// real life-log record) or rejects them.
package pending

import (
	"errors"
	"time"

	"lifelog_agent/pkg"
)

var (
	// ErrNotFound indicates the entry does not exist or is not owned by the caller.
	ErrNotFound = errors.New("pending entry not found")
	// ErrNotPending indicates a lifecycle operation on an already accepted or
	// rejected entry.
	ErrNotPending = errors.New("entry is no longer pending")
	// ErrValidation indicates malformed draft fields at creation.
	ErrValidation = errors.New("invalid draft entry")
)

// Entry is a staged draft awaiting review.
type Entry struct {
	ID        string         `json:"id"`
	OwnerID   string         `json:"owner_id"`
	Category  pkg.Category   `json:"category"`
	Summary   string         `json:"summary"`
	RawText   string         `json:"raw_text,omitempty"`
	Data      map[string]any `json:"structured_data"`
	Status    pkg.Status     `json:"status"`
	SessionID string         `json:"session_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Filter narrows a listing. Zero values mean "no constraint".
type Filter struct {
	Category  pkg.Category
	Status    pkg.Status
	SessionID string
	Page      int
	Limit     int
}

// PageMeta describes one page of a listing.
type PageMeta struct {
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// SessionCounts summarizes entries attached to one session.
type SessionCounts struct {
	Pending    int
	Total      int
	ByCategory map[pkg.Category]int
}
