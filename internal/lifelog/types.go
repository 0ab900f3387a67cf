// Package lifelog holds the four life-log domain records and their SQLite
// persistence. Staged drafts are promoted into these records on accept.
package lifelog

import "time"

// Task is a to-do item.
type Task struct {
	ID                string     `json:"id"`
	OwnerID           string     `json:"owner_id"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	Priority          string     `json:"priority"`
	Status            string     `json:"status"`
	IsCompleted       bool       `json:"is_completed"`
	EstimatedDuration int        `json:"estimated_duration,omitempty"` // minutes
	Tags              []string   `json:"tags,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// TaskInput is the creation payload for a task.
type TaskInput struct {
	Title             string
	Description       string
	DueDate           *time.Time
	Priority          string
	Status            string
	IsCompleted       bool
	EstimatedDuration int
	Tags              []string
}

// Expense is a single spend record.
type Expense struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Category      string    `json:"category"`
	Subcategory   string    `json:"subcategory,omitempty"`
	Merchant      string    `json:"merchant,omitempty"`
	Description   string    `json:"description,omitempty"`
	Date          time.Time `json:"date"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	IsRecurring   bool      `json:"is_recurring"`
	Tags          []string  `json:"tags,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ExpenseInput is the creation payload for an expense.
type ExpenseInput struct {
	Amount        float64
	Currency      string
	Category      string
	Subcategory   string
	Merchant      string
	Description   string
	Date          time.Time
	PaymentMethod string
	IsRecurring   bool
	Tags          []string
}

// Event is a calendar entry.
type Event struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Location        string    `json:"location,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	IsAllDay        bool      `json:"is_all_day"`
	ReminderMinutes int       `json:"reminder_minutes,omitempty"`
	Color           string    `json:"color,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// EventInput is the creation payload for an event.
type EventInput struct {
	Title           string
	Description     string
	StartTime       time.Time
	EndTime         time.Time
	Location        string
	Tags            []string
	IsAllDay        bool
	ReminderMinutes int
	Color           string
}

// JournalEntry is a reflective diary record.
type JournalEntry struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Mood      string    `json:"mood,omitempty"`
	Weather   string    `json:"weather,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// JournalInput is the creation payload for a journal entry.
type JournalInput struct {
	Title    string
	Content  string
	Mood     string
	Weather  string
	Location string
}
