// Package promote converts accepted staged drafts into real life-log records.
// Each category has a mapping function held in a registry, so new categories
// plug in without touching a central dispatch.
package promote

import (
	"context"
	"fmt"
	"time"

	"lifelog_agent/internal/lifelog"
	"lifelog_agent/pkg"
)

// Error reports a failed promotion for one category.
type Error struct {
	Category pkg.Category
	Reason   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to create %s: %s", e.Category, e.Reason)
}

// DefaultCurrency is used when an expense draft carries no currency.
const DefaultCurrency = "Taka"

// Draft is the slice of a staged entry the promoter needs.
type Draft struct {
	Summary string
	RawText string
	Data    map[string]any
}

// TaskCreator creates task records.
type TaskCreator interface {
	CreateTask(ctx context.Context, ownerID string, input lifelog.TaskInput) (*lifelog.Task, error)
}

// ExpenseCreator creates expense records.
type ExpenseCreator interface {
	CreateExpense(ctx context.Context, ownerID string, input lifelog.ExpenseInput) (*lifelog.Expense, error)
}

// EventCreator creates calendar event records.
type EventCreator interface {
	CreateEvent(ctx context.Context, ownerID string, input lifelog.EventInput) (*lifelog.Event, error)
}

// JournalCreator creates journal entry records.
type JournalCreator interface {
	CreateJournalEntry(ctx context.Context, ownerID string, input lifelog.JournalInput) (*lifelog.JournalEntry, error)
}

// Stores bundles the four domain creators.
type Stores struct {
	Tasks    TaskCreator
	Expenses ExpenseCreator
	Events   EventCreator
	Journal  JournalCreator
}

// Func maps one draft into a domain record and returns the created ID.
type Func func(ctx context.Context, ownerID string, draft Draft) (string, error)

// Promoter dispatches drafts to per-category mapping functions.
type Promoter struct {
	registry map[pkg.Category]Func
	now      func() time.Time
}

// New creates a promoter with the four standard category mappings registered.
func New(stores Stores) *Promoter {
	p := &Promoter{
		registry: make(map[pkg.Category]Func),
		now:      time.Now,
	}
	p.Register(pkg.CategoryTask, taskFunc(stores.Tasks))
	p.Register(pkg.CategoryExpense, p.expenseFunc(stores.Expenses))
	p.Register(pkg.CategoryEvent, p.eventFunc(stores.Events))
	p.Register(pkg.CategoryJournal, journalFunc(stores.Journal))
	return p
}

// Register binds a category to a promotion function, replacing any previous one.
func (p *Promoter) Register(category pkg.Category, fn Func) {
	p.registry[category] = fn
}

// Promote maps the draft for category into its domain store and returns the
// created record's ID. Mapping and creation failures come back as *Error.
func (p *Promoter) Promote(ctx context.Context, ownerID string, category pkg.Category, summary, rawText string, data map[string]any) (string, error) {
	fn, ok := p.registry[category]
	if !ok {
		return "", &Error{Category: category, Reason: fmt.Sprintf("unknown category %q", category)}
	}
	if data == nil {
		data = map[string]any{}
	}
	return fn(ctx, ownerID, Draft{Summary: summary, RawText: rawText, Data: data})
}

func taskFunc(tasks TaskCreator) Func {
	return func(ctx context.Context, ownerID string, draft Draft) (string, error) {
		input := lifelog.TaskInput{
			Title:       draft.Summary,
			Description: getString(draft.Data, "description"),
			Priority:    taskPriority(getString(draft.Data, "priority")),
			Status:      getString(draft.Data, "status"),
			IsCompleted: getBool(draft.Data, "is_completed"),
			Tags:        getStrings(draft.Data, "tags"),
		}
		if input.Status == "" {
			input.Status = "pending"
		}
		if due, ok := getTime(draft.Data, "due_date"); ok {
			input.DueDate = &due
		}
		if minutes, ok := getNumber(draft.Data, "estimated_duration"); ok {
			input.EstimatedDuration = int(minutes)
		}

		created, err := tasks.CreateTask(ctx, ownerID, input)
		if err != nil {
			return "", &Error{Category: pkg.CategoryTask, Reason: err.Error()}
		}
		return created.ID, nil
	}
}

func taskPriority(priority string) string {
	switch priority {
	case "low", "medium", "high":
		return priority
	}
	return "medium"
}

func (p *Promoter) expenseFunc(expenses ExpenseCreator) Func {
	return func(ctx context.Context, ownerID string, draft Draft) (string, error) {
		amount, ok := getNumber(draft.Data, "amount")
		if !ok {
			return "", &Error{Category: pkg.CategoryExpense, Reason: "amount is missing or not a number"}
		}

		input := lifelog.ExpenseInput{
			Amount:        amount,
			Currency:      getString(draft.Data, "currency"),
			Category:      getString(draft.Data, "category"),
			Subcategory:   getString(draft.Data, "subcategory"),
			Merchant:      getString(draft.Data, "merchant"),
			Description:   getString(draft.Data, "description"),
			PaymentMethod: getString(draft.Data, "payment_method"),
			IsRecurring:   getBool(draft.Data, "is_recurring"),
			Tags:          getStrings(draft.Data, "tags"),
		}
		if input.Currency == "" {
			input.Currency = DefaultCurrency
		}
		if input.Category == "" {
			input.Category = "other"
		}
		if input.Merchant == "" {
			input.Merchant = draft.Summary
		}
		if input.Description == "" {
			input.Description = draft.Summary
		}
		if date, ok := getTime(draft.Data, "date"); ok {
			input.Date = date
		} else {
			input.Date = p.now()
		}

		created, err := expenses.CreateExpense(ctx, ownerID, input)
		if err != nil {
			return "", &Error{Category: pkg.CategoryExpense, Reason: err.Error()}
		}
		return created.ID, nil
	}
}

func (p *Promoter) eventFunc(events EventCreator) Func {
	return func(ctx context.Context, ownerID string, draft Draft) (string, error) {
		start, haveStart := getTime(draft.Data, "start_time")
		end, haveEnd := getTime(draft.Data, "end_time")
		if !haveStart {
			start = p.now()
		}
		if !haveEnd || !end.After(start) {
			end = start.Add(time.Hour)
		}

		input := lifelog.EventInput{
			Title:       draft.Summary,
			Description: getString(draft.Data, "description"),
			StartTime:   start,
			EndTime:     end,
			Location:    getString(draft.Data, "location"),
			Tags:        getStrings(draft.Data, "tags"),
			IsAllDay:    getBool(draft.Data, "is_all_day"),
			Color:       getString(draft.Data, "color"),
		}
		if minutes, ok := getNumber(draft.Data, "reminder_minutes"); ok {
			input.ReminderMinutes = int(minutes)
		}

		created, err := events.CreateEvent(ctx, ownerID, input)
		if err != nil {
			return "", &Error{Category: pkg.CategoryEvent, Reason: err.Error()}
		}
		return created.ID, nil
	}
}

func journalFunc(journal JournalCreator) Func {
	return func(ctx context.Context, ownerID string, draft Draft) (string, error) {
		input := lifelog.JournalInput{
			Title:    draft.Summary,
			Content:  getString(draft.Data, "content"),
			Mood:     getString(draft.Data, "mood"),
			Weather:  getString(draft.Data, "weather"),
			Location: getString(draft.Data, "location"),
		}
		if input.Content == "" {
			input.Content = draft.Summary
		}

		created, err := journal.CreateJournalEntry(ctx, ownerID, input)
		if err != nil {
			return "", &Error{Category: pkg.CategoryJournal, Reason: err.Error()}
		}
		return created.ID, nil
	}
}
