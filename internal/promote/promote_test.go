package promote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifelog_agent/internal/lifelog"
	"lifelog_agent/pkg"
)

type fakeStores struct {
	task    *lifelog.TaskInput
	expense *lifelog.ExpenseInput
	event   *lifelog.EventInput
	journal *lifelog.JournalInput
	fail    error
}

func (f *fakeStores) CreateTask(ctx context.Context, ownerID string, input lifelog.TaskInput) (*lifelog.Task, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.task = &input
	return &lifelog.Task{ID: "task-1", OwnerID: ownerID}, nil
}

func (f *fakeStores) CreateExpense(ctx context.Context, ownerID string, input lifelog.ExpenseInput) (*lifelog.Expense, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.expense = &input
	return &lifelog.Expense{ID: "expense-1", OwnerID: ownerID}, nil
}

func (f *fakeStores) CreateEvent(ctx context.Context, ownerID string, input lifelog.EventInput) (*lifelog.Event, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.event = &input
	return &lifelog.Event{ID: "event-1", OwnerID: ownerID}, nil
}

func (f *fakeStores) CreateJournalEntry(ctx context.Context, ownerID string, input lifelog.JournalInput) (*lifelog.JournalEntry, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.journal = &input
	return &lifelog.JournalEntry{ID: "journal-1", OwnerID: ownerID}, nil
}

func newTestPromoter(fakes *fakeStores) *Promoter {
	return New(Stores{Tasks: fakes, Expenses: fakes, Events: fakes, Journal: fakes})
}

func TestPromoteTaskDefaults(t *testing.T) {
	fakes := &fakeStores{}
	promoter := newTestPromoter(fakes)

	id, err := promoter.Promote(context.Background(), "owner-1", pkg.CategoryTask,
		"Finish quarterly report", "", map[string]any{
			"description": "final numbers",
			"priority":    "urgent", // not a valid priority
			"tags":        []any{"work", "q3"},
		})
	require.NoError(t, err)
	assert.Equal(t, "task-1", id)

	require.NotNil(t, fakes.task)
	assert.Equal(t, "Finish quarterly report", fakes.task.Title)
	assert.Equal(t, "medium", fakes.task.Priority)
	assert.Equal(t, "pending", fakes.task.Status)
	assert.Equal(t, []string{"work", "q3"}, fakes.task.Tags)
}

func TestPromoteExpense(t *testing.T) {
	fakes := &fakeStores{}
	promoter := newTestPromoter(fakes)

	id, err := promoter.Promote(context.Background(), "owner-1", pkg.CategoryExpense,
		"Lunch at Subway", "", map[string]any{
			"amount":   12.5,
			"currency": "USD",
			"merchant": "Subway",
		})
	require.NoError(t, err)
	assert.Equal(t, "expense-1", id)

	require.NotNil(t, fakes.expense)
	assert.Equal(t, 12.5, fakes.expense.Amount)
	assert.Equal(t, "USD", fakes.expense.Currency)
	assert.Equal(t, "Subway", fakes.expense.Merchant)
	assert.Equal(t, "Lunch at Subway", fakes.expense.Description)
	assert.False(t, fakes.expense.Date.IsZero())
}

func TestPromoteExpenseDefaultsFromSummary(t *testing.T) {
	fakes := &fakeStores{}
	promoter := newTestPromoter(fakes)

	_, err := promoter.Promote(context.Background(), "owner-1", pkg.CategoryExpense,
		"Coffee", "", map[string]any{"amount": 150})
	require.NoError(t, err)

	assert.Equal(t, DefaultCurrency, fakes.expense.Currency)
	assert.Equal(t, "other", fakes.expense.Category)
	assert.Equal(t, "Coffee", fakes.expense.Merchant)
}

func TestPromoteExpenseMissingAmount(t *testing.T) {
	fakes := &fakeStores{}
	promoter := newTestPromoter(fakes)

	_, err := promoter.Promote(context.Background(), "owner-1", pkg.CategoryExpense,
		"Coffee", "", map[string]any{"merchant": "Cafe"})
	require.Error(t, err)

	var promoteErr *Error
	require.True(t, errors.As(err, &promoteErr))
	assert.Equal(t, pkg.CategoryExpense, promoteErr.Category)
	assert.Nil(t, fakes.expense, "no expense may be created on mapping failure")
}

func TestPromoteEventTimeDefaults(t *testing.T) {
	fakes := &fakeStores{}
	promoter := newTestPromoter(fakes)

	// no times at all -> start now, end one hour later
	_, err := promoter.Promote(context.Background(), "owner-1", pkg.CategoryEvent,
		"Dentist appointment", "", map[string]any{})
	require.NoError(t, err)
	require.NotNil(t, fakes.event)
	assert.Equal(t, time.Hour, fakes.event.EndTime.Sub(fakes.event.StartTime))

	// end before start -> forced to start plus one hour
	_, err = promoter.Promote(context.Background(), "owner-1", pkg.CategoryEvent,
		"Team sync", "", map[string]any{
			"start_time": "2026-08-30T15:00:00Z",
			"end_time":   "2026-08-30T14:00:00Z",
		})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, fakes.event.EndTime.Sub(fakes.event.StartTime))
}

func TestPromoteEventPassthrough(t *testing.T) {
	fakes := &fakeStores{}
	promoter := newTestPromoter(fakes)

	_, err := promoter.Promote(context.Background(), "owner-1", pkg.CategoryEvent,
		"Doctor visit", "", map[string]any{
			"start_time":       "2026-08-30T09:00:00Z",
			"end_time":         "2026-08-30T09:30:00Z",
			"location":         "City Clinic",
			"reminder_minutes": 15,
		})
	require.NoError(t, err)

	assert.Equal(t, "City Clinic", fakes.event.Location)
	assert.Equal(t, 15, fakes.event.ReminderMinutes)
	assert.Equal(t, 30*time.Minute, fakes.event.EndTime.Sub(fakes.event.StartTime))
}

func TestPromoteJournalContentFallback(t *testing.T) {
	fakes := &fakeStores{}
	promoter := newTestPromoter(fakes)

	_, err := promoter.Promote(context.Background(), "owner-1", pkg.CategoryJournal,
		"Rough day at work", "", map[string]any{"mood": "stressed"})
	require.NoError(t, err)

	require.NotNil(t, fakes.journal)
	assert.Equal(t, "Rough day at work", fakes.journal.Title)
	assert.Equal(t, "Rough day at work", fakes.journal.Content)
	assert.Equal(t, "stressed", fakes.journal.Mood)
}

func TestPromoteUnknownCategory(t *testing.T) {
	promoter := newTestPromoter(&fakeStores{})

	_, err := promoter.Promote(context.Background(), "owner-1", pkg.Category("habit"),
		"Morning run", "", nil)
	var promoteErr *Error
	require.True(t, errors.As(err, &promoteErr))
}

func TestPromoteWrapsStoreFailure(t *testing.T) {
	fakes := &fakeStores{fail: errors.New("disk full")}
	promoter := newTestPromoter(fakes)

	_, err := promoter.Promote(context.Background(), "owner-1", pkg.CategoryJournal,
		"Entry", "", map[string]any{})
	var promoteErr *Error
	require.True(t, errors.As(err, &promoteErr))
	assert.Contains(t, promoteErr.Reason, "disk full")
}
