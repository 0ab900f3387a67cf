package lifelog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// Store persists life-log records in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore initializes the life-log tables on db and returns a store.
func NewStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init lifelog schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Open opens (or creates) the SQLite database at path.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// CreateTask inserts a task for the owner and returns it with its new ID.
func (s *Store) CreateTask(ctx context.Context, ownerID string, input TaskInput) (*Task, error) {
	task := &Task{
		ID:                uuid.New().String(),
		OwnerID:           ownerID,
		Title:             input.Title,
		Description:       input.Description,
		DueDate:           input.DueDate,
		Priority:          input.Priority,
		Status:            input.Status,
		IsCompleted:       input.IsCompleted,
		EstimatedDuration: input.EstimatedDuration,
		Tags:              input.Tags,
		CreatedAt:         s.now(),
	}

	tags, err := marshalTags(task.Tags)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, owner_id, title, description, due_date, priority, status, is_completed, estimated_duration, tags, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.OwnerID, task.Title, nullString(task.Description), task.DueDate,
		task.Priority, task.Status, task.IsCompleted, nullInt(task.EstimatedDuration), tags, task.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

// CreateExpense inserts an expense for the owner and returns it with its new ID.
func (s *Store) CreateExpense(ctx context.Context, ownerID string, input ExpenseInput) (*Expense, error) {
	expense := &Expense{
		ID:            uuid.New().String(),
		OwnerID:       ownerID,
		Amount:        input.Amount,
		Currency:      input.Currency,
		Category:      input.Category,
		Subcategory:   input.Subcategory,
		Merchant:      input.Merchant,
		Description:   input.Description,
		Date:          input.Date,
		PaymentMethod: input.PaymentMethod,
		IsRecurring:   input.IsRecurring,
		Tags:          input.Tags,
		CreatedAt:     s.now(),
	}

	tags, err := marshalTags(expense.Tags)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO expenses (id, owner_id, amount, currency, category, subcategory, merchant, description, date, payment_method, is_recurring, tags, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.OwnerID, expense.Amount, expense.Currency, expense.Category,
		nullString(expense.Subcategory), nullString(expense.Merchant), nullString(expense.Description),
		expense.Date, nullString(expense.PaymentMethod), expense.IsRecurring, tags, expense.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}
	return expense, nil
}

// CreateEvent inserts a calendar event for the owner and returns it with its new ID.
func (s *Store) CreateEvent(ctx context.Context, ownerID string, input EventInput) (*Event, error) {
	event := &Event{
		ID:              uuid.New().String(),
		OwnerID:         ownerID,
		Title:           input.Title,
		Description:     input.Description,
		StartTime:       input.StartTime,
		EndTime:         input.EndTime,
		Location:        input.Location,
		Tags:            input.Tags,
		IsAllDay:        input.IsAllDay,
		ReminderMinutes: input.ReminderMinutes,
		Color:           input.Color,
		CreatedAt:       s.now(),
	}

	tags, err := marshalTags(event.Tags)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (id, owner_id, title, description, start_time, end_time, location, tags, is_all_day, reminder_minutes, color, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.OwnerID, event.Title, nullString(event.Description), event.StartTime, event.EndTime,
		nullString(event.Location), tags, event.IsAllDay, nullInt(event.ReminderMinutes),
		nullString(event.Color), event.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

// CreateJournalEntry inserts a journal entry for the owner and returns it with its new ID.
func (s *Store) CreateJournalEntry(ctx context.Context, ownerID string, input JournalInput) (*JournalEntry, error) {
	entry := &JournalEntry{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Title:     input.Title,
		Content:   input.Content,
		Mood:      input.Mood,
		Weather:   input.Weather,
		Location:  input.Location,
		CreatedAt: s.now(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO journal_entries (id, owner_id, title, content, mood, weather, location, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.OwnerID, entry.Title, entry.Content,
		nullString(entry.Mood), nullString(entry.Weather), nullString(entry.Location), entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert journal entry: %w", err)
	}
	return entry, nil
}

// GetTask retrieves an owner's task by ID.
func (s *Store) GetTask(ctx context.Context, ownerID, id string) (*Task, error) {
	var task Task
	var description, tags, priority, status sql.NullString
	var duration sql.NullInt64
	var dueDate sql.NullTime

	err := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, description, due_date, priority, status, is_completed, estimated_duration, tags, created_at
		 FROM tasks WHERE id = ? AND owner_id = ?`, id, ownerID,
	).Scan(&task.ID, &task.OwnerID, &task.Title, &description, &dueDate, &priority, &status,
		&task.IsCompleted, &duration, &tags, &task.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	task.Description = description.String
	task.Priority = priority.String
	task.Status = status.String
	task.EstimatedDuration = int(duration.Int64)
	if dueDate.Valid {
		task.DueDate = &dueDate.Time
	}
	if task.Tags, err = unmarshalTags(tags); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListExpenses returns an owner's expenses, newest first.
func (s *Store) ListExpenses(ctx context.Context, ownerID string, limit int) ([]Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, amount, currency, category, subcategory, merchant, description, date, payment_method, is_recurring, tags, created_at
		 FROM expenses WHERE owner_id = ? ORDER BY date DESC LIMIT ?`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		var e Expense
		var subcategory, merchant, description, paymentMethod, tags sql.NullString
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Amount, &e.Currency, &e.Category, &subcategory,
			&merchant, &description, &e.Date, &paymentMethod, &e.IsRecurring, &tags, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Subcategory = subcategory.String
		e.Merchant = merchant.String
		e.Description = description.String
		e.PaymentMethod = paymentMethod.String
		if e.Tags, err = unmarshalTags(tags); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// tags live as a JSON array only at the SQLite boundary
func marshalTags(tags []string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	data, err := sonic.Marshal(tags)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal tags: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalTags(tags sql.NullString) ([]string, error) {
	if !tags.Valid || tags.String == "" {
		return nil, nil
	}
	var out []string
	if err := sonic.Unmarshal([]byte(tags.String), &out); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}
