package pending

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	_ "github.com/mattn/go-sqlite3"

	"lifelog_agent/pkg"
)

//go:embed schema.sql
var schema string

// SQLiteStore persists staged entries in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore initializes the pending_entries table on db.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init pending schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, entry *Entry) error {
	data, err := marshalData(entry.Data)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pending_entries (id, owner_id, category, summary, raw_text, structured_data, status, session_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.OwnerID, string(entry.Category), entry.Summary, nullable(entry.RawText),
		data, string(entry.Status), nullable(entry.SessionID), entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert pending entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, ownerID, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, category, summary, raw_text, structured_data, status, session_id, created_at, updated_at
		 FROM pending_entries WHERE id = ? AND owner_id = ?`, id, ownerID)

	entry, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get pending entry: %w", err)
	}
	return entry, nil
}

func (s *SQLiteStore) Update(ctx context.Context, entry *Entry) error {
	data, err := marshalData(entry.Data)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE pending_entries SET summary = ?, raw_text = ?, structured_data = ?, status = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		entry.Summary, nullable(entry.RawText), data, string(entry.Status), entry.UpdatedAt,
		entry.ID, entry.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("update pending entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM pending_entries WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete pending entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, ownerID string, filter Filter) ([]Entry, PageMeta, error) {
	where := []string{"owner_id = ?"}
	args := []any{ownerID}

	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(filter.Category))
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.SessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, filter.SessionID)
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pending_entries WHERE "+clause, args...).Scan(&total); err != nil {
		return nil, PageMeta{}, fmt.Errorf("count pending entries: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 50
	}
	offset := (page - 1) * limit

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, category, summary, raw_text, structured_data, status, session_id, created_at, updated_at
		 FROM pending_entries WHERE `+clause+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, PageMeta{}, fmt.Errorf("list pending entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, PageMeta{}, err
	}

	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}
	meta := PageMeta{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
	return entries, meta, nil
}

func (s *SQLiteStore) ListPending(ctx context.Context, ownerID, sessionID string) ([]Entry, error) {
	query := `SELECT id, owner_id, category, summary, raw_text, structured_data, status, session_id, created_at, updated_at
		 FROM pending_entries WHERE owner_id = ? AND status = 'pending'`
	args := []any{ownerID}
	if sessionID != "" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (s *SQLiteStore) PendingByCategory(ctx context.Context, ownerID string) (map[pkg.Category]int, error) {
	counts := make(map[pkg.Category]int, len(pkg.AllCategories))
	for _, category := range pkg.AllCategories {
		counts[category] = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM pending_entries
		 WHERE owner_id = ? AND status = 'pending' GROUP BY category`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("count pending by category: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts[pkg.Category(category)] = count
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) SessionCounts(ctx context.Context, sessionID string) (SessionCounts, error) {
	counts := SessionCounts{ByCategory: make(map[pkg.Category]int, len(pkg.AllCategories))}
	for _, category := range pkg.AllCategories {
		counts.ByCategory[category] = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT category, status, COUNT(*) FROM pending_entries
		 WHERE session_id = ? GROUP BY category, status`, sessionID)
	if err != nil {
		return SessionCounts{}, fmt.Errorf("count session entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category, status string
		var count int
		if err := rows.Scan(&category, &status, &count); err != nil {
			return SessionCounts{}, fmt.Errorf("scan session count: %w", err)
		}
		counts.Total += count
		counts.ByCategory[pkg.Category(category)] += count
		if pkg.Status(status) == pkg.StatusPending {
			counts.Pending += count
		}
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var entry Entry
	var category, status string
	var rawText, sessionID, data sql.NullString

	err := row.Scan(&entry.ID, &entry.OwnerID, &category, &entry.Summary, &rawText,
		&data, &status, &sessionID, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return nil, err
	}

	entry.Category = pkg.Category(category)
	entry.Status = pkg.Status(status)
	entry.RawText = rawText.String
	entry.SessionID = sessionID.String

	entry.Data = map[string]any{}
	if data.Valid && data.String != "" {
		if err := sonic.Unmarshal([]byte(data.String), &entry.Data); err != nil {
			return nil, fmt.Errorf("unmarshal structured data: %w", err)
		}
	}
	return &entry, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func marshalData(data map[string]any) (string, error) {
	if data == nil {
		return "{}", nil
	}
	out, err := sonic.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal structured data: %w", err)
	}
	return string(out), nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
