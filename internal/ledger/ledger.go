// Package ledger implements the durable task ledger. It is the source of
// truth for which tasks exist and doubles as the idempotency gate: a task
// id can be created exactly once across all instances sharing the database.
package ledger

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Task statuses.
const (
	StatusClaimed = "claimed"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Task is one row in the tasks table.
type Task struct {
	ID          string
	Source      string
	ExternalRef string
	Agent       string
	Status      string
	Title       string
	CreatedAt   string
	UpdatedAt   string
}

// Message is one conversation message attached to a task.
type Message struct {
	TaskID    string
	Role      string
	Content   string
	Timestamp string
}

// Ledger wraps the sqlite task database.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at dbPath and applies
// the schema.
func Open(dbPath string) (*Ledger, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger db: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// CreateTask inserts the task if its id is not already present and reports
// whether this call performed the insert. The insert is a single atomic
// statement, so exactly one caller wins for any given id.
func (l *Ledger) CreateTask(id, source, externalRef, agent, title string) (bool, error) {
	now := utcNow()
	res, err := l.db.Exec(
		`INSERT OR IGNORE INTO tasks (id, source, external_ref, agent, status, title, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, source, externalRef, agent, StatusClaimed, title, now, now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

// IsKnown reports whether a task with the given id exists.
func (l *Ledger) IsKnown(id string) (bool, error) {
	var one int
	err := l.db.QueryRow(`SELECT 1 FROM tasks WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query task: %w", err)
	}
	return true, nil
}

// UpdateStatus sets the task status and refreshes updated_at.
func (l *Ledger) UpdateStatus(id, status string) error {
	_, err := l.db.Exec(
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		status, utcNow(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}
	return nil
}

// GetTask returns the task with the given id, or nil if absent.
func (l *Ledger) GetTask(id string) (*Task, error) {
	row := l.db.QueryRow(
		`SELECT id, source, external_ref, agent, status, title, created_at, updated_at
		 FROM tasks WHERE id = ?`, id)
	var t Task
	err := row.Scan(&t.ID, &t.Source, &t.ExternalRef, &t.Agent, &t.Status, &t.Title, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// ListTasks returns tasks newest first, optionally filtered by status.
func (l *Ledger) ListTasks(status string) ([]Task, error) {
	query := `SELECT id, source, external_ref, agent, status, title, created_at, updated_at
		FROM tasks`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Source, &t.ExternalRef, &t.Agent, &t.Status, &t.Title, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// AddMessage appends a conversation message to the task's transcript.
func (l *Ledger) AddMessage(taskID, role, content string) error {
	_, err := l.db.Exec(
		`INSERT INTO messages (task_id, role, content, timestamp) VALUES (?, ?, ?, ?)`,
		taskID, role, content, utcNow(),
	)
	if err != nil {
		return fmt.Errorf("failed to add message: %w", err)
	}
	return nil
}

// GetConversation returns the task's messages in insertion order.
func (l *Ledger) GetConversation(taskID string) ([]Message, error) {
	rows, err := l.db.Query(
		`SELECT task_id, role, content, timestamp FROM messages WHERE task_id = ? ORDER BY id`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.TaskID, &m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func utcNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}
