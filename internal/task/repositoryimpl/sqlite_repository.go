package repositoryimpl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"taskpilot/internal/task"
	"taskpilot/pkg/cerr"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT    NOT NULL,
	description TEXT    NOT NULL DEFAULT '',
	status      TEXT    NOT NULL DEFAULT 'pending',
	priority    TEXT    NOT NULL DEFAULT 'medium',
	due_date    INTEGER,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks (status);
`

// SQLiteRepository implements task.Repository over a sqlite database file.
// Each operation is its own transaction; there is no cross-call state.
type SQLiteRepository struct {
	conn *sql.DB
}

func NewSQLiteRepository(dataDir string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	conn, err := sql.Open("sqlite", filepath.Join(dataDir, "taskpilot.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return &SQLiteRepository{conn: conn}, nil
}

func (r *SQLiteRepository) Close() error {
	return r.conn.Close()
}

func (r *SQLiteRepository) Create(ctx context.Context, t *task.Task) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	res, err := r.conn.ExecContext(ctx,
		`INSERT INTO tasks (title, description, status, priority, due_date, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Title, t.Description, string(t.Status), string(t.Priority), dueDateArg(t.DueDate), t.CreatedAt.UnixNano(), t.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to insert task: %w", err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to read inserted id: %w", err))
	}
	t.ID = id
	return nil
}

const selectColumns = `id, title, description, status, priority, due_date, created_at, updated_at`

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*task.Task, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cerr.NewError(cerr.NotFound, "task not found", err)
		}
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to get task: %w", err))
	}
	return t, nil
}

func (r *SQLiteRepository) List(ctx context.Context, f task.Filter) ([]*task.Task, error) {
	var (
		conds []string
		args  []any
	)
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Priority != "" {
		conds = append(conds, "priority = ?")
		args = append(args, string(f.Priority))
	}
	if f.Search != "" {
		conds = append(conds, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		pattern := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, pattern, pattern)
	}
	if f.Overdue != nil {
		now := time.Now().UTC().Unix()
		if *f.Overdue {
			conds = append(conds, "due_date IS NOT NULL AND due_date < ? AND status != ?")
			args = append(args, now, string(task.StatusDone))
		} else {
			conds = append(conds, "(due_date IS NULL OR due_date >= ?)")
			args = append(args, now)
		}
	}

	query := `SELECT ` + selectColumns + ` FROM tasks`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
		if f.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, f.Offset)
		}
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to list tasks: %w", err))
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to scan task: %w", err))
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to iterate tasks: %w", err))
	}
	return tasks, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, t *task.Task) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := r.conn.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, due_date = ?, updated_at = ? WHERE id = ?`,
		t.Title, t.Description, string(t.Status), string(t.Priority), dueDateArg(t.DueDate), t.UpdatedAt.UnixNano(), t.ID,
	)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to update task: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to read affected rows: %w", err))
	}
	if affected == 0 {
		return cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to delete task: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to read affected rows: %w", err))
	}
	if affected == 0 {
		return cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	return nil
}

func (r *SQLiteRepository) FindByTitle(ctx context.Context, substr string) (*task.Task, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM tasks WHERE LOWER(title) LIKE ? ORDER BY created_at DESC LIMIT 1`,
		"%"+strings.ToLower(substr)+"%",
	)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cerr.NewError(cerr.NotFound, "task not found", err)
		}
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to find task by title: %w", err))
	}
	return t, nil
}

func (r *SQLiteRepository) Stats(ctx context.Context, now time.Time) (*task.Stats, error) {
	stats := &task.Stats{
		ByStatus:   map[string]int{},
		ByPriority: map[string]int{},
		Timestamp:  now,
	}

	if err := r.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&stats.TotalTasks); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to count tasks: %w", err))
	}

	if err := r.countBy(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`, stats.ByStatus); err != nil {
		return nil, err
	}
	if err := r.countBy(ctx, `SELECT priority, COUNT(*) FROM tasks GROUP BY priority`, stats.ByPriority); err != nil {
		return nil, err
	}

	err := r.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE due_date IS NOT NULL AND due_date < ? AND status != ?`,
		now.Unix(), string(task.StatusDone),
	).Scan(&stats.OverdueTasks)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to count overdue tasks: %w", err))
	}
	return stats, nil
}

func (r *SQLiteRepository) countBy(ctx context.Context, query string, dst map[string]int) error {
	rows, err := r.conn.QueryContext(ctx, query)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to aggregate tasks: %w", err))
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to scan aggregate: %w", err))
		}
		dst[key] = count
	}
	if err := rows.Err(); err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to iterate aggregates: %w", err))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*task.Task, error) {
	var (
		t         task.Task
		status    string
		priority  string
		due       sql.NullInt64
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &priority, &due, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.Status = task.Status(status)
	t.Priority = task.Priority(priority)
	if due.Valid {
		d := time.Unix(due.Int64, 0).UTC()
		t.DueDate = &d
	}
	t.CreatedAt = time.Unix(0, createdAt).UTC()
	t.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &t, nil
}

func dueDateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}
