package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/yesid10/taskflow-api/internal/model"
)

// ErrTaskNotFound is returned when a task does not exist or belongs to
// another user. The two cases are deliberately indistinguishable.
var ErrTaskNotFound = errors.New("task not found")

const taskColumns = "id, user_id, title, description, status, created_at, updated_at"

// TaskRepo reads and writes the `tasks` table. Every query is scoped by
// user id.
type TaskRepo struct{ DB *sql.DB }

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{DB: db} }

// ListByUser returns the user's tasks, newest first.
func (r *TaskRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Task, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE user_id=? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts t and fills in its ID and timestamps.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	now := time.Now().UTC().Truncate(time.Second)
	if t.Status == "" {
		t.Status = model.TaskPending
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO tasks (user_id, title, description, status, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		t.UserID, t.Title, t.Description, t.Status, now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

// GetByIDAndUser fetches one task owned by userID.
func (r *TaskRepo) GetByIDAndUser(ctx context.Context, id, userID uint64) (model.Task, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id=? AND user_id=? LIMIT 1", id, userID)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, ErrTaskNotFound
	}
	return t, err
}

// Update persists title, description and status of t.
func (r *TaskRepo) Update(ctx context.Context, t *model.Task) error {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tasks SET title=?, description=?, status=?, updated_at=? WHERE id=? AND user_id=?",
		t.Title, t.Description, t.Status, now, t.ID, t.UserID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// zero also means "matched but unchanged" without CLIENT_FOUND_ROWS
		var one int
		err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM tasks WHERE id=? AND user_id=?", t.ID, t.UserID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTaskNotFound
		}
		if err != nil {
			return err
		}
	}
	t.UpdatedAt = now
	return nil
}

// Delete removes a task owned by userID.
func (r *TaskRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM tasks WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(s rowScanner) (model.Task, error) {
	var (
		t    model.Task
		desc sql.NullString
	)
	if err := s.Scan(&t.ID, &t.UserID, &t.Title, &desc, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return model.Task{}, err
	}
	t.Description = nullString(desc)
	return t, nil
}
