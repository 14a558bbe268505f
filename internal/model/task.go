package model

import "time"

// Task statuses accepted by the API.
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskDone       = "done"
)

// TaskStatuses lists every valid status, in workflow order.
var TaskStatuses = []string{TaskPending, TaskInProgress, TaskDone}

// Task is a row of the `tasks` table. Every task belongs to exactly one user.
type Task struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
