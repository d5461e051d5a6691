package models

import "time"

const (
	StatusPending    = "Pendiente"
	StatusInProgress = "En progreso"
	StatusCompleted  = "Completada"
	StatusCancelled  = "Cancelada"
)

// TaskStatuses lists every status a task or subtask may hold.
var TaskStatuses = []string{
	StatusPending,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

func IsValidTaskStatus(status string) bool {
	for _, s := range TaskStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type Task struct {
	ID              int64
	Title           string
	Description     string
	DueDate         *time.Time
	Priority        string
	Category        string
	Status          string
	CreatorID       int64
	CreatorUsername string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TaskFilter narrows a task listing. A nil CreatorID means every task.
type TaskFilter struct {
	CreatorID *int64
}

type Subtask struct {
	ID          int64
	TaskID      int64
	Description string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
