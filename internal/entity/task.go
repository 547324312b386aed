package entity

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// TaskStatus is the lifecycle state of an orchestration tree node.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskPaused    TaskStatus = "paused"
	TaskCancelled TaskStatus = "cancelled"
	TaskSuccess   TaskStatus = "success"
	TaskFailed    TaskStatus = "failed"
)

// taskTransitions is the complete legal transition table. Anything not listed
// here is rejected without mutating the node.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskPending: {TaskRunning, TaskCancelled},
	TaskRunning: {TaskPaused, TaskSuccess, TaskFailed, TaskCancelled},
	TaskPaused:  {TaskRunning, TaskCancelled},
	TaskFailed:  {TaskRunning}, // retry
}

// CanTransition reports whether from -> to is in the legal transition table.
func (from TaskStatus) CanTransition(to TaskStatus) bool {
	for _, s := range taskTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status is an end state.
func (s TaskStatus) Terminal() bool {
	return s == TaskSuccess || s == TaskFailed || s == TaskCancelled
}

// Task is one node of the orchestration tree. Sync runs create a parent node
// plus one child per phase; nodes are only removed by an explicit purge.
type Task struct {
	bun.BaseModel `bun:"table:tasks"`

	ID          int             `json:"id" bun:"id,pk,autoincrement"`
	ParentID    *int            `json:"parent_id,omitempty" bun:"parent_id"`
	Name        string          `json:"name" bun:"name"`
	Type        string          `json:"type" bun:"type"`
	Status      TaskStatus      `json:"status" bun:"status"`
	Progress    int             `json:"progress" bun:"progress"`
	Priority    int             `json:"priority" bun:"priority"`
	Executor    string          `json:"executor" bun:"executor"`
	Metadata    json.RawMessage `json:"metadata,omitempty" bun:"metadata"`
	RetryCount  int             `json:"retry_count" bun:"retry_count"`
	Reason      *string         `json:"reason,omitempty" bun:"reason"`
	Error       *string         `json:"error,omitempty" bun:"error"`
	CreatedAt   time.Time       `json:"created_at" bun:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty" bun:"updated_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty" bun:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" bun:"completed_at"`
}
