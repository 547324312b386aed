package task

import (
	"encoding/json"
	"time"
)

type CreateRequest struct {
	ParentID *int            `json:"parent_id" form:"parent_id"`
	Name     *string         `json:"name" form:"name"`
	Type     *string         `json:"type" form:"type"`
	Priority int             `json:"priority" form:"priority"`
	Executor string          `json:"executor" form:"executor"`
	Metadata json.RawMessage `json:"metadata" form:"metadata"`
}

// TransitionResponse is the uniform result of every control operation. A
// rejected transition carries the observed current status in FromStatus and
// Success=false; the node is left untouched.
type TransitionResponse struct {
	Success         bool    `json:"success"`
	TaskID          int     `json:"task_id"`
	FromStatus      string  `json:"from_status"`
	ToStatus        string  `json:"to_status"`
	ExecutionTimeMs int64   `json:"execution_time_ms"`
	Error           *string `json:"error,omitempty"`
}

type Filter struct {
	Limit  *int
	Offset *int
	Page   *int
	Status *string
	Type   *string
}

type GetChildrenRequest struct {
	ID     int
	Page   *int
	Limit  *int
	Status *string
}

// TreeNode is one node of a layered tree response. Placeholder nodes stand
// in for branches truncated by MaxDepth or the per-layer limit.
type TreeNode struct {
	ID          int         `json:"id"`
	ParentID    *int        `json:"parent_id,omitempty"`
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Status      string      `json:"status"`
	Progress    int         `json:"progress"`
	RetryCount  int         `json:"retry_count"`
	Depth       int         `json:"depth"`
	Placeholder bool        `json:"placeholder,omitempty"`
	HiddenCount int         `json:"hidden_count,omitempty"`
	CreatedAt   *time.Time  `json:"created_at,omitempty"`
	Children    []*TreeNode `json:"children,omitempty"`
}

type GetLayeredTreeRequest struct {
	RootID              int
	MaxDepth            int
	Limit               int
	Status              *string
	IncludePlaceholders bool
}

type StatisticsResponse struct {
	Total     int            `json:"total"`
	Pending   int            `json:"pending"`
	Running   int            `json:"running"`
	Paused    int            `json:"paused"`
	Cancelled int            `json:"cancelled"`
	Success   int            `json:"success"`
	Failed    int            `json:"failed"`
	ByType    map[string]int `json:"by_type"`
}

type GetListResponse struct {
	ID          int        `json:"id"`
	ParentID    *int       `json:"parent_id,omitempty"`
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	Priority    int        `json:"priority"`
	Executor    *string    `json:"executor,omitempty"`
	RetryCount  int        `json:"retry_count"`
	Reason      *string    `json:"reason,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
