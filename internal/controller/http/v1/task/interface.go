package task

import (
	"context"

	"classroom/backend/internal/entity"
	"classroom/backend/internal/repository/postgres/task"
)

type Task interface {
	Create(ctx context.Context, request task.CreateRequest) (entity.Task, error)
	GetById(ctx context.Context, id int) (entity.Task, error)
	GetList(ctx context.Context, filter task.Filter) ([]task.GetListResponse, int, error)
	GetChildren(ctx context.Context, request task.GetChildrenRequest) ([]task.GetListResponse, int, error)
	GetLayeredTree(ctx context.Context, request task.GetLayeredTreeRequest) (*task.TreeNode, error)
	GetStatistics(ctx context.Context) (task.StatisticsResponse, error)
	Pause(ctx context.Context, id int, reason string) (task.TransitionResponse, error)
	Resume(ctx context.Context, id int, reason string) (task.TransitionResponse, error)
	Cancel(ctx context.Context, id int, reason string) (task.TransitionResponse, error)
	Retry(ctx context.Context, id int, reason string) (task.TransitionResponse, error)
	Purge(ctx context.Context, id int) error
}
