package schedule

import (
	"context"

	"classroom/backend/internal/entity"
	"classroom/backend/internal/repository/postgres/schedule"
)

type Schedule interface {
	GetById(ctx context.Context, id int) (entity.RawScheduleRow, error)
	GetList(ctx context.Context, filter schedule.Filter) ([]schedule.GetListResponse, int, error)
	Create(ctx context.Context, request schedule.CreateRequest) (schedule.CreateResponse, error)
	UpdateColumns(ctx context.Context, request schedule.UpdateRequest) error
	Delete(ctx context.Context, id int) error
	Resync(ctx context.Context, request schedule.ResyncRequest) (int64, error)
	ClearTerm(ctx context.Context, xnxq string) (int64, error)
}
