package sync

import (
	"context"

	"classroom/backend/internal/entity"
	"classroom/backend/internal/repository/postgres/schedule"
	"classroom/backend/internal/repository/postgres/session"
	"classroom/backend/internal/repository/postgres/task"
)

type Schedule interface {
	FindByMarker(ctx context.Context, xnxq string, marker *entity.SyncMarker, dateFrom, dateTo *string) ([]entity.RawScheduleRow, error)
	FindActiveForCourseDate(ctx context.Context, xnxq, courseCode, date string) ([]entity.RawScheduleRow, error)
	MarkAfterAggregation(ctx context.Context, ids []int, from *entity.SyncMarker, to entity.SyncMarker) error
	Resync(ctx context.Context, request schedule.ResyncRequest) (int64, error)
}

type Session interface {
	UpsertMerged(ctx context.Context, draft session.Draft) (session.UpsertResult, error)
	RebuildMerged(ctx context.Context, draft session.Draft) (session.UpsertResult, error)
	MarkWithdrawn(ctx context.Context, key session.GroupKey) error
	ReplaceStudents(ctx context.Context, sessionID int, studentIDs []string) error
}

type Attendance interface {
	UpsertRecord(ctx context.Context, sessionID, totalCount int) (entity.AttendanceRecord, error)
}

type Task interface {
	Create(ctx context.Context, request task.CreateRequest) (entity.Task, error)
	GetStatus(ctx context.Context, id int) (entity.TaskStatus, error)
	Start(ctx context.Context, id int) (task.TransitionResponse, error)
	Success(ctx context.Context, id int, reason string, result *string) (task.TransitionResponse, error)
	Fail(ctx context.Context, id int, reason string, taskErr string) (task.TransitionResponse, error)
	UpdateProgress(ctx context.Context, id, progress int) error
	RollupProgress(ctx context.Context, parentID int) error
}
