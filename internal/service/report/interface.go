package report

import (
	"context"

	"classroom/backend/internal/repository/postgres/attendance"
	"classroom/backend/internal/repository/postgres/session"
)

type Session interface {
	GetDetailById(ctx context.Context, id int) (session.GetDetailByIdResponse, error)
}

type Attendance interface {
	GetStats(ctx context.Context, sessionID int) (attendance.GetStatsResponse, error)
	GetStudentList(ctx context.Context, sessionID int) ([]attendance.StudentListResponse, error)
	EnsureToken(ctx context.Context, sessionID int) (string, error)
}
