package session

import (
	"bytes"
	"context"

	"classroom/backend/internal/repository/postgres/attendance"
	"classroom/backend/internal/repository/postgres/session"
)

type Session interface {
	GetList(ctx context.Context, filter session.Filter) ([]session.GetListResponse, int, error)
	GetDetailById(ctx context.Context, id int) (session.GetDetailByIdResponse, error)
}

type Attendance interface {
	GetRecordBySession(ctx context.Context, sessionID int) (attendance.GetRecordResponse, error)
	GetStats(ctx context.Context, sessionID int) (attendance.GetStatsResponse, error)
	GetStudentList(ctx context.Context, sessionID int) ([]attendance.StudentListResponse, error)
	CheckIn(ctx context.Context, request attendance.CheckInRequest) (attendance.CheckInResponse, error)
	RequestLeave(ctx context.Context, request attendance.LeaveRequest) error
	ReviewLeave(ctx context.Context, request attendance.ReviewLeaveRequest) error
	CloseRecord(ctx context.Context, sessionID int) error
}

type Report interface {
	QRCode(ctx context.Context, sessionID int) ([]byte, error)
	ExcelAttendance(ctx context.Context, sessionID int) (*bytes.Buffer, string, error)
	PdfSheet(ctx context.Context, sessionID int) (*bytes.Buffer, string, error)
}
