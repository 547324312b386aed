package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Attendance record lifecycle.
const (
	RecordActive = "active"
	RecordClosed = "closed"
)

// Per-student attendance states. A student with no row at all counts as
// absent (default-absent policy): "no record" means absent, not unknown.
const (
	AttendancePresent         = "present"
	AttendanceAbsent          = "absent"
	AttendanceLeave           = "leave"
	AttendancePendingApproval = "pending_approval"
	AttendanceLeavePending    = "leave_pending"
	AttendanceLeaveRejected   = "leave_rejected"
)

// AttendanceRecord is the check-in ledger of one session: exactly one row per
// session id, updated in place across aggregation re-runs.
type AttendanceRecord struct {
	bun.BaseModel `bun:"table:attendance_records"`

	ID            int        `json:"id" bun:"id,pk,autoincrement"`
	SessionID     int        `json:"session_id" bun:"session_id"`
	TotalCount    int        `json:"total_count" bun:"total_count"`
	CheckinCount  int        `json:"checkin_count" bun:"checkin_count"`
	LeaveCount    int        `json:"leave_count" bun:"leave_count"`
	AbsentCount   int        `json:"absent_count" bun:"absent_count"`
	Status        string     `json:"status" bun:"status"`
	AutoOpenTime  *time.Time `json:"auto_open_time,omitempty" bun:"auto_open_time"`
	AutoCloseTime *time.Time `json:"auto_close_time,omitempty" bun:"auto_close_time"`
	CheckinToken  string     `json:"checkin_token" bun:"checkin_token"`
	CreatedAt     time.Time  `json:"created_at" bun:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty" bun:"updated_at"`
}

// StudentAttendance is one student's recorded state within a session.
type StudentAttendance struct {
	bun.BaseModel `bun:"table:student_attendance"`

	ID        int        `json:"id" bun:"id,pk,autoincrement"`
	SessionID int        `json:"session_id" bun:"session_id"`
	StudentID string     `json:"student_id" bun:"student_id"`
	Status    string     `json:"status" bun:"status"`
	Reason    *string    `json:"reason,omitempty" bun:"reason"`
	CreatedAt time.Time  `json:"created_at" bun:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" bun:"updated_at"`
}
