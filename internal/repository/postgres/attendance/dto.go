package attendance

import "time"

type GetRecordResponse struct {
	ID            int        `json:"id"`
	SessionID     int        `json:"session_id"`
	TotalCount    int        `json:"total_count"`
	CheckinCount  int        `json:"checkin_count"`
	LeaveCount    int        `json:"leave_count"`
	AbsentCount   int        `json:"absent_count"`
	CheckinRate   int        `json:"checkin_rate"`
	Status        string     `json:"status"`
	AutoOpenTime  *time.Time `json:"auto_open_time,omitempty"`
	AutoCloseTime *time.Time `json:"auto_close_time,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// GetStatsResponse is the per-session rollup the report surface reads.
// Enrolled students without a recorded row are counted absent.
type GetStatsResponse struct {
	SessionID    int `json:"session_id"`
	TotalCount   int `json:"total_count"`
	PresentCount int `json:"present_count"`
	LeaveCount   int `json:"leave_count"`
	PendingCount int `json:"pending_count"`
	AbsentCount  int `json:"absent_count"`
	CheckinRate  int `json:"checkin_rate"`
}

type StudentListResponse struct {
	StudentID string  `json:"student_id"`
	Status    string  `json:"status"`
	Reason    *string `json:"reason,omitempty"`
	Recorded  bool    `json:"recorded"`
}

type CheckInRequest struct {
	Token     *string `json:"token" form:"token"`
	StudentID *string `json:"student_id" form:"student_id"`
}

type CheckInResponse struct {
	SessionID int    `json:"session_id"`
	StudentID string `json:"student_id"`
	Status    string `json:"status"`
}

type LeaveRequest struct {
	SessionID *int    `json:"session_id" form:"session_id"`
	StudentID *string `json:"student_id" form:"student_id"`
	Reason    *string `json:"reason" form:"reason"`
}

type ReviewLeaveRequest struct {
	ID      int   `json:"id" form:"id"`
	Approve *bool `json:"approve" form:"approve"`
}
