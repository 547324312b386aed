package session

import (
	"time"

	"classroom/backend/internal/entity"

	"github.com/Azure/go-autorest/autorest/date"
)

// Filter is the typed criteria object for listing sessions.
type Filter struct {
	Limit      *int
	Offset     *int
	Page       *int
	Xnxq       *string
	CourseCode *string
	Date       *string
	TeacherID  *string
	StudentID  *string
	Band       *string
	Withdrawn  *bool
}

type GetListResponse struct {
	ID           int        `json:"id"`
	CourseCode   string     `json:"course_code"`
	CourseName   *string    `json:"course_name"`
	Xnxq         string     `json:"xnxq"`
	TeachingWeek int        `json:"teaching_week"`
	Week         int        `json:"week"`
	Date         *date.Date `json:"date"`
	TimeBand     string     `json:"time_band"`
	Periods      string     `json:"periods"`
	Rooms        *string    `json:"rooms"`
	TeacherNames *string    `json:"teacher_names"`
	StartTime    string     `json:"start_time"`
	EndTime      string     `json:"end_time"`
	NeedCheckin  bool       `json:"need_checkin"`
	Withdrawn    bool       `json:"withdrawn"`
	Status       string     `json:"status"`
}

type GetDetailByIdResponse struct {
	ID           int        `json:"id"`
	CourseCode   string     `json:"course_code"`
	CourseName   *string    `json:"course_name"`
	Xnxq         string     `json:"xnxq"`
	TeachingWeek int        `json:"teaching_week"`
	Week         int        `json:"week"`
	Date         *date.Date `json:"date"`
	TimeBand     string     `json:"time_band"`
	Periods      string     `json:"periods"`
	Rooms        *string    `json:"rooms"`
	TeacherIDs   *string    `json:"teacher_ids"`
	TeacherNames *string    `json:"teacher_names"`
	StudentIDs   *string    `json:"student_ids"`
	StartTime    string     `json:"start_time"`
	EndTime      string     `json:"end_time"`
	HallCluster  *string    `json:"hall_cluster"`
	NeedCheckin  bool       `json:"need_checkin"`
	Withdrawn    bool       `json:"withdrawn"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
}

// UpsertResult reports what an upsert did with one draft.
type UpsertResult struct {
	SessionID int
	Created   bool
}

func bandStatus(s entity.ClassSession) string {
	return s.RealtimeStatus(time.Now())
}
