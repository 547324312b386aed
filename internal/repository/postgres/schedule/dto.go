package schedule

import (
	"time"

	"classroom/backend/internal/entity"

	"github.com/Azure/go-autorest/autorest/date"
	"github.com/uptrace/bun"
)

// Filter is the typed criteria object for listing raw schedule rows. Each
// optional field maps to exactly one predicate.
type Filter struct {
	Limit      *int
	Offset     *int
	Page       *int
	Xnxq       *string
	CourseCode *string
	Date       *string
	Marker     *entity.SyncMarker
	Unsynced   *bool
}

type GetListResponse struct {
	ID           int         `json:"id"`
	Xnxq         string      `json:"xnxq"`
	CourseCode   string      `json:"course_code"`
	CourseName   *string     `json:"course_name"`
	TeachingWeek int         `json:"teaching_week"`
	Week         int         `json:"week"`
	Date         *date.Date  `json:"date"`
	Period       int         `json:"period"`
	StartTime    string      `json:"start_time"`
	EndTime      string      `json:"end_time"`
	Room         *string     `json:"room"`
	TeacherIDs   *string     `json:"teacher_ids"`
	SyncStatus   *int16      `json:"sync_status"`
	SyncPhase    string      `json:"sync_phase"`
	LastChanged  *time.Time  `json:"last_changed"`
}

type CreateRequest struct {
	Xnxq         *string `json:"xnxq" form:"xnxq"`
	CourseCode   *string `json:"course_code" form:"course_code"`
	CourseName   *string `json:"course_name" form:"course_name"`
	TeachingWeek *int    `json:"teaching_week" form:"teaching_week"`
	Week         *int    `json:"week" form:"week"`
	Date         *string `json:"date" form:"date"`
	Period       *int    `json:"period" form:"period"`
	StartTime    *string `json:"start_time" form:"start_time"`
	EndTime      *string `json:"end_time" form:"end_time"`
	Room         *string `json:"room" form:"room"`
	HallCluster  *string `json:"hall_cluster" form:"hall_cluster"`
	TeacherIDs   *string `json:"teacher_ids" form:"teacher_ids"`
	TeacherNames *string `json:"teacher_names" form:"teacher_names"`
	StudentIDs   *string `json:"student_ids" form:"student_ids"`
	NeedCheckin  *bool   `json:"need_checkin" form:"need_checkin"`
}

type CreateResponse struct {
	bun.BaseModel `bun:"table:raw_schedule"`

	ID           int       `json:"id" bun:"-"`
	Xnxq         *string   `json:"xnxq" bun:"xnxq"`
	CourseCode   *string   `json:"course_code" bun:"course_code"`
	CourseName   *string   `json:"course_name" bun:"course_name"`
	TeachingWeek *int      `json:"teaching_week" bun:"teaching_week"`
	Week         *int      `json:"week" bun:"week"`
	Date         *string   `json:"date" bun:"date"`
	Period       *int      `json:"period" bun:"period"`
	StartTime    *string   `json:"start_time" bun:"start_time"`
	EndTime      *string   `json:"end_time" bun:"end_time"`
	Room         *string   `json:"room" bun:"room"`
	HallCluster  *string   `json:"hall_cluster" bun:"hall_cluster"`
	TeacherIDs   *string   `json:"teacher_ids" bun:"teacher_ids"`
	TeacherNames *string   `json:"teacher_names" bun:"teacher_names"`
	StudentIDs   *string   `json:"student_ids" bun:"student_ids"`
	NeedCheckin  *bool     `json:"need_checkin" bun:"need_checkin"`
	LastChanged  time.Time `json:"-" bun:"last_changed"`
	CreatedAt    time.Time `json:"-" bun:"created_at"`
	CreatedBy    int       `json:"-" bun:"created_by"`
}

type UpdateRequest struct {
	ID           int     `json:"id" form:"id"`
	CourseName   *string `json:"course_name" form:"course_name"`
	Room         *string `json:"room" form:"room"`
	TeacherIDs   *string `json:"teacher_ids" form:"teacher_ids"`
	TeacherNames *string `json:"teacher_names" form:"teacher_names"`
	StudentIDs   *string `json:"student_ids" form:"student_ids"`
	NeedCheckin  *bool   `json:"need_checkin" form:"need_checkin"`
	StartTime    *string `json:"start_time" form:"start_time"`
	EndTime      *string `json:"end_time" form:"end_time"`
}

type ResyncRequest struct {
	Xnxq     *string `json:"xnxq" form:"xnxq"`
	DateFrom *string `json:"date_from" form:"date_from"`
	DateTo   *string `json:"date_to" form:"date_to"`
}

type ClearTermRequest struct {
	Xnxq *string `json:"xnxq" form:"xnxq"`
}
