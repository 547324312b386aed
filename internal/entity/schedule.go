package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// SyncMarker is the per-row synchronisation phase of a raw schedule row. The
// column is a nullable smallint (NULL = not yet synced); in code the phases
// form a strict forward pipeline:
//
//	unsynced(NULL) -> MarkerTeacherSynced -> MarkerStudentSynced
//	unsynced(NULL) | any                  -> MarkerSoftDeleted -> MarkerSoftDeleteDone
//
// Markers are only reset to unsynced by an explicit resync request, never by
// the aggregation engine itself.
type SyncMarker int16

const (
	MarkerTeacherSynced  SyncMarker = 1
	MarkerStudentSynced  SyncMarker = 2
	MarkerSoftDeleted    SyncMarker = 3
	MarkerSoftDeleteDone SyncMarker = 4
)

// CanAdvanceTo reports whether moving from m (nil = unsynced) to the target
// marker is a legal pipeline step.
func CanAdvanceTo(from *SyncMarker, to SyncMarker) bool {
	switch to {
	case MarkerTeacherSynced:
		return from == nil
	case MarkerStudentSynced:
		return from != nil && *from == MarkerTeacherSynced
	case MarkerSoftDeleted:
		// A withdrawal can land on a row in any prior phase.
		return from == nil || *from != MarkerSoftDeleteDone
	case MarkerSoftDeleteDone:
		return from != nil && *from == MarkerSoftDeleted
	}
	return false
}

func (m SyncMarker) String() string {
	switch m {
	case MarkerTeacherSynced:
		return "teacher_synced"
	case MarkerStudentSynced:
		return "student_synced"
	case MarkerSoftDeleted:
		return "soft_deleted"
	case MarkerSoftDeleteDone:
		return "soft_delete_done"
	}
	return "unsynced"
}

// RawScheduleRow is one (course, date, period) teaching slot as delivered by
// the upstream timetable system. Teacher and student id lists keep the legacy
// slash-joined layout.
type RawScheduleRow struct {
	bun.BaseModel `bun:"table:raw_schedule"`

	ID           int         `json:"id" bun:"id,pk,autoincrement"`
	Xnxq         string      `json:"xnxq" bun:"xnxq"`
	CourseCode   string      `json:"course_code" bun:"course_code"`
	CourseName   string      `json:"course_name" bun:"course_name"`
	TeachingWeek int         `json:"teaching_week" bun:"teaching_week"`
	Week         int         `json:"week" bun:"week"`
	Date         string      `json:"date" bun:"date"`
	Period       int         `json:"period" bun:"period"`
	StartTime    string      `json:"start_time" bun:"start_time"`
	EndTime      string      `json:"end_time" bun:"end_time"`
	Room         string      `json:"room" bun:"room"`
	HallCluster  string      `json:"hall_cluster" bun:"hall_cluster"`
	TeacherIDs   string      `json:"teacher_ids" bun:"teacher_ids"`
	TeacherNames string      `json:"teacher_names" bun:"teacher_names"`
	StudentIDs   string      `json:"student_ids" bun:"student_ids"`
	NeedCheckin  bool        `json:"need_checkin" bun:"need_checkin"`
	SyncStatus   *SyncMarker `json:"sync_status" bun:"sync_status"`
	LastChanged  time.Time   `json:"last_changed" bun:"last_changed"`
	CreatedAt    time.Time   `json:"created_at" bun:"created_at"`
	CreatedBy    int         `json:"created_by" bun:"created_by"`
	UpdatedAt    *time.Time  `json:"updated_at,omitempty" bun:"updated_at"`
	UpdatedBy    *int        `json:"updated_by,omitempty" bun:"updated_by"`
	DeletedAt    *time.Time  `json:"deleted_at,omitempty" bun:"deleted_at"`
	DeletedBy    *int        `json:"deleted_by,omitempty" bun:"deleted_by"`
}
