package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// TimeBand splits a teaching day into the two halves a consolidated session
// can occupy. It is part of the session identity key.
type TimeBand string

const (
	BandMorning   TimeBand = "morning"
	BandAfternoon TimeBand = "afternoon"
)

// TimeBandForPeriod maps a period number onto its band: periods 1-4 are
// morning, 5 and later are afternoon.
func TimeBandForPeriod(period int) TimeBand {
	if period <= 4 {
		return BandMorning
	}
	return BandAfternoon
}

// Realtime session status, derived from the wall clock on every read.
const (
	SessionNotStarted = "not_started"
	SessionInProgress = "in_progress"
	SessionFinished   = "finished"
)

// ClassSession is one consolidated, check-in eligible class meeting. At most
// one row exists per (course_code, date, time_band, xnxq). Periods, rooms,
// teacher ids/names and student ids are slash-joined lists; the room list is
// position-aligned with the period list.
type ClassSession struct {
	bun.BaseModel `bun:"table:class_sessions"`

	ID           int        `json:"id" bun:"id,pk,autoincrement"`
	CourseCode   string     `json:"course_code" bun:"course_code"`
	CourseName   string     `json:"course_name" bun:"course_name"`
	Xnxq         string     `json:"xnxq" bun:"xnxq"`
	TeachingWeek int        `json:"teaching_week" bun:"teaching_week"`
	Week         int        `json:"week" bun:"week"`
	Date         string     `json:"date" bun:"date"`
	TimeBand     TimeBand   `json:"time_band" bun:"time_band"`
	Periods      string     `json:"periods" bun:"periods"`
	Rooms        string     `json:"rooms" bun:"rooms"`
	TeacherIDs   string     `json:"teacher_ids" bun:"teacher_ids"`
	TeacherNames string     `json:"teacher_names" bun:"teacher_names"`
	StudentIDs   string     `json:"student_ids" bun:"student_ids"`
	StartTime    string     `json:"start_time" bun:"start_time"`
	EndTime      string     `json:"end_time" bun:"end_time"`
	HallCluster  string     `json:"hall_cluster" bun:"hall_cluster"`
	NeedCheckin  bool       `json:"need_checkin" bun:"need_checkin"`
	Withdrawn    bool       `json:"withdrawn" bun:"withdrawn"`
	CreatedAt    time.Time  `json:"created_at" bun:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty" bun:"updated_at"`
}

// RealtimeStatus derives the not_started / in_progress / finished state of a
// session from the given clock. Malformed times fall back to not_started.
func (s ClassSession) RealtimeStatus(now time.Time) string {
	start, err1 := time.ParseInLocation("2006-01-02 15:04", s.Date+" "+s.StartTime, now.Location())
	end, err2 := time.ParseInLocation("2006-01-02 15:04", s.Date+" "+s.EndTime, now.Location())
	if err1 != nil || err2 != nil {
		return SessionNotStarted
	}

	switch {
	case now.Before(start):
		return SessionNotStarted
	case now.After(end):
		return SessionFinished
	default:
		return SessionInProgress
	}
}
