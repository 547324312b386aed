package session

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"classroom/backend/foundation/web"
	"classroom/backend/internal/entity"
	"classroom/backend/internal/pkg/repository/postgresql"
	"classroom/backend/internal/repository/postgres"

	"github.com/Azure/go-autorest/autorest/date"
	"github.com/pkg/errors"
)

// Repository owns the consolidated class_sessions table and the per-session
// enrollment (session_students). Writes happen only through the aggregation
// engine; the check-in surface reads.
type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

func (r Repository) GetById(ctx context.Context, id int) (entity.ClassSession, error) {
	var detail entity.ClassSession

	err := r.NewSelect().Model(&detail).ModelTableExpr("class_sessions").Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.ClassSession{}, web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}

	return detail, err
}

func (r Repository) GetList(ctx context.Context, filter Filter) ([]GetListResponse, int, error) {
	_, err := r.CheckClaims(ctx)
	if err != nil {
		return nil, 0, err
	}

	whereQuery := `
			WHERE
				1 = 1
			`
	if filter.Xnxq != nil {
		whereQuery += fmt.Sprintf(` AND s.xnxq = '%s'`, escape(*filter.Xnxq))
	}
	if filter.CourseCode != nil {
		whereQuery += fmt.Sprintf(` AND s.course_code = '%s'`, escape(*filter.CourseCode))
	}
	if filter.Date != nil {
		d, err := time.Parse("2006-01-02", *filter.Date)
		if err != nil {
			return nil, 0, web.NewRequestError(errors.Wrap(err, "date parse"), http.StatusBadRequest)
		}
		whereQuery += fmt.Sprintf(` AND s.date = '%s'`, d.Format("2006-01-02"))
	}
	if filter.TeacherID != nil {
		whereQuery += fmt.Sprintf(` AND ('/' || s.teacher_ids || '/') LIKE '%%/%s/%%'`, escape(*filter.TeacherID))
	}
	if filter.StudentID != nil {
		whereQuery += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM session_students ss
			WHERE ss.session_id = s.id AND ss.student_id = '%s')`, escape(*filter.StudentID))
	}
	if filter.Band != nil {
		whereQuery += fmt.Sprintf(` AND s.time_band = '%s'`, escape(*filter.Band))
	}
	if filter.Withdrawn != nil {
		whereQuery += fmt.Sprintf(` AND s.withdrawn = %t`, *filter.Withdrawn)
	}

	orderQuery := "ORDER BY s.date, s.start_time"

	var limitQuery, offsetQuery string

	if filter.Page != nil && filter.Limit != nil {
		offset := (*filter.Page - 1) * (*filter.Limit)
		filter.Offset = &offset
	}

	if filter.Limit != nil {
		limitQuery += fmt.Sprintf(" LIMIT %d", *filter.Limit)
	}

	if filter.Offset != nil {
		offsetQuery += fmt.Sprintf(" OFFSET %d", *filter.Offset)
	}

	query := fmt.Sprintf(`
		SELECT
			s.id,
			s.course_code,
			s.course_name,
			s.xnxq,
			s.teaching_week,
			s.week,
			s.date,
			s.time_band,
			s.periods,
			s.rooms,
			s.teacher_names,
			s.start_time,
			s.end_time,
			s.need_checkin,
			s.withdrawn
		FROM class_sessions s
		%s %s %s %s
	`, whereQuery, orderQuery, limitQuery, offsetQuery)

	rows, err := r.QueryContext(ctx, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}
	if err != nil {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "selecting sessions"), http.StatusInternalServerError)
	}

	var list []GetListResponse

	for rows.Next() {
		var detail GetListResponse
		var dateString string
		var startBytes, endBytes []byte

		if err = rows.Scan(
			&detail.ID,
			&detail.CourseCode,
			&detail.CourseName,
			&detail.Xnxq,
			&detail.TeachingWeek,
			&detail.Week,
			&dateString,
			&detail.TimeBand,
			&detail.Periods,
			&detail.Rooms,
			&detail.TeacherNames,
			&startBytes,
			&endBytes,
			&detail.NeedCheckin,
			&detail.Withdrawn); err != nil {
			return nil, 0, web.NewRequestError(errors.Wrap(err, "scanning session list"), http.StatusBadRequest)
		}

		sessionDate, err := date.ParseDate(dateString)
		if err != nil {
			return nil, 0, web.NewRequestError(errors.Wrap(err, "converting date to date.Date"), http.StatusBadRequest)
		}
		detail.Date = &sessionDate
		detail.StartTime = trimClock(string(startBytes))
		detail.EndTime = trimClock(string(endBytes))
		detail.Status = entity.ClassSession{
			Date:      dateOnly(dateString),
			StartTime: detail.StartTime,
			EndTime:   detail.EndTime,
		}.RealtimeStatus(time.Now())

		list = append(list, detail)
	}

	countQuery := fmt.Sprintf(`
		SELECT
			count(s.id)
		FROM class_sessions s
		%s
	`, whereQuery)

	count := 0
	if err = r.QueryRowContext(ctx, countQuery).Scan(&count); err != nil {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "scanning session count"), http.StatusInternalServerError)
	}

	return list, count, nil
}

func (r Repository) GetDetailById(ctx context.Context, id int) (GetDetailByIdResponse, error) {
	_, err := r.CheckClaims(ctx)
	if err != nil {
		return GetDetailByIdResponse{}, err
	}

	detail, err := r.GetById(ctx, id)
	if err != nil {
		return GetDetailByIdResponse{}, err
	}

	sessionDate, err := date.ParseDate(dateOnly(detail.Date))
	if err != nil {
		return GetDetailByIdResponse{}, web.NewRequestError(errors.Wrap(err, "converting date"), http.StatusInternalServerError)
	}

	response := GetDetailByIdResponse{
		ID:           detail.ID,
		CourseCode:   detail.CourseCode,
		CourseName:   optional(detail.CourseName),
		Xnxq:         detail.Xnxq,
		TeachingWeek: detail.TeachingWeek,
		Week:         detail.Week,
		Date:         &sessionDate,
		TimeBand:     string(detail.TimeBand),
		Periods:      detail.Periods,
		Rooms:        optional(detail.Rooms),
		TeacherIDs:   optional(detail.TeacherIDs),
		TeacherNames: optional(detail.TeacherNames),
		StudentIDs:   optional(detail.StudentIDs),
		StartTime:    trimClock(detail.StartTime),
		EndTime:      trimClock(detail.EndTime),
		HallCluster:  optional(detail.HallCluster),
		NeedCheckin:  detail.NeedCheckin,
		Withdrawn:    detail.Withdrawn,
		Status:       bandStatus(detail),
		CreatedAt:    detail.CreatedAt,
	}

	return response, nil
}

// UpsertMerged writes one merged draft keyed by (course, date, time_band,
// xnxq): insert when absent, otherwise a non-destructive union with what is
// already stored. Concurrent passes converge on the union because the merge
// happens inside a row-locked transaction.
func (r Repository) UpsertMerged(ctx context.Context, draft Draft) (UpsertResult, error) {
	tx, err := r.BeginTx(ctx, nil)
	if err != nil {
		return UpsertResult{}, errors.Wrap(err, "beginning session transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var existing entity.ClassSession
	err = tx.NewSelect().Model(&existing).ModelTableExpr("class_sessions").
		Where("course_code = ? AND date = ? AND time_band = ? AND xnxq = ?",
			draft.Key.CourseCode, draft.Key.Date, draft.Key.Band, draft.Key.Xnxq).
		For("UPDATE").
		Scan(ctx)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		fresh := entity.ClassSession{
			CourseCode:   draft.Key.CourseCode,
			CourseName:   draft.CourseName,
			Xnxq:         draft.Key.Xnxq,
			TeachingWeek: draft.Key.TeachingWeek,
			Week:         draft.Key.Week,
			Date:         draft.Key.Date,
			TimeBand:     draft.Key.Band,
			Periods:      JoinPeriods(draft.Periods),
			Rooms:        strings.Join(draft.Rooms, "/"),
			TeacherIDs:   strings.Join(draft.TeacherIDs, "/"),
			TeacherNames: strings.Join(draft.TeacherNames, "/"),
			StudentIDs:   strings.Join(draft.StudentIDs, "/"),
			StartTime:    draft.StartTime,
			EndTime:      draft.EndTime,
			HallCluster:  draft.HallCluster,
			NeedCheckin:  draft.NeedCheckin,
			CreatedAt:    time.Now(),
		}

		if _, err = tx.NewInsert().Model(&fresh).ModelTableExpr("class_sessions").
			Returning("id").Exec(ctx, &fresh.ID); err != nil {
			return UpsertResult{}, errors.Wrap(err, "inserting session")
		}
		if err = tx.Commit(); err != nil {
			return UpsertResult{}, errors.Wrap(err, "committing session insert")
		}
		return UpsertResult{SessionID: fresh.ID, Created: true}, nil

	case err != nil:
		return UpsertResult{}, errors.Wrap(err, "selecting session for merge")
	}

	existing.StartTime = trimClock(existing.StartTime)
	existing.EndTime = trimClock(existing.EndTime)
	merged := MergeInto(existing, draft)
	now := time.Now()
	merged.UpdatedAt = &now

	if _, err = tx.NewUpdate().Model(&merged).ModelTableExpr("class_sessions").
		Where("id = ?", merged.ID).Exec(ctx); err != nil {
		return UpsertResult{}, errors.Wrap(err, "merging session")
	}
	if err = tx.Commit(); err != nil {
		return UpsertResult{}, errors.Wrap(err, "committing session merge")
	}

	return UpsertResult{SessionID: merged.ID, Created: false}, nil
}

// RebuildMerged overwrites a stored session with a draft rebuilt from its
// surviving rows, so withdrawn rows' periods, rooms and people drop out of
// the merged lists. Falls back to a plain upsert when the session is missing.
func (r Repository) RebuildMerged(ctx context.Context, draft Draft) (UpsertResult, error) {
	var existing entity.ClassSession
	err := r.NewSelect().Model(&existing).ModelTableExpr("class_sessions").
		Where("course_code = ? AND date = ? AND time_band = ? AND xnxq = ?",
			draft.Key.CourseCode, draft.Key.Date, draft.Key.Band, draft.Key.Xnxq).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return r.UpsertMerged(ctx, draft)
	}
	if err != nil {
		return UpsertResult{}, errors.Wrap(err, "selecting session for rebuild")
	}

	if _, err = r.NewUpdate().Table("class_sessions").
		Where("id = ?", existing.ID).
		Set("course_name = ?", draft.CourseName).
		Set("periods = ?", JoinPeriods(draft.Periods)).
		Set("rooms = ?", strings.Join(draft.Rooms, "/")).
		Set("teacher_ids = ?", strings.Join(draft.TeacherIDs, "/")).
		Set("teacher_names = ?", strings.Join(draft.TeacherNames, "/")).
		Set("student_ids = ?", strings.Join(draft.StudentIDs, "/")).
		Set("start_time = ?", draft.StartTime).
		Set("end_time = ?", draft.EndTime).
		Set("hall_cluster = ?", draft.HallCluster).
		Set("need_checkin = ?", draft.NeedCheckin).
		Set("withdrawn = false").
		Set("updated_at = ?", time.Now()).
		Exec(ctx); err != nil {
		return UpsertResult{}, errors.Wrap(err, "rebuilding session")
	}

	return UpsertResult{SessionID: existing.ID}, nil
}

// MarkWithdrawn flags the session of a fully soft-deleted group. The row is
// kept so attendance history stays linked.
func (r Repository) MarkWithdrawn(ctx context.Context, key GroupKey) error {
	_, err := r.NewUpdate().Table("class_sessions").
		Where("course_code = ? AND date = ? AND time_band = ? AND xnxq = ?",
			key.CourseCode, key.Date, key.Band, key.Xnxq).
		Set("withdrawn = true").
		Set("updated_at = ?", time.Now()).
		Exec(ctx)

	return errors.Wrap(err, "marking session withdrawn")
}

// ReplaceStudents rewrites the session's enrollment to the merged student
// set. Runs in one transaction so readers never observe a half-written list.
func (r Repository) ReplaceStudents(ctx context.Context, sessionID int, studentIDs []string) error {
	tx, err := r.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning enrollment transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.NewDelete().Table("session_students").
		Where("session_id = ?", sessionID).Exec(ctx); err != nil {
		return errors.Wrap(err, "clearing enrollment")
	}

	for _, studentID := range studentIDs {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO session_students (session_id, student_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, sessionID, studentID); err != nil {
			return errors.Wrap(err, "inserting enrollment")
		}
	}

	if _, err = tx.NewUpdate().Table("class_sessions").
		Where("id = ?", sessionID).
		Set("student_ids = ?", strings.Join(studentIDs, "/")).
		Set("updated_at = ?", time.Now()).
		Exec(ctx); err != nil {
		return errors.Wrap(err, "updating session student list")
	}

	return errors.Wrap(tx.Commit(), "committing enrollment")
}

// GetEnrolledStudents returns the authoritative enrollment of a session.
func (r Repository) GetEnrolledStudents(ctx context.Context, sessionID int) ([]string, error) {
	var students []string
	err := r.NewSelect().Table("session_students").
		Column("student_id").
		Where("session_id = ?", sessionID).
		Order("student_id").
		Scan(ctx, &students)

	return students, errors.Wrap(err, "selecting enrollment")
}

// ClearTerm removes a term's sessions and everything hanging off them. Only
// reachable through the explicit term-clear admin operation.
func (r Repository) ClearTerm(ctx context.Context, xnxq string) (int64, error) {
	tx, err := r.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "beginning term clear")
	}
	defer func() { _ = tx.Rollback() }()

	sub := r.NewSelect().Table("class_sessions").Column("id").Where("xnxq = ?", xnxq)

	if _, err = tx.NewDelete().Table("student_attendance").
		Where("session_id IN (?)", sub).Exec(ctx); err != nil {
		return 0, errors.Wrap(err, "clearing student attendance")
	}
	if _, err = tx.NewDelete().Table("attendance_records").
		Where("session_id IN (?)", sub).Exec(ctx); err != nil {
		return 0, errors.Wrap(err, "clearing attendance records")
	}
	if _, err = tx.NewDelete().Table("session_students").
		Where("session_id IN (?)", sub).Exec(ctx); err != nil {
		return 0, errors.Wrap(err, "clearing enrollment")
	}

	result, err := tx.NewDelete().Table("class_sessions").Where("xnxq = ?", xnxq).Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "clearing sessions")
	}

	if err = tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "committing term clear")
	}

	return result.RowsAffected()
}

func escape(s string) string {
	return strings.Replace(s, "'", "''", -1)
}

func trimClock(s string) string {
	if len(s) >= 5 {
		return s[:5]
	}
	return s
}

func dateOnly(s string) string {
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
