package attendance

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"classroom/backend/foundation/web"
	"classroom/backend/internal/entity"
	"classroom/backend/internal/pkg/repository/postgresql"
	"classroom/backend/internal/repository/postgres"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Repository owns attendance records and per-student attendance rows. Redis
// keeps the hot token -> session mapping so a busy check-in window does not
// hit postgres for every scan.
type Repository struct {
	*postgresql.Database
	redis      *redis.Client
	checkinTTL time.Duration
}

func NewRepository(database *postgresql.Database, redisDB *redis.Client, checkinTTL time.Duration) *Repository {
	return &Repository{Database: database, redis: redisDB, checkinTTL: checkinTTL}
}

// UpsertRecord creates the session's attendance record on the first
// aggregation pass and afterwards only refreshes the enrollment total,
// preserving the original creation time and any collected check-ins.
func (r Repository) UpsertRecord(ctx context.Context, sessionID, totalCount int) (entity.AttendanceRecord, error) {
	var record entity.AttendanceRecord

	err := r.NewSelect().Model(&record).ModelTableExpr("attendance_records").
		Where("session_id = ?", sessionID).Scan(ctx)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		token, err := newToken()
		if err != nil {
			return entity.AttendanceRecord{}, err
		}

		record = entity.AttendanceRecord{
			SessionID:    sessionID,
			TotalCount:   totalCount,
			AbsentCount:  totalCount,
			Status:       entity.RecordActive,
			CheckinToken: token,
			CreatedAt:    time.Now(),
		}

		if _, err = r.NewInsert().Model(&record).ModelTableExpr("attendance_records").
			Returning("id").Exec(ctx, &record.ID); err != nil {
			return entity.AttendanceRecord{}, errors.Wrap(err, "inserting attendance record")
		}
		return record, nil

	case err != nil:
		return entity.AttendanceRecord{}, errors.Wrap(err, "selecting attendance record")
	}

	now := time.Now()
	q := r.NewUpdate().Table("attendance_records").Where("session_id = ?", sessionID)
	q.Set("total_count = ?", totalCount)
	q.Set("updated_at = ?", now)

	if _, err = q.Exec(ctx); err != nil {
		return entity.AttendanceRecord{}, errors.Wrap(err, "updating attendance record")
	}

	record.TotalCount = totalCount
	record.UpdatedAt = &now

	return record, nil
}

func (r Repository) GetRecordBySession(ctx context.Context, sessionID int) (GetRecordResponse, error) {
	var record entity.AttendanceRecord

	err := r.NewSelect().Model(&record).ModelTableExpr("attendance_records").
		Where("session_id = ?", sessionID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return GetRecordResponse{}, web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}
	if err != nil {
		return GetRecordResponse{}, web.NewRequestError(errors.Wrap(err, "selecting attendance record"), http.StatusInternalServerError)
	}

	return GetRecordResponse{
		ID:            record.ID,
		SessionID:     record.SessionID,
		TotalCount:    record.TotalCount,
		CheckinCount:  record.CheckinCount,
		LeaveCount:    record.LeaveCount,
		AbsentCount:   record.AbsentCount,
		CheckinRate:   checkinRate(record.CheckinCount, record.TotalCount),
		Status:        record.Status,
		AutoOpenTime:  record.AutoOpenTime,
		AutoCloseTime: record.AutoCloseTime,
		CreatedAt:     record.CreatedAt,
	}, nil
}

// GetStats joins the authoritative enrollment against recorded rows and
// fills the gaps with the default-absent policy.
func (r Repository) GetStats(ctx context.Context, sessionID int) (GetStatsResponse, error) {
	enrolled, err := r.enrolledStudents(ctx, sessionID)
	if err != nil {
		return GetStatsResponse{}, err
	}

	var recorded []entity.StudentAttendance
	if err := r.NewSelect().Model(&recorded).ModelTableExpr("student_attendance").
		Where("session_id = ?", sessionID).Scan(ctx); err != nil {
		return GetStatsResponse{}, errors.Wrap(err, "selecting student attendance")
	}

	return computeStats(sessionID, enrolled, recorded), nil
}

// GetStudentList lists every enrolled student with their effective status,
// absent when nothing was recorded.
func (r Repository) GetStudentList(ctx context.Context, sessionID int) ([]StudentListResponse, error) {
	_, err := r.CheckClaims(ctx)
	if err != nil {
		return nil, err
	}

	enrolled, err := r.enrolledStudents(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var recorded []entity.StudentAttendance
	if err := r.NewSelect().Model(&recorded).ModelTableExpr("student_attendance").
		Where("session_id = ?", sessionID).Scan(ctx); err != nil {
		return nil, errors.Wrap(err, "selecting student attendance")
	}

	byStudent := map[string]entity.StudentAttendance{}
	for _, row := range recorded {
		byStudent[row.StudentID] = row
	}

	list := make([]StudentListResponse, 0, len(enrolled))
	for _, studentID := range enrolled {
		item := StudentListResponse{StudentID: studentID, Status: entity.AttendanceAbsent}
		if row, ok := byStudent[studentID]; ok {
			item.Status = row.Status
			item.Reason = row.Reason
			item.Recorded = true
		}
		list = append(list, item)
	}

	return list, nil
}

// CheckIn records a student as present against the session its token
// resolves to.
func (r Repository) CheckIn(ctx context.Context, request CheckInRequest) (CheckInResponse, error) {
	if err := r.ValidateStruct(&request, "Token", "StudentID"); err != nil {
		return CheckInResponse{}, err
	}

	sessionID, err := r.resolveToken(ctx, *request.Token)
	if err != nil {
		return CheckInResponse{}, err
	}

	var status string
	if err := r.QueryRowContext(ctx,
		`SELECT status FROM attendance_records WHERE session_id = $1`, sessionID).Scan(&status); err != nil {
		return CheckInResponse{}, web.NewRequestError(errors.Wrap(err, "selecting record status"), http.StatusInternalServerError)
	}
	if status != entity.RecordActive {
		return CheckInResponse{}, web.NewRequestError(errors.New("check-in is closed for this session"), http.StatusBadRequest)
	}

	enrolled := false
	if err := r.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM session_students WHERE session_id = $1 AND student_id = $2)`,
		sessionID, *request.StudentID).Scan(&enrolled); err != nil {
		return CheckInResponse{}, web.NewRequestError(errors.Wrap(err, "checking enrollment"), http.StatusInternalServerError)
	}
	if !enrolled {
		return CheckInResponse{}, web.NewRequestError(errors.New("student is not enrolled in this session"), http.StatusBadRequest)
	}

	if err := r.setStudentStatus(ctx, sessionID, *request.StudentID, entity.AttendancePresent, nil); err != nil {
		return CheckInResponse{}, err
	}
	if err := r.refreshCounts(ctx, sessionID); err != nil {
		return CheckInResponse{}, err
	}

	return CheckInResponse{SessionID: sessionID, StudentID: *request.StudentID, Status: entity.AttendancePresent}, nil
}

// RequestLeave opens a leave request pending teacher review.
func (r Repository) RequestLeave(ctx context.Context, request LeaveRequest) error {
	if err := r.ValidateStruct(&request, "SessionID", "StudentID", "Reason"); err != nil {
		return err
	}

	if err := r.setStudentStatus(ctx, *request.SessionID, *request.StudentID, entity.AttendanceLeavePending, request.Reason); err != nil {
		return err
	}

	return r.refreshCounts(ctx, *request.SessionID)
}

// ReviewLeave resolves a pending leave request.
func (r Repository) ReviewLeave(ctx context.Context, request ReviewLeaveRequest) error {
	if err := r.ValidateStruct(&request, "ID", "Approve"); err != nil {
		return err
	}

	_, err := r.CheckClaims(ctx)
	if err != nil {
		return err
	}

	var row entity.StudentAttendance
	err = r.NewSelect().Model(&row).ModelTableExpr("student_attendance").
		Where("id = ?", request.ID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "selecting leave request"), http.StatusInternalServerError)
	}
	if row.Status != entity.AttendanceLeavePending && row.Status != entity.AttendancePendingApproval {
		return web.NewRequestError(errors.New("attendance row is not pending review"), http.StatusBadRequest)
	}

	status := entity.AttendanceLeaveRejected
	if *request.Approve {
		status = entity.AttendanceLeave
	}

	if err := r.setStudentStatus(ctx, row.SessionID, row.StudentID, status, row.Reason); err != nil {
		return err
	}

	return r.refreshCounts(ctx, row.SessionID)
}

// CloseRecord ends the check-in window of a session.
func (r Repository) CloseRecord(ctx context.Context, sessionID int) error {
	_, err := r.CheckClaims(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	result, err := r.NewUpdate().Table("attendance_records").
		Where("session_id = ? AND status = ?", sessionID, entity.RecordActive).
		Set("status = ?", entity.RecordClosed).
		Set("auto_close_time = ?", now).
		Set("updated_at = ?", now).
		Exec(ctx)
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "closing attendance record"), http.StatusBadRequest)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "rows affected"), http.StatusInternalServerError)
	}
	if affected == 0 {
		return web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}

	return nil
}

// EnsureToken returns the session's check-in token and caches the token ->
// session mapping in redis for the check-in window.
func (r Repository) EnsureToken(ctx context.Context, sessionID int) (string, error) {
	var token string
	err := r.QueryRowContext(ctx,
		`SELECT checkin_token FROM attendance_records WHERE session_id = $1`, sessionID).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}
	if err != nil {
		return "", web.NewRequestError(errors.Wrap(err, "selecting checkin token"), http.StatusInternalServerError)
	}

	if r.redis != nil {
		if err := r.redis.Set(ctx, tokenKey(token), sessionID, r.checkinTTL).Err(); err != nil {
			return "", errors.Wrap(err, "caching checkin token")
		}
	}

	return token, nil
}

func (r Repository) resolveToken(ctx context.Context, token string) (int, error) {
	if r.redis != nil {
		cached, err := r.redis.Get(ctx, tokenKey(token)).Result()
		if err == nil {
			if id, convErr := strconv.Atoi(cached); convErr == nil {
				return id, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			return 0, errors.Wrap(err, "reading token cache")
		}
	}

	var sessionID int
	err := r.QueryRowContext(ctx,
		`SELECT session_id FROM attendance_records WHERE checkin_token = $1`, token).Scan(&sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, web.NewRequestError(errors.New("unknown check-in token"), http.StatusNotFound)
	}
	if err != nil {
		return 0, web.NewRequestError(errors.Wrap(err, "resolving checkin token"), http.StatusInternalServerError)
	}

	return sessionID, nil
}

func (r Repository) setStudentStatus(ctx context.Context, sessionID int, studentID, status string, reason *string) error {
	now := time.Now()
	_, err := r.ExecContext(ctx, `
		INSERT INTO student_attendance (session_id, student_id, status, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id, student_id)
		DO UPDATE SET status = $3, reason = $4, updated_at = $5
	`, sessionID, studentID, status, reason, now)

	return errors.Wrap(err, "writing student attendance")
}

// refreshCounts recomputes the record's counters from the stats rollup so
// the cached counts always match the per-student rows.
func (r Repository) refreshCounts(ctx context.Context, sessionID int) error {
	stats, err := r.GetStats(ctx, sessionID)
	if err != nil {
		return err
	}

	q := r.NewUpdate().Table("attendance_records").Where("session_id = ?", sessionID)
	q.Set("checkin_count = ?", stats.PresentCount)
	q.Set("leave_count = ?", stats.LeaveCount)
	q.Set("absent_count = ?", stats.AbsentCount)
	q.Set("updated_at = ?", time.Now())

	_, err = q.Exec(ctx)

	return errors.Wrap(err, "refreshing attendance counts")
}

func (r Repository) enrolledStudents(ctx context.Context, sessionID int) ([]string, error) {
	var enrolled []string
	err := r.NewSelect().Table("session_students").
		Column("student_id").
		Where("session_id = ?", sessionID).
		Order("student_id").
		Scan(ctx, &enrolled)

	return enrolled, errors.Wrap(err, "selecting enrollment")
}

func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "generating checkin token")
	}
	return hex.EncodeToString(buf), nil
}

func tokenKey(token string) string {
	return "checkin:token:" + token
}
