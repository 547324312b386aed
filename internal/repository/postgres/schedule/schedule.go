package schedule

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
	"github.com/uptrace/bun"
)

// Repository owns the raw schedule table and its sync markers. It is the
// change tracker of the aggregation pipeline: markers only ever move forward
// here, and only in atomic, conditional batches.
type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

func (r Repository) GetById(ctx context.Context, id int) (entity.RawScheduleRow, error) {
	var detail entity.RawScheduleRow

	err := r.NewSelect().Model(&detail).ModelTableExpr("raw_schedule").Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.RawScheduleRow{}, web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
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
				deleted_at IS NULL
			`
	if filter.Xnxq != nil {
		xnxq := strings.Replace(*filter.Xnxq, "'", "''", -1)
		whereQuery += fmt.Sprintf(` AND xnxq = '%s'`, xnxq)
	}
	if filter.CourseCode != nil {
		course := strings.Replace(*filter.CourseCode, "'", "''", -1)
		whereQuery += fmt.Sprintf(` AND course_code = '%s'`, course)
	}
	if filter.Date != nil {
		d, err := time.Parse("2006-01-02", *filter.Date)
		if err != nil {
			return nil, 0, web.NewRequestError(errors.Wrap(err, "date parse"), http.StatusBadRequest)
		}
		whereQuery += fmt.Sprintf(` AND date = '%s'`, d.Format("2006-01-02"))
	}
	if filter.Marker != nil {
		whereQuery += fmt.Sprintf(` AND sync_status = %d`, *filter.Marker)
	}
	if filter.Unsynced != nil && *filter.Unsynced {
		whereQuery += ` AND sync_status IS NULL`
	}

	orderQuery := "ORDER BY date, start_time, period"

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
			id,
			xnxq,
			course_code,
			course_name,
			teaching_week,
			week,
			date,
			period,
			start_time,
			end_time,
			room,
			teacher_ids,
			sync_status,
			last_changed
		FROM raw_schedule
		%s %s %s %s
	`, whereQuery, orderQuery, limitQuery, offsetQuery)

	rows, err := r.QueryContext(ctx, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}
	if err != nil {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "selecting raw schedule"), http.StatusInternalServerError)
	}

	var list []GetListResponse

	for rows.Next() {
		var detail GetListResponse
		var dateString string
		var startBytes, endBytes []byte

		if err = rows.Scan(
			&detail.ID,
			&detail.Xnxq,
			&detail.CourseCode,
			&detail.CourseName,
			&detail.TeachingWeek,
			&detail.Week,
			&dateString,
			&detail.Period,
			&startBytes,
			&endBytes,
			&detail.Room,
			&detail.TeacherIDs,
			&detail.SyncStatus,
			&detail.LastChanged); err != nil {
			return nil, 0, web.NewRequestError(errors.Wrap(err, "scanning raw schedule list"), http.StatusBadRequest)
		}

		rowDate, err := date.ParseDate(dateString)
		if err != nil {
			return nil, 0, web.NewRequestError(errors.Wrap(err, "converting date to date.Date"), http.StatusBadRequest)
		}
		detail.Date = &rowDate
		detail.StartTime = trimClock(string(startBytes))
		detail.EndTime = trimClock(string(endBytes))

		if detail.SyncStatus == nil {
			detail.SyncPhase = "unsynced"
		} else {
			detail.SyncPhase = entity.SyncMarker(*detail.SyncStatus).String()
		}

		list = append(list, detail)
	}

	countQuery := fmt.Sprintf(`
		SELECT
			count(id)
		FROM raw_schedule
		%s
	`, whereQuery)

	count := 0
	if err = r.QueryRowContext(ctx, countQuery).Scan(&count); err != nil {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "scanning raw schedule count"), http.StatusInternalServerError)
	}

	return list, count, nil
}

func (r Repository) Create(ctx context.Context, request CreateRequest) (CreateResponse, error) {
	claims, err := r.CheckClaims(ctx)
	if err != nil {
		return CreateResponse{}, err
	}

	if err := r.ValidateStruct(&request,
		"Xnxq", "CourseCode", "TeachingWeek", "Week", "Date", "Period", "StartTime", "EndTime"); err != nil {
		return CreateResponse{}, err
	}

	var response CreateResponse

	response.Xnxq = request.Xnxq
	response.CourseCode = request.CourseCode
	response.CourseName = request.CourseName
	response.TeachingWeek = request.TeachingWeek
	response.Week = request.Week
	response.Date = request.Date
	response.Period = request.Period
	response.StartTime = request.StartTime
	response.EndTime = request.EndTime
	response.Room = request.Room
	response.HallCluster = request.HallCluster
	response.TeacherIDs = request.TeacherIDs
	response.TeacherNames = request.TeacherNames
	response.StudentIDs = request.StudentIDs
	response.NeedCheckin = request.NeedCheckin
	response.LastChanged = time.Now()
	response.CreatedAt = time.Now()
	response.CreatedBy = claims.UserId

	_, err = r.NewInsert().Model(&response).Returning("id").Exec(ctx, &response.ID)
	if err != nil {
		return CreateResponse{}, web.NewRequestError(errors.Wrap(err, "creating raw schedule row"), http.StatusBadRequest)
	}

	return response, nil
}

// UpdateColumns patches a row and bumps last_changed so the next incremental
// pass picks it up. It does not touch the sync marker.
func (r Repository) UpdateColumns(ctx context.Context, request UpdateRequest) error {
	if err := r.ValidateStruct(&request, "ID"); err != nil {
		return err
	}

	claims, err := r.CheckClaims(ctx)
	if err != nil {
		return err
	}

	q := r.NewUpdate().Table("raw_schedule").Where("deleted_at IS NULL AND id = ?", request.ID)

	if request.CourseName != nil {
		q.Set("course_name = ?", request.CourseName)
	}
	if request.Room != nil {
		q.Set("room = ?", request.Room)
	}
	if request.TeacherIDs != nil {
		q.Set("teacher_ids = ?", request.TeacherIDs)
	}
	if request.TeacherNames != nil {
		q.Set("teacher_names = ?", request.TeacherNames)
	}
	if request.StudentIDs != nil {
		q.Set("student_ids = ?", request.StudentIDs)
	}
	if request.NeedCheckin != nil {
		q.Set("need_checkin = ?", request.NeedCheckin)
	}
	if request.StartTime != nil {
		q.Set("start_time = ?", request.StartTime)
	}
	if request.EndTime != nil {
		q.Set("end_time = ?", request.EndTime)
	}
	q.Set("last_changed = ?", time.Now())
	q.Set("updated_at = ?", time.Now())
	q.Set("updated_by = ?", claims.UserId)

	_, err = q.Exec(ctx)
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "updating raw schedule row"), http.StatusBadRequest)
	}

	return nil
}

// Delete withdraws a row: it is soft deleted and its marker is moved to the
// soft-delete branch so the next aggregation pass purges its contribution.
func (r Repository) Delete(ctx context.Context, id int) error {
	claims, err := r.CheckClaims(ctx)
	if err != nil {
		return err
	}

	q := r.NewUpdate().Table("raw_schedule").
		Where("deleted_at IS NULL AND id = ? AND (sync_status IS NULL OR sync_status <> ?)", id, entity.MarkerSoftDeleteDone)
	q.Set("sync_status = ?", entity.MarkerSoftDeleted)
	q.Set("last_changed = ?", time.Now())
	q.Set("deleted_at = ?", time.Now())
	q.Set("deleted_by = ?", claims.UserId)

	result, err := q.Exec(ctx)
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "withdrawing raw schedule row"), http.StatusBadRequest)
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

// FindByMarker returns the candidate rows of one aggregation pass, ordered by
// (date, start_time) so retries reprocess in a predictable sequence. A nil
// marker selects unsynced rows. Soft-deleted candidates include rows the
// admin surface soft deleted.
func (r Repository) FindByMarker(ctx context.Context, xnxq string, marker *entity.SyncMarker, dateFrom, dateTo *string) ([]entity.RawScheduleRow, error) {
	q := r.NewSelect().
		Model((*entity.RawScheduleRow)(nil)).
		ModelTableExpr("raw_schedule").
		Where("xnxq = ?", xnxq)

	if marker == nil {
		q = q.Where("sync_status IS NULL").Where("deleted_at IS NULL")
	} else {
		q = q.Where("sync_status = ?", *marker)
	}
	if dateFrom != nil {
		q = q.Where("date >= ?", *dateFrom)
	}
	if dateTo != nil {
		q = q.Where("date <= ?", *dateTo)
	}

	var rows []entity.RawScheduleRow
	if err := q.Order("date", "start_time", "period").Scan(ctx, &rows); err != nil {
		return nil, errors.Wrap(err, "selecting rows by marker")
	}

	return rows, nil
}

// FindActiveForCourseDate returns the rows still contributing to a course's
// sessions on one date: not soft deleted and not on the soft-delete branch.
func (r Repository) FindActiveForCourseDate(ctx context.Context, xnxq, courseCode, date string) ([]entity.RawScheduleRow, error) {
	var rows []entity.RawScheduleRow

	err := r.NewSelect().
		Model((*entity.RawScheduleRow)(nil)).
		ModelTableExpr("raw_schedule").
		Where("xnxq = ? AND course_code = ? AND date = ?", xnxq, courseCode, date).
		Where("deleted_at IS NULL").
		Where("(sync_status IS NULL OR sync_status NOT IN (?, ?))",
			entity.MarkerSoftDeleted, entity.MarkerSoftDeleteDone).
		Order("period").
		Scan(ctx, &rows)
	if err != nil {
		return nil, errors.Wrap(err, "selecting surviving rows")
	}

	return rows, nil
}

// MarkAfterAggregation advances the markers of one processed group. The batch
// is atomic and conditional: every row must still hold the expected pre-state
// or the whole batch rolls back, which is what makes two concurrent passes
// over the same rows converge instead of double-processing.
func (r Repository) MarkAfterAggregation(ctx context.Context, ids []int, from *entity.SyncMarker, to entity.SyncMarker) error {
	if len(ids) == 0 {
		return nil
	}
	if !entity.CanAdvanceTo(from, to) {
		return errors.Errorf("illegal marker transition to %s", to)
	}

	tx, err := r.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning marker transaction")
	}

	q := tx.NewUpdate().Table("raw_schedule").
		Where("id IN (?)", bun.In(ids)).
		Set("sync_status = ?", to).
		Set("last_changed = ?", time.Now())
	if from == nil {
		q = q.Where("sync_status IS NULL")
	} else {
		q = q.Where("sync_status = ?", *from)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "updating markers")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "marker rows affected")
	}
	if affected != int64(len(ids)) {
		// Another pass already advanced part of the batch.
		_ = tx.Rollback()
		return errors.Errorf("marker batch conflict: expected %d rows, matched %d", len(ids), affected)
	}

	return errors.Wrap(tx.Commit(), "committing marker transaction")
}

// Resync resets markers to unsynced for an explicit external request.
func (r Repository) Resync(ctx context.Context, request ResyncRequest) (int64, error) {
	if err := r.ValidateStruct(&request, "Xnxq"); err != nil {
		return 0, err
	}

	q := r.NewUpdate().Table("raw_schedule").
		Where("xnxq = ? AND deleted_at IS NULL", *request.Xnxq).
		Set("sync_status = NULL").
		Set("last_changed = ?", time.Now())
	if request.DateFrom != nil {
		q = q.Where("date >= ?", *request.DateFrom)
	}
	if request.DateTo != nil {
		q = q.Where("date <= ?", *request.DateTo)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return 0, web.NewRequestError(errors.Wrap(err, "resyncing raw schedule"), http.StatusBadRequest)
	}

	return result.RowsAffected()
}

// ClearTerm physically removes a term's raw rows. This is the only physical
// delete the pipeline allows.
func (r Repository) ClearTerm(ctx context.Context, xnxq string) (int64, error) {
	result, err := r.NewDelete().Table("raw_schedule").Where("xnxq = ?", xnxq).Exec(ctx)
	if err != nil {
		return 0, web.NewRequestError(errors.Wrap(err, "clearing term"), http.StatusBadRequest)
	}

	return result.RowsAffected()
}

func trimClock(s string) string {
	if len(s) >= 5 {
		return s[:5]
	}
	return s
}
