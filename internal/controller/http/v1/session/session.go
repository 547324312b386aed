package session

import (
	"fmt"
	"net/http"
	"reflect"

	"classroom/backend/foundation/web"
	"classroom/backend/internal/repository/postgres/attendance"
	"classroom/backend/internal/repository/postgres/session"
)

type Controller struct {
	session    Session
	attendance Attendance
	report     Report
}

func NewController(session Session, attendance Attendance, report Report) *Controller {
	return &Controller{session: session, attendance: attendance, report: report}
}

func (uc Controller) GetList(c *web.Context) error {
	var filter session.Filter

	if limit, ok := c.GetQueryFunc(reflect.Int, "limit").(*int); ok {
		filter.Limit = limit
	}
	if offset, ok := c.GetQueryFunc(reflect.Int, "offset").(*int); ok {
		filter.Offset = offset
	}
	if page, ok := c.GetQueryFunc(reflect.Int, "page").(*int); ok {
		filter.Page = page
	}
	if xnxq, ok := c.GetQueryFunc(reflect.String, "xnxq").(*string); ok {
		filter.Xnxq = xnxq
	}
	if courseCode, ok := c.GetQueryFunc(reflect.String, "course_code").(*string); ok {
		filter.CourseCode = courseCode
	}
	if date, ok := c.GetQueryFunc(reflect.String, "date").(*string); ok {
		filter.Date = date
	}
	if teacherId, ok := c.GetQueryFunc(reflect.String, "teacher_id").(*string); ok {
		filter.TeacherID = teacherId
	}
	if studentId, ok := c.GetQueryFunc(reflect.String, "student_id").(*string); ok {
		filter.StudentID = studentId
	}
	if band, ok := c.GetQueryFunc(reflect.String, "time_band").(*string); ok {
		filter.Band = band
	}
	if withdrawn, ok := c.GetQueryFunc(reflect.Bool, "withdrawn").(*bool); ok {
		filter.Withdrawn = withdrawn
	}
	if err := c.ValidQuery(); err != nil {
		return c.RespondError(err)
	}

	list, count, err := uc.session.GetList(c.Ctx, filter)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data": map[string]interface{}{
			"results": list,
			"count":   count,
		},
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) GetDetailById(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	response, err := uc.session.GetDetailById(c.Ctx, id)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) GetStats(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	stats, err := uc.attendance.GetStats(c.Ctx, id)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   stats,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) GetStudentList(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	students, err := uc.attendance.GetStudentList(c.Ctx, id)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   students,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) GetRecord(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	record, err := uc.attendance.GetRecordBySession(c.Ctx, id)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   record,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) GetQrCode(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	png, err := uc.report.QRCode(c.Ctx, id)
	if err != nil {
		return c.RespondError(err)
	}

	c.Header("Content-Type", "image/png")
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=session_%d.png", id))
	c.Status(http.StatusOK)
	_, err = c.Writer.Write(png)
	if err != nil {
		return c.RespondError(err)
	}

	return nil
}

func (uc Controller) ExportExcel(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	buf, filename, err := uc.report.ExcelAttendance(c.Ctx, id)
	if err != nil {
		return c.RespondError(err)
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	_, err = c.Writer.Write(buf.Bytes())
	if err != nil {
		return c.RespondError(err)
	}

	return nil
}

func (uc Controller) ExportSheet(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	buf, filename, err := uc.report.PdfSheet(c.Ctx, id)
	if err != nil {
		return c.RespondError(err)
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	_, err = c.Writer.Write(buf.Bytes())
	if err != nil {
		return c.RespondError(err)
	}

	return nil
}

func (uc Controller) CheckIn(c *web.Context) error {
	var request attendance.CheckInRequest

	if err := c.BindFunc(&request, "Token", "StudentID"); err != nil {
		return c.RespondError(err)
	}

	response, err := uc.attendance.CheckIn(c.Ctx, request)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) RequestLeave(c *web.Context) error {
	var request attendance.LeaveRequest

	if err := c.BindFunc(&request, "SessionID", "StudentID", "Reason"); err != nil {
		return c.RespondError(err)
	}

	if err := uc.attendance.RequestLeave(c.Ctx, request); err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   "ok!",
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) ApproveLeave(c *web.Context) error {
	return uc.reviewLeave(c, true)
}

func (uc Controller) RejectLeave(c *web.Context) error {
	return uc.reviewLeave(c, false)
}

func (uc Controller) reviewLeave(c *web.Context, approve bool) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	err := uc.attendance.ReviewLeave(c.Ctx, attendance.ReviewLeaveRequest{ID: id, Approve: &approve})
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   "ok!",
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) CloseRecord(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	if err := uc.attendance.CloseRecord(c.Ctx, id); err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   "ok!",
		"status": true,
	}, http.StatusOK)
}
