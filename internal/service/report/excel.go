package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// ExcelAttendance builds the per-session attendance workbook: a summary block
// followed by one row per enrolled student.
func (s *Service) ExcelAttendance(ctx context.Context, sessionID int) (*bytes.Buffer, string, error) {
	detail, err := s.session.GetDetailById(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	stats, err := s.attendance.GetStats(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	students, err := s.attendance.GetStudentList(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	sheet := "Attendance"
	f.SetSheetName("Sheet1", sheet)

	date := ""
	if detail.Date != nil {
		date = detail.Date.String()
	}

	summary := [][2]interface{}{
		{"Course", fmt.Sprintf("%s %s", detail.CourseCode, deref(detail.CourseName))},
		{"Term", detail.Xnxq},
		{"Date", date},
		{"Time", fmt.Sprintf("%s - %s (%s)", detail.StartTime, detail.EndTime, detail.TimeBand)},
		{"Periods", detail.Periods},
		{"Rooms", deref(detail.Rooms)},
		{"Teachers", deref(detail.TeacherNames)},
		{"Enrolled", stats.TotalCount},
		{"Present", stats.PresentCount},
		{"On leave", stats.LeaveCount},
		{"Pending", stats.PendingCount},
		{"Absent", stats.AbsentCount},
		{"Check-in rate", fmt.Sprintf("%d%%", stats.CheckinRate)},
	}
	for i, kv := range summary {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", i+1), kv[0])
		f.SetCellValue(sheet, fmt.Sprintf("B%d", i+1), kv[1])
	}

	headerRow := len(summary) + 2
	headers := []string{"#", "Student ID", "Status", "Reason"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c%d", 'A'+i, headerRow)
		f.SetCellValue(sheet, cell, header)
	}

	rowNum := headerRow + 1
	for i, student := range students {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", rowNum), i+1)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", rowNum), student.StudentID)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", rowNum), statusLabel(student.Status, student.Recorded))
		f.SetCellValue(sheet, fmt.Sprintf("D%d", rowNum), deref(student.Reason))
		rowNum++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", errors.Wrap(err, "writing workbook")
	}

	filename := fmt.Sprintf("attendance_%s_%s.xlsx", detail.CourseCode, date)

	return buf, filename, nil
}
