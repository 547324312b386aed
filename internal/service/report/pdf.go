package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/pkg/errors"
)

// PdfSheet builds a printable roll-call sheet: session header plus one line
// per enrolled student with a blank signature column.
func (s *Service) PdfSheet(ctx context.Context, sessionID int) (*bytes.Buffer, string, error) {
	detail, err := s.session.GetDetailById(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	students, err := s.attendance.GetStudentList(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}

	date := ""
	if detail.Date != nil {
		date = detail.Date.String()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, fmt.Sprintf("%s %s", detail.CourseCode, deref(detail.CourseName)), "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s  %s - %s  (%s, periods %s)", date, detail.StartTime, detail.EndTime, detail.TimeBand, detail.Periods), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Rooms: %s    Teachers: %s", deref(detail.Rooms), deref(detail.TeacherNames)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(15, 7, "#", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 7, "Student ID", "1", 0, "C", false, 0, "")
	pdf.CellFormat(55, 7, "Status", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 7, "Signature", "1", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	for i, student := range students {
		pdf.CellFormat(15, 7, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(60, 7, student.StudentID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(55, 7, statusLabel(student.Status, student.Recorded), "1", 0, "C", false, 0, "")
		pdf.CellFormat(60, 7, "", "1", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", errors.Wrap(err, "rendering pdf")
	}

	filename := fmt.Sprintf("rollcall_%s_%s.pdf", detail.CourseCode, date)

	return &buf, filename, nil
}
