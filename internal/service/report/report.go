package report

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"
)

type Service struct {
	session    Session
	attendance Attendance
	baseUrl    string
}

func NewService(sessionRepo Session, attendanceRepo Attendance, baseUrl string) *Service {
	return &Service{session: sessionRepo, attendance: attendanceRepo, baseUrl: baseUrl}
}

// QRCode renders the session's check-in link as a PNG. The link carries the
// redis-backed token, so a stale QR stops working when the token expires.
func (s *Service) QRCode(ctx context.Context, sessionID int) ([]byte, error) {
	token, err := s.attendance.EnsureToken(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	link := fmt.Sprintf("%s/api/v1/session/checkin?token=%s", s.baseUrl, token)
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, errors.Wrap(err, "encoding qr code")
	}

	return png, nil
}

func statusLabel(status string, recorded bool) string {
	if !recorded {
		return "absent"
	}
	switch status {
	case "pending_approval", "leave_pending":
		return "pending"
	case "leave_rejected":
		return "absent"
	default:
		return status
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
