package attendance

import (
	"testing"

	"classroom/backend/internal/entity"
)

func record(student, status string) entity.StudentAttendance {
	return entity.StudentAttendance{StudentID: student, Status: status}
}

// Enrolled students without a recorded row default to absent.
func TestComputeStatsDefaultAbsent(t *testing.T) {
	enrolled := []string{"s1", "s2", "s3", "s4", "s5"}
	recorded := []entity.StudentAttendance{
		record("s1", entity.AttendancePresent),
		record("s2", entity.AttendanceLeave),
	}

	stats := computeStats(7, enrolled, recorded)

	if stats.SessionID != 7 {
		t.Errorf("session id = %d", stats.SessionID)
	}
	if stats.TotalCount != 5 {
		t.Errorf("total = %d, want 5", stats.TotalCount)
	}
	if stats.PresentCount != 1 {
		t.Errorf("present = %d, want 1", stats.PresentCount)
	}
	if stats.LeaveCount != 1 {
		t.Errorf("leave = %d, want 1", stats.LeaveCount)
	}
	if stats.AbsentCount != 3 {
		t.Errorf("absent = %d, want 3", stats.AbsentCount)
	}
}

func TestComputeStatsBuckets(t *testing.T) {
	enrolled := []string{"s1", "s2", "s3", "s4", "s5", "s6"}
	recorded := []entity.StudentAttendance{
		record("s1", entity.AttendancePresent),
		record("s2", entity.AttendancePendingApproval),
		record("s3", entity.AttendanceLeavePending),
		record("s4", entity.AttendanceLeaveRejected),
		record("s5", entity.AttendanceAbsent),
		record("stranger", entity.AttendancePresent), // no longer enrolled
	}

	stats := computeStats(1, enrolled, recorded)

	if stats.PendingCount != 2 {
		t.Errorf("pending = %d, want 2", stats.PendingCount)
	}
	// leave_rejected, explicit absent and the unrecorded s6
	if stats.AbsentCount != 3 {
		t.Errorf("absent = %d, want 3", stats.AbsentCount)
	}
	if stats.TotalCount != 6 {
		t.Errorf("total = %d, want 6", stats.TotalCount)
	}
	if stats.PresentCount != 1 {
		t.Errorf("present = %d, want 1", stats.PresentCount)
	}
}

func TestCheckinRate(t *testing.T) {
	tests := []struct {
		checkin, total, want int
	}{
		{27, 30, 90},
		{1, 3, 33},
		{2, 3, 67},
		{0, 10, 0},
		{10, 10, 100},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := checkinRate(tt.checkin, tt.total); got != tt.want {
			t.Errorf("checkinRate(%d, %d) = %d, want %d", tt.checkin, tt.total, got, tt.want)
		}
	}
}
