package attendance

import (
	"math"

	"classroom/backend/internal/entity"
)

// computeStats applies the default-absent policy: every enrolled student
// starts absent and a recorded row moves them to its status. Recorded rows
// for students no longer enrolled are ignored.
func computeStats(sessionID int, enrolled []string, recorded []entity.StudentAttendance) GetStatsResponse {
	byStudent := map[string]entity.StudentAttendance{}
	for _, row := range recorded {
		byStudent[row.StudentID] = row
	}

	stats := GetStatsResponse{SessionID: sessionID, TotalCount: len(enrolled)}

	for _, studentID := range enrolled {
		row, ok := byStudent[studentID]
		if !ok {
			stats.AbsentCount++
			continue
		}
		switch row.Status {
		case entity.AttendancePresent:
			stats.PresentCount++
		case entity.AttendanceLeave:
			stats.LeaveCount++
		case entity.AttendancePendingApproval, entity.AttendanceLeavePending:
			stats.PendingCount++
		default:
			// absent and leave_rejected both count as absent
			stats.AbsentCount++
		}
	}

	stats.CheckinRate = checkinRate(stats.PresentCount, stats.TotalCount)

	return stats
}

// checkinRate is round(checkin * 100 / total); zero enrollment yields zero.
func checkinRate(checkin, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(checkin) * 100 / float64(total)))
}
