package entity

import "testing"

func marker(m SyncMarker) *SyncMarker { return &m }

func TestCanAdvanceTo(t *testing.T) {
	tests := []struct {
		name string
		from *SyncMarker
		to   SyncMarker
		want bool
	}{
		{"unsynced to teacher", nil, MarkerTeacherSynced, true},
		{"teacher to student", marker(MarkerTeacherSynced), MarkerStudentSynced, true},
		{"unsynced to student skips a phase", nil, MarkerStudentSynced, false},
		{"teacher to teacher repeats", marker(MarkerTeacherSynced), MarkerTeacherSynced, false},
		{"student to teacher goes backwards", marker(MarkerStudentSynced), MarkerTeacherSynced, false},
		{"unsynced to soft-deleted", nil, MarkerSoftDeleted, true},
		{"student to soft-deleted", marker(MarkerStudentSynced), MarkerSoftDeleted, true},
		{"done to soft-deleted", marker(MarkerSoftDeleteDone), MarkerSoftDeleted, false},
		{"soft-deleted to done", marker(MarkerSoftDeleted), MarkerSoftDeleteDone, true},
		{"teacher to done skips the delete", marker(MarkerTeacherSynced), MarkerSoftDeleteDone, false},
		{"unsynced to done", nil, MarkerSoftDeleteDone, false},
	}

	for _, tt := range tests {
		if got := CanAdvanceTo(tt.from, tt.to); got != tt.want {
			t.Errorf("%s: CanAdvanceTo = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTimeBandForPeriod(t *testing.T) {
	for period, want := range map[int]TimeBand{1: BandMorning, 4: BandMorning, 5: BandAfternoon, 9: BandAfternoon} {
		if got := TimeBandForPeriod(period); got != want {
			t.Errorf("TimeBandForPeriod(%d) = %s, want %s", period, got, want)
		}
	}
}
