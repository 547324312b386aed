package session

import (
	"reflect"
	"strings"
	"testing"

	"classroom/backend/internal/entity"
)

func rawRow(id int, course, date string, period int, start, end, room, teachers, students string) entity.RawScheduleRow {
	return entity.RawScheduleRow{
		ID:           id,
		Xnxq:         "2025-2026-1",
		CourseCode:   course,
		CourseName:   course + " name",
		TeachingWeek: 5,
		Week:         3,
		Date:         date,
		Period:       period,
		StartTime:    start,
		EndTime:      end,
		Room:         room,
		TeacherIDs:   teachers,
		TeacherNames: teachers,
		StudentIDs:   students,
		NeedCheckin:  true,
	}
}

func TestBuildGroupsSplitsBands(t *testing.T) {
	rows := []entity.RawScheduleRow{
		rawRow(1, "CS101", "2025-10-13", 1, "08:00", "08:45", "A101", "t1", "s1/s2"),
		rawRow(2, "CS101", "2025-10-13", 2, "08:55", "09:40", "A101", "t1", "s1/s2"),
		rawRow(3, "CS101", "2025-10-13", 5, "14:00", "14:45", "B202", "t1", "s1/s2"),
	}

	groups := BuildGroups(rows)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	if groups[0].Key.Band != entity.BandMorning {
		t.Errorf("first group band = %s, want morning", groups[0].Key.Band)
	}
	if len(groups[0].Rows) != 2 {
		t.Errorf("morning group has %d rows, want 2", len(groups[0].Rows))
	}
	if groups[1].Key.Band != entity.BandAfternoon {
		t.Errorf("second group band = %s, want afternoon", groups[1].Key.Band)
	}
}

func TestBuildGroupsOrderedByDateAndStart(t *testing.T) {
	rows := []entity.RawScheduleRow{
		rawRow(1, "CS200", "2025-10-14", 1, "08:00", "08:45", "", "t2", ""),
		rawRow(2, "CS101", "2025-10-13", 5, "14:00", "14:45", "", "t1", ""),
		rawRow(3, "CS101", "2025-10-13", 1, "08:00", "08:45", "", "t1", ""),
	}

	groups := BuildGroups(rows)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].Key.Date != "2025-10-13" || groups[0].Key.Band != entity.BandMorning {
		t.Errorf("unexpected first group: %+v", groups[0].Key)
	}
	if groups[1].Key.Band != entity.BandAfternoon {
		t.Errorf("unexpected second group: %+v", groups[1].Key)
	}
	if groups[2].Key.Date != "2025-10-14" {
		t.Errorf("unexpected third group: %+v", groups[2].Key)
	}
}

// Four consecutive morning periods of one course collapse into one draft with
// position-aligned room and period lists.
func TestBuildDraftMorningBlock(t *testing.T) {
	rows := []entity.RawScheduleRow{
		rawRow(4, "CS101", "2025-10-13", 4, "11:05", "11:50", "", "t1", "s3"),
		rawRow(1, "CS101", "2025-10-13", 1, "08:00", "08:45", "A101", "t1", "s1/s2"),
		rawRow(3, "CS101", "2025-10-13", 3, "10:10", "10:55", "A102", "t2", "s2"),
		rawRow(2, "CS101", "2025-10-13", 2, "08:55", "09:40", "A101", "t1", "s1"),
	}
	groups := BuildGroups(rows)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}

	draft, err := BuildDraft(groups[0])
	if err != nil {
		t.Fatalf("BuildDraft: %v", err)
	}

	if got := JoinPeriods(draft.Periods); got != "1/2/3/4" {
		t.Errorf("periods = %q, want 1/2/3/4", got)
	}
	if got := strings.Join(draft.Rooms, "/"); got != "A101/A101/A102/-" {
		t.Errorf("rooms = %q, want A101/A101/A102/-", got)
	}
	if !reflect.DeepEqual(draft.TeacherIDs, []string{"t1", "t2"}) {
		t.Errorf("teachers = %v", draft.TeacherIDs)
	}
	if !reflect.DeepEqual(draft.StudentIDs, []string{"s1", "s2", "s3"}) {
		t.Errorf("students = %v", draft.StudentIDs)
	}
	if draft.StartTime != "08:00" || draft.EndTime != "11:50" {
		t.Errorf("span = %s-%s, want 08:00-11:50", draft.StartTime, draft.EndTime)
	}
	if !draft.NeedCheckin {
		t.Error("expected need_checkin to carry over")
	}
}

func TestBuildDraftErrors(t *testing.T) {
	if _, err := BuildDraft(Group{}); err == nil {
		t.Error("expected error for empty group")
	}

	g := Group{Rows: []entity.RawScheduleRow{rawRow(1, "", "2025-10-13", 1, "08:00", "08:45", "", "", "")}}
	if _, err := BuildDraft(g); err == nil {
		t.Error("expected error for missing course code")
	}

	row := rawRow(1, "CS101", "2025-10-13", 1, "", "", "", "", "")
	g = Group{Key: GroupKey{CourseCode: "CS101"}, Rows: []entity.RawScheduleRow{row}}
	if _, err := BuildDraft(g); err == nil {
		t.Error("expected error for missing clock times")
	}
}

func TestMergeIntoUnionsWithoutLoss(t *testing.T) {
	existing := entity.ClassSession{
		Periods:      "1/2",
		Rooms:        "A101/-",
		TeacherIDs:   "t1",
		TeacherNames: "t1",
		StudentIDs:   "s1/s2",
		StartTime:    "08:00",
		EndTime:      "09:40",
		Withdrawn:    true,
	}
	draft := Draft{
		Periods:      []int{2, 3},
		Rooms:        []string{"A102", "A103"},
		TeacherIDs:   []string{"t2"},
		TeacherNames: []string{"t2"},
		StudentIDs:   []string{"s2", "s3"},
		StartTime:    "08:55",
		EndTime:      "10:55",
	}

	merged := MergeInto(existing, draft)

	if merged.Periods != "1/2/3" {
		t.Errorf("periods = %q, want 1/2/3", merged.Periods)
	}
	// draft room wins over the stored placeholder for period 2
	if merged.Rooms != "A101/A102/A103" {
		t.Errorf("rooms = %q, want A101/A102/A103", merged.Rooms)
	}
	if merged.TeacherIDs != "t1/t2" {
		t.Errorf("teachers = %q, want t1/t2", merged.TeacherIDs)
	}
	if merged.StudentIDs != "s1/s2/s3" {
		t.Errorf("students = %q, want s1/s2/s3", merged.StudentIDs)
	}
	if merged.StartTime != "08:00" || merged.EndTime != "10:55" {
		t.Errorf("span = %s-%s, want 08:00-10:55", merged.StartTime, merged.EndTime)
	}
	if merged.Withdrawn {
		t.Error("merge must clear the withdrawn flag")
	}
}

// Feeding a session's own draft back through MergeInto must not change it.
func TestMergeIntoIdempotent(t *testing.T) {
	rows := []entity.RawScheduleRow{
		rawRow(1, "CS101", "2025-10-13", 1, "08:00", "08:45", "A101", "t1", "s1/s2"),
		rawRow(2, "CS101", "2025-10-13", 2, "08:55", "09:40", "A101", "t1", "s1/s2"),
	}
	groups := BuildGroups(rows)
	draft, err := BuildDraft(groups[0])
	if err != nil {
		t.Fatalf("BuildDraft: %v", err)
	}

	first := MergeInto(entity.ClassSession{
		Periods:   JoinPeriods(draft.Periods),
		Rooms:     strings.Join(draft.Rooms, "/"),
		StartTime: draft.StartTime,
		EndTime:   draft.EndTime,
	}, draft)
	second := MergeInto(first, draft)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("second merge changed the session:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestSplitListAndParsePeriods(t *testing.T) {
	if got := SplitList("a/b//c"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("SplitList = %v", got)
	}
	if got := SplitList(""); got != nil {
		t.Errorf("SplitList(\"\") = %v, want nil", got)
	}
	if got := ParsePeriods("1/2/x/10"); !reflect.DeepEqual(got, []int{1, 2, 10}) {
		t.Errorf("ParsePeriods = %v", got)
	}
}
