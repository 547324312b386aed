package session

import (
	"sort"
	"strconv"
	"strings"

	"classroom/backend/internal/entity"

	"github.com/pkg/errors"
)

// RoomPlaceholder keeps the room list position-aligned with the period list
// when a raw row carries no room.
const RoomPlaceholder = "-"

// GroupKey identifies one consolidated session. TimeBand is derived from the
// period numbers, everything else comes straight off the raw rows.
type GroupKey struct {
	CourseCode   string
	Xnxq         string
	TeachingWeek int
	Week         int
	Date         string
	Band         entity.TimeBand
}

// Group is the set of raw rows contributing to one session.
type Group struct {
	Key  GroupKey
	Rows []entity.RawScheduleRow
}

// Draft is a fully merged session ready to be upserted. Lists are kept as
// slices here; the repository joins them into the legacy slash layout.
type Draft struct {
	Key          GroupKey
	CourseName   string
	Periods      []int
	Rooms        []string
	TeacherIDs   []string
	TeacherNames []string
	StudentIDs   []string
	StartTime    string
	EndTime      string
	HallCluster  string
	NeedCheckin  bool
	RowIDs       []int
}

// BuildGroups partitions raw rows into morning/afternoon sub-groups and then
// groups them by (course, term, teaching week, week, date). The result is
// sorted by (date, start time) so a partially failed run retries in a
// predictable order.
func BuildGroups(rows []entity.RawScheduleRow) []Group {
	byKey := map[GroupKey][]entity.RawScheduleRow{}
	for _, row := range rows {
		key := GroupKey{
			CourseCode:   row.CourseCode,
			Xnxq:         row.Xnxq,
			TeachingWeek: row.TeachingWeek,
			Week:         row.Week,
			Date:         row.Date,
			Band:         entity.TimeBandForPeriod(row.Period),
		}
		byKey[key] = append(byKey[key], row)
	}

	groups := make([]Group, 0, len(byKey))
	for key, members := range byKey {
		sort.Slice(members, func(i, j int) bool { return members[i].Period < members[j].Period })
		groups = append(groups, Group{Key: key, Rows: members})
	}

	sort.Slice(groups, func(i, j int) bool {
		gi, gj := groups[i], groups[j]
		if gi.Key.Date != gj.Key.Date {
			return gi.Key.Date < gj.Key.Date
		}
		if len(gi.Rows) > 0 && len(gj.Rows) > 0 && gi.Rows[0].StartTime != gj.Rows[0].StartTime {
			return gi.Rows[0].StartTime < gj.Rows[0].StartTime
		}
		return gi.Key.CourseCode < gj.Key.CourseCode
	})

	return groups
}

// BuildDraft merges one group's rows into a session draft: periods in period
// order, rooms aligned with periods, teacher/student sets deduplicated,
// session start from the earliest period, session end from the latest, hall
// cluster from the earliest period's row.
func BuildDraft(g Group) (Draft, error) {
	if len(g.Rows) == 0 {
		return Draft{}, errors.New("empty group")
	}
	if g.Key.CourseCode == "" {
		return Draft{}, errors.New("group is missing its course code")
	}

	rows := make([]entity.RawScheduleRow, len(g.Rows))
	copy(rows, g.Rows)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Period < rows[j].Period })

	draft := Draft{
		Key:         g.Key,
		CourseName:  rows[0].CourseName,
		StartTime:   rows[0].StartTime,
		EndTime:     rows[len(rows)-1].EndTime,
		HallCluster: rows[0].HallCluster,
	}

	for _, row := range rows {
		if row.StartTime == "" || row.EndTime == "" {
			return Draft{}, errors.Errorf("period %d has no clock times", row.Period)
		}

		draft.Periods = append(draft.Periods, row.Period)
		room := row.Room
		if room == "" {
			room = RoomPlaceholder
		}
		draft.Rooms = append(draft.Rooms, room)

		draft.TeacherIDs = appendUnique(draft.TeacherIDs, SplitList(row.TeacherIDs)...)
		draft.TeacherNames = appendUnique(draft.TeacherNames, SplitList(row.TeacherNames)...)
		draft.StudentIDs = appendUnique(draft.StudentIDs, SplitList(row.StudentIDs)...)
		draft.RowIDs = append(draft.RowIDs, row.ID)

		if row.NeedCheckin {
			draft.NeedCheckin = true
		}
		if row.StartTime < draft.StartTime {
			draft.StartTime = row.StartTime
		}
		if row.EndTime > draft.EndTime {
			draft.EndTime = row.EndTime
		}
	}

	return draft, nil
}

// MergeInto folds a draft into an already stored session without destroying
// what earlier runs contributed: the (period, room) pairs, teacher and
// student sets become unions, and the start/end extremes are recomputed.
func MergeInto(existing entity.ClassSession, draft Draft) entity.ClassSession {
	periods := ParsePeriods(existing.Periods)
	rooms := SplitList(existing.Rooms)

	roomByPeriod := map[int]string{}
	for i, p := range periods {
		room := RoomPlaceholder
		if i < len(rooms) {
			room = rooms[i]
		}
		roomByPeriod[p] = room
	}
	for i, p := range draft.Periods {
		room := draft.Rooms[i]
		if prev, ok := roomByPeriod[p]; !ok || prev == RoomPlaceholder || room != RoomPlaceholder {
			roomByPeriod[p] = room
		}
	}

	merged := make([]int, 0, len(roomByPeriod))
	for p := range roomByPeriod {
		merged = append(merged, p)
	}
	sort.Ints(merged)

	mergedRooms := make([]string, len(merged))
	for i, p := range merged {
		mergedRooms[i] = roomByPeriod[p]
	}

	existing.Periods = JoinPeriods(merged)
	existing.Rooms = strings.Join(mergedRooms, "/")
	existing.TeacherIDs = strings.Join(appendUnique(SplitList(existing.TeacherIDs), draft.TeacherIDs...), "/")
	existing.TeacherNames = strings.Join(appendUnique(SplitList(existing.TeacherNames), draft.TeacherNames...), "/")
	existing.StudentIDs = strings.Join(appendUnique(SplitList(existing.StudentIDs), draft.StudentIDs...), "/")

	if draft.StartTime < existing.StartTime {
		existing.StartTime = draft.StartTime
	}
	if draft.EndTime > existing.EndTime {
		existing.EndTime = draft.EndTime
	}
	if existing.HallCluster == "" {
		existing.HallCluster = draft.HallCluster
	}
	if draft.NeedCheckin {
		existing.NeedCheckin = true
	}
	existing.Withdrawn = false

	return existing
}

// SplitList splits a legacy slash-joined list, dropping empty elements.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParsePeriods parses a slash-joined period list; malformed elements are
// skipped.
func ParsePeriods(s string) []int {
	var out []int
	for _, p := range SplitList(s) {
		if n, err := strconv.Atoi(p); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func JoinPeriods(periods []int) string {
	parts := make([]string, len(periods))
	for i, p := range periods {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, "/")
}

func appendUnique(dst []string, values ...string) []string {
	seen := map[string]bool{}
	for _, v := range dst {
		seen[v] = true
	}
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		dst = append(dst, v)
	}
	return dst
}
