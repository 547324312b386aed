package sync

import (
	"context"
	stdsync "sync"
	"testing"

	"classroom/backend/internal/entity"
	"classroom/backend/internal/repository/postgres/schedule"
	"classroom/backend/internal/repository/postgres/session"
	"classroom/backend/internal/repository/postgres/task"
)

type fakeSchedule struct {
	mu     stdsync.Mutex
	rows   []entity.RawScheduleRow
	active []entity.RawScheduleRow
	marked [][]int
	resets int
}

func (f *fakeSchedule) FindByMarker(_ context.Context, _ string, _ *entity.SyncMarker, _, _ *string) ([]entity.RawScheduleRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows, nil
}

func (f *fakeSchedule) FindActiveForCourseDate(_ context.Context, _, _, _ string) ([]entity.RawScheduleRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active, nil
}

func (f *fakeSchedule) MarkAfterAggregation(_ context.Context, ids []int, _ *entity.SyncMarker, _ entity.SyncMarker) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, ids)
	return nil
}

func (f *fakeSchedule) Resync(_ context.Context, _ schedule.ResyncRequest) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return int64(len(f.rows)), nil
}

type fakeSession struct {
	mu        stdsync.Mutex
	upserts   []session.Draft
	rebuilds  []session.Draft
	withdrawn []session.GroupKey
	students  map[int][]string
}

func (f *fakeSession) UpsertMerged(_ context.Context, draft session.Draft) (session.UpsertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, draft)
	return session.UpsertResult{SessionID: len(f.upserts), Created: true}, nil
}

func (f *fakeSession) RebuildMerged(_ context.Context, draft session.Draft) (session.UpsertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rebuilds = append(f.rebuilds, draft)
	return session.UpsertResult{SessionID: 77}, nil
}

func (f *fakeSession) MarkWithdrawn(_ context.Context, key session.GroupKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.withdrawn = append(f.withdrawn, key)
	return nil
}

func (f *fakeSession) ReplaceStudents(_ context.Context, sessionID int, studentIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.students == nil {
		f.students = map[int][]string{}
	}
	f.students[sessionID] = studentIDs
	return nil
}

type fakeAttendance struct {
	mu      stdsync.Mutex
	records map[int]int
}

func (f *fakeAttendance) UpsertRecord(_ context.Context, sessionID, totalCount int) (entity.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.records == nil {
		f.records = map[int]int{}
	}
	f.records[sessionID] = totalCount
	return entity.AttendanceRecord{SessionID: sessionID, TotalCount: totalCount}, nil
}

type fakeTask struct {
	mu          stdsync.Mutex
	nextID      int
	tasks       map[int]*entity.Task
	rejectStart bool
}

func newFakeTask() *fakeTask {
	return &fakeTask{tasks: map[int]*entity.Task{}}
}

func (f *fakeTask) Create(_ context.Context, request task.CreateRequest) (entity.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	node := &entity.Task{ID: f.nextID, ParentID: request.ParentID, Status: entity.TaskPending}
	if request.Name != nil {
		node.Name = *request.Name
	}
	f.tasks[node.ID] = node
	return *node, nil
}

func (f *fakeTask) GetStatus(_ context.Context, id int) (entity.TaskStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tasks[id].Status, nil
}

func (f *fakeTask) setStatus(id int, status entity.TaskStatus) (task.TransitionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[id].Status = status
	return task.TransitionResponse{Success: true, TaskID: id, ToStatus: string(status)}, nil
}

func (f *fakeTask) Start(_ context.Context, id int) (task.TransitionResponse, error) {
	f.mu.Lock()
	if f.rejectStart {
		from := string(f.tasks[id].Status)
		f.mu.Unlock()
		return task.TransitionResponse{TaskID: id, FromStatus: from, ToStatus: string(entity.TaskRunning)}, nil
	}
	f.mu.Unlock()
	return f.setStatus(id, entity.TaskRunning)
}

func (f *fakeTask) Success(_ context.Context, id int, _ string, _ *string) (task.TransitionResponse, error) {
	return f.setStatus(id, entity.TaskSuccess)
}

func (f *fakeTask) Fail(_ context.Context, id int, _, _ string) (task.TransitionResponse, error) {
	return f.setStatus(id, entity.TaskFailed)
}

func (f *fakeTask) UpdateProgress(_ context.Context, id, progress int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[id].Progress = progress
	return nil
}

func (f *fakeTask) RollupProgress(_ context.Context, _ int) error { return nil }

func testRow(id int, course string, period int) entity.RawScheduleRow {
	return entity.RawScheduleRow{
		ID:         id,
		Xnxq:       "2025-2026-1",
		CourseCode: course,
		Date:       "2025-10-13",
		Period:     period,
		StartTime:  "08:00",
		EndTime:    "08:45",
		StudentIDs: "s1/s2",
	}
}

func newTestService() (*Service, *fakeSchedule, *fakeSession, *fakeAttendance, *fakeTask) {
	sched := &fakeSchedule{}
	sess := &fakeSession{}
	att := &fakeAttendance{}
	tasks := newFakeTask()
	return NewService(sched, sess, att, tasks), sched, sess, att, tasks
}

func TestAggregateIsolatesFailedGroups(t *testing.T) {
	svc, sched, sess, _, tasks := newTestService()
	sched.rows = []entity.RawScheduleRow{
		testRow(1, "CS101", 1),
		testRow(2, "CS101", 2),
		testRow(3, "", 1), // no course code, group must fail
	}
	node, _ := tasks.Create(context.Background(), task.CreateRequest{})

	p := phasesFor()[0]
	summary, err := svc.Aggregate(context.Background(), RunRequest{Xnxq: "2025-2026-1"}, p, node.ID, node.ID)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if summary.Total != 2 || summary.Succeeded != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want total 2, succeeded 1, failed 1", summary)
	}
	// the failed group is not a session written
	if summary.Morning != 1 || summary.Afternoon != 0 {
		t.Errorf("band counts = %d/%d, want 1/0", summary.Morning, summary.Afternoon)
	}
	if len(sess.upserts) != 1 {
		t.Fatalf("upserts = %d, want 1", len(sess.upserts))
	}
	// only the good group's rows advance
	if len(sched.marked) != 1 || len(sched.marked[0]) != 2 {
		t.Errorf("marked = %v, want one batch of two ids", sched.marked)
	}
}

func TestAggregateStudentPhaseWritesEnrollment(t *testing.T) {
	svc, sched, sess, att, tasks := newTestService()
	sched.rows = []entity.RawScheduleRow{testRow(1, "CS101", 1)}
	node, _ := tasks.Create(context.Background(), task.CreateRequest{})

	p := phasesFor()[1]
	summary, err := svc.Aggregate(context.Background(), RunRequest{Xnxq: "2025-2026-1"}, p, node.ID, node.ID)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	if got := sess.students[1]; len(got) != 2 {
		t.Errorf("enrollment = %v, want two students", got)
	}
	if got := att.records[1]; got != 2 {
		t.Errorf("attendance total = %d, want 2", got)
	}
}

func TestAggregateWithdrawPhaseMarksSessions(t *testing.T) {
	svc, sched, sess, _, tasks := newTestService()
	sched.rows = []entity.RawScheduleRow{testRow(1, "CS101", 1)}
	node, _ := tasks.Create(context.Background(), task.CreateRequest{})

	p := phasesFor()[2]
	summary, err := svc.Aggregate(context.Background(), RunRequest{Xnxq: "2025-2026-1"}, p, node.ID, node.ID)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if len(sess.withdrawn) != 1 {
		t.Fatalf("withdrawn = %v, want one key", sess.withdrawn)
	}
	if len(sess.upserts) != 0 {
		t.Errorf("withdraw pass must not upsert, got %d", len(sess.upserts))
	}
	if summary.Morning != 0 || summary.Afternoon != 0 {
		t.Errorf("band counts = %d/%d, withdraw pass writes no sessions", summary.Morning, summary.Afternoon)
	}
}

func TestAggregateWithdrawRebuildsWhileRowsRemain(t *testing.T) {
	svc, sched, sess, att, tasks := newTestService()
	sched.rows = []entity.RawScheduleRow{testRow(1, "CS101", 1)}
	sched.active = []entity.RawScheduleRow{
		testRow(2, "CS101", 2),
		testRow(3, "CS101", 3),
	}
	node, _ := tasks.Create(context.Background(), task.CreateRequest{})

	p := phasesFor()[2]
	if _, err := svc.Aggregate(context.Background(), RunRequest{Xnxq: "2025-2026-1"}, p, node.ID, node.ID); err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if len(sess.withdrawn) != 0 {
		t.Fatalf("session withdrawn while active rows remain: %v", sess.withdrawn)
	}
	if len(sess.rebuilds) != 1 {
		t.Fatalf("rebuilds = %d, want 1", len(sess.rebuilds))
	}

	// the deleted row's period must be gone from the rebuilt lists
	rebuilt := sess.rebuilds[0]
	if len(rebuilt.Periods) != 2 || rebuilt.Periods[0] != 2 || rebuilt.Periods[1] != 3 {
		t.Errorf("periods = %v, want [2 3]", rebuilt.Periods)
	}
	if got := sess.students[77]; len(got) != 2 {
		t.Errorf("enrollment = %v, want the survivors' students", got)
	}
	if got := att.records[77]; got != 2 {
		t.Errorf("attendance total = %d, want 2", got)
	}
	if len(sched.marked) != 1 || len(sched.marked[0]) != 1 {
		t.Errorf("marked = %v, want the deleted row advanced", sched.marked)
	}
}

func TestAggregateStopsWhenCancelled(t *testing.T) {
	svc, sched, _, _, tasks := newTestService()
	sched.rows = []entity.RawScheduleRow{testRow(1, "CS101", 1), testRow(2, "CS102", 1)}
	node, _ := tasks.Create(context.Background(), task.CreateRequest{})
	tasks.tasks[node.ID].Status = entity.TaskCancelled

	p := phasesFor()[0]
	_, err := svc.Aggregate(context.Background(), RunRequest{Xnxq: "2025-2026-1"}, p, node.ID, node.ID)
	if err != ErrCancelled {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if len(sched.marked) != 0 {
		t.Errorf("cancelled run must not advance markers, got %v", sched.marked)
	}
}

func TestRunValidatesRequest(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	if _, err := svc.Run(context.Background(), RunRequest{Kind: KindFull}); err == nil {
		t.Error("expected error for missing xnxq")
	}
	if _, err := svc.Run(context.Background(), RunRequest{Xnxq: "2025-2026-1", Kind: "bogus"}); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestRunSurfacesRejectedStart(t *testing.T) {
	svc, _, _, _, tasks := newTestService()
	tasks.rejectStart = true

	if _, err := svc.Run(context.Background(), RunRequest{Xnxq: "2025-2026-1", Kind: KindIncremental}); err == nil {
		t.Error("expected error when the run task cannot start")
	}
}

func TestRunCreatesTaskTree(t *testing.T) {
	svc, _, _, _, tasks := newTestService()

	parentID, err := svc.Run(context.Background(), RunRequest{Xnxq: "2025-2026-1", Kind: KindIncremental})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	tasks.mu.Lock()
	defer tasks.mu.Unlock()
	children := 0
	for _, node := range tasks.tasks {
		if node.ParentID != nil && *node.ParentID == parentID {
			children++
		}
	}
	if children != 3 {
		t.Errorf("children = %d, want 3", children)
	}
}
