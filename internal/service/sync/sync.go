package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"classroom/backend/internal/entity"
	"classroom/backend/internal/repository/postgres/schedule"
	"classroom/backend/internal/repository/postgres/session"
	"classroom/backend/internal/repository/postgres/task"

	"github.com/pkg/errors"
)

const (
	KindFull        = "full"
	KindIncremental = "incremental"
)

// ErrCancelled stops a run between groups once its task node was cancelled.
var ErrCancelled = errors.New("sync run cancelled")

type Service struct {
	schedule   Schedule
	session    Session
	attendance Attendance
	task       Task
}

func NewService(scheduleRepo Schedule, sessionRepo Session, attendanceRepo Attendance, taskRepo Task) *Service {
	return &Service{
		schedule:   scheduleRepo,
		session:    sessionRepo,
		attendance: attendanceRepo,
		task:       taskRepo,
	}
}

type RunRequest struct {
	Xnxq     string  `json:"xnxq"`
	Kind     string  `json:"kind"`
	DateFrom *string `json:"date_from,omitempty"`
	DateTo   *string `json:"date_to,omitempty"`
}

// Summary is the per-phase outcome. Morning/Afternoon count the sessions
// actually written per band; failed groups keep their markers and are retried
// by the next run.
type Summary struct {
	Morning   int `json:"morning"`
	Afternoon int `json:"afternoon"`
	Total     int `json:"total"`
	Failed    int `json:"failed"`
	Succeeded int `json:"succeeded"`
}

// Phase describes one marker advancement pass over the raw rows.
type Phase struct {
	name         string
	from         *entity.SyncMarker
	to           entity.SyncMarker
	withStudents bool
	withdraw     bool
}

func markerPtr(m entity.SyncMarker) *entity.SyncMarker { return &m }

func phasesFor() []Phase {
	return []Phase{
		{name: "teacher_phase", from: nil, to: entity.MarkerTeacherSynced},
		{name: "student_phase", from: markerPtr(entity.MarkerTeacherSynced), to: entity.MarkerStudentSynced, withStudents: true},
		{name: "withdraw_phase", from: markerPtr(entity.MarkerSoftDeleted), to: entity.MarkerSoftDeleteDone, withdraw: true},
	}
}

// Run creates the task tree for an aggregation run and launches it in the
// background. The parent task id is returned immediately; callers observe the
// run through the task endpoints.
func (s *Service) Run(ctx context.Context, request RunRequest) (int, error) {
	if request.Xnxq == "" {
		return 0, errors.New("xnxq is required")
	}
	if request.Kind != KindFull && request.Kind != KindIncremental {
		return 0, errors.Errorf("unknown sync kind: %q", request.Kind)
	}

	metadata, err := json.Marshal(request)
	if err != nil {
		return 0, errors.Wrap(err, "marshalling run metadata")
	}

	name := fmt.Sprintf("schedule sync %s (%s)", request.Xnxq, request.Kind)
	executor := "sync-engine"
	parent, err := s.task.Create(ctx, task.CreateRequest{
		Name:     &name,
		Type:     strPtr("sync_run"),
		Executor: executor,
		Metadata: metadata,
	})
	if err != nil {
		return 0, errors.Wrap(err, "creating run task")
	}

	phases := phasesFor()
	children := make([]int, 0, len(phases))
	for _, p := range phases {
		childName := p.name
		child, err := s.task.Create(ctx, task.CreateRequest{
			ParentID: &parent.ID,
			Name:     &childName,
			Type:     strPtr("sync_phase"),
			Executor: executor,
			Metadata: metadata,
		})
		if err != nil {
			return 0, errors.Wrapf(err, "creating %s task", p.name)
		}
		children = append(children, child.ID)
	}

	started, err := s.task.Start(ctx, parent.ID)
	if err != nil {
		return 0, errors.Wrap(err, "starting run task")
	}
	if !started.Success {
		return 0, errors.Errorf("run task %d refused to start from %s", parent.ID, started.FromStatus)
	}

	// The run outlives the request that triggered it.
	go s.execute(context.Background(), parent.ID, children, request)

	return parent.ID, nil
}

func (s *Service) execute(ctx context.Context, parentID int, children []int, request RunRequest) {
	if request.Kind == KindFull {
		reset, err := s.schedule.Resync(ctx, schedule.ResyncRequest{
			Xnxq:     &request.Xnxq,
			DateFrom: request.DateFrom,
			DateTo:   request.DateTo,
		})
		if err != nil {
			s.failRun(ctx, parentID, errors.Wrap(err, "resetting markers"))
			return
		}
		log.Printf("sync %d: reset %d rows for full run", parentID, reset)
	}

	phases := phasesFor()
	failedPhases := 0
	for i, p := range phases {
		childID := children[i]
		started, err := s.task.Start(ctx, childID)
		if err == nil && !started.Success {
			err = errors.Errorf("refused to start from %s", started.FromStatus)
		}
		if err != nil {
			log.Printf("sync %d: starting %s: %v", parentID, p.name, err)
			failedPhases++
			continue
		}

		summary, err := s.Aggregate(ctx, request, p, childID, parentID)
		switch {
		case errors.Is(err, ErrCancelled):
			log.Printf("sync %d: cancelled during %s", parentID, p.name)
			return
		case err != nil:
			failedPhases++
			if _, ferr := s.task.Fail(ctx, childID, "phase aborted", err.Error()); ferr != nil {
				log.Printf("sync %d: failing %s: %v", parentID, p.name, ferr)
			}
		default:
			result, _ := json.Marshal(summary)
			reason := fmt.Sprintf("%d groups, %d failed", summary.Total, summary.Failed)
			if _, serr := s.task.Success(ctx, childID, reason, strPtr(string(result))); serr != nil {
				log.Printf("sync %d: completing %s: %v", parentID, p.name, serr)
			}
		}

		if err := s.task.RollupProgress(ctx, parentID); err != nil {
			log.Printf("sync %d: rollup: %v", parentID, err)
		}
	}

	if failedPhases > 0 {
		s.failRun(ctx, parentID, errors.Errorf("%d of %d phases failed", failedPhases, len(phases)))
		return
	}
	if _, err := s.task.Success(ctx, parentID, "run completed", nil); err != nil {
		log.Printf("sync %d: completing run: %v", parentID, err)
	}
}

func (s *Service) failRun(ctx context.Context, parentID int, cause error) {
	if _, err := s.task.Fail(ctx, parentID, "run aborted", cause.Error()); err != nil {
		log.Printf("sync %d: failing run: %v", parentID, err)
	}
}

// Aggregate performs one marker pass: find candidate rows, build the merged
// groups and process each group independently. A group failure is counted and
// logged; its rows keep their markers so the next run picks them up again.
func (s *Service) Aggregate(ctx context.Context, request RunRequest, p Phase, taskID, parentID int) (Summary, error) {
	rows, err := s.schedule.FindByMarker(ctx, request.Xnxq, p.from, request.DateFrom, request.DateTo)
	if err != nil {
		return Summary{}, errors.Wrap(err, "finding candidate rows")
	}

	groups := session.BuildGroups(rows)
	summary := Summary{Total: len(groups)}

	for i, g := range groups {
		if err := s.checkCancelled(ctx, taskID, parentID); err != nil {
			return summary, err
		}

		if err := s.processGroup(ctx, g, p); err != nil {
			summary.Failed++
			log.Printf("sync %d: group %s/%s %s: %v", parentID, g.Key.CourseCode, g.Key.Date, g.Key.Band, err)
			continue
		}
		summary.Succeeded++
		if !p.withdraw {
			if g.Key.Band == entity.BandMorning {
				summary.Morning++
			} else {
				summary.Afternoon++
			}
		}

		if err := s.task.UpdateProgress(ctx, taskID, (i+1)*100/len(groups)); err != nil {
			log.Printf("sync %d: progress: %v", parentID, err)
		}
	}

	return summary, nil
}

func (s *Service) processGroup(ctx context.Context, g session.Group, p Phase) error {
	ids := make([]int, 0, len(g.Rows))
	for _, row := range g.Rows {
		ids = append(ids, row.ID)
	}

	if p.withdraw {
		if err := s.withdrawGroup(ctx, g); err != nil {
			return err
		}
		return s.schedule.MarkAfterAggregation(ctx, ids, p.from, p.to)
	}

	draft, err := session.BuildDraft(g)
	if err != nil {
		return errors.Wrap(err, "building session draft")
	}

	upserted, err := s.session.UpsertMerged(ctx, draft)
	if err != nil {
		return errors.Wrap(err, "upserting session")
	}

	if p.withStudents {
		if err := s.session.ReplaceStudents(ctx, upserted.SessionID, draft.StudentIDs); err != nil {
			return errors.Wrap(err, "replacing enrollment")
		}
		if _, err := s.attendance.UpsertRecord(ctx, upserted.SessionID, len(draft.StudentIDs)); err != nil {
			return errors.Wrap(err, "upserting attendance record")
		}
	}

	return s.schedule.MarkAfterAggregation(ctx, ids, p.from, p.to)
}

// withdrawGroup purges a deleted group's contribution from its session. The
// session is only flagged withdrawn once no active row feeds it anymore;
// while active rows remain the merged lists are rebuilt from them instead, so
// the deleted rows' periods, rooms and students drop out.
func (s *Service) withdrawGroup(ctx context.Context, g session.Group) error {
	active, err := s.schedule.FindActiveForCourseDate(ctx, g.Key.Xnxq, g.Key.CourseCode, g.Key.Date)
	if err != nil {
		return errors.Wrap(err, "finding surviving rows")
	}

	survivors := survivorGroup(active, g.Key)
	if survivors == nil {
		return errors.Wrap(s.session.MarkWithdrawn(ctx, g.Key), "marking session withdrawn")
	}

	draft, err := session.BuildDraft(*survivors)
	if err != nil {
		return errors.Wrap(err, "rebuilding session draft")
	}

	rebuilt, err := s.session.RebuildMerged(ctx, draft)
	if err != nil {
		return errors.Wrap(err, "rebuilding session")
	}
	if err := s.session.ReplaceStudents(ctx, rebuilt.SessionID, draft.StudentIDs); err != nil {
		return errors.Wrap(err, "replacing enrollment")
	}
	if _, err := s.attendance.UpsertRecord(ctx, rebuilt.SessionID, len(draft.StudentIDs)); err != nil {
		return errors.Wrap(err, "upserting attendance record")
	}

	return nil
}

// survivorGroup picks the group the still-active rows form under the same
// key, nil when none of them contributes to it anymore.
func survivorGroup(active []entity.RawScheduleRow, key session.GroupKey) *session.Group {
	for _, g := range session.BuildGroups(active) {
		if g.Key == key {
			g := g
			return &g
		}
	}
	return nil
}

func (s *Service) checkCancelled(ctx context.Context, taskID, parentID int) error {
	for _, id := range []int{taskID, parentID} {
		status, err := s.task.GetStatus(ctx, id)
		if err != nil {
			return errors.Wrap(err, "checking task status")
		}
		if status == entity.TaskCancelled {
			return ErrCancelled
		}
	}
	return nil
}

func strPtr(s string) *string { return &s }
