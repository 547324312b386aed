package task

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"classroom/backend/foundation/web"
	"classroom/backend/internal/entity"
	"classroom/backend/internal/pkg/repository/postgresql"
	"classroom/backend/internal/repository/postgres"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Recovery policies for tasks found running after a non-graceful shutdown.
const (
	RecoverRequeue = "requeue"
	RecoverFail    = "fail"
)

// Repository owns the orchestration task tree. Every status change goes
// through a conditional update gated on the expected current status, so a
// node can never skip a step of its state machine even under concurrent
// control calls.
type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

func (r Repository) Create(ctx context.Context, request CreateRequest) (entity.Task, error) {
	if err := r.ValidateStruct(&request, "Name", "Type"); err != nil {
		return entity.Task{}, err
	}

	task := entity.Task{
		ParentID:  request.ParentID,
		Name:      *request.Name,
		Type:      *request.Type,
		Status:    entity.TaskPending,
		Priority:  request.Priority,
		Executor:  request.Executor,
		Metadata:  request.Metadata,
		CreatedAt: time.Now(),
	}

	if _, err := r.NewInsert().Model(&task).ModelTableExpr("tasks").
		Returning("id").Exec(ctx, &task.ID); err != nil {
		return entity.Task{}, errors.Wrap(err, "inserting task")
	}

	return task, nil
}

func (r Repository) GetById(ctx context.Context, id int) (entity.Task, error) {
	var task entity.Task

	err := r.NewSelect().Model(&task).ModelTableExpr("tasks").Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Task{}, web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}

	return task, err
}

func (r Repository) GetStatus(ctx context.Context, id int) (entity.TaskStatus, error) {
	var status entity.TaskStatus
	err := r.QueryRowContext(ctx, `SELECT status FROM tasks WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}

	return status, err
}

// Start moves a pending node into running.
func (r Repository) Start(ctx context.Context, id int) (TransitionResponse, error) {
	return r.transition(ctx, id, entity.TaskRunning, nil, func(q *bun.UpdateQuery) {
		q.Set("started_at = COALESCE(started_at, ?)", time.Now())
	})
}

func (r Repository) Pause(ctx context.Context, id int, reason string) (TransitionResponse, error) {
	return r.transition(ctx, id, entity.TaskPaused, &reason, nil)
}

func (r Repository) Resume(ctx context.Context, id int, reason string) (TransitionResponse, error) {
	return r.transitionFrom(ctx, id, entity.TaskPaused, entity.TaskRunning, &reason, nil)
}

func (r Repository) Cancel(ctx context.Context, id int, reason string) (TransitionResponse, error) {
	return r.transition(ctx, id, entity.TaskCancelled, &reason, func(q *bun.UpdateQuery) {
		q.Set("completed_at = ?", time.Now())
	})
}

// Retry re-queues a failed node into running and counts the attempt.
func (r Repository) Retry(ctx context.Context, id int, reason string) (TransitionResponse, error) {
	return r.transitionFrom(ctx, id, entity.TaskFailed, entity.TaskRunning, &reason, func(q *bun.UpdateQuery) {
		q.Set("retry_count = retry_count + 1")
		q.Set("error = NULL")
		q.Set("started_at = ?", time.Now())
	})
}

// Success completes a node. It is refused while any child is still
// non-terminal: a parent may not be successful before its children settle.
func (r Repository) Success(ctx context.Context, id int, reason string, result *string) (TransitionResponse, error) {
	open := 0
	err := r.QueryRowContext(ctx, `
		SELECT count(id) FROM tasks
		WHERE parent_id = $1 AND status IN ('pending', 'running', 'paused')
	`, id).Scan(&open)
	if err != nil {
		return TransitionResponse{}, errors.Wrap(err, "counting open children")
	}
	if open > 0 {
		current, err := r.GetStatus(ctx, id)
		if err != nil {
			return TransitionResponse{}, err
		}
		msg := fmt.Sprintf("%d children are not terminal yet", open)
		return TransitionResponse{
			TaskID:     id,
			FromStatus: string(current),
			ToStatus:   string(entity.TaskSuccess),
			Error:      &msg,
		}, nil
	}

	return r.transition(ctx, id, entity.TaskSuccess, &reason, func(q *bun.UpdateQuery) {
		q.Set("progress = 100")
		q.Set("completed_at = ?", time.Now())
		if result != nil {
			q.Set("metadata = ?", result)
		}
	})
}

func (r Repository) Fail(ctx context.Context, id int, reason string, taskErr string) (TransitionResponse, error) {
	return r.transition(ctx, id, entity.TaskFailed, &reason, func(q *bun.UpdateQuery) {
		q.Set("error = ?", taskErr)
		q.Set("completed_at = ?", time.Now())
	})
}

// transition applies one status change. The legality check and the update
// are racing concurrent calls, so the update re-checks the from-status; zero
// affected rows means somebody else moved the node first and the operation
// reports the fresh status instead of mutating.
func (r Repository) transition(ctx context.Context, id int, to entity.TaskStatus, reason *string, mutate func(*bun.UpdateQuery)) (TransitionResponse, error) {
	current, err := r.GetStatus(ctx, id)
	if err != nil {
		return TransitionResponse{}, err
	}

	if !current.CanTransition(to) {
		return rejected(id, current, to), nil
	}

	return r.apply(ctx, id, current, to, reason, mutate)
}

// transitionFrom additionally pins the expected source status, used where
// the operation name implies it (resume from paused, retry from failed).
func (r Repository) transitionFrom(ctx context.Context, id int, from, to entity.TaskStatus, reason *string, mutate func(*bun.UpdateQuery)) (TransitionResponse, error) {
	current, err := r.GetStatus(ctx, id)
	if err != nil {
		return TransitionResponse{}, err
	}

	if current != from || !current.CanTransition(to) {
		return rejected(id, current, to), nil
	}

	return r.apply(ctx, id, current, to, reason, mutate)
}

func (r Repository) apply(ctx context.Context, id int, from, to entity.TaskStatus, reason *string, mutate func(*bun.UpdateQuery)) (TransitionResponse, error) {
	started := time.Now()

	q := r.NewUpdate().Table("tasks").
		Where("id = ? AND status = ?", id, from).
		Set("status = ?", to).
		Set("updated_at = ?", started)
	if reason != nil {
		q.Set("reason = ?", *reason)
	}
	if mutate != nil {
		mutate(q)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return TransitionResponse{}, errors.Wrapf(err, "transitioning task %d to %s", id, to)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return TransitionResponse{}, errors.Wrap(err, "transition rows affected")
	}
	if affected == 0 {
		fresh, err := r.GetStatus(ctx, id)
		if err != nil {
			return TransitionResponse{}, err
		}
		return rejected(id, fresh, to), nil
	}

	return TransitionResponse{
		Success:         true,
		TaskID:          id,
		FromStatus:      string(from),
		ToStatus:        string(to),
		ExecutionTimeMs: time.Since(started).Milliseconds(),
	}, nil
}

func rejected(id int, current, to entity.TaskStatus) TransitionResponse {
	msg := errors.Wrapf(postgres.ErrInvalidTransition, "from %s to %s", current, to).Error()
	return TransitionResponse{
		TaskID:     id,
		FromStatus: string(current),
		ToStatus:   string(to),
		Error:      &msg,
	}
}

func (r Repository) GetList(ctx context.Context, filter Filter) ([]GetListResponse, int, error) {
	_, err := r.CheckClaims(ctx)
	if err != nil {
		return nil, 0, err
	}

	q := r.NewSelect().Model((*entity.Task)(nil)).ModelTableExpr("tasks AS t")

	if filter.Status != nil {
		q = q.Where("t.status = ?", *filter.Status)
	}
	if filter.Type != nil {
		q = q.Where("t.type = ?", *filter.Type)
	}

	if filter.Page != nil && filter.Limit != nil {
		offset := (*filter.Page - 1) * (*filter.Limit)
		filter.Offset = &offset
	}
	if filter.Limit != nil {
		q = q.Limit(*filter.Limit)
	}
	if filter.Offset != nil {
		q = q.Offset(*filter.Offset)
	}

	var tasks []entity.Task
	count, err := q.Order("t.created_at DESC").ScanAndCount(ctx, &tasks)
	if err != nil {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "selecting tasks"), http.StatusInternalServerError)
	}

	list := make([]GetListResponse, 0, len(tasks))
	for _, t := range tasks {
		list = append(list, toListResponse(t))
	}

	return list, count, nil
}

// GetChildren returns one paginated layer of a node's direct children.
func (r Repository) GetChildren(ctx context.Context, request GetChildrenRequest) ([]GetListResponse, int, error) {
	q := r.NewSelect().Model((*entity.Task)(nil)).ModelTableExpr("tasks AS t").
		Where("t.parent_id = ?", request.ID)

	if request.Status != nil {
		q = q.Where("t.status = ?", *request.Status)
	}

	limit := 50
	if request.Limit != nil {
		limit = *request.Limit
	}
	offset := 0
	if request.Page != nil {
		offset = (*request.Page - 1) * limit
	}

	var children []entity.Task
	count, err := q.Order("t.priority DESC", "t.id").Limit(limit).Offset(offset).ScanAndCount(ctx, &children)
	if err != nil {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "selecting children"), http.StatusInternalServerError)
	}

	list := make([]GetListResponse, 0, len(children))
	for _, t := range children {
		list = append(list, toListResponse(t))
	}

	return list, count, nil
}

// GetStatistics counts nodes by status across the whole tree.
func (r Repository) GetStatistics(ctx context.Context) (StatisticsResponse, error) {
	rows, err := r.QueryContext(ctx, `SELECT status, count(id) FROM tasks GROUP BY status`)
	if err != nil {
		return StatisticsResponse{}, web.NewRequestError(errors.Wrap(err, "counting by status"), http.StatusInternalServerError)
	}
	defer rows.Close()

	stats := StatisticsResponse{ByType: map[string]int{}}
	for rows.Next() {
		var status string
		var count int
		if err = rows.Scan(&status, &count); err != nil {
			return StatisticsResponse{}, web.NewRequestError(errors.Wrap(err, "scanning status counts"), http.StatusInternalServerError)
		}

		stats.Total += count
		switch entity.TaskStatus(status) {
		case entity.TaskPending:
			stats.Pending = count
		case entity.TaskRunning:
			stats.Running = count
		case entity.TaskPaused:
			stats.Paused = count
		case entity.TaskCancelled:
			stats.Cancelled = count
		case entity.TaskSuccess:
			stats.Success = count
		case entity.TaskFailed:
			stats.Failed = count
		}
	}
	if err = rows.Err(); err != nil {
		return StatisticsResponse{}, web.NewRequestError(errors.Wrap(err, "status counts"), http.StatusInternalServerError)
	}

	typeRows, err := r.QueryContext(ctx, `SELECT type, count(id) FROM tasks GROUP BY type`)
	if err != nil {
		return StatisticsResponse{}, web.NewRequestError(errors.Wrap(err, "counting by type"), http.StatusInternalServerError)
	}
	defer typeRows.Close()

	for typeRows.Next() {
		var taskType string
		var count int
		if err = typeRows.Scan(&taskType, &count); err != nil {
			return StatisticsResponse{}, web.NewRequestError(errors.Wrap(err, "scanning type counts"), http.StatusInternalServerError)
		}
		stats.ByType[taskType] = count
	}

	return stats, typeRows.Err()
}

// UpdateProgress sets a node's own progress, clamped to 0-100.
func (r Repository) UpdateProgress(ctx context.Context, id, progress int) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	_, err := r.NewUpdate().Table("tasks").
		Where("id = ?", id).
		Set("progress = ?", progress).
		Set("updated_at = ?", time.Now()).
		Exec(ctx)

	return errors.Wrap(err, "updating progress")
}

// RollupProgress recomputes a parent's displayed progress as the average of
// its children's progress. Only the progress column moves; the parent's own
// status is never touched here.
func (r Repository) RollupProgress(ctx context.Context, parentID int) error {
	_, err := r.ExecContext(ctx, `
		UPDATE tasks SET
			progress = COALESCE((SELECT ROUND(AVG(progress)) FROM tasks WHERE parent_id = $1), progress),
			updated_at = $2
		WHERE id = $1
	`, parentID, time.Now())

	return errors.Wrap(err, "rolling up progress")
}

// RecoverRunningTasks is the startup reconciliation pass: nothing may stay
// in running after a non-graceful shutdown. Depending on policy the nodes
// are re-queued or failed.
func (r Repository) RecoverRunningTasks(ctx context.Context, policy string) (int64, error) {
	target := entity.TaskPending
	if policy == RecoverFail {
		target = entity.TaskFailed
	}

	q := r.NewUpdate().Table("tasks").
		Where("status = ?", entity.TaskRunning).
		Set("status = ?", target).
		Set("reason = ?", "recovered by startup reconciliation").
		Set("updated_at = ?", time.Now())
	if target == entity.TaskFailed {
		q.Set("error = ?", "process restarted while task was running")
		q.Set("completed_at = ?", time.Now())
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "recovering running tasks")
	}

	return result.RowsAffected()
}

// Purge removes a finished subtree. Completion never deletes nodes; this is
// the only way they leave the table.
func (r Repository) Purge(ctx context.Context, id int) error {
	_, err := r.CheckClaims(ctx)
	if err != nil {
		return err
	}

	status, err := r.GetStatus(ctx, id)
	if err != nil {
		return err
	}
	if !status.Terminal() {
		return web.NewRequestError(errors.New("only terminal tasks can be purged"), http.StatusBadRequest)
	}

	if _, err = r.ExecContext(ctx, `DELETE FROM tasks WHERE parent_id = $1`, id); err != nil {
		return web.NewRequestError(errors.Wrap(err, "purging children"), http.StatusBadRequest)
	}
	if _, err = r.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
		return web.NewRequestError(errors.Wrap(err, "purging task"), http.StatusBadRequest)
	}

	return nil
}

func toListResponse(t entity.Task) GetListResponse {
	resp := GetListResponse{
		ID:          t.ID,
		ParentID:    t.ParentID,
		Name:        t.Name,
		Type:        t.Type,
		Status:      string(t.Status),
		Progress:    t.Progress,
		Priority:    t.Priority,
		RetryCount:  t.RetryCount,
		Reason:      t.Reason,
		Error:       t.Error,
		CreatedAt:   t.CreatedAt,
		StartedAt:   t.StartedAt,
		CompletedAt: t.CompletedAt,
	}
	if t.Executor != "" {
		resp.Executor = &t.Executor
	}
	return resp
}
