package task

import (
	"context"
	"net/http"
	"reflect"

	"classroom/backend/foundation/web"
	"classroom/backend/internal/repository/postgres/task"
)

type Controller struct {
	task Task
}

func NewController(task Task) *Controller {
	return &Controller{task: task}
}

func (uc Controller) Create(c *web.Context) error {
	var request task.CreateRequest

	if err := c.BindFunc(&request, "Name", "Type"); err != nil {
		return c.RespondError(err)
	}

	response, err := uc.task.Create(c.Ctx, request)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) GetList(c *web.Context) error {
	var filter task.Filter

	if limit, ok := c.GetQueryFunc(reflect.Int, "limit").(*int); ok {
		filter.Limit = limit
	}
	if offset, ok := c.GetQueryFunc(reflect.Int, "offset").(*int); ok {
		filter.Offset = offset
	}
	if page, ok := c.GetQueryFunc(reflect.Int, "page").(*int); ok {
		filter.Page = page
	}
	if status, ok := c.GetQueryFunc(reflect.String, "status").(*string); ok {
		filter.Status = status
	}
	if taskType, ok := c.GetQueryFunc(reflect.String, "type").(*string); ok {
		filter.Type = taskType
	}
	if err := c.ValidQuery(); err != nil {
		return c.RespondError(err)
	}

	list, count, err := uc.task.GetList(c.Ctx, filter)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data": map[string]interface{}{
			"results": list,
			"count":   count,
		},
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) GetById(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	response, err := uc.task.GetById(c.Ctx, id)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) GetChildren(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	request := task.GetChildrenRequest{ID: id}
	if page, ok := c.GetQueryFunc(reflect.Int, "page").(*int); ok {
		request.Page = page
	}
	if limit, ok := c.GetQueryFunc(reflect.Int, "limit").(*int); ok {
		request.Limit = limit
	}
	if status, ok := c.GetQueryFunc(reflect.String, "status").(*string); ok {
		request.Status = status
	}
	if err := c.ValidQuery(); err != nil {
		return c.RespondError(err)
	}

	children, count, err := uc.task.GetChildren(c.Ctx, request)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data": map[string]interface{}{
			"results": children,
			"count":   count,
		},
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) GetTree(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	request := task.GetLayeredTreeRequest{RootID: id}
	if maxDepth, ok := c.GetQueryFunc(reflect.Int, "max_depth").(*int); ok && maxDepth != nil {
		request.MaxDepth = *maxDepth
	}
	if limit, ok := c.GetQueryFunc(reflect.Int, "limit").(*int); ok && limit != nil {
		request.Limit = *limit
	}
	if status, ok := c.GetQueryFunc(reflect.String, "status").(*string); ok {
		request.Status = status
	}
	if placeholders, ok := c.GetQueryFunc(reflect.Bool, "include_placeholders").(*bool); ok && placeholders != nil {
		request.IncludePlaceholders = *placeholders
	}
	if err := c.ValidQuery(); err != nil {
		return c.RespondError(err)
	}

	tree, err := uc.task.GetLayeredTree(c.Ctx, request)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   tree,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) GetStatistics(c *web.Context) error {
	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	response, err := uc.task.GetStatistics(c.Ctx)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) Pause(c *web.Context) error {
	return uc.control(c, uc.task.Pause)
}

func (uc Controller) Resume(c *web.Context) error {
	return uc.control(c, uc.task.Resume)
}

func (uc Controller) Cancel(c *web.Context) error {
	return uc.control(c, uc.task.Cancel)
}

func (uc Controller) Retry(c *web.Context) error {
	return uc.control(c, uc.task.Retry)
}

type controlRequest struct {
	Reason *string `json:"reason" form:"reason"`
}

// control runs one state-machine operation. A rejected transition is still a
// 200 with success=false and the observed current status.
func (uc Controller) control(c *web.Context, op func(ctx context.Context, id int, reason string) (task.TransitionResponse, error)) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	var request controlRequest
	if err := c.BindFunc(&request); err != nil {
		return c.RespondError(err)
	}
	reason := ""
	if request.Reason != nil {
		reason = *request.Reason
	}

	response, err := op(c.Ctx, id, reason)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) Delete(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	if err := uc.task.Purge(c.Ctx, id); err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   "ok!",
		"status": true,
	}, http.StatusOK)
}
