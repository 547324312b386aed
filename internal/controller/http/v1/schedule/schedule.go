package schedule

import (
	"net/http"
	"reflect"

	"classroom/backend/foundation/web"
	"classroom/backend/internal/entity"
	"classroom/backend/internal/repository/postgres/schedule"
)

type Controller struct {
	schedule Schedule
}

func NewController(schedule Schedule) *Controller {
	return &Controller{schedule: schedule}
}

func (uc Controller) GetList(c *web.Context) error {
	var filter schedule.Filter

	if limit, ok := c.GetQueryFunc(reflect.Int, "limit").(*int); ok {
		filter.Limit = limit
	}
	if offset, ok := c.GetQueryFunc(reflect.Int, "offset").(*int); ok {
		filter.Offset = offset
	}
	if page, ok := c.GetQueryFunc(reflect.Int, "page").(*int); ok {
		filter.Page = page
	}
	if xnxq, ok := c.GetQueryFunc(reflect.String, "xnxq").(*string); ok {
		filter.Xnxq = xnxq
	}
	if courseCode, ok := c.GetQueryFunc(reflect.String, "course_code").(*string); ok {
		filter.CourseCode = courseCode
	}
	if date, ok := c.GetQueryFunc(reflect.String, "date").(*string); ok {
		filter.Date = date
	}
	if marker, ok := c.GetQueryFunc(reflect.Int, "sync_status").(*int); ok && marker != nil {
		m := entity.SyncMarker(*marker)
		filter.Marker = &m
	}
	if unsynced, ok := c.GetQueryFunc(reflect.Bool, "unsynced").(*bool); ok {
		filter.Unsynced = unsynced
	}
	if err := c.ValidQuery(); err != nil {
		return c.RespondError(err)
	}

	list, count, err := uc.schedule.GetList(c.Ctx, filter)
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

	response, err := uc.schedule.GetById(c.Ctx, id)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) Create(c *web.Context) error {
	var request schedule.CreateRequest

	if err := c.BindFunc(&request, "Xnxq", "CourseCode", "Date", "Period"); err != nil {
		return c.RespondError(err)
	}

	response, err := uc.schedule.Create(c.Ctx, request)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) UpdateColumns(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	var request schedule.UpdateRequest
	if err := c.BindFunc(&request); err != nil {
		return c.RespondError(err)
	}
	request.ID = id

	if err := uc.schedule.UpdateColumns(c.Ctx, request); err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   "ok!",
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) Delete(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	if err := uc.schedule.Delete(c.Ctx, id); err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   "ok!",
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) Resync(c *web.Context) error {
	var request schedule.ResyncRequest

	if err := c.BindFunc(&request, "Xnxq"); err != nil {
		return c.RespondError(err)
	}

	affected, err := uc.schedule.Resync(c.Ctx, request)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data": map[string]interface{}{
			"reset": affected,
		},
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) ClearTerm(c *web.Context) error {
	var request schedule.ClearTermRequest

	if err := c.BindFunc(&request, "Xnxq"); err != nil {
		return c.RespondError(err)
	}

	affected, err := uc.schedule.ClearTerm(c.Ctx, *request.Xnxq)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data": map[string]interface{}{
			"deleted": affected,
		},
		"status": true,
	}, http.StatusOK)
}
