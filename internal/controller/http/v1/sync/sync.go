package sync

import (
	"net/http"

	"classroom/backend/foundation/web"
	"classroom/backend/internal/service/sync"
)

type Controller struct {
	sync Sync
}

func NewController(syncService Sync) *Controller {
	return &Controller{sync: syncService}
}

type runRequest struct {
	Xnxq     *string `json:"xnxq" form:"xnxq"`
	DateFrom *string `json:"date_from" form:"date_from"`
	DateTo   *string `json:"date_to" form:"date_to"`
}

func (uc Controller) RunFull(c *web.Context) error {
	return uc.run(c, sync.KindFull)
}

func (uc Controller) RunIncremental(c *web.Context) error {
	return uc.run(c, sync.KindIncremental)
}

// run launches the aggregation in the background and answers with the parent
// task id; progress is observed through the task endpoints.
func (uc Controller) run(c *web.Context, kind string) error {
	var request runRequest

	if err := c.BindFunc(&request, "Xnxq"); err != nil {
		return c.RespondError(err)
	}

	taskID, err := uc.sync.Run(c.Ctx, sync.RunRequest{
		Xnxq:     *request.Xnxq,
		Kind:     kind,
		DateFrom: request.DateFrom,
		DateTo:   request.DateTo,
	})
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data": map[string]interface{}{
			"task_id": taskID,
		},
		"status": true,
	}, http.StatusAccepted)
}
