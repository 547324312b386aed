package task

import (
	"strings"
	"testing"

	"classroom/backend/internal/entity"
	"classroom/backend/internal/repository/postgres"
)

func TestRejectedResponseShape(t *testing.T) {
	resp := rejected(7, entity.TaskSuccess, entity.TaskRunning)

	if resp.Success {
		t.Fatal("rejected response must not report success")
	}
	if resp.TaskID != 7 || resp.FromStatus != "success" || resp.ToStatus != "running" {
		t.Errorf("response = %+v, want task 7 success -> running", resp)
	}
	if resp.Error == nil || !strings.Contains(*resp.Error, postgres.ErrInvalidTransition.Error()) {
		t.Errorf("error = %v, want it to carry the invalid transition sentinel", resp.Error)
	}
}
