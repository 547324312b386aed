package entity

import "testing"

func TestTaskTransitionTable(t *testing.T) {
	statuses := []TaskStatus{TaskPending, TaskRunning, TaskPaused, TaskCancelled, TaskSuccess, TaskFailed}

	legal := map[TaskStatus]map[TaskStatus]bool{
		TaskPending: {TaskRunning: true, TaskCancelled: true},
		TaskRunning: {TaskPaused: true, TaskSuccess: true, TaskFailed: true, TaskCancelled: true},
		TaskPaused:  {TaskRunning: true, TaskCancelled: true},
		TaskFailed:  {TaskRunning: true},
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := legal[from][to]
			if got := from.CanTransition(to); got != want {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTaskTerminal(t *testing.T) {
	terminal := map[TaskStatus]bool{
		TaskPending:   false,
		TaskRunning:   false,
		TaskPaused:    false,
		TaskCancelled: true,
		TaskSuccess:   true,
		TaskFailed:    true,
	}

	for status, want := range terminal {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}
