package entity

import (
	"testing"
	"time"
)

func TestRealtimeStatus(t *testing.T) {
	s := ClassSession{
		Date:      "2025-10-13",
		StartTime: "08:00",
		EndTime:   "09:40",
	}

	at := func(clock string) time.Time {
		ts, err := time.Parse("2006-01-02 15:04", clock)
		if err != nil {
			t.Fatalf("parsing %q: %v", clock, err)
		}
		return ts
	}

	tests := []struct {
		now  string
		want string
	}{
		{"2025-10-13 07:59", SessionNotStarted},
		{"2025-10-13 08:00", SessionInProgress},
		{"2025-10-13 09:00", SessionInProgress},
		{"2025-10-13 09:41", SessionFinished},
		{"2025-10-14 08:30", SessionFinished},
	}
	for _, tt := range tests {
		if got := s.RealtimeStatus(at(tt.now)); got != tt.want {
			t.Errorf("RealtimeStatus(%s) = %s, want %s", tt.now, got, tt.want)
		}
	}

	broken := ClassSession{Date: "not-a-date", StartTime: "xx", EndTime: "yy"}
	if got := broken.RealtimeStatus(at("2025-10-13 08:00")); got != SessionNotStarted {
		t.Errorf("malformed times: got %s, want %s", got, SessionNotStarted)
	}
}
