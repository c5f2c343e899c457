package model

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStartsAtCombinesDateAndTime(t *testing.T) {
	event := &Event{
		StartDate: date(2026, time.March, 10),
		StartTime: "09:30",
		EndDate:   date(2026, time.March, 12),
		EndTime:   "18:45",
	}

	starts := event.StartsAt()
	if starts.Hour() != 9 || starts.Minute() != 30 {
		t.Errorf("expected 09:30, got %02d:%02d", starts.Hour(), starts.Minute())
	}
	if starts.Day() != 10 {
		t.Errorf("expected day 10, got %d", starts.Day())
	}

	ends := event.EndsAt()
	if ends.Hour() != 18 || ends.Minute() != 45 {
		t.Errorf("expected 18:45, got %02d:%02d", ends.Hour(), ends.Minute())
	}
}

func TestDerivedStatus(t *testing.T) {
	event := &Event{
		StartDate: date(2026, time.March, 10),
		StartTime: "09:00",
		EndDate:   date(2026, time.March, 12),
		EndTime:   "18:00",
	}

	tests := []struct {
		name      string
		now       time.Time
		cancelled bool
		expected  string
	}{
		{"before start", time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC), false, EventUpcoming},
		{"same day before start time", time.Date(2026, time.March, 10, 8, 59, 0, 0, time.UTC), false, EventUpcoming},
		{"at start boundary", time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC), false, EventActive},
		{"mid event", time.Date(2026, time.March, 11, 12, 0, 0, 0, time.UTC), false, EventActive},
		{"at end boundary", time.Date(2026, time.March, 12, 18, 0, 0, 0, time.UTC), false, EventActive},
		{"after end", time.Date(2026, time.March, 12, 18, 1, 0, 0, time.UTC), false, EventCompleted},
		{"cancelled overrides upcoming", time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC), true, EventCancelled},
		{"cancelled overrides completed", time.Date(2026, time.March, 13, 12, 0, 0, 0, time.UTC), true, EventCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event.Cancelled = tt.cancelled
			if got := event.DerivedStatus(tt.now); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestCountsAgainstQuota(t *testing.T) {
	tests := []struct {
		status   string
		expected bool
	}{
		{StatusPending, true},
		{StatusApproved, true},
		{StatusRejected, false},
		{StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			app := &Application{Status: tt.status}
			if got := app.CountsAgainstQuota(); got != tt.expected {
				t.Errorf("status %s: expected %v, got %v", tt.status, tt.expected, got)
			}
		})
	}
}
