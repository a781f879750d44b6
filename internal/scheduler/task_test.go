package scheduler

import (
	"testing"
	"time"
)

func TestNextFireTime_LaterToday(t *testing.T) {
	// Wednesday 2025-06-11 10:00 UTC; schedule Wednesday (2) at 19:00.
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)

	next := NextFireTime(now, 2, 19, time.UTC)
	want := time.Date(2025, 6, 11, 19, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("unexpected fire time: got=%v want=%v", next, want)
	}
}

func TestNextFireTime_RolloverWhenPassed(t *testing.T) {
	// Wednesday 20:00 with a Wednesday 19:00 schedule rolls over a week.
	now := time.Date(2025, 6, 11, 20, 0, 0, 0, time.UTC)

	next := NextFireTime(now, 2, 19, time.UTC)
	want := time.Date(2025, 6, 18, 19, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("unexpected fire time: got=%v want=%v", next, want)
	}
}

func TestNextFireTime_ExactInstantRollsOver(t *testing.T) {
	now := time.Date(2025, 6, 11, 19, 0, 0, 0, time.UTC)

	next := NextFireTime(now, 2, 19, time.UTC)
	want := time.Date(2025, 6, 18, 19, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("fire time equal to now should roll over: got=%v want=%v", next, want)
	}
}

func TestNextFireTime_OtherWeekday(t *testing.T) {
	// Wednesday now, Monday (0) schedule: next Monday.
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)

	next := NextFireTime(now, 0, 9, time.UTC)
	want := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("unexpected fire time: got=%v want=%v", next, want)
	}
	if next.Weekday() != time.Monday {
		t.Fatalf("weekday 0 should map to Monday: got=%v", next.Weekday())
	}
}

func TestNextFireTime_Sunday(t *testing.T) {
	now := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)

	next := NextFireTime(now, 6, 12, time.UTC)
	if next.Weekday() != time.Sunday {
		t.Fatalf("weekday 6 should map to Sunday: got=%v", next.Weekday())
	}
}

func TestNextFireTime_MinuteAlwaysZero(t *testing.T) {
	now := time.Date(2025, 6, 11, 18, 45, 30, 0, time.UTC)

	next := NextFireTime(now, 2, 19, time.UTC)
	if next.Minute() != 0 || next.Second() != 0 {
		t.Fatalf("fire time should land on the hour: got=%v", next)
	}
}
