package booking

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSlotStart(t *testing.T) {
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time {
		return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
	}

	cases := []struct {
		label string
		want  time.Time
	}{
		{"12:00 AM", at(0, 0)},
		{"12:30 AM", at(0, 30)},
		{"01:00 AM", at(1, 0)},
		{"09:00 AM", at(9, 0)},
		{"11:59 AM", at(11, 59)},
		{"12:00 PM", at(12, 0)},
		{"01:00 PM", at(13, 0)},
		{"02:00 PM", at(14, 0)},
		{"05:00 PM", at(17, 0)},
		{"11:00 PM", at(23, 0)},
		{"2:05 pm", at(14, 5)},
		{"09:00 AM - 10:00 AM", at(9, 0)},
	}
	for _, tc := range cases {
		got, err := SlotStart(day, tc.label)
		if err != nil {
			t.Errorf("SlotStart(%q): %v", tc.label, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("SlotStart(%q) = %v, want %v", tc.label, got, tc.want)
		}
	}
}

func TestSlotStartNormalizesDate(t *testing.T) {
	// An embedded time-of-day on the date must not shift the result.
	noisy := time.Date(2024, 6, 1, 18, 45, 12, 0, time.UTC)
	got, err := SlotStart(noisy, "09:00 AM")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSlotStartRejectsMalformedLabels(t *testing.T) {
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, label := range []string{
		"",
		"09:00",
		"09:00AM",
		"09:00 XM",
		"13:00 PM",
		"00:00 AM",
		"09:60 AM",
		"0900 AM",
		"nine AM",
		"09:xx AM",
	} {
		_, err := SlotStart(day, label)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("SlotStart(%q): expected ParseError, got %v", label, err)
		}
	}
}

func TestMeetingEntryPolicy(t *testing.T) {
	start := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		now  time.Time
		want JoinStatus
	}{
		{"well before", start.Add(-90 * time.Second), JoinStatus{State: Waiting, MinutesLeft: 2}},
		{"one minute out", start.Add(-time.Minute), JoinStatus{State: Waiting, MinutesLeft: 1}},
		{"at start", start, JoinStatus{State: Joinable}},
		{"after start", start.Add(45 * time.Minute), JoinStatus{State: Joinable}},
		{"hours after", start.Add(5 * time.Hour), JoinStatus{State: Joinable}},
	}
	for _, tc := range cases {
		if got := MeetingEntryPolicy(tc.now, start); got != tc.want {
			t.Errorf("%s: got %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestListingBadgePolicy(t *testing.T) {
	start := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		now  time.Time
		want JoinStatus
	}{
		{"11 minutes out", start.Add(-11 * time.Minute), JoinStatus{State: Waiting, MinutesLeft: 11}},
		{"10 minutes out", start.Add(-10 * time.Minute), JoinStatus{State: Joinable}},
		{"at start", start, JoinStatus{State: Joinable}},
		{"30 minutes in", start.Add(30 * time.Minute), JoinStatus{State: Joinable}},
		{"31 minutes in", start.Add(31 * time.Minute), JoinStatus{State: Expired}},
		{"hours in", start.Add(3 * time.Hour), JoinStatus{State: Expired}},
	}
	for _, tc := range cases {
		if got := ListingBadgePolicy(tc.now, start); got != tc.want {
			t.Errorf("%s: got %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestPoliciesDiverge(t *testing.T) {
	start := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)

	// Five minutes before start: badge already joinable, meeting still waiting.
	now := start.Add(-5 * time.Minute)
	if got := ListingBadgePolicy(now, start); got.State != Joinable {
		t.Errorf("badge at T-5m: %+v", got)
	}
	if got := MeetingEntryPolicy(now, start); got.State != Waiting {
		t.Errorf("meeting at T-5m: %+v", got)
	}

	// An hour in: meeting never expires, badge does.
	now = start.Add(time.Hour)
	if got := MeetingEntryPolicy(now, start); got.State != Joinable {
		t.Errorf("meeting at T+1h: %+v", got)
	}
	if got := ListingBadgePolicy(now, start); got.State != Expired {
		t.Errorf("badge at T+1h: %+v", got)
	}
}

func TestCountdownStopsWhenJoinable(t *testing.T) {
	start := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start.Add(-3 * time.Minute)}

	var seen []JoinStatus
	done := make(chan struct{})
	go func() {
		defer close(done)
		Countdown(context.Background(), clock, start, MeetingEntryPolicy, 5*time.Millisecond, func(s JoinStatus) {
			seen = append(seen, s)
			clock.Advance(time.Minute)
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not stop after becoming joinable")
	}

	if len(seen) < 2 {
		t.Fatalf("expected multiple ticks, got %d", len(seen))
	}
	last := seen[len(seen)-1]
	if last.State != Joinable {
		t.Fatalf("last status = %+v, want joinable", last)
	}
	for _, s := range seen[:len(seen)-1] {
		if s.State != Waiting {
			t.Fatalf("non-waiting status before the final one: %+v", s)
		}
	}
}

func TestCountdownImmediateJoin(t *testing.T) {
	start := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start.Add(time.Minute)}

	calls := 0
	Countdown(context.Background(), clock, start, MeetingEntryPolicy, time.Hour, func(s JoinStatus) {
		calls++
		if s.State != Joinable {
			t.Fatalf("got %+v, want joinable", s)
		}
	})
	if calls != 1 {
		t.Fatalf("expected a single callback, got %d", calls)
	}
}

func TestCountdownHonorsCancellation(t *testing.T) {
	start := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start.Add(-2 * time.Hour)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		Countdown(ctx, clock, start, MeetingEntryPolicy, 5*time.Millisecond, func(JoinStatus) {})
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not stop on context cancellation")
	}
}
