package booking

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"
)

// SlotStart combines a booking's calendar date with a 12-hour clock label
// like "02:00 PM" and returns the concrete UTC start instant. Labels of the
// form "09:00 AM - 10:00 AM" are accepted; only the start half is read.
func SlotStart(date time.Time, label string) (time.Time, error) {
	start := label
	if i := strings.Index(label, " - "); i >= 0 {
		start = label[:i]
	}
	start = strings.TrimSpace(start)

	parts := strings.Fields(start)
	if len(parts) != 2 {
		return time.Time{}, &ParseError{Label: label, Msg: "want \"HH:MM AM|PM\""}
	}

	var pm bool
	switch strings.ToUpper(parts[1]) {
	case "AM":
	case "PM":
		pm = true
	default:
		return time.Time{}, &ParseError{Label: label, Msg: "meridiem must be AM or PM"}
	}

	hm := strings.Split(parts[0], ":")
	if len(hm) != 2 {
		return time.Time{}, &ParseError{Label: label, Msg: "want \"HH:MM AM|PM\""}
	}
	hour, err := strconv.Atoi(hm[0])
	if err != nil || hour < 1 || hour > 12 {
		return time.Time{}, &ParseError{Label: label, Msg: "hour out of range"}
	}
	minute, err := strconv.Atoi(hm[1])
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, &ParseError{Label: label, Msg: "minute out of range"}
	}

	// 12-hour to 24-hour: PM adds 12 except for 12 PM; 12 AM is midnight.
	if pm && hour != 12 {
		hour += 12
	} else if !pm && hour == 12 {
		hour = 0
	}

	day, _ := DayBounds(date)
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute), nil
}

// JoinState classifies where "now" sits relative to a tour's start.
type JoinState int

const (
	Waiting JoinState = iota
	Joinable
	Expired
)

func (s JoinState) String() string {
	switch s {
	case Joinable:
		return "joinable"
	case Expired:
		return "expired"
	}
	return "waiting"
}

type JoinStatus struct {
	State JoinState `json:"state"`
	// MinutesLeft is set while State == Waiting.
	MinutesLeft int `json:"minutesLeft,omitempty"`
}

// A JoinPolicy decides whether a participant may enter the video room. The
// two policies below are applied in different contexts and are not
// interchangeable: the meeting screen keeps a tour joinable once it starts,
// while the bookings-list badge expires it 30 minutes in.
type JoinPolicy func(now, slotStart time.Time) JoinStatus

// MeetingEntryPolicy gates the immersive meeting screen: joinable once the
// start instant is reached, otherwise waiting with a minute countdown.
func MeetingEntryPolicy(now, slotStart time.Time) JoinStatus {
	diff := slotStart.Sub(now).Minutes()
	if diff <= 0 {
		return JoinStatus{State: Joinable}
	}
	return JoinStatus{State: Waiting, MinutesLeft: int(math.Ceil(diff))}
}

// ListingBadgePolicy gates the "Join Live Tour" badge on the bookings list:
// joinable from 10 minutes before start until 30 minutes after.
func ListingBadgePolicy(now, slotStart time.Time) JoinStatus {
	diff := slotStart.Sub(now).Minutes()
	switch {
	case diff > 10:
		return JoinStatus{State: Waiting, MinutesLeft: int(math.Ceil(diff))}
	case diff < -30:
		return JoinStatus{State: Expired}
	}
	return JoinStatus{State: Joinable}
}

// Countdown re-evaluates policy every interval and reports each status to
// fn. It returns once the tour is joinable or ctx is cancelled; after
// Joinable no further transition matters to the meeting screen.
func Countdown(ctx context.Context, clock Clock, slotStart time.Time, policy JoinPolicy, interval time.Duration, fn func(JoinStatus)) {
	status := policy(clock.Now(), slotStart)
	fn(status)
	if status.State == Joinable {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status = policy(clock.Now(), slotStart)
			fn(status)
			if status.State == Joinable {
				return
			}
		}
	}
}
