package attendance

import (
	"errors"
	"fmt"
	"time"
)

var ErrScheduleCrossesMidnight = errors.New("end time must be after start time on the same day")

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Schedule holds the absolute scheduled start and end of a work day.
// The zero Schedule means nothing is scheduled (holiday, day off) and no
// lateness or early leave accrues.
type Schedule struct {
	Start time.Time
	End   time.Time
}

func (s Schedule) IsZero() bool {
	return s.Start.IsZero() || s.End.IsZero()
}

// NewSchedule builds the schedule of date from "HH:MM" start and end in loc.
// A work day never crosses midnight, so end must be after start.
func NewSchedule(date, start, end string, loc *time.Location) (Schedule, error) {
	day, err := ParseDate(date, loc)
	if err != nil {
		return Schedule{}, err
	}
	s, err := time.Parse(ClockLayout, start)
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid start time %q", start)
	}
	e, err := time.Parse(ClockLayout, end)
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid end time %q", end)
	}

	startAt := time.Date(day.Year(), day.Month(), day.Day(), s.Hour(), s.Minute(), 0, 0, loc)
	endAt := time.Date(day.Year(), day.Month(), day.Day(), e.Hour(), e.Minute(), 0, 0, loc)
	if !endAt.After(startAt) {
		return Schedule{}, ErrScheduleCrossesMidnight
	}
	return Schedule{Start: startAt, End: endAt}, nil
}

func ParseDate(date string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}
	return t, nil
}

// DayBounds returns [00:00, next day 00:00) of date in loc.
func DayBounds(date string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, 1), nil
}

// DateOf is the work date t falls on in loc.
func DateOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}
