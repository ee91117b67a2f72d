// Package attendance derives an employee's daily attendance session from the
// punches recorded that day. Everything here is pure: callers load history,
// call Apply or Replay and persist the resulting State.
package attendance

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrOutOfOrder        = errors.New("punch is older than the last recorded punch")
	ErrInvalidTransition = errors.New("punch type not allowed in current status")
	ErrAlreadyCheckedOut = errors.New("already checked out for the day")
	ErrInvalidPunchType  = errors.New("unknown punch type")
	ErrBreakNotStarted   = errors.New("break end without break start")
	ErrSegmentNotStarted = errors.New("check-out without check-in")
)

type Punch struct {
	ID   string
	Type PunchType
	At   time.Time
}

// State is the session aggregate after some prefix of the day's punches.
// The zero State is a day with no punches.
type State struct {
	Status            Status
	InAt              *time.Time
	OutAt             *time.Time
	TotalMinutes      int
	LateMinutes       int
	EarlyLeaveMinutes int
	BreakMinutes      int

	SegmentInAt         *time.Time
	BreakStartAt        *time.Time
	SegmentBreakMinutes int
	ClosedMinutes       int
	Segments            int

	LastPunchID   string
	LastPunchType PunchType
	LastPunchAt   *time.Time
}

func (s State) Started() bool {
	return s.LastPunchType != ""
}

// Decision is what the kiosk may do next. Options is empty only when Closed.
type Decision struct {
	Status  Status      `json:"status"`
	Options []PunchType `json:"options"`
	Default PunchType   `json:"default,omitempty"`
	Closed  bool        `json:"closed"`
}

func (d Decision) Allows(t PunchType) bool {
	for _, o := range d.Options {
		if o == t {
			return true
		}
	}
	return false
}

// Decide maps a state to its status and the set of valid next punches.
func Decide(s State, p Policy) Decision {
	if !s.Started() {
		return Decision{Status: StatusOut, Options: []PunchType{CheckIn}, Default: CheckIn}
	}
	switch s.Status {
	case StatusIn:
		return Decision{Status: StatusIn, Options: []PunchType{BreakStart, CheckOut}, Default: CheckOut}
	case StatusBreak:
		return Decision{Status: StatusBreak, Options: []PunchType{BreakEnd}, Default: BreakEnd}
	}
	if p.AfterCheckout == AfterCheckoutNewSegment {
		return Decision{Status: StatusOut, Options: []PunchType{CheckIn}, Default: CheckIn}
	}
	return Decision{Status: StatusOut, Options: []PunchType{}, Closed: true}
}

// NextPunch replays history and decides the next punch. It never fails:
// events that cannot be applied are skipped the same way Replay skips them.
func NextPunch(history []Punch, p Policy) Decision {
	st, _ := Replay(history, Schedule{}, p)
	return Decide(st, p)
}

// Apply folds one punch into s. Re-applying the punch last applied is a
// no-op, so retries never double count.
func Apply(s State, pu Punch, sched Schedule, p Policy) (State, error) {
	if !pu.Type.Valid() {
		return s, fmt.Errorf("%w: %q", ErrInvalidPunchType, pu.Type)
	}
	if s.isLast(pu) {
		return s, nil
	}
	if s.LastPunchAt != nil && pu.At.Before(*s.LastPunchAt) {
		return s, ErrOutOfOrder
	}

	d := Decide(s, p)
	if d.Closed {
		return s, ErrAlreadyCheckedOut
	}
	if !d.Allows(pu.Type) {
		return s, fmt.Errorf("%w: %s while %s", ErrInvalidTransition, pu.Type, d.Status)
	}

	next := s
	at := pu.At
	switch pu.Type {
	case CheckIn:
		if next.InAt == nil {
			next.InAt = &at
			next.LateMinutes = lateMinutes(at, sched, p)
		}
		next.SegmentInAt = &at
		next.SegmentBreakMinutes = 0
		next.OutAt = nil
		next.EarlyLeaveMinutes = 0
		next.Segments++
		next.Status = StatusIn

	case BreakStart:
		next.BreakStartAt = &at
		next.Status = StatusBreak

	case BreakEnd:
		if next.BreakStartAt == nil {
			return s, ErrBreakNotStarted
		}
		m := minutesBetween(*next.BreakStartAt, at)
		next.BreakMinutes += m
		next.SegmentBreakMinutes += m
		next.BreakStartAt = nil
		next.Status = StatusIn

	case CheckOut:
		if next.SegmentInAt == nil {
			return s, ErrSegmentNotStarted
		}
		worked := minutesBetween(*next.SegmentInAt, at) - next.SegmentBreakMinutes
		if worked < 0 {
			worked = 0
		}
		next.ClosedMinutes += worked
		next.TotalMinutes = next.ClosedMinutes
		next.OutAt = &at
		next.EarlyLeaveMinutes = earlyLeaveMinutes(at, sched, p)
		next.SegmentInAt = nil
		next.SegmentBreakMinutes = 0
		next.Status = StatusOut
	}

	next.LastPunchID = pu.ID
	next.LastPunchType = pu.Type
	next.LastPunchAt = &at
	return next, nil
}

// Skipped is a punch Replay could not apply, with the reason.
type Skipped struct {
	Punch Punch
	Err   error
}

// Replay rebuilds a session from scratch. Punches are ordered by timestamp
// (ties by id); punches that do not fit the state machine are skipped and
// reported rather than aborting the replay.
func Replay(punches []Punch, sched Schedule, p Policy) (State, []Skipped) {
	ordered := make([]Punch, len(punches))
	copy(ordered, punches)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].At.Equal(ordered[j].At) {
			return ordered[i].At.Before(ordered[j].At)
		}
		return ordered[i].ID < ordered[j].ID
	})

	var (
		st      State
		skipped []Skipped
	)
	for _, pu := range ordered {
		next, err := Apply(st, pu, sched, p)
		if err != nil {
			skipped = append(skipped, Skipped{Punch: pu, Err: err})
			continue
		}
		st = next
	}
	return st, skipped
}

func (s State) isLast(pu Punch) bool {
	if s.LastPunchAt == nil {
		return false
	}
	if pu.ID != "" && pu.ID == s.LastPunchID {
		return true
	}
	return pu.Type == s.LastPunchType && pu.At.Equal(*s.LastPunchAt)
}

func lateMinutes(at time.Time, sched Schedule, p Policy) int {
	if sched.IsZero() {
		return 0
	}
	deadline := sched.Start.Add(time.Duration(p.GraceInMinutes) * time.Minute)
	effective := p.Rounding.apply(at)
	if !effective.After(deadline) {
		return 0
	}
	return int(effective.Sub(deadline) / time.Minute)
}

func earlyLeaveMinutes(at time.Time, sched Schedule, p Policy) int {
	if sched.IsZero() {
		return 0
	}
	deadline := sched.End.Add(-time.Duration(p.GraceOutMinutes) * time.Minute)
	if !at.Before(deadline) {
		return 0
	}
	return int(deadline.Sub(at) / time.Minute)
}

func minutesBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from) / time.Minute)
}
