package usecase

import (
	"time"

	"pdks-backend/internal/attendance"
	"pdks-backend/internal/model"
)

func stateFromSession(s *model.Session, loc *time.Location) attendance.State {
	if s == nil {
		return attendance.State{}
	}
	return attendance.State{
		Status:              attendance.Status(s.CurrentStatus),
		InAt:                inLoc(s.InTS, loc),
		OutAt:               inLoc(s.OutTS, loc),
		TotalMinutes:        s.TotalMinutes,
		LateMinutes:         s.LateMinutes,
		EarlyLeaveMinutes:   s.EarlyLeaveMinutes,
		BreakMinutes:        s.BreakMinutes,
		SegmentInAt:         inLoc(s.SegmentInTS, loc),
		BreakStartAt:        inLoc(s.BreakStartTS, loc),
		SegmentBreakMinutes: s.SegmentBreakMinutes,
		ClosedMinutes:       s.ClosedMinutes,
		Segments:            s.Segments,
		LastPunchID:         s.LastPunchID,
		LastPunchType:       attendance.PunchType(s.LastPunchType),
		LastPunchAt:         inLoc(s.LastPunchTS, loc),
	}
}

// writeState copies every derived field of st onto s. Identity columns
// (id, employee, date) are left alone.
func writeState(s *model.Session, st attendance.State) {
	status := st.Status
	if status == "" {
		status = attendance.StatusOut
	}
	s.CurrentStatus = string(status)
	s.InTS = st.InAt
	s.OutTS = st.OutAt
	s.TotalMinutes = st.TotalMinutes
	s.LateMinutes = st.LateMinutes
	s.EarlyLeaveMinutes = st.EarlyLeaveMinutes
	s.BreakMinutes = st.BreakMinutes
	s.SegmentInTS = st.SegmentInAt
	s.BreakStartTS = st.BreakStartAt
	s.SegmentBreakMinutes = st.SegmentBreakMinutes
	s.ClosedMinutes = st.ClosedMinutes
	s.Segments = st.Segments
	s.LastPunchID = st.LastPunchID
	s.LastPunchType = string(st.LastPunchType)
	s.LastPunchTS = st.LastPunchAt
}

func enginePunch(p model.Punch, loc *time.Location) attendance.Punch {
	return attendance.Punch{
		ID:   p.ID,
		Type: attendance.PunchType(p.Type),
		At:   p.Timestamp.In(loc),
	}
}

func enginePunches(punches []model.Punch, loc *time.Location) []attendance.Punch {
	out := make([]attendance.Punch, 0, len(punches))
	for _, p := range punches {
		out = append(out, enginePunch(p, loc))
	}
	return out
}

func inLoc(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	v := t.In(loc)
	return &v
}

// SessionSnapshot is the client-facing view of a session.
type SessionSnapshot struct {
	EmployeeID        uint       `json:"employee_id"`
	Date              string     `json:"date"`
	CurrentStatus     string     `json:"current_status"`
	InTS              *time.Time `json:"in_ts"`
	OutTS             *time.Time `json:"out_ts"`
	TotalMinutes      int        `json:"total_minutes"`
	LateMinutes       int        `json:"late_minutes"`
	EarlyLeaveMinutes int        `json:"early_leave_minutes"`
	BreakMinutes      int        `json:"break_minutes"`
	Segments          int        `json:"segments"`
	Finalized         bool       `json:"finalized"`
}

func snapshotOf(s *model.Session) SessionSnapshot {
	return SessionSnapshot{
		EmployeeID:        s.EmployeeID,
		Date:              s.Date,
		CurrentStatus:     s.CurrentStatus,
		InTS:              s.InTS,
		OutTS:             s.OutTS,
		TotalMinutes:      s.TotalMinutes,
		LateMinutes:       s.LateMinutes,
		EarlyLeaveMinutes: s.EarlyLeaveMinutes,
		BreakMinutes:      s.BreakMinutes,
		Segments:          s.Segments,
		Finalized:         s.Finalized,
	}
}
