package model

import "time"

const (
	StatusIn    = "IN"
	StatusOut   = "OUT"
	StatusBreak = "BREAK"
)

// Session is the per-day aggregate of an employee's punches. It is a cache:
// replaying the day's punches must always reproduce it.
type Session struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	EmployeeID uint   `json:"employee_id" gorm:"uniqueIndex:idx_session_employee_date,priority:1;not null"`
	Date       string `json:"date" gorm:"size:10;uniqueIndex:idx_session_employee_date,priority:2;index;not null"` // YYYY-MM-DD
	LocationID string `json:"location_id" gorm:"size:64"`

	CurrentStatus string     `json:"current_status" gorm:"size:8;not null"`
	InTS          *time.Time `json:"in_ts"`
	OutTS         *time.Time `json:"out_ts"`

	TotalMinutes      int `json:"total_minutes"`
	LateMinutes       int `json:"late_minutes"`
	EarlyLeaveMinutes int `json:"early_leave_minutes"`
	BreakMinutes      int `json:"break_minutes"`

	// Engine working state: open segment and running break.
	SegmentInTS         *time.Time `json:"-"`
	BreakStartTS        *time.Time `json:"-"`
	SegmentBreakMinutes int        `json:"-"`
	ClosedMinutes       int        `json:"-"`
	Segments            int        `json:"segments"`

	LastPunchID   string     `json:"last_punch_id" gorm:"size:36"`
	LastPunchType string     `json:"last_punch_type" gorm:"size:16"`
	LastPunchTS   *time.Time `json:"last_punch_ts"`

	Finalized bool      `json:"finalized"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
