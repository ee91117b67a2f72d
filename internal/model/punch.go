package model

import "time"

const (
	PunchCheckIn    = "CHECK_IN"
	PunchCheckOut   = "CHECK_OUT"
	PunchBreakStart = "BREAK_START"
	PunchBreakEnd   = "BREAK_END"

	SourceKiosk = "KIOSK"
	SourceAdmin = "ADMIN"
)

// Punch is append-only. Rows are never updated or deleted.
type Punch struct {
	ID              string     `json:"id" gorm:"primaryKey;size:36"`
	EmployeeID      uint       `json:"employee_id" gorm:"index:idx_punch_employee_ts,priority:1;not null"`
	DeviceID        string     `json:"device_id" gorm:"size:64"`
	LocationID      string     `json:"location_id" gorm:"size:64"`
	Type            string     `json:"type" gorm:"size:16;not null"`
	Timestamp       time.Time  `json:"timestamp" gorm:"index:idx_punch_employee_ts,priority:2;index;not null"`
	ClientTimestamp *time.Time `json:"client_timestamp,omitempty"`
	Source          string     `json:"source" gorm:"size:8;not null"`
	SelfieURL       *string    `json:"selfie_url,omitempty"`
	Confidence      *float64   `json:"confidence,omitempty"`
	Reason          *string    `json:"reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
