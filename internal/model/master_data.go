package model

import (
	"gorm.io/gorm"
)

// Shift overrides the location schedule for one employee on one date.
type Shift struct {
	gorm.Model
	EmployeeID uint   `json:"employee_id" gorm:"uniqueIndex:idx_shift_employee_date,priority:1;not null"`
	Date       string `json:"date" gorm:"size:10;uniqueIndex:idx_shift_employee_date,priority:2;not null"`
	Start      string `json:"start" gorm:"column:start_time;size:5;not null"`
	End        string `json:"end" gorm:"column:end_time;size:5;not null"`
	LocationID string `json:"location_id" gorm:"size:64"`
	Notes      string `json:"notes"`

	Employee Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}

type Holiday struct {
	gorm.Model
	Date        string `json:"date" gorm:"size:10;unique;not null"` // Format YYYY-MM-DD
	Description string `json:"description"`
}
