package model

import "gorm.io/gorm"

const (
	RoundingNone = "NONE"
	Rounding5    = "5"
	Rounding10   = "10"
	Rounding15   = "15"

	AfterCheckoutReject     = "REJECT"
	AfterCheckoutNewSegment = "NEW_SEGMENT"
)

type Policy struct {
	gorm.Model
	LocationID      string `json:"location_id" gorm:"size:64;uniqueIndex;not null"`
	GraceInMinutes  int    `json:"grace_in_minutes"`
	GraceOutMinutes int    `json:"grace_out_minutes"`
	Rounding        string `json:"rounding" gorm:"size:4;default:NONE"`
	ScheduledStart  string `json:"scheduled_start" gorm:"size:5"` // "09:00"
	ScheduledEnd    string `json:"scheduled_end" gorm:"size:5"`   // "18:00"
	AfterCheckout   string `json:"after_checkout" gorm:"size:16;default:REJECT"`
}
