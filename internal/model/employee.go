package model

import "gorm.io/gorm"

type Employee struct {
	gorm.Model
	Code       string `json:"code" gorm:"size:64;uniqueIndex;not null"` // scanned or typed at the kiosk
	FirstName  string `json:"first_name" gorm:"not null"`
	LastName   string `json:"last_name"`
	Department string `json:"department"`
	Position   string `json:"position"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	LocationID string `json:"location_id" gorm:"size:64;index"`
	Active     bool   `json:"active" gorm:"default:true"`
}

func (e Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}
