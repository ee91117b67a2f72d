package model

import "time"

type Challenge struct {
	Token     string    `json:"challenge" gorm:"primaryKey;size:64"`
	DeviceID  string    `json:"device_id" gorm:"size:64;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
}
