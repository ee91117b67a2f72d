package model

import "time"

const (
	DeviceActive      = "active"
	DeviceInactive    = "inactive"
	DeviceMaintenance = "maintenance"
)

type Device struct {
	ID           string     `json:"id" gorm:"primaryKey;size:64"`
	LocationID   string     `json:"location_id" gorm:"size:64;index"`
	Name         string     `json:"name"`
	Platform     string     `json:"platform"`
	Status       string     `json:"status" gorm:"size:16;default:active"`
	SecretHash   string     `json:"-"` // bcrypt; empty means no secret required
	RegisteredAt time.Time  `json:"registered_at" gorm:"autoCreateTime"`
	LastSeenAt   *time.Time `json:"last_seen_at"`
}

func (d Device) IsActive() bool {
	return d.Status == DeviceActive
}
