package model

type Location struct {
	ID      string `json:"id" gorm:"primaryKey;size:64"`
	Name    string `json:"name" gorm:"not null"`
	TZ      string `json:"tz"` // IANA name, e.g. "Europe/Istanbul"
	Address string `json:"address"`
}
