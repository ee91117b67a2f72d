package database

import (
	"fmt"
	"time"

	"pdks-backend/internal/model"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedOptions controls the demo data. DeviceSecret is what the seeded kiosk
// must present when requesting challenges.
type SeedOptions struct {
	DeviceSecret string
	Timezone     string
	Today        time.Time
}

// SeedAll creates a demo location with its policy, one kiosk, a handful of
// employees, an evening shift and a holiday. Running it again only fills
// in what is missing.
func SeedAll(db *gorm.DB, opts SeedOptions, log *zap.Logger) error {
	// 1. Location and policy
	location := model.Location{ID: "HQ", Name: "Head Office", TZ: opts.Timezone, Address: "Main Street 1"}
	if err := db.FirstOrCreate(&location, model.Location{ID: location.ID}).Error; err != nil {
		return fmt.Errorf("seed location: %w", err)
	}

	policy := model.Policy{
		LocationID:     location.ID,
		GraceInMinutes: 10,
		Rounding:       model.RoundingNone,
		ScheduledStart: "09:00",
		ScheduledEnd:   "18:00",
		AfterCheckout:  model.AfterCheckoutReject,
	}
	if err := db.FirstOrCreate(&policy, model.Policy{LocationID: location.ID}).Error; err != nil {
		return fmt.Errorf("seed policy: %w", err)
	}

	// 2. Kiosk device. The secret is re-hashed on every run so it always
	// matches the configured one.
	hash, err := bcrypt.GenerateFromPassword([]byte(opts.DeviceSecret), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash device secret: %w", err)
	}
	device := model.Device{
		ID:         "kiosk-lobby",
		LocationID: location.ID,
		Name:       "Lobby kiosk",
		Platform:   "android",
		Status:     model.DeviceActive,
	}
	if err := db.FirstOrCreate(&device, model.Device{ID: device.ID}).Error; err != nil {
		return fmt.Errorf("seed device: %w", err)
	}
	if err := db.Model(&device).Update("secret_hash", string(hash)).Error; err != nil {
		return fmt.Errorf("set device secret: %w", err)
	}
	log.Info("kiosk seeded", zap.String("device_id", device.ID))

	// 3. Employees
	employees := []model.Employee{
		{Code: "E001", FirstName: "Ayse", LastName: "Yilmaz", Department: "Finance", Position: "Accountant"},
		{Code: "E002", FirstName: "Mehmet", LastName: "Demir", Department: "Operations", Position: "Technician"},
		{Code: "E003", FirstName: "Zeynep", LastName: "Kaya", Department: "Operations", Position: "Supervisor"},
		{Code: "E004", FirstName: "Can", LastName: "Arslan", Department: "Security", Position: "Guard"},
	}
	for i := range employees {
		e := &employees[i]
		e.LocationID = location.ID
		e.Active = true
		if err := db.FirstOrCreate(e, model.Employee{Code: e.Code}).Error; err != nil {
			return fmt.Errorf("seed employee %s: %w", e.Code, err)
		}
	}

	// 4. The guard works the evening shift today
	today := opts.Today.Format("2006-01-02")
	shift := model.Shift{
		EmployeeID: employees[3].ID,
		Date:       today,
		Start:      "14:00",
		End:        "22:00",
		LocationID: location.ID,
		Notes:      "evening rotation",
	}
	if err := db.FirstOrCreate(&shift, model.Shift{EmployeeID: shift.EmployeeID, Date: today}).Error; err != nil {
		return fmt.Errorf("seed shift: %w", err)
	}

	// 5. Holidays
	holidays := []model.Holiday{
		{Date: fmt.Sprintf("%d-01-01", opts.Today.Year()), Description: "New Year's Day"},
		{Date: fmt.Sprintf("%d-05-01", opts.Today.Year()), Description: "Labour Day"},
	}
	for i := range holidays {
		h := &holidays[i]
		if err := db.FirstOrCreate(h, model.Holiday{Date: h.Date}).Error; err != nil {
			return fmt.Errorf("seed holiday %s: %w", h.Date, err)
		}
	}

	log.Info("seeding finished",
		zap.Int("employees", len(employees)),
		zap.Int("holidays", len(holidays)),
	)
	return nil
}
