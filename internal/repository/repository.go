package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository bundles every table accessor behind one value so usecases can
// run the same code inside and outside a transaction.
type Repository struct {
	Employee  EmployeeRepository
	Device    DeviceRepository
	Location  LocationRepository
	Policy    PolicyRepository
	Shift     ShiftRepository
	Holiday   HolidayRepository
	Challenge ChallengeRepository
	Punch     PunchRepository
	Session   SessionRepository
	Dashboard DashboardRepository
	Tx        Transactor
}

// Transactor runs fn with repositories bound to a single transaction.
// Returning an error from fn rolls everything back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(tx *Repository) error) error
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Employee:  NewEmployeeRepository(db),
		Device:    NewDeviceRepository(db),
		Location:  NewLocationRepository(db),
		Policy:    NewPolicyRepository(db),
		Shift:     NewShiftRepository(db),
		Holiday:   NewHolidayRepository(db),
		Challenge: NewChallengeRepository(db),
		Punch:     NewPunchRepository(db),
		Session:   NewSessionRepository(db),
		Dashboard: NewDashboardRepository(db),
		Tx:        &gormTransactor{db: db},
	}
}

type gormTransactor struct {
	db *gorm.DB
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(tx *Repository) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
