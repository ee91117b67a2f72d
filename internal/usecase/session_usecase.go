package usecase

import (
	"context"

	"pdks-backend/internal/apperror"
	"pdks-backend/internal/attendance"
	"pdks-backend/internal/model"
)

type KioskStatus struct {
	Employee EmployeeCard        `json:"employee"`
	Date     string              `json:"date"`
	Session  *SessionSnapshot    `json:"session"`
	Next     attendance.Decision `json:"next"`
}

type DayDetail struct {
	Session SessionSnapshot `json:"session"`
	Punches []model.Punch   `json:"punches"`
}

type SessionUsecase interface {
	// Get returns the stored session of an employee's date.
	Get(ctx context.Context, employeeID uint, date string) (*DayDetail, error)
	// KioskStatus tells a kiosk what scanning code would do right now.
	// deviceID is optional; when set, the policy of the device's location
	// applies to a day without a session, as it does for a punch.
	KioskStatus(ctx context.Context, code, deviceID string) (*KioskStatus, error)
}

type sessionUsecase struct {
	Deps
}

func NewSessionUsecase(d Deps) SessionUsecase {
	return &sessionUsecase{Deps: d}
}

func (u *sessionUsecase) Get(ctx context.Context, employeeID uint, date string) (*DayDetail, error) {
	if employeeID == 0 {
		return nil, apperror.Invalid("employee_id is required")
	}
	from, to, err := attendance.DayBounds(date, u.location())
	if err != nil {
		return nil, apperror.Invalid(err.Error())
	}

	session, err := u.Repo.Session.Get(ctx, employeeID, date)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.Missing("no session yet")
		}
		return nil, apperror.InternalErr(err)
	}
	punches, err := u.Repo.Punch.ListByEmployeeBetween(ctx, employeeID, from, to)
	if err != nil {
		return nil, apperror.InternalErr(err)
	}
	return &DayDetail{Session: snapshotOf(session), Punches: punches}, nil
}

func (u *sessionUsecase) KioskStatus(ctx context.Context, code, deviceID string) (*KioskStatus, error) {
	if code == "" {
		return nil, apperror.Invalid("employee code is required")
	}
	employee, err := u.Repo.Employee.GetByCode(ctx, code)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.Missing("employee not found")
		}
		return nil, apperror.InternalErr(err)
	}
	if !employee.Active {
		return nil, apperror.Denied("employee is inactive")
	}

	loc := u.location()
	date := attendance.DateOf(u.now(), loc)
	from, to, err := attendance.DayBounds(date, loc)
	if err != nil {
		return nil, apperror.InternalErr(err)
	}

	session, err := u.Repo.Session.Get(ctx, employee.ID, date)
	if err != nil {
		if !isNotFound(err) {
			return nil, apperror.InternalErr(err)
		}
		session = nil
	}

	var locationID string
	switch {
	case session != nil && session.LocationID != "":
		locationID = session.LocationID
	case deviceID != "":
		device, err := u.Repo.Device.GetByID(ctx, deviceID)
		if err != nil {
			if isNotFound(err) {
				return nil, apperror.Denied("unknown device")
			}
			return nil, apperror.InternalErr(err)
		}
		locationID = punchLocation(device, employee)
	default:
		locationID = employee.LocationID
	}

	punches, err := u.Repo.Punch.ListByEmployeeBetween(ctx, employee.ID, from, to)
	if err != nil {
		return nil, apperror.InternalErr(err)
	}
	rules, err := resolveDay(ctx, u.Repo, u.Settings, employee.ID, locationID, date)
	if err != nil {
		return nil, apperror.InternalErr(err)
	}

	status := &KioskStatus{
		Employee: cardOf(employee),
		Date:     date,
		Next:     attendance.NextPunch(enginePunches(punches, loc), rules.Policy),
	}
	if session != nil {
		snap := snapshotOf(session)
		status.Session = &snap
	}
	return status, nil
}
