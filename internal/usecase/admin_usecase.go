package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"pdks-backend/internal/apperror"
	"pdks-backend/internal/attendance"
	"pdks-backend/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type EmployeeRequest struct {
	Code       string `json:"code" validate:"required,max=64"`
	FirstName  string `json:"first_name" validate:"required,max=100"`
	LastName   string `json:"last_name" validate:"max=100"`
	Department string `json:"department" validate:"max=100"`
	Position   string `json:"position" validate:"max=100"`
	Phone      string `json:"phone" validate:"max=32"`
	Email      string `json:"email" validate:"omitempty,email"`
	LocationID string `json:"location_id" validate:"max=64"`
}

type DeviceRequest struct {
	ID         string `json:"id" validate:"omitempty,max=64"`
	Name       string `json:"name" validate:"required,max=100"`
	Platform   string `json:"platform" validate:"max=32"`
	LocationID string `json:"location_id" validate:"max=64"`
}

// DeviceRegistration carries the device secret. It is shown once and only
// its hash is stored.
type DeviceRegistration struct {
	Device model.Device `json:"device"`
	Secret string       `json:"secret"`
}

type PolicyRequest struct {
	LocationID      string `json:"location_id" validate:"required,max=64"`
	GraceInMinutes  int    `json:"grace_in_minutes" validate:"min=0,max=240"`
	GraceOutMinutes int    `json:"grace_out_minutes" validate:"min=0,max=240"`
	Rounding        string `json:"rounding" validate:"omitempty,oneof=NONE 5 10 15"`
	ScheduledStart  string `json:"scheduled_start" validate:"omitempty,datetime=15:04"`
	ScheduledEnd    string `json:"scheduled_end" validate:"omitempty,datetime=15:04"`
	AfterCheckout   string `json:"after_checkout" validate:"omitempty,oneof=REJECT NEW_SEGMENT"`
}

type ShiftRequest struct {
	EmployeeID uint   `json:"employee_id" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Start      string `json:"start" validate:"required,datetime=15:04"`
	End        string `json:"end" validate:"required,datetime=15:04"`
	LocationID string `json:"location_id" validate:"max=64"`
	Notes      string `json:"notes" validate:"max=255"`
}

type HolidayRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Description string `json:"description" validate:"max=255"`
}

type LocationRequest struct {
	ID      string `json:"id" validate:"required,max=64"`
	Name    string `json:"name" validate:"required,max=100"`
	TZ      string `json:"tz" validate:"omitempty,timezone"`
	Address string `json:"address" validate:"max=255"`
}

// AdminUsecase manages the master data the kiosk flow reads.
type AdminUsecase interface {
	CreateEmployee(ctx context.Context, req EmployeeRequest) (*model.Employee, error)
	UpdateEmployee(ctx context.Context, id uint, req EmployeeRequest) (*model.Employee, error)
	SetEmployeeActive(ctx context.Context, id uint, active bool) (*model.Employee, error)
	GetEmployeeByCode(ctx context.Context, code string) (*model.Employee, error)
	ListEmployees(ctx context.Context, activeOnly bool) ([]model.Employee, error)

	RegisterDevice(ctx context.Context, req DeviceRequest) (*DeviceRegistration, error)
	SetDeviceStatus(ctx context.Context, id, status string) error
	ListDevices(ctx context.Context) ([]model.Device, error)

	GetPolicy(ctx context.Context, locationID string) (*model.Policy, error)
	UpsertPolicy(ctx context.Context, req PolicyRequest) (*model.Policy, error)
	ListPolicies(ctx context.Context) ([]model.Policy, error)

	UpsertShift(ctx context.Context, req ShiftRequest) (*model.Shift, error)
	ListShifts(ctx context.Context, date string) ([]model.Shift, error)
	DeleteShift(ctx context.Context, id uint) error

	CreateHoliday(ctx context.Context, req HolidayRequest) (*model.Holiday, error)
	ListHolidays(ctx context.Context) ([]model.Holiday, error)
	DeleteHoliday(ctx context.Context, id uint) error

	UpsertLocation(ctx context.Context, req LocationRequest) (*model.Location, error)
	ListLocations(ctx context.Context) ([]model.Location, error)
}

type adminUsecase struct {
	Deps
}

func NewAdminUsecase(d Deps) AdminUsecase {
	return &adminUsecase{Deps: d}
}

// ── Employees ──

func (u *adminUsecase) CreateEmployee(ctx context.Context, req EmployeeRequest) (*model.Employee, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	employee := &model.Employee{Active: true}
	fillEmployee(employee, req)
	if err := u.Repo.Employee.Create(ctx, employee); err != nil {
		if isDuplicate(err) {
			return nil, apperror.Conflicting("employee code already exists", err)
		}
		return nil, apperror.InternalErr(err)
	}
	u.Logger.Info("employee created", zap.Uint("employee_id", employee.ID), zap.String("code", employee.Code))
	return employee, nil
}

func (u *adminUsecase) UpdateEmployee(ctx context.Context, id uint, req EmployeeRequest) (*model.Employee, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	employee, err := u.employee(ctx, id)
	if err != nil {
		return nil, err
	}
	fillEmployee(employee, req)
	if err := u.Repo.Employee.Update(ctx, employee); err != nil {
		if isDuplicate(err) {
			return nil, apperror.Conflicting("employee code already exists", err)
		}
		return nil, apperror.InternalErr(err)
	}
	return employee, nil
}

func (u *adminUsecase) SetEmployeeActive(ctx context.Context, id uint, active bool) (*model.Employee, error) {
	employee, err := u.employee(ctx, id)
	if err != nil {
		return nil, err
	}
	employee.Active = active
	if err := u.Repo.Employee.Update(ctx, employee); err != nil {
		return nil, apperror.InternalErr(err)
	}
	u.Logger.Info("employee status changed", zap.Uint("employee_id", id), zap.Bool("active", active))
	return employee, nil
}

func (u *adminUsecase) GetEmployeeByCode(ctx context.Context, code string) (*model.Employee, error) {
	employee, err := u.Repo.Employee.GetByCode(ctx, code)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.Missing("employee not found")
		}
		return nil, apperror.InternalErr(err)
	}
	return employee, nil
}

func (u *adminUsecase) ListEmployees(ctx context.Context, activeOnly bool) ([]model.Employee, error) {
	employees, err := u.Repo.Employee.List(ctx, activeOnly)
	if err != nil {
		return nil, apperror.InternalErr(err)
	}
	return employees, nil
}

func (u *adminUsecase) employee(ctx context.Context, id uint) (*model.Employee, error) {
	employee, err := u.Repo.Employee.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.Missing("employee not found")
		}
		return nil, apperror.InternalErr(err)
	}
	return employee, nil
}

func fillEmployee(e *model.Employee, req EmployeeRequest) {
	e.Code = req.Code
	e.FirstName = req.FirstName
	e.LastName = req.LastName
	e.Department = req.Department
	e.Position = req.Position
	e.Phone = req.Phone
	e.Email = req.Email
	e.LocationID = req.LocationID
}

// ── Devices ──

func (u *adminUsecase) RegisterDevice(ctx context.Context, req DeviceRequest) (*DeviceRegistration, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	secret, err := newDeviceSecret()
	if err != nil {
		return nil, apperror.InternalErr(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.InternalErr(err)
	}

	id := req.ID
	if id == "" {
		id = "kiosk-" + uuid.NewString()[:8]
	}
	device := &model.Device{
		ID:         id,
		LocationID: req.LocationID,
		Name:       req.Name,
		Platform:   req.Platform,
		Status:     model.DeviceActive,
		SecretHash: string(hash),
	}
	if err := u.Repo.Device.Create(ctx, device); err != nil {
		if isDuplicate(err) {
			return nil, apperror.Conflicting("device id already registered", err)
		}
		return nil, apperror.InternalErr(err)
	}
	u.Logger.Info("device registered", zap.String("device_id", device.ID), zap.String("location_id", device.LocationID))
	return &DeviceRegistration{Device: *device, Secret: secret}, nil
}

func (u *adminUsecase) SetDeviceStatus(ctx context.Context, id, status string) error {
	switch status {
	case model.DeviceActive, model.DeviceInactive, model.DeviceMaintenance:
	default:
		return apperror.Invalid("status must be one of: active inactive maintenance")
	}
	if _, err := u.Repo.Device.GetByID(ctx, id); err != nil {
		if isNotFound(err) {
			return apperror.Missing("device not found")
		}
		return apperror.InternalErr(err)
	}
	if err := u.Repo.Device.SetStatus(ctx, id, status); err != nil {
		return apperror.InternalErr(err)
	}
	u.Logger.Info("device status changed", zap.String("device_id", id), zap.String("status", status))
	return nil
}

func (u *adminUsecase) ListDevices(ctx context.Context) ([]model.Device, error) {
	devices, err := u.Repo.Device.List(ctx)
	if err != nil {
		return nil, apperror.InternalErr(err)
	}
	return devices, nil
}

func newDeviceSecret() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ── Policies ──

// GetPolicy returns the stored policy of a location or, when there is
// none, the configured defaults for it.
func (u *adminUsecase) GetPolicy(ctx context.Context, locationID string) (*model.Policy, error) {
	policy, err := u.Repo.Policy.GetByLocation(ctx, locationID)
	if err == nil {
		return policy, nil
	}
	if !isNotFound(err) {
		return nil, apperror.InternalErr(err)
	}
	d := u.Settings.DefaultPolicy
	return &model.Policy{
		LocationID:      locationID,
		GraceInMinutes:  d.GraceInMinutes,
		GraceOutMinutes: d.GraceOutMinutes,
		Rounding:        d.Rounding.String(),
		ScheduledStart:  u.Settings.DefaultStart,
		ScheduledEnd:    u.Settings.DefaultEnd,
		AfterCheckout:   string(d.AfterCheckout),
	}, nil
}

func (u *adminUsecase) UpsertPolicy(ctx context.Context, req PolicyRequest) (*model.Policy, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if (req.ScheduledStart == "") != (req.ScheduledEnd == "") {
		return nil, apperror.Invalid("scheduled_start and scheduled_end must be set together")
	}
	if req.ScheduledStart != "" {
		if _, err := attendance.NewSchedule(attendance.DateOf(u.now(), u.location()), req.ScheduledStart, req.ScheduledEnd, u.location()); err != nil {
			return nil, apperror.Invalid(err.Error())
		}
	}
	policy := &model.Policy{
		LocationID:      req.LocationID,
		GraceInMinutes:  req.GraceInMinutes,
		GraceOutMinutes: req.GraceOutMinutes,
		Rounding:        req.Rounding,
		ScheduledStart:  req.ScheduledStart,
		ScheduledEnd:    req.ScheduledEnd,
		AfterCheckout:   req.AfterCheckout,
	}
	if policy.Rounding == "" {
		policy.Rounding = model.RoundingNone
	}
	if policy.AfterCheckout == "" {
		policy.AfterCheckout = model.AfterCheckoutReject
	}
	if err := u.Repo.Policy.Upsert(ctx, policy); err != nil {
		return nil, apperror.InternalErr(err)
	}
	u.Logger.Info("policy saved",
		zap.String("location_id", policy.LocationID),
		zap.Int("grace_in_minutes", policy.GraceInMinutes),
		zap.String("rounding", policy.Rounding),
		zap.String("after_checkout", policy.AfterCheckout),
	)
	return policy, nil
}

func (u *adminUsecase) ListPolicies(ctx context.Context) ([]model.Policy, error) {
	policies, err := u.Repo.Policy.List(ctx)
	if err != nil {
		return nil, apperror.InternalErr(err)
	}
	return policies, nil
}

// ── Shifts ──

func (u *adminUsecase) UpsertShift(ctx context.Context, req ShiftRequest) (*model.Shift, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if _, err := u.employee(ctx, req.EmployeeID); err != nil {
		return nil, err
	}
	if _, err := attendance.NewSchedule(req.Date, req.Start, req.End, u.location()); err != nil {
		return nil, apperror.Invalid(err.Error())
	}
	shift := &model.Shift{
		EmployeeID: req.EmployeeID,
		Date:       req.Date,
		Start:      req.Start,
		End:        req.End,
		LocationID: req.LocationID,
		Notes:      req.Notes,
	}
	if err := u.Repo.Shift.Upsert(ctx, shift); err != nil {
		return nil, apperror.InternalErr(err)
	}
	return shift, nil
}

func (u *adminUsecase) ListShifts(ctx context.Context, date string) ([]model.Shift, error) {
	if _, err := attendance.ParseDate(date, u.location()); err != nil {
		return nil, apperror.Invalid(err.Error())
	}
	shifts, err := u.Repo.Shift.ListByDate(ctx, date)
	if err != nil {
		return nil, apperror.InternalErr(err)
	}
	return shifts, nil
}

func (u *adminUsecase) DeleteShift(ctx context.Context, id uint) error {
	if err := u.Repo.Shift.Delete(ctx, id); err != nil {
		return apperror.InternalErr(err)
	}
	return nil
}

// ── Holidays ──

func (u *adminUsecase) CreateHoliday(ctx context.Context, req HolidayRequest) (*model.Holiday, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	holiday := &model.Holiday{Date: req.Date, Description: req.Description}
	if err := u.Repo.Holiday.Create(ctx, holiday); err != nil {
		if isDuplicate(err) {
			return nil, apperror.Conflicting("holiday already registered for "+req.Date, err)
		}
		return nil, apperror.InternalErr(err)
	}
	return holiday, nil
}

func (u *adminUsecase) ListHolidays(ctx context.Context) ([]model.Holiday, error) {
	holidays, err := u.Repo.Holiday.List(ctx)
	if err != nil {
		return nil, apperror.InternalErr(err)
	}
	return holidays, nil
}

func (u *adminUsecase) DeleteHoliday(ctx context.Context, id uint) error {
	if err := u.Repo.Holiday.Delete(ctx, id); err != nil {
		return apperror.InternalErr(err)
	}
	return nil
}

// ── Locations ──

func (u *adminUsecase) UpsertLocation(ctx context.Context, req LocationRequest) (*model.Location, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	location := &model.Location{ID: req.ID, Name: req.Name, TZ: req.TZ, Address: req.Address}
	if err := u.Repo.Location.Upsert(ctx, location); err != nil {
		return nil, apperror.InternalErr(err)
	}
	return location, nil
}

func (u *adminUsecase) ListLocations(ctx context.Context) ([]model.Location, error) {
	locations, err := u.Repo.Location.List(ctx)
	if err != nil {
		return nil, apperror.InternalErr(err)
	}
	return locations, nil
}
