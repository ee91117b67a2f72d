package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"pdks-backend/internal/apperror"
	"pdks-backend/internal/attendance"
	"pdks-backend/internal/lock"
	"pdks-backend/internal/metrics"
	"pdks-backend/internal/model"
	"pdks-backend/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxSelfieBytes = 5 << 20
	// selfieConfidence is recorded for kiosk punches carrying a selfie until
	// a face matcher provides a real score.
	selfieConfidence = 0.8
	// storedPrecision is the finest timestamp both MySQL datetime(3) and
	// Postgres keep unchanged.
	storedPrecision = time.Millisecond
)

type RecordPunchRequest struct {
	DeviceID     string     `json:"device_id" validate:"required,max=64"`
	Challenge    string     `json:"challenge" validate:"required"`
	EmployeeCode string     `json:"employee_code" validate:"required,max=64"`
	Action       string     `json:"action" validate:"omitempty,oneof=CHECK_IN CHECK_OUT BREAK_START BREAK_END"`
	ClientTS     *time.Time `json:"client_ts"`
	SelfieData   string     `json:"selfie_data"`
}

type ManualPunchRequest struct {
	EmployeeID uint      `json:"employee_id" validate:"required"`
	Action     string    `json:"action" validate:"required,oneof=CHECK_IN CHECK_OUT BREAK_START BREAK_END"`
	Timestamp  time.Time `json:"timestamp" validate:"required"`
	Reason     string    `json:"reason" validate:"required,max=255"`
	LocationID string    `json:"location_id" validate:"max=64"`
}

type EmployeeCard struct {
	ID         uint   `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Position   string `json:"position"`
}

func cardOf(e *model.Employee) EmployeeCard {
	return EmployeeCard{ID: e.ID, Code: e.Code, Name: e.FullName(), Department: e.Department, Position: e.Position}
}

type Highlights struct {
	IsLate            bool `json:"is_late"`
	LateMinutes       int  `json:"late_minutes,omitempty"`
	IsEarlyLeave      bool `json:"is_early_leave"`
	EarlyLeaveMinutes int  `json:"early_leave_minutes,omitempty"`
}

type PunchResult struct {
	PunchID    string               `json:"punch_id"`
	Action     attendance.PunchType `json:"action"`
	Timestamp  time.Time            `json:"timestamp"`
	Employee   EmployeeCard         `json:"employee"`
	Session    SessionSnapshot      `json:"session_state"`
	Highlights Highlights           `json:"highlights"`
	Next       attendance.Decision  `json:"next"`
	Message    string               `json:"message"`
}

type PunchUsecase interface {
	// Record accepts a kiosk scan. The server clock stamps the punch; an
	// empty action takes the engine's default for the current status.
	Record(ctx context.Context, req RecordPunchRequest) (*PunchResult, error)
	// RecordManual stores an administrator correction and rebuilds the
	// day it falls on.
	RecordManual(ctx context.Context, req ManualPunchRequest) (*PunchResult, error)
}

type punchUsecase struct {
	Deps
	challenge ChallengeUsecase
}

func NewPunchUsecase(d Deps, challenge ChallengeUsecase) PunchUsecase {
	return &punchUsecase{Deps: d, challenge: challenge}
}

func (u *punchUsecase) Record(ctx context.Context, req RecordPunchRequest) (*PunchResult, error) {
	if err := validateRequest(req); err != nil {
		u.count(req.Action, model.SourceKiosk, err)
		return nil, err
	}
	loc := u.location()
	now := u.now().In(loc).Truncate(storedPrecision)

	selfie, err := decodeSelfie(req.SelfieData)
	if err != nil {
		u.count(req.Action, model.SourceKiosk, err)
		return nil, err
	}

	// Token problems are reported before anything about the employee.
	if err := u.challenge.Check(ctx, req.Challenge, req.DeviceID, now); err != nil {
		u.count(req.Action, model.SourceKiosk, err)
		return nil, err
	}

	employee, err := u.Repo.Employee.GetByCode(ctx, req.EmployeeCode)
	if err != nil {
		if isNotFound(err) {
			err = apperror.Missing("employee not found")
		} else {
			err = apperror.InternalErr(err)
		}
		u.count(req.Action, model.SourceKiosk, err)
		return nil, err
	}
	if !employee.Active {
		err := apperror.Denied("employee is inactive")
		u.count(req.Action, model.SourceKiosk, err)
		return nil, err
	}

	date := attendance.DateOf(now, loc)
	punch := &model.Punch{
		ID:              uuid.NewString(),
		EmployeeID:      employee.ID,
		DeviceID:        req.DeviceID,
		Type:            req.Action,
		Timestamp:       now,
		ClientTimestamp: req.ClientTS,
		Source:          model.SourceKiosk,
	}
	if selfie != nil {
		punch.SelfieURL = u.uploadSelfie(ctx, date, punch.ID, selfie)
		confidence := selfieConfidence
		punch.Confidence = &confidence
	}

	unlock, err := u.Locker.Lock(ctx, lock.SessionKey(employee.ID, date))
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "session is busy, please try again", err)
	}
	defer unlock()

	var result *PunchResult
	err = u.Repo.Tx.WithinTransaction(ctx, func(tx *repository.Repository) error {
		if err := u.challenge.Redeem(ctx, tx, req.Challenge, req.DeviceID, now); err != nil {
			return err
		}
		device, err := tx.Device.GetByID(ctx, req.DeviceID)
		if err != nil {
			if isNotFound(err) {
				return apperror.Denied("unknown device")
			}
			return apperror.InternalErr(err)
		}
		if !device.IsActive() {
			return apperror.Denied("device is not active")
		}
		punch.LocationID = punchLocation(device, employee)

		result, err = u.applyIncremental(ctx, tx, employee, date, punch)
		return err
	})
	if err != nil {
		err = apperror.As(err)
		u.count(req.Action, model.SourceKiosk, err)
		return nil, err
	}

	u.count(string(result.Action), model.SourceKiosk, nil)
	u.Logger.Info("punch recorded",
		zap.String("punch_id", result.PunchID),
		zap.Uint("employee_id", employee.ID),
		zap.String("device_id", req.DeviceID),
		zap.String("action", string(result.Action)),
		zap.Int("late_minutes", result.Session.LateMinutes),
	)
	return result, nil
}

// applyIncremental folds punch into the locked session row and stores both.
func (u *punchUsecase) applyIncremental(ctx context.Context, tx *repository.Repository, employee *model.Employee, date string, punch *model.Punch) (*PunchResult, error) {
	loc := u.location()

	current, err := tx.Session.GetForUpdate(ctx, employee.ID, date)
	if err != nil && !isNotFound(err) {
		return nil, apperror.InternalErr(err)
	}
	session := &model.Session{EmployeeID: employee.ID, Date: date, LocationID: punch.LocationID}
	if current != nil {
		session = current
		if session.LocationID == "" {
			session.LocationID = punch.LocationID
		}
	}

	rules, err := resolveDay(ctx, tx, u.Settings, employee.ID, session.LocationID, date)
	if err != nil {
		return nil, apperror.InternalErr(err)
	}

	state := stateFromSession(current, loc)
	decision := attendance.Decide(state, rules.Policy)
	punchType := attendance.PunchType(punch.Type)
	if punchType == "" {
		if decision.Closed {
			return nil, engineError(attendance.ErrAlreadyCheckedOut, decision)
		}
		punchType = decision.Default
		punch.Type = string(punchType)
	}

	next, err := attendance.Apply(state, attendance.Punch{ID: punch.ID, Type: punchType, At: punch.Timestamp}, rules.Schedule, rules.Policy)
	if err != nil {
		return nil, engineError(err, decision)
	}
	if next.LastPunchID != punch.ID {
		// Same type and instant as the last punch: nothing new to store.
		return buildResult(employee, next.LastPunchID, punchType, punch.Timestamp, session, rules.Policy), nil
	}

	if err := tx.Punch.Create(ctx, punch); err != nil {
		if isDuplicate(err) {
			return nil, apperror.Conflicting("punch already recorded", err)
		}
		return nil, apperror.InternalErr(err)
	}
	writeState(session, next)
	if err := tx.Session.Save(ctx, session); err != nil {
		if isDuplicate(err) {
			return nil, apperror.Conflicting("session was updated concurrently, please try again", err)
		}
		return nil, apperror.InternalErr(err)
	}
	return buildResult(employee, punch.ID, punchType, punch.Timestamp, session, rules.Policy), nil
}

func (u *punchUsecase) RecordManual(ctx context.Context, req ManualPunchRequest) (*PunchResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	loc := u.location()
	at := req.Timestamp.In(loc).Truncate(storedPrecision)
	if at.After(u.now()) {
		return nil, apperror.Invalid("timestamp cannot be in the future")
	}

	employee, err := u.Repo.Employee.GetByID(ctx, req.EmployeeID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.Missing("employee not found")
		}
		return nil, apperror.InternalErr(err)
	}

	locationID := req.LocationID
	if locationID == "" {
		locationID = employee.LocationID
	}
	reason := req.Reason
	punch := &model.Punch{
		ID:         uuid.NewString(),
		EmployeeID: employee.ID,
		LocationID: locationID,
		Type:       req.Action,
		Timestamp:  at,
		Source:     model.SourceAdmin,
		Reason:     &reason,
	}
	date := attendance.DateOf(at, loc)

	unlock, err := u.Locker.Lock(ctx, lock.SessionKey(employee.ID, date))
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "session is busy, please try again", err)
	}
	defer unlock()

	var result *PunchResult
	err = u.Repo.Tx.WithinTransaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Punch.Create(ctx, punch); err != nil {
			return apperror.InternalErr(err)
		}
		from, to, err := attendance.DayBounds(date, loc)
		if err != nil {
			return apperror.InternalErr(err)
		}
		punches, err := tx.Punch.ListByEmployeeBetween(ctx, employee.ID, from, to)
		if err != nil {
			return apperror.InternalErr(err)
		}

		session, rules, skipped, err := rebuildSession(ctx, tx, u.Settings, employee.ID, date, punches, false)
		if err != nil {
			return apperror.InternalErr(err)
		}
		for _, s := range skipped {
			if s.Punch.ID == punch.ID {
				return engineError(s.Err, attendance.Decide(stateFromSession(session, loc), rules.Policy))
			}
			u.Logger.Warn("punch skipped during replay",
				zap.String("punch_id", s.Punch.ID), zap.Uint("employee_id", employee.ID), zap.Error(s.Err))
		}

		result = buildResult(employee, punch.ID, attendance.PunchType(punch.Type), at, session, rules.Policy)
		return nil
	})
	if err != nil {
		err = apperror.As(err)
		u.count(req.Action, model.SourceAdmin, err)
		return nil, err
	}

	u.count(req.Action, model.SourceAdmin, nil)
	u.Logger.Info("manual punch recorded",
		zap.String("punch_id", punch.ID),
		zap.Uint("employee_id", employee.ID),
		zap.String("action", req.Action),
		zap.String("reason", req.Reason),
	)
	return result, nil
}

func buildResult(employee *model.Employee, punchID string, t attendance.PunchType, at time.Time, session *model.Session, p attendance.Policy) *PunchResult {
	snap := snapshotOf(session)
	var h Highlights
	if t == attendance.CheckIn && snap.LateMinutes > 0 {
		h.IsLate = true
		h.LateMinutes = snap.LateMinutes
	}
	if t == attendance.CheckOut && snap.EarlyLeaveMinutes > 0 {
		h.IsEarlyLeave = true
		h.EarlyLeaveMinutes = snap.EarlyLeaveMinutes
	}
	return &PunchResult{
		PunchID:    punchID,
		Action:     t,
		Timestamp:  at,
		Employee:   cardOf(employee),
		Session:    snap,
		Highlights: h,
		Next:       attendance.Decide(stateFromSession(session, at.Location()), p),
		Message:    punchMessage(t, h),
	}
}

func punchMessage(t attendance.PunchType, h Highlights) string {
	switch t {
	case attendance.CheckIn:
		if h.IsLate {
			return fmt.Sprintf("Check-in recorded (%d min late)", h.LateMinutes)
		}
		return "Check-in recorded"
	case attendance.CheckOut:
		if h.IsEarlyLeave {
			return fmt.Sprintf("Check-out recorded (%d min early)", h.EarlyLeaveMinutes)
		}
		return "Check-out recorded"
	case attendance.BreakStart:
		return "Break started"
	case attendance.BreakEnd:
		return "Break ended"
	}
	return "Punch recorded"
}

// engineError maps state machine rejections onto the error taxonomy.
func engineError(err error, d attendance.Decision) error {
	switch {
	case errors.Is(err, attendance.ErrInvalidPunchType):
		return apperror.Wrap(apperror.InvalidArgument, "unknown punch type", err)
	case errors.Is(err, attendance.ErrAlreadyCheckedOut):
		return apperror.Conflicting("already checked out for today", err)
	case errors.Is(err, attendance.ErrOutOfOrder):
		return apperror.Conflicting("punch is older than the last recorded punch", err)
	}
	allowed := make([]string, 0, len(d.Options))
	for _, o := range d.Options {
		allowed = append(allowed, string(o))
	}
	return apperror.Conflicting(fmt.Sprintf("not allowed while %s, expected %s", d.Status, strings.Join(allowed, " or ")), err)
}

func decodeSelfie(data string) ([]byte, error) {
	if data == "" {
		return nil, nil
	}
	if i := strings.Index(data, ";base64,"); i >= 0 && strings.HasPrefix(data, "data:") {
		data = data[i+len(";base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, apperror.Invalid("selfie_data is not valid base64")
	}
	if len(raw) > maxSelfieBytes {
		return nil, apperror.Invalid("selfie is too large")
	}
	return raw, nil
}

// uploadSelfie never fails the punch; a missing selfie only loses evidence.
func (u *punchUsecase) uploadSelfie(ctx context.Context, date, punchID string, data []byte) *string {
	if u.Uploader == nil {
		return nil
	}
	ref, err := u.Uploader.Upload(ctx, fmt.Sprintf("selfies/%s/%s", date, punchID), data)
	if err != nil {
		u.Logger.Warn("selfie upload failed", zap.String("punch_id", punchID), zap.Error(err))
		return nil
	}
	return &ref
}

func (u *punchUsecase) count(action, source string, err error) {
	switch {
	case action == "":
		action = "DEFAULT"
	case !attendance.PunchType(action).Valid():
		action = "UNKNOWN"
	}
	result := "ok"
	if err != nil {
		result = strings.ToLower(string(apperror.KindOf(err)))
	}
	metrics.PunchesTotal.WithLabelValues(action, source, result).Inc()
}
