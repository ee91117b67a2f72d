package usecase

import (
	"context"
	"fmt"

	"pdks-backend/internal/attendance"
	"pdks-backend/internal/model"
	"pdks-backend/internal/repository"
)

// dayRules is what the engine needs to evaluate one employee's day.
type dayRules struct {
	Schedule attendance.Schedule
	Policy   attendance.Policy
	Holiday  bool
}

// resolveDay picks the policy of locationID (or the configured default) and
// the schedule of the day: none on holidays, otherwise the employee's shift,
// otherwise the policy's scheduled hours, otherwise the configured hours.
func resolveDay(ctx context.Context, repo *repository.Repository, s Settings, employeeID uint, locationID, date string) (dayRules, error) {
	rules := dayRules{Policy: s.DefaultPolicy}
	start, end := s.DefaultStart, s.DefaultEnd

	if locationID != "" {
		stored, err := repo.Policy.GetByLocation(ctx, locationID)
		switch {
		case err == nil:
			p, err := policyFromModel(stored)
			if err != nil {
				return dayRules{}, err
			}
			rules.Policy = p
			if stored.ScheduledStart != "" && stored.ScheduledEnd != "" {
				start, end = stored.ScheduledStart, stored.ScheduledEnd
			}
		case !isNotFound(err):
			return dayRules{}, err
		}
	}

	holiday, err := repo.Holiday.IsHoliday(ctx, date)
	if err != nil {
		return dayRules{}, err
	}
	if holiday {
		rules.Holiday = true
		return rules, nil
	}

	shift, err := repo.Shift.GetByEmployeeDate(ctx, employeeID, date)
	switch {
	case err == nil:
		start, end = shift.Start, shift.End
	case !isNotFound(err):
		return dayRules{}, err
	}

	sched, err := attendance.NewSchedule(date, start, end, s.loc())
	if err != nil {
		return dayRules{}, fmt.Errorf("schedule for %s: %w", date, err)
	}
	rules.Schedule = sched
	return rules, nil
}

// punchLocation is where a kiosk punch counts: the device's location, or
// the employee's home location for devices without one.
func punchLocation(device *model.Device, employee *model.Employee) string {
	if device.LocationID != "" {
		return device.LocationID
	}
	return employee.LocationID
}

func policyFromModel(p *model.Policy) (attendance.Policy, error) {
	rounding, err := attendance.ParseRounding(p.Rounding)
	if err != nil {
		return attendance.Policy{}, fmt.Errorf("policy of %s: %w", p.LocationID, err)
	}
	afterCheckout, err := attendance.ParseAfterCheckout(p.AfterCheckout)
	if err != nil {
		return attendance.Policy{}, fmt.Errorf("policy of %s: %w", p.LocationID, err)
	}
	return attendance.Policy{
		GraceInMinutes:  p.GraceInMinutes,
		GraceOutMinutes: p.GraceOutMinutes,
		Rounding:        rounding,
		AfterCheckout:   afterCheckout,
	}, nil
}
