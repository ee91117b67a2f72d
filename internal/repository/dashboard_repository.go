package repository

import (
	"context"
	"time"

	"pdks-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DayCounts are the headline numbers of one work date.
type DayCounts struct {
	Employees       int64
	ActiveEmployees int64
	Punches         int64
	ByStatus        map[string]int64 // sessions per current status
	Late            int64
	EarlyLeave      int64
	WorkedMinutes   int64
}

type DashboardRepository interface {
	// DayCounts counts the sessions of date and the punches in [from, to).
	DayCounts(ctx context.Context, date string, from, to time.Time) (*DayCounts, error)
}

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db}
}

func (r *dashboardRepository) DayCounts(ctx context.Context, date string, from, to time.Time) (*DayCounts, error) {
	db := r.db.WithContext(ctx)
	counts := &DayCounts{ByStatus: map[string]int64{model.StatusIn: 0, model.StatusBreak: 0, model.StatusOut: 0}}

	// 1. Employees
	if err := db.Model(&model.Employee{}).Count(&counts.Employees).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Employee{}).Where("active = ?", true).Count(&counts.ActiveEmployees).Error; err != nil {
		return nil, err
	}

	// 2. Punches of the day
	err := db.Model(&model.Punch{}).
		Where(clause.Gte{Column: clause.Column{Name: "timestamp"}, Value: from}).
		Where(clause.Lt{Column: clause.Column{Name: "timestamp"}, Value: to}).
		Count(&counts.Punches).Error
	if err != nil {
		return nil, err
	}

	// 3. Sessions grouped by status
	var byStatus []struct {
		CurrentStatus string
		Count         int64
	}
	err = db.Model(&model.Session{}).
		Where("date = ?", date).
		Group("current_status").Select("current_status, count(*) as count").
		Scan(&byStatus).Error
	if err != nil {
		return nil, err
	}
	for _, s := range byStatus {
		counts.ByStatus[s.CurrentStatus] = s.Count
	}

	var totals struct {
		Late          int64
		EarlyLeave    int64
		WorkedMinutes int64
	}
	err = db.Model(&model.Session{}).
		Where("date = ?", date).
		Select("COALESCE(SUM(CASE WHEN late_minutes > 0 THEN 1 ELSE 0 END), 0) AS late, " +
			"COALESCE(SUM(CASE WHEN early_leave_minutes > 0 THEN 1 ELSE 0 END), 0) AS early_leave, " +
			"COALESCE(SUM(total_minutes), 0) AS worked_minutes").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	counts.Late = totals.Late
	counts.EarlyLeave = totals.EarlyLeave
	counts.WorkedMinutes = totals.WorkedMinutes
	return counts, nil
}
