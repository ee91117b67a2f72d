package repository

import (
	"context"

	"pdks-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ShiftRepository interface {
	GetByEmployeeDate(ctx context.Context, employeeID uint, date string) (*model.Shift, error)
	ListByDate(ctx context.Context, date string) ([]model.Shift, error)
	Upsert(ctx context.Context, shift *model.Shift) error
	Delete(ctx context.Context, id uint) error
}

type shiftRepository struct {
	db *gorm.DB
}

func NewShiftRepository(db *gorm.DB) ShiftRepository {
	return &shiftRepository{db}
}

func (r *shiftRepository) GetByEmployeeDate(ctx context.Context, employeeID uint, date string) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND date = ?", employeeID, date).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepository) ListByDate(ctx context.Context, date string) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).Preload("Employee").Where("date = ?", date).Order("start_time asc").Find(&shifts).Error
	return shifts, err
}

// Upsert replaces the shift an employee has on that date, if any.
func (r *shiftRepository) Upsert(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "employee_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"start_time", "end_time", "location_id", "notes", "updated_at", "deleted_at"}),
	}).Create(shift).Error
}

func (r *shiftRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&model.Shift{}, id).Error
}
