package repository

import (
	"context"
	"time"

	"pdks-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PunchRepository is insert-only: punches are never updated or deleted.
type PunchRepository interface {
	Create(ctx context.Context, punch *model.Punch) error
	ListByEmployeeBetween(ctx context.Context, employeeID uint, from, to time.Time) ([]model.Punch, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]model.Punch, error)
}

type punchRepository struct {
	db *gorm.DB
}

func NewPunchRepository(db *gorm.DB) PunchRepository {
	return &punchRepository{db}
}

func (r *punchRepository) Create(ctx context.Context, punch *model.Punch) error {
	return r.db.WithContext(ctx).Create(punch).Error
}

// ListByEmployeeBetween returns punches in [from, to) ordered by timestamp.
func (r *punchRepository) ListByEmployeeBetween(ctx context.Context, employeeID uint, from, to time.Time) ([]model.Punch, error) {
	var punches []model.Punch
	err := r.between(ctx, from, to).Where("employee_id = ?", employeeID).Find(&punches).Error
	return punches, err
}

func (r *punchRepository) ListBetween(ctx context.Context, from, to time.Time) ([]model.Punch, error) {
	var punches []model.Punch
	err := r.between(ctx, from, to).Find(&punches).Error
	return punches, err
}

func (r *punchRepository) between(ctx context.Context, from, to time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Where(clause.Gte{Column: clause.Column{Name: "timestamp"}, Value: from}).
		Where(clause.Lt{Column: clause.Column{Name: "timestamp"}, Value: to}).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "timestamp"}},
			{Column: clause.Column{Name: "id"}},
		}})
}
