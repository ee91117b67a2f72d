package repository

import (
	"context"

	"pdks-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PolicyRepository interface {
	GetByLocation(ctx context.Context, locationID string) (*model.Policy, error)
	List(ctx context.Context) ([]model.Policy, error)
	Upsert(ctx context.Context, policy *model.Policy) error
}

type policyRepository struct {
	db *gorm.DB
}

func NewPolicyRepository(db *gorm.DB) PolicyRepository {
	return &policyRepository{db}
}

func (r *policyRepository) GetByLocation(ctx context.Context, locationID string) (*model.Policy, error) {
	var policy model.Policy
	if err := r.db.WithContext(ctx).Where("location_id = ?", locationID).First(&policy).Error; err != nil {
		return nil, err
	}
	return &policy, nil
}

func (r *policyRepository) List(ctx context.Context) ([]model.Policy, error) {
	var policies []model.Policy
	err := r.db.WithContext(ctx).Order("location_id asc").Find(&policies).Error
	return policies, err
}

// Upsert keeps one policy row per location.
func (r *policyRepository) Upsert(ctx context.Context, policy *model.Policy) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "location_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"grace_in_minutes", "grace_out_minutes", "rounding",
			"scheduled_start", "scheduled_end", "after_checkout", "updated_at",
		}),
	}).Create(policy).Error
}
