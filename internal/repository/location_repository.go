package repository

import (
	"context"

	"pdks-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LocationRepository interface {
	List(ctx context.Context) ([]model.Location, error)
	GetByID(ctx context.Context, id string) (*model.Location, error)
	Upsert(ctx context.Context, location *model.Location) error
}

type locationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepository{db}
}

func (r *locationRepository) List(ctx context.Context) ([]model.Location, error) {
	var locations []model.Location
	err := r.db.WithContext(ctx).Order("name asc").Find(&locations).Error
	return locations, err
}

func (r *locationRepository) GetByID(ctx context.Context, id string) (*model.Location, error) {
	var location model.Location
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *locationRepository) Upsert(ctx context.Context, location *model.Location) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "tz", "address"}),
	}).Create(location).Error
}
