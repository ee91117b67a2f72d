package repository

import (
	"context"
	"time"

	"pdks-backend/internal/model"

	"gorm.io/gorm"
)

type DeviceRepository interface {
	Create(ctx context.Context, device *model.Device) error
	GetByID(ctx context.Context, id string) (*model.Device, error)
	List(ctx context.Context) ([]model.Device, error)
	SetStatus(ctx context.Context, id, status string) error
	Touch(ctx context.Context, id string, at time.Time) error
}

type deviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{db}
}

func (r *deviceRepository) Create(ctx context.Context, device *model.Device) error {
	return r.db.WithContext(ctx).Create(device).Error
}

func (r *deviceRepository) GetByID(ctx context.Context, id string) (*model.Device, error) {
	var device model.Device
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&device).Error; err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *deviceRepository) List(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	err := r.db.WithContext(ctx).Order("registered_at desc").Find(&devices).Error
	return devices, err
}

func (r *deviceRepository) SetStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).Model(&model.Device{}).Where("id = ?", id).Update("status", status).Error
}

// Touch records the last time the device talked to the server.
func (r *deviceRepository) Touch(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Device{}).Where("id = ?", id).Update("last_seen_at", at).Error
}
