package repository

import (
	"context"

	"pdks-backend/internal/model"

	"gorm.io/gorm"
)

type EmployeeRepository interface {
	Create(ctx context.Context, employee *model.Employee) error
	Update(ctx context.Context, employee *model.Employee) error
	GetByID(ctx context.Context, id uint) (*model.Employee, error)
	GetByCode(ctx context.Context, code string) (*model.Employee, error)
	GetByIDs(ctx context.Context, ids []uint) ([]model.Employee, error)
	List(ctx context.Context, activeOnly bool) ([]model.Employee, error)
}

type employeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db}
}

func (r *employeeRepository) Create(ctx context.Context, employee *model.Employee) error {
	return r.db.WithContext(ctx).Create(employee).Error
}

func (r *employeeRepository) Update(ctx context.Context, employee *model.Employee) error {
	return r.db.WithContext(ctx).Save(employee).Error
}

func (r *employeeRepository) GetByID(ctx context.Context, id uint) (*model.Employee, error) {
	var employee model.Employee
	if err := r.db.WithContext(ctx).First(&employee, id).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepository) GetByCode(ctx context.Context, code string) (*model.Employee, error) {
	var employee model.Employee
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&employee).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepository) GetByIDs(ctx context.Context, ids []uint) ([]model.Employee, error) {
	var employees []model.Employee
	if len(ids) == 0 {
		return employees, nil
	}
	err := r.db.WithContext(ctx).Unscoped().Where("id IN ?", ids).Find(&employees).Error
	return employees, err
}

func (r *employeeRepository) List(ctx context.Context, activeOnly bool) ([]model.Employee, error) {
	var employees []model.Employee
	q := r.db.WithContext(ctx).Order("first_name asc, last_name asc")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	err := q.Find(&employees).Error
	return employees, err
}
