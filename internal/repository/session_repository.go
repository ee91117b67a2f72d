package repository

import (
	"context"

	"pdks-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository interface {
	Get(ctx context.Context, employeeID uint, date string) (*model.Session, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, employeeID uint, date string) (*model.Session, error)
	Save(ctx context.Context, session *model.Session) error
	ListByDateRange(ctx context.Context, from, to string) ([]model.Session, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db}
}

func (r *sessionRepository) Get(ctx context.Context, employeeID uint, date string) (*model.Session, error) {
	return r.get(r.db.WithContext(ctx), employeeID, date)
}

func (r *sessionRepository) GetForUpdate(ctx context.Context, employeeID uint, date string) (*model.Session, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), employeeID, date)
}

func (r *sessionRepository) get(q *gorm.DB, employeeID uint, date string) (*model.Session, error) {
	var session model.Session
	if err := q.Where("employee_id = ? AND date = ?", employeeID, date).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// Save inserts the session or replaces every derived column of the
// existing (employee_id, date) row.
func (r *sessionRepository) Save(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "employee_id"}, {Name: "date"}},
		UpdateAll: true,
	}).Create(session).Error
}

// ListByDateRange returns sessions with from <= date <= to.
func (r *sessionRepository) ListByDateRange(ctx context.Context, from, to string) ([]model.Session, error) {
	var sessions []model.Session
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", from, to).
		Order("date asc, employee_id asc").
		Find(&sessions).Error
	return sessions, err
}
