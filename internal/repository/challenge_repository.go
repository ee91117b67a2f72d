package repository

import (
	"context"
	"time"

	"pdks-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChallengeRepository interface {
	Create(ctx context.Context, challenge *model.Challenge) error
	GetForUpdate(ctx context.Context, token string) (*model.Challenge, error)
	// Delete reports how many rows were removed; a redeemed challenge
	// deletes exactly one.
	Delete(ctx context.Context, token string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type challengeRepository struct {
	db *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) ChallengeRepository {
	return &challengeRepository{db}
}

func (r *challengeRepository) Create(ctx context.Context, challenge *model.Challenge) error {
	return r.db.WithContext(ctx).Create(challenge).Error
}

func (r *challengeRepository) GetForUpdate(ctx context.Context, token string) (*model.Challenge, error) {
	var challenge model.Challenge
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token = ?", token).
		First(&challenge).Error
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (r *challengeRepository) Delete(ctx context.Context, token string) (int64, error) {
	res := r.db.WithContext(ctx).Where("token = ?", token).Delete(&model.Challenge{})
	return res.RowsAffected, res.Error
}

func (r *challengeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&model.Challenge{})
	return res.RowsAffected, res.Error
}
