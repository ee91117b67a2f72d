package usecase

import (
	"context"
	"time"

	"pdks-backend/internal/apperror"
	"pdks-backend/internal/metrics"
	"pdks-backend/internal/model"
	"pdks-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type IssueChallengeRequest struct {
	DeviceID     string `json:"device_id" validate:"required,max=64"`
	DeviceSecret string `json:"device_secret"`
}

type ChallengeResponse struct {
	Challenge  string    `json:"challenge"`
	ExpiresAt  time.Time `json:"expires_at"`
	TTLSeconds int       `json:"ttl_seconds"`
}

// ChallengeUsecase issues the short-lived codes a kiosk displays and
// redeems them when a punch arrives. A challenge is redeemable once.
type ChallengeUsecase interface {
	Issue(ctx context.Context, req IssueChallengeRequest) (*ChallengeResponse, error)
	// Check validates token for deviceID without consuming it.
	Check(ctx context.Context, token, deviceID string, now time.Time) error
	// Redeem validates and deletes the challenge using repo, normally bound
	// to the transaction that records the punch.
	Redeem(ctx context.Context, repo *repository.Repository, token, deviceID string, now time.Time) error
	CleanupExpired(ctx context.Context) (int64, error)
}

type challengeUsecase struct {
	Deps
}

func NewChallengeUsecase(d Deps) ChallengeUsecase {
	return &challengeUsecase{Deps: d}
}

func (u *challengeUsecase) Issue(ctx context.Context, req IssueChallengeRequest) (*ChallengeResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	device, err := u.Repo.Device.GetByID(ctx, req.DeviceID)
	if err != nil {
		if isNotFound(err) {
			metrics.ChallengesTotal.WithLabelValues("denied").Inc()
			return nil, apperror.Denied("unknown device")
		}
		return nil, apperror.InternalErr(err)
	}
	if !device.IsActive() {
		metrics.ChallengesTotal.WithLabelValues("denied").Inc()
		return nil, apperror.Denied("device is not active")
	}
	if device.SecretHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(device.SecretHash), []byte(req.DeviceSecret)); err != nil {
			metrics.ChallengesTotal.WithLabelValues("denied").Inc()
			return nil, apperror.Denied("invalid device secret")
		}
	}

	now := u.now()
	expiresAt := now.Add(u.Settings.ChallengeTTL)
	jti := uuid.NewString()

	claims := jwt.RegisteredClaims{
		ID:        jti,
		Subject:   device.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.Settings.ChallengeSecret)
	if err != nil {
		return nil, apperror.InternalErr(err)
	}

	challenge := &model.Challenge{Token: jti, DeviceID: device.ID, ExpiresAt: expiresAt}
	if err := u.Repo.Challenge.Create(ctx, challenge); err != nil {
		return nil, apperror.InternalErr(err)
	}
	if err := u.Repo.Device.Touch(ctx, device.ID, now); err != nil {
		u.Logger.Warn("update device last seen failed", zap.String("device_id", device.ID), zap.Error(err))
	}

	metrics.ChallengesTotal.WithLabelValues("issued").Inc()
	return &ChallengeResponse{
		Challenge:  signed,
		ExpiresAt:  expiresAt,
		TTLSeconds: int(u.Settings.ChallengeTTL / time.Second),
	}, nil
}

func (u *challengeUsecase) Check(ctx context.Context, token, deviceID string, now time.Time) error {
	return u.verify(ctx, u.Repo, token, deviceID, now, false)
}

func (u *challengeUsecase) Redeem(ctx context.Context, repo *repository.Repository, token, deviceID string, now time.Time) error {
	return u.verify(ctx, repo, token, deviceID, now, true)
}

func (u *challengeUsecase) verify(ctx context.Context, repo *repository.Repository, token, deviceID string, now time.Time, consume bool) error {
	claims, err := u.parse(token)
	if err != nil {
		metrics.ChallengesTotal.WithLabelValues("invalid").Inc()
		return apperror.Wrap(apperror.PermissionDenied, "invalid challenge", err)
	}

	row, err := repo.Challenge.GetForUpdate(ctx, claims.ID)
	if err != nil {
		if !isNotFound(err) {
			return apperror.InternalErr(err)
		}
		// The signature proves we issued it, so a missing row was either
		// redeemed already or swept after expiry.
		if claims.ExpiresAt != nil && now.After(claims.ExpiresAt.Time) {
			metrics.ChallengesTotal.WithLabelValues("expired").Inc()
			return apperror.Denied("challenge expired, scan the new code")
		}
		metrics.ChallengesTotal.WithLabelValues("reused").Inc()
		return apperror.Conflicting("challenge already used, scan the new code", nil)
	}

	if row.DeviceID != deviceID {
		metrics.ChallengesTotal.WithLabelValues("denied").Inc()
		return apperror.Denied("challenge was issued to another device")
	}
	if now.After(row.ExpiresAt) {
		metrics.ChallengesTotal.WithLabelValues("expired").Inc()
		return apperror.Denied("challenge expired, scan the new code")
	}
	if !consume {
		return nil
	}

	n, err := repo.Challenge.Delete(ctx, row.Token)
	if err != nil {
		return apperror.InternalErr(err)
	}
	if n != 1 {
		metrics.ChallengesTotal.WithLabelValues("reused").Inc()
		return apperror.Conflicting("challenge already used, scan the new code", nil)
	}
	metrics.ChallengesTotal.WithLabelValues("redeemed").Inc()
	return nil
}

// parse checks the signature only; expiry is decided against the stored
// row and the caller's clock.
func (u *challengeUsecase) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	keyFunc := func(*jwt.Token) (interface{}, error) {
		return u.Settings.ChallengeSecret, nil
	}
	_, err := jwt.ParseWithClaims(token, claims, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, jwt.ErrTokenInvalidId
	}
	return claims, nil
}

func (u *challengeUsecase) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := u.Repo.Challenge.DeleteExpired(ctx, u.now())
	if err != nil {
		return 0, apperror.InternalErr(err)
	}
	return n, nil
}
