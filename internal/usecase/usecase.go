package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"pdks-backend/config"
	"pdks-backend/internal/apperror"
	"pdks-backend/internal/attendance"
	"pdks-backend/internal/lock"
	"pdks-backend/internal/repository"
	"pdks-backend/internal/storage"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Settings are the attendance rules that do not live in the database.
type Settings struct {
	Location        *time.Location
	ChallengeTTL    time.Duration
	ChallengeSecret []byte
	DefaultPolicy   attendance.Policy
	DefaultStart    string
	DefaultEnd      string
	Workers         int
}

func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	p := cfg.Attendance.DefaultPolicy
	rounding, err := attendance.ParseRounding(p.Rounding)
	if err != nil {
		return Settings{}, err
	}
	afterCheckout, err := attendance.ParseAfterCheckout(p.AfterCheckout)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Location:        cfg.Location(),
		ChallengeTTL:    cfg.Attendance.ChallengeTTL,
		ChallengeSecret: []byte(cfg.Attendance.ChallengeSecret),
		DefaultPolicy: attendance.Policy{
			GraceInMinutes:  p.GraceInMinutes,
			GraceOutMinutes: p.GraceOutMinutes,
			Rounding:        rounding,
			AfterCheckout:   afterCheckout,
		},
		DefaultStart: p.ScheduledStart,
		DefaultEnd:   p.ScheduledEnd,
		Workers:      cfg.Aggregator.Workers,
	}, nil
}

// Deps is everything the usecases share. Uploader may be nil.
type Deps struct {
	Repo     *repository.Repository
	Locker   lock.Locker
	Uploader storage.Uploader
	Settings Settings
	Logger   *zap.Logger
	Now      func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) location() *time.Location {
	return d.Settings.loc()
}

func (s Settings) loc() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

// Usecases bundles every usecase for the HTTP layer and the scheduler.
type Usecases struct {
	Challenge  ChallengeUsecase
	Punch      PunchUsecase
	Session    SessionUsecase
	Aggregator AggregatorUsecase
	Report     ReportUsecase
	Admin      AdminUsecase
}

func NewUsecases(d Deps) *Usecases {
	challenge := NewChallengeUsecase(d)
	return &Usecases{
		Challenge:  challenge,
		Punch:      NewPunchUsecase(d, challenge),
		Session:    NewSessionUsecase(d),
		Aggregator: NewAggregatorUsecase(d),
		Report:     NewReportUsecase(d),
		Admin:      NewAdminUsecase(d),
	}
}

var validate = validator.New()

func init() {
	// Report json field names so messages match what the client sent.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
}

// validateRequest turns validator tag failures into an InvalidArgument
// naming the first offending field.
func validateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.Invalid(err.Error())
	}
	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return apperror.Invalid(fmt.Sprintf("%s is required", field))
	case "oneof":
		return apperror.Invalid(fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
	case "max":
		return apperror.Invalid(fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
	default:
		return apperror.Invalid(fmt.Sprintf("%s is invalid (%s)", field, fe.Tag()))
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
