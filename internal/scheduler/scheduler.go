// Package scheduler runs the background jobs of the service: the nightly
// session aggregation (followed by the report mail) and the sweep of
// expired kiosk challenges.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"pdks-backend/config"
	"pdks-backend/internal/notify"
	"pdks-backend/internal/usecase"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

const jobTimeout = 30 * time.Minute

type Scheduler struct {
	cron       *gocron.Scheduler
	aggregator usecase.AggregatorUsecase
	challenge  usecase.ChallengeUsecase
	report     usecase.ReportUsecase
	mailer     notify.ReportSender
	logger     *zap.Logger
}

// New registers the jobs in loc. mailer may be nil to skip the report mail.
func New(cfg config.AggregatorConfig, loc *time.Location, uc *usecase.Usecases, mailer notify.ReportSender, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:       gocron.NewScheduler(loc),
		aggregator: uc.Aggregator,
		challenge:  uc.Challenge,
		report:     uc.Report,
		mailer:     mailer,
		logger:     logger,
	}
	// a slow run must never overlap the next one
	s.cron.SingletonModeAll()

	if cfg.Enabled {
		if _, err := s.cron.Every(1).Day().At(cfg.RunAt).Do(s.runDaily); err != nil {
			return nil, fmt.Errorf("schedule daily aggregation: %w", err)
		}
	}
	if cfg.CleanupInterval > 0 {
		if _, err := s.cron.Every(cfg.CleanupInterval).Do(s.runCleanup); err != nil {
			return nil, fmt.Errorf("schedule challenge cleanup: %w", err)
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.StartAsync()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.cron.Jobs())))
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) runDaily() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	s.DailyAggregation(ctx)
}

func (s *Scheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	s.CleanupChallenges(ctx)
}

// DailyAggregation finalizes yesterday and mails the session report. A
// partially failed run still mails what was finalized.
func (s *Scheduler) DailyAggregation(ctx context.Context) {
	result, err := s.aggregator.Run(ctx, "")
	if err != nil {
		s.logger.Error("scheduled aggregation failed", zap.Error(err))
	}
	if result == nil || s.mailer == nil {
		return
	}

	report, err := s.report.Sessions(ctx, result.Date, result.Date, usecase.FormatCSV)
	if err != nil {
		s.logger.Error("build daily report failed", zap.String("date", result.Date), zap.Error(err))
		return
	}
	if err := s.mailer.SendDailyReport(ctx, result.Date, result.Sessions, report.Body); err != nil {
		s.logger.Error("send daily report failed", zap.String("date", result.Date), zap.Error(err))
		return
	}
	s.logger.Info("daily report sent", zap.String("date", result.Date), zap.Int("sessions", result.Sessions))
}

func (s *Scheduler) CleanupChallenges(ctx context.Context) {
	n, err := s.challenge.CleanupExpired(ctx)
	if err != nil {
		s.logger.Warn("challenge cleanup failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Debug("expired challenges removed", zap.Int64("count", n))
	}
}
