package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pdks-backend/internal/apperror"
	"pdks-backend/internal/attendance"
	"pdks-backend/internal/lock"
	"pdks-backend/internal/metrics"
	"pdks-backend/internal/model"
	"pdks-backend/internal/repository"

	"go.uber.org/zap"
)

type AggregationResult struct {
	Date           string `json:"date"`
	Sessions       int    `json:"sessions"`
	SkippedPunches int    `json:"skipped_punches"`
	Failed         int    `json:"failed"`
}

// AggregatorUsecase rebuilds a closed day's sessions from its punches.
type AggregatorUsecase interface {
	// Run recomputes every session of date (yesterday when empty) and marks
	// them finalized. Re-running a date yields the same sessions. On partial
	// failure the result counts what was done and the error is Internal.
	Run(ctx context.Context, date string) (*AggregationResult, error)
	Yesterday() string
}

type aggregatorUsecase struct {
	Deps
}

func NewAggregatorUsecase(d Deps) AggregatorUsecase {
	return &aggregatorUsecase{Deps: d}
}

func (u *aggregatorUsecase) Yesterday() string {
	loc := u.location()
	return attendance.DateOf(u.now().In(loc).AddDate(0, 0, -1), loc)
}

func (u *aggregatorUsecase) Run(ctx context.Context, date string) (*AggregationResult, error) {
	started := time.Now()
	loc := u.location()
	if date == "" {
		date = u.Yesterday()
	}
	from, to, err := attendance.DayBounds(date, loc)
	if err != nil {
		return nil, apperror.Invalid(err.Error())
	}
	today := attendance.DateOf(u.now(), loc)
	if date >= today {
		return nil, apperror.Invalid(fmt.Sprintf("cannot aggregate %s: only days before %s are closed", date, today))
	}

	punches, err := u.Repo.Punch.ListBetween(ctx, from, to)
	if err != nil {
		metrics.AggregationRunsTotal.WithLabelValues("error").Inc()
		return nil, apperror.InternalErr(err)
	}

	byEmployee := make(map[uint][]model.Punch)
	for _, p := range punches {
		byEmployee[p.EmployeeID] = append(byEmployee[p.EmployeeID], p)
	}
	employees := make([]uint, 0, len(byEmployee))
	for id := range byEmployee {
		employees = append(employees, id)
	}
	sort.Slice(employees, func(i, j int) bool { return employees[i] < employees[j] })

	workers := u.Settings.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(employees) && len(employees) > 0 {
		workers = len(employees)
	}

	var (
		mu       sync.Mutex
		result   = &AggregationResult{Date: date}
		firstErr error
		wg       sync.WaitGroup
		jobs     = make(chan uint)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for employeeID := range jobs {
				skipped, err := u.rebuild(ctx, employeeID, date, byEmployee[employeeID])
				mu.Lock()
				if err != nil {
					result.Failed++
					if firstErr == nil {
						firstErr = err
					}
				} else {
					result.Sessions++
					result.SkippedPunches += skipped
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, id := range employees {
		select {
		case jobs <- id:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr == nil && ctx.Err() != nil {
		firstErr = ctx.Err()
	}

	metrics.AggregatedSessionsTotal.Add(float64(result.Sessions))
	metrics.AggregationDuration.Observe(time.Since(started).Seconds())

	fields := []zap.Field{
		zap.String("date", date),
		zap.Int("sessions", result.Sessions),
		zap.Int("skipped_punches", result.SkippedPunches),
		zap.Int("failed", result.Failed),
		zap.Duration("took", time.Since(started)),
	}
	if firstErr != nil {
		metrics.AggregationRunsTotal.WithLabelValues("error").Inc()
		u.Logger.Error("daily aggregation incomplete", append(fields, zap.Error(firstErr))...)
		return result, apperror.Wrap(apperror.Internal, fmt.Sprintf("aggregation of %s incomplete, run it again", date), firstErr)
	}
	metrics.AggregationRunsTotal.WithLabelValues("ok").Inc()
	u.Logger.Info("daily aggregation finished", fields...)
	return result, nil
}

// rebuild replaces one employee's session under the same lock live punches
// take, and returns how many punches the replay skipped.
func (u *aggregatorUsecase) rebuild(ctx context.Context, employeeID uint, date string, punches []model.Punch) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	unlock, err := u.Locker.Lock(ctx, lock.SessionKey(employeeID, date))
	if err != nil {
		return 0, err
	}
	defer unlock()

	var skipped []attendance.Skipped
	err = u.Repo.Tx.WithinTransaction(ctx, func(tx *repository.Repository) error {
		var err error
		_, _, skipped, err = rebuildSession(ctx, tx, u.Settings, employeeID, date, punches, true)
		return err
	})
	if err != nil {
		u.Logger.Error("rebuild session failed", zap.Uint("employee_id", employeeID), zap.String("date", date), zap.Error(err))
		return 0, err
	}
	for _, s := range skipped {
		u.Logger.Warn("punch skipped during aggregation",
			zap.String("punch_id", s.Punch.ID),
			zap.Uint("employee_id", employeeID),
			zap.String("type", string(s.Punch.Type)),
			zap.Error(s.Err),
		)
	}
	return len(skipped), nil
}
