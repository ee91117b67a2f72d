package usecase

import (
	"context"
	"fmt"

	"pdks-backend/internal/attendance"
	"pdks-backend/internal/model"
	"pdks-backend/internal/repository"
)

// rebuildSession replays punches (one employee, one date) from scratch and
// fully replaces the stored session, returning the rules it applied. Must
// run inside a transaction holding the session lock.
func rebuildSession(ctx context.Context, tx *repository.Repository, s Settings, employeeID uint, date string, punches []model.Punch, finalize bool) (*model.Session, dayRules, []attendance.Skipped, error) {
	current, err := tx.Session.GetForUpdate(ctx, employeeID, date)
	if err != nil && !isNotFound(err) {
		return nil, dayRules{}, nil, err
	}

	session := &model.Session{EmployeeID: employeeID, Date: date}
	if current != nil {
		session.ID = current.ID
		session.LocationID = current.LocationID
		session.CreatedAt = current.CreatedAt
		session.Finalized = current.Finalized
	}
	if session.LocationID == "" {
		for _, p := range punches {
			if p.LocationID != "" {
				session.LocationID = p.LocationID
				break
			}
		}
	}

	rules, err := resolveDay(ctx, tx, s, employeeID, session.LocationID, date)
	if err != nil {
		return nil, dayRules{}, nil, err
	}

	state, skipped := attendance.Replay(enginePunches(punches, s.loc()), rules.Schedule, rules.Policy)
	writeState(session, state)
	if finalize {
		session.Finalized = true
	}
	if err := tx.Session.Save(ctx, session); err != nil {
		return nil, dayRules{}, nil, fmt.Errorf("save session %d/%s: %w", employeeID, date, err)
	}
	return session, rules, skipped, nil
}
