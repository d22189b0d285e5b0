package service

import (
	"context"

	"dailyrise_engine/internal/model"
	"dailyrise_engine/internal/reminderstore"
	"dailyrise_engine/internal/scheduler"
	"dailyrise_engine/pkg/apperr"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Reminders created automatically on challenge acceptance default to the
// morning slot the product has always pre-filled.
const defaultReminderTime = "09:00"

type ReminderService struct {
	store ReminderStore
	sched AlarmScheduler
	log   *zap.Logger
}

func NewReminderService(store ReminderStore, sched AlarmScheduler, log *zap.Logger) *ReminderService {
	return &ReminderService{
		store: store,
		sched: sched,
		log:   log,
	}
}

func (s *ReminderService) Create(ctx context.Context, userID int64, habit *model.Habit, timeOfDay string, sound model.ToneProfile) (*model.Reminder, error) {
	rem := &model.Reminder{
		UserID:      userID,
		HabitID:     habit.ID,
		HabitName:   habit.Name,
		CommunityID: habit.CommunityID,
		Time:        timeOfDay,
		Sound:       sound,
		Enabled:     true,
	}
	if err := rem.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.CodeValidation, "invalid reminder", err)
	}

	if _, err := s.store.Create(ctx, rem); err != nil {
		return nil, apperr.Transient("failed to store reminder", err)
	}

	if err := s.sched.Arm(*rem); err != nil {
		return nil, err
	}

	return rem, nil
}

// EnsureForHabit creates (or reuses) the user's reminder for a habit and
// makes sure it is armed. Used on challenge acceptance.
func (s *ReminderService) EnsureForHabit(ctx context.Context, userID int64, habit *model.Habit) error {
	rem, err := s.store.FindByHabit(ctx, userID, habit.ID)
	if err != nil {
		if !errors.Is(err, reminderstore.ErrNotFound) {
			return apperr.Transient("failed to look up reminder", err)
		}
		created, cerr := s.Create(ctx, userID, habit, defaultReminderTime, model.ToneClassic)
		if cerr != nil {
			return cerr
		}
		rem = created
	}

	if rem.Enabled {
		return s.sched.Arm(*rem)
	}
	return nil
}

func (s *ReminderService) List(ctx context.Context, userID int64) ([]*model.Reminder, error) {
	reminders, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Transient("failed to list reminders", err)
	}
	return reminders, nil
}

func (s *ReminderService) get(ctx context.Context, userID, id int64) (*model.Reminder, error) {
	rem, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, reminderstore.ErrNotFound) {
			return nil, apperr.NotFound("reminder not found")
		}
		return nil, apperr.Transient("failed to load reminder", err)
	}
	if rem.UserID != userID {
		return nil, apperr.Unauthorized("reminder belongs to another user")
	}
	return rem, nil
}

// SetEnabled toggles a reminder. Disabling cancels the pending timer
// immediately; a session that already opened runs to claim-or-expiry.
func (s *ReminderService) SetEnabled(ctx context.Context, userID, id int64, enabled bool) error {
	rem, err := s.get(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.store.SetEnabled(ctx, id, enabled); err != nil {
		return apperr.Transient("failed to update reminder", err)
	}

	if enabled {
		rem.Enabled = true
		return s.sched.Arm(*rem)
	}
	s.sched.Cancel(id)
	return nil
}

func (s *ReminderService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.get(ctx, userID, id); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return apperr.Transient("failed to delete reminder", err)
	}

	s.sched.Cancel(id)
	return nil
}

// Claim forwards to the open alarm window for the reminder.
func (s *ReminderService) Claim(ctx context.Context, userID, id int64) (scheduler.Outcome, error) {
	if _, err := s.get(ctx, userID, id); err != nil {
		return scheduler.OutcomeAlreadyClaimed, err
	}
	return s.sched.Claim(ctx, id, userID)
}

// ArmAll loads a user's enabled reminders and arms them. Called when a
// session attaches so timers survive process restarts.
func (s *ReminderService) ArmAll(ctx context.Context, userID int64) error {
	reminders, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return apperr.Transient("failed to load reminders", err)
	}
	for _, rem := range reminders {
		if !rem.Enabled {
			continue
		}
		if err := s.sched.Arm(*rem); err != nil {
			s.log.Warn("failed to arm reminder",
				zap.Int64("reminder_id", rem.ID), zap.Error(err))
		}
	}
	return nil
}
