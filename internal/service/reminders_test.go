package service

import (
	"context"
	"testing"

	"dailyrise_engine/internal/model"
	"dailyrise_engine/internal/reminderstore"
	"dailyrise_engine/internal/service/mocks"
	"dailyrise_engine/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestReminderService_Create(t *testing.T) {
	habit := &model.Habit{ID: 7, UserID: 2, CommunityID: 5, Name: "Read 10 pages"}

	t.Run("valid reminder is stored and armed", func(t *testing.T) {
		store := &mocks.MockReminderStore{}
		sched := &mocks.MockAlarmScheduler{}
		svc := NewReminderService(store, sched, zap.NewNop())

		store.On("Create", mock.Anything, mock.MatchedBy(func(rem *model.Reminder) bool {
			return rem.UserID == 2 &&
				rem.HabitID == 7 &&
				rem.HabitName == "Read 10 pages" &&
				rem.CommunityID == 5 &&
				rem.Enabled
		})).Return(int64(11), nil)
		sched.On("Arm", mock.Anything).Return(nil)

		rem, err := svc.Create(context.Background(), 2, habit, "21:30", model.ToneChime)
		assert.NoError(t, err)
		assert.Equal(t, "21:30", rem.Time)

		store.AssertExpectations(t)
		sched.AssertExpectations(t)
	})

	t.Run("bad time is a validation error", func(t *testing.T) {
		svc := NewReminderService(&mocks.MockReminderStore{}, &mocks.MockAlarmScheduler{}, zap.NewNop())

		_, err := svc.Create(context.Background(), 2, habit, "25:99", model.ToneClassic)
		assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	})
}

func TestReminderService_EnsureForHabit(t *testing.T) {
	habit := &model.Habit{ID: 7, UserID: 2, CommunityID: 5, Name: "Read 10 pages"}

	t.Run("existing enabled reminder is reused and re-armed", func(t *testing.T) {
		store := &mocks.MockReminderStore{}
		sched := &mocks.MockAlarmScheduler{}
		svc := NewReminderService(store, sched, zap.NewNop())

		existing := &model.Reminder{ID: 11, UserID: 2, HabitID: 7, Time: "09:00", Enabled: true}
		store.On("FindByHabit", mock.Anything, int64(2), int64(7)).Return(existing, nil)
		sched.On("Arm", *existing).Return(nil)

		assert.NoError(t, svc.EnsureForHabit(context.Background(), 2, habit))
		store.AssertExpectations(t)
		sched.AssertExpectations(t)
	})

	t.Run("missing reminder is created with the default slot", func(t *testing.T) {
		store := &mocks.MockReminderStore{}
		sched := &mocks.MockAlarmScheduler{}
		svc := NewReminderService(store, sched, zap.NewNop())

		store.On("FindByHabit", mock.Anything, int64(2), int64(7)).
			Return(nil, reminderstore.ErrNotFound)
		store.On("Create", mock.Anything, mock.MatchedBy(func(rem *model.Reminder) bool {
			return rem.Time == defaultReminderTime && rem.Enabled
		})).Return(int64(12), nil)
		sched.On("Arm", mock.Anything).Return(nil)

		assert.NoError(t, svc.EnsureForHabit(context.Background(), 2, habit))
		store.AssertExpectations(t)
	})

	t.Run("disabled reminder stays disarmed", func(t *testing.T) {
		store := &mocks.MockReminderStore{}
		sched := &mocks.MockAlarmScheduler{}
		svc := NewReminderService(store, sched, zap.NewNop())

		existing := &model.Reminder{ID: 11, UserID: 2, HabitID: 7, Time: "09:00", Enabled: false}
		store.On("FindByHabit", mock.Anything, int64(2), int64(7)).Return(existing, nil)

		assert.NoError(t, svc.EnsureForHabit(context.Background(), 2, habit))
		sched.AssertNotCalled(t, "Arm", mock.Anything)
	})
}

func TestReminderService_SetEnabled(t *testing.T) {
	rem := &model.Reminder{ID: 11, UserID: 2, HabitID: 7, Time: "09:00", Enabled: true}

	t.Run("disable cancels the pending timer", func(t *testing.T) {
		store := &mocks.MockReminderStore{}
		sched := &mocks.MockAlarmScheduler{}
		svc := NewReminderService(store, sched, zap.NewNop())

		store.On("Get", mock.Anything, int64(11)).Return(rem, nil)
		store.On("SetEnabled", mock.Anything, int64(11), false).Return(nil)
		sched.On("Cancel", int64(11)).Return()

		assert.NoError(t, svc.SetEnabled(context.Background(), 2, 11, false))
		sched.AssertExpectations(t)
	})

	t.Run("only the owner may toggle", func(t *testing.T) {
		store := &mocks.MockReminderStore{}
		sched := &mocks.MockAlarmScheduler{}
		svc := NewReminderService(store, sched, zap.NewNop())

		store.On("Get", mock.Anything, int64(11)).Return(rem, nil)

		err := svc.SetEnabled(context.Background(), 99, 11, false)
		assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))
		sched.AssertNotCalled(t, "Cancel", mock.Anything)
	})
}
