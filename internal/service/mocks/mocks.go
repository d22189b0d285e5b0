package mocks

import (
	"context"
	"time"

	"dailyrise_engine/internal/model"
	"dailyrise_engine/internal/scheduler"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockChallengeRepository struct {
	mock.Mock
}

func (m *MockChallengeRepository) CreateChallenge(ctx context.Context, ch *model.Challenge) error {
	args := m.Called(ctx, ch)
	return args.Error(0)
}

func (m *MockChallengeRepository) GetChallengeByID(ctx context.Context, id uuid.UUID) (*model.Challenge, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Challenge), args.Error(1)
}

func (m *MockChallengeRepository) FindActiveBetween(ctx context.Context, userA, userB int64, habitID *int64) (*model.Challenge, error) {
	args := m.Called(ctx, userA, userB, habitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Challenge), args.Error(1)
}

func (m *MockChallengeRepository) ChallengesForUser(ctx context.Context, userID int64) ([]*model.Challenge, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Challenge), args.Error(1)
}

func (m *MockChallengeRepository) TransitionChallengeStatus(ctx context.Context, id uuid.UUID, from, to model.ChallengeStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockChallengeRepository) GetHabitByID(ctx context.Context, id int64) (*model.Habit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Habit), args.Error(1)
}

type MockPointsRepository struct {
	mock.Mock
}

func (m *MockPointsRepository) AwardPoints(ctx context.Context, userID, communityID int64, amount int, key string) error {
	args := m.Called(ctx, userID, communityID, amount, key)
	return args.Error(0)
}

func (m *MockPointsRepository) GetPointsForUser(ctx context.Context, userID int64) ([]*model.PointsEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PointsEntry), args.Error(1)
}

func (m *MockPointsRepository) GetLeaderboard(ctx context.Context, communityID int64, limit int) ([]*model.LeaderboardRow, error) {
	args := m.Called(ctx, communityID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.LeaderboardRow), args.Error(1)
}

type MockAccountabilityRepository struct {
	mock.Mock
}

func (m *MockAccountabilityRepository) ActiveChallengeByHabit(ctx context.Context, habitID, userID int64) (*model.Challenge, error) {
	args := m.Called(ctx, habitID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Challenge), args.Error(1)
}

func (m *MockAccountabilityRepository) CompleteAndAward(ctx context.Context, ch *model.Challenge, winnerID int64, at time.Time, counterpartID int64, amount int, counterpartKey string) error {
	args := m.Called(ctx, ch, winnerID, at, counterpartID, amount, counterpartKey)
	return args.Error(0)
}

type MockPointsService struct {
	mock.Mock
}

func (m *MockPointsService) Award(ctx context.Context, userID, communityID int64, amount int, key string) error {
	args := m.Called(ctx, userID, communityID, amount, key)
	return args.Error(0)
}

func (m *MockPointsService) Totals(ctx context.Context, userID int64) ([]*model.PointsEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PointsEntry), args.Error(1)
}

func (m *MockPointsService) Leaderboard(ctx context.Context, communityID int64, limit int) ([]*model.LeaderboardRow, error) {
	args := m.Called(ctx, communityID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.LeaderboardRow), args.Error(1)
}

type MockReminderStore struct {
	mock.Mock
}

func (m *MockReminderStore) Create(ctx context.Context, rem *model.Reminder) (int64, error) {
	args := m.Called(ctx, rem)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReminderStore) Get(ctx context.Context, id int64) (*model.Reminder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reminder), args.Error(1)
}

func (m *MockReminderStore) ListByUser(ctx context.Context, userID int64) ([]*model.Reminder, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Reminder), args.Error(1)
}

func (m *MockReminderStore) FindByHabit(ctx context.Context, userID, habitID int64) (*model.Reminder, error) {
	args := m.Called(ctx, userID, habitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reminder), args.Error(1)
}

func (m *MockReminderStore) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	args := m.Called(ctx, id, enabled)
	return args.Error(0)
}

func (m *MockReminderStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockAlarmScheduler struct {
	mock.Mock
}

func (m *MockAlarmScheduler) Arm(rem model.Reminder) error {
	args := m.Called(rem)
	return args.Error(0)
}

func (m *MockAlarmScheduler) Cancel(reminderID int64) {
	m.Called(reminderID)
}

func (m *MockAlarmScheduler) Claim(ctx context.Context, reminderID, actorID int64) (scheduler.Outcome, error) {
	args := m.Called(ctx, reminderID, actorID)
	return args.Get(0).(scheduler.Outcome), args.Error(1)
}

type MockReminderManager struct {
	mock.Mock
}

func (m *MockReminderManager) EnsureForHabit(ctx context.Context, userID int64, habit *model.Habit) error {
	args := m.Called(ctx, userID, habit)
	return args.Error(0)
}
