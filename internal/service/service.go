package service

import (
	"context"
	"time"

	"dailyrise_engine/internal/model"
	"dailyrise_engine/internal/scheduler"

	"github.com/google/uuid"
)

type ChallengeServiceI interface {
	Create(ctx context.Context, challengerID, challengedUserID, habitID int64) (*model.Challenge, error)
	Accept(ctx context.Context, id uuid.UUID, actorID int64) (*model.Challenge, error)
	Decline(ctx context.Context, id uuid.UUID, actorID int64) (*model.Challenge, error)
	Get(ctx context.Context, id uuid.UUID, actorID int64) (*model.Challenge, error)
	ListForUser(ctx context.Context, userID int64) ([]*model.Challenge, error)
	FindActiveBetween(ctx context.Context, userA, userB int64, habitID *int64) (*model.Challenge, error)
}

type ChallengeRepository interface {
	CreateChallenge(ctx context.Context, ch *model.Challenge) error
	GetChallengeByID(ctx context.Context, id uuid.UUID) (*model.Challenge, error)
	FindActiveBetween(ctx context.Context, userA, userB int64, habitID *int64) (*model.Challenge, error)
	ChallengesForUser(ctx context.Context, userID int64) ([]*model.Challenge, error)
	TransitionChallengeStatus(ctx context.Context, id uuid.UUID, from, to model.ChallengeStatus) error
	GetHabitByID(ctx context.Context, id int64) (*model.Habit, error)
}

type PointsServiceI interface {
	Award(ctx context.Context, userID, communityID int64, amount int, key string) error
	Totals(ctx context.Context, userID int64) ([]*model.PointsEntry, error)
	Leaderboard(ctx context.Context, communityID int64, limit int) ([]*model.LeaderboardRow, error)
}

type PointsRepository interface {
	AwardPoints(ctx context.Context, userID, communityID int64, amount int, key string) error
	GetPointsForUser(ctx context.Context, userID int64) ([]*model.PointsEntry, error)
	GetLeaderboard(ctx context.Context, communityID int64, limit int) ([]*model.LeaderboardRow, error)
}

type AccountabilityRepository interface {
	ActiveChallengeByHabit(ctx context.Context, habitID, userID int64) (*model.Challenge, error)
	CompleteAndAward(ctx context.Context, ch *model.Challenge, winnerID int64, at time.Time, counterpartID int64, amount int, counterpartKey string) error
}

type ReminderServiceI interface {
	Create(ctx context.Context, userID int64, habit *model.Habit, timeOfDay string, sound model.ToneProfile) (*model.Reminder, error)
	List(ctx context.Context, userID int64) ([]*model.Reminder, error)
	SetEnabled(ctx context.Context, userID, id int64, enabled bool) error
	Delete(ctx context.Context, userID, id int64) error
	Claim(ctx context.Context, userID, id int64) (scheduler.Outcome, error)
	ArmAll(ctx context.Context, userID int64) error
}

type HabitRepository interface {
	GetHabitByID(ctx context.Context, id int64) (*model.Habit, error)
	GetHabitsByUser(ctx context.Context, userID int64) ([]*model.Habit, error)
	CreateHabit(ctx context.Context, habit *model.Habit) (int64, error)
}

type ReminderStore interface {
	Create(ctx context.Context, rem *model.Reminder) (int64, error)
	Get(ctx context.Context, id int64) (*model.Reminder, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Reminder, error)
	FindByHabit(ctx context.Context, userID, habitID int64) (*model.Reminder, error)
	SetEnabled(ctx context.Context, id int64, enabled bool) error
	Delete(ctx context.Context, id int64) error
}

type AlarmScheduler interface {
	Arm(rem model.Reminder) error
	Cancel(reminderID int64)
	Claim(ctx context.Context, reminderID, actorID int64) (scheduler.Outcome, error)
}

// ReminderManager is the slice of ReminderService the challenge flow needs:
// challenge acceptance creates or reuses a reminder for the shared habit.
type ReminderManager interface {
	EnsureForHabit(ctx context.Context, userID int64, habit *model.Habit) error
}
