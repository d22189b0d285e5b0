package service

import (
	"context"
	"time"

	"dailyrise_engine/internal/model"
	"dailyrise_engine/internal/repository"
	"dailyrise_engine/pkg/apperr"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type ChallengeService struct {
	repo      ChallengeRepository
	reminders ReminderManager
	log       *zap.Logger
}

func NewChallengeService(repo ChallengeRepository, reminders ReminderManager, log *zap.Logger) *ChallengeService {
	return &ChallengeService{
		repo:      repo,
		reminders: reminders,
		log:       log,
	}
}

func (s *ChallengeService) Create(ctx context.Context, challengerID, challengedUserID, habitID int64) (*model.Challenge, error) {
	if challengerID == challengedUserID {
		return nil, apperr.Validation("cannot challenge yourself")
	}
	if habitID == 0 {
		return nil, apperr.Validation("no habit selected")
	}

	habit, err := s.repo.GetHabitByID(ctx, habitID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Validation("habit does not exist")
		}
		return nil, apperr.Transient("failed to look up habit", err)
	}
	if habit.UserID != challengerID {
		return nil, apperr.Validation("habit does not belong to challenger")
	}

	existing, err := s.repo.FindActiveBetween(ctx, challengerID, challengedUserID, &habitID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Transient("failed to check existing challenges", err)
	}
	if existing != nil && !existing.Status.Terminal() {
		return nil, apperr.Validation("a challenge for this habit already exists between these users")
	}

	ch := &model.Challenge{
		ID:               uuid.New(),
		ChallengerID:     challengerID,
		ChallengedUserID: challengedUserID,
		HabitID:          habitID,
		CommunityID:      habit.CommunityID,
		Status:           model.ChallengePending,
		CreatedAt:        time.Now().UTC(),
	}

	err = s.repo.CreateChallenge(ctx, ch)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateChallenge) {
			// Lost a creation race; the unique index is the authority.
			return nil, apperr.Validation("a challenge for this habit already exists between these users")
		}
		return nil, apperr.Transient("failed to create challenge", err)
	}

	return ch, nil
}

func (s *ChallengeService) Accept(ctx context.Context, id uuid.UUID, actorID int64) (*model.Challenge, error) {
	ch, err := s.transition(ctx, id, actorID, model.ChallengeAccepted)
	if err != nil {
		return nil, err
	}

	// Both participants get a reminder armed for the shared habit.
	// Reminder setup is best effort: the acceptance already committed.
	habit, err := s.repo.GetHabitByID(ctx, ch.HabitID)
	if err != nil {
		s.log.Warn("cannot load habit for reminder setup",
			zap.Int64("habit_id", ch.HabitID), zap.Error(err))
		return ch, nil
	}
	for _, userID := range []int64{ch.ChallengerID, ch.ChallengedUserID} {
		if err := s.reminders.EnsureForHabit(ctx, userID, habit); err != nil {
			s.log.Warn("failed to set up challenge reminder",
				zap.Int64("user_id", userID),
				zap.Int64("habit_id", habit.ID),
				zap.Error(err))
		}
	}

	return ch, nil
}

func (s *ChallengeService) Decline(ctx context.Context, id uuid.UUID, actorID int64) (*model.Challenge, error) {
	return s.transition(ctx, id, actorID, model.ChallengeDeclined)
}

// transition applies an accept/decline by the challenged user. The store
// write is a CAS on status; a stale client view surfaces as INVALID_STATE
// ("already responded to"), never as a silent overwrite.
func (s *ChallengeService) transition(ctx context.Context, id uuid.UUID, actorID int64, to model.ChallengeStatus) (*model.Challenge, error) {
	ch, err := s.repo.GetChallengeByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("challenge not found")
		}
		return nil, apperr.Transient("failed to load challenge", err)
	}

	if actorID != ch.ChallengedUserID {
		return nil, apperr.Unauthorized("only the challenged user may respond")
	}
	if !ch.Status.CanTransitionTo(to) {
		return nil, apperr.InvalidState("challenge was already responded to")
	}

	err = s.repo.TransitionChallengeStatus(ctx, id, model.ChallengePending, to)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, apperr.InvalidState("challenge was already responded to")
		}
		return nil, apperr.Transient("failed to update challenge", err)
	}

	ch.Status = to
	return ch, nil
}

func (s *ChallengeService) Get(ctx context.Context, id uuid.UUID, actorID int64) (*model.Challenge, error) {
	ch, err := s.repo.GetChallengeByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("challenge not found")
		}
		return nil, apperr.Transient("failed to load challenge", err)
	}
	if !ch.Participant(actorID) {
		return nil, apperr.Unauthorized("not a participant of this challenge")
	}
	return ch, nil
}

func (s *ChallengeService) ListForUser(ctx context.Context, userID int64) ([]*model.Challenge, error) {
	challenges, err := s.repo.ChallengesForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Transient("failed to list challenges", err)
	}
	return challenges, nil
}

func (s *ChallengeService) FindActiveBetween(ctx context.Context, userA, userB int64, habitID *int64) (*model.Challenge, error) {
	ch, err := s.repo.FindActiveBetween(ctx, userA, userB, habitID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("no challenge between these users")
		}
		return nil, apperr.Transient("failed to look up challenge", err)
	}
	return ch, nil
}
