package service

import (
	"context"
	"fmt"
	"time"

	"dailyrise_engine/internal/model"
	"dailyrise_engine/internal/repository"
	"dailyrise_engine/pkg/apperr"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultChallengeReward is the points both participants earn when a
// challenge completes. The product settled on 10; symmetric on purpose —
// the loser kept each other accountable too.
const DefaultChallengeReward = 10

const maxAwardRetries = 3

// AccountabilityService ties alarm outcomes to the points ledger and
// challenge resolution. One claimed alarm is one logical at-most-once
// operation: every write inside it is guarded by an idempotency key or a
// status CAS, so retries and cross-client races cannot double anything.
type AccountabilityService struct {
	repo   AccountabilityRepository
	points PointsServiceI
	reward int
	log    *zap.Logger
}

func NewAccountabilityService(repo AccountabilityRepository, points PointsServiceI, reward int, log *zap.Logger) *AccountabilityService {
	if reward <= 0 {
		reward = DefaultChallengeReward
	}
	return &AccountabilityService{
		repo:   repo,
		points: points,
		reward: reward,
		log:    log,
	}
}

// Resolve handles a settled alarm session. Loss: terminal, nothing moves.
// Win: award the actor, then resolve any accepted challenge on the habit
// and award the other participant. Steps after a failure are still
// attempted and applied side effects are never rolled back; an undo of an
// award is unsafe without a compensating transaction, so failures are
// logged for reconciliation instead.
func (s *AccountabilityService) Resolve(ctx context.Context, actorID int64, rem model.Reminder, sessionID string, isWin bool) {
	if !isWin {
		return
	}

	actorKey := "session:" + sessionID
	if err := s.awardWithRetry(ctx, actorID, rem.CommunityID, actorKey); err != nil {
		s.log.Error("actor award failed, flagged for reconciliation",
			zap.Int64("user_id", actorID),
			zap.String("award_key", actorKey),
			zap.Error(err))
	}

	ch, err := s.repo.ActiveChallengeByHabit(ctx, rem.HabitID, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Solo alarm, or the challenge was already resolved by
			// the other side. The actor's own points stand.
			return
		}
		s.log.Error("challenge lookup failed after alarm claim",
			zap.Int64("habit_id", rem.HabitID), zap.Error(err))
		return
	}

	opponent := ch.Opponent(actorID)
	opponentKey := fmt.Sprintf("challenge:%s:%d", ch.ID, opponent)

	err = s.repo.CompleteAndAward(ctx, ch, actorID, time.Now().UTC(), opponent, s.reward, opponentKey)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			// Lost the completion race. Already resolved elsewhere:
			// no error, no second completion, no extra award.
			s.log.Info("challenge already completed by the other participant",
				zap.String("challenge_id", ch.ID.String()))
			return
		}
		s.log.Error("challenge completion failed after points were awarded, flagged for reconciliation",
			zap.String("challenge_id", ch.ID.String()),
			zap.Error(err))
		return
	}

	s.log.Info("challenge resolved",
		zap.String("challenge_id", ch.ID.String()),
		zap.Int64("winner_id", actorID),
		zap.Int("reward", s.reward))
}

func (s *AccountabilityService) awardWithRetry(ctx context.Context, userID, communityID int64, key string) error {
	op := func() error {
		err := s.points.Award(ctx, userID, communityID, s.reward, key)
		if err == nil {
			return nil
		}
		if apperr.Is(err, apperr.CodeTransient) {
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxAwardRetries), ctx)
	return backoff.Retry(op, policy)
}
