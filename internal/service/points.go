package service

import (
	"context"
	"sync"

	"dailyrise_engine/internal/model"
	"dailyrise_engine/internal/repository"
	"dailyrise_engine/pkg/apperr"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// PointsSignal tells an open view that a ledger total changed and its
// cached copy is stale. The ledger row stays the only source of truth;
// views re-read through it instead of mutating a local total.
type PointsSignal struct {
	UserID      int64 `json:"user_id"`
	CommunityID int64 `json:"community_id"`
}

type PointsService struct {
	repo PointsRepository
	log  *zap.Logger

	mu   sync.RWMutex
	subs map[int64]map[chan PointsSignal]struct{}
}

func NewPointsService(repo PointsRepository, log *zap.Logger) *PointsService {
	return &PointsService{
		repo: repo,
		log:  log,
		subs: make(map[int64]map[chan PointsSignal]struct{}),
	}
}

// Award applies one idempotency-keyed award and broadcasts an invalidation
// signal. A key that was already consumed is a silent no-op: duplicate
// change-feed deliveries and claim retries must never double-count.
func (s *PointsService) Award(ctx context.Context, userID, communityID int64, amount int, key string) error {
	err := s.repo.AwardPoints(ctx, userID, communityID, amount, key)
	if errors.Is(err, repository.ErrAlreadyAwarded) {
		s.log.Debug("award key already consumed", zap.String("award_key", key))
		return nil
	}
	if err != nil {
		return apperr.Transient("failed to award points", err)
	}

	s.publish(PointsSignal{UserID: userID, CommunityID: communityID})
	return nil
}

func (s *PointsService) Totals(ctx context.Context, userID int64) ([]*model.PointsEntry, error) {
	entries, err := s.repo.GetPointsForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Transient("failed to read points", err)
	}
	return entries, nil
}

func (s *PointsService) Leaderboard(ctx context.Context, communityID int64, limit int) ([]*model.LeaderboardRow, error) {
	board, err := s.repo.GetLeaderboard(ctx, communityID, limit)
	if err != nil {
		return nil, apperr.Transient("failed to read leaderboard", err)
	}
	return board, nil
}

// SubscribeInvalidations registers a view for award signals affecting
// userID. The returned cancel must be called when the view closes.
func (s *PointsService) SubscribeInvalidations(userID int64) (<-chan PointsSignal, func()) {
	ch := make(chan PointsSignal, 8)

	s.mu.Lock()
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[chan PointsSignal]struct{})
	}
	s.subs[userID][ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if set, ok := s.subs[userID]; ok {
			if _, open := set[ch]; open {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(s.subs, userID)
			}
		}
	}

	return ch, cancel
}

func (s *PointsService) publish(sig PointsSignal) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.subs[sig.UserID] {
		select {
		case ch <- sig:
		default:
		}
	}
}
