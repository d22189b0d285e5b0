package service

import (
	"context"
	"fmt"
	"testing"

	"dailyrise_engine/internal/model"
	"dailyrise_engine/internal/repository"
	"dailyrise_engine/internal/service/mocks"
	"dailyrise_engine/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestAccountabilityService_Resolve(t *testing.T) {
	challengeID := uuid.New()
	rem := model.Reminder{
		ID:          11,
		UserID:      2,
		HabitID:     7,
		HabitName:   "Read 10 pages",
		CommunityID: 5,
		Time:        "09:00",
		Enabled:     true,
	}
	sessionID := "s-1"

	accepted := func() *model.Challenge {
		return &model.Challenge{
			ID:               challengeID,
			ChallengerID:     1,
			ChallengedUserID: 2,
			HabitID:          7,
			CommunityID:      5,
			Status:           model.ChallengeAccepted,
		}
	}

	tests := []struct {
		name      string
		actorID   int64
		isWin     bool
		mockSetup func(repo *mocks.MockAccountabilityRepository, points *mocks.MockPointsService)
	}{
		{
			name:    "loss moves nothing",
			actorID: 2,
			isWin:   false,
			mockSetup: func(repo *mocks.MockAccountabilityRepository, points *mocks.MockPointsService) {
				// No calls expected at all.
			},
		},
		{
			name:    "win completes challenge and awards both participants",
			actorID: 2,
			isWin:   true,
			mockSetup: func(repo *mocks.MockAccountabilityRepository, points *mocks.MockPointsService) {
				points.On("Award", mock.Anything, int64(2), int64(5), 10, "session:"+sessionID).
					Return(nil)
				repo.On("ActiveChallengeByHabit", mock.Anything, int64(7), int64(2)).
					Return(accepted(), nil)
				repo.On("CompleteAndAward", mock.Anything, mock.Anything, int64(2), mock.Anything,
					int64(1), 10, fmt.Sprintf("challenge:%s:%d", challengeID, 1)).
					Return(nil)
			},
		},
		{
			name:    "solo win awards only the actor",
			actorID: 2,
			isWin:   true,
			mockSetup: func(repo *mocks.MockAccountabilityRepository, points *mocks.MockPointsService) {
				points.On("Award", mock.Anything, int64(2), int64(5), 10, "session:"+sessionID).
					Return(nil)
				repo.On("ActiveChallengeByHabit", mock.Anything, int64(7), int64(2)).
					Return(nil, repository.ErrNotFound)
			},
		},
		{
			name:    "lost completion race keeps the actor's own points only",
			actorID: 1,
			isWin:   true,
			mockSetup: func(repo *mocks.MockAccountabilityRepository, points *mocks.MockPointsService) {
				points.On("Award", mock.Anything, int64(1), int64(5), 10, "session:"+sessionID).
					Return(nil)
				repo.On("ActiveChallengeByHabit", mock.Anything, int64(7), int64(1)).
					Return(accepted(), nil)
				repo.On("CompleteAndAward", mock.Anything, mock.Anything, int64(1), mock.Anything,
					int64(2), 10, fmt.Sprintf("challenge:%s:%d", challengeID, 2)).
					Return(repository.ErrStaleStatus)
			},
		},
		{
			name:    "actor award failure does not abort challenge resolution",
			actorID: 2,
			isWin:   true,
			mockSetup: func(repo *mocks.MockAccountabilityRepository, points *mocks.MockPointsService) {
				points.On("Award", mock.Anything, int64(2), int64(5), 10, "session:"+sessionID).
					Return(apperr.Validation("bad award"))
				repo.On("ActiveChallengeByHabit", mock.Anything, int64(7), int64(2)).
					Return(accepted(), nil)
				repo.On("CompleteAndAward", mock.Anything, mock.Anything, int64(2), mock.Anything,
					int64(1), 10, fmt.Sprintf("challenge:%s:%d", challengeID, 1)).
					Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mocks.MockAccountabilityRepository{}
			points := &mocks.MockPointsService{}
			svc := NewAccountabilityService(repo, points, 10, zap.NewNop())

			tt.mockSetup(repo, points)

			svc.Resolve(context.Background(), tt.actorID, rem, sessionID, tt.isWin)

			repo.AssertExpectations(t)
			points.AssertExpectations(t)
		})
	}
}

func TestAccountabilityService_RetriesTransientAwards(t *testing.T) {
	repo := &mocks.MockAccountabilityRepository{}
	points := &mocks.MockPointsService{}
	svc := NewAccountabilityService(repo, points, 10, zap.NewNop())

	rem := model.Reminder{ID: 11, UserID: 2, HabitID: 7, CommunityID: 5, Time: "09:00"}

	points.On("Award", mock.Anything, int64(2), int64(5), 10, "session:s-2").
		Return(apperr.Transient("store down", assert.AnError)).Twice()
	points.On("Award", mock.Anything, int64(2), int64(5), 10, "session:s-2").
		Return(nil).Once()
	repo.On("ActiveChallengeByHabit", mock.Anything, int64(7), int64(2)).
		Return(nil, repository.ErrNotFound)

	svc.Resolve(context.Background(), 2, rem, "s-2", true)

	points.AssertNumberOfCalls(t, "Award", 3)
	repo.AssertExpectations(t)
}
