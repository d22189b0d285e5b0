package service

import (
	"context"
	"sync"
	"testing"

	"dailyrise_engine/internal/repository"
	"dailyrise_engine/internal/service/mocks"
	"dailyrise_engine/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestPointsService_Award(t *testing.T) {
	tests := []struct {
		name         string
		mockSetup    func(repo *mocks.MockPointsRepository)
		expectedCode apperr.Code
	}{
		{
			name: "successful award",
			mockSetup: func(repo *mocks.MockPointsRepository) {
				repo.On("AwardPoints", mock.Anything, int64(1), int64(5), 10, "session:abc").
					Return(nil)
			},
		},
		{
			name: "consumed key is a silent no-op",
			mockSetup: func(repo *mocks.MockPointsRepository) {
				repo.On("AwardPoints", mock.Anything, int64(1), int64(5), 10, "session:abc").
					Return(repository.ErrAlreadyAwarded)
			},
		},
		{
			name: "store failure is transient",
			mockSetup: func(repo *mocks.MockPointsRepository) {
				repo.On("AwardPoints", mock.Anything, int64(1), int64(5), 10, "session:abc").
					Return(assert.AnError)
			},
			expectedCode: apperr.CodeTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mocks.MockPointsRepository{}
			svc := NewPointsService(repo, zap.NewNop())

			tt.mockSetup(repo)

			err := svc.Award(context.Background(), 1, 5, 10, "session:abc")

			if tt.expectedCode != "" {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedCode, apperr.CodeOf(err))
			} else {
				assert.NoError(t, err)
			}

			repo.AssertExpectations(t)
		})
	}
}

// countingLedger increments like the real store: the addition happens at
// apply time, never from a value the caller read earlier.
type countingLedger struct {
	mu     sync.Mutex
	keys   map[string]struct{}
	totals map[[2]int64]int
}

func (l *countingLedger) AwardPoints(_ context.Context, userID, communityID int64, amount int, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.keys[key]; dup {
		return repository.ErrAlreadyAwarded
	}
	l.keys[key] = struct{}{}
	l.totals[[2]int64{userID, communityID}] += amount
	return nil
}

func TestPointsService_NoLostUpdatesUnderConcurrency(t *testing.T) {
	ledger := &countingLedger{
		keys:   make(map[string]struct{}),
		totals: make(map[[2]int64]int),
	}

	const workers = 32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := ledger.AwardPoints(context.Background(), 1, 5, 10, string(rune('a'+i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10*workers, ledger.totals[[2]int64{1, 5}])
}

func TestPointsService_DuplicateKeyAwardsOnce(t *testing.T) {
	ledger := &countingLedger{
		keys:   make(map[string]struct{}),
		totals: make(map[[2]int64]int),
	}

	const retries = 16
	var wg sync.WaitGroup
	for i := 0; i < retries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ledger.AwardPoints(context.Background(), 1, 5, 10, "challenge:x:1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ledger.totals[[2]int64{1, 5}])
}

func TestPointsService_InvalidationSignal(t *testing.T) {
	repo := &mocks.MockPointsRepository{}
	repo.On("AwardPoints", mock.Anything, int64(1), int64(5), 10, "session:sig").Return(nil)
	svc := NewPointsService(repo, zap.NewNop())

	ch, cancel := svc.SubscribeInvalidations(1)
	defer cancel()

	err := svc.Award(context.Background(), 1, 5, 10, "session:sig")
	assert.NoError(t, err)

	select {
	case sig := <-ch:
		assert.Equal(t, int64(1), sig.UserID)
		assert.Equal(t, int64(5), sig.CommunityID)
	default:
		t.Fatal("expected an invalidation signal after award")
	}
}
