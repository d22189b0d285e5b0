// Package feed delivers challenge row changes to interested sessions. The
// subscription-of-record is a single Postgres LISTEN connection fed by a
// notify trigger on the challenges table; interval polling exists only as a
// fallback while that connection is down, and both paths go through the same
// normalizer so overlap never produces duplicate events.
package feed

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"dailyrise_engine/internal/model"

	"github.com/goccy/go-json"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	channelName = "challenge_events"

	minReconnectInterval = 2 * time.Second
	maxReconnectInterval = time.Minute
)

// ChallengeSource backs the polling fallback.
type ChallengeSource interface {
	ChallengesUpdatedSince(ctx context.Context, userID int64, since time.Time) ([]*model.Challenge, error)
}

type Subscription struct {
	UserID int64
	C      chan Event

	cancel func()
	once   sync.Once
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

type Subscriber struct {
	listener *pq.Listener
	source   ChallengeSource
	norm     *normalizer
	log      *zap.Logger

	pollEvery time.Duration
	lastPoll  time.Time

	// healthy flips to 0 when the listener loses its connection; the run
	// loop then polls until pq reconnects.
	healthy atomic.Bool

	mu   sync.RWMutex
	subs map[int64]map[*Subscription]struct{}
}

func New(connStr string, source ChallengeSource, pollEvery time.Duration, log *zap.Logger) *Subscriber {
	s := &Subscriber{
		source:    source,
		norm:      newNormalizer(),
		log:       log,
		pollEvery: pollEvery,
		lastPoll:  time.Now().UTC(),
		subs:      make(map[int64]map[*Subscription]struct{}),
	}
	s.healthy.Store(true)

	s.listener = pq.NewListener(connStr, minReconnectInterval, maxReconnectInterval,
		func(ev pq.ListenerEventType, err error) {
			switch ev {
			case pq.ListenerEventConnected, pq.ListenerEventReconnected:
				s.healthy.Store(true)
				log.Info("change feed listener connected")
			case pq.ListenerEventDisconnected, pq.ListenerEventConnectionAttemptFailed:
				s.healthy.Store(false)
				log.Warn("change feed listener down, polling fallback active", zap.Error(err))
			}
		})

	return s
}

func (s *Subscriber) Start(ctx context.Context) error {
	if err := s.listener.Listen(channelName); err != nil {
		return err
	}
	go s.run(ctx)
	return nil
}

func (s *Subscriber) run(ctx context.Context) {
	ticker := time.NewTicker(s.pollEvery)
	defer ticker.Stop()
	defer s.listener.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case n := <-s.listener.Notify:
			// pq delivers a nil notification after a reconnect; the
			// poll tick covers whatever was missed in between.
			if n == nil {
				continue
			}
			s.handleRaw([]byte(n.Extra))

		case <-ticker.C:
			if s.healthy.Load() {
				s.lastPoll = time.Now().UTC()
				if err := s.listener.Ping(); err != nil {
					s.log.Warn("change feed ping failed", zap.Error(err))
				}
				continue
			}
			s.pollOnce(ctx)
		}
	}
}

func (s *Subscriber) handleRaw(raw []byte) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		s.log.Warn("dropping malformed feed payload", zap.Error(err))
		return
	}
	s.dispatch(p)
}

// pollOnce re-queries recent challenges for every subscribed user and feeds
// them through the normalizer, bounded by the last poll cursor.
func (s *Subscriber) pollOnce(ctx context.Context) {
	since := s.lastPoll
	s.lastPoll = time.Now().UTC()

	s.mu.RLock()
	users := make([]int64, 0, len(s.subs))
	for userID := range s.subs {
		users = append(users, userID)
	}
	s.mu.RUnlock()

	for _, userID := range users {
		challenges, err := s.source.ChallengesUpdatedSince(ctx, userID, since)
		if err != nil {
			s.log.Warn("feed polling fallback query failed",
				zap.Int64("user_id", userID), zap.Error(err))
			continue
		}
		for _, ch := range challenges {
			s.dispatch(payload{
				Op:               "POLL",
				ID:               ch.ID,
				ChallengerID:     ch.ChallengerID,
				ChallengedUserID: ch.ChallengedUserID,
				HabitID:          ch.HabitID,
				CommunityID:      ch.CommunityID,
				Status:           ch.Status,
				WinnerID:         ch.WinnerID,
			})
		}
	}
}

func (s *Subscriber) dispatch(p payload) {
	event, ok := s.norm.apply(p)
	if !ok {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, userID := range []int64{event.ChallengerID, event.ChallengedUserID} {
		for sub := range s.subs[userID] {
			select {
			case sub.C <- event:
			default:
				// Slow consumer; it will catch up from a state refetch.
				s.log.Warn("dropping feed event for slow subscriber",
					zap.Int64("user_id", userID))
			}
		}
	}
}

// Subscribe registers a session for challenge events involving userID.
func (s *Subscriber) Subscribe(userID int64) *Subscription {
	sub := &Subscription{
		UserID: userID,
		C:      make(chan Event, 16),
	}
	sub.cancel = func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if set, ok := s.subs[userID]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(s.subs, userID)
			}
		}
		close(sub.C)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[*Subscription]struct{})
	}
	s.subs[userID][sub] = struct{}{}

	return sub
}
