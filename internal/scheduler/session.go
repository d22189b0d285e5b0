package scheduler

import (
	"sync"
	"time"

	"dailyrise_engine/internal/model"

	"github.com/google/uuid"
)

type Outcome int

const (
	OutcomeWin Outcome = iota
	OutcomeLoss
	OutcomeAlreadyClaimed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "WIN"
	case OutcomeLoss:
		return "LOSS"
	default:
		return "ALREADY_CLAIMED"
	}
}

// AlarmSession is the bounded claimable window opened when a reminder
// fires. Ephemeral: it lives only in scheduler memory and is destroyed on
// claim or expiry.
type AlarmSession struct {
	ID              uuid.UUID
	Reminder        model.Reminder
	StartedAt       time.Time
	DurationSeconds int

	mu      sync.Mutex
	claimed bool
	settled bool
	done    chan struct{}
}

func newAlarmSession(rem model.Reminder, startedAt time.Time, durationSeconds int) *AlarmSession {
	return &AlarmSession{
		ID:              uuid.New(),
		Reminder:        rem,
		StartedAt:       startedAt,
		DurationSeconds: durationSeconds,
		done:            make(chan struct{}),
	}
}

// settle ends the session exactly once. Only the first caller gets
// ok=true; everyone after sees the session as already resolved.
func (s *AlarmSession) settle(claimed bool) (ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settled {
		return false
	}
	s.settled = true
	s.claimed = claimed
	close(s.done)
	return true
}

func (s *AlarmSession) Claimed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claimed
}

type AlarmEventType string

const (
	AlarmFired   AlarmEventType = "alarm_fired"
	AlarmClaimed AlarmEventType = "alarm_claimed"
	AlarmExpired AlarmEventType = "alarm_expired"
)

// AlarmEvent is pushed to the owning user's session (websocket) so the
// client can render the countdown and the claim affordance.
type AlarmEvent struct {
	Type            AlarmEventType `json:"type"`
	SessionID       uuid.UUID      `json:"session_id"`
	ReminderID      int64          `json:"reminder_id"`
	UserID          int64          `json:"user_id"`
	HabitID         int64          `json:"habit_id"`
	HabitName       string         `json:"habit_name"`
	DurationSeconds int            `json:"duration_seconds,omitempty"`
}
