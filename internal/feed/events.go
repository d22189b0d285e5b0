package feed

import (
	"dailyrise_engine/internal/model"

	"github.com/google/uuid"
)

type EventType string

const (
	EventChallengeReceived  EventType = "challenge_received"
	EventChallengeAccepted  EventType = "challenge_accepted"
	EventChallengeDeclined  EventType = "challenge_declined"
	EventChallengeCompleted EventType = "challenge_completed"
)

// Event is one normalized challenge state transition, ready to push to a
// client. The raw store feed is at-least-once; events that reach a
// Subscription have already been deduplicated.
type Event struct {
	Type             EventType             `json:"type"`
	ChallengeID      uuid.UUID             `json:"challenge_id"`
	ChallengerID     int64                 `json:"challenger_id"`
	ChallengedUserID int64                 `json:"challenged_user_id"`
	HabitID          int64                 `json:"habit_id"`
	CommunityID      int64                 `json:"community_id"`
	Status           model.ChallengeStatus `json:"status"`
	WinnerID         *int64                `json:"winner_id,omitempty"`
}

// payload mirrors the JSON emitted by the challenges notify trigger.
type payload struct {
	Op               string                `json:"op"`
	ID               uuid.UUID             `json:"id"`
	ChallengerID     int64                 `json:"challenger_id"`
	ChallengedUserID int64                 `json:"challenged_user_id"`
	HabitID          int64                 `json:"habit_id"`
	CommunityID      int64                 `json:"community_id"`
	Status           model.ChallengeStatus `json:"status"`
	WinnerID         *int64                `json:"winner_id"`
}

func eventTypeFor(status model.ChallengeStatus) (EventType, bool) {
	switch status {
	case model.ChallengePending:
		return EventChallengeReceived, true
	case model.ChallengeAccepted:
		return EventChallengeAccepted, true
	case model.ChallengeDeclined:
		return EventChallengeDeclined, true
	case model.ChallengeCompleted:
		return EventChallengeCompleted, true
	default:
		return "", false
	}
}

func (p payload) toEvent() (Event, bool) {
	t, ok := eventTypeFor(p.Status)
	if !ok {
		return Event{}, false
	}
	return Event{
		Type:             t,
		ChallengeID:      p.ID,
		ChallengerID:     p.ChallengerID,
		ChallengedUserID: p.ChallengedUserID,
		HabitID:          p.HabitID,
		CommunityID:      p.CommunityID,
		Status:           p.Status,
		WinnerID:         p.WinnerID,
	}, true
}
