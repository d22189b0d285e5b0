package model

import (
	"time"

	"github.com/google/uuid"
)

type ChallengeStatus string

const (
	ChallengePending   ChallengeStatus = "pending"
	ChallengeAccepted  ChallengeStatus = "accepted"
	ChallengeCompleted ChallengeStatus = "completed"
	ChallengeDeclined  ChallengeStatus = "declined"
)

// rank orders statuses along the lifecycle so feed consumers can drop
// redelivered or stale events: a transition is only applied when the
// incoming status ranks strictly higher than the last one seen.
var statusRank = map[ChallengeStatus]int{
	ChallengePending:   0,
	ChallengeAccepted:  1,
	ChallengeCompleted: 2,
	ChallengeDeclined:  2,
}

func (s ChallengeStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Terminal reports whether no further transition may leave s.
func (s ChallengeStatus) Terminal() bool {
	return s == ChallengeCompleted || s == ChallengeDeclined
}

// CanTransitionTo encodes the challenge lifecycle:
// pending -> accepted -> completed, pending -> declined.
// Nothing re-enters pending and nothing leaves a terminal status.
func (s ChallengeStatus) CanTransitionTo(next ChallengeStatus) bool {
	switch s {
	case ChallengePending:
		return next == ChallengeAccepted || next == ChallengeDeclined
	case ChallengeAccepted:
		return next == ChallengeCompleted
	default:
		return false
	}
}

// Advances reports whether next moves strictly forward from s. Used for
// at-least-once feed deliveries where re-applying the current status must
// be a no-op.
func (s ChallengeStatus) Advances(next ChallengeStatus) bool {
	return statusRank[next] > statusRank[s]
}

type Challenge struct {
	ID               uuid.UUID
	ChallengerID     int64
	ChallengedUserID int64
	HabitID          int64
	CommunityID      int64
	Status           ChallengeStatus
	CreatedAt        time.Time
	CompletedAt      *time.Time
	WinnerID         *int64
}

// Participant reports whether userID is one of the two sides of the challenge.
func (c *Challenge) Participant(userID int64) bool {
	return userID == c.ChallengerID || userID == c.ChallengedUserID
}

// Opponent returns the other participant. Callers must pass a participant.
func (c *Challenge) Opponent(userID int64) int64 {
	if userID == c.ChallengerID {
		return c.ChallengedUserID
	}
	return c.ChallengerID
}
