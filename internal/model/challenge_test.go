package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChallengeStatusTransitions(t *testing.T) {
	testCases := []struct {
		from, to ChallengeStatus
		allowed  bool
	}{
		{ChallengePending, ChallengeAccepted, true},
		{ChallengePending, ChallengeDeclined, true},
		{ChallengePending, ChallengeCompleted, false},
		{ChallengePending, ChallengePending, false},
		{ChallengeAccepted, ChallengeCompleted, true},
		{ChallengeAccepted, ChallengeDeclined, false},
		{ChallengeAccepted, ChallengePending, false},
		{ChallengeCompleted, ChallengeAccepted, false},
		{ChallengeCompleted, ChallengePending, false},
		{ChallengeDeclined, ChallengeAccepted, false},
		{ChallengeDeclined, ChallengeCompleted, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestChallengeStatusTerminal(t *testing.T) {
	assert.False(t, ChallengePending.Terminal())
	assert.False(t, ChallengeAccepted.Terminal())
	assert.True(t, ChallengeCompleted.Terminal())
	assert.True(t, ChallengeDeclined.Terminal())
}

func TestChallengeStatusAdvances(t *testing.T) {
	assert.True(t, ChallengePending.Advances(ChallengeAccepted))
	assert.True(t, ChallengeAccepted.Advances(ChallengeCompleted))
	assert.False(t, ChallengeAccepted.Advances(ChallengeAccepted))
	assert.False(t, ChallengeAccepted.Advances(ChallengePending))
	assert.False(t, ChallengeCompleted.Advances(ChallengeDeclined))
}

func TestChallengeParticipants(t *testing.T) {
	c := &Challenge{ChallengerID: 1, ChallengedUserID: 2}

	assert.True(t, c.Participant(1))
	assert.True(t, c.Participant(2))
	assert.False(t, c.Participant(3))

	assert.Equal(t, int64(2), c.Opponent(1))
	assert.Equal(t, int64(1), c.Opponent(2))
}

func TestReminderValidate(t *testing.T) {
	testCases := []struct {
		name    string
		rem     Reminder
		wantErr bool
	}{
		{name: "valid", rem: Reminder{HabitID: 1, Time: "07:30"}},
		{name: "midnight", rem: Reminder{HabitID: 1, Time: "00:00"}},
		{name: "last minute of day", rem: Reminder{HabitID: 1, Time: "23:59"}},
		{name: "bad hour", rem: Reminder{HabitID: 1, Time: "24:00"}, wantErr: true},
		{name: "bad minute", rem: Reminder{HabitID: 1, Time: "12:60"}, wantErr: true},
		{name: "missing zero pad", rem: Reminder{HabitID: 1, Time: "7:30"}, wantErr: true},
		{name: "not a time", rem: Reminder{HabitID: 1, Time: "soonish"}, wantErr: true},
		{name: "no habit", rem: Reminder{Time: "07:30"}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rem.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestToneProfileFallsBackToClassic(t *testing.T) {
	assert.Equal(t, ToneClassic.Tone(), ToneProfile("kazoo").Tone())
	assert.NotEqual(t, ToneClassic.Tone(), TonePulse.Tone())
}
