package model

import (
	"fmt"
	"regexp"
	"time"
)

// ToneProfile names a fixed audible alert shape the alarm plays while an
// alarm window is open.
type ToneProfile string

const (
	ToneClassic ToneProfile = "classic"
	ToneChime   ToneProfile = "chime"
	TonePulse   ToneProfile = "pulse"
)

// Tone is the concrete sound emitted per beep.
type Tone struct {
	FrequencyHz float64
	Waveform    string
	Duration    time.Duration
}

var tones = map[ToneProfile]Tone{
	ToneClassic: {FrequencyHz: 800, Waveform: "square", Duration: 500 * time.Millisecond},
	ToneChime:   {FrequencyHz: 520, Waveform: "sine", Duration: 700 * time.Millisecond},
	TonePulse:   {FrequencyHz: 960, Waveform: "sawtooth", Duration: 300 * time.Millisecond},
}

func (p ToneProfile) Tone() Tone {
	if t, ok := tones[p]; ok {
		return t
	}
	return tones[ToneClassic]
}

// Reminder is a per-habit scheduled local trigger owned by one user.
// HabitName and CommunityID are denormalized snapshots taken at creation so
// a reminder stays renderable and a solo alarm claim keeps a ledger scope
// even if the habit is later edited.
type Reminder struct {
	ID          int64
	UserID      int64
	HabitID     int64
	HabitName   string
	CommunityID int64
	Time        string // wall clock "HH:MM", user-local
	Sound       ToneProfile
	Enabled     bool
	CreatedAt   time.Time
}

var timeRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

func (r *Reminder) Validate() error {
	if r.HabitID == 0 {
		return fmt.Errorf("reminder has no habit")
	}
	if !timeRe.MatchString(r.Time) {
		return fmt.Errorf("reminder time %q is not HH:MM", r.Time)
	}
	return nil
}

// Clock returns the reminder's wall-clock hour and minute.
// Callers must have validated the reminder first.
func (r *Reminder) Clock() (hour, minute int) {
	fmt.Sscanf(r.Time, "%d:%d", &hour, &minute)
	return hour, minute
}
