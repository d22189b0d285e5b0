package api

import (
	"sync"

	"dailyrise_engine/internal/model"
	"dailyrise_engine/internal/scheduler"
	"dailyrise_engine/pkg/logger"
	"go.uber.org/zap"
)

// Envelope is the single frame shape every websocket push uses. Type tells
// the client which payload it is looking at.
type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// BeepPayload carries the tone the client should render for one audible
// alert while an alarm window is open.
type BeepPayload struct {
	FrequencyHz float64 `json:"frequency_hz"`
	Waveform    string  `json:"waveform"`
	DurationMS  int64   `json:"duration_ms"`
}

// PushHub fans scheduler-side events out to connected websocket sessions
// per user. It implements the scheduler's beeper and event sink so alarm
// activity reaches the browser without the scheduler knowing about
// websockets.
type PushHub struct {
	mu   sync.RWMutex
	subs map[int64]map[chan Envelope]struct{}
}

func NewPushHub() *PushHub {
	return &PushHub{subs: make(map[int64]map[chan Envelope]struct{})}
}

// Subscribe registers a session for pushes addressed to userID. The
// returned cancel must be called when the session closes.
func (h *PushHub) Subscribe(userID int64) (<-chan Envelope, func()) {
	ch := make(chan Envelope, 32)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan Envelope]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[userID]; ok {
			if _, open := set[ch]; open {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, userID)
			}
		}
	}

	return ch, cancel
}

func (h *PushHub) push(userID int64, env Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[userID] {
		select {
		case ch <- env:
		default:
			logger.Logger().Warn("dropping push for slow websocket session",
				zap.Int64("user_id", userID), zap.String("type", env.Type))
		}
	}
}

// Beep satisfies the scheduler's beeper.
func (h *PushHub) Beep(userID int64, tone model.Tone) {
	h.push(userID, Envelope{Type: "alarm_beep", Payload: BeepPayload{
		FrequencyHz: tone.FrequencyHz,
		Waveform:    tone.Waveform,
		DurationMS:  tone.Duration.Milliseconds(),
	}})
}

// AlarmSink adapts the hub to the scheduler's event callback.
func (h *PushHub) AlarmSink() func(scheduler.AlarmEvent) {
	return func(ev scheduler.AlarmEvent) {
		h.push(ev.UserID, Envelope{Type: string(ev.Type), Payload: ev})
	}
}
