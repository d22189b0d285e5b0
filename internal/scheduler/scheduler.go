// Package scheduler owns per-reminder timed triggers and the alarm windows
// they open. One handle per armed reminder, one session per firing, no
// global timer state.
package scheduler

import (
	"context"
	"sync"
	"time"

	"dailyrise_engine/internal/model"
	"dailyrise_engine/pkg/apperr"

	"go.uber.org/zap"
)

const (
	DefaultCountdown = 60 * time.Second
	DefaultGrace     = 10 * time.Second

	// Audible alert cadence while a session is open. Must stay at or
	// under 2s.
	beepInterval = time.Second
)

// ReminderSource re-reads a reminder at fire time; arming snapshots can go
// stale while the timer sleeps.
type ReminderSource interface {
	Get(ctx context.Context, id int64) (*model.Reminder, error)
}

// Beeper emits one audible alert. Implementations must not block.
type Beeper interface {
	Beep(userID int64, tone model.Tone)
}

// Notifier dispatches an OS-level notification. Fire and forget:
// implementations swallow their own failures.
type Notifier interface {
	Notify(userID int64, title, body string)
}

// Resolver ties a settled session to points and challenge resolution.
type Resolver interface {
	Resolve(ctx context.Context, actorID int64, rem model.Reminder, sessionID string, isWin bool)
}

type handle struct {
	reminder    model.Reminder
	scheduledAt time.Time
	cancel      chan struct{}
	once        sync.Once
}

func (h *handle) stop() {
	h.once.Do(func() { close(h.cancel) })
}

type Scheduler struct {
	clock    Clock
	source   ReminderSource
	beeper   Beeper
	notifier Notifier
	resolver Resolver
	onEvent  func(AlarmEvent)
	log      *zap.Logger

	countdown time.Duration
	grace     time.Duration

	mu       sync.Mutex
	armed    map[int64]*handle
	sessions map[int64]*AlarmSession
}

type Option func(*Scheduler)

func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithCountdown(d time.Duration) Option {
	return func(s *Scheduler) { s.countdown = d }
}

func WithGrace(d time.Duration) Option {
	return func(s *Scheduler) { s.grace = d }
}

// WithEventSink registers a callback for alarm lifecycle events (fired,
// claimed, expired) so the API layer can push them to clients.
func WithEventSink(fn func(AlarmEvent)) Option {
	return func(s *Scheduler) { s.onEvent = fn }
}

func New(source ReminderSource, beeper Beeper, notifier Notifier, resolver Resolver, log *zap.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:     NewClock(),
		source:    source,
		beeper:    beeper,
		notifier:  notifier,
		resolver:  resolver,
		log:       log,
		countdown: DefaultCountdown,
		grace:     DefaultGrace,
		armed:     make(map[int64]*handle),
		sessions:  make(map[int64]*AlarmSession),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Arm schedules a single fire at the next occurrence of the reminder's
// time. Re-arming an already-armed reminder cancels the prior timer first.
func (s *Scheduler) Arm(rem model.Reminder) error {
	if err := rem.Validate(); err != nil {
		return apperr.Wrap(apperr.CodeValidation, "cannot arm reminder", err)
	}

	hour, minute := rem.Clock()
	now := s.clock.Now()
	at := nextOccurrence(now, hour, minute)

	h := &handle{
		reminder:    rem,
		scheduledAt: at,
		cancel:      make(chan struct{}),
	}

	s.mu.Lock()
	if prev, ok := s.armed[rem.ID]; ok {
		prev.stop()
	}
	s.armed[rem.ID] = h
	s.mu.Unlock()

	s.log.Debug("reminder armed",
		zap.Int64("reminder_id", rem.ID),
		zap.Time("fire_at", at))

	go s.wait(h, at.Sub(now))
	return nil
}

// Cancel drops the pending timer for a reminder. An alarm session that has
// already opened is not touched: alarms once fired run to claim-or-expiry.
func (s *Scheduler) Cancel(reminderID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.armed[reminderID]; ok {
		h.stop()
		delete(s.armed, reminderID)
	}
}

// Armed reports whether a timer is pending for the reminder.
func (s *Scheduler) Armed(reminderID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.armed[reminderID]
	return ok
}

// ActiveSession returns the open session for a reminder, if any.
func (s *Scheduler) ActiveSession(reminderID int64) *AlarmSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[reminderID]
}

func (s *Scheduler) wait(h *handle, delay time.Duration) {
	select {
	case <-h.cancel:
		return
	case <-s.clock.After(delay):
	}

	s.mu.Lock()
	if s.armed[h.reminder.ID] == h {
		delete(s.armed, h.reminder.ID)
	}
	s.mu.Unlock()

	s.fire(h)
}

func (s *Scheduler) fire(h *handle) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	rem, err := s.source.Get(ctx, h.reminder.ID)
	cancel()
	switch {
	case err != nil:
		// Deleted since arming, or the store hiccuped. Either way a
		// stale fire is worse than a missed one.
		s.log.Warn("reminder unavailable at fire time, skipping",
			zap.Int64("reminder_id", h.reminder.ID), zap.Error(err))
		return
	case !rem.Enabled:
		s.log.Debug("reminder disabled at fire time, skipping",
			zap.Int64("reminder_id", rem.ID))
		return
	}

	// A suspended process can wake long after the scheduled instant.
	// Within the grace window the alarm fires; past it we skip to the
	// next day rather than ring a stale alarm.
	late := s.clock.Now().Sub(h.scheduledAt)
	if late > s.grace {
		s.log.Info("fire instant too stale, re-arming for next occurrence",
			zap.Int64("reminder_id", rem.ID),
			zap.Duration("late_by", late))
		if err := s.Arm(*rem); err != nil {
			s.log.Error("failed to re-arm stale reminder", zap.Error(err))
		}
		return
	}

	s.openSession(*rem)
}

func (s *Scheduler) openSession(rem model.Reminder) {
	s.mu.Lock()
	if _, open := s.sessions[rem.ID]; open {
		// Never two overlapping windows for one reminder.
		s.mu.Unlock()
		return
	}
	sess := newAlarmSession(rem, s.clock.Now(), int(s.countdown/time.Second))
	s.sessions[rem.ID] = sess
	s.mu.Unlock()

	s.notifier.Notify(rem.UserID, "DailyRise", "Time to complete: "+rem.HabitName)
	s.emit(AlarmEvent{
		Type:            AlarmFired,
		SessionID:       sess.ID,
		ReminderID:      rem.ID,
		UserID:          rem.UserID,
		HabitID:         rem.HabitID,
		HabitName:       rem.HabitName,
		DurationSeconds: sess.DurationSeconds,
	})

	go s.runSession(sess)
}

func (s *Scheduler) runSession(sess *AlarmSession) {
	tone := sess.Reminder.Sound.Tone()
	s.beeper.Beep(sess.Reminder.UserID, tone)

	ticker := s.clock.NewTicker(beepInterval)
	defer ticker.Stop()
	deadline := s.clock.After(s.countdown)

	for {
		select {
		case <-sess.done:
			return
		case <-deadline:
			s.expire(sess)
			return
		case <-ticker.Chan():
			s.beeper.Beep(sess.Reminder.UserID, tone)
		}
	}
}

func (s *Scheduler) expire(sess *AlarmSession) {
	if !sess.settle(false) {
		return
	}
	s.dropSession(sess)

	s.log.Info("alarm window expired unclaimed",
		zap.Int64("reminder_id", sess.Reminder.ID),
		zap.String("outcome", OutcomeLoss.String()))
	s.emit(AlarmEvent{
		Type:       AlarmExpired,
		SessionID:  sess.ID,
		ReminderID: sess.Reminder.ID,
		UserID:     sess.Reminder.UserID,
		HabitID:    sess.Reminder.HabitID,
		HabitName:  sess.Reminder.HabitName,
	})

	s.resolver.Resolve(context.Background(), sess.Reminder.UserID, sess.Reminder, sess.ID.String(), false)
}

// Claim resolves the open alarm window for a reminder. Only the first claim
// wins; later calls report the session as already claimed and award nothing.
func (s *Scheduler) Claim(ctx context.Context, reminderID, actorID int64) (Outcome, error) {
	s.mu.Lock()
	sess := s.sessions[reminderID]
	s.mu.Unlock()

	if sess == nil {
		return OutcomeAlreadyClaimed, apperr.NotFound("no open alarm window for this reminder")
	}

	if !sess.settle(true) {
		return OutcomeAlreadyClaimed, nil
	}
	s.dropSession(sess)

	s.log.Info("alarm claimed",
		zap.Int64("reminder_id", reminderID),
		zap.Int64("actor_id", actorID),
		zap.String("outcome", OutcomeWin.String()))
	s.emit(AlarmEvent{
		Type:       AlarmClaimed,
		SessionID:  sess.ID,
		ReminderID: sess.Reminder.ID,
		UserID:     actorID,
		HabitID:    sess.Reminder.HabitID,
		HabitName:  sess.Reminder.HabitName,
	})

	s.resolver.Resolve(ctx, actorID, sess.Reminder, sess.ID.String(), true)
	return OutcomeWin, nil
}

func (s *Scheduler) dropSession(sess *AlarmSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[sess.Reminder.ID] == sess {
		delete(s.sessions, sess.Reminder.ID)
	}
}

func (s *Scheduler) emit(ev AlarmEvent) {
	if s.onEvent != nil {
		s.onEvent(ev)
	}
}
