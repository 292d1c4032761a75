// Package scheduler owns the in-memory reminder timers: one nudge and one
// follow-up entry at most per user. Entries are runtime-only; after a restart
// the service layer re-arms every user from the persisted reminder times.
package scheduler

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/limbo/prayerbot/pkg/dayclock"
)

type Kind int

const (
	KindNudge Kind = iota
	KindFollowUp
)

func (k Kind) String() string {
	if k == KindFollowUp {
		return "follow_up"
	}
	return "nudge"
}

// Handler receives timer firings. Implementations must re-read persisted
// state before sending anything: the timer may have lost a race against the
// user completing or cancelling.
type Handler interface {
	NudgeFired(userID int64)
	FollowUpFired(userID int64)
}

type key struct {
	userID int64
	kind   Kind
}

type entry struct {
	id     uuid.UUID
	fireAt time.Time
	hour   int
	minute int
	timer  *time.Timer
}

type Scheduler struct {
	mu      sync.Mutex
	entries map[key]*entry
	clock   *dayclock.Clock
	handler Handler
	logger  *slog.Logger
	stopped bool
}

func New(clock *dayclock.Clock, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		entries: make(map[key]*entry),
		clock:   clock,
		logger:  logger.With(slog.String("component", "scheduler")),
	}
}

// SetHandler wires the firing callbacks. Must be called before any Schedule
// call; split from New because the service and the scheduler reference each
// other.
func (s *Scheduler) SetHandler(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// ScheduleDailyNudge arms the user's nudge for the next occurrence of
// hour:minute, replacing any existing nudge entry. Each firing re-arms the
// next day's nudge before the handler runs, so the chain is self-perpetuating
// and a changed time-of-day takes effect on the very next cycle.
func (s *Scheduler) ScheduleDailyNudge(userID int64, hour, minute int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armNudgeLocked(userID, hour, minute)
}

func (s *Scheduler) armNudgeLocked(userID int64, hour, minute int) {
	if s.stopped {
		return
	}
	k := key{userID: userID, kind: KindNudge}
	s.cancelLocked(k)
	e := &entry{
		id:     uuid.New(),
		fireAt: s.clock.NextOccurrence(hour, minute),
		hour:   hour,
		minute: minute,
	}
	e.timer = time.AfterFunc(time.Until(e.fireAt), func() {
		s.fire(k, e.id)
	})
	s.entries[k] = e
	s.logger.Info("nudge armed",
		slog.Int64("user_id", userID),
		slog.Time("fire_at", e.fireAt),
	)
}

// ScheduleFollowUp arms a single one-shot follow-up, replacing any pending
// one. The entry is cleared whether or not it fires.
func (s *Scheduler) ScheduleFollowUp(userID int64, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	k := key{userID: userID, kind: KindFollowUp}
	s.cancelLocked(k)
	e := &entry{
		id:     uuid.New(),
		fireAt: s.clock.Now().Add(delay),
	}
	e.timer = time.AfterFunc(delay, func() {
		s.fire(k, e.id)
	})
	s.entries[k] = e
	s.logger.Info("follow-up armed",
		slog.Int64("user_id", userID),
		slog.Time("fire_at", e.fireAt),
	)
}

// fire runs on the timer goroutine. The entry id guards against a stale
// timer whose entry was replaced between firing and acquiring the lock.
func (s *Scheduler) fire(k key, id uuid.UUID) {
	s.mu.Lock()
	e, ok := s.entries[k]
	if !ok || e.id != id || s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.entries, k)
	handler := s.handler
	if k.kind == KindNudge {
		// Next cycle is armed before the handler observes the firing.
		s.armNudgeLocked(k.userID, e.hour, e.minute)
	}
	s.mu.Unlock()

	if handler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("timer handler panicked",
				slog.Int64("user_id", k.userID),
				slog.String("kind", k.kind.String()),
				slog.Any("panic", r),
			)
		}
	}()
	switch k.kind {
	case KindNudge:
		handler.NudgeFired(k.userID)
	case KindFollowUp:
		handler.FollowUpFired(k.userID)
	}
}

// Cancel invalidates the user's entry of the given kind. Safe to call on a
// never-armed or already-fired entry.
func (s *Scheduler) Cancel(userID int64, kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(key{userID: userID, kind: kind})
}

// CancelAll invalidates both the nudge and the follow-up entries of a user.
func (s *Scheduler) CancelAll(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(key{userID: userID, kind: KindNudge})
	s.cancelLocked(key{userID: userID, kind: KindFollowUp})
}

func (s *Scheduler) cancelLocked(k key) {
	if e, ok := s.entries[k]; ok {
		e.timer.Stop()
		delete(s.entries, k)
	}
}

// NextFireAt reports the pending deadline for (user, kind), if any.
func (s *Scheduler) NextFireAt(userID int64, kind Kind) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key{userID: userID, kind: kind}]
	if !ok {
		return time.Time{}, false
	}
	return e.fireAt, true
}

// EntryCount reports how many live entries a user has of the given kind.
// Either 0 or 1 by construction.
func (s *Scheduler) EntryCount(userID int64, kind Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key{userID: userID, kind: kind}]; ok {
		return 1
	}
	return 0
}

// Stop cancels every timer and refuses new arms. Registered as a cleanup job
// at shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for k, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, k)
	}
}
