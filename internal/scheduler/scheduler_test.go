package scheduler_test

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/limbo/prayerbot/internal/scheduler"
	"github.com/limbo/prayerbot/pkg/dayclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu        sync.Mutex
	nudges    []int64
	followUps []int64
	fired     chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{fired: make(chan struct{}, 16)}
}

func (h *recordingHandler) NudgeFired(userID int64) {
	h.mu.Lock()
	h.nudges = append(h.nudges, userID)
	h.mu.Unlock()
	h.fired <- struct{}{}
}

func (h *recordingHandler) FollowUpFired(userID int64) {
	h.mu.Lock()
	h.followUps = append(h.followUps, userID)
	h.mu.Unlock()
	h.fired <- struct{}{}
}

func (h *recordingHandler) followUpCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.followUps)
}

func newScheduler(t *testing.T) (*scheduler.Scheduler, *recordingHandler) {
	t.Helper()
	clk, err := dayclock.New("Asia/Singapore")
	require.NoError(t, err)
	s := scheduler.New(clk, slog.Default())
	h := newRecordingHandler()
	s.SetHandler(h)
	t.Cleanup(s.Stop)
	return s, h
}

func TestAtMostOneNudgeEntry(t *testing.T) {
	s, _ := newScheduler(t)
	s.ScheduleDailyNudge(1, 10, 0)
	first, ok := s.NextFireAt(1, scheduler.KindNudge)
	require.True(t, ok)
	s.ScheduleDailyNudge(1, 11, 30)
	second, ok := s.NextFireAt(1, scheduler.KindNudge)
	require.True(t, ok)
	assert.Equal(t, 1, s.EntryCount(1, scheduler.KindNudge))
	assert.NotEqual(t, first, second)
	assert.Equal(t, 11, second.Hour())
	assert.Equal(t, 30, second.Minute())
}

func TestNudgeFireAtIsFuture(t *testing.T) {
	s, _ := newScheduler(t)
	s.ScheduleDailyNudge(1, 12, 0)
	fireAt, ok := s.NextFireAt(1, scheduler.KindNudge)
	require.True(t, ok)
	assert.True(t, fireAt.After(time.Now()))
	assert.True(t, fireAt.Before(time.Now().Add(24*time.Hour+time.Minute)))
}

func TestFollowUpFires(t *testing.T) {
	s, h := newScheduler(t)
	s.ScheduleFollowUp(7, 20*time.Millisecond)
	select {
	case <-h.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("follow-up never fired")
	}
	assert.Equal(t, []int64{7}, h.followUps)
	// Entry is cleared after firing.
	assert.Equal(t, 0, s.EntryCount(7, scheduler.KindFollowUp))
}

func TestFollowUpReplacedFiresOnce(t *testing.T) {
	s, h := newScheduler(t)
	s.ScheduleFollowUp(7, 60*time.Millisecond)
	s.ScheduleFollowUp(7, 20*time.Millisecond)
	assert.Equal(t, 1, s.EntryCount(7, scheduler.KindFollowUp))
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, 1, h.followUpCount())
}

func TestCancelSuppressesFire(t *testing.T) {
	s, h := newScheduler(t)
	s.ScheduleFollowUp(7, 40*time.Millisecond)
	s.Cancel(7, scheduler.KindFollowUp)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 0, h.followUpCount())
}

func TestCancelIsIdempotent(t *testing.T) {
	s, _ := newScheduler(t)
	// Never armed: must be a no-op, not an error.
	s.Cancel(99, scheduler.KindNudge)
	s.CancelAll(99)
	s.ScheduleDailyNudge(99, 10, 0)
	s.CancelAll(99)
	s.CancelAll(99)
	assert.Equal(t, 0, s.EntryCount(99, scheduler.KindNudge))
	assert.Equal(t, 0, s.EntryCount(99, scheduler.KindFollowUp))
}

func TestCancelAllClearsBothKinds(t *testing.T) {
	s, _ := newScheduler(t)
	s.ScheduleDailyNudge(5, 10, 0)
	s.ScheduleFollowUp(5, time.Hour)
	s.CancelAll(5)
	assert.Equal(t, 0, s.EntryCount(5, scheduler.KindNudge))
	assert.Equal(t, 0, s.EntryCount(5, scheduler.KindFollowUp))
}

func TestUsersAreIndependent(t *testing.T) {
	s, _ := newScheduler(t)
	s.ScheduleDailyNudge(1, 10, 0)
	s.ScheduleDailyNudge(2, 10, 0)
	s.CancelAll(1)
	assert.Equal(t, 0, s.EntryCount(1, scheduler.KindNudge))
	assert.Equal(t, 1, s.EntryCount(2, scheduler.KindNudge))
}

func TestStopRefusesNewWork(t *testing.T) {
	s, h := newScheduler(t)
	s.ScheduleFollowUp(1, 40*time.Millisecond)
	s.Stop()
	s.ScheduleFollowUp(2, 10*time.Millisecond)
	s.ScheduleDailyNudge(3, 10, 0)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 0, h.followUpCount())
	assert.Equal(t, 0, s.EntryCount(2, scheduler.KindFollowUp))
	assert.Equal(t, 0, s.EntryCount(3, scheduler.KindNudge))
}
