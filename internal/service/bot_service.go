package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"sync"
	"time"

	errorvalues "github.com/limbo/prayerbot/internal/error_values"
	"github.com/limbo/prayerbot/internal/messages"
	"github.com/limbo/prayerbot/internal/repository"
	"github.com/limbo/prayerbot/internal/scheduler"
	"github.com/limbo/prayerbot/internal/session"
	"github.com/limbo/prayerbot/internal/streak"
	"github.com/limbo/prayerbot/pkg/dayclock"
	"github.com/limbo/prayerbot/pkg/entity"
)

const (
	followUpDelay = time.Hour
	eventTimeout  = time.Second * 10
)

// BotService routes every inbound event and timer firing. All mutations of a
// single user's record, session and timers are serialized behind that user's
// mutex; different users proceed in parallel.
type BotService struct {
	users    repository.UsersRepositoryI
	revs     repository.RevelationsRepositoryI
	cipher   CipherI
	sched    SchedulerI
	notifier NotifierI
	clock    *dayclock.Clock
	sessions *session.Manager
	logger   *slog.Logger
	locks    sync.Map
}

func NewBotService(
	users repository.UsersRepositoryI,
	revs repository.RevelationsRepositoryI,
	cipher CipherI,
	sched SchedulerI,
	notifier NotifierI,
	clock *dayclock.Clock,
	logger *slog.Logger,
) *BotService {
	if users == nil || revs == nil || cipher == nil || sched == nil || notifier == nil || clock == nil {
		log.Fatal("on bot service provided nil dependencies")
	}
	return &BotService{
		users:    users,
		revs:     revs,
		cipher:   cipher,
		sched:    sched,
		notifier: notifier,
		clock:    clock,
		sessions: session.NewManager(),
		logger:   logger.With(slog.String("component", "bot_service")),
	}
}

func (bs *BotService) lockUser(userID int64) func() {
	v, _ := bs.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// send delivers best-effort. Failures are logged at this boundary and never
// propagate; the next scheduled cycle is the de-facto retry.
func (bs *BotService) send(ctx context.Context, userID int64, text string, kb entity.Keyboard) {
	if err := bs.notifier.Send(ctx, userID, text, kb); err != nil {
		bs.logger.Error("notification delivery failed",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

func (bs *BotService) HandleStart(ctx context.Context, ev entity.TextEvent) {
	unlock := bs.lockUser(ev.UserID)
	defer unlock()
	if err := bs.users.Ensure(ctx, ev.UserID, ev.Name); err != nil {
		bs.logger.Error("ensuring user error", slog.Int64("user_id", ev.UserID), slog.String("error", err.Error()))
		bs.send(ctx, ev.UserID, messages.GenericFailure, nil)
		return
	}
	bs.send(ctx, ev.UserID, fmt.Sprintf("Hello %s! 🙌\nI'm ZN3 PrayerBot.\nLet's grow together in our commitment and faith 🙏👋", ev.Name), nil)
	bs.sendMenu(ctx, ev.UserID)
}

func (bs *BotService) HandleButton(ctx context.Context, ev entity.ButtonEvent) {
	unlock := bs.lockUser(ev.UserID)
	defer unlock()
	logger := bs.logger.With(slog.Int64("user_id", ev.UserID), slog.String("action", ev.Data))
	if err := bs.users.Ensure(ctx, ev.UserID, ev.Name); err != nil {
		logger.Error("ensuring user error", slog.String("error", err.Error()))
		bs.send(ctx, ev.UserID, messages.GenericFailure, nil)
		return
	}
	switch {
	case ev.Data == messages.ActionMarkDone:
		bs.markDone(ctx, ev.UserID, ev.Name, logger)
	case ev.Data == messages.ActionSetReminder:
		bs.sessions.Set(ev.UserID, session.AwaitingReminderTimeInput)
		bs.send(ctx, ev.UserID, messages.ReminderPrompt, messages.BackKeyboard())
	case ev.Data == messages.ActionCancelToday:
		bs.cancelToday(ctx, ev.UserID, logger)
	case ev.Data == messages.ActionHistory:
		bs.sendHistory(ctx, ev.UserID, bs.clock.Today()[:7], logger)
	case strings.HasPrefix(ev.Data, messages.ActionHistoryPrefix):
		month := strings.TrimPrefix(ev.Data, messages.ActionHistoryPrefix)
		if _, err := time.Parse("2006-01", month); err != nil {
			logger.Error("bad history month token")
			bs.sendMenu(ctx, ev.UserID)
			return
		}
		bs.sendHistory(ctx, ev.UserID, month, logger)
	case ev.Data == messages.ActionLeaderboard:
		bs.sendLeaderboard(ctx, ev.UserID, logger)
	case ev.Data == messages.ActionBackToMenu:
		bs.sessions.Reset(ev.UserID)
		bs.sendMenu(ctx, ev.UserID)
	default:
		logger.Warn("unknown action token")
		bs.send(ctx, ev.UserID, messages.ChooseOption, messages.MainMenuKeyboard())
	}
}

func (bs *BotService) HandleText(ctx context.Context, ev entity.TextEvent) {
	unlock := bs.lockUser(ev.UserID)
	defer unlock()
	logger := bs.logger.With(slog.Int64("user_id", ev.UserID))
	if err := bs.users.Ensure(ctx, ev.UserID, ev.Name); err != nil {
		logger.Error("ensuring user error", slog.String("error", err.Error()))
		bs.send(ctx, ev.UserID, messages.GenericFailure, nil)
		return
	}
	switch bs.sessions.Get(ev.UserID) {
	case session.AwaitingRevelationText:
		bs.saveRevelation(ctx, ev.UserID, ev.Text, logger)
	case session.AwaitingReminderTimeInput:
		bs.applyReminderTime(ctx, ev.UserID, ev.Text, logger)
	default:
		bs.send(ctx, ev.UserID, messages.ChooseOption, messages.MainMenuKeyboard())
	}
}

func (bs *BotService) markDone(ctx context.Context, userID int64, name string, logger *slog.Logger) {
	user, err := bs.users.Get(ctx, userID)
	if err != nil {
		logger.Error("reading user error", slog.String("error", err.Error()))
		bs.send(ctx, userID, messages.GenericFailure, nil)
		return
	}
	today, yesterday := bs.clock.Today(), bs.clock.Yesterday()
	alreadyDone := user.LastDay == today
	user.Name = name
	updated := streak.RecordCompletion(*user, today, yesterday)
	if err := bs.users.UpdateStreak(ctx, &updated); err != nil {
		logger.Error("persisting streak error", slog.String("error", err.Error()))
		bs.send(ctx, userID, messages.GenericFailure, nil)
		return
	}
	// Completion settles today's reminders; the rollover job re-arms the
	// nudge chain for tomorrow.
	bs.sched.CancelAll(userID)
	bs.sessions.Set(userID, session.AwaitingRevelationText)

	prompt := messages.RevelationPrompt
	if !alreadyDone {
		if milestone, ok := streak.MilestoneMessage(updated.CurrentStreak); ok {
			prompt = milestone + "\n\n" + prompt
		}
	}
	bs.send(ctx, userID, prompt, messages.BackKeyboard())
	logger.Info("completion recorded",
		slog.Int("current_streak", updated.CurrentStreak),
		slog.Bool("repeat", alreadyDone),
	)
}

func (bs *BotService) saveRevelation(ctx context.Context, userID int64, text string, logger *slog.Logger) {
	ciphertext, err := bs.cipher.Encrypt(text)
	if err != nil {
		logger.Error("encrypting revelation error", slog.String("error", err.Error()))
		bs.send(ctx, userID, messages.GenericFailure, nil)
		return
	}
	if err := bs.revs.Append(ctx, userID, bs.clock.Today(), ciphertext); err != nil {
		logger.Error("appending revelation error", slog.String("error", err.Error()))
		bs.send(ctx, userID, messages.GenericFailure, nil)
		return
	}
	bs.sessions.Reset(userID)
	body := messages.RevelationSaved
	if user, err := bs.users.Get(ctx, userID); err == nil {
		body += "\n" + streak.Summary(user)
	}
	bs.send(ctx, userID, body, messages.MainMenuKeyboard())
	logger.Info("revelation saved")
}

func (bs *BotService) applyReminderTime(ctx context.Context, userID int64, text string, logger *slog.Logger) {
	hour, minute, err := ParseReminderTime(text)
	if err != nil {
		// The user stays in the awaiting state and may retry indefinitely.
		switch {
		case errors.Is(err, errorvalues.ErrTimePastCutoff):
			bs.send(ctx, userID, "⚠️ Reminder must be before 23:30.", nil)
		default:
			bs.send(ctx, userID, "❌ Invalid format. Use HH:MM (e.g., 08:00 or 21:15).", nil)
		}
		return
	}
	if err := bs.users.SetReminderTime(ctx, userID, hour, minute); err != nil {
		logger.Error("persisting reminder time error", slog.String("error", err.Error()))
		bs.send(ctx, userID, messages.GenericFailure, nil)
		return
	}
	// Cancel-then-arm: the next fire is computed fresh from the new time.
	bs.sched.ScheduleDailyNudge(userID, hour, minute)
	bs.sessions.Reset(userID)
	bs.send(ctx, userID, fmt.Sprintf("✅ Reminder set for %02d:%02d daily.", hour, minute), messages.BackKeyboard())
	logger.Info("reminder time updated", slog.Int("hour", hour), slog.Int("minute", minute))
}

func (bs *BotService) cancelToday(ctx context.Context, userID int64, logger *slog.Logger) {
	today := bs.clock.Today()
	if err := bs.users.SetCancelledDay(ctx, userID, today); err != nil {
		logger.Error("persisting cancellation error", slog.String("error", err.Error()))
		bs.send(ctx, userID, messages.GenericFailure, nil)
		return
	}
	// The armed nudge stays in place: it suppresses itself on fire and still
	// re-arms for tomorrow. Only the pending follow-up dies here.
	bs.sched.Cancel(userID, scheduler.KindFollowUp)
	bs.send(ctx, userID, messages.CancelledToday, messages.MainMenuKeyboard())
	logger.Info("reminders cancelled for today")
}

func (bs *BotService) sendMenu(ctx context.Context, userID int64) {
	user, err := bs.users.Get(ctx, userID)
	if err != nil {
		bs.logger.Error("reading user error", slog.Int64("user_id", userID), slog.String("error", err.Error()))
		bs.send(ctx, userID, messages.GenericFailure, nil)
		return
	}
	bs.send(ctx, userID, "🙏 Welcome back!\n"+streak.Summary(user), messages.MainMenuKeyboard())
}

func (bs *BotService) sendHistory(ctx context.Context, userID int64, month string, logger *slog.Logger) {
	revs, err := bs.revs.ListByUserMonth(ctx, userID, month)
	if err != nil {
		logger.Error("listing revelations error", slog.String("error", err.Error()))
		bs.send(ctx, userID, messages.GenericFailure, nil)
		return
	}
	var body string
	if len(revs) == 0 {
		body = messages.NoRevelations
	} else {
		lines := make([]string, 0, len(revs))
		for _, r := range revs {
			text, err := bs.cipher.Decrypt(r.Text)
			if err != nil {
				// One bad entry never aborts the listing.
				text = messages.UndecryptableRev
			}
			lines = append(lines, fmt.Sprintf("📝 %s: %s", dayclock.Display(r.Day), text))
		}
		body = "📖 Your revelations for " + month + ":\n\n" + strings.Join(lines, "\n\n")
	}
	bs.send(ctx, userID, body, messages.HistoryKeyboard(adjacentMonths(month, bs.clock.Today()[:7])))
}

// adjacentMonths returns paging targets around month. Next is withheld once
// the current month is shown.
func adjacentMonths(month, currentMonth string) (string, string) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return "", ""
	}
	prev := t.AddDate(0, -1, 0).Format("2006-01")
	next := ""
	if month < currentMonth {
		next = t.AddDate(0, 1, 0).Format("2006-01")
	}
	return prev, next
}

func (bs *BotService) sendLeaderboard(ctx context.Context, userID int64, logger *slog.Logger) {
	ranked, err := bs.users.ListRanked(ctx)
	if err != nil {
		logger.Error("listing leaderboard error", slog.String("error", err.Error()))
		bs.send(ctx, userID, messages.GenericFailure, nil)
		return
	}
	var body string
	if len(ranked) == 0 {
		body = messages.NoStreaksYet
	} else {
		lines := make([]string, 0, len(ranked))
		for i, row := range ranked {
			name := row.Name
			if name == "" {
				name = "Unknown"
			}
			lines = append(lines, fmt.Sprintf("%d. %s — 🔥 %d (Longest: %d)", i+1, name, row.CurrentStreak, row.LongestStreak))
		}
		body = "🏆 Leaderboard:\n\n" + strings.Join(lines, "\n")
	}
	bs.send(ctx, userID, body, messages.BackKeyboard())
}

// NudgeFired implements scheduler.Handler. The scheduler already re-armed
// tomorrow's nudge; this decides whether today's firing sends anything. A
// fresh read resolves the timer-vs-event race: completion or cancellation
// recorded before we got the lock suppresses the send.
func (bs *BotService) NudgeFired(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	unlock := bs.lockUser(userID)
	defer unlock()
	logger := bs.logger.With(slog.Int64("user_id", userID))
	user, err := bs.users.Get(ctx, userID)
	if err != nil {
		logger.Error("nudge fire: reading user error", slog.String("error", err.Error()))
		return
	}
	today := bs.clock.Today()
	if user.CancelledDay == today {
		logger.Info("nudge skipped: cancelled for today")
		return
	}
	if user.LastDay == today {
		logger.Info("nudge skipped: already completed today")
		return
	}
	bs.send(ctx, userID, messages.RandomNudge(), messages.MainMenuKeyboard())
	bs.sched.ScheduleFollowUp(userID, followUpDelay)
}

// FollowUpFired implements scheduler.Handler.
func (bs *BotService) FollowUpFired(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	unlock := bs.lockUser(userID)
	defer unlock()
	logger := bs.logger.With(slog.Int64("user_id", userID))
	user, err := bs.users.Get(ctx, userID)
	if err != nil {
		logger.Error("follow-up fire: reading user error", slog.String("error", err.Error()))
		return
	}
	today := bs.clock.Today()
	if user.LastDay == today || user.CancelledDay == today {
		return
	}
	bs.send(ctx, userID, messages.FollowUpText, messages.MainMenuKeyboard())
}

// RearmAll reconstructs scheduler entries after a restart from persisted
// reminder times. Firings missed while the process was down are not
// backfilled.
func (bs *BotService) RearmAll(ctx context.Context) error {
	targets, err := bs.users.ListForScheduling(ctx)
	if err != nil {
		return errors.New("listing users for scheduling error: " + err.Error())
	}
	for _, t := range targets {
		bs.sched.ScheduleDailyNudge(t.UserID, t.Hour, t.Minute)
	}
	bs.logger.Info("reminders re-armed", slog.Int("users", len(targets)))
	return nil
}

// RolloverAll runs once per logical day at midnight in the reference
// timezone: streak reconciliation, session reset, cancellation expiry and a
// full nudge re-arm. Per-user failures are logged and skipped so one bad
// record never stalls the batch.
func (bs *BotService) RolloverAll(ctx context.Context) {
	today, yesterday := bs.clock.Today(), bs.clock.Yesterday()
	bs.sessions.ResetAll()
	targets, err := bs.users.ListForScheduling(ctx)
	if err != nil {
		bs.logger.Error("rollover: listing users error", slog.String("error", err.Error()))
		return
	}
	broken := 0
	for _, t := range targets {
		if bs.rolloverUser(ctx, t, yesterday) {
			broken++
		}
	}
	if err := bs.users.ClearExpiredCancellations(ctx, today); err != nil {
		bs.logger.Error("rollover: clearing cancellations error", slog.String("error", err.Error()))
	}
	bs.logger.Info("rollover complete",
		slog.String("day", today),
		slog.Int("users", len(targets)),
		slog.Int("streaks_broken", broken),
	)
}

func (bs *BotService) rolloverUser(ctx context.Context, t entity.ReminderTarget, yesterday string) bool {
	unlock := bs.lockUser(t.UserID)
	defer unlock()
	logger := bs.logger.With(slog.Int64("user_id", t.UserID))
	brokenSent := false
	user, err := bs.users.Get(ctx, t.UserID)
	if err != nil {
		logger.Error("rollover: reading user error", slog.String("error", err.Error()))
	} else {
		updated, broken := streak.ReconcileMissedDay(*user, yesterday)
		if broken {
			if err := bs.users.UpdateStreak(ctx, &updated); err != nil {
				logger.Error("rollover: persisting reset error", slog.String("error", err.Error()))
			} else {
				bs.send(ctx, t.UserID, messages.StreakBrokenText, nil)
				brokenSent = true
			}
		}
	}
	bs.sched.ScheduleDailyNudge(t.UserID, t.Hour, t.Minute)
	return brokenSent
}
