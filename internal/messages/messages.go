// Package messages holds the bot's canned texts, keyboards and action
// tokens shared by the service and the transport layers.
package messages

import (
	"math/rand"

	"github.com/limbo/prayerbot/pkg/entity"
)

// Action tokens carried in button callback data.
const (
	ActionMarkDone    = "mark_done"
	ActionSetReminder = "set_reminder_time"
	ActionCancelToday = "cancel_today"
	ActionHistory     = "view_history"
	ActionLeaderboard = "view_leaderboard"
	ActionBackToMenu  = "back_to_menu"
	// History paging tokens look like "view_history:2026-07".
	ActionHistoryPrefix = "view_history:"
)

var nudgeTemplates = []string{
	"🕊️ A nudge for QT — you got this!",
	"✨ QT reminder — take a quiet moment today.",
	"📖 Daily bread check-in — QT time?",
	"⏰ Gentle reminder: Have you done your QT?",
}

const (
	FollowUpText     = "🙏 Hello! Just checking: QT done yet?"
	StreakBrokenText = "New day 🌅 Your streak reset, but it's never too late to build it back! 💪🔥"
	RevelationPrompt = "Awesome 🙌 Please type your revelation for today:"
	RevelationSaved  = "🙏 Revelation saved!"
	AlreadyDoneToday = "✅ Today's QT is already recorded. See you tomorrow!"
	CancelledToday   = "🔕 Today's reminders are off. Back tomorrow as usual."
	ReminderPrompt   = "🕰 Please send your preferred reminder time in 24-hour format.\nExample: 08:00 or 21:15.\n⚠️ Must be before 23:30."
	ChooseOption     = "Please choose an option below:"
	NoRevelations    = "📭 You have no saved revelations yet."
	NoStreaksYet     = "📭 No streaks recorded yet."
	UndecryptableRev = "⚠️ Unable to decrypt."
	GenericFailure   = "😔 Something went wrong. Please try again."
)

// RandomNudge picks one nudge template uniformly. Purely cosmetic, no state.
func RandomNudge() string {
	return nudgeTemplates[rand.Intn(len(nudgeTemplates))]
}

func MainMenuKeyboard() entity.Keyboard {
	return entity.Keyboard{
		{{Text: "✅ Mark QT Done", Data: ActionMarkDone}},
		{
			{Text: "📖 View History", Data: ActionHistory},
			{Text: "⏰ Set Reminder", Data: ActionSetReminder},
		},
		{
			{Text: "🏆 Leaderboard", Data: ActionLeaderboard},
			{Text: "🔕 Skip Today", Data: ActionCancelToday},
		},
	}
}

func BackKeyboard() entity.Keyboard {
	return entity.Keyboard{
		{{Text: "↩️ Back", Data: ActionBackToMenu}},
	}
}

// HistoryKeyboard adds prev/next month paging around the back button.
func HistoryKeyboard(prevMonth, nextMonth string) entity.Keyboard {
	nav := []entity.Button{}
	if prevMonth != "" {
		nav = append(nav, entity.Button{Text: "⬅️ " + prevMonth, Data: ActionHistoryPrefix + prevMonth})
	}
	if nextMonth != "" {
		nav = append(nav, entity.Button{Text: nextMonth + " ➡️", Data: ActionHistoryPrefix + nextMonth})
	}
	kb := entity.Keyboard{}
	if len(nav) > 0 {
		kb = append(kb, nav)
	}
	return append(kb, []entity.Button{{Text: "↩️ Back", Data: ActionBackToMenu}})
}
