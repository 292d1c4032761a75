// Package streak holds the pure streak transition rules. Functions here take
// the stored state and logical days as plain values and never touch the
// database, so every rule is unit-testable on its own.
package streak

import (
	"fmt"
	"strings"

	"github.com/limbo/prayerbot/pkg/entity"
)

const meterWidth = 7

// Milestones are celebrated on exact streak values only.
var Milestones = map[int]string{
	5:   "🎉 5 days in a row — momentum is building!",
	7:   "🔥 One full week of QT!",
	30:  "🏅 30 days. A whole month of faithfulness!",
	100: "💯 100 days. Incredible commitment!",
	365: "👑 365 days. A full year of QT!",
}

// RecordCompletion applies a completion on `today` to the stored state.
// Completing twice on the same day is a no-op. The caller persists the
// returned state.
func RecordCompletion(state entity.UserStreak, today, yesterday string) entity.UserStreak {
	switch state.LastDay {
	case today:
		return state
	case yesterday:
		state.CurrentStreak++
	default:
		state.CurrentStreak = 1
	}
	if state.CurrentStreak > state.LongestStreak {
		state.LongestStreak = state.CurrentStreak
	}
	state.LastDay = today
	return state
}

// ReconcileMissedDay zeroes the current streak when yesterday went
// uncompleted. Returns the new state and whether the streak was broken (the
// caller owes the user a notification when true). Longest streak is never
// touched here.
func ReconcileMissedDay(state entity.UserStreak, yesterday string) (entity.UserStreak, bool) {
	if state.LastDay == yesterday || state.CurrentStreak == 0 {
		return state, false
	}
	state.CurrentStreak = 0
	return state, true
}

// Meter renders the 7-slot fire meter. The cycle wraps at exact multiples of
// 7 showing full, not empty.
func Meter(current int) string {
	if current <= 0 {
		return strings.Repeat("⚪", meterWidth)
	}
	rem := current % meterWidth
	if rem == 0 {
		rem = meterWidth
	}
	return strings.Repeat("🔥", rem) + strings.Repeat("⚪", meterWidth-rem)
}

// MilestoneMessage returns the celebration for an exact milestone value.
func MilestoneMessage(current int) (string, bool) {
	msg, ok := Milestones[current]
	return msg, ok
}

// Summary renders the streak block shown under most bot replies.
func Summary(state *entity.UserStreak) string {
	msg := fmt.Sprintf("%s\nCurrent streak: %d days\nLongest streak: %d days",
		Meter(state.CurrentStreak), state.CurrentStreak, state.LongestStreak)
	msg += fmt.Sprintf("\n\n🔔 Daily reminder set for %02d:%02d", state.ReminderHour, state.ReminderMinute)
	return msg
}
