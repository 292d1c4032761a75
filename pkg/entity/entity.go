package entity

import "time"

// UserStreak is the durable per-user record. UserID is the chat id of the
// user on the transport side and is the primary key.
type UserStreak struct {
	UserID        int64
	Name          string
	CurrentStreak int
	LongestStreak int
	// LastDay is the logical day (ISO date in the reference timezone) of the
	// most recent completion. Empty if the user never completed.
	LastDay        string
	ReminderHour   int
	ReminderMinute int
	// CancelledDay, when equal to the current logical day, suppresses that
	// day's nudge and follow-up. Empty otherwise.
	CancelledDay string
}

type Revelation struct {
	ID     int
	UserID int64
	// Day is the logical day the revelation was written, ISO formatted.
	Day string
	// Text is ciphertext at rest, plaintext in transit inside the process.
	Text      string
	CreatedAt time.Time
}

// LeaderboardRow is a ranked projection of users for the leaderboard view.
type LeaderboardRow struct {
	Name          string
	CurrentStreak int
	LongestStreak int
}

// ReminderTarget is what the scheduler needs to re-arm a user after restart.
type ReminderTarget struct {
	UserID       int64
	Hour         int
	Minute       int
	CancelledDay string
}

type Button struct {
	Text string `json:"text"`
	Data string `json:"callback_data"`
}

// Keyboard is an inline keyboard descriptor: rows of buttons.
type Keyboard [][]Button

// ButtonEvent is an inbound button tap. Data carries the action token.
type ButtonEvent struct {
	UserID int64
	Name   string
	Data   string
}

// TextEvent is an inbound free-text message.
type TextEvent struct {
	UserID int64
	Name   string
	Text   string
}
