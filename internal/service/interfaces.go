package service

import (
	"context"
	"time"

	"github.com/limbo/prayerbot/internal/scheduler"
	"github.com/limbo/prayerbot/pkg/entity"
)

type BotServiceI interface {
	// Greets the user (provisioning the record on first contact) and shows
	// the streak summary with the main menu
	HandleStart(ctx context.Context, ev entity.TextEvent)
	// Routes a button tap by its action token
	HandleButton(ctx context.Context, ev entity.ButtonEvent)
	// Interprets a free-text message according to the user's session state
	HandleText(ctx context.Context, ev entity.TextEvent)
	// Re-arms every user's nudge from persisted reminder times. Startup path
	RearmAll(ctx context.Context) error
	// Day-rollover batch: reconcile streaks, reset sessions, re-arm nudges
	RolloverAll(ctx context.Context)
}

// NotifierI is the outbound message sink. Delivery failures are returned so
// the caller can log them; they are never fatal.
type NotifierI interface {
	Send(ctx context.Context, userID int64, text string, keyboard entity.Keyboard) error
}

// CipherI is the encryption boundary for revelation text.
type CipherI interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SchedulerI is the subset of the reminder scheduler the service drives.
type SchedulerI interface {
	ScheduleDailyNudge(userID int64, hour, minute int)
	ScheduleFollowUp(userID int64, delay time.Duration)
	Cancel(userID int64, kind scheduler.Kind)
	CancelAll(userID int64)
}
