package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/limbo/prayerbot/pkg/entity"
)

type UsersRepositoryI interface {
	// Inserts the user on first sight, otherwise refreshes the last-seen name.
	// Unknown users get zeroed streaks and the default 21:00 reminder.
	Ensure(ctx context.Context, userID int64, name string) error
	// Looks up user's streak record
	Get(ctx context.Context, userID int64) (*entity.UserStreak, error)
	// Writes back streak counters and last completion day
	UpdateStreak(ctx context.Context, user *entity.UserStreak) error
	// Persists a new reminder time-of-day
	SetReminderTime(ctx context.Context, userID int64, hour, minute int) error
	// Marks (day != "") or clears (day == "") the opt-out flag for a day
	SetCancelledDay(ctx context.Context, userID int64, day string) error
	// Clears opt-out flags that belong to days before today
	ClearExpiredCancellations(ctx context.Context, today string) error
	// Lists every user the scheduler must re-arm on startup
	ListForScheduling(ctx context.Context) ([]entity.ReminderTarget, error)
	// Lists users ordered by current streak desc, longest desc, name asc
	ListRanked(ctx context.Context) ([]entity.LeaderboardRow, error)
}

type RevelationsRepositoryI interface {
	// Appends one revelation (ciphertext) for a logical day
	Append(ctx context.Context, userID int64, day, ciphertext string) error
	// Lists all revelations of a user, oldest first
	ListByUser(ctx context.Context, userID int64) ([]entity.Revelation, error)
	// Lists revelations of a user within one month ("YYYY-MM"), oldest first
	ListByUserMonth(ctx context.Context, userID int64, month string) ([]entity.Revelation, error)
}

type DBConfig interface {
	ConnString() string
}

type PgConnection interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGCfg struct {
	Address  string
	Username string
	Password string
	DB       string
}

func (pgcfg *PGCfg) ConnString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s/%s", pgcfg.Username, pgcfg.Password, pgcfg.Address, pgcfg.DB)
}
