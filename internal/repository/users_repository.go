package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	errorvalues "github.com/limbo/prayerbot/internal/error_values"
	"github.com/limbo/prayerbot/pkg/cleanup"
	"github.com/limbo/prayerbot/pkg/entity"
)

// DefaultReminderHour/Minute are provisioned for users seen for the first
// time, matching the bot's historical 21:00 check-in.
const (
	DefaultReminderHour   = 21
	DefaultReminderMinute = 0
)

type UsersRepository struct {
	conn PgConnection
}

func NewUsersRepo(cfg DBConfig) *UsersRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for usersRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for usersRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &UsersRepository{
		conn: pool,
	}
}

func NewUsersRepoWithConn(conn PgConnection) *UsersRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for usersRepo: " + err.Error())
	}
	return &UsersRepository{
		conn: conn,
	}
}

func (ur *UsersRepository) Ensure(ctx context.Context, userID int64, name string) error {
	_, err := ur.conn.Exec(ctx, `INSERT INTO users (user_id, name, current_streak, longest_streak, reminder_hour, reminder_minute) VALUES ($1, $2, 0, 0, $3, $4) ON CONFLICT (user_id) DO UPDATE SET name = EXCLUDED.name;`,
		userID, name, DefaultReminderHour, DefaultReminderMinute,
	)
	if err != nil {
		return errors.New("ensuring user db error: " + err.Error())
	}
	return nil
}

func (ur *UsersRepository) Get(ctx context.Context, userID int64) (*entity.UserStreak, error) {
	var user entity.UserStreak
	var lastDay, cancelledDay sql.NullString
	row := ur.conn.QueryRow(ctx, `SELECT user_id, name, current_streak, longest_streak, last_day, reminder_hour, reminder_minute, cancelled_day FROM users WHERE user_id = $1;`, userID)
	if err := row.Scan(&user.UserID, &user.Name, &user.CurrentStreak, &user.LongestStreak, &lastDay, &user.ReminderHour, &user.ReminderMinute, &cancelledDay); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrUserNotFound
		}
		return nil, errors.New("searching user by id error: " + err.Error())
	}
	user.LastDay = lastDay.String
	user.CancelledDay = cancelledDay.String
	return &user, nil
}

func (ur *UsersRepository) UpdateStreak(ctx context.Context, user *entity.UserStreak) error {
	ct, err := ur.conn.Exec(ctx, `UPDATE users SET name = $1, current_streak = $2, longest_streak = $3, last_day = $4 WHERE user_id = $5;`,
		user.Name,
		user.CurrentStreak,
		user.LongestStreak,
		nullableDay(user.LastDay),
		user.UserID,
	)
	if err != nil {
		return errors.New("updating streak error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrUserNotFound
	}
	return nil
}

func (ur *UsersRepository) SetReminderTime(ctx context.Context, userID int64, hour, minute int) error {
	ct, err := ur.conn.Exec(ctx, `UPDATE users SET reminder_hour = $1, reminder_minute = $2 WHERE user_id = $3;`,
		hour, minute, userID,
	)
	if err != nil {
		return errors.New("updating reminder time error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrUserNotFound
	}
	return nil
}

func (ur *UsersRepository) SetCancelledDay(ctx context.Context, userID int64, day string) error {
	ct, err := ur.conn.Exec(ctx, `UPDATE users SET cancelled_day = $1 WHERE user_id = $2;`,
		nullableDay(day), userID,
	)
	if err != nil {
		return errors.New("updating cancelled day error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrUserNotFound
	}
	return nil
}

func (ur *UsersRepository) ClearExpiredCancellations(ctx context.Context, today string) error {
	_, err := ur.conn.Exec(ctx, `UPDATE users SET cancelled_day = NULL WHERE cancelled_day IS NOT NULL AND cancelled_day < $1;`, today)
	if err != nil {
		return errors.New("clearing expired cancellations error: " + err.Error())
	}
	return nil
}

func (ur *UsersRepository) ListForScheduling(ctx context.Context) ([]entity.ReminderTarget, error) {
	targets := make([]entity.ReminderTarget, 0)
	rows, err := ur.conn.Query(ctx, `SELECT user_id, reminder_hour, reminder_minute, cancelled_day FROM users;`)
	if err != nil {
		return nil, errors.New("listing users for scheduling error: " + err.Error())
	}
	defer rows.Close()
	for rows.Next() {
		var t entity.ReminderTarget
		var cancelledDay sql.NullString
		err = rows.Scan(&t.UserID, &t.Hour, &t.Minute, &cancelledDay)
		if err != nil {
			return nil, errors.New("unmarshalling reminder target error: " + err.Error())
		}
		t.CancelledDay = cancelledDay.String
		targets = append(targets, t)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected error after scanning: " + rows.Err().Error())
	}
	return targets, nil
}

func (ur *UsersRepository) ListRanked(ctx context.Context) ([]entity.LeaderboardRow, error) {
	ranked := make([]entity.LeaderboardRow, 0)
	rows, err := ur.conn.Query(ctx, `SELECT name, current_streak, longest_streak FROM users ORDER BY current_streak DESC, longest_streak DESC, name ASC;`)
	if err != nil {
		return nil, errors.New("listing ranked users error: " + err.Error())
	}
	defer rows.Close()
	for rows.Next() {
		var r entity.LeaderboardRow
		err = rows.Scan(&r.Name, &r.CurrentStreak, &r.LongestStreak)
		if err != nil {
			return nil, errors.New("unmarshalling leaderboard row error: " + err.Error())
		}
		ranked = append(ranked, r)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected error after scanning: " + rows.Err().Error())
	}
	return ranked, nil
}

func nullableDay(day string) any {
	if day == "" {
		return nil
	}
	return day
}
